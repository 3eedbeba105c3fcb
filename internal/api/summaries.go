package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/roasbeef/booksum/internal/summary"
)

// GenerateSummary asks the service to summarize the text collected for the
// record id. Blank instructions are treated as none.
func (c *Client) GenerateSummary(ctx context.Context, id string,
	instructions fn.Option[string]) (summary.Record, error) {

	if err := summary.ValidateID(id); err != nil {
		return summary.Record{}, err
	}

	req := generateRequest{SummaryID: id}
	instructions.WhenSome(func(s string) {
		if s != "" {
			req.CustomInstructions = &s
		}
	})

	var resp summaryDetailWire
	err := c.do(
		ctx, http.MethodPost, c.endpoint(nil, "summaries", "generate"),
		req, &resp,
	)
	if err != nil {
		return summary.Record{}, fmt.Errorf("generate summary: %w", err)
	}

	return resp.toRecord(), nil
}

// ListSummaries fetches one page of lightweight records. Pages are 1-based.
func (c *Client) ListSummaries(ctx context.Context, page,
	pageSize int) (summary.Page, error) {

	if page < 1 {
		return summary.Page{}, fmt.Errorf("list summaries: page %d "+
			"must be at least 1", page)
	}
	if pageSize < 1 {
		return summary.Page{}, fmt.Errorf("list summaries: page size "+
			"%d must be at least 1", pageSize)
	}

	query := url.Values{}
	query.Set("skip", strconv.Itoa((page-1)*pageSize))
	query.Set("limit", strconv.Itoa(pageSize))

	var resp summaryListWire
	err := c.do(
		ctx, http.MethodGet, c.endpoint(query, "summaries"), nil, &resp,
	)
	if err != nil {
		return summary.Page{}, fmt.Errorf("list summaries: %w", err)
	}

	items := make([]summary.Base, 0, len(resp.Items))
	for _, item := range resp.Items {
		items = append(items, item.toBase())
	}

	return summary.Page{
		Items:    items,
		Total:    resp.Total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// GetSummary fetches a full record.
func (c *Client) GetSummary(ctx context.Context,
	id string) (summary.Record, error) {

	if err := summary.ValidateID(id); err != nil {
		return summary.Record{}, err
	}

	var resp summaryDetailWire
	err := c.do(
		ctx, http.MethodGet, c.endpoint(nil, "summaries", id), nil,
		&resp,
	)
	if err != nil {
		return summary.Record{}, fmt.Errorf("get summary: %w", err)
	}

	return resp.toRecord(), nil
}

// UpdateSummary replaces the title and description of a record.
func (c *Client) UpdateSummary(ctx context.Context, id string,
	patch summary.Patch) (summary.Record, error) {

	if err := summary.ValidateID(id); err != nil {
		return summary.Record{}, err
	}
	if err := patch.Validate(); err != nil {
		return summary.Record{}, err
	}

	var resp summaryDetailWire
	err := c.do(
		ctx, http.MethodPut, c.endpoint(nil, "summaries", id), patch,
		&resp,
	)
	if err != nil {
		return summary.Record{}, fmt.Errorf("update summary: %w", err)
	}

	return resp.toRecord(), nil
}

// DeleteSummary removes a record.
func (c *Client) DeleteSummary(ctx context.Context, id string) error {
	if err := summary.ValidateID(id); err != nil {
		return err
	}

	err := c.do(
		ctx, http.MethodDelete, c.endpoint(nil, "summaries", id), nil,
		nil,
	)
	if err != nil {
		return fmt.Errorf("delete summary: %w", err)
	}

	return nil
}

// CreateSummary persists a finished summary as a new record.
func (c *Client) CreateSummary(ctx context.Context,
	draft summary.Draft) (summary.Record, error) {

	if err := draft.Validate(); err != nil {
		return summary.Record{}, err
	}

	var resp summaryDetailWire
	err := c.do(
		ctx, http.MethodPost, c.endpoint(nil, "summaries"), draft,
		&resp,
	)
	if err != nil {
		return summary.Record{}, fmt.Errorf("create summary: %w", err)
	}

	return resp.toRecord(), nil
}
