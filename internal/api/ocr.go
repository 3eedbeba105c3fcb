package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/roasbeef/booksum/internal/jobs"
)

// SubmitJob starts an extraction job over the given uploaded images.
func (c *Client) SubmitJob(ctx context.Context,
	imageIDs []string) (jobs.Job, error) {

	if len(imageIDs) == 0 {
		return jobs.Job{}, errors.New("submit job: no image ids")
	}

	var resp jobWire
	err := c.do(
		ctx, http.MethodPost, c.endpoint(nil, "ocr", "process"),
		submitJobRequest{ImageIDs: imageIDs}, &resp,
	)
	if err != nil {
		return jobs.Job{}, fmt.Errorf("submit job: %w", err)
	}

	return resp.toJob(), nil
}

// GetJobStatus reads the current state of a job. It satisfies
// jobs.StatusReader.
func (c *Client) GetJobStatus(ctx context.Context,
	jobID string) (jobs.Job, error) {

	if jobID == "" {
		return jobs.Job{}, errors.New("get job status: empty job id")
	}

	var resp jobWire
	err := c.do(
		ctx, http.MethodGet, c.endpoint(nil, "ocr", "status", jobID),
		nil, &resp,
	)
	if err != nil {
		return jobs.Job{}, fmt.Errorf("get job status: %w", err)
	}

	return resp.toJob(), nil
}

// ResolveReference looks up an extracted image and returns the id of the
// summary record it belongs to.
func (c *Client) ResolveReference(ctx context.Context,
	imageID string) (string, error) {

	if imageID == "" {
		return "", errors.New("resolve reference: empty image id")
	}

	var resp imageDetailWire
	err := c.do(
		ctx, http.MethodGet,
		c.endpoint(nil, "images", imageID, "detail"), nil, &resp,
	)
	if err != nil {
		return "", fmt.Errorf("resolve reference: %w", err)
	}
	if resp.SummaryID == "" {
		return "", fmt.Errorf("resolve reference: image %s has no "+
			"summary", imageID)
	}

	return resp.SummaryID, nil
}
