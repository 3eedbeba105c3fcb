package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/roasbeef/booksum/internal/jobs"
	"github.com/roasbeef/booksum/internal/summary"
)

// wireTime accepts both RFC 3339 timestamps and the zone-less ISO form the
// service emits, which is read as UTC.
type wireTime time.Time

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *wireTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = wireTime{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}

	for _, layout := range wireTimeLayouts {
		parsed, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			*t = wireTime(parsed)
			return nil
		}
	}

	return fmt.Errorf("unrecognised timestamp %q", s)
}

func (t wireTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(time.RFC3339Nano))
}

type itemResultWire struct {
	ImageID string  `json:"image_id"`
	Success bool    `json:"success"`
	OCRText *string `json:"ocr_text,omitempty"`
	Error   *string `json:"error,omitempty"`
}

type jobWire struct {
	JobID   string           `json:"job_id"`
	Status  jobs.Status      `json:"status"`
	Results []itemResultWire `json:"results"`
}

func (w jobWire) toJob() jobs.Job {
	results := make([]jobs.ItemResult, 0, len(w.Results))
	for _, r := range w.Results {
		results = append(results, jobs.ItemResult{
			ItemID:        r.ImageID,
			Success:       r.Success,
			ExtractedText: fn.OptionFromPtr(r.OCRText),
			ErrorMessage:  fn.OptionFromPtr(r.Error),
		})
	}

	return jobs.Job{
		ID:      w.JobID,
		Status:  w.Status,
		Results: results,
	}
}

type submitJobRequest struct {
	ImageIDs []string `json:"image_ids"`
}

type imageDetailWire struct {
	ID        string `json:"id"`
	SummaryID string `json:"summary_id"`
}

type summaryBaseWire struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        *string  `json:"description"`
	CustomInstructions *string  `json:"custom_instructions"`
	CreatedAt          wireTime `json:"created_at"`
	UpdatedAt          wireTime `json:"updated_at"`
}

func (w summaryBaseWire) toBase() summary.Base {
	return summary.Base{
		ID:                 w.ID,
		Title:              w.Title,
		Description:        nonEmpty(w.Description),
		CustomInstructions: nonEmpty(w.CustomInstructions),
		CreatedAt:          time.Time(w.CreatedAt),
		UpdatedAt:          time.Time(w.UpdatedAt),
	}
}

type summaryDetailWire struct {
	summaryBaseWire

	OriginalText   string `json:"original_text"`
	SummarizedText string `json:"summarized_text"`
}

func (w summaryDetailWire) toRecord() summary.Record {
	return summary.Record{
		Base:           w.toBase(),
		OriginalText:   w.OriginalText,
		SummarizedText: w.SummarizedText,
	}
}

type summaryListWire struct {
	Items    []summaryBaseWire `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

type generateRequest struct {
	SummaryID          string  `json:"summary_id"`
	CustomInstructions *string `json:"custom_instructions,omitempty"`
}

// nonEmpty maps a nil or blank string to None.
func nonEmpty(s *string) fn.Option[string] {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fn.None[string]()
	}

	return fn.Some(*s)
}
