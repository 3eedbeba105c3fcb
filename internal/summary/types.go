// Package summary holds the summary record types shared by the API client,
// the cache and the listing view, along with the local identifier checks
// that gate every id-keyed remote operation.
package summary

import (
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Base is the lightweight form of a summary record. List endpoints return
// this shape and the recency list stores it; it never carries the body
// texts.
type Base struct {
	// ID is the canonical hyphenated identifier of the record.
	ID string

	// Title is the user supplied title.
	Title string

	// Description is an optional free-form description.
	Description fn.Option[string]

	// CustomInstructions holds the instructions the summary was generated
	// with, if any.
	CustomInstructions fn.Option[string]

	// CreatedAt is when the record was created remotely.
	CreatedAt time.Time

	// UpdatedAt is when the record was last modified remotely.
	UpdatedAt time.Time
}

// Record is a full summary record including the extracted original text and
// the generated summary.
type Record struct {
	Base

	// OriginalText is the text extracted from the source pages.
	OriginalText string

	// SummarizedText is the generated summary.
	SummarizedText string
}

// Lightweight returns the record without its body texts.
func (r Record) Lightweight() Base {
	return r.Base
}

// DescriptionOr returns the description or the given fallback when the
// record has none.
func (b Base) DescriptionOr(fallback string) string {
	return b.Description.UnwrapOr(fallback)
}

// Patch is an update to the mutable fields of a record.
type Patch struct {
	// Title replaces the record title.
	Title string `json:"title" validate:"required,min=1,max=255"`

	// Description replaces the description. A nil pointer leaves it
	// unset on the wire.
	Description *string `json:"description,omitempty"`
}

// Draft is a new record assembled from a finished pipeline run.
type Draft struct {
	Title          string  `json:"title" validate:"required,min=1,max=255"`
	Description    *string `json:"description,omitempty"`
	OriginalText   string  `json:"original_text" validate:"required"`
	SummarizedText string  `json:"summarized_text" validate:"required"`
}

// Page is one page of lightweight records from the remote listing.
type Page struct {
	// Items are the records on this page.
	Items []Base

	// Total is the number of records in the whole collection.
	Total int

	// Page is the 1-based page number that was requested.
	Page int

	// PageSize is the page size that was requested.
	PageSize int
}
