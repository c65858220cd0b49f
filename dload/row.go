// Package dload implements the shard download pipeline: concurrent,
// bounded, retry-aware fetch -> hash-verify -> transform -> write for one
// shard at a time (see SPEC_FULL.md).
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package dload

const (
	StatusSuccess          = "success"
	StatusFailedToDownload = "failed_to_download"
	StatusFailedToResize   = "failed_to_resize"
)

// RowURL is the tagged variant at the row boundary (§9 design note): a row's
// `url` column is either a single string or an ordered list of strings, list
// elements may be null. Dispatch on IsList happens once, in the retry
// wrapper (C2); every stage downstream is specialised to one shape or the
// other and never re-inspects this tag.
type RowURL struct {
	Single string
	List   []*string // nil entries are input nulls, skipped, order preserved
	IsList bool
}

// Row is one input sample: its position in the shard, its URL(s), and the
// full payload tuple mirroring Config.ColumnList (including the url column
// itself, for uniform indexing via ColumnIndex).
type Row struct {
	RowIndex int
	URL      RowURL
	Payload  []any
}

// FetchOutcome is the result of one HTTP GET attempt (C1): exactly one of
// Body/Err is populated.
type FetchOutcome struct {
	Body []byte
	Err  error
}

func (f FetchOutcome) ok() bool { return f.Err == nil }

// RawRowResult is what the retry wrapper (C2) hands back to the bounded
// pipeline: either a single fetch result, or one per non-null URL in
// arrival order of the input list (nulls elided).
type RawRowResult struct {
	Row    *Row
	Single FetchOutcome
	List   []FetchOutcome // len == count of non-null URLs, iff Row.URL.IsList
}

// SubOutcome is the per-URL result described in the data model: every field
// but Status is optional, and at most one of the three statuses applies.
type SubOutcome struct {
	Status        string
	ErrorMessage  string
	Width         int
	Height        int
	OriginalWidth int
	OriginalHeight int
	HasDims       bool
	EXIF          string
	HasEXIF       bool
	Hash          string
	HasHash       bool

	// Meta carries the echoed payload columns (minus the verify-hash
	// column) plus key/status/error_message/dims/exif/hash, exactly what
	// crosses the SampleWriter boundary for this sub-outcome.
	Meta map[string]any

	// Image is populated only for the single successful sub-outcome the
	// multi-writer fallback path needs; nil otherwise.
	Image []byte
}

func (s *SubOutcome) succeeded() bool { return s.Status == StatusSuccess }
