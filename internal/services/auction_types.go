package services

import "time"

// LineItemFields is one normalized region/technology row, ready to persist.
type LineItemFields struct {
	Region          string  `json:"region"`
	Technology      string  `json:"technology"`
	VolumeAuctioned int     `json:"volume_auctioned"`
	VolumeSold      int     `json:"volume_sold"`
	AveragePrice    float64 `json:"average_price"`
	NumberOfWinners int     `json:"number_of_winners"`
}

type NormalizedSheet struct {
	Participants int
	Rows         []LineItemFields
}

type BatchFields struct {
	Date         time.Time
	Participants int
	ContentHash  string
}

type BatchImport struct {
	Batch BatchFields
	Items []LineItemFields
}

type ImportSummary struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

type DownloadResult struct {
	URL        string
	StatusCode int
	Bytes      []byte
}

type OutcomeKind string

const (
	OutcomeCreated OutcomeKind = "created"
	OutcomeSkipped OutcomeKind = "skipped"
)

// BatchOutcome is the successful result of an ingestion run. A skipped run
// found its content hash already stored and wrote nothing.
type BatchOutcome struct {
	Kind        OutcomeKind
	BatchID     uint
	ContentHash string
	Period      time.Time
	LineItems   int
	SourceURL   string
}

func (o BatchOutcome) Created() bool {
	return o.Kind == OutcomeCreated
}

type BatchOrdering string

const (
	OrderNewestFirst BatchOrdering = "newest"
	OrderOldestFirst BatchOrdering = "oldest"
)

// BatchQuery narrows a batch listing. Zero values mean no filter; From and To
// are inclusive months.
type BatchQuery struct {
	Ordering BatchOrdering
	From     *time.Time
	To       *time.Time
	Limit    int
}
