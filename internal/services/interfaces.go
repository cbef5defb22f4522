package services

import (
	"context"

	"soldera/internal/models"
)

type LogWriter interface {
	CreateLog(ctx context.Context, eventID *string, action string, outcome string, message *string) error
}

type DiscoveryClient interface {
	FindLatestLink(ctx context.Context) (string, error)
	Download(ctx context.Context, link string) (DownloadResult, error)
}

type SpreadsheetNormalizer interface {
	Normalize(ctx context.Context, content []byte) (NormalizedSheet, error)
}

// ResultRepository persists batches. CreateBatchWithItems is all-or-nothing
// and reports a content hash that is already stored as ErrDuplicateContent.
type ResultRepository interface {
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	CreateBatchWithItems(ctx context.Context, batch BatchFields, items []LineItemFields) (uint, error)
	ListBatches(ctx context.Context, query BatchQuery) ([]models.AuctionBatch, error)
	GetBatch(ctx context.Context, id uint) (models.AuctionBatch, error)
}

type BatchImporter interface {
	ImportBatches(ctx context.Context, batches []BatchImport) (ImportSummary, error)
}

type IngestionRunner interface {
	Run(ctx context.Context, eventID *string) (BatchOutcome, error)
}
