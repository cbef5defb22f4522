package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"soldera/internal/models"

	"github.com/stretchr/testify/require"
)

const importDocument = `{
  "results": [
    {
      "date": "2024-01-01",
      "number_of_participants": 41,
      "md5_hash": "0cc175b9c0f1b6a831c399e269772661",
      "auctions": [
        {"region": "Bretagne", "technology": "wind_energy_onshore", "volume_auctioned": 100, "average_price": 0.55, "volume_sold": 90, "number_of_winners": 5},
        {"region": "Corse", "technology": "solar", "volume_auctioned": 10, "average_price": 0.7, "volume_sold": 10, "number_of_winners": 1}
      ]
    },
    {
      "date": "2024-02-01",
      "number_of_participants": 38,
      "md5_hash": "92eb5ffee6ae2fec3ad71c777531578f"
    }
  ]
}`

func newTestImportService(t *testing.T) (*ImportService, *ResultService, *stubLogWriter) {
	t.Helper()

	results, _ := newTestResultService(t)
	logs := &stubLogWriter{}
	service, err := NewImportService(results, logs)
	require.NoError(t, err)

	return service, results, logs
}

func TestNewImportServiceNilDependencies(t *testing.T) {
	_, err := NewImportService(nil, &stubLogWriter{})
	require.Error(t, err)

	_, err = NewImportService(failingImporter{}, nil)
	require.Error(t, err)
}

type failingImporter struct{}

func (failingImporter) ImportBatches(ctx context.Context, batches []BatchImport) (ImportSummary, error) {
	return ImportSummary{}, errors.New("database is locked")
}

func TestImportServiceImport(t *testing.T) {
	service, results, logs := newTestImportService(t)
	ctx := context.Background()

	summary, err := service.Import(ctx, strings.NewReader(importDocument))
	require.NoError(t, err)
	require.Equal(t, ImportSummary{Created: 2}, summary)

	batches, err := results.ListBatches(ctx, BatchQuery{Ordering: OrderOldestFirst})
	require.NoError(t, err)
	require.Len(t, batches, 2)
	require.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), batches[0].Date.UTC())
	require.Equal(t, 41, batches[0].NumberOfParticipants)
	require.Len(t, batches[0].Auctions, 2)
	require.Equal(t, "Bretagne", batches[0].Auctions[0].Region)
	require.Empty(t, batches[1].Auctions)

	again, err := service.Import(ctx, strings.NewReader(importDocument))
	require.NoError(t, err)
	require.Equal(t, ImportSummary{Skipped: 2}, again)

	last := logs.entries[len(logs.entries)-1]
	require.Equal(t, LogActionBulkImport, last.action)
	require.Equal(t, LogOutcomeSuccess, last.outcome)
}

func TestImportServiceImportFile(t *testing.T) {
	service, _, _ := newTestImportService(t)

	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte(importDocument), 0o600))

	summary, err := service.ImportFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Created)

	_, err = service.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestImportServiceMissingKeys(t *testing.T) {
	tests := []struct {
		name     string
		document string
		key      string
		path     string
	}{
		{name: "no results", document: `{"data": []}`, key: "results", path: ""},
		{name: "no hash", document: `{"results": [{"date": "2024-01-01", "number_of_participants": 1}]}`, key: "md5_hash", path: "results[0]"},
		{name: "no date", document: `{"results": [{"number_of_participants": 1, "md5_hash": "a"}]}`, key: "date", path: "results[0]"},
		{
			name:     "no winners",
			document: `{"results": [{"date": "2024-01-01", "number_of_participants": 1, "md5_hash": "a", "auctions": [{"region": "r", "technology": "t", "volume_auctioned": 1, "average_price": 1, "volume_sold": 1}]}]}`,
			key:      "number_of_winners",
			path:     "results[0].auctions[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _, logs := newTestImportService(t)

			_, err := service.Import(context.Background(), strings.NewReader(tt.document))

			var keyErr *ImportKeyError
			require.True(t, errors.As(err, &keyErr), "err = %v", err)
			require.Equal(t, tt.key, keyErr.Key)
			require.Equal(t, tt.path, keyErr.Path)
			require.Equal(t, ErrorKindImportStructure, ErrorKind(err))
			require.Equal(t, LogOutcomeFail, logs.entries[0].outcome)
		})
	}
}

func TestImportServiceInvalidValues(t *testing.T) {
	tests := map[string]string{
		"not json":          `results`,
		"results not list":  `{"results": {"date": "2024-01-01"}}`,
		"bad date":          `{"results": [{"date": "01/02/2024", "number_of_participants": 1, "md5_hash": "a"}]}`,
		"text participants": `{"results": [{"date": "2024-01-01", "number_of_participants": "many", "md5_hash": "a"}]}`,
		"empty hash":        `{"results": [{"date": "2024-01-01", "number_of_participants": 1, "md5_hash": " "}]}`,
		"negative volume":   `{"results": [{"date": "2024-01-01", "number_of_participants": 1, "md5_hash": "a", "auctions": [{"region": "r", "technology": "t", "volume_auctioned": -1, "average_price": 1, "volume_sold": 1, "number_of_winners": 1}]}]}`,
		"fractional volume": `{"results": [{"date": "2024-01-01", "number_of_participants": 1, "md5_hash": "a", "auctions": [{"region": "r", "technology": "t", "volume_auctioned": 1.5, "average_price": 1, "volume_sold": 1, "number_of_winners": 1}]}]}`,
		"null participants": `{"results": [{"date": "2024-01-01", "number_of_participants": null, "md5_hash": "a"}]}`,
		"null volume sold":  `{"results": [{"date": "2024-01-01", "number_of_participants": 1, "md5_hash": "a", "auctions": [{"region": "r", "technology": "t", "volume_auctioned": 1, "average_price": 1, "volume_sold": null, "number_of_winners": 1}]}]}`,
		"null date":         `{"results": [{"date": null, "number_of_participants": 1, "md5_hash": "a"}]}`,
	}

	for name, document := range tests {
		t.Run(name, func(t *testing.T) {
			service, _, _ := newTestImportService(t)

			_, err := service.Import(context.Background(), strings.NewReader(document))
			require.ErrorIs(t, err, ErrInvalidImportValue)
		})
	}
}

func TestImportServiceValidatesBeforeWriting(t *testing.T) {
	service, results, _ := newTestImportService(t)

	document := `{"results": [
		{"date": "2024-01-01", "number_of_participants": 1, "md5_hash": "first"},
		{"date": "2024-02-01", "number_of_participants": 1}
	]}`
	_, err := service.Import(context.Background(), strings.NewReader(document))
	require.Error(t, err)

	var count int64
	require.NoError(t, results.db.Model(&models.AuctionBatch{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestImportServiceStoreFailure(t *testing.T) {
	logs := &stubLogWriter{}
	service, err := NewImportService(failingImporter{}, logs)
	require.NoError(t, err)

	_, err = service.Import(context.Background(), strings.NewReader(importDocument))
	require.ErrorContains(t, err, "database is locked")
	require.Equal(t, LogOutcomeFail, logs.entries[len(logs.entries)-1].outcome)
}

func TestImportServiceNilReceiver(t *testing.T) {
	var service *ImportService
	_, err := service.Import(context.Background(), strings.NewReader(importDocument))
	require.Error(t, err)
	_, err = service.ImportFile(context.Background(), "results.json")
	require.Error(t, err)
}
