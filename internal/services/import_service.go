package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const importDateLayout = "2006-01-02"

var batchKeys = []string{"date", "number_of_participants", "md5_hash"}

var lineItemKeys = []string{"region", "technology", "volume_auctioned", "average_price", "volume_sold", "number_of_winners"}

type ImportService struct {
	importer   BatchImporter
	logService LogWriter
}

func NewImportService(importer BatchImporter, logService LogWriter) (*ImportService, error) {
	if importer == nil {
		return nil, errors.New("batch importer is nil")
	}
	if logService == nil {
		return nil, errors.New("log service is nil")
	}

	return &ImportService{
		importer:   importer,
		logService: logService,
	}, nil
}

func (s *ImportService) ImportFile(ctx context.Context, path string) (ImportSummary, error) {
	if s == nil {
		return ImportSummary{}, errors.New("import service is nil")
	}
	if path == "" {
		return ImportSummary{}, errors.New("import path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("open import file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return s.Import(ctx, file)
}

// Import reads a {"results": [...]} document, validates all of it and then
// stores it in one transaction. Batches whose hash is already stored are
// skipped.
func (s *ImportService) Import(ctx context.Context, r io.Reader) (ImportSummary, error) {
	if s == nil {
		return ImportSummary{}, errors.New("import service is nil")
	}
	if s.importer == nil || s.logService == nil {
		return ImportSummary{}, errors.New("import service is not initialized")
	}
	if r == nil {
		return ImportSummary{}, errors.New("reader is nil")
	}

	batches, err := decodeImportDocument(r)
	if err != nil {
		failMsg := fmt.Sprintf("validate import document: %v", err)
		_ = s.logService.CreateLog(ctx, nil, LogActionBulkImport, LogOutcomeFail, &failMsg)
		return ImportSummary{}, err
	}

	summary, err := s.importer.ImportBatches(ctx, batches)
	if err != nil {
		failMsg := fmt.Sprintf("import batches=%d: %v", len(batches), err)
		_ = s.logService.CreateLog(ctx, nil, LogActionBulkImport, LogOutcomeFail, &failMsg)
		return ImportSummary{}, fmt.Errorf("import batches: %w", err)
	}

	successMsg := fmt.Sprintf("imported created=%d skipped=%d", summary.Created, summary.Skipped)
	_ = s.logService.CreateLog(ctx, nil, LogActionBulkImport, LogOutcomeSuccess, &successMsg)

	return summary, nil
}

func decodeImportDocument(r io.Reader) ([]BatchImport, error) {
	var document map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&document); err != nil {
		return nil, fmt.Errorf("%w: not a json object: %v", ErrInvalidImportValue, err)
	}
	if err := requireKeys(document, "", "results"); err != nil {
		return nil, err
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(document["results"], &entries); err != nil {
		return nil, fmt.Errorf("%w: results must be a list of objects: %v", ErrInvalidImportValue, err)
	}

	batches := make([]BatchImport, 0, len(entries))
	for i, entry := range entries {
		batch, err := decodeBatch(entry, fmt.Sprintf("results[%d]", i))
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}

	return batches, nil
}

func decodeBatch(entry map[string]json.RawMessage, path string) (BatchImport, error) {
	if err := requireKeys(entry, path, batchKeys...); err != nil {
		return BatchImport{}, err
	}

	var rawDate string
	if err := decodeValue(entry, path, "date", &rawDate); err != nil {
		return BatchImport{}, err
	}
	date, err := time.Parse(importDateLayout, rawDate)
	if err != nil {
		return BatchImport{}, fmt.Errorf("%w: %s.date %q: %v", ErrInvalidImportValue, path, rawDate, err)
	}

	var batch BatchImport
	batch.Batch.Date = date
	if err := decodeValue(entry, path, "number_of_participants", &batch.Batch.Participants); err != nil {
		return BatchImport{}, err
	}
	if err := decodeValue(entry, path, "md5_hash", &batch.Batch.ContentHash); err != nil {
		return BatchImport{}, err
	}
	batch.Batch.ContentHash = strings.TrimSpace(batch.Batch.ContentHash)
	if batch.Batch.ContentHash == "" {
		return BatchImport{}, fmt.Errorf("%w: %s.md5_hash is empty", ErrInvalidImportValue, path)
	}
	if batch.Batch.Participants < 0 {
		return BatchImport{}, fmt.Errorf("%w: %s.number_of_participants is negative", ErrInvalidImportValue, path)
	}

	raw, ok := entry["auctions"]
	if !ok || string(raw) == "null" {
		return batch, nil
	}
	var auctions []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &auctions); err != nil {
		return BatchImport{}, fmt.Errorf("%w: %s.auctions must be a list of objects: %v", ErrInvalidImportValue, path, err)
	}

	batch.Items = make([]LineItemFields, 0, len(auctions))
	for j, auction := range auctions {
		item, err := decodeLineItem(auction, fmt.Sprintf("%s.auctions[%d]", path, j))
		if err != nil {
			return BatchImport{}, err
		}
		batch.Items = append(batch.Items, item)
	}

	return batch, nil
}

func decodeLineItem(auction map[string]json.RawMessage, path string) (LineItemFields, error) {
	if err := requireKeys(auction, path, lineItemKeys...); err != nil {
		return LineItemFields{}, err
	}

	var item LineItemFields
	targets := map[string]any{
		"region":            &item.Region,
		"technology":        &item.Technology,
		"volume_auctioned":  &item.VolumeAuctioned,
		"average_price":     &item.AveragePrice,
		"volume_sold":       &item.VolumeSold,
		"number_of_winners": &item.NumberOfWinners,
	}
	for _, key := range lineItemKeys {
		if err := decodeValue(auction, path, key, targets[key]); err != nil {
			return LineItemFields{}, err
		}
	}

	if item.VolumeAuctioned < 0 || item.VolumeSold < 0 || item.NumberOfWinners < 0 || item.AveragePrice < 0 {
		return LineItemFields{}, fmt.Errorf("%w: %s has a negative value", ErrInvalidImportValue, path)
	}

	return item, nil
}

func requireKeys(object map[string]json.RawMessage, path string, keys ...string) error {
	for _, key := range keys {
		if _, ok := object[key]; !ok {
			return &ImportKeyError{Key: key, Path: path}
		}
	}
	return nil
}

// decodeValue unmarshals a required key. A null value is rejected rather than
// decoded to the zero value.
func decodeValue(object map[string]json.RawMessage, path string, key string, target any) error {
	name := key
	if path != "" {
		name = path + "." + key
	}

	raw := object[key]
	if strings.TrimSpace(string(raw)) == "null" {
		return fmt.Errorf("%w: %s is null", ErrInvalidImportValue, name)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidImportValue, name, err)
	}
	return nil
}
