package services

import (
	"context"
	"errors"
	"fmt"
)

// IngestionState names the step a run is in. A failed run moves to
// StateFailed; its DiscoveryError reports the step that failed.
type IngestionState string

const (
	StateFetching     IngestionState = "FETCHING"
	StateDateResolved IngestionState = "DATE_RESOLVED"
	StateHashChecked  IngestionState = "HASH_CHECKED"
	StateParsed       IngestionState = "PARSED"
	StatePersisted    IngestionState = "PERSISTED"
	StateFailed       IngestionState = "FAILED"
)

type IngestionService struct {
	discovery  DiscoveryClient
	normalizer SpreadsheetNormalizer
	results    ResultRepository
	logService LogWriter
}

func NewIngestionService(discovery DiscoveryClient, normalizer SpreadsheetNormalizer, results ResultRepository, logService LogWriter) (*IngestionService, error) {
	if discovery == nil {
		return nil, errors.New("discovery client is nil")
	}
	if normalizer == nil {
		return nil, errors.New("spreadsheet normalizer is nil")
	}
	if results == nil {
		return nil, errors.New("result repository is nil")
	}
	if logService == nil {
		return nil, errors.New("log service is nil")
	}

	return &IngestionService{
		discovery:  discovery,
		normalizer: normalizer,
		results:    results,
		logService: logService,
	}, nil
}

// Run ingests the latest published results once. Content that is already
// stored, by an earlier run or by a concurrent one, ends as OutcomeSkipped
// with a nil error. Failures are returned as *DiscoveryError.
func (s *IngestionService) Run(ctx context.Context, eventID *string) (BatchOutcome, error) {
	if s == nil {
		return BatchOutcome{}, errors.New("ingestion service is nil")
	}
	if s.discovery == nil || s.normalizer == nil || s.results == nil || s.logService == nil {
		return BatchOutcome{}, errors.New("ingestion service is not initialized")
	}

	link, err := s.discovery.FindLatestLink(ctx)
	if err != nil {
		return s.fail(ctx, eventID, StateFetching, LogActionDiscovery, "find latest link", err)
	}
	filename, err := FilenameFromLink(link)
	if err != nil {
		return s.fail(ctx, eventID, StateFetching, LogActionDiscovery, "filename from link", fmt.Errorf("%w: %v", ErrMalformedFilename, err))
	}
	s.log(ctx, eventID, LogActionDiscovery, LogOutcomeSuccess, fmt.Sprintf("link=%s filename=%s", link, filename))

	year, month, err := ParseFilenameDate(filename)
	if err != nil {
		return s.fail(ctx, eventID, StateDateResolved, LogActionDiscovery, "resolve period", err)
	}
	period := PeriodDate(year, month)

	download, err := s.discovery.Download(ctx, link)
	if err != nil {
		return s.fail(ctx, eventID, StateFetching, LogActionDownload, "download "+link, err)
	}
	s.log(ctx, eventID, LogActionDownload, LogOutcomeSuccess, fmt.Sprintf("url=%s status=%d bytes=%d", download.URL, download.StatusCode, len(download.Bytes)))

	hash := HashContent(download.Bytes)
	outcome := BatchOutcome{
		ContentHash: hash,
		Period:      period,
		SourceURL:   download.URL,
	}

	exists, err := s.results.ExistsByHash(ctx, hash)
	if err != nil {
		return s.fail(ctx, eventID, StateHashChecked, LogActionHashCheck, "check content hash", err)
	}
	if exists {
		s.log(ctx, eventID, LogActionHashCheck, LogOutcomeSkipped, fmt.Sprintf("md5_hash=%s already stored", hash))
		outcome.Kind = OutcomeSkipped
		return outcome, nil
	}
	s.log(ctx, eventID, LogActionHashCheck, LogOutcomeSuccess, fmt.Sprintf("md5_hash=%s is new", hash))

	sheet, err := s.normalizer.Normalize(ctx, download.Bytes)
	if err != nil {
		return s.fail(ctx, eventID, StateParsed, LogActionSpreadsheetParse, "normalize "+filename, err)
	}
	s.log(ctx, eventID, LogActionSpreadsheetParse, LogOutcomeSuccess, fmt.Sprintf("participants=%d rows=%d", sheet.Participants, len(sheet.Rows)))

	batch := BatchFields{
		Date:         period,
		Participants: sheet.Participants,
		ContentHash:  hash,
	}
	batchID, err := s.results.CreateBatchWithItems(ctx, batch, sheet.Rows)
	if errors.Is(err, ErrDuplicateContent) {
		s.log(ctx, eventID, LogActionDataStore, LogOutcomeSkipped, fmt.Sprintf("md5_hash=%s stored concurrently", hash))
		outcome.Kind = OutcomeSkipped
		return outcome, nil
	}
	if err != nil {
		return s.fail(ctx, eventID, StatePersisted, LogActionDataStore, "store batch", err)
	}
	s.log(ctx, eventID, LogActionDataStore, LogOutcomeSuccess, fmt.Sprintf("batch=%d period=%s rows=%d", batchID, period.Format("2006-01"), len(sheet.Rows)))

	outcome.Kind = OutcomeCreated
	outcome.BatchID = batchID
	outcome.LineItems = len(sheet.Rows)
	return outcome, nil
}

func (s *IngestionService) fail(ctx context.Context, eventID *string, state IngestionState, action string, step string, err error) (BatchOutcome, error) {
	s.log(ctx, eventID, action, LogOutcomeFail, fmt.Sprintf("%s at %s: %s: %v", StateFailed, state, step, err))
	return BatchOutcome{}, &DiscoveryError{State: state, Err: fmt.Errorf("%s: %w", step, err)}
}

func (s *IngestionService) log(ctx context.Context, eventID *string, action string, outcome string, message string) {
	_ = s.logService.CreateLog(ctx, eventID, action, outcome, &message)
}
