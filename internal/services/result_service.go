package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"soldera/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidMonthRange = errors.New("invalid month range")
var ErrInvalidSort = errors.New("invalid sort")
var ErrInvalidLimit = errors.New("invalid limit")

const pgUniqueViolation = "23505"

type ResultService struct {
	db *gorm.DB
}

func NewResultService(db *gorm.DB) (*ResultService, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}

	return &ResultService{db: db}, nil
}

func (s *ResultService) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	if s == nil {
		return false, errors.New("result service is nil")
	}
	if s.db == nil {
		return false, errors.New("db is nil")
	}

	return hashExists(s.db.WithContext(ctx), hash)
}

// CreateBatchWithItems writes the batch and all of its line items in one
// transaction. Nothing is written when any insert fails.
func (s *ResultService) CreateBatchWithItems(ctx context.Context, batch BatchFields, items []LineItemFields) (uint, error) {
	if s == nil {
		return 0, errors.New("result service is nil")
	}
	if s.db == nil {
		return 0, errors.New("db is nil")
	}

	var id uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := createBatch(tx, batch, items)
		if err != nil {
			return err
		}
		id = created
		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (s *ResultService) ListBatches(ctx context.Context, query BatchQuery) ([]models.AuctionBatch, error) {
	if s == nil {
		return nil, errors.New("result service is nil")
	}
	if s.db == nil {
		return nil, errors.New("db is nil")
	}

	order := "date desc, id desc"
	switch query.Ordering {
	case "", OrderNewestFirst:
	case OrderOldestFirst:
		order = "date asc, id asc"
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSort, query.Ordering)
	}
	if query.Limit < 0 {
		return nil, ErrInvalidLimit
	}

	db := s.db.WithContext(ctx).Preload("Auctions", orderLineItems).Order(order)
	if query.From != nil {
		db = db.Where("date >= ?", monthStart(*query.From))
	}
	if query.To != nil {
		db = db.Where("date < ?", monthStart(*query.To).AddDate(0, 1, 0))
	}
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}

	var batches []models.AuctionBatch
	if err := db.Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	return batches, nil
}

func (s *ResultService) GetBatch(ctx context.Context, id uint) (models.AuctionBatch, error) {
	if s == nil {
		return models.AuctionBatch{}, errors.New("result service is nil")
	}
	if s.db == nil {
		return models.AuctionBatch{}, errors.New("db is nil")
	}

	var batch models.AuctionBatch
	err := s.db.WithContext(ctx).Preload("Auctions", orderLineItems).First(&batch, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AuctionBatch{}, fmt.Errorf("%w: id=%d", ErrBatchNotFound, id)
	}
	if err != nil {
		return models.AuctionBatch{}, fmt.Errorf("get batch: %w", err)
	}

	return batch, nil
}

// ImportBatches stores every batch whose hash is not yet known, including
// repeats inside batches itself, in a single transaction.
func (s *ResultService) ImportBatches(ctx context.Context, batches []BatchImport) (ImportSummary, error) {
	if s == nil {
		return ImportSummary{}, errors.New("result service is nil")
	}
	if s.db == nil {
		return ImportSummary{}, errors.New("db is nil")
	}

	var summary ImportSummary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seen := make(map[string]bool, len(batches))
		for _, entry := range batches {
			hash := entry.Batch.ContentHash
			if seen[hash] {
				summary.Skipped++
				continue
			}
			seen[hash] = true

			exists, err := hashExists(tx, hash)
			if err != nil {
				return err
			}
			if exists {
				summary.Skipped++
				continue
			}

			if _, err := createBatch(tx, entry.Batch, entry.Items); err != nil {
				return err
			}
			summary.Created++
		}
		return nil
	})
	if err != nil {
		return ImportSummary{}, err
	}

	return summary, nil
}

func hashExists(db *gorm.DB, hash string) (bool, error) {
	if hash == "" {
		return false, errors.New("content hash is empty")
	}

	var count int64
	if err := db.Model(&models.AuctionBatch{}).Where("md5_hash = ?", hash).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check content hash: %w", err)
	}

	return count > 0, nil
}

func createBatch(tx *gorm.DB, batch BatchFields, items []LineItemFields) (uint, error) {
	if batch.ContentHash == "" {
		return 0, errors.New("content hash is empty")
	}
	if batch.Date.IsZero() {
		return 0, errors.New("period date is zero")
	}

	record := models.AuctionBatch{
		Date:                 batch.Date,
		NumberOfParticipants: batch.Participants,
		ContentHash:          batch.ContentHash,
	}
	if err := tx.Omit(clause.Associations).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: md5_hash=%s", ErrDuplicateContent, batch.ContentHash)
		}
		return 0, fmt.Errorf("create batch: %w", err)
	}

	if len(items) == 0 {
		return record.ID, nil
	}

	lineItems := make([]models.AuctionLineItem, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, models.AuctionLineItem{
			Region:          item.Region,
			Technology:      item.Technology,
			VolumeAuctioned: item.VolumeAuctioned,
			VolumeSold:      item.VolumeSold,
			AveragePrice:    item.AveragePrice,
			NumberOfWinners: item.NumberOfWinners,
			BatchID:         record.ID,
		})
	}
	if err := tx.Create(&lineItems).Error; err != nil {
		return 0, fmt.Errorf("create line items batch=%d rows=%d: %w", record.ID, len(lineItems), err)
	}

	return record.ID, nil
}

func orderLineItems(db *gorm.DB) *gorm.DB {
	return db.Order("region asc, technology asc, id desc")
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ParseBatchQuery turns the listing's query-string values into a BatchQuery.
// Empty values leave the matching filter unset.
func ParseBatchQuery(sort string, from string, to string, limit string) (BatchQuery, error) {
	var query BatchQuery

	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "", "date_desc":
		query.Ordering = OrderNewestFirst
	case "date_asc":
		query.Ordering = OrderOldestFirst
	default:
		return BatchQuery{}, ErrInvalidSort
	}

	limitValue, err := parseLimit(limit)
	if err != nil {
		return BatchQuery{}, err
	}
	query.Limit = limitValue

	if strings.TrimSpace(from) != "" {
		start, err := parseYearMonth(from)
		if err != nil {
			return BatchQuery{}, err
		}
		query.From = &start
	}
	if strings.TrimSpace(to) != "" {
		end, err := parseYearMonth(to)
		if err != nil {
			return BatchQuery{}, err
		}
		query.To = &end
	}
	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		return BatchQuery{}, ErrInvalidMonthRange
	}

	return query, nil
}

func parseYearMonth(value string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 2 {
		return time.Time{}, ErrInvalidMonthRange
	}

	year, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || year <= 0 {
		return time.Time{}, ErrInvalidMonthRange
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, ErrInvalidMonthRange
	}

	return PeriodDate(year, time.Month(month)), nil
}

// monthStart returns day 1 of t's month; range bounds cover whole months.
func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return PeriodDate(t.Year(), t.Month())
}

func parseLimit(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 {
		return 0, ErrInvalidLimit
	}

	return limit, nil
}
