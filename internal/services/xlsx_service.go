package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Fixed layout of the published workbook (zero-based row indexes).
const (
	participantsRowIndex = 2
	participantsColIndex = 1
	tableHeaderRowIndex  = 4
)

const (
	fieldRegion          = "region"
	fieldTechnology      = "technology"
	fieldVolumeAuctioned = "volume_auctioned"
	fieldVolumeSold      = "volume_sold"
	fieldAveragePrice    = "average_price"
	fieldNumberOfWinners = "number_of_winners"
)

// Source labels are compared after legacy-encoding repair and lower-casing,
// so "RÃ©gion / Region" and "Région / Region" both match.
var sourceColumns = map[string]string{
	"région / region":                                fieldRegion,
	"technologie / technology":                       fieldTechnology,
	"total volume auctionned":                        fieldVolumeAuctioned,
	"total volume sold":                              fieldVolumeSold,
	"weighted average price (€ / mwh)":               fieldAveragePrice,
	"number of winners per couple region/technology": fieldNumberOfWinners,
}

var requiredFields = []string{
	fieldRegion,
	fieldTechnology,
	fieldVolumeAuctioned,
	fieldVolumeSold,
	fieldAveragePrice,
	fieldNumberOfWinners,
}

type XlsxService struct {
	tempDir string
}

func NewXlsxService(tempDir string) (*XlsxService, error) {
	if tempDir == "" {
		return nil, errors.New("temp dir is empty")
	}

	return &XlsxService{tempDir: tempDir}, nil
}

// Normalize parses a results workbook into the participant count and its
// line items. The bytes are staged in a fresh temp file that is removed
// before Normalize returns, whatever the outcome.
func (s *XlsxService) Normalize(ctx context.Context, content []byte) (NormalizedSheet, error) {
	if s == nil {
		return NormalizedSheet{}, errors.New("xlsx service is nil")
	}
	if len(content) == 0 {
		return NormalizedSheet{}, fmt.Errorf("%w: content is empty", ErrMalformedSpreadsheet)
	}
	if err := ctx.Err(); err != nil {
		return NormalizedSheet{}, err
	}

	path, err := s.stage(content)
	if err != nil {
		return NormalizedSheet{}, err
	}
	defer func() {
		_ = os.Remove(path)
	}()

	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return NormalizedSheet{}, fmt.Errorf("%w: open workbook: %v", ErrMalformedSpreadsheet, err)
	}

	sheet, parseErr := parseWorkbook(workbook)
	closeErr := workbook.Close()
	if parseErr != nil {
		return NormalizedSheet{}, parseErr
	}
	if closeErr != nil {
		return NormalizedSheet{}, fmt.Errorf("close workbook: %w", closeErr)
	}

	return sheet, nil
}

func (s *XlsxService) stage(content []byte) (string, error) {
	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	file, err := os.CreateTemp(s.tempDir, "results-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	_, writeErr := file.Write(content)
	closeErr := file.Close()
	if writeErr != nil {
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("write temp file: %w", writeErr)
	}
	if closeErr != nil {
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("close temp file: %w", closeErr)
	}

	return file.Name(), nil
}

func parseWorkbook(workbook *excelize.File) (NormalizedSheet, error) {
	rows, err := selectSheetRows(workbook)
	if err != nil {
		return NormalizedSheet{}, err
	}

	participants, err := extractParticipants(rows)
	if err != nil {
		return NormalizedSheet{}, err
	}

	if len(rows) <= tableHeaderRowIndex {
		return NormalizedSheet{}, fmt.Errorf("%w: table header row %d is missing", ErrMalformedSpreadsheet, tableHeaderRowIndex+1)
	}
	columns, err := mapHeaderColumns(rows[tableHeaderRowIndex])
	if err != nil {
		return NormalizedSheet{}, err
	}

	items, err := extractLineItems(rows, tableHeaderRowIndex+1, columns)
	if err != nil {
		return NormalizedSheet{}, err
	}
	if len(items) == 0 {
		return NormalizedSheet{}, fmt.Errorf("%w: no data rows found after header", ErrMalformedSpreadsheet)
	}

	return NormalizedSheet{Participants: participants, Rows: items}, nil
}

// selectSheetRows reads the first sheet; the publisher puts the aggregated
// results there.
func selectSheetRows(workbook *excelize.File) ([][]string, error) {
	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformedSpreadsheet)
	}

	rows, err := workbook.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: get rows for %s: %v", ErrMalformedSpreadsheet, sheets[0], err)
	}

	return rows, nil
}

func extractParticipants(rows [][]string) (int, error) {
	if len(rows) <= participantsRowIndex || len(rows[participantsRowIndex]) <= participantsColIndex {
		return 0, fmt.Errorf("%w: participants cell is missing", ErrMalformedSpreadsheet)
	}

	value := strings.TrimSpace(rows[participantsRowIndex][participantsColIndex])
	if value == "" {
		return 0, fmt.Errorf("%w: participants cell is empty", ErrMalformedSpreadsheet)
	}

	participants, err := parseWholeNumber(value)
	if err != nil {
		return 0, fmt.Errorf("%w: participants: %v", ErrMalformedSpreadsheet, err)
	}

	return participants, nil
}

func mapHeaderColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(requiredFields))
	for i, cell := range header {
		field, ok := sourceColumns[canonicalLabel(cell)]
		if !ok {
			continue
		}
		if _, seen := columns[field]; !seen {
			columns[field] = i
		}
	}

	for _, field := range requiredFields {
		if _, ok := columns[field]; !ok {
			return nil, fmt.Errorf("%w: column %q not found in header", ErrMalformedSpreadsheet, field)
		}
	}

	return columns, nil
}

func canonicalLabel(label string) string {
	trimmed := strings.Join(strings.Fields(label), " ")
	if repaired, err := RepairLegacyEncoding(trimmed); err == nil {
		trimmed = repaired
	}
	return strings.ToLower(trimmed)
}

// sheetRow is one table row keyed by field; a nil cell was blank or absent.
type sheetRow struct {
	number          int
	region          *string
	technology      *string
	volumeAuctioned *string
	volumeSold      *string
	averagePrice    *string
	numberOfWinners *string
}

func extractLineItems(rows [][]string, startIndex int, columns map[string]int) ([]LineItemFields, error) {
	var items []LineItemFields
	for index := startIndex; index < len(rows); index++ {
		if rowIsEmpty(rows[index]) {
			continue
		}

		row := readSheetRow(rows[index], index+1, columns)
		item, err := row.lineItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}

func readSheetRow(cells []string, number int, columns map[string]int) sheetRow {
	cell := func(field string) *string {
		index := columns[field]
		if index >= len(cells) {
			return nil
		}
		value := strings.TrimSpace(cells[index])
		if value == "" {
			return nil
		}
		return &value
	}

	return sheetRow{
		number:          number,
		region:          cell(fieldRegion),
		technology:      cell(fieldTechnology),
		volumeAuctioned: cell(fieldVolumeAuctioned),
		volumeSold:      cell(fieldVolumeSold),
		averagePrice:    cell(fieldAveragePrice),
		numberOfWinners: cell(fieldNumberOfWinners),
	}
}

// lineItem applies the defaulting rules: blank text becomes "Unknown", blank
// numbers become 0. Region text goes through the legacy encoding repair and
// technology through the code mapping.
func (r sheetRow) lineItem() (LineItemFields, error) {
	item := LineItemFields{
		Region:     unknownText,
		Technology: unknownText,
	}

	if r.region != nil {
		region, err := RepairLegacyEncoding(*r.region)
		if err != nil {
			return LineItemFields{}, fmt.Errorf("row %d region: %w", r.number, err)
		}
		item.Region = region
	}
	if r.technology != nil {
		item.Technology = *r.technology
	}
	item.Technology = TechnologyCode(item.Technology)

	var err error
	if item.VolumeAuctioned, err = r.wholeNumber(fieldVolumeAuctioned, r.volumeAuctioned); err != nil {
		return LineItemFields{}, err
	}
	if item.VolumeSold, err = r.wholeNumber(fieldVolumeSold, r.volumeSold); err != nil {
		return LineItemFields{}, err
	}
	if item.NumberOfWinners, err = r.wholeNumber(fieldNumberOfWinners, r.numberOfWinners); err != nil {
		return LineItemFields{}, err
	}
	if r.averagePrice != nil {
		price, err := strconv.ParseFloat(stripSpaces(*r.averagePrice), 64)
		if err != nil {
			return LineItemFields{}, fmt.Errorf("%w: row %d column %s: %v", ErrMalformedSpreadsheet, r.number, fieldAveragePrice, err)
		}
		if math.IsNaN(price) || math.IsInf(price, 0) {
			return LineItemFields{}, fmt.Errorf("%w: row %d column %s: not a finite number", ErrMalformedSpreadsheet, r.number, fieldAveragePrice)
		}
		item.AveragePrice = price
	}

	return item, nil
}

func (r sheetRow) wholeNumber(field string, value *string) (int, error) {
	if value == nil {
		return 0, nil
	}
	parsed, err := parseWholeNumber(*value)
	if err != nil {
		return 0, fmt.Errorf("%w: row %d column %s: %v", ErrMalformedSpreadsheet, r.number, field, err)
	}
	return parsed, nil
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseWholeNumber accepts "12", "1 200" and raw float cells like "12.0".
// Values must fit the int columns they are stored in.
func parseWholeNumber(value string) (int, error) {
	cleaned := stripSpaces(value)
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse int %q: %w", value, err)
	}
	if math.Trunc(parsed) != parsed {
		return 0, fmt.Errorf("parse int %q: not a whole number", value)
	}
	if parsed < math.MinInt32 || parsed > math.MaxInt32 {
		return 0, fmt.Errorf("parse int %q: out of range", value)
	}

	return int(parsed), nil
}

func stripSpaces(value string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\u202f' {
			return -1
		}
		return r
	}, value)
}
