package services

import (
	"errors"
	"testing"
	"time"
)

func TestParseFilenameDate(t *testing.T) {
	tests := []struct {
		token string
		year  int
		month time.Month
	}{
		{token: "resultats_auctions_MARCH_2024_v2.xlsx", year: 2024, month: time.March},
		{token: "results_January_2023_final", year: 2023, month: time.January},
		{token: "20251119_August_2025_83.xlsx", year: 2025, month: time.August},
		{token: "GO_december_2022.xlsx", year: 2022, month: time.December},
		{token: "x_May_2021_y", year: 2021, month: time.May},
	}

	for _, tt := range tests {
		year, month, err := ParseFilenameDate(tt.token)
		if err != nil {
			t.Fatalf("ParseFilenameDate(%q): %v", tt.token, err)
		}
		if year != tt.year || month != tt.month {
			t.Fatalf("ParseFilenameDate(%q) = (%d, %d), want (%d, %d)", tt.token, year, month, tt.year, tt.month)
		}
	}
}

func TestParseFilenameDateAllMonths(t *testing.T) {
	for month := time.January; month <= time.December; month++ {
		token := "results_" + month.String() + "_2024"
		year, got, err := ParseFilenameDate(token)
		if err != nil {
			t.Fatalf("ParseFilenameDate(%q): %v", token, err)
		}
		if year != 2024 || got != month {
			t.Fatalf("ParseFilenameDate(%q) = (%d, %d), want (2024, %d)", token, year, got, month)
		}
	}
}

func TestParseFilenameDateMalformed(t *testing.T) {
	tokens := []string{
		"",
		"results.xlsx",
		"results_March",
		"results_Marchh_2024",
		"results_auctions_2024_March",
		"results_March_twenty",
		"results_March_2024x.xlsx",
	}

	for _, token := range tokens {
		if _, _, err := ParseFilenameDate(token); !errors.Is(err, ErrMalformedFilename) {
			t.Fatalf("ParseFilenameDate(%q) err = %v, want ErrMalformedFilename", token, err)
		}
	}
}

func TestPeriodDate(t *testing.T) {
	got := PeriodDate(2024, time.March)
	want := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("PeriodDate = %v, want %v", got, want)
	}
}
