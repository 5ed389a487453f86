package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Seed is the sample data a dashboard session starts from.
type Seed struct {
	Watchlist []WatchlistEntry `json:"watchlist"`
	Ticker    []Instrument     `json:"ticker"`
	Indices   []MarketIndex    `json:"indices"`
}

// Validate checks every instrument and rejects duplicate watchlist ids.
func (s Seed) Validate() error {
	seen := make(map[string]bool, len(s.Watchlist))
	for _, e := range s.Watchlist {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("watchlist: %w", err)
		}
		if seen[e.ID] {
			return fmt.Errorf("watchlist: %w: %s", ErrDuplicateID, e.ID)
		}
		seen[e.ID] = true
	}
	for _, inst := range s.Ticker {
		if err := inst.Validate(); err != nil {
			return fmt.Errorf("ticker: %w", err)
		}
	}
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// DefaultSeed returns the dashboard's built-in sample data. Every call returns fresh slices.
func DefaultSeed() Seed {
	return Seed{
		Watchlist: DefaultWatchlist(),
		Ticker:    DefaultTicker(),
		Indices:   DefaultIndices(),
	}
}

func DefaultWatchlist() []WatchlistEntry {
	return []WatchlistEntry{
		{Instrument: Instrument{ID: "1", Symbol: "AAPL", Name: "Apple Inc.", Price: dec("175.43"), Change: dec("2.15"), ChangePercent: dec("1.24"), High52Week: decPtr("198.23"), Low52Week: decPtr("124.17"), MarketCap: "2.8T"}, IsFavorite: true},
		{Instrument: Instrument{ID: "2", Symbol: "TSLA", Name: "Tesla Inc.", Price: dec("248.50"), Change: dec("-5.67"), ChangePercent: dec("-2.23"), High52Week: decPtr("299.29"), Low52Week: decPtr("138.80"), MarketCap: "789B"}},
		{Instrument: Instrument{ID: "3", Symbol: "NVDA", Name: "NVIDIA Corp.", Price: dec("875.28"), Change: dec("12.45"), ChangePercent: dec("1.44"), High52Week: decPtr("974.00"), Low52Week: decPtr("180.96"), MarketCap: "2.1T"}, IsFavorite: true},
		{Instrument: Instrument{ID: "4", Symbol: "AMZN", Name: "Amazon.com Inc.", Price: dec("145.86"), Change: dec("1.89"), ChangePercent: dec("1.31"), High52Week: decPtr("170.00"), Low52Week: decPtr("88.12"), MarketCap: "1.5T"}},
		{Instrument: Instrument{ID: "5", Symbol: "GOOGL", Name: "Alphabet Inc.", Price: dec("138.21"), Change: dec("4.32"), ChangePercent: dec("3.23"), High52Week: decPtr("153.78"), Low52Week: decPtr("83.34"), MarketCap: "1.7T"}, IsFavorite: true},
	}
}

func DefaultTicker() []Instrument {
	return []Instrument{
		{ID: "AAPL", Symbol: "AAPL", Name: "Apple Inc.", Price: dec("175.43"), Change: dec("2.15"), ChangePercent: dec("1.24"), Volume: "45.2M"},
		{ID: "MSFT", Symbol: "MSFT", Name: "Microsoft Corp.", Price: dec("378.85"), Change: dec("-1.23"), ChangePercent: dec("-0.32"), Volume: "28.7M"},
		{ID: "GOOGL", Symbol: "GOOGL", Name: "Alphabet Inc.", Price: dec("138.21"), Change: dec("4.32"), ChangePercent: dec("3.23"), Volume: "31.5M"},
		{ID: "TSLA", Symbol: "TSLA", Name: "Tesla Inc.", Price: dec("248.50"), Change: dec("-5.67"), ChangePercent: dec("-2.23"), Volume: "89.3M"},
		{ID: "AMZN", Symbol: "AMZN", Name: "Amazon.com Inc.", Price: dec("145.86"), Change: dec("1.89"), ChangePercent: dec("1.31"), Volume: "42.1M"},
		{ID: "NVDA", Symbol: "NVDA", Name: "NVIDIA Corp.", Price: dec("875.28"), Change: dec("12.45"), ChangePercent: dec("1.44"), Volume: "52.8M"},
		{ID: "META", Symbol: "META", Name: "Meta Platforms", Price: dec("484.20"), Change: dec("-3.21"), ChangePercent: dec("-0.66"), Volume: "18.9M"},
		{ID: "NFLX", Symbol: "NFLX", Name: "Netflix Inc.", Price: dec("445.03"), Change: dec("8.92"), ChangePercent: dec("2.05"), Volume: "15.6M"},
	}
}

func DefaultIndices() []MarketIndex {
	return []MarketIndex{
		{Name: "S&P 500", Value: dec("4567.89"), ChangePercent: dec("0.85")},
		{Name: "NASDAQ", Value: dec("14234.56"), ChangePercent: dec("1.23")},
		{Name: "DOW", Value: dec("35678.90"), ChangePercent: dec("-0.12")},
	}
}
