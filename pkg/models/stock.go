package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Instrument is a quoted security as shown on the dashboard.
// ChangePercent is a display value supplied alongside Change; it is never recomputed.
type Instrument struct {
	ID            string           `json:"id"`
	Symbol        string           `json:"symbol"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	Change        decimal.Decimal  `json:"change"`
	ChangePercent decimal.Decimal  `json:"change_percent"`
	Volume        string           `json:"volume,omitempty"`
	High52Week    *decimal.Decimal `json:"high_52_week,omitempty"`
	Low52Week     *decimal.Decimal `json:"low_52_week,omitempty"`
	MarketCap     string           `json:"market_cap,omitempty"`
}

// Validate checks the invariants every seeded instrument must hold.
func (i Instrument) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("%w (symbol %q)", ErrEmptyID, i.Symbol)
	}
	if i.Symbol == "" {
		return fmt.Errorf("%w (id %q)", ErrEmptySymbol, i.ID)
	}
	if !i.Price.IsPositive() {
		return fmt.Errorf("%w: %s has price %s", ErrNonPositivePrice, i.Symbol, i.Price)
	}
	if i.High52Week != nil && i.Low52Week != nil && i.High52Week.LessThan(*i.Low52Week) {
		return fmt.Errorf("%w: %s high %s < low %s", ErrInvertedRange, i.Symbol, i.High52Week, i.Low52Week)
	}
	return nil
}

// IsGaining reports whether the instrument is flat or up on the day.
func (i Instrument) IsGaining() bool {
	return i.Change.Sign() >= 0
}

// Clone returns a copy that shares no pointers with i.
func (i Instrument) Clone() Instrument {
	if i.High52Week != nil {
		h := *i.High52Week
		i.High52Week = &h
	}
	if i.Low52Week != nil {
		l := *i.Low52Week
		i.Low52Week = &l
	}
	return i
}

// WatchlistEntry is an instrument tracked on a user's watchlist.
type WatchlistEntry struct {
	Instrument
	IsFavorite bool `json:"is_favorite"`
}

func (e WatchlistEntry) Clone() WatchlistEntry {
	e.Instrument = e.Instrument.Clone()
	return e
}

// MarketIndex is a headline index from the market summary strip
type MarketIndex struct {
	Name          string          `json:"name"`
	Value         decimal.Decimal `json:"value"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}
