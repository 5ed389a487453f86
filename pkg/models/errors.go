package models

import "errors"

var (
	// Validation errors
	ErrEmptyID          = errors.New("instrument id is empty")
	ErrEmptySymbol      = errors.New("instrument symbol is empty")
	ErrNonPositivePrice = errors.New("instrument price must be positive")
	ErrInvertedRange    = errors.New("52-week high is below 52-week low")

	// Collection errors
	ErrDuplicateID = errors.New("duplicate watchlist id")
)
