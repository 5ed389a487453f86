package repository

import (
	"context"

	"github.com/shubham-shewale/stock-dashboard/pkg/models"
)

// SeedStore supplies the sample data sessions are built from.
type SeedStore interface {
	LoadSeed(ctx context.Context) (models.Seed, error)
	Close() error
}

var _ SeedStore = StaticSeedStore{}

// StaticSeedStore serves a fixed seed, the built-in sample data by default.
type StaticSeedStore struct {
	Seed models.Seed
}

func NewStaticSeedStore() StaticSeedStore {
	return StaticSeedStore{Seed: models.DefaultSeed()}
}

func (s StaticSeedStore) LoadSeed(ctx context.Context) (models.Seed, error) {
	if err := s.Seed.Validate(); err != nil {
		return models.Seed{}, err
	}
	return s.Seed, nil
}

func (StaticSeedStore) Close() error { return nil }
