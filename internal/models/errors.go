package models

import "errors"

// Custom errors
var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicateKey         = errors.New("duplicate key violation")
	ErrMissingRating        = errors.New("missing point-in-time rating")
	ErrMissingMarketLine    = errors.New("missing market line")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrSnapshotExists       = errors.New("snapshot already recorded")
	ErrMidSeasonRegression  = errors.New("season regression requested after season games were applied")
	ErrInsufficientSample   = errors.New("insufficient sample")
)
