// Package datasource loads historical games, market lines and team metadata
// into stores the backtest and live services read from.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/spread-edge/internal/backtest"
	"github.com/yourusername/spread-edge/internal/models"
)

// Store is a game record store that can also list one week's schedule
type Store interface {
	backtest.GameStore

	// GamesInWeek returns the games scheduled in a season-week in kickoff order.
	GamesInWeek(ctx context.Context, season, week int) ([]models.Game, error)
}

// DataSourceError reports a failure reading one record source
type DataSourceError struct {
	Source  string // file path or URL
	Line    int    // 1-based record line, 0 when not applicable
	Code    string // Error code (e.g., "invalid_data")
	Message string
	Err     error
}

func (e DataSourceError) Error() string {
	loc := e.Source
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Source, e.Line)
	}
	if e.Err != nil {
		return loc + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return loc + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeNotFound     = "not_found"
	ErrCodeInvalidData  = "invalid_data"
	ErrCodeNetworkError = "network_error"
	ErrCodeServerError  = "server_error"
)

// Sentinel errors wrapped by DataSourceError
var (
	ErrInvalidData  = errors.New("invalid data format")
	ErrNetworkError = errors.New("network error")
	ErrServerError  = errors.New("server error")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source string, line int, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Line:    line,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
