package backtest

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/spread-edge/internal/metrics"
	"github.com/yourusername/spread-edge/internal/models"
)

// ReasonInsufficientSample marks a candidate with too few decided bets
const ReasonInsufficientSample = "insufficient_sample"

// Candidate is one grid point scored on a training window
type Candidate struct {
	Index      int            `json:"index"`
	Params     Params         `json:"params"`
	Hash       string         `json:"hash"`
	Summary    Summary        `json:"summary"`
	Exclusions map[string]int `json:"exclusions"`
	Rejections map[string]int `json:"rejections"`
	Eligible   bool           `json:"eligible"`
	Reason     string         `json:"reason,omitempty"`
}

// SearchResult is the ranked leaderboard of a grid search
type SearchResult struct {
	Window     Window      `json:"window"`
	Candidates []Candidate `json:"candidates"`
	Eligible   int         `json:"eligible"`
}

// Best returns the top eligible candidate
func (r SearchResult) Best() (Candidate, bool) {
	if len(r.Candidates) == 0 || !r.Candidates[0].Eligible {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

// Search scores every grid candidate on the training window. Only games in ds
// are replayed, so the caller controls what history the search can see.
func (e *Engine) Search(ctx context.Context, ds *Dataset) (SearchResult, error) {
	return e.search(ctx, ds, e.config.Train, e.config.Candidates(), true)
}

func (e *Engine) search(ctx context.Context, ds *Dataset, window Window, params []Params, record bool) (SearchResult, error) {
	if until := ds.Until(); until == nil || until.Compare(e.config.Split()) > 0 {
		return SearchResult{}, fmt.Errorf("search dataset must end before holdout split %s", e.config.Split())
	}
	if len(params) == 0 {
		return SearchResult{}, invalid("hyperparameter grid is empty")
	}

	candidates := make([]Candidate, len(params))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i, p := range params {
		g.Go(func() error {
			run, summary, err := e.Evaluate(gctx, ds, p, window)
			if err != nil {
				return fmt.Errorf("candidate %d: %w", i, err)
			}
			c := Candidate{
				Index:      i,
				Params:     p,
				Hash:       p.Hash(),
				Summary:    summary,
				Exclusions: run.Exclusions,
				Rejections: run.Rejections,
				Eligible:   true,
			}
			if summary.Decided() <= e.config.MinSampleSize {
				c.Eligible = false
				c.Reason = ReasonInsufficientSample
			}
			candidates[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SearchResult{}, err
	}

	result := SearchResult{Window: window}
	for _, c := range candidates {
		if record {
			e.log.LogCandidateEvaluated(c.Index, c.Hash, c.Summary.Decided(), c.Summary.ROI, c.Summary.WinRate)
			if !c.Eligible {
				e.log.LogCandidateFiltered(c.Index, c.Summary.Decided(), e.config.MinSampleSize)
			}
			metrics.RecordCandidate(c.Eligible, c.Summary.ROI)
		}
		if c.Eligible {
			result.Eligible++
		}
	}
	result.Candidates = RankCandidates(candidates)

	if result.Eligible == 0 {
		return result, fmt.Errorf("%w: no grid candidate exceeded %d decided bets on %s",
			models.ErrInsufficientSample, e.config.MinSampleSize, window)
	}
	return result, nil
}

// RankCandidates orders eligible candidates first, then by ROI, decided bets
// and grid index.
func RankCandidates(candidates []Candidate) []Candidate {
	out := append([]Candidate(nil), candidates...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Eligible != b.Eligible {
			return a.Eligible
		}
		if a.Summary.ROI != b.Summary.ROI {
			return a.Summary.ROI > b.Summary.ROI
		}
		if a.Summary.Decided() != b.Summary.Decided() {
			return a.Summary.Decided() > b.Summary.Decided()
		}
		return a.Index < b.Index
	})
	return out
}
