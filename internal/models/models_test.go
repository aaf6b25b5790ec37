package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestSeasonWeekCompare(t *testing.T) {
	a := SeasonWeek{Season: 2022, Week: 17}
	b := SeasonWeek{Season: 2023, Week: 1}

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, StartOfSeason(2023).Before(b))
	assert.True(t, b.Before(EndOfSeason(2023)))
	assert.Equal(t, "2023-W01", b.String())
}

func TestGameOrdering(t *testing.T) {
	kickoff := time.Date(2023, 9, 10, 17, 0, 0, 0, time.UTC)
	early := Game{ID: "b", Season: 2023, Week: 1, CommenceTime: kickoff}
	late := Game{ID: "a", Season: 2023, Week: 1, CommenceTime: kickoff.Add(time.Hour)}
	sameTime := Game{ID: "c", Season: 2023, Week: 1, CommenceTime: kickoff}

	assert.True(t, early.Less(late))
	assert.True(t, early.Less(sameTime))
	assert.False(t, late.Less(early))
}

func TestGameMargin(t *testing.T) {
	g := Game{HomeScore: intPtr(24), AwayScore: intPtr(17)}
	assert.True(t, g.Completed())
	assert.Equal(t, 7, g.HomeMargin())

	scheduled := Game{}
	assert.False(t, scheduled.Completed())
	assert.Equal(t, 0, scheduled.HomeMargin())
}

func TestSelectLine(t *testing.T) {
	t0 := time.Date(2023, 9, 4, 12, 0, 0, 0, time.UTC)
	lines := []MarketLine{
		{GameID: "g1", Checkpoint: CheckpointOpen, CapturedAt: t0, HomeSpread: -3},
		{GameID: "g1", Checkpoint: CheckpointClosing, CapturedAt: t0.Add(48 * time.Hour), HomeSpread: -4.5},
		{GameID: "g1", Checkpoint: CheckpointMidweek, CapturedAt: t0.Add(24 * time.Hour), HomeSpread: -3.5},
		{GameID: "g1", Checkpoint: CheckpointClosing, CapturedAt: t0.Add(47 * time.Hour), HomeSpread: -4},
	}

	tests := []struct {
		name     string
		selector LineSelector
		want     float64
	}{
		{"closing picks latest closing capture", SelectClosing, -4.5},
		{"open", SelectOpen, -3},
		{"midweek", SelectMidweek, -3.5},
		{"latest overall", SelectLatest, -4.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, ok := SelectLine(lines, tt.selector)
			require.True(t, ok)
			assert.Equal(t, tt.want, line.HomeSpread)
		})
	}
}

func TestSelectLineTieBreaks(t *testing.T) {
	t0 := time.Date(2023, 9, 4, 12, 0, 0, 0, time.UTC)

	// equal capture times prefer the later checkpoint for latest
	line, ok := SelectLine([]MarketLine{
		{Checkpoint: CheckpointClosing, CapturedAt: t0, HomeSpread: -7},
		{Checkpoint: CheckpointMidweek, CapturedAt: t0, HomeSpread: -6},
	}, SelectLatest)
	require.True(t, ok)
	assert.Equal(t, -7.0, line.HomeSpread)

	// identical keys keep the last line in input order
	line, ok = SelectLine([]MarketLine{
		{Checkpoint: CheckpointClosing, CapturedAt: t0, HomeSpread: -7},
		{Checkpoint: CheckpointClosing, CapturedAt: t0, HomeSpread: -7.5},
	}, SelectClosing)
	require.True(t, ok)
	assert.Equal(t, -7.5, line.HomeSpread)
}

func TestSelectLineMissing(t *testing.T) {
	_, ok := SelectLine([]MarketLine{{Checkpoint: CheckpointOpen, HomeSpread: -1}}, SelectClosing)
	assert.False(t, ok)

	_, ok = SelectLine(nil, SelectLatest)
	assert.False(t, ok)
}

func TestParseLineSelector(t *testing.T) {
	sel, err := ParseLineSelector("closing")
	require.NoError(t, err)
	assert.Equal(t, SelectClosing, sel)

	_, err = ParseLineSelector("kickoff")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestBetHelpers(t *testing.T) {
	win := Bet{Result: BetResultWin, EffectiveEdge: -2.5}
	push := Bet{Result: BetResultPush}

	assert.True(t, win.Decided())
	assert.False(t, push.Decided())
	assert.Equal(t, 1.0, win.Outcome())
	assert.Equal(t, 2.5, win.SelectionEdge())

	line := MarketLine{HomePrice: intPtr(-110), AwayPrice: intPtr(-105)}
	assert.Equal(t, -105, *line.PriceFor(SideAway))
}
