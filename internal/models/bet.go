package models

// Side represents the side of a spread bet
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// BetResult represents a graded spread outcome
type BetResult string

const (
	BetResultWin  BetResult = "win"
	BetResultLoss BetResult = "loss"
	BetResultPush BetResult = "push"
)

// Projection is a derived model spread for a game
type Projection struct {
	GameID          string  `json:"game_id"`
	HomeRating      float64 `json:"home_rating"`
	AwayRating      float64 `json:"away_rating"`
	ModelSpreadHome float64 `json:"model_spread_home"`
}

// Edge is a derived comparison of a projection against a market line
type Edge struct {
	GameID           string  `json:"game_id"`
	HomeTeamID       string  `json:"home_team_id"`
	AwayTeamID       string  `json:"away_team_id"`
	MarketSpreadHome float64 `json:"market_spread_home"`
	ModelSpreadHome  float64 `json:"model_spread_home"`
	Edge             float64 `json:"edge"`
	AbsEdge          float64 `json:"abs_edge"`
	Side             Side    `json:"side"`
	Uncertainty      float64 `json:"uncertainty"`
	EffectiveEdge    float64 `json:"effective_edge"`
	Qualifies        bool    `json:"qualifies"`
	Reason           string  `json:"reason,omitempty"`
}

// Bet represents a simulated, graded spread bet
type Bet struct {
	GameID            string    `json:"game_id"`
	Season            int       `json:"season"`
	Week              int       `json:"week"`
	Side              Side      `json:"side"`
	MarketSpreadHome  float64   `json:"market_spread_home"`
	ModelSpreadHome   float64   `json:"model_spread_home"`
	BetSpread         float64   `json:"bet_spread"`
	ClosingSpread     *float64  `json:"closing_spread,omitempty"`
	CLV               *float64  `json:"clv,omitempty"`
	Price             *int      `json:"price,omitempty"`
	Edge              float64   `json:"edge"`
	EffectiveEdge     float64   `json:"effective_edge"`
	Uncertainty       float64   `json:"uncertainty"`
	CoverProbability  float64   `json:"cover_probability"`
	MarketProbability float64   `json:"market_probability"`
	HomeMargin        int       `json:"home_margin"`
	Result            BetResult `json:"result"`
	Profit            float64   `json:"profit"`
}

// Decided checks if the bet was a win or a loss
func (b Bet) Decided() bool {
	return b.Result == BetResultWin || b.Result == BetResultLoss
}

// Outcome returns 1 for a win and 0 otherwise
func (b Bet) Outcome() float64 {
	if b.Result == BetResultWin {
		return 1
	}
	return 0
}

// SelectionEdge returns the absolute edge used for selection
func (b Bet) SelectionEdge() float64 {
	if b.EffectiveEdge < 0 {
		return -b.EffectiveEdge
	}
	return b.EffectiveEdge
}
