package models

// Team represents a team's rating state
type Team struct {
	ID                string  `json:"id"`
	Conference        string  `json:"conference,omitempty"`
	Rating            float64 `json:"rating"`
	GamesPlayed       int     `json:"games_played"`
	SeasonGamesPlayed int     `json:"season_games_played"`
}

// TeamSeasonInfo carries optional per-season metadata used for uncertainty scoring
type TeamSeasonInfo struct {
	TeamID              string  `db:"team_id" json:"team_id"`
	Season              int     `db:"season" json:"season"`
	Conference          string  `db:"conference" json:"conference,omitempty"`
	RosterContinuity    float64 `db:"roster_continuity" json:"roster_continuity"`
	KeyPlayerTransition bool    `db:"key_player_transition" json:"key_player_transition"`
}

// RatingSnapshot is a write-once rating value at a point in time
type RatingSnapshot struct {
	TeamID string  `json:"team_id"`
	Season int     `json:"season"`
	Week   int     `json:"week"`
	Rating float64 `json:"rating"`
}
