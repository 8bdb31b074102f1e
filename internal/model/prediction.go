package model

// Match is the fixture a prediction refers to.
type Match struct {
	MatchDate string `json:"match_date" db:"match_date"`
	HomeTeam  string `json:"home_team" db:"home_team"`
	AwayTeam  string `json:"away_team" db:"away_team"`
	League    string `json:"league,omitempty" db:"league"`
	Status    string `json:"status" db:"status"`
	HomeGoals *int   `json:"home_goals" db:"home_goals"`
	AwayGoals *int   `json:"away_goals" db:"away_goals"`
}

// Prediction is an externally produced over/under 2.5 goals forecast with
// the bookmaker prices it was compared against. Nil fields were not supplied.
//
// These are model probabilities and unit-stake figures, not money, so they
// are plain floats.
type Prediction struct {
	ID         int64    `json:"id" db:"id"`
	MatchID    *int64   `json:"match_id" db:"match_id"`
	LambdaHome *float64 `json:"lambda_home" db:"lambda_home"`
	LambdaAway *float64 `json:"lambda_away" db:"lambda_away"`
	POver25    *float64 `json:"p_over_25" db:"p_over_25"`
	PUnder25   *float64 `json:"p_under_25" db:"p_under_25"`
	OverOdds   *float64 `json:"over_odds" db:"over_odds"`
	UnderOdds  *float64 `json:"under_odds" db:"under_odds"`
	EdgeOver   *float64 `json:"edge_over" db:"edge_over"`
	EdgeUnder  *float64 `json:"edge_under" db:"edge_under"`
	Match      Match    `json:"match"`
}
