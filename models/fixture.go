package models

import "strings"

// GoalEvent is one goal in chronological match order, attributed to a side.
// Side is "home" or "away"; Minute is the match minute the goal fell in.
type GoalEvent struct {
	Minute int    `json:"minute"`
	Side   string `json:"side"`
	Player string `json:"player,omitempty"`
}

// FixtureResult is the result provider's view of a single fixture. Half-time
// scores and goal events are optional: evaluators that need them return an
// undetermined verdict when they are absent.
type FixtureResult struct {
	FixtureID   int64       `json:"fixture_id"`
	Status      string      `json:"status"`
	HomeTeam    string      `json:"home_team"`
	AwayTeam    string      `json:"away_team"`
	HomeGoals   int         `json:"home_goals"`
	AwayGoals   int         `json:"away_goals"`
	HTHomeGoals *int        `json:"ht_home_goals,omitempty"`
	HTAwayGoals *int        `json:"ht_away_goals,omitempty"`
	Goals       []GoalEvent `json:"goals,omitempty"`
}

// finishedStatuses covers the full-time signals seen across providers.
var finishedStatuses = map[string]bool{
	"finished":       true,
	"ft":             true,
	"full_time":      true,
	"full-time":      true,
	"match finished": true,
	"aet":            true,
	"after_penalty":  true,
}

// Finished reports whether the fixture has reached full-time completion.
// Anything else, including an empty or unrecognized status, counts as not
// yet resolvable.
func (f *FixtureResult) Finished() bool {
	return finishedStatuses[strings.ToLower(strings.TrimSpace(f.Status))]
}

// HasHalfTimeScore reports whether the provider delivered a half-time score.
func (f *FixtureResult) HasHalfTimeScore() bool {
	return f.HTHomeGoals != nil && f.HTAwayGoals != nil
}

// TotalGoals returns the full-time goal count.
func (f *FixtureResult) TotalGoals() int {
	return f.HomeGoals + f.AwayGoals
}
