package outcome

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linePtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestParseOutcome_MarketAliases(t *testing.T) {
	// Every market kind must tolerate at least two upstream encodings.
	tests := []struct {
		name   string
		market string
		key    string
		line   *decimal.Decimal
		kind   Kind
		pick   string
	}{
		{"1x2", "1X2", "1", nil, KindMatchResult, "1"},
		{"match_winner", "Match Winner", "home", nil, KindMatchResult, "1"},
		{"moneyline", "moneyline", "W1", nil, KindMatchResult, "1"},
		{"dc short", "DC", "1X", nil, KindDoubleChance, "1x"},
		{"dc long", "double_chance", "home or draw", nil, KindDoubleChance, "1x"},
		{"total", "total_goals", "Over", linePtr("2.5"), KindTotal, "over"},
		{"over_under", "over-under", "u", linePtr("2.5"), KindTotal, "under"},
		{"handicap", "handicap", "2", linePtr("1.5"), KindHandicap, "2"},
		{"spread", "spread", "away", linePtr("1.5"), KindHandicap, "2"},
		{"btts short", "BTTS", "gg", nil, KindBothTeamsScore, "yes"},
		{"btts long", "both_teams_to_score", "No", nil, KindBothTeamsScore, "no"},
		{"odd_even", "odd_even", "odd", nil, KindOddEven, "odd"},
		{"win_to_nil", "to_win_to_nil", "home", nil, KindWinToNil, "1"},
		{"first_goal", "team_to_score_first", "no goal", nil, KindFirstGoal, "none"},
		{"last_goal", "last-goal", "away", nil, KindLastGoal, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := ParseOutcome(tt.market, tt.key, tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, o.Kind)
			assert.Equal(t, tt.pick, o.Pick)
		})
	}
}

func TestParseOutcome_PeriodSuffixes(t *testing.T) {
	o, err := ParseOutcome("1x2_1h", "x", nil)
	require.NoError(t, err)
	assert.Equal(t, KindMatchResult, o.Kind)
	assert.Equal(t, PeriodFirstHalf, o.Period)

	o, err = ParseOutcome("Total Second Half", "over", linePtr("0.5"))
	require.NoError(t, err)
	assert.Equal(t, KindTotal, o.Kind)
	assert.Equal(t, PeriodSecondHalf, o.Period)

	o, err = ParseOutcome("1x2", "1", nil)
	require.NoError(t, err)
	assert.Equal(t, PeriodFullTime, o.Period)
}

func TestParseOutcome_CombinedKeys(t *testing.T) {
	o, err := ParseOutcome("ht_ft", "X/1", nil)
	require.NoError(t, err)
	assert.Equal(t, KindHalfTimeFullTime, o.Kind)
	assert.Equal(t, "x", o.Pick)
	assert.Equal(t, "1", o.Pick2)

	o, err = ParseOutcome("result_and_btts", "1&yes", nil)
	require.NoError(t, err)
	assert.Equal(t, KindResultBothScore, o.Kind)
	assert.Equal(t, "1", o.Pick)
	assert.Equal(t, "yes", o.Pick2)

	o, err = ParseOutcome("result_total", "2/over", linePtr("2.5"))
	require.NoError(t, err)
	assert.Equal(t, KindResultTotal, o.Kind)
	assert.Equal(t, "2", o.Pick)
	assert.Equal(t, "over", o.Pick2)
}

func TestParseOutcome_TeamMarkets(t *testing.T) {
	o, err := ParseOutcome("team_total_home", "over", linePtr("1.5"))
	require.NoError(t, err)
	assert.Equal(t, KindTeamTotal, o.Kind)
	assert.Equal(t, "1", o.Pick)
	assert.Equal(t, "over", o.Pick2)

	o, err = ParseOutcome("away_goals", "2", nil)
	require.NoError(t, err)
	assert.Equal(t, KindTeamExactGoals, o.Kind)
	assert.Equal(t, "2", o.Pick)
	assert.Equal(t, 2, o.Count)
}

func TestParseOutcome_CorrectScore(t *testing.T) {
	o, err := ParseOutcome("correct_score", "2:1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, o.ScoreHome)
	assert.Equal(t, 1, o.ScoreAway)

	o, err = ParseOutcome("exact_score", "0-0", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, o.ScoreHome)
	assert.Equal(t, 0, o.ScoreAway)
}

func TestParseOutcome_Errors(t *testing.T) {
	tests := []struct {
		name   string
		market string
		key    string
		line   *decimal.Decimal
	}{
		{"unknown market", "player_to_score", "messi", nil},
		{"unknown result key", "1x2", "maybe", nil},
		{"total without line", "total", "over", nil},
		{"handicap without line", "handicap", "1", nil},
		{"handicap on draw", "handicap", "x", linePtr("0.5")},
		{"win to nil on draw", "win_to_nil", "x", nil},
		{"malformed score", "correct_score", "2", nil},
		{"negative score", "correct_score", "-1:0", nil},
		{"malformed htft", "ht_ft", "1x", nil},
		{"exact goals non-numeric", "home_goals", "many", nil},
		{"win to nil scoped to half", "win_to_nil_1h", "home", nil},
		{"result+total scoped to half", "result_total_1h", "1/over", linePtr("1.5")},
		{"result+btts scoped to half", "result_and_btts_2h", "1/yes", nil},
		{"first goal scoped to half", "first_goal_2h", "1", nil},
		{"exact goals scoped to half", "home_goals_1h", "2", nil},
		{"htft scoped to half", "half_time_full_time_1h", "1/1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOutcome(tt.market, tt.key, tt.line)
			assert.Error(t, err)
		})
	}
}
