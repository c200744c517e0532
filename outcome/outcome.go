package outcome

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Verdict is the result of evaluating one wager leg against a finished
// fixture. Undetermined means the evaluator could not reach a verdict
// (unknown market, missing data) and must never default to won or lost.
type Verdict string

const (
	VerdictUndetermined Verdict = "undetermined"
	VerdictWon          Verdict = "won"
	VerdictLost         Verdict = "lost"
	VerdictRefunded     Verdict = "refunded"
)

// Period scopes a market to a slice of the match.
type Period int

const (
	PeriodFullTime Period = iota
	PeriodFirstHalf
	PeriodSecondHalf
)

func (p Period) String() string {
	switch p {
	case PeriodFirstHalf:
		return "1h"
	case PeriodSecondHalf:
		return "2h"
	default:
		return "ft"
	}
}

// Kind is the closed enumeration of supported market kinds. Every kind is
// bound to exactly one evaluator; anything that fails to parse into a kind
// evaluates to an undetermined verdict.
type Kind int

const (
	KindUnknown Kind = iota
	KindMatchResult
	KindDoubleChance
	KindTotal
	KindTeamTotal
	KindHandicap
	KindBothTeamsScore
	KindCorrectScore
	KindOddEven
	KindHalfTimeFullTime
	KindWinToNil
	KindFirstGoal
	KindLastGoal
	KindResultBothScore
	KindResultTotal
	KindTeamExactGoals
)

func (k Kind) String() string {
	switch k {
	case KindMatchResult:
		return "match_result"
	case KindDoubleChance:
		return "double_chance"
	case KindTotal:
		return "total"
	case KindTeamTotal:
		return "team_total"
	case KindHandicap:
		return "handicap"
	case KindBothTeamsScore:
		return "both_teams_score"
	case KindCorrectScore:
		return "correct_score"
	case KindOddEven:
		return "odd_even"
	case KindHalfTimeFullTime:
		return "ht_ft"
	case KindWinToNil:
		return "win_to_nil"
	case KindFirstGoal:
		return "first_goal"
	case KindLastGoal:
		return "last_goal"
	case KindResultBothScore:
		return "result_btts"
	case KindResultTotal:
		return "result_total"
	case KindTeamExactGoals:
		return "team_exact_goals"
	default:
		return "unknown"
	}
}

// Outcome is a leg's normalized outcome descriptor: a market kind, the match
// period it applies to, and the normalized pick tokens. Combined markets
// (HT/FT, result+BTTS, result+total) carry their second component in Pick2.
type Outcome struct {
	Kind    Kind
	Period  Period
	Pick    string
	Pick2   string
	Line    decimal.Decimal
	HasLine bool
	// Correct-score picks
	ScoreHome int
	ScoreAway int
	// Team-exact-goals count
	Count int
}

// market base names. Values are the canonical kind for each upstream alias;
// every kind keeps at least two encodings so provider wording changes do not
// break parsing.
var marketAliases = map[string]Kind{
	"1x2":                 KindMatchResult,
	"match_result":        KindMatchResult,
	"match_winner":        KindMatchResult,
	"result":              KindMatchResult,
	"moneyline":           KindMatchResult,
	"h2h":                 KindMatchResult,
	"double_chance":       KindDoubleChance,
	"dc":                  KindDoubleChance,
	"total":               KindTotal,
	"totals":              KindTotal,
	"total_goals":         KindTotal,
	"over_under":          KindTotal,
	"handicap":            KindHandicap,
	"fora":                KindHandicap,
	"spread":              KindHandicap,
	"spreads":             KindHandicap,
	"asian_handicap":      KindHandicap,
	"european_handicap":   KindHandicap,
	"btts":                KindBothTeamsScore,
	"both_teams_to_score": KindBothTeamsScore,
	"both_to_score":       KindBothTeamsScore,
	"correct_score":       KindCorrectScore,
	"exact_score":         KindCorrectScore,
	"odd_even":            KindOddEven,
	"total_odd_even":      KindOddEven,
	"ht_ft":               KindHalfTimeFullTime,
	"half_time_full_time": KindHalfTimeFullTime,
	"win_to_nil":          KindWinToNil,
	"to_win_to_nil":       KindWinToNil,
	"first_goal":          KindFirstGoal,
	"team_to_score_first": KindFirstGoal,
	"last_goal":           KindLastGoal,
	"team_to_score_last":  KindLastGoal,
	"result_btts":         KindResultBothScore,
	"result_and_btts":     KindResultBothScore,
	"result_total":        KindResultTotal,
	"result_and_total":    KindResultTotal,
}

// team-scoped markets carry the side in the market name itself.
var teamMarketAliases = map[string]struct {
	kind Kind
	side string
}{
	"team_total_home":  {KindTeamTotal, pickHome},
	"home_total":       {KindTeamTotal, pickHome},
	"team_total_away":  {KindTeamTotal, pickAway},
	"away_total":       {KindTeamTotal, pickAway},
	"home_goals":       {KindTeamExactGoals, pickHome},
	"exact_goals_home": {KindTeamExactGoals, pickHome},
	"away_goals":       {KindTeamExactGoals, pickAway},
	"exact_goals_away": {KindTeamExactGoals, pickAway},
}

// Normalized pick tokens.
const (
	pickHome  = "1"
	pickDraw  = "x"
	pickAway  = "2"
	pickOver  = "over"
	pickUnder = "under"
	pickYes   = "yes"
	pickNo    = "no"
	pickOdd   = "odd"
	pickEven  = "even"
	pickNone  = "none"
)

var resultAliases = map[string]string{
	"1": pickHome, "home": pickHome, "w1": pickHome, "h": pickHome,
	"x": pickDraw, "draw": pickDraw, "d": pickDraw, "tie": pickDraw,
	"2": pickAway, "away": pickAway, "w2": pickAway, "a": pickAway,
}

var doubleChanceAliases = map[string]string{
	"1x": "1x", "1orx": "1x", "homeordraw": "1x",
	"12": "12", "1or2": "12", "homeoraway": "12",
	"x2": "x2", "xor2": "x2", "draworaway": "x2",
	"2x": "x2", "x1": "1x", "21": "12",
}

var overUnderAliases = map[string]string{
	"over": pickOver, "o": pickOver,
	"under": pickUnder, "u": pickUnder,
}

var yesNoAliases = map[string]string{
	"yes": pickYes, "y": pickYes, "gg": pickYes,
	"no": pickNo, "n": pickNo, "ng": pickNo,
}

var parityAliases = map[string]string{
	"odd": pickOdd, "even": pickEven,
}

var sideOrNoneAliases = map[string]string{
	"1": pickHome, "home": pickHome,
	"2": pickAway, "away": pickAway,
	"none": pickNone, "no_goal": pickNone, "nogoal": pickNone,
}

// normMarket lowercases a market name and folds separators to underscores.
func normMarket(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// normKey lowercases an outcome key and strips whitespace entirely, so
// "1 X", "1x" and "1X" all normalize the same way.
func normKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// periodScoped lists the kinds whose evaluators honor a half scope. A period
// suffix on any other market is rejected at parse time, so a half-scoped leg
// is never settled against the full-time score.
var periodScoped = map[Kind]bool{
	KindMatchResult:    true,
	KindDoubleChance:   true,
	KindTotal:          true,
	KindTeamTotal:      true,
	KindHandicap:       true,
	KindBothTeamsScore: true,
	KindCorrectScore:   true,
	KindOddEven:        true,
}

// splitPeriod strips a recognized period suffix off a normalized market name.
func splitPeriod(market string) (string, Period) {
	for _, suffix := range []string{"_1h", "_first_half", "_ht", "_1st_half"} {
		if strings.HasSuffix(market, suffix) {
			return strings.TrimSuffix(market, suffix), PeriodFirstHalf
		}
	}
	for _, suffix := range []string{"_2h", "_second_half", "_2nd_half"} {
		if strings.HasSuffix(market, suffix) {
			return strings.TrimSuffix(market, suffix), PeriodSecondHalf
		}
	}
	return market, PeriodFullTime
}

// splitCombo splits a combined key like "1/x", "1&over" or "x2&no" into its
// two components.
func splitCombo(key string) (string, string, bool) {
	for _, sep := range []string{"/", "&"} {
		if parts := strings.SplitN(key, sep, 2); len(parts) == 2 {
			return parts[0], parts[1], true
		}
	}
	return "", "", false
}

// ParseOutcome normalizes an upstream (marketType, key, line) triple into a
// tagged Outcome. It is tolerant of casing, whitespace and the alias
// encodings listed above; anything it does not recognize is an error, which
// callers surface as an undetermined verdict.
func ParseOutcome(marketType, key string, line *decimal.Decimal) (Outcome, error) {
	market, period := splitPeriod(normMarket(marketType))
	k := normKey(key)

	o := Outcome{Period: period}
	if line != nil {
		o.Line = *line
		o.HasLine = true
	}

	if tm, ok := teamMarketAliases[market]; ok {
		if period != PeriodFullTime && !periodScoped[tm.kind] {
			return Outcome{}, fmt.Errorf("market %q cannot be scoped to a half", marketType)
		}
		o.Kind = tm.kind
		o.Pick = tm.side
		switch tm.kind {
		case KindTeamTotal:
			side, ok := overUnderAliases[k]
			if !ok {
				return Outcome{}, fmt.Errorf("unrecognized team total key %q", key)
			}
			if !o.HasLine {
				return Outcome{}, fmt.Errorf("team total market %q requires a line", marketType)
			}
			o.Pick2 = side
		case KindTeamExactGoals:
			n, err := strconv.Atoi(k)
			if err != nil || n < 0 {
				return Outcome{}, fmt.Errorf("unrecognized exact goals key %q", key)
			}
			o.Count = n
		}
		return o, nil
	}

	kind, ok := marketAliases[market]
	if !ok {
		return Outcome{}, fmt.Errorf("unrecognized market type %q", marketType)
	}
	if period != PeriodFullTime && !periodScoped[kind] {
		return Outcome{}, fmt.Errorf("market %q cannot be scoped to a half", marketType)
	}
	o.Kind = kind

	switch kind {
	case KindMatchResult, KindWinToNil:
		pick, ok := resultAliases[k]
		if !ok {
			return Outcome{}, fmt.Errorf("unrecognized result key %q", key)
		}
		if kind == KindWinToNil && pick == pickDraw {
			return Outcome{}, fmt.Errorf("win to nil cannot back a draw")
		}
		o.Pick = pick

	case KindDoubleChance:
		pick, ok := doubleChanceAliases[k]
		if !ok {
			return Outcome{}, fmt.Errorf("unrecognized double chance key %q", key)
		}
		o.Pick = pick

	case KindTotal:
		pick, ok := overUnderAliases[k]
		if !ok {
			return Outcome{}, fmt.Errorf("unrecognized total key %q", key)
		}
		if !o.HasLine {
			return Outcome{}, fmt.Errorf("total market %q requires a line", marketType)
		}
		o.Pick = pick

	case KindHandicap:
		pick, ok := resultAliases[k]
		if !ok || pick == pickDraw {
			return Outcome{}, fmt.Errorf("unrecognized handicap key %q", key)
		}
		if !o.HasLine {
			return Outcome{}, fmt.Errorf("handicap market %q requires a line", marketType)
		}
		o.Pick = pick

	case KindBothTeamsScore:
		pick, ok := yesNoAliases[k]
		if !ok {
			return Outcome{}, fmt.Errorf("unrecognized both-teams-score key %q", key)
		}
		o.Pick = pick

	case KindCorrectScore:
		home, away, err := parseScoreKey(k)
		if err != nil {
			return Outcome{}, err
		}
		o.ScoreHome, o.ScoreAway = home, away

	case KindOddEven:
		pick, ok := parityAliases[k]
		if !ok {
			return Outcome{}, fmt.Errorf("unrecognized odd/even key %q", key)
		}
		o.Pick = pick

	case KindHalfTimeFullTime:
		first, second, ok := splitCombo(k)
		if !ok {
			return Outcome{}, fmt.Errorf("unrecognized ht/ft key %q", key)
		}
		ht, okHT := resultAliases[first]
		ft, okFT := resultAliases[second]
		if !okHT || !okFT {
			return Outcome{}, fmt.Errorf("unrecognized ht/ft key %q", key)
		}
		o.Pick, o.Pick2 = ht, ft

	case KindFirstGoal, KindLastGoal:
		pick, ok := sideOrNoneAliases[k]
		if !ok {
			return Outcome{}, fmt.Errorf("unrecognized scorer key %q", key)
		}
		o.Pick = pick

	case KindResultBothScore:
		first, second, ok := splitCombo(k)
		if !ok {
			return Outcome{}, fmt.Errorf("unrecognized result+btts key %q", key)
		}
		res, okRes := resultAliases[first]
		yn, okYN := yesNoAliases[second]
		if !okRes || !okYN {
			return Outcome{}, fmt.Errorf("unrecognized result+btts key %q", key)
		}
		o.Pick, o.Pick2 = res, yn

	case KindResultTotal:
		first, second, ok := splitCombo(k)
		if !ok {
			return Outcome{}, fmt.Errorf("unrecognized result+total key %q", key)
		}
		res, okRes := resultAliases[first]
		ou, okOU := overUnderAliases[second]
		if !okRes || !okOU {
			return Outcome{}, fmt.Errorf("unrecognized result+total key %q", key)
		}
		if !o.HasLine {
			return Outcome{}, fmt.Errorf("result+total market %q requires a line", marketType)
		}
		o.Pick, o.Pick2 = res, ou

	default:
		return Outcome{}, fmt.Errorf("unrecognized market type %q", marketType)
	}

	return o, nil
}

// parseScoreKey reads a correct-score pick like "2:1" or "2-1".
func parseScoreKey(k string) (int, int, error) {
	k = strings.ReplaceAll(k, "-", ":")
	parts := strings.SplitN(k, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unrecognized correct score key %q", k)
	}
	home, err1 := strconv.Atoi(parts[0])
	away, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || home < 0 || away < 0 {
		return 0, 0, fmt.Errorf("unrecognized correct score key %q", k)
	}
	return home, away, nil
}
