package outcome

import (
	"github.com/shopspring/decimal"

	"bookie/models"
)

// Evaluate maps a normalized outcome and a finished fixture result to a
// verdict. It is a pure function: no I/O, no side effects. Missing data a
// kind depends on (half-time score, goal events) yields an undetermined
// verdict rather than a guess.
func Evaluate(o Outcome, res *models.FixtureResult) Verdict {
	if res == nil || !res.Finished() {
		return VerdictUndetermined
	}

	switch o.Kind {
	case KindMatchResult:
		return evalMatchResult(o, res)
	case KindDoubleChance:
		return evalDoubleChance(o, res)
	case KindTotal:
		return evalTotal(o, res)
	case KindTeamTotal:
		return evalTeamTotal(o, res)
	case KindHandicap:
		return evalHandicap(o, res)
	case KindBothTeamsScore:
		return evalBothTeamsScore(o, res)
	case KindCorrectScore:
		return evalCorrectScore(o, res)
	case KindOddEven:
		return evalOddEven(o, res)
	case KindHalfTimeFullTime:
		return evalHalfTimeFullTime(o, res)
	case KindWinToNil:
		return evalWinToNil(o, res)
	case KindFirstGoal:
		return evalGoalOrder(o, res, true)
	case KindLastGoal:
		return evalGoalOrder(o, res, false)
	case KindResultBothScore:
		return evalResultBothScore(o, res)
	case KindResultTotal:
		return evalResultTotal(o, res)
	case KindTeamExactGoals:
		return evalTeamExactGoals(o, res)
	default:
		return VerdictUndetermined
	}
}

// periodGoals returns the goal counts for the requested period. Half-scoped
// markets need the provider's half-time score; ok is false when it is absent.
func periodGoals(res *models.FixtureResult, period Period) (home, away int, ok bool) {
	switch period {
	case PeriodFullTime:
		return res.HomeGoals, res.AwayGoals, true
	case PeriodFirstHalf:
		if !res.HasHalfTimeScore() {
			return 0, 0, false
		}
		return *res.HTHomeGoals, *res.HTAwayGoals, true
	case PeriodSecondHalf:
		if !res.HasHalfTimeScore() {
			return 0, 0, false
		}
		return res.HomeGoals - *res.HTHomeGoals, res.AwayGoals - *res.HTAwayGoals, true
	}
	return 0, 0, false
}

// resultPick converts a score to the 1/x/2 token.
func resultPick(home, away int) string {
	switch {
	case home > away:
		return pickHome
	case away > home:
		return pickAway
	default:
		return pickDraw
	}
}

func winLost(won bool) Verdict {
	if won {
		return VerdictWon
	}
	return VerdictLost
}

func evalMatchResult(o Outcome, res *models.FixtureResult) Verdict {
	home, away, ok := periodGoals(res, o.Period)
	if !ok {
		return VerdictUndetermined
	}
	return winLost(o.Pick == resultPick(home, away))
}

var doubleChanceSets = map[string][2]string{
	"1x": {pickHome, pickDraw},
	"12": {pickHome, pickAway},
	"x2": {pickDraw, pickAway},
}

func evalDoubleChance(o Outcome, res *models.FixtureResult) Verdict {
	home, away, ok := periodGoals(res, o.Period)
	if !ok {
		return VerdictUndetermined
	}
	set, known := doubleChanceSets[o.Pick]
	if !known {
		return VerdictUndetermined
	}
	actual := resultPick(home, away)
	return winLost(actual == set[0] || actual == set[1])
}

// compareToLine settles an over/under pick against a line; exact equality is
// a push and refunds the stake.
func compareToLine(total int, line decimal.Decimal, pick string) Verdict {
	cmp := decimal.NewFromInt(int64(total)).Cmp(line)
	if cmp == 0 {
		return VerdictRefunded
	}
	over := cmp > 0
	if pick == pickOver {
		return winLost(over)
	}
	return winLost(!over)
}

func evalTotal(o Outcome, res *models.FixtureResult) Verdict {
	home, away, ok := periodGoals(res, o.Period)
	if !ok {
		return VerdictUndetermined
	}
	return compareToLine(home+away, o.Line, o.Pick)
}

func evalTeamTotal(o Outcome, res *models.FixtureResult) Verdict {
	home, away, ok := periodGoals(res, o.Period)
	if !ok {
		return VerdictUndetermined
	}
	goals := home
	if o.Pick == pickAway {
		goals = away
	}
	return compareToLine(goals, o.Line, o.Pick2)
}

func evalHandicap(o Outcome, res *models.FixtureResult) Verdict {
	home, away, ok := periodGoals(res, o.Period)
	if !ok {
		return VerdictUndetermined
	}
	own, other := home, away
	if o.Pick == pickAway {
		own, other = away, home
	}
	adjusted := decimal.NewFromInt(int64(own)).Add(o.Line)
	cmp := adjusted.Cmp(decimal.NewFromInt(int64(other)))
	if cmp == 0 {
		return VerdictRefunded
	}
	return winLost(cmp > 0)
}

func evalBothTeamsScore(o Outcome, res *models.FixtureResult) Verdict {
	home, away, ok := periodGoals(res, o.Period)
	if !ok {
		return VerdictUndetermined
	}
	both := home > 0 && away > 0
	if o.Pick == pickYes {
		return winLost(both)
	}
	return winLost(!both)
}

func evalCorrectScore(o Outcome, res *models.FixtureResult) Verdict {
	home, away, ok := periodGoals(res, o.Period)
	if !ok {
		return VerdictUndetermined
	}
	return winLost(home == o.ScoreHome && away == o.ScoreAway)
}

func evalOddEven(o Outcome, res *models.FixtureResult) Verdict {
	home, away, ok := periodGoals(res, o.Period)
	if !ok {
		return VerdictUndetermined
	}
	odd := (home+away)%2 == 1
	if o.Pick == pickOdd {
		return winLost(odd)
	}
	return winLost(!odd)
}

func evalHalfTimeFullTime(o Outcome, res *models.FixtureResult) Verdict {
	if !res.HasHalfTimeScore() {
		return VerdictUndetermined
	}
	ht := resultPick(*res.HTHomeGoals, *res.HTAwayGoals)
	ft := resultPick(res.HomeGoals, res.AwayGoals)
	return winLost(o.Pick == ht && o.Pick2 == ft)
}

func evalWinToNil(o Outcome, res *models.FixtureResult) Verdict {
	if o.Pick == pickHome {
		return winLost(res.HomeGoals > res.AwayGoals && res.AwayGoals == 0)
	}
	return winLost(res.AwayGoals > res.HomeGoals && res.HomeGoals == 0)
}

// evalGoalOrder settles first/last-scorer team markets from the chronological
// goal event list. A goalless match settles the "none" pick; a match with
// goals but no event data cannot be settled.
func evalGoalOrder(o Outcome, res *models.FixtureResult, first bool) Verdict {
	if res.TotalGoals() == 0 {
		return winLost(o.Pick == pickNone)
	}
	if len(res.Goals) == 0 {
		return VerdictUndetermined
	}
	event := res.Goals[0]
	if !first {
		event = res.Goals[len(res.Goals)-1]
	}
	var side string
	switch event.Side {
	case "home":
		side = pickHome
	case "away":
		side = pickAway
	default:
		return VerdictUndetermined
	}
	return winLost(o.Pick == side)
}

func evalResultBothScore(o Outcome, res *models.FixtureResult) Verdict {
	resultOK := o.Pick == resultPick(res.HomeGoals, res.AwayGoals)
	both := res.HomeGoals > 0 && res.AwayGoals > 0
	bttsOK := (o.Pick2 == pickYes) == both
	return winLost(resultOK && bttsOK)
}

// evalResultTotal settles the result component first; a correct result with
// a pushed total refunds rather than wins.
func evalResultTotal(o Outcome, res *models.FixtureResult) Verdict {
	if o.Pick != resultPick(res.HomeGoals, res.AwayGoals) {
		return VerdictLost
	}
	return compareToLine(res.TotalGoals(), o.Line, o.Pick2)
}

func evalTeamExactGoals(o Outcome, res *models.FixtureResult) Verdict {
	goals := res.HomeGoals
	if o.Pick == pickAway {
		goals = res.AwayGoals
	}
	return winLost(goals == o.Count)
}

// EvaluateLeg parses and evaluates a raw wager leg in one step. Parse
// failures surface as an undetermined verdict with the error preserved for
// diagnostics.
func EvaluateLeg(leg *models.WagerLeg, res *models.FixtureResult) (Verdict, error) {
	o, err := ParseOutcome(leg.MarketType, leg.OutcomeKey, leg.Line)
	if err != nil {
		return VerdictUndetermined, err
	}
	return Evaluate(o, res), nil
}
