package models

// SettlementIssue is one per-wager diagnostic from a settlement run: either
// the reason no verdict was reached or the error hit while applying one.
type SettlementIssue struct {
	WagerID        int64
	FixtureID      int64
	ProviderStatus string
	Verdict        string
	Reason         string
}

// SettlementReport is the per-run result of settling open wagers, returned
// to the caller instead of being accumulated in shared state.
type SettlementReport struct {
	Examined int
	Settled  int
	Skipped  int
	Issues   []SettlementIssue
}
