package core

// ReasonGroup aggregates one employee's fines sharing the same reason.
type ReasonGroup struct {
	Reason string
	Count  int
	Amount int
}

// Summary is an employee's total for a month with its per-reason breakdown,
// groups ordered by Amount descending.
type Summary struct {
	Total  int
	Groups []ReasonGroup
}

// GroupTotal sums the group amounts. It always equals Total for summaries
// produced by a ledger store.
func (s Summary) GroupTotal() int {
	total := 0
	for _, g := range s.Groups {
		total += g.Amount
	}
	return total
}

// EmployeeTotal is one row of a monthly leaderboard.
type EmployeeTotal struct {
	Employee string
	Total    int
}
