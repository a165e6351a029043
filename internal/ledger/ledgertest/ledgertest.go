// Package ledgertest is a conformance suite run against every ledger.Store
// implementation.
package ledgertest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fines/internal/core"
	"fines/internal/ledger"
)

// Clock is a settable clock shared between a test and the store under test.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{now: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Factory builds an empty store whose Record stamps times from clock.
type Factory func(t *testing.T, clock core.Clock) ledger.Store

var june = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

// Run executes the whole suite.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	cases := []struct {
		name string
		fn   func(*testing.T, Factory)
	}{
		{"RecordThenTotal", testRecordThenTotal},
		{"RecordRejectsInvalid", testRecordRejectsInvalid},
		{"RemoveMostRecentInvertsRecord", testRemoveMostRecentInvertsRecord},
		{"RemoveMostRecentTieBreak", testRemoveMostRecentTieBreak},
		{"SummaryGroupsSumToTotal", testSummaryGroupsSumToTotal},
		{"ScenarioSingleFine", testScenarioSingleFine},
		{"ScenarioTwoReasons", testScenarioTwoReasons},
		{"ScenarioRemoveFromEmpty", testScenarioRemoveFromEmpty},
		{"ScenarioRemoveByIDTwice", testScenarioRemoveByIDTwice},
		{"ScenarioMonthsWithData", testScenarioMonthsWithData},
		{"ListForNewestFirst", testListForNewestFirst},
		{"EmployeesAndTotals", testEmployeesAndTotals},
		{"MonthScoping", testMonthScoping},
		{"Admins", testAdmins},
		{"ConcurrentRecords", testConcurrentRecords},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) { tc.fn(t, newStore) })
	}
}

func mustRecord(t *testing.T, s ledger.Ledger, employee string, amount int, reason string) core.Fine {
	t.Helper()
	f, err := s.Record(context.Background(), employee, amount, reason)
	if err != nil {
		t.Fatalf("record %s/%d/%s: %v", employee, amount, reason, err)
	}
	return f
}

func mustTotal(t *testing.T, s ledger.Ledger, employee string, month core.Month) int {
	t.Helper()
	total, err := s.TotalFor(context.Background(), employee, month)
	if err != nil {
		t.Fatalf("total %s/%s: %v", employee, month, err)
	}
	return total
}

func testRecordThenTotal(t *testing.T, newStore Factory) {
	clock := NewClock(june)
	s := newStore(t, clock)
	triples := []struct {
		amount int
		reason string
	}{{50, "damage"}, {25, "late"}, {10, "noise"}, {25, "late"}}

	prior := 0
	for _, tr := range triples {
		clock.Advance(time.Minute)
		f := mustRecord(t, s, "A", tr.amount, tr.reason)
		if f.ID <= 0 || f.Month != "2024-06" || f.Employee != "A" || f.Amount != tr.amount || f.Reason != tr.reason {
			t.Fatalf("unexpected record %+v", f)
		}
		got := mustTotal(t, s, "A", "2024-06")
		if got != prior+tr.amount {
			t.Fatalf("total = %d, want %d", got, prior+tr.amount)
		}
		prior = got
	}
}

func testRemoveMostRecentInvertsRecord(t *testing.T, newStore Factory) {
	clock := NewClock(june)
	s := newStore(t, clock)
	ctx := context.Background()
	mustRecord(t, s, "A", 10, "noise")
	before := mustTotal(t, s, "A", "2024-06")

	clock.Advance(time.Hour)
	added := mustRecord(t, s, "A", 50, "damage")
	removed, found, err := s.RemoveMostRecent(ctx, "A", "2024-06")
	if err != nil || !found {
		t.Fatalf("remove most recent: found=%v err=%v", found, err)
	}
	if removed.ID != added.ID || removed.Amount != 50 || removed.Reason != "damage" {
		t.Fatalf("removed %+v, want %+v", removed, added)
	}
	if got := mustTotal(t, s, "A", "2024-06"); got != before {
		t.Fatalf("total after undo = %d, want %d", got, before)
	}
}

func testRemoveMostRecentTieBreak(t *testing.T, newStore Factory) {
	s := newStore(t, NewClock(june))
	first := mustRecord(t, s, "A", 10, "noise")
	second := mustRecord(t, s, "A", 25, "late")
	if second.ID <= first.ID {
		t.Fatalf("ids not monotonic: %d then %d", first.ID, second.ID)
	}
	removed, found, err := s.RemoveMostRecent(context.Background(), "A", "2024-06")
	if err != nil || !found {
		t.Fatalf("remove: found=%v err=%v", found, err)
	}
	if removed.ID != second.ID {
		t.Fatalf("same timestamp should remove highest id %d, removed %d", second.ID, removed.ID)
	}
}

func testSummaryGroupsSumToTotal(t *testing.T, newStore Factory) {
	clock := NewClock(june)
	s := newStore(t, clock)
	for _, f := range []struct {
		amount int
		reason string
	}{{10, "noise"}, {50, "damage"}, {10, "noise"}, {25, "late"}, {10, "noise"}, {10, "food"}} {
		clock.Advance(time.Second)
		mustRecord(t, s, "A", f.amount, f.reason)
	}
	sum, err := s.SummaryFor(context.Background(), "A", "2024-06")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Total != 115 || sum.GroupTotal() != sum.Total {
		t.Fatalf("summary total=%d groups=%d", sum.Total, sum.GroupTotal())
	}
	if sum.Total != mustTotal(t, s, "A", "2024-06") {
		t.Fatalf("summary total differs from TotalFor")
	}
	want := []core.ReasonGroup{
		{Reason: "damage", Count: 1, Amount: 50},
		{Reason: "noise", Count: 3, Amount: 30},
		{Reason: "late", Count: 1, Amount: 25},
		{Reason: "food", Count: 1, Amount: 10},
	}
	if len(sum.Groups) != len(want) {
		t.Fatalf("groups = %+v", sum.Groups)
	}
	for i := range want {
		if sum.Groups[i] != want[i] {
			t.Fatalf("group %d = %+v, want %+v", i, sum.Groups[i], want[i])
		}
	}
}

func testScenarioSingleFine(t *testing.T, newStore Factory) {
	s := newStore(t, NewClock(june))
	mustRecord(t, s, "A", 50, "damage")
	if got := mustTotal(t, s, "A", "2024-06"); got != 50 {
		t.Fatalf("total = %d, want 50", got)
	}
}

func testScenarioTwoReasons(t *testing.T, newStore Factory) {
	clock := NewClock(june)
	s := newStore(t, clock)
	mustRecord(t, s, "B", 25, "late")
	clock.Advance(time.Minute)
	mustRecord(t, s, "B", 10, "noise")
	sum, err := s.SummaryFor(context.Background(), "B", "2024-06")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Total != 35 || len(sum.Groups) != 2 {
		t.Fatalf("summary = %+v", sum)
	}
	for _, g := range sum.Groups {
		if g.Count != 1 {
			t.Fatalf("group %+v should have count 1", g)
		}
	}
}

func testRecordRejectsInvalid(t *testing.T, newStore Factory) {
	s := newStore(t, NewClock(june))
	ctx := context.Background()
	cases := []struct {
		employee string
		amount   int
		reason   string
		want     error
	}{
		{" ", 25, "r", core.ErrEmptyEmployee},
		{"A", 0, "r", core.ErrInvalidAmount},
		{"A", -10, "r", core.ErrInvalidAmount},
		{"A", 10, "", core.ErrEmptyReason},
	}
	for _, tc := range cases {
		if _, err := s.Record(ctx, tc.employee, tc.amount, tc.reason); !errors.Is(err, tc.want) {
			t.Fatalf("Record(%q, %d, %q) err = %v, want %v", tc.employee, tc.amount, tc.reason, err, tc.want)
		}
	}
	months, err := s.MonthsWithData(ctx)
	if err != nil {
		t.Fatalf("months: %v", err)
	}
	if len(months) != 0 {
		t.Fatalf("rejected fines were stored: %v", months)
	}
}

func testScenarioRemoveFromEmpty(t *testing.T, newStore Factory) {
	s := newStore(t, NewClock(june))
	_, found, err := s.RemoveMostRecent(context.Background(), "C", "2024-06")
	if err != nil || found {
		t.Fatalf("expected absent, found=%v err=%v", found, err)
	}
	if got := mustTotal(t, s, "C", "2024-06"); got != 0 {
		t.Fatalf("total = %d, want 0", got)
	}
}

func testScenarioRemoveByIDTwice(t *testing.T, newStore Factory) {
	s := newStore(t, NewClock(june))
	ctx := context.Background()
	mustRecord(t, s, "D", 10, "noise")
	before := mustTotal(t, s, "D", "2024-06")
	f := mustRecord(t, s, "D", 25, "late")

	removed, found, err := s.RemoveByID(ctx, f.ID)
	if err != nil || !found || removed.ID != f.ID || removed.Employee != "D" || removed.Amount != 25 {
		t.Fatalf("first remove: %+v found=%v err=%v", removed, found, err)
	}
	if got := mustTotal(t, s, "D", "2024-06"); got != before {
		t.Fatalf("total = %d, want %d", got, before)
	}
	if _, found, err := s.RemoveByID(ctx, f.ID); err != nil || found {
		t.Fatalf("second remove should report not found, found=%v err=%v", found, err)
	}
}

func testScenarioMonthsWithData(t *testing.T, newStore Factory) {
	clock := NewClock(time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC))
	s := newStore(t, clock)
	mustRecord(t, s, "A", 10, "noise")
	clock.Set(june)
	mustRecord(t, s, "A", 25, "late")
	months, err := s.MonthsWithData(context.Background())
	if err != nil {
		t.Fatalf("months: %v", err)
	}
	if len(months) != 2 || months[0] != "2024-06" || months[1] != "2024-05" {
		t.Fatalf("months = %v", months)
	}
}

func testListForNewestFirst(t *testing.T, newStore Factory) {
	clock := NewClock(june)
	s := newStore(t, clock)
	a := mustRecord(t, s, "A", 10, "noise")
	clock.Advance(time.Hour)
	b := mustRecord(t, s, "A", 25, "late")
	c := mustRecord(t, s, "A", 50, "damage") // same timestamp as b
	mustRecord(t, s, "B", 10, "noise")

	list, err := s.ListFor(context.Background(), "A", "2024-06")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID != c.ID || list[1].ID != b.ID || list[2].ID != a.ID {
		t.Fatalf("list order = %+v", list)
	}
	if !list[2].CreatedAt.Equal(june) {
		t.Fatalf("created_at = %v, want %v", list[2].CreatedAt, june)
	}
}

func testEmployeesAndTotals(t *testing.T, newStore Factory) {
	s := newStore(t, NewClock(june))
	ctx := context.Background()
	mustRecord(t, s, "Юля", 10, "noise")
	mustRecord(t, s, "Ann", 25, "late")
	mustRecord(t, s, "Ann", 50, "damage")
	mustRecord(t, s, "Bob", 10, "noise")

	names, err := s.EmployeesWithFines(ctx, "2024-06")
	if err != nil {
		t.Fatalf("employees: %v", err)
	}
	if len(names) != 3 || names[0] != "Ann" || names[1] != "Bob" || names[2] != "Юля" {
		t.Fatalf("names = %v", names)
	}
	totals, err := s.TotalsByEmployee(ctx, "2024-06")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if len(totals) != 3 || totals["Ann"] != 75 || totals["Bob"] != 10 || totals["Юля"] != 10 {
		t.Fatalf("totals = %v", totals)
	}
	empty, err := s.TotalsByEmployee(ctx, "2023-01")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no totals, got %v err=%v", empty, err)
	}
}

func testMonthScoping(t *testing.T, newStore Factory) {
	clock := NewClock(time.Date(2024, 5, 31, 23, 59, 0, 0, time.UTC))
	s := newStore(t, clock)
	ctx := context.Background()
	may := mustRecord(t, s, "A", 50, "damage")
	clock.Set(june)
	mustRecord(t, s, "A", 10, "noise")

	if got := mustTotal(t, s, "A", "2024-05"); got != 50 {
		t.Fatalf("may total = %d", got)
	}
	if got := mustTotal(t, s, "A", "2024-06"); got != 10 {
		t.Fatalf("june total = %d", got)
	}
	// Removing the latest in June must not touch May.
	removed, found, err := s.RemoveMostRecent(ctx, "A", "2024-06")
	if err != nil || !found || removed.ID == may.ID {
		t.Fatalf("removed %+v found=%v err=%v", removed, found, err)
	}
	if got := mustTotal(t, s, "A", "2024-05"); got != 50 {
		t.Fatalf("may total after june removal = %d", got)
	}
}

func testAdmins(t *testing.T, newStore Factory) {
	s := newStore(t, NewClock(june))
	ctx := context.Background()
	if ok, err := s.IsAdmin(ctx, 7); err != nil || ok {
		t.Fatalf("unexpected admin: ok=%v err=%v", ok, err)
	}
	if err := s.AddAdmin(ctx, core.Admin{UserID: 7, Username: "boss"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddAdmin(ctx, core.Admin{UserID: 3, Username: "deputy"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddAdmin(ctx, core.Admin{UserID: 0}); err == nil {
		t.Fatalf("expected error for invalid admin id")
	}
	if ok, err := s.IsAdmin(ctx, 7); err != nil || !ok {
		t.Fatalf("expected admin: ok=%v err=%v", ok, err)
	}
	admins, err := s.ListAdmins(ctx)
	if err != nil || len(admins) != 2 || admins[0].UserID != 3 || admins[1].Username != "boss" {
		t.Fatalf("admins = %+v err=%v", admins, err)
	}
	if admins[0].AddedAt.IsZero() {
		t.Fatalf("added_at not stamped")
	}
	if removed, err := s.RemoveAdmin(ctx, 7); err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}
	if removed, err := s.RemoveAdmin(ctx, 7); err != nil || removed {
		t.Fatalf("second remove: removed=%v err=%v", removed, err)
	}
}

func testConcurrentRecords(t *testing.T, newStore Factory) {
	s := newStore(t, NewClock(june))
	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Record(context.Background(), "A", 10, "noise"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent record: %v", err)
	}
	if got := mustTotal(t, s, "A", "2024-06"); got != n*10 {
		t.Fatalf("total = %d, want %d", got, n*10)
	}
}
