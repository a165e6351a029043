package memory

import (
	"context"
	"sort"
	"sync"

	"fines/internal/core"
	"fines/internal/ledger"
)

// Store keeps the ledger in process memory. All operations take one mutex,
// so mutations are atomic with respect to each other.
type Store struct {
	mu     sync.Mutex
	clock  core.Clock
	nextID int64
	fines  []core.Fine
	admins map[int64]core.Admin
}

var _ ledger.Store = (*Store)(nil)

func New(clock core.Clock) *Store {
	if clock == nil {
		clock = core.NewSystemClock(nil)
	}
	return &Store{clock: clock, admins: make(map[int64]core.Admin)}
}

func (s *Store) Record(_ context.Context, employee string, amount int, reason string) (core.Fine, error) {
	if err := (core.Fine{Employee: employee, Amount: amount, Reason: reason}).Validate(); err != nil {
		return core.Fine{}, err
	}
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	f := core.Fine{
		ID:        s.nextID,
		Employee:  employee,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: now,
		Month:     core.MonthOf(now),
	}
	s.fines = append(s.fines, f)
	return f, nil
}

func (s *Store) TotalFor(_ context.Context, employee string, month core.Month) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, f := range s.fines {
		if f.Employee == employee && f.Month == month {
			total += f.Amount
		}
	}
	return total, nil
}

func (s *Store) ListFor(_ context.Context, employee string, month core.Month) ([]core.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Fine
	for _, f := range s.fines {
		if f.Employee == employee && f.Month == month {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return newer(out[i], out[j]) })
	return out, nil
}

func (s *Store) SummaryFor(_ context.Context, employee string, month core.Month) (core.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum core.Summary
	index := map[string]int{}
	for _, f := range s.fines {
		if f.Employee != employee || f.Month != month {
			continue
		}
		sum.Total += f.Amount
		i, ok := index[f.Reason]
		if !ok {
			i = len(sum.Groups)
			index[f.Reason] = i
			sum.Groups = append(sum.Groups, core.ReasonGroup{Reason: f.Reason})
		}
		sum.Groups[i].Count++
		sum.Groups[i].Amount += f.Amount
	}
	// Groups were appended in insertion order of their first row, which is
	// the tie-break the SQL stores use too.
	sort.SliceStable(sum.Groups, func(i, j int) bool { return sum.Groups[i].Amount > sum.Groups[j].Amount })
	return sum, nil
}

func (s *Store) RemoveMostRecent(_ context.Context, employee string, month core.Month) (core.Fine, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := -1
	for i, f := range s.fines {
		if f.Employee != employee || f.Month != month {
			continue
		}
		if latest < 0 || newer(f, s.fines[latest]) {
			latest = i
		}
	}
	if latest < 0 {
		return core.Fine{}, false, nil
	}
	return s.removeAt(latest), true, nil
}

func (s *Store) RemoveByID(_ context.Context, id int64) (core.Fine, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.fines {
		if f.ID == id {
			return s.removeAt(i), true, nil
		}
	}
	return core.Fine{}, false, nil
}

func (s *Store) EmployeesWithFines(_ context.Context, month core.Month) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, f := range s.fines {
		if f.Month != month {
			continue
		}
		if _, ok := seen[f.Employee]; ok {
			continue
		}
		seen[f.Employee] = struct{}{}
		out = append(out, f.Employee)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) TotalsByEmployee(_ context.Context, month core.Month) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int{}
	for _, f := range s.fines {
		if f.Month == month {
			out[f.Employee] += f.Amount
		}
	}
	return out, nil
}

func (s *Store) MonthsWithData(_ context.Context) ([]core.Month, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[core.Month]struct{}{}
	var out []core.Month
	for _, f := range s.fines {
		if _, ok := seen[f.Month]; ok {
			continue
		}
		seen[f.Month] = struct{}{}
		out = append(out, f.Month)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out, nil
}

func (s *Store) IsAdmin(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.admins[userID]
	return ok, nil
}

func (s *Store) AddAdmin(_ context.Context, a core.Admin) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.AddedAt.IsZero() {
		a.AddedAt = s.clock.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[a.UserID] = a
	return nil
}

func (s *Store) RemoveAdmin(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[userID]; !ok {
		return false, nil
	}
	delete(s.admins, userID)
	return true, nil
}

func (s *Store) ListAdmins(_ context.Context) ([]core.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Admin, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) removeAt(i int) core.Fine {
	f := s.fines[i]
	s.fines = append(s.fines[:i], s.fines[i+1:]...)
	return f
}

// newer orders by creation time, then id.
func newer(a, b core.Fine) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
