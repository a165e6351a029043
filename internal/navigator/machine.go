// Package navigator turns button presses into screens. Machine is the pure
// transition function; Navigator wraps it with role resolution, session
// storage, logging and metrics.
package navigator

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"fines/internal/auth"
	"fines/internal/catalog"
	"fines/internal/core"
	"fines/internal/ledger"
	"fines/internal/session"
)

// Input is everything a transition may depend on besides the ledger.
type Input struct {
	Action    Action
	Role      auth.Role
	Selection session.Selection
}

// Output is the next screen and the selection to persist. Recorded and
// Removed describe the ledger mutation the transition made, if any.
type Output struct {
	Screen    Screen
	Selection session.Selection
	Recorded  *core.Fine
	Removed   *core.Fine
}

type Machine struct {
	catalog *catalog.Catalog
	ledger  ledger.Ledger
	clock   core.Clock
}

func NewMachine(cat *catalog.Catalog, l ledger.Ledger, clock core.Clock) *Machine {
	if clock == nil {
		clock = core.NewSystemClock(nil)
	}
	return &Machine{catalog: cat, ledger: l, clock: clock}
}

// Start renders the main menu shown for /start.
func (m *Machine) Start(role auth.Role, username string) Screen {
	return m.mainMenu(role, welcomeText(role.IsAdmin(), username))
}

// Transition dispatches on the action. It does not check authorization;
// Navigator gates privileged actions before calling it. Ledger errors are
// returned unhandled.
func (m *Machine) Transition(ctx context.Context, in Input) (Output, error) {
	out := Output{Selection: in.Selection}
	admin := in.Role.IsAdmin()

	var err error
	switch a := in.Action.(type) {
	case MainMenu:
		out.Screen = m.mainMenu(in.Role, txtMainMenu)
	case NoAction:
		out.Screen = Screen{Notice: txtNoAction}
	case AddFine:
		out.Screen = m.employeePicker("")
	case PickEmployee:
		if !m.catalog.HasEmployee(a.Employee) {
			out.Screen = m.employeePicker(txtSelectionStale)
			break
		}
		out.Selection = session.Selection{Employee: a.Employee}
		out.Screen = m.reasonPicker(a.Employee)
	case PickReason:
		err = m.commit(ctx, a, in.Selection, &out)
	case AdjustFines:
		out.Screen, err = m.adjustEmployees(ctx)
	case AdjustEmployee:
		out.Screen, err = m.adjustEmployee(ctx, a.Employee)
	case DeleteFine:
		err = m.deleteFine(ctx, a, &out)
	case DeleteLast:
		err = m.deleteLast(ctx, a, &out)
	case CheckFines:
		out.Screen, err = m.checkFines(ctx, admin)
	case ViewEmployee:
		out.Screen, err = m.breakdown(ctx, a.Employee, core.CurrentMonth(m.clock), admin, false)
	case ShowMonths:
		out.Screen, err = m.archive(ctx)
	case ViewMonth:
		out.Screen, err = m.monthDetail(ctx, a.Month)
	case ViewMonthEmployee:
		out.Screen, err = m.breakdown(ctx, a.Employee, a.Month, admin, true)
	default:
		out.Screen = InvalidActionScreen()
	}
	if err != nil {
		return Output{}, err
	}
	return out, nil
}

func (m *Machine) mainMenu(role auth.Role, text string) Screen {
	s := Screen{Text: text}
	if role.IsAdmin() {
		s.Keyboard = [][]Button{
			row(button(btnAddFine, AddFine{})),
			row(button(btnCheckFines, CheckFines{})),
			row(button(btnAdjustFines, AdjustFines{})),
			row(button(btnArchive, ShowMonths{})),
		}
		return s
	}
	s.Keyboard = [][]Button{
		row(button(btnCheckFines, CheckFines{})),
		row(button(btnArchive, ShowMonths{})),
	}
	return s
}

func (m *Machine) employeePicker(notice string) Screen {
	s := Screen{Text: txtPickEmployee, Notice: notice}
	if notice != "" {
		s.Text = notice + "\n\n" + txtPickEmployee
	}
	for _, emp := range m.catalog.Employees() {
		s.Keyboard = append(s.Keyboard, row(button(emp, PickEmployee{Employee: emp})))
	}
	s.Keyboard = append(s.Keyboard, mainMenuRow())
	return s
}

func (m *Machine) reasonPicker(employee string) Screen {
	s := Screen{Text: reasonPickerText(employee)}
	for _, ch := range m.catalog.Choices() {
		s.Keyboard = append(s.Keyboard, row(button(choiceLabel(ch.Amount, ch.Reason), PickReason{Index: ch.Index})))
	}
	s.Keyboard = append(s.Keyboard,
		row(button(btnBackToStaff, AddFine{})),
		mainMenuRow(),
	)
	return s
}

// commit records the fine chosen by flat index for the pending employee.
// The selection is read, not cleared.
func (m *Machine) commit(ctx context.Context, a PickReason, sel session.Selection, out *Output) error {
	choice, ok := m.catalog.Choice(a.Index)
	if !ok || sel.Employee == "" || !m.catalog.HasEmployee(sel.Employee) {
		out.Screen = m.employeePicker(txtSelectionStale)
		return nil
	}

	fine, err := m.ledger.Record(ctx, sel.Employee, choice.Amount, choice.Reason)
	if err != nil {
		return fmt.Errorf("record fine: %w", err)
	}
	total, err := m.ledger.TotalFor(ctx, fine.Employee, fine.Month)
	if err != nil {
		return fmt.Errorf("total for %s: %w", fine.Employee, err)
	}

	out.Recorded = &fine
	out.Selection = session.Selection{Employee: sel.Employee, Amount: choice.Amount}
	out.Screen = Screen{
		Text: confirmationText(fine, total),
		Keyboard: [][]Button{
			row(button(addAnotherLabel(fine.Employee), PickEmployee{Employee: fine.Employee})),
			row(button(btnAddFine, AddFine{})),
			row(button(btnAdjustFines, AdjustFines{})),
			mainMenuRow(),
		},
	}
	return nil
}

func (m *Machine) adjustEmployees(ctx context.Context) (Screen, error) {
	month := core.CurrentMonth(m.clock)
	names, err := m.ledger.EmployeesWithFines(ctx, month)
	if err != nil {
		return Screen{}, fmt.Errorf("employees with fines: %w", err)
	}
	if len(names) == 0 {
		return Screen{Text: txtAdjustNone, Keyboard: [][]Button{mainMenuRow()}}, nil
	}
	totals, err := m.ledger.TotalsByEmployee(ctx, month)
	if err != nil {
		return Screen{}, fmt.Errorf("totals by employee: %w", err)
	}

	s := Screen{Text: txtAdjustPick}
	for _, name := range names {
		s.Keyboard = append(s.Keyboard, row(button(adjustEmployeeLabel(name, totals[name]), AdjustEmployee{Employee: name})))
	}
	s.Keyboard = append(s.Keyboard, mainMenuRow())
	return s, nil
}

func (m *Machine) adjustEmployee(ctx context.Context, employee string) (Screen, error) {
	ok, err := m.adjustable(ctx, employee)
	if err != nil || !ok {
		return m.staleAdjust(ctx, err)
	}
	return m.adjustList(ctx, employee, "")
}

// adjustable reports whether employee is in the catalog or still has fines
// this month. The second case keeps fines of someone removed from the
// roster deletable.
func (m *Machine) adjustable(ctx context.Context, employee string) (bool, error) {
	if m.catalog.HasEmployee(employee) {
		return true, nil
	}
	names, err := m.ledger.EmployeesWithFines(ctx, core.CurrentMonth(m.clock))
	if err != nil {
		return false, fmt.Errorf("employees with fines: %w", err)
	}
	return slices.Contains(names, employee), nil
}

// staleAdjust falls back to the employee list of the adjust flow.
func (m *Machine) staleAdjust(ctx context.Context, err error) (Screen, error) {
	if err != nil {
		return Screen{}, err
	}
	s, err := m.adjustEmployees(ctx)
	s.Notice = txtSelectionStale
	return s, err
}

// adjustList renders one employee's current-month fines, each deletable.
// header is prepended after a deletion.
func (m *Machine) adjustList(ctx context.Context, employee, header string) (Screen, error) {
	month := core.CurrentMonth(m.clock)
	fines, err := m.ledger.ListFor(ctx, employee, month)
	if err != nil {
		return Screen{}, fmt.Errorf("list fines for %s: %w", employee, err)
	}
	total, err := m.ledger.TotalFor(ctx, employee, month)
	if err != nil {
		return Screen{}, fmt.Errorf("total for %s: %w", employee, err)
	}

	s := Screen{Text: header + adjustListText(employee, total, len(fines))}
	for _, f := range fines {
		s.Keyboard = append(s.Keyboard, row(button(fineRowLabel(f), DeleteFine{ID: f.ID})))
	}
	if len(fines) > 0 {
		s.Keyboard = append(s.Keyboard, row(button(btnDeleteLast, DeleteLast{Employee: employee})))
	}
	s.Keyboard = append(s.Keyboard,
		row(button(btnBackToAdjust, AdjustFines{})),
		mainMenuRow(),
	)
	return s, nil
}

func (m *Machine) deleteFine(ctx context.Context, a DeleteFine, out *Output) error {
	removed, found, err := m.ledger.RemoveByID(ctx, a.ID)
	if err != nil {
		return fmt.Errorf("remove fine %d: %w", a.ID, err)
	}
	if !found {
		out.Screen = Screen{
			Text: txtNotFound,
			Keyboard: [][]Button{
				row(button(btnBackToAdjust, AdjustFines{})),
				mainMenuRow(),
			},
		}
		return nil
	}
	out.Removed = &removed
	out.Screen, err = m.adjustList(ctx, removed.Employee, removedHeader(removed, false))
	return err
}

func (m *Machine) deleteLast(ctx context.Context, a DeleteLast, out *Output) error {
	ok, err := m.adjustable(ctx, a.Employee)
	if err != nil || !ok {
		out.Screen, err = m.staleAdjust(ctx, err)
		return err
	}
	removed, found, err := m.ledger.RemoveMostRecent(ctx, a.Employee, core.CurrentMonth(m.clock))
	if err != nil {
		return fmt.Errorf("remove latest fine for %s: %w", a.Employee, err)
	}
	if !found {
		out.Screen = Screen{
			Text: nothingToDeleteText(a.Employee),
			Keyboard: [][]Button{
				row(button(btnBack, AdjustEmployee{Employee: a.Employee})),
				mainMenuRow(),
			},
		}
		return nil
	}
	out.Removed = &removed
	out.Screen, err = m.adjustList(ctx, a.Employee, removedHeader(removed, true))
	return err
}

func (m *Machine) checkFines(ctx context.Context, admin bool) (Screen, error) {
	month := core.CurrentMonth(m.clock)
	names, err := m.ledger.EmployeesWithFines(ctx, month)
	if err != nil {
		return Screen{}, fmt.Errorf("employees with fines: %w", err)
	}

	if len(names) == 0 {
		s := Screen{Text: checkFinesEmptyText(month)}
		if admin {
			s.Keyboard = append(s.Keyboard, row(button(btnAddFine, AddFine{})))
		}
		s.Keyboard = append(s.Keyboard, mainMenuRow())
		return s, nil
	}

	totals, err := m.ledger.TotalsByEmployee(ctx, month)
	if err != nil {
		return Screen{}, fmt.Errorf("totals by employee: %w", err)
	}

	s := Screen{Text: checkFinesText(month)}
	for _, name := range names {
		s.Keyboard = append(s.Keyboard, row(button(totalLabel(name, totals[name]), ViewEmployee{Employee: name})))
	}
	if admin {
		s.Keyboard = append(s.Keyboard, row(
			button(btnAddFine, AddFine{}),
			button(btnAdjustShort, AdjustFines{}),
		))
	}
	s.Keyboard = append(s.Keyboard, mainMenuRow())
	return s, nil
}

// breakdown renders one employee's per-reason summary for month. archived
// selects the navigation used when arriving from the archive.
func (m *Machine) breakdown(ctx context.Context, employee string, month core.Month, admin, archived bool) (Screen, error) {
	summary, err := m.ledger.SummaryFor(ctx, employee, month)
	if err != nil {
		return Screen{}, fmt.Errorf("summary for %s: %w", employee, err)
	}
	// Stores already order groups; keep the order stable if they tie.
	sort.SliceStable(summary.Groups, func(i, j int) bool {
		return summary.Groups[i].Amount > summary.Groups[j].Amount
	})

	current := month == core.CurrentMonth(m.clock)
	s := Screen{
		Text:     breakdownText(employee, month, summary, current),
		Markdown: true,
	}
	if admin && current {
		s.Keyboard = append(s.Keyboard, row(button(btnAdjustEmployee, AdjustEmployee{Employee: employee})))
	}
	if archived {
		s.Keyboard = append(s.Keyboard, row(button(btnBackToMonth, ViewMonth{Month: month})))
	} else {
		s.Keyboard = append(s.Keyboard, row(button(btnBackToList, CheckFines{})))
	}
	s.Keyboard = append(s.Keyboard, mainMenuRow())
	return s, nil
}

func (m *Machine) archive(ctx context.Context) (Screen, error) {
	months, err := m.ledger.MonthsWithData(ctx)
	if err != nil {
		return Screen{}, fmt.Errorf("months with data: %w", err)
	}
	if len(months) == 0 {
		return Screen{Text: txtArchiveEmpty, Keyboard: [][]Button{mainMenuRow()}}, nil
	}

	// Most recent first regardless of store ordering.
	months = slices.Clone(months)
	slices.SortFunc(months, func(a, b core.Month) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})

	current := core.CurrentMonth(m.clock)
	s := Screen{Text: txtArchivePick}
	for _, month := range months {
		s.Keyboard = append(s.Keyboard, row(button(monthLabel(month, month == current), ViewMonth{Month: month})))
	}
	s.Keyboard = append(s.Keyboard, mainMenuRow())
	return s, nil
}

func (m *Machine) monthDetail(ctx context.Context, month core.Month) (Screen, error) {
	totals, err := m.ledger.TotalsByEmployee(ctx, month)
	if err != nil {
		return Screen{}, fmt.Errorf("totals for %s: %w", month, err)
	}

	rows := make([]core.EmployeeTotal, 0, len(totals))
	for name, total := range totals {
		rows = append(rows, core.EmployeeTotal{Employee: name, Total: total})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Employee < rows[j].Employee
	})

	s := Screen{Text: monthDetailText(month, len(rows) == 0)}
	for _, r := range rows {
		s.Keyboard = append(s.Keyboard, row(button(totalLabel(r.Employee, r.Total), ViewMonthEmployee{Month: month, Employee: r.Employee})))
	}
	s.Keyboard = append(s.Keyboard,
		row(button(btnBackToMonths, ShowMonths{})),
		mainMenuRow(),
	)
	return s, nil
}
