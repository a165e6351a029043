package navigator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fines/internal/core"
)

var (
	ErrUnknownAction   = errors.New("unknown action")
	ErrMalformedAction = errors.New("malformed action")
)

// Action is a decoded button press. The set of implementations is closed.
type Action interface {
	// Token encodes the action as callback data.
	Token() string
	// Kind is the verb, used for metrics and logs.
	Kind() string
	// Privileged actions require the admin role.
	Privileged() bool
	isAction()
}

type (
	MainMenu    struct{}
	AddFine     struct{}
	AdjustFines struct{}
	CheckFines  struct{}
	ShowMonths  struct{}
	NoAction    struct{}

	PickEmployee   struct{ Employee string }
	PickReason     struct{ Index int }
	AdjustEmployee struct{ Employee string }
	DeleteFine     struct{ ID int64 }
	DeleteLast     struct{ Employee string }
	ViewEmployee   struct{ Employee string }
	ViewMonth      struct{ Month core.Month }

	ViewMonthEmployee struct {
		Month    core.Month
		Employee string
	}
)

const (
	tokMainMenu      = "main_menu"
	tokAddFine       = "add_fine"
	tokAdjustFines   = "adjust_fines"
	tokCheckFines    = "check_fines"
	tokBackToList    = "back_to_fines_list"
	tokShowMonths    = "show_months"
	tokNoAction      = "no_action"
	preEmpFine       = "emp_fine_"
	preFine          = "fine_"
	preAdjustEmp     = "adjust_emp_"
	preDeleteFine    = "delete_fine_"
	preDeleteLast    = "delete_last_"
	preViewEmployee  = "view_employee_"
	preMonthEmployee = "month_emp_"
	preMonth         = "month_"

	monthKeyLen = len("2006-01")
)

func (MainMenu) Token() string { return tokMainMenu }
func (AddFine) Token() string { return tokAddFine }
func (AdjustFines) Token() string { return tokAdjustFines }
func (CheckFines) Token() string { return tokCheckFines }
func (ShowMonths) Token() string { return tokShowMonths }
func (NoAction) Token() string { return tokNoAction }
func (a PickEmployee) Token() string { return preEmpFine + EscapeName(a.Employee) }
func (a PickReason) Token() string { return preFine + strconv.Itoa(a.Index) }
func (a AdjustEmployee) Token() string { return preAdjustEmp + EscapeName(a.Employee) }
func (a DeleteFine) Token() string { return preDeleteFine + strconv.FormatInt(a.ID, 10) }
func (a DeleteLast) Token() string { return preDeleteLast + EscapeName(a.Employee) }
func (a ViewEmployee) Token() string { return preViewEmployee + EscapeName(a.Employee) }
func (a ViewMonth) Token() string { return preMonth + string(a.Month) }
func (a ViewMonthEmployee) Token() string {
	return preMonthEmployee + string(a.Month) + "_" + EscapeName(a.Employee)
}

func (MainMenu) Kind() string { return "main_menu" }
func (AddFine) Kind() string { return "add_fine" }
func (AdjustFines) Kind() string { return "adjust_fines" }
func (CheckFines) Kind() string { return "check_fines" }
func (ShowMonths) Kind() string { return "show_months" }
func (NoAction) Kind() string { return "no_action" }
func (PickEmployee) Kind() string { return "emp_fine" }
func (PickReason) Kind() string { return "fine" }
func (AdjustEmployee) Kind() string { return "adjust_emp" }
func (DeleteFine) Kind() string { return "delete_fine" }
func (DeleteLast) Kind() string { return "delete_last" }
func (ViewEmployee) Kind() string { return "view_employee" }
func (ViewMonth) Kind() string { return "month" }
func (ViewMonthEmployee) Kind() string { return "month_emp" }

func (MainMenu) Privileged() bool { return false }
func (AddFine) Privileged() bool { return true }
func (AdjustFines) Privileged() bool { return true }
func (CheckFines) Privileged() bool { return false }
func (ShowMonths) Privileged() bool { return false }
func (NoAction) Privileged() bool { return false }
func (PickEmployee) Privileged() bool { return true }
func (PickReason) Privileged() bool { return true }
func (AdjustEmployee) Privileged() bool { return true }
func (DeleteFine) Privileged() bool { return true }
func (DeleteLast) Privileged() bool { return true }
func (ViewEmployee) Privileged() bool { return false }
func (ViewMonth) Privileged() bool { return false }
func (ViewMonthEmployee) Privileged() bool { return false }

func (MainMenu) isAction() {}
func (AddFine) isAction() {}
func (AdjustFines) isAction() {}
func (CheckFines) isAction() {}
func (ShowMonths) isAction() {}
func (NoAction) isAction() {}
func (PickEmployee) isAction() {}
func (PickReason) isAction() {}
func (AdjustEmployee) isAction() {}
func (DeleteFine) isAction() {}
func (DeleteLast) isAction() {}
func (ViewEmployee) isAction() {}
func (ViewMonth) isAction() {}
func (ViewMonthEmployee) isAction() {}

// Decode parses a callback token. Longer prefixes are tried before the
// prefixes they extend.
func Decode(token string) (Action, error) {
	switch token {
	case tokMainMenu:
		return MainMenu{}, nil
	case tokAddFine:
		return AddFine{}, nil
	case tokAdjustFines:
		return AdjustFines{}, nil
	case tokCheckFines, tokBackToList:
		return CheckFines{}, nil
	case tokShowMonths:
		return ShowMonths{}, nil
	case tokNoAction:
		return NoAction{}, nil
	}

	if rest, ok := strings.CutPrefix(token, preEmpFine); ok {
		name, err := decodeName(token, rest)
		if err != nil {
			return nil, err
		}
		return PickEmployee{Employee: name}, nil
	}
	if rest, ok := strings.CutPrefix(token, preFine); ok {
		i, err := strconv.Atoi(rest)
		if err != nil || i < 0 || strconv.Itoa(i) != rest {
			return nil, malformed(token)
		}
		return PickReason{Index: i}, nil
	}
	if rest, ok := strings.CutPrefix(token, preAdjustEmp); ok {
		name, err := decodeName(token, rest)
		if err != nil {
			return nil, err
		}
		return AdjustEmployee{Employee: name}, nil
	}
	if rest, ok := strings.CutPrefix(token, preDeleteFine); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || id <= 0 {
			return nil, malformed(token)
		}
		return DeleteFine{ID: id}, nil
	}
	if rest, ok := strings.CutPrefix(token, preDeleteLast); ok {
		name, err := decodeName(token, rest)
		if err != nil {
			return nil, err
		}
		return DeleteLast{Employee: name}, nil
	}
	if rest, ok := strings.CutPrefix(token, preViewEmployee); ok {
		name, err := decodeName(token, rest)
		if err != nil {
			return nil, err
		}
		return ViewEmployee{Employee: name}, nil
	}
	if rest, ok := strings.CutPrefix(token, preMonthEmployee); ok {
		if len(rest) < monthKeyLen+2 || rest[monthKeyLen] != '_' {
			return nil, malformed(token)
		}
		month, err := core.ParseMonth(rest[:monthKeyLen])
		if err != nil {
			return nil, malformed(token)
		}
		name, err := decodeName(token, rest[monthKeyLen+1:])
		if err != nil {
			return nil, err
		}
		return ViewMonthEmployee{Month: month, Employee: name}, nil
	}
	if rest, ok := strings.CutPrefix(token, preMonth); ok {
		month, err := core.ParseMonth(rest)
		if err != nil {
			return nil, malformed(token)
		}
		return ViewMonth{Month: month}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, token)
}

func malformed(token string) error {
	return fmt.Errorf("%w: %q", ErrMalformedAction, token)
}

func decodeName(token, s string) (string, error) {
	name, ok := UnescapeName(s)
	if !ok || name == "" {
		return "", malformed(token)
	}
	return name, nil
}

// EscapeName makes an employee name safe to embed after a token prefix:
// '%' becomes %25 and '_' becomes %5F.
func EscapeName(name string) string {
	if !strings.ContainsAny(name, "%_") {
		return name
	}
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i := 0; i < len(name); i++ {
		switch c := name[i]; c {
		case '%':
			b.WriteString("%25")
		case '_':
			b.WriteString("%5F")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// UnescapeName reverses EscapeName. It accepts only the canonical form
// EscapeName produces, so the pair is an exact bijection.
func UnescapeName(s string) (string, bool) {
	if !strings.ContainsAny(s, "%_") {
		return s, true
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_':
			return "", false
		case c != '%':
			b.WriteByte(c)
		case strings.HasPrefix(s[i:], "%25"):
			b.WriteByte('%')
			i += 2
		case strings.HasPrefix(s[i:], "%5F"):
			b.WriteByte('_')
			i += 2
		default:
			return "", false
		}
	}
	return b.String(), true
}
