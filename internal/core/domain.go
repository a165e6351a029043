package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Fine is a single point deduction recorded against an employee.
	Fine struct {
		ID        int64
		Employee  string
		Amount    int
		Reason    string
		CreatedAt time.Time
		Month     Month
	}

	// Admin is an operator granted administrator rights through the admins table.
	Admin struct {
		UserID   int64
		Username string
		AddedAt  time.Time
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyEmployee  = errors.New("empty employee")
	ErrEmptyReason    = errors.New("empty reason")
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidAdminID = errors.New("invalid admin id")
)

// Validate checks the fields a caller supplies when recording a fine.
// Catalog membership is not checked here.
func (f Fine) Validate() error {
	if strings.TrimSpace(f.Employee) == "" {
		return ErrEmptyEmployee
	}
	if f.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(f.Reason) == "" {
		return ErrEmptyReason
	}
	return nil
}

// DateLabel is the short creation date shown next to a fine.
func (f Fine) DateLabel() string {
	return f.CreatedAt.Format("2006-01-02")
}

func (a Admin) Validate() error {
	if a.UserID <= 0 {
		return ErrInvalidAdminID
	}
	return nil
}
