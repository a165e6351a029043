// Package catalog holds the static reference data the menus are built from:
// the employee roster and the fine tiers with their reasons.
//
// Reasons are also addressed by a flat zero-based index (tiers in declaration
// order, then reasons within a tier in declaration order). Buttons carry that
// index, so the ordering must not change while a deployment is running.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// Tier is a point value and the reasons that cost that many points.
type Tier struct {
	Amount  int      `yaml:"amount"`
	Reasons []string `yaml:"reasons"`
}

// Choice is one reason resolved from the flattened numbering.
type Choice struct {
	Index  int
	Amount int
	Reason string
}

type Catalog struct {
	employees []string
	tiers     []Tier
	choices   []Choice
	members   map[string]struct{}
}

// New validates and indexes a roster and tier list. Inputs are copied.
func New(employees []string, tiers []Tier) (*Catalog, error) {
	if len(employees) == 0 {
		return nil, fmt.Errorf("%w: no employees", ErrInvalidCatalog)
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: no fine tiers", ErrInvalidCatalog)
	}

	c := &Catalog{members: make(map[string]struct{}, len(employees))}
	for _, e := range employees {
		if strings.TrimSpace(e) == "" {
			return nil, fmt.Errorf("%w: blank employee name", ErrInvalidCatalog)
		}
		if _, dup := c.members[e]; dup {
			return nil, fmt.Errorf("%w: duplicate employee %q", ErrInvalidCatalog, e)
		}
		c.members[e] = struct{}{}
		c.employees = append(c.employees, e)
	}

	amounts := make(map[int]struct{}, len(tiers))
	for _, t := range tiers {
		if t.Amount <= 0 {
			return nil, fmt.Errorf("%w: non-positive amount %d", ErrInvalidCatalog, t.Amount)
		}
		if _, dup := amounts[t.Amount]; dup {
			return nil, fmt.Errorf("%w: duplicate amount %d", ErrInvalidCatalog, t.Amount)
		}
		amounts[t.Amount] = struct{}{}
		if len(t.Reasons) == 0 {
			return nil, fmt.Errorf("%w: amount %d has no reasons", ErrInvalidCatalog, t.Amount)
		}

		seen := make(map[string]struct{}, len(t.Reasons))
		reasons := make([]string, 0, len(t.Reasons))
		for _, r := range t.Reasons {
			if strings.TrimSpace(r) == "" {
				return nil, fmt.Errorf("%w: blank reason for amount %d", ErrInvalidCatalog, t.Amount)
			}
			if _, dup := seen[r]; dup {
				return nil, fmt.Errorf("%w: duplicate reason %q for amount %d", ErrInvalidCatalog, r, t.Amount)
			}
			seen[r] = struct{}{}
			reasons = append(reasons, r)
			c.choices = append(c.choices, Choice{Index: len(c.choices), Amount: t.Amount, Reason: r})
		}
		c.tiers = append(c.tiers, Tier{Amount: t.Amount, Reasons: reasons})
	}

	return c, nil
}

// MustNew is New for package-level literals.
func MustNew(employees []string, tiers []Tier) *Catalog {
	c, err := New(employees, tiers)
	if err != nil {
		panic(err)
	}
	return c
}

// Employees returns the roster in menu display order.
func (c *Catalog) Employees() []string {
	return append([]string(nil), c.employees...)
}

func (c *Catalog) HasEmployee(name string) bool {
	_, ok := c.members[name]
	return ok
}

func (c *Catalog) Tiers() []Tier {
	out := make([]Tier, len(c.tiers))
	for i, t := range c.tiers {
		out[i] = Tier{Amount: t.Amount, Reasons: append([]string(nil), t.Reasons...)}
	}
	return out
}

// Reasons returns the reasons of the tier worth amount points.
func (c *Catalog) Reasons(amount int) ([]string, bool) {
	for _, t := range c.tiers {
		if t.Amount == amount {
			return append([]string(nil), t.Reasons...), true
		}
	}
	return nil, false
}

// Choices returns every reason in flattened order.
func (c *Catalog) Choices() []Choice {
	return append([]Choice(nil), c.choices...)
}

// Choice resolves a flat index. Out-of-range indexes report false.
func (c *Catalog) Choice(index int) (Choice, bool) {
	if index < 0 || index >= len(c.choices) {
		return Choice{}, false
	}
	return c.choices[index], true
}

// FlatIndex is the inverse of Choice.
func (c *Catalog) FlatIndex(amount int, reason string) (int, bool) {
	for _, ch := range c.choices {
		if ch.Amount == amount && ch.Reason == reason {
			return ch.Index, true
		}
	}
	return 0, false
}
