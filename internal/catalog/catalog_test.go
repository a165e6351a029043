package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if got := len(c.Employees()); got != 9 {
		t.Fatalf("expected 9 employees, got %d", got)
	}
	if got := len(c.Choices()); got != 14 {
		t.Fatalf("expected 14 reasons, got %d", got)
	}
	if !c.HasEmployee("Катя") || c.HasEmployee("Nobody") {
		t.Fatalf("unexpected membership")
	}
	reasons, ok := c.Reasons(25)
	if !ok || len(reasons) != 6 {
		t.Fatalf("unexpected 25-point reasons: %v", reasons)
	}
	if _, ok := c.Reasons(7); ok {
		t.Fatalf("expected unknown tier")
	}
}

func TestFlattenedOrder(t *testing.T) {
	c := MustNew([]string{"A"}, []Tier{
		{Amount: 50, Reasons: []string{"x", "y"}},
		{Amount: 10, Reasons: []string{"z"}},
	})
	want := []Choice{
		{Index: 0, Amount: 50, Reason: "x"},
		{Index: 1, Amount: 50, Reason: "y"},
		{Index: 2, Amount: 10, Reason: "z"},
	}
	got := c.Choices()
	if len(got) != len(want) {
		t.Fatalf("choices = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("choice %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFlatIndexRoundTrip(t *testing.T) {
	c := Default()
	for i := range c.Choices() {
		ch, ok := c.Choice(i)
		if !ok {
			t.Fatalf("index %d did not resolve", i)
		}
		back, ok := c.FlatIndex(ch.Amount, ch.Reason)
		if !ok || back != i {
			t.Fatalf("index %d round-tripped to %d (ok=%v)", i, back, ok)
		}
	}
}

func TestChoiceOutOfRange(t *testing.T) {
	c := Default()
	for _, i := range []int{-1, len(c.Choices()), 1000} {
		if _, ok := c.Choice(i); ok {
			t.Fatalf("index %d should not resolve", i)
		}
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		emps  []string
		tiers []Tier
	}{
		{"no employees", nil, []Tier{{Amount: 1, Reasons: []string{"r"}}}},
		{"no tiers", []string{"A"}, nil},
		{"blank employee", []string{" "}, []Tier{{Amount: 1, Reasons: []string{"r"}}}},
		{"duplicate employee", []string{"A", "A"}, []Tier{{Amount: 1, Reasons: []string{"r"}}}},
		{"zero amount", []string{"A"}, []Tier{{Amount: 0, Reasons: []string{"r"}}}},
		{"duplicate amount", []string{"A"}, []Tier{{Amount: 5, Reasons: []string{"r"}}, {Amount: 5, Reasons: []string{"s"}}}},
		{"empty reasons", []string{"A"}, []Tier{{Amount: 5}}},
		{"duplicate reason", []string{"A"}, []Tier{{Amount: 5, Reasons: []string{"r", "r"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.emps, tc.tiers); !errors.Is(err, ErrInvalidCatalog) {
				t.Fatalf("expected ErrInvalidCatalog, got %v", err)
			}
		})
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	c := Default()
	emps := c.Employees()
	emps[0] = "mutated"
	if c.Employees()[0] == "mutated" {
		t.Fatalf("Employees leaked internal slice")
	}
	tiers := c.Tiers()
	tiers[0].Reasons[0] = "mutated"
	if c.Tiers()[0].Reasons[0] == "mutated" {
		t.Fatalf("Tiers leaked internal slice")
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	if err != nil || len(c.Employees()) != 9 {
		t.Fatalf("empty path should load defaults: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := "employees: [Anna, Boris_K]\ntiers:\n  - amount: 50\n    reasons: [damage]\n  - amount: 10\n    reasons: [late, noise]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err = Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := c.Employees(); len(got) != 2 || got[1] != "Boris_K" {
		t.Fatalf("employees = %v", got)
	}
	if ch, ok := c.Choice(2); !ok || ch.Amount != 10 || ch.Reason != "noise" {
		t.Fatalf("choice 2 = %+v", ch)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("employees: [A]\ntiers: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(bad); !errors.Is(err, ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
}
