package filter

import "testing"

func TestNew_Valid(t *testing.T) {
	cond, err := NewMatch("state", "iowa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := New(cond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.IsEmpty() {
		t.Error("filter with a condition should not be empty")
	}
	if len(f.Conditions()) != 1 {
		t.Errorf("Conditions() = %v", f.Conditions())
	}
}

func TestNew_Empty(t *testing.T) {
	f, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsEmpty() {
		t.Error("expected empty filter")
	}
}

func TestNew_TooManyConditions(t *testing.T) {
	conds := make([]Condition, MaxConditions+1)
	for i := range conds {
		conds[i], _ = NewMatch("state", "iowa")
	}
	if _, err := New(conds...); err == nil {
		t.Fatal("expected error for too many conditions")
	}
}

func TestNewMatch(t *testing.T) {
	cond, err := NewMatch("date", "1905-07-26")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cond.IsMatch() || cond.IsRange() {
		t.Error("expected match condition")
	}
	if cond.Key() != "date" || cond.Match() != "1905-07-26" {
		t.Errorf("Key() = %q, Match() = %q", cond.Key(), cond.Match())
	}
}

func TestNewMatch_Invalid(t *testing.T) {
	if _, err := NewMatch("", "value"); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := NewMatch("key", ""); err == nil {
		t.Error("expected error for empty match value")
	}
}

func TestNewRange(t *testing.T) {
	gte := 1900.0
	rng, err := NewRangeBounds(nil, &gte, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cond, err := NewRange("year", rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cond.IsRange() || cond.IsMatch() {
		t.Error("expected range condition")
	}
	if got := cond.Range(); got == nil || *got.GTE() != 1900.0 {
		t.Errorf("Range() = %v", got)
	}
}

func TestNewRange_EmptyKey(t *testing.T) {
	gte := 1.0
	rng, _ := NewRangeBounds(nil, &gte, nil, nil)
	if _, err := NewRange("", rng); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestNewRangeBounds_Validation(t *testing.T) {
	v := 1.0

	if _, err := NewRangeBounds(nil, nil, nil, nil); err == nil {
		t.Error("expected error for no boundaries")
	}
	if _, err := NewRangeBounds(&v, &v, nil, nil); err == nil {
		t.Error("expected error for both gt and gte")
	}
	if _, err := NewRangeBounds(nil, nil, &v, &v); err == nil {
		t.Error("expected error for both lt and lte")
	}
}
