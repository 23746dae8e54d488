package date

import "testing"

func TestAppend(t *testing.T) {
	h := new(History[string])
	d1, v1 := New(2025, 07, 01), "25 Jul 1"
	d2, v2 := New(2024, 07, 01), "24 Jul 1"

	// Test is about appending two values in reverse order and checking that everything is
	// as expected at every step of the way.

	if h.Len() != 0 {
		t.Errorf("History.Len() = %v want 0", h.Len())
	}

	h.Append(d1, v1)
	if h.Len() != 1 {
		t.Errorf("Append(d1, v1).Len() = %v want 1", h.Len())
	}

	h.Append(d2, v2)
	if h.Len() != 2 {
		t.Errorf("Append(d2, v2).Len() = %v want 2", h.Len())
	}

	if h.days[1] != d1 {
		t.Errorf("history[1].day = %v want %v", h.days[1], d1)
	}
	if h.days[0] != d2 {
		t.Errorf("history[0].day = %v want %v", h.days[0], d2)
	}
	if h.values[1] != v1 {
		t.Errorf("history[1].value = %v want %v", h.values[1], v1)
	}
	if h.values[0] != v2 {
		t.Errorf("history[0].value = %v want %v", h.values[0], v2)
	}
}

func TestValueAsOf(t *testing.T) {
	h := new(History[float64])
	h.Append(New(2025, 1, 10), 1).Append(New(2025, 1, 20), 2)

	if _, ok := h.ValueAsOf(New(2025, 1, 9)); ok {
		t.Errorf("ValueAsOf(before first) should not be found")
	}
	if v, ok := h.ValueAsOf(New(2025, 1, 15)); !ok || v != 1 {
		t.Errorf("ValueAsOf(2025-01-15) = %v, %v want 1, true", v, ok)
	}
	if v, ok := h.ValueAsOf(New(2025, 1, 20)); !ok || v != 2 {
		t.Errorf("ValueAsOf(2025-01-20) = %v, %v want 2, true", v, ok)
	}
	if v, ok := h.ValueAsOf(New(2026, 1, 1)); !ok || v != 2 {
		t.Errorf("ValueAsOf(2026-01-01) = %v, %v want 2, true", v, ok)
	}
}

func TestResampleLast(t *testing.T) {
	h := new(History[float64])
	h.Append(New(2010, 1, 4), 10).
		Append(New(2010, 1, 28), 11).
		Append(New(2010, 1, 29), 12).
		Append(New(2010, 2, 1), 20).
		Append(New(2010, 2, 26), 21)

	got := ResampleLast(h, Date.BusinessMonthEnd)
	if got.Len() != 2 {
		t.Fatalf("ResampleLast().Len() = %d, want 2", got.Len())
	}
	if v, ok := got.Get(New(2010, 1, 29)); !ok || v != 12 {
		t.Errorf("January = %v, %v want 12, true", v, ok)
	}
	if v, ok := got.Get(New(2010, 2, 26)); !ok || v != 21 {
		t.Errorf("February = %v, %v want 21, true", v, ok)
	}
}

func TestIterate(t *testing.T) {
	a := new(History[float64])
	a.Append(New(2025, 1, 1), 1).Append(New(2025, 1, 3), 3)
	b := new(History[float64])
	b.Append(New(2025, 1, 2), 2).Append(New(2025, 1, 3), 3)

	var got []Date
	for d := range Iterate(a, b) {
		got = append(got, d)
	}
	want := []Date{New(2025, 1, 1), New(2025, 1, 2), New(2025, 1, 3)}
	if len(got) != len(want) {
		t.Fatalf("Iterate() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Iterate()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
