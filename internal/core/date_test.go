package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatal(err)
	}
	if d.Year() != 2024 || d.Month() != 2 || d.Day() != 29 {
		t.Fatalf("ParseDate = %v", d)
	}
	if _, err := ParseDate("2023-02-29"); err == nil {
		t.Fatal("expected error for invalid date")
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+6", 6*3600)
	got := DateOf(time.Date(2024, 9, 20, 23, 30, 0, 0, loc))
	if !got.Equal(NewDate(2024, 9, 20)) {
		t.Fatalf("DateOf = %v, want 2024-09-20", got)
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct{ y, m, want int }{
		{2024, 2, 29},
		{2023, 2, 28},
		{2024, 4, 30},
		{2024, 12, 31},
	}
	for _, c := range cases {
		if got := DaysInMonth(c.y, c.m); got != c.want {
			t.Errorf("DaysInMonth(%d, %d) = %d, want %d", c.y, c.m, got, c.want)
		}
	}
}

func TestDateJSON(t *testing.T) {
	type wrap struct {
		D Date
		E Date
	}
	b, err := json.Marshal(wrap{D: NewDate(2024, 1, 15)})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"D":"2024-01-15","E":null}` {
		t.Fatalf("marshal = %s", b)
	}
	var w wrap
	if err := json.Unmarshal(b, &w); err != nil {
		t.Fatal(err)
	}
	if !w.D.Equal(NewDate(2024, 1, 15)) || !w.E.IsZero() {
		t.Fatalf("unmarshal = %+v", w)
	}
}

func TestDaysUntil(t *testing.T) {
	if got := NewDate(2024, 2, 27).DaysUntil(NewDate(2024, 3, 2)); got != 4 {
		t.Fatalf("DaysUntil = %d, want 4", got)
	}
}
