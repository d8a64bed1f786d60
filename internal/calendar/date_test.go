package calendar

import (
	"testing"
	"time"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Date
		want int
	}{
		{"equal", NewDate(2023, 0, 5), NewDate(2023, 0, 5), 0},
		{"day", NewDate(2023, 0, 5), NewDate(2023, 0, 6), -1},
		{"month beats day", NewDate(2023, 1, 1), NewDate(2023, 0, 31), 1},
		{"year beats month", NewDate(2022, 11, 31), NewDate(2023, 0, 1), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := Compare(tt.b, tt.a); got != -tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestBetween(t *testing.T) {
	a := NewDate(2023, 0, 5)
	b := NewDate(2023, 0, 10)

	tests := []struct {
		d    Date
		want bool
	}{
		{NewDate(2023, 0, 7), true},
		{a, false},
		{b, false},
		{NewDate(2023, 0, 4), false},
		{NewDate(2023, 0, 11), false},
	}

	for _, tt := range tests {
		if got := tt.d.Between(a, b); got != tt.want {
			t.Errorf("%v.Between(%v, %v) = %v, want %v", tt.d, a, b, got, tt.want)
		}
		if got := tt.d.Between(b, a); got != tt.want {
			t.Errorf("%v.Between(%v, %v) = %v, want %v", tt.d, b, a, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Date
		want Date
	}{
		{"in range", NewDate(2023, 4, 17), NewDate(2023, 4, 17)},
		{"day zero", NewDate(2024, 2, 0), NewDate(2024, 1, 29)},
		{"negative day", NewDate(2023, 0, -6), NewDate(2022, 11, 25)},
		{"day overflow", NewDate(2023, 1, 30), NewDate(2023, 2, 2)},
		{"month overflow", NewDate(2023, 12, 1), NewDate(2024, 0, 1)},
		{"negative month", NewDate(2023, -1, 15), NewDate(2022, 11, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize(%#v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTimeRoundTrip(t *testing.T) {
	d := NewDate(2024, 1, 29)
	tm := d.Time()
	if tm.Hour() != 0 || tm.Minute() != 0 || tm.Location() != time.Local {
		t.Errorf("expected local midnight, got %v", tm)
	}
	if got := FromTime(tm); got != d {
		t.Errorf("FromTime(%v) = %v, want %v", tm, got, d)
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		key     string
		want    Date
		wantErr bool
	}{
		{"2023-01-05", NewDate(2023, 0, 5), false},
		{" 2024-02-29 ", NewDate(2024, 1, 29), false},
		{"2023-02-29", Date{}, true},
		{"2023-13-01", Date{}, true},
		{"2023-00-01", Date{}, true},
		{"2023-01-xx", Date{}, true},
		{"", Date{}, true},
		{"20230105", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ParseKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestKeyRoundTrip(t *testing.T) {
	d := NewDate(987, 8, 3)
	got, err := ParseKey(d.String())
	if err != nil {
		t.Fatal(err)
	}
	if got != d {
		t.Errorf("got %v, want %v", got, d)
	}
}

func TestRange(t *testing.T) {
	r := NewRange(NewDate(2023, 1, 3), NewDate(2023, 0, 30))
	if r.Start != NewDate(2023, 0, 30) || r.End != NewDate(2023, 1, 3) {
		t.Fatalf("range not ordered: %v", r)
	}
	if got := r.Days(); got != 5 {
		t.Errorf("Days() = %d, want 5", got)
	}

	var dates []Date
	for d := range r.Dates() {
		dates = append(dates, d)
	}
	if len(dates) != 5 || dates[2] != NewDate(2023, 1, 1) {
		t.Errorf("unexpected dates: %v", dates)
	}

	if !r.Contains(r.Start) || !r.Contains(r.End) || r.Contains(NewDate(2023, 1, 4)) {
		t.Errorf("Contains is not inclusive of exactly the endpoints")
	}
}
