package category

import (
	"encoding/json"
	"math"
	"testing"
)

func TestCategorize_thresholds(t *testing.T) {
	tests := []struct {
		v    float64
		want Category
	}{
		{0, Baik},
		{10.0, Baik},
		{15.5, Baik},
		{15.50001, Sedang},
		{20.0, Sedang},
		{55.4, Sedang},
		{55.41, TidakSehat},
		{150.4, TidakSehat},
		{150.41, SangatTidakSehat},
		{250.4, SangatTidakSehat},
		{250.41, Berbahaya},
		{999, Berbahaya},
		{math.Inf(1), Berbahaya},
		{-3, Baik},
	}
	for _, tt := range tests {
		if got := Categorize(tt.v); got != tt.want {
			t.Errorf("Categorize(%v) = %v; want %v", tt.v, got, tt.want)
		}
	}
}

func TestCategorize_NaN(t *testing.T) {
	if got := Categorize(math.NaN()); got != None {
		t.Errorf("Categorize(NaN) = %v; want None", got)
	}
}

// The five intervals partition [0, +Inf): walking upward never skips or
// repeats a level, and every value lands in exactly one of them.
func TestCategorize_partition(t *testing.T) {
	prev := Baik
	for v := 0.0; v <= 400; v += 0.05 {
		got := Categorize(v)
		if got == None {
			t.Fatalf("Categorize(%v) = None", v)
		}
		if got < prev || got > prev+1 {
			t.Fatalf("Categorize(%v) = %v after %v; levels must be contiguous", v, got, prev)
		}
		prev = got
	}
	if prev != Berbahaya {
		t.Fatalf("highest level reached = %v; want Berbahaya", prev)
	}
}

func TestCategory_display(t *testing.T) {
	tests := []struct {
		c     Category
		label string
		color string
	}{
		{Baik, "Baik", "#5CB338"},
		{Sedang, "Sedang", "#B4EBE6"},
		{TidakSehat, "Tidak Sehat", "#FFC145"},
		{SangatTidakSehat, "Sangat Tidak Sehat", "#FB4141"},
		{Berbahaya, "Berbahaya", "#A5158C"},
		{None, "", ""},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.label {
			t.Errorf("%d.String() = %q; want %q", tt.c, got, tt.label)
		}
		if got := tt.c.Color(); got != tt.color {
			t.Errorf("%d.Color() = %q; want %q", tt.c, got, tt.color)
		}
	}
	if Berbahaya.RangeLabel() != ">250.4 µg/m³" {
		t.Errorf("Berbahaya.RangeLabel() = %q", Berbahaya.RangeLabel())
	}
}

func TestAll(t *testing.T) {
	all := All()
	if len(all) != 5 {
		t.Fatalf("All() len = %d; want 5", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].UpperBound() >= all[i].UpperBound() {
			t.Errorf("All() not ordered by severity at %d", i)
		}
	}
}

func TestCategory_JSON(t *testing.T) {
	b, err := json.Marshal(map[string]Category{"c": SangatTidakSehat})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"c":"Sangat Tidak Sehat"}` {
		t.Errorf("Marshal = %s", b)
	}

	var got map[string]Category
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["c"] != SangatTidakSehat {
		t.Errorf("Unmarshal = %v; want SangatTidakSehat", got["c"])
	}

	if err := json.Unmarshal([]byte(`{"c":"Unknown"}`), &got); err == nil {
		t.Error("Unmarshal unknown label = nil error; want error")
	}
}
