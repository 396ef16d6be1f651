package course

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "15:59:45", want: TimeOfDay{15, 59, 45}},
		{in: "16:02", want: TimeOfDay{16, 2, 0}},
		{in: "25:00", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseTimeOfDay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseTimeOfDay(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTimeOfDayOnUsesLocalDay(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("CEST", 2*3600)
	// 23:30 UTC is already the next day at +02:00
	day := time.Date(2026, 4, 14, 23, 30, 0, 0, time.UTC)

	got := TimeOfDay{15, 59, 45}.On(day, loc)
	want := time.Date(2026, 4, 15, 15, 59, 45, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("On() = %s, want %s", got, want)
	}
}

func TestWindow(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 4, 14, 15, 59, 45, 0, time.UTC)
	w := Window{Start: start, Cutoff: start.Add(3 * time.Minute)}

	if err := w.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := (Window{Start: start, Cutoff: start}).Validate(); err == nil {
		t.Fatal("Validate() of empty window error = nil")
	}
	for _, tc := range []struct {
		at   time.Time
		open bool
	}{
		{start.Add(-time.Nanosecond), false},
		{start, true},
		{w.Cutoff.Add(-time.Nanosecond), true},
		{w.Cutoff, false},
	} {
		if got := w.Open(tc.at); got != tc.open {
			t.Fatalf("Open(%s) = %v, want %v", tc.at, got, tc.open)
		}
	}
}

func TestNewTarget(t *testing.T) {
	t.Parallel()

	tgt, err := NewTarget(" 23404102 ", "https://hochschulsport.example/_Fitness.html", "")
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}
	if tgt.ID != "23404102" {
		t.Fatalf("ID = %q, want trimmed", tgt.ID)
	}
	for _, bad := range [][2]string{{"", "https://x.example/"}, {"1", ""}, {"1", "not a url"}} {
		if _, err := NewTarget(bad[0], bad[1], ""); err == nil {
			t.Fatalf("NewTarget(%q, %q) error = nil", bad[0], bad[1])
		}
	}
}

func TestStateLines(t *testing.T) {
	t.Parallel()
	st := State{ID: "23404102", Name: "Fitness Training", Level: "Anfänger", Weekday: "Di", Time: "18:00-19:30", Status: StatusQueueSignup, Waitlist: true}

	if got, want := st.Info(), "#23404102: Fitness Training Anfänger, Di 18:00-19:30"; got != want {
		t.Fatalf("Info() = %q, want %q", got, want)
	}
	if got, want := st.StatusLine(), "Status: queue signup"; got != want {
		t.Fatalf("StatusLine() = %q, want %q", got, want)
	}
	if st.Eligible() {
		t.Fatal("waitlisted course is eligible")
	}
}
