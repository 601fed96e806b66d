package clock

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

var epoch = time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

// TestFakeAdvanceFiresTicker verifies ticks follow fake time only.
func TestFakeAdvanceFiresTicker(t *testing.T) {
	f := NewFake(epoch)
	tk := f.NewTicker(time.Second)

	select {
	case <-tk.Chan():
		t.Fatal("ticker fired before time advanced")
	default:
	}

	f.Advance(time.Second)
	select {
	case got := <-tk.Chan():
		if !got.Equal(epoch.Add(time.Second)) {
			t.Fatalf("tick = %v, want %v", got, epoch.Add(time.Second))
		}
	default:
		t.Fatal("expected a tick after one second")
	}

	if !f.Now().Equal(epoch.Add(time.Second)) {
		t.Fatalf("now = %v", f.Now())
	}
}

// TestFakeStoppedTickerIsDropped checks Stop releases the ticker.
func TestFakeStoppedTickerIsDropped(t *testing.T) {
	f := NewFake(epoch)
	tk := f.NewTicker(time.Second)
	if f.Tickers() != 1 {
		t.Fatalf("tickers = %d, want 1", f.Tickers())
	}
	tk.Stop()
	f.Advance(5 * time.Second)
	if f.Tickers() != 0 {
		t.Fatalf("tickers = %d, want 0", f.Tickers())
	}
	select {
	case <-tk.Chan():
		t.Fatal("stopped ticker fired")
	default:
	}
}

// TestParseISODuration covers ISO and Go forms.
func TestParseISODuration(t *testing.T) {
	cases := map[string]time.Duration{
		"PT3H20M": 3*time.Hour + 20*time.Minute,
		"PT45M":   45 * time.Minute,
		"PT0H0M":  0,
		"1h30m":   90 * time.Minute,
	}
	for in, want := range cases {
		got, err := ParseISODuration(in)
		if err != nil {
			t.Fatalf("ParseISODuration(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseISODuration(%q) = %v, want %v", in, got, want)
		}
	}

	for _, bad := range []string{"", "PTXYZ", "soon"} {
		if _, err := ParseISODuration(bad); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("ParseISODuration(%q) err = %v, want ErrInvalidDuration", bad, err)
		}
	}
}

// TestISODurationJSON checks the wire form of estimated durations.
func TestISODurationJSON(t *testing.T) {
	var v struct {
		Est ISODuration `json:"est_time"`
	}
	if err := json.Unmarshal([]byte(`{"est_time":"PT1H30M"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Est.Std() != 90*time.Minute {
		t.Fatalf("est = %v, want 1h30m", v.Est.Std())
	}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back struct {
		Est ISODuration `json:"est_time"`
	}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	if back.Est != v.Est {
		t.Fatalf("round trip = %v, want %v", back.Est, v.Est)
	}

	if err := json.Unmarshal([]byte(`{"est_time":90}`), &v); err == nil {
		t.Fatal("expected numeric duration to be rejected")
	}
}

// TestFormatClock checks the countdown layouts.
func TestFormatClock(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Minute, "00:00"},
		{59 * time.Second, "00:00"},
		{90 * time.Minute, "01:30"},
		{23*time.Hour + 59*time.Minute, "23:59"},
		{24 * time.Hour, "1:00:00"},
		{50*time.Hour + 5*time.Minute, "2:02:05"},
	}
	for _, c := range cases {
		if got := FormatClock(c.in); got != c.want {
			t.Fatalf("FormatClock(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

// TestFormatRemainingAddsMinute verifies the display rounds up.
func TestFormatRemainingAddsMinute(t *testing.T) {
	if got := FormatRemaining(30 * time.Second); got != "00:01" {
		t.Fatalf("FormatRemaining(30s) = %q, want 00:01", got)
	}
	if got := FormatRemaining(29*time.Minute + 59*time.Second); got != "00:30" {
		t.Fatalf("FormatRemaining(29m59s) = %q, want 00:30", got)
	}
	if got := FormatRemaining(0); got != "00:00" {
		t.Fatalf("FormatRemaining(0) = %q, want 00:00", got)
	}
}

// TestHumanize checks the relative-time thresholds and suffixes.
func TestHumanize(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{10 * time.Second, "a few seconds"},
		{60 * time.Second, "a minute"},
		{20 * time.Minute, "20 minutes"},
		{50 * time.Minute, "an hour"},
		{5 * time.Hour, "5 hours"},
		{30 * time.Hour, "a day"},
		{10 * day, "10 days"},
		{40 * day, "a month"},
		{120 * day, "4 months"},
		{400 * day, "a year"},
		{800 * day, "2 years"},
	}
	for _, c := range cases {
		if got := Humanize(c.in, false); got != c.want {
			t.Fatalf("Humanize(%v) = %q, want %q", c.in, got, c.want)
		}
	}

	if got := Humanize(20*time.Minute, true); got != "in 20 minutes" {
		t.Fatalf("future suffix = %q", got)
	}
	if got := Humanize(-3*time.Hour, true); got != "3 hours ago" {
		t.Fatalf("past suffix = %q", got)
	}
	if got := Humanize(0, true); got != "a few seconds ago" {
		t.Fatalf("zero suffix = %q", got)
	}
}

// TestFormatStamp uses an explicit location.
func TestFormatStamp(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	if got := FormatStamp(epoch, loc); got != "03/14 7:00 AM" {
		t.Fatalf("FormatStamp = %q, want 03/14 7:00 AM", got)
	}
}
