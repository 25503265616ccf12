package main

import (
	"errors"
	"testing"
	"time"
)

var fastNow = time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC)

func mustSelect(t *testing.T, plan, start, end string) fastingState {
	t.Helper()
	s, err := selectPlan(fastingState{}, plan, start, end)
	if err != nil {
		t.Fatalf("selectPlan(%s): %v", plan, err)
	}
	return s
}

/* ─── Durations ─────────────────────────────────────────────────────── */

func TestComputeCustomDuration(t *testing.T) {
	cases := []struct {
		start, end string
		want       time.Duration
	}{
		{"20:00", "12:00", 16 * time.Hour},
		{"06:00", "12:00", 6 * time.Hour},
		{"19:30", "11:15", 15*time.Hour + 45*time.Minute},
		{"12:00", "12:00", 24 * time.Hour},
	}
	for _, tc := range cases {
		got, err := computeCustomDuration(tc.start, tc.end)
		if err != nil {
			t.Fatalf("%s-%s: unexpected error: %v", tc.start, tc.end, err)
		}
		if got != tc.want {
			t.Errorf("%s-%s = %v, want %v", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestComputeCustomDuration_Malformed(t *testing.T) {
	for _, in := range [][2]string{{"25:00", "12:00"}, {"20:00", "noon"}, {"", "12:00"}} {
		if _, err := computeCustomDuration(in[0], in[1]); err == nil {
			t.Errorf("expected error for %q-%q", in[0], in[1])
		}
	}
}

/* ─── Plan selection ────────────────────────────────────────────────── */

func TestSelectPlan(t *testing.T) {
	cases := []struct {
		plan  string
		hours int64
	}{
		{"16:8", 16},
		{"18:6", 18},
		{"20:4", 20},
	}
	for _, tc := range cases {
		s := mustSelect(t, tc.plan, "", "")
		if s.Phase != phaseIdle || s.TotalSeconds != tc.hours*3600 || s.RemainingSeconds != s.TotalSeconds {
			t.Errorf("%s: got %+v", tc.plan, s)
		}
	}

	custom := mustSelect(t, planCustom, "20:00", "12:00")
	if custom.TotalSeconds != 16*3600 || custom.CustomStart != "20:00" {
		t.Errorf("custom: got %+v", custom)
	}

	if _, err := selectPlan(fastingState{}, "12:12", "", ""); !errors.Is(err, errUnknownPlan) {
		t.Errorf("expected errUnknownPlan, got %v", err)
	}
	if _, err := selectPlan(fastingState{}, planCustom, "bad", "12:00"); err == nil {
		t.Error("expected error for malformed custom start")
	}
}

// TestSelectPlan_RejectedWhileRunning verifies plan changes are refused
// mid-fast and leave the running fast untouched.
func TestSelectPlan_RejectedWhileRunning(t *testing.T) {
	running, _ := startFast(mustSelect(t, "16:8", "", ""), fastNow)
	got, err := selectPlan(running, "20:4", "", "")
	if !errors.Is(err, errFastRunning) {
		t.Fatalf("expected errFastRunning, got %v", err)
	}
	if got.Plan != "16:8" || got.Phase != phaseRunning {
		t.Errorf("running fast changed: %+v", got)
	}
}

/* ─── Countdown ─────────────────────────────────────────────────────── */

// TestStartPauseResume verifies the deadline is set from the remaining time
// and a pause freezes what is left.
func TestStartPauseResume(t *testing.T) {
	s, err := startFast(mustSelect(t, "16:8", "", ""), fastNow)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !s.IsRunning || !s.EndTime.Equal(fastNow.Add(16*time.Hour)) {
		t.Fatalf("after start: %+v", s)
	}
	if _, err := startFast(s, fastNow); !errors.Is(err, errFastRunning) {
		t.Errorf("second start: expected errFastRunning, got %v", err)
	}

	s, err = pauseFast(s, fastNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if s.Phase != phasePaused || s.IsRunning || s.RemainingSeconds != 15*3600 {
		t.Fatalf("after pause: %+v", s)
	}
	if s.EndTime == nil {
		t.Error("pause cleared the last deadline")
	}
	if _, err := pauseFast(s, fastNow); !errors.Is(err, errFastNotRunning) {
		t.Errorf("pause while paused: expected errFastNotRunning, got %v", err)
	}

	later := fastNow.Add(5 * time.Hour)
	s, err = startFast(s, later)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !s.EndTime.Equal(later.Add(15 * time.Hour)) {
		t.Errorf("resumed deadline = %v, want %v", s.EndTime, later.Add(15*time.Hour))
	}
}

// TestTickFast_CompletesOnce drives a 16-hour fast one second at a time: it
// completes exactly once and never goes below zero.
func TestTickFast_CompletesOnce(t *testing.T) {
	s, _ := startFast(mustSelect(t, "16:8", "", ""), fastNow)

	completions := 0
	for i := 0; i < 16*3600; i++ {
		if s.Phase != phaseRunning {
			t.Fatalf("left running early at tick %d", i)
		}
		var done bool
		s, done = tickFast(s)
		if done {
			completions++
		}
	}
	if completions != 1 {
		t.Errorf("completions = %d, want 1", completions)
	}
	if s.Phase != phaseComplete || s.RemainingSeconds != 0 || s.IsRunning {
		t.Errorf("final state: %+v", s)
	}

	s, done := tickFast(s)
	if done || s.RemainingSeconds != 0 {
		t.Errorf("tick after completion: done=%v remaining=%d", done, s.RemainingSeconds)
	}
	if _, err := startFast(s, fastNow); !errors.Is(err, errFastComplete) {
		t.Errorf("start after completion: expected errFastComplete, got %v", err)
	}
}

// TestTickFast_IgnoredWhenNotRunning verifies an idle fast doesn't count down.
func TestTickFast_IgnoredWhenNotRunning(t *testing.T) {
	s := mustSelect(t, "18:6", "", "")
	got, done := tickFast(s)
	if done || got.RemainingSeconds != s.RemainingSeconds {
		t.Errorf("idle tick changed state: %+v", got)
	}
}

func TestResetFast(t *testing.T) {
	s, _ := startFast(mustSelect(t, "20:4", "", ""), fastNow)
	s, _ = pauseFast(s, fastNow.Add(2*time.Hour))
	s = resetFast(s)
	if s.Phase != phaseIdle || s.EndTime != nil || s.RemainingSeconds != 20*3600 || s.Plan != "20:4" {
		t.Errorf("after reset: %+v", s)
	}
}

/* ─── Rehydration ───────────────────────────────────────────────────── */

func TestRehydrateFast(t *testing.T) {
	running, _ := startFast(mustSelect(t, "16:8", "", ""), fastNow)

	t.Run("still running", func(t *testing.T) {
		s, done := rehydrateFast(running, fastNow.Add(10*time.Hour))
		if done || s.Phase != phaseRunning || s.RemainingSeconds != 6*3600 {
			t.Errorf("got %+v done=%v", s, done)
		}
	})

	t.Run("lapsed", func(t *testing.T) {
		lapsed := running
		end := fastNow.Add(-time.Second)
		lapsed.EndTime = &end
		s, done := rehydrateFast(lapsed, fastNow)
		if !done || s.Phase != phaseComplete || s.IsRunning || s.RemainingSeconds != 0 {
			t.Errorf("got %+v done=%v", s, done)
		}
	})

	t.Run("paused untouched", func(t *testing.T) {
		paused, _ := pauseFast(running, fastNow.Add(time.Hour))
		s, done := rehydrateFast(paused, fastNow.Add(48*time.Hour))
		if done || s != paused {
			t.Errorf("got %+v done=%v", s, done)
		}
	})
}
