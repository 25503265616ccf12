package main

import (
	"errors"
	"fmt"
	"time"
)

// fastingPlanDurations maps the fixed intermittent-fasting plans to their
// fasting window. "custom" is computed from the user's start/end times.
var fastingPlanDurations = map[string]time.Duration{
	"16:8": 16 * time.Hour,
	"18:6": 18 * time.Hour,
	"20:4": 20 * time.Hour,
}

const planCustom = "custom"

const (
	phaseIdle     = "idle"
	phaseRunning  = "running"
	phasePaused   = "paused"
	phaseComplete = "complete"
)

var (
	errFastRunning    = errors.New("fast is running; pause or reset it first")
	errFastNotRunning = errors.New("fast is not running")
	errFastComplete   = errors.New("fast is complete; reset it to start again")
	errUnknownPlan    = errors.New("plan must be one of: 16:8, 18:6, 20:4, custom")
)

// fastingState is a single user's fast. EndTime stays set after a pause so the
// last deadline is still visible; only reset clears it.
type fastingState struct {
	Plan             string     `json:"plan"`
	Phase            string     `json:"phase"`
	IsRunning        bool       `json:"is_running"`
	EndTime          *time.Time `json:"end_time"`
	CustomStart      string     `json:"custom_start,omitempty"`
	CustomEnd        string     `json:"custom_end,omitempty"`
	TotalSeconds     int64      `json:"total_seconds"`
	RemainingSeconds int64      `json:"remaining_seconds"`
}

// parseClock parses an "HH:MM" wall-clock time into an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// computeCustomDuration returns the fasting window between two wall-clock
// times. An end at or before the start is taken to be on the next day.
func computeCustomDuration(start, end string) (time.Duration, error) {
	s, err := parseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := parseClock(end)
	if err != nil {
		return 0, err
	}
	if e <= s {
		e += 24 * time.Hour
	}
	return e - s, nil
}

// selectPlan switches to a plan and resets the countdown to its full length.
// Not allowed while a fast is running.
func selectPlan(s fastingState, plan, customStart, customEnd string) (fastingState, error) {
	if s.Phase == phaseRunning {
		return s, errFastRunning
	}

	var d time.Duration
	if plan == planCustom {
		var err error
		if d, err = computeCustomDuration(customStart, customEnd); err != nil {
			return s, err
		}
	} else {
		var ok bool
		if d, ok = fastingPlanDurations[plan]; !ok {
			return s, errUnknownPlan
		}
		customStart, customEnd = "", ""
	}

	total := int64(d / time.Second)
	return fastingState{
		Plan:             plan,
		Phase:            phaseIdle,
		CustomStart:      customStart,
		CustomEnd:        customEnd,
		TotalSeconds:     total,
		RemainingSeconds: total,
	}, nil
}

// startFast begins or resumes the countdown from the remaining time.
func startFast(s fastingState, now time.Time) (fastingState, error) {
	switch s.Phase {
	case phaseRunning:
		return s, errFastRunning
	case phaseComplete:
		return s, errFastComplete
	}
	if s.RemainingSeconds <= 0 {
		return s, errFastComplete
	}
	end := now.Add(time.Duration(s.RemainingSeconds) * time.Second)
	s.Phase = phaseRunning
	s.IsRunning = true
	s.EndTime = &end
	return s, nil
}

// pauseFast freezes the remaining time at endTime - now.
func pauseFast(s fastingState, now time.Time) (fastingState, error) {
	if s.Phase != phaseRunning {
		return s, errFastNotRunning
	}
	s.IsRunning = false
	s.RemainingSeconds = secondsUntil(*s.EndTime, now)
	if s.RemainingSeconds == 0 {
		s.Phase = phaseComplete
		return s, nil
	}
	s.Phase = phasePaused
	return s, nil
}

// tickFast advances a running fast by one second. The second return value is
// true only on the tick that completes the fast.
func tickFast(s fastingState) (fastingState, bool) {
	if s.Phase != phaseRunning {
		return s, false
	}
	if s.RemainingSeconds > 0 {
		s.RemainingSeconds--
	}
	if s.RemainingSeconds > 0 {
		return s, false
	}
	s.Phase = phaseComplete
	s.IsRunning = false
	return s, true
}

// resetFast returns to the start of the current plan.
func resetFast(s fastingState) fastingState {
	s.Phase = phaseIdle
	s.IsRunning = false
	s.EndTime = nil
	s.RemainingSeconds = s.TotalSeconds
	return s
}

// rehydrateFast rebuilds a persisted fast against the current time. A running
// fast whose deadline has passed is complete, never negative; the second
// return value reports that transition.
func rehydrateFast(s fastingState, now time.Time) (fastingState, bool) {
	if !s.IsRunning || s.EndTime == nil {
		return s, false
	}
	remaining := secondsUntil(*s.EndTime, now)
	if remaining > 0 {
		s.Phase = phaseRunning
		s.RemainingSeconds = remaining
		return s, false
	}
	s.Phase = phaseComplete
	s.IsRunning = false
	s.RemainingSeconds = 0
	return s, true
}

// secondsUntil rounds up so a fast is only complete once its deadline passes.
func secondsUntil(end, now time.Time) int64 {
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
