package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

const defaultFastingPlan = "16:8"

func (r fastingRow) state() fastingState {
	s := fastingState{
		Plan:             r.Plan,
		Phase:            r.Phase,
		IsRunning:        r.IsRunning,
		EndTime:          r.EndTime,
		TotalSeconds:     r.TotalSeconds,
		RemainingSeconds: r.RemainingSeconds,
	}
	if r.CustomStart != nil {
		s.CustomStart = *r.CustomStart
	}
	if r.CustomEnd != nil {
		s.CustomEnd = *r.CustomEnd
	}
	return s
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// loadFast reads the user's fast, or a fresh idle default-plan fast when none
// has been stored yet, rehydrated against now. A running fast that lapsed
// while nobody was looking is persisted as complete exactly once.
func (h *Handler) loadFast(c *gin.Context, userID int) (fastingState, error) {
	row, err := queryOne[fastingRow](h.db, c,
		"SELECT * FROM fasting_states WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if errors.Is(err, pgx.ErrNoRows) {
		s, _ := selectPlan(fastingState{}, defaultFastingPlan, "", "")
		return s, nil
	}
	if err != nil {
		return fastingState{}, err
	}

	s, completed := rehydrateFast(row.state(), h.clock())
	if completed {
		// Guarded on is_running so concurrent readers record completion once.
		tag, err := h.db.Exec(c,
			`UPDATE fasting_states SET phase = @phase, is_running = false,
				remaining_seconds = 0, updated_at = now()
			 WHERE user_id = @userID AND is_running`,
			pgx.NamedArgs{"userID": userID, "phase": phaseComplete})
		if err != nil {
			return fastingState{}, err
		}
		if tag.RowsAffected() > 0 {
			log.Printf("[loadFast] fast complete for user %d", userID)
			recordFastCompleted()
		}
	}
	return s, nil
}

// saveFast writes the whole fasting state for the user.
func (h *Handler) saveFast(c *gin.Context, userID int, s fastingState) (fastingState, error) {
	row, err := queryOne[fastingRow](h.db, c,
		`INSERT INTO fasting_states (user_id, plan, phase, is_running, end_time,
			custom_start, custom_end, total_seconds, remaining_seconds)
		 VALUES (@userID, @plan, @phase, @isRunning, @endTime,
			@customStart, @customEnd, @totalSeconds, @remainingSeconds)
		 ON CONFLICT (user_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			phase = EXCLUDED.phase,
			is_running = EXCLUDED.is_running,
			end_time = EXCLUDED.end_time,
			custom_start = EXCLUDED.custom_start,
			custom_end = EXCLUDED.custom_end,
			total_seconds = EXCLUDED.total_seconds,
			remaining_seconds = EXCLUDED.remaining_seconds,
			updated_at = now()
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "plan": s.Plan, "phase": s.Phase, "isRunning": s.IsRunning,
			"endTime": s.EndTime, "customStart": nullableString(s.CustomStart),
			"customEnd": nullableString(s.CustomEnd), "totalSeconds": s.TotalSeconds,
			"remainingSeconds": s.RemainingSeconds,
		})
	if err != nil {
		return fastingState{}, err
	}
	return row.state(), nil
}

// fastingErrorStatus maps transition errors to 409 and input errors to 400.
func fastingErrorStatus(err error) int {
	switch {
	case errors.Is(err, errFastRunning), errors.Is(err, errFastNotRunning), errors.Is(err, errFastComplete):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// transitionFast loads, transitions and saves the caller's fast.
func (h *Handler) transitionFast(c *gin.Context, op string, next func(fastingState) (fastingState, error)) {
	userID := c.GetInt("user_id")

	s, err := h.loadFast(c, userID)
	if err != nil {
		log.Printf("[%s] load failed for user %d: %v", op, userID, err)
		apiError(c, http.StatusInternalServerError, "failed to load fasting state")
		return
	}
	s, err = next(s)
	if err != nil {
		apiError(c, fastingErrorStatus(err), err.Error())
		return
	}
	saved, err := h.saveFast(c, userID, s)
	if err != nil {
		log.Printf("[%s] save failed for user %d: %v", op, userID, err)
		apiError(c, http.StatusInternalServerError, "failed to save fasting state")
		return
	}
	// Report remaining time as of now, not as of the stored snapshot.
	saved, _ = rehydrateFast(saved, h.clock())
	c.JSON(http.StatusOK, saved)
}

// getFastingState returns the caller's fast as of now.
// GET /api/fasting.
func (h *Handler) getFastingState(c *gin.Context) {
	userID := c.GetInt("user_id")
	s, err := h.loadFast(c, userID)
	if err != nil {
		log.Printf("[getFastingState] failed for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to load fasting state")
		return
	}
	c.JSON(http.StatusOK, s)
}

// selectFastingPlan switches plans; rejected with 409 while a fast is running.
// POST /api/fasting/plan. Body: { "plan": "16:8" } or
// { "plan": "custom", "custom_start": "20:00", "custom_end": "12:00" }.
func (h *Handler) selectFastingPlan(c *gin.Context) {
	var body struct {
		Plan        string `json:"plan"`
		CustomStart string `json:"custom_start"`
		CustomEnd   string `json:"custom_end"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	h.transitionFast(c, "selectFastingPlan", func(s fastingState) (fastingState, error) {
		return selectPlan(s, body.Plan, body.CustomStart, body.CustomEnd)
	})
}

// startFasting starts or resumes the countdown.
// POST /api/fasting/start.
func (h *Handler) startFasting(c *gin.Context) {
	h.transitionFast(c, "startFasting", func(s fastingState) (fastingState, error) {
		return startFast(s, h.clock())
	})
}

// pauseFasting freezes the countdown.
// POST /api/fasting/pause.
func (h *Handler) pauseFasting(c *gin.Context) {
	h.transitionFast(c, "pauseFasting", func(s fastingState) (fastingState, error) {
		return pauseFast(s, h.clock())
	})
}

// resetFasting returns the current plan to its full duration.
// POST /api/fasting/reset.
func (h *Handler) resetFasting(c *gin.Context) {
	h.transitionFast(c, "resetFasting", func(s fastingState) (fastingState, error) {
		return resetFast(s), nil
	})
}

// customFastDuration reports the window between two HH:MM times, rolling an
// earlier end over to the next day.
// POST /api/fasting/custom-duration (public — no auth required).
func (h *Handler) customFastDuration(c *gin.Context) {
	var body struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	d, err := computeCustomDuration(body.Start, body.End)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"seconds": int64(d / time.Second), "hours": d.Hours()})
}
