package main

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

/* ─── Summary cache ──────────────────────────────────────────────────── */

func (r summaryRow) totals() nutrientTotals {
	return nutrientTotals{
		Calories:       r.Calories,
		ProteinG:       r.ProteinG,
		CarbsG:         r.CarbsG,
		FatsG:          r.FatsG,
		FiberG:         r.FiberG,
		CaloriesBurned: r.CaloriesBurned,
	}
}

// sameTotals compares with a small tolerance; the cache is a running float sum.
func sameTotals(a, b nutrientTotals) bool {
	d := a.sub(b)
	for _, v := range []float64{d.Calories, d.ProteinG, d.CarbsG, d.FatsG, d.FiberG, d.CaloriesBurned} {
		if math.Abs(v) > 1e-6 {
			return false
		}
	}
	return true
}

// writeSummary stores absolute totals for one user's day.
func writeSummary(ctx context.Context, q querier, userID int, day string, t nutrientTotals) error {
	rows, err := q.Query(ctx,
		`INSERT INTO daily_summaries (user_id, day, calories, protein_g, carbs_g, fats_g, fiber_g, calories_burned)
		 VALUES (@userID, @day, @calories, @proteinG, @carbsG, @fatsG, @fiberG, @caloriesBurned)
		 ON CONFLICT (user_id, day) DO UPDATE SET
			calories = EXCLUDED.calories,
			protein_g = EXCLUDED.protein_g,
			carbs_g = EXCLUDED.carbs_g,
			fats_g = EXCLUDED.fats_g,
			fiber_g = EXCLUDED.fiber_g,
			calories_burned = EXCLUDED.calories_burned`,
		pgx.NamedArgs{
			"userID": userID, "day": day,
			"calories": t.Calories, "proteinG": t.ProteinG, "carbsG": t.CarbsG,
			"fatsG": t.FatsG, "fiberG": t.FiberG, "caloriesBurned": t.CaloriesBurned,
		})
	if err != nil {
		return err
	}
	rows.Close()
	return rows.Err()
}

// summaryTx is the part of pgx.Tx that applySummaryDelta needs.
type summaryTx interface {
	querier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// applySummaryDelta folds one log mutation into the cached summary for its day.
// Must run in the same transaction as the mutation so the cache never
// reflects a write that rolled back.
func applySummaryDelta(ctx context.Context, tx summaryTx, userID int, d summaryDelta) error {
	args := pgx.NamedArgs{"userID": userID, "day": d.Day}
	// Create the row before locking it: concurrent first writes to a day then
	// queue on the same row lock instead of each starting from zero.
	if _, err := tx.Exec(ctx,
		`INSERT INTO daily_summaries (user_id, day) VALUES (@userID, @day)
		 ON CONFLICT (user_id, day) DO NOTHING`, args); err != nil {
		return err
	}
	row, err := queryOne[summaryRow](tx, ctx,
		"SELECT * FROM daily_summaries WHERE user_id = @userID AND day = @day FOR UPDATE", args)
	if err != nil {
		return err
	}
	s := applyDelta(daySummary{Date: d.Day, Consumed: row.totals()}, d.Totals)
	return writeSummary(ctx, tx, userID, d.Day, s.Consumed)
}

/* ─── Loading ────────────────────────────────────────────────────────── */

// loadLogs returns the meals and activities stamped on days first..last inclusive.
func (h *Handler) loadLogs(c *gin.Context, userID int, first, last string) ([]mealLog, []activityLog, error) {
	args := pgx.NamedArgs{"userID": userID, "first": first, "last": last}
	meals, err := queryMany[mealLog](h.db, c,
		`SELECT * FROM meal_logs
		 WHERE user_id = @userID AND day >= @first AND day <= @last
		 ORDER BY created_at`, args)
	if err != nil {
		return nil, nil, err
	}
	activities, err := queryMany[activityLog](h.db, c,
		`SELECT * FROM activity_logs
		 WHERE user_id = @userID AND day >= @first AND day <= @last
		 ORDER BY created_at`, args)
	if err != nil {
		return nil, nil, err
	}
	// Ensure empty arrays (not null) in JSON
	if meals == nil {
		meals = []mealLog{}
	}
	if activities == nil {
		activities = []activityLog{}
	}
	return meals, activities, nil
}

// loadGoal returns the cached goal on the user's profile, or a zero goal when
// no profile exists yet (progress then reads 0%).
func (h *Handler) loadGoal(c *gin.Context, userID int) (dailyGoal, error) {
	p, err := queryOne[profile](h.db, c,
		"SELECT * FROM profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if errors.Is(err, pgx.ErrNoRows) {
		return dailyGoal{}, nil
	}
	if err != nil {
		return dailyGoal{}, err
	}
	return cachedGoal(&p), nil
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// dailyResponse is the response shape for GET /api/daily.
type dailyResponse struct {
	Summary    daySummary    `json:"summary"`
	Meals      []mealLog     `json:"meals"`
	Activities []activityLog `json:"activities"`
}

// getDailySummary recomputes the day's totals from its logs, which are the
// source of truth, and rewrites the cached summary if it has drifted.
// GET /api/daily?date=YYYY-MM-DD&tz=Area/City (date defaults to today in tz).
func (h *Handler) getDailySummary(c *gin.Context) {
	userID := c.GetInt("user_id")
	loc, err := h.requestLocation(c)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid tz")
		return
	}
	date := c.DefaultQuery("date", dayKey(h.clock(), loc))

	// Validate date format before querying — an invalid value silently returns no rows.
	if _, _, err := dayBounds(date, loc); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	meals, activities, err := h.loadLogs(c, userID, date, date)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch logs")
		return
	}
	goal, err := h.loadGoal(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}

	summary := aggregateDay(date, loc, meals, activities, goal)

	cached, err := queryOne[summaryRow](h.db, c,
		"SELECT * FROM daily_summaries WHERE user_id = @userID AND day = @day",
		pgx.NamedArgs{"userID": userID, "day": date})
	switch {
	case err != nil && !errors.Is(err, pgx.ErrNoRows):
		log.Printf("[getDailySummary] cache read failed for user %d: %v", userID, err)
	case !sameTotals(cached.totals(), summary.Consumed):
		log.Printf("[getDailySummary] cache drift for user %d on %s, rewriting", userID, date)
		if err := writeSummary(c, h.db, userID, date, summary.Consumed); err != nil {
			log.Printf("[getDailySummary] cache rewrite failed for user %d: %v", userID, err)
		} else {
			recordSummaryDrift()
		}
	}

	c.JSON(http.StatusOK, dailyResponse{Summary: summary, Meals: meals, Activities: activities})
}

// currentMonday returns the Monday of the week containing now, at local
// midnight in loc. Uses AddDate to safely handle month/year boundaries.
func currentMonday(now time.Time, loc *time.Location) time.Time {
	now = now.In(loc)
	weekday := int(now.Weekday()) // 0=Sun
	if weekday == 0 {
		weekday = 7 // treat Sunday as day 7 so Mon=1..Sun=7
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return midnight.AddDate(0, 0, -(weekday - 1))
}

// getWeekSummary returns one summary per day for the Mon–Sun week starting at
// week_start. Logs are fetched for the whole week once and folded per day.
// GET /api/week-summary?week_start=YYYY-MM-DD&tz=Area/City (defaults to current week).
func (h *Handler) getWeekSummary(c *gin.Context) {
	userID := c.GetInt("user_id")
	loc, err := h.requestLocation(c)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid tz")
		return
	}

	var weekStart time.Time
	if s := c.Query("week_start"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, loc)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid week_start, expected YYYY-MM-DD")
			return
		}
		weekStart = t
	} else {
		weekStart = currentMonday(h.clock(), loc)
	}
	first, last := dayKey(weekStart, loc), dayKey(weekStart.AddDate(0, 0, 6), loc)

	meals, activities, err := h.loadLogs(c, userID, first, last)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch week data")
		return
	}
	goal, err := h.loadGoal(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}

	result := make([]daySummary, 7)
	for i := range result {
		day := dayKey(weekStart.AddDate(0, 0, i), loc)
		result[i] = aggregateDay(day, loc, meals, activities, goal)
	}
	c.JSON(http.StatusOK, result)
}
