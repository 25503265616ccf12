package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

const maxWeightKG = 999.9

// parseDateRange reads required ?start= and ?end= params. ok=false means a
// 400 has already been written.
func parseDateRange(c *gin.Context) (start, end string, ok bool) {
	start, end = c.Query("start"), c.Query("end")
	if start == "" || end == "" {
		apiError(c, http.StatusBadRequest, "start and end query params are required")
		return "", "", false
	}
	for name, v := range map[string]string{"start": start, "end": end} {
		if _, err := time.Parse("2006-01-02", v); err != nil {
			apiError(c, http.StatusBadRequest, "invalid "+name+", expected YYYY-MM-DD")
			return "", "", false
		}
	}
	if start > end {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return "", "", false
	}
	return start, end, true
}

func validWeight(kg float64) bool {
	return kg > 0 && kg <= maxWeightKG
}

// syncProfileWeight copies the newest weigh-in onto the profile and
// recomputes the cached goal from it. No-op when the user has no profile, no
// entries, or the weight is unchanged. Failures are logged, not returned: the
// weight entry itself was saved.
func (h *Handler) syncProfileWeight(c *gin.Context, userID int) {
	var latest float64
	err := h.db.QueryRow(c,
		"SELECT weight_kg FROM weight_log WHERE user_id = $1 ORDER BY date DESC LIMIT 1",
		userID).Scan(&latest)
	if errors.Is(err, pgx.ErrNoRows) {
		return
	}
	if err != nil {
		log.Printf("[syncProfileWeight] latest entry lookup failed for user %d: %v", userID, err)
		return
	}

	p, err := queryOne[profile](h.db, c,
		"SELECT * FROM profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if errors.Is(err, pgx.ErrNoRows) {
		return
	}
	if err != nil {
		log.Printf("[syncProfileWeight] profile lookup failed for user %d: %v", userID, err)
		return
	}
	if !withLatestWeight(&p, latest) {
		return
	}
	if _, _, err := h.saveProfile(c, &p); err != nil {
		log.Printf("[syncProfileWeight] failed for user %d: %v", userID, err)
	}
}

// withLatestWeight sets p's weight to kg. Reports whether it changed.
func withLatestWeight(p *profile, kg float64) bool {
	if p.WeightKG == kg {
		return false
	}
	p.WeightKG = kg
	return true
}

// getWeightLog returns weight entries for the authenticated user within [start, end].
// GET /api/weight-log?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
// Returns an empty array (not null) if no entries exist in the range.
func (h *Handler) getWeightLog(c *gin.Context) {
	userID := c.GetInt("user_id")
	start, end, ok := parseDateRange(c)
	if !ok {
		return
	}

	entries, err := queryMany[weightEntry](h.db, c,
		`SELECT * FROM weight_log
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch weight log")
		return
	}
	if entries == nil {
		entries = []weightEntry{}
	}

	c.JSON(http.StatusOK, entries)
}

// upsertWeightEntry records the weight for a date, replacing any entry already
// on that date, and refreshes the profile weight if this is now the newest.
// POST /api/weight-log. Body: { "date": "YYYY-MM-DD", "weight_kg": 84.2 }.
func (h *Handler) upsertWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body struct {
		Date     string  `json:"date"`
		WeightKG float64 `json:"weight_kg"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := time.Parse("2006-01-02", body.Date); err != nil {
		apiError(c, http.StatusBadRequest, "date is required as YYYY-MM-DD")
		return
	}
	if !validWeight(body.WeightKG) {
		apiError(c, http.StatusBadRequest, "weight_kg must be between 0 and 999.9")
		return
	}

	entry, err := queryOne[weightEntry](h.db, c,
		`INSERT INTO weight_log (user_id, date, weight_kg)
		 VALUES (@userID, @date, @weightKG)
		 ON CONFLICT (user_id, date) DO UPDATE SET weight_kg = EXCLUDED.weight_kg
		 RETURNING *`,
		pgx.NamedArgs{"userID": userID, "date": body.Date, "weightKG": body.WeightKG})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to save weight entry")
		return
	}
	h.syncProfileWeight(c, userID)

	c.JSON(http.StatusCreated, entry)
}

// updateWeightEntry partially updates an existing weight entry.
// PUT /api/weight-log/:id. Body: { "date"?, "weight_kg"? }.
func (h *Handler) updateWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	var body struct {
		Date     *string  `json:"date"`
		WeightKG *float64 `json:"weight_kg"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date != nil {
		if _, err := time.Parse("2006-01-02", *body.Date); err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
	}
	if body.WeightKG != nil && !validWeight(*body.WeightKG) {
		apiError(c, http.StatusBadRequest, "weight_kg must be between 0 and 999.9")
		return
	}

	entry, err := queryOne[weightEntry](h.db, c,
		`UPDATE weight_log SET
			date      = COALESCE(@date, date),
			weight_kg = COALESCE(@weightKG, weight_kg)
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{"id": id, "userID": userID, "date": body.Date, "weightKG": body.WeightKG})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "weight entry not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to update weight entry")
		}
		return
	}
	h.syncProfileWeight(c, userID)

	c.JSON(http.StatusOK, entry)
}

// deleteWeightEntry removes a weight log entry by ID. The profile falls back
// to the next-newest entry, if any.
// DELETE /api/weight-log/:id. Returns 204 on success, 404 if not found.
func (h *Handler) deleteWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	result, err := h.db.Exec(c,
		"DELETE FROM weight_log WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete weight entry")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "weight entry not found")
		return
	}
	h.syncProfileWeight(c, userID)

	c.Status(http.StatusNoContent)
}
