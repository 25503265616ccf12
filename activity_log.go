package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// createActivity inserts an activity and adds its burned calories to the day.
// POST /api/activities?tz=Area/City.
func (h *Handler) createActivity(c *gin.Context) {
	userID := c.GetInt("user_id")
	loc, err := h.requestLocation(c)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid tz")
		return
	}

	var body createActivityRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.ActivityName == "" {
		apiError(c, http.StatusBadRequest, "activity_name is required")
		return
	}
	if body.CaloriesBurned < 0 {
		apiError(c, http.StatusBadRequest, "calories_burned must not be negative")
		return
	}
	createdAt := h.clock()
	if body.CreatedAt != nil {
		createdAt = *body.CreatedAt
	}

	var activity activityLog
	err = pgx.BeginFunc(c, h.db, func(tx pgx.Tx) error {
		var err error
		activity, err = queryOne[activityLog](tx, c,
			`INSERT INTO activity_logs (user_id, activity_name, duration, description, calories_burned, created_at, day)
			 VALUES (@userID, @activityName, @duration, @description, @caloriesBurned, @createdAt, @day)
			 RETURNING *`,
			pgx.NamedArgs{
				"userID": userID, "activityName": body.ActivityName, "duration": body.Duration,
				"description": body.Description, "caloriesBurned": body.CaloriesBurned,
				"createdAt": createdAt, "day": stampDay(createdAt, loc).Format("2006-01-02"),
			})
		if err != nil {
			return err
		}
		return applySummaryDelta(c, tx, userID, activityDelta(nil, &activity))
	})
	if err != nil {
		log.Printf("[createActivity] failed for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to create activity")
		return
	}

	c.JSON(http.StatusCreated, activity)
}

// updateActivity edits an activity and applies (new - old) burned calories.
// PUT /api/activities/:id.
func (h *Handler) updateActivity(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	var body struct {
		ActivityName   *string  `json:"activity_name"`
		Duration       *string  `json:"duration"`
		Description    *string  `json:"description"`
		CaloriesBurned *float64 `json:"calories_burned"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.CaloriesBurned != nil && *body.CaloriesBurned < 0 {
		apiError(c, http.StatusBadRequest, "calories_burned must not be negative")
		return
	}

	var activity activityLog
	err := pgx.BeginFunc(c, h.db, func(tx pgx.Tx) error {
		old, err := queryOne[activityLog](tx, c,
			"SELECT * FROM activity_logs WHERE id = @id AND user_id = @userID FOR UPDATE",
			pgx.NamedArgs{"id": id, "userID": userID})
		if err != nil {
			return err
		}
		activity, err = queryOne[activityLog](tx, c,
			`UPDATE activity_logs SET
				activity_name = COALESCE(@activityName, activity_name),
				duration = COALESCE(@duration, duration),
				description = COALESCE(@description, description),
				calories_burned = COALESCE(@caloriesBurned, calories_burned),
				updated_at = now()
			 WHERE id = @id AND user_id = @userID
			 RETURNING *`,
			pgx.NamedArgs{
				"id": id, "userID": userID,
				"activityName": body.ActivityName, "duration": body.Duration,
				"description": body.Description, "caloriesBurned": body.CaloriesBurned,
			})
		if err != nil {
			return err
		}
		return applySummaryDelta(c, tx, userID, activityDelta(&old, &activity))
	})
	if err != nil {
		writeMutationError(c, "updateActivity", userID, err, "activity not found", "failed to update activity")
		return
	}

	c.JSON(http.StatusOK, activity)
}

// deleteActivity removes an activity and subtracts its burned calories.
// DELETE /api/activities/:id. Returns 204 on success.
func (h *Handler) deleteActivity(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	err := pgx.BeginFunc(c, h.db, func(tx pgx.Tx) error {
		old, err := queryOne[activityLog](tx, c,
			"DELETE FROM activity_logs WHERE id = @id AND user_id = @userID RETURNING *",
			pgx.NamedArgs{"id": id, "userID": userID})
		if err != nil {
			return err
		}
		return applySummaryDelta(c, tx, userID, activityDelta(&old, nil))
	})
	if err != nil {
		writeMutationError(c, "deleteActivity", userID, err, "activity not found", "failed to delete activity")
		return
	}

	c.Status(http.StatusNoContent)
}
