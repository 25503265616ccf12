package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// validMealTypes is the set of allowed values for the meal_type enum.
// Reject unknown values with 400 rather than letting the DB return a cryptic 500.
var validMealTypes = map[string]bool{
	"breakfast":    true,
	"morningSnack": true,
	"lunch":        true,
	"eveningSnack": true,
	"dinner":       true,
}

// validateMealNumbers rejects negative macro estimates.
func validateMealNumbers(vals ...float64) bool {
	for _, v := range vals {
		if v < 0 {
			return false
		}
	}
	return true
}

// createMeal inserts a meal and adds its contribution to the day's summary.
// POST /api/meals?tz=Area/City. created_at defaults to now; the meal's day is
// created_at in tz and stays fixed for later edits and deletes.
func (h *Handler) createMeal(c *gin.Context) {
	userID := c.GetInt("user_id")
	loc, err := h.requestLocation(c)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid tz")
		return
	}

	var body createMealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.MealName == "" {
		apiError(c, http.StatusBadRequest, "meal_name is required")
		return
	}
	if !validMealTypes[body.MealType] {
		apiError(c, http.StatusBadRequest, "meal_type must be one of: breakfast, morningSnack, lunch, eveningSnack, dinner")
		return
	}
	if !validateMealNumbers(body.Calories, body.ProteinG, body.CarbsG, body.FatsG, body.FiberG) {
		apiError(c, http.StatusBadRequest, "calories and macros must not be negative")
		return
	}
	createdAt := h.clock()
	if body.CreatedAt != nil {
		createdAt = *body.CreatedAt
	}

	var meal mealLog
	err = pgx.BeginFunc(c, h.db, func(tx pgx.Tx) error {
		var err error
		meal, err = queryOne[mealLog](tx, c,
			`INSERT INTO meal_logs (user_id, meal_type, meal_name, quantity, description,
				calories, protein_g, carbs_g, fats_g, fiber_g, created_at, day)
			 VALUES (@userID, @mealType, @mealName, @quantity, @description,
				@calories, @proteinG, @carbsG, @fatsG, @fiberG, @createdAt, @day)
			 RETURNING *`,
			pgx.NamedArgs{
				"userID": userID, "mealType": body.MealType, "mealName": body.MealName,
				"quantity": body.Quantity, "description": body.Description,
				"calories": body.Calories, "proteinG": body.ProteinG, "carbsG": body.CarbsG,
				"fatsG": body.FatsG, "fiberG": body.FiberG, "createdAt": createdAt,
				"day": stampDay(createdAt, loc).Format("2006-01-02"),
			})
		if err != nil {
			return err
		}
		return applySummaryDelta(c, tx, userID, mealDelta(nil, &meal))
	})
	if err != nil {
		log.Printf("[createMeal] failed for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to create meal")
		return
	}

	c.JSON(http.StatusCreated, meal)
}

// updateMeal edits a meal in place and applies (new - old) to its day.
// PUT /api/meals/:id. Omitted fields keep their current value; created_at
// and day are fixed, so the meal never moves to another day.
func (h *Handler) updateMeal(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	var body struct {
		MealType    *string  `json:"meal_type"`
		MealName    *string  `json:"meal_name"`
		Quantity    *string  `json:"quantity"`
		Description *string  `json:"description"`
		Calories    *float64 `json:"calories"`
		ProteinG    *float64 `json:"protein_g"`
		CarbsG      *float64 `json:"carbs_g"`
		FatsG       *float64 `json:"fats_g"`
		FiberG      *float64 `json:"fiber_g"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.MealType != nil && !validMealTypes[*body.MealType] {
		apiError(c, http.StatusBadRequest, "meal_type must be one of: breakfast, morningSnack, lunch, eveningSnack, dinner")
		return
	}
	for _, v := range []*float64{body.Calories, body.ProteinG, body.CarbsG, body.FatsG, body.FiberG} {
		if v != nil && *v < 0 {
			apiError(c, http.StatusBadRequest, "calories and macros must not be negative")
			return
		}
	}

	var meal mealLog
	err := pgx.BeginFunc(c, h.db, func(tx pgx.Tx) error {
		old, err := queryOne[mealLog](tx, c,
			"SELECT * FROM meal_logs WHERE id = @id AND user_id = @userID FOR UPDATE",
			pgx.NamedArgs{"id": id, "userID": userID})
		if err != nil {
			return err
		}
		meal, err = queryOne[mealLog](tx, c,
			`UPDATE meal_logs SET
				meal_type = COALESCE(@mealType, meal_type),
				meal_name = COALESCE(@mealName, meal_name),
				quantity = COALESCE(@quantity, quantity),
				description = COALESCE(@description, description),
				calories = COALESCE(@calories, calories),
				protein_g = COALESCE(@proteinG, protein_g),
				carbs_g = COALESCE(@carbsG, carbs_g),
				fats_g = COALESCE(@fatsG, fats_g),
				fiber_g = COALESCE(@fiberG, fiber_g),
				updated_at = now()
			 WHERE id = @id AND user_id = @userID
			 RETURNING *`,
			pgx.NamedArgs{
				"id": id, "userID": userID,
				"mealType": body.MealType, "mealName": body.MealName, "quantity": body.Quantity,
				"description": body.Description, "calories": body.Calories,
				"proteinG": body.ProteinG, "carbsG": body.CarbsG, "fatsG": body.FatsG, "fiberG": body.FiberG,
			})
		if err != nil {
			return err
		}
		return applySummaryDelta(c, tx, userID, mealDelta(&old, &meal))
	})
	if err != nil {
		writeMutationError(c, "updateMeal", userID, err, "meal not found", "failed to update meal")
		return
	}

	c.JSON(http.StatusOK, meal)
}

// deleteMeal removes a meal and subtracts its contribution. Returns 204 on success.
// DELETE /api/meals/:id.
func (h *Handler) deleteMeal(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	err := pgx.BeginFunc(c, h.db, func(tx pgx.Tx) error {
		old, err := queryOne[mealLog](tx, c,
			"DELETE FROM meal_logs WHERE id = @id AND user_id = @userID RETURNING *",
			pgx.NamedArgs{"id": id, "userID": userID})
		if err != nil {
			return err
		}
		return applySummaryDelta(c, tx, userID, mealDelta(&old, nil))
	})
	if err != nil {
		writeMutationError(c, "deleteMeal", userID, err, "meal not found", "failed to delete meal")
		return
	}

	c.Status(http.StatusNoContent)
}

// writeMutationError distinguishes a missing row from a real DB failure so
// callers get an actionable status code rather than a misleading 404.
func writeMutationError(c *gin.Context, op string, userID int, err error, notFound, failed string) {
	if errors.Is(err, pgx.ErrNoRows) {
		apiError(c, http.StatusNotFound, notFound)
		return
	}
	log.Printf("[%s] failed for user %d: %v", op, userID, err)
	apiError(c, http.StatusInternalServerError, failed)
}
