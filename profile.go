package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

const upsertProfileSQL = `INSERT INTO profiles
	(user_id, height_cm, weight_kg, age, gender, activity_level, goal, build_muscle, target_weight_kg,
	 daily_calories, protein_g, carbs_g, fats_g, fiber_g)
 VALUES (@userID, @heightCM, @weightKG, @age, @gender, @activityLevel, @goal, @buildMuscle, @targetWeightKG,
	 @dailyCalories, @proteinG, @carbsG, @fatsG, @fiberG)
 ON CONFLICT (user_id) DO UPDATE SET
	height_cm = EXCLUDED.height_cm,
	weight_kg = EXCLUDED.weight_kg,
	age = EXCLUDED.age,
	gender = EXCLUDED.gender,
	activity_level = EXCLUDED.activity_level,
	goal = EXCLUDED.goal,
	build_muscle = EXCLUDED.build_muscle,
	target_weight_kg = EXCLUDED.target_weight_kg,
	daily_calories = EXCLUDED.daily_calories,
	protein_g = EXCLUDED.protein_g,
	carbs_g = EXCLUDED.carbs_g,
	fats_g = EXCLUDED.fats_g,
	fiber_g = EXCLUDED.fiber_g,
	updated_at = now()
 RETURNING *`

// profileArgs binds every column of p for upsertProfileSQL, cached goal included.
func profileArgs(p *profile) pgx.NamedArgs {
	return pgx.NamedArgs{
		"userID": p.UserID, "heightCM": p.HeightCM, "weightKG": p.WeightKG,
		"age": p.Age, "gender": p.Gender, "activityLevel": p.ActivityLevel,
		"goal": p.Goal, "buildMuscle": p.BuildMuscle, "targetWeightKG": p.TargetWeightKG,
		"dailyCalories": p.DailyCalories, "proteinG": p.ProteinG, "carbsG": p.CarbsG,
		"fatsG": p.FatsG, "fiberG": p.FiberG,
	}
}

// refreshGoal validates p and recomputes its cached goal, so a stored profile
// never carries targets computed from inputs it no longer has.
func refreshGoal(p *profile) (dailyGoal, error) {
	goal, err := computeDailyGoal(p)
	if err != nil {
		return dailyGoal{}, err
	}
	applyDailyGoal(p, goal)
	return goal, nil
}

// saveProfile recomputes the cached goal and upserts p.
func (h *Handler) saveProfile(ctx context.Context, p *profile) (profile, dailyGoal, error) {
	goal, err := refreshGoal(p)
	if err != nil {
		return profile{}, dailyGoal{}, err
	}
	saved, err := queryOne[profile](h.db, ctx, upsertProfileSQL, profileArgs(p))
	if err != nil {
		return profile{}, dailyGoal{}, err
	}
	return saved, goal, nil
}

// mergeProfilePatch copies the provided fields onto p. Reports whether any
// field was provided.
func mergeProfilePatch(p *profile, body patchProfileRequest) bool {
	changed := false
	if body.HeightCM != nil {
		p.HeightCM, changed = *body.HeightCM, true
	}
	if body.WeightKG != nil {
		p.WeightKG, changed = *body.WeightKG, true
	}
	if body.Age != nil {
		p.Age, changed = *body.Age, true
	}
	if body.Gender != nil {
		p.Gender, changed = *body.Gender, true
	}
	if body.ActivityLevel != nil {
		p.ActivityLevel, changed = *body.ActivityLevel, true
	}
	if body.Goal != nil {
		p.Goal, changed = *body.Goal, true
	}
	if body.BuildMuscle != nil {
		p.BuildMuscle, changed = *body.BuildMuscle, true
	}
	if body.TargetWeightKG != nil {
		p.TargetWeightKG, changed = body.TargetWeightKG, true
	}
	return changed
}

// metricsReport is everything the calculator derives from one profile.
type metricsReport struct {
	BMR  int         `json:"bmr"`
	Body bodyMetrics `json:"body"`
	Goal dailyGoal   `json:"goal"`
}

// buildMetricsReport runs every calculation on p, surfacing the first error.
func buildMetricsReport(p *profile) (metricsReport, error) {
	goal, err := computeDailyGoal(p)
	if err != nil {
		return metricsReport{}, err
	}
	bmr, err := computeBMR(p)
	if err != nil {
		return metricsReport{}, err
	}
	body, err := computeBodyMetrics(p)
	if err != nil {
		return metricsReport{}, err
	}
	return metricsReport{BMR: bmr, Body: body, Goal: goal}, nil
}

func (r profileRequest) toProfile(userID int) profile {
	return profile{
		UserID:         userID,
		HeightCM:       r.HeightCM,
		WeightKG:       r.WeightKG,
		Age:            r.Age,
		Gender:         r.Gender,
		ActivityLevel:  r.ActivityLevel,
		Goal:           r.Goal,
		BuildMuscle:    r.BuildMuscle,
		TargetWeightKG: r.TargetWeightKG,
	}
}

// profileErrorStatus maps validation failures to 400 and everything else to 500.
func profileErrorStatus(c *gin.Context, err error, fallback string) {
	var invalid *InvalidProfileError
	if errors.As(err, &invalid) {
		apiError(c, http.StatusBadRequest, invalid.Error())
		return
	}
	apiError(c, http.StatusInternalServerError, fallback)
}

// loadProfile fetches the caller's profile, answering 404/500 itself when it
// can't. ok=false means a response has already been written.
func (h *Handler) loadProfile(c *gin.Context) (profile, bool) {
	userID := c.GetInt("user_id")
	p, err := queryOne[profile](h.db, c,
		"SELECT * FROM profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "profile not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		}
		return profile{}, false
	}
	return p, true
}

// getProfile returns the authenticated user's profile, including the cached
// goal fields.
// GET /api/profile.
func (h *Handler) getProfile(c *gin.Context) {
	p, ok := h.loadProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

// putProfile creates or replaces the profile and recomputes its cached goal.
// The whole profile is validated before it reaches the store; invalid enums
// are rejected, never defaulted.
// PUT /api/profile.
func (h *Handler) putProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body profileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	p := body.toProfile(userID)
	if err := validateProfile(&p); err != nil {
		profileErrorStatus(c, err, "")
		return
	}

	saved, goal, err := h.saveProfile(c, &p)
	if err != nil {
		log.Printf("[putProfile] failed for user %d: %v", userID, err)
		profileErrorStatus(c, err, "failed to save profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": saved, "goal": goal})
}

// patchProfile merges only the provided fields into the stored profile,
// re-validates the result and recomputes the cached goal. Uses pointer fields
// in the request body to distinguish "not provided" from zero.
// PATCH /api/profile.
func (h *Handler) patchProfile(c *gin.Context) {
	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	p, ok := h.loadProfile(c)
	if !ok {
		return
	}

	if !mergeProfilePatch(&p, body) {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	// Validate the merged profile, not just the patch: switching goal to
	// "lose" without a stored target weight must fail here.
	if err := validateProfile(&p); err != nil {
		profileErrorStatus(c, err, "")
		return
	}

	saved, goal, err := h.saveProfile(c, &p)
	if err != nil {
		log.Printf("[patchProfile] failed for user %d: %v", p.UserID, err)
		profileErrorStatus(c, err, "failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": saved, "goal": goal})
}

// getProfileMetrics returns BMR and body metrics for the stored profile.
// GET /api/profile/metrics.
func (h *Handler) getProfileMetrics(c *gin.Context) {
	p, ok := h.loadProfile(c)
	if !ok {
		return
	}
	bmr, err := computeBMR(&p)
	if err != nil {
		profileErrorStatus(c, err, "failed to compute metrics")
		return
	}
	body, err := computeBodyMetrics(&p)
	if err != nil {
		profileErrorStatus(c, err, "failed to compute metrics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bmr": bmr, "body": body})
}

// computeProfileGoal recomputes the daily goal from the stored profile and
// writes the targets back onto it. Warnings are returned alongside; they do
// not block the save.
// POST /api/profile/goal.
func (h *Handler) computeProfileGoal(c *gin.Context) {
	p, ok := h.loadProfile(c)
	if !ok {
		return
	}
	saved, goal, err := h.saveProfile(c, &p)
	if err != nil {
		log.Printf("[computeProfileGoal] failed for user %d: %v", p.UserID, err)
		profileErrorStatus(c, err, "failed to save goal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": saved, "goal": goal})
}

// previewMetrics computes everything for a profile supplied in the body
// without storing it. Used by the onboarding form before the first save.
// POST /api/metrics/preview (public — no auth required).
func (h *Handler) previewMetrics(c *gin.Context) {
	var body profileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	p := body.toProfile(0)

	report, err := buildMetricsReport(&p)
	if err != nil {
		profileErrorStatus(c, err, "failed to compute metrics")
		return
	}
	c.JSON(http.StatusOK, report)
}
