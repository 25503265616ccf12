package main

import (
	"fmt"
	"math"
)

// activityMultipliers maps activity level strings to their TDEE multiplier.
// This is the single source of truth for valid activity levels — also used for
// input validation in validateProfile.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// activityProteinIncrement is added to the base g/kg protein multiplier.
var activityProteinIncrement = map[string]float64{
	"sedentary":   0.0,
	"light":       0.1,
	"moderate":    0.2,
	"active":      0.3,
	"very_active": 0.4,
}

// goalAdjustment is the kcal/day offset applied to TDEE, keyed by goal and
// whether the user is also trying to build muscle.
var goalAdjustment = map[string]map[bool]float64{
	"lose":     {false: -500, true: -300},
	"maintain": {false: 0, true: 250},
	"gain":     {false: 500, true: 500},
}

var validGenders = map[string]bool{"male": true, "female": true}

const (
	fatCalorieShare = 0.25
	fiberPer1000    = 14.0
)

/* ─── Errors and warnings ────────────────────────────────────────────── */

// InvalidProfileError reports a profile that cannot be computed on. It is
// always surfaced to the caller; nothing is silently defaulted.
type InvalidProfileError struct {
	Field  string
	Reason string
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("invalid profile: %s %s", e.Field, e.Reason)
}

// ComputationWarning flags a non-fatal anomaly in a computed result. The caller
// decides whether to block a save or only show a caveat.
type ComputationWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	warnNegativeCarbs    = "negative_carbs"
	warnNegativeCalories = "negative_calories"
)

/* ─── Result types ───────────────────────────────────────────────────── */

// bodyMetrics is the display set derived from height, weight, age and gender.
// BodyFatPercent is a Deurenberg estimate, not a measurement.
type bodyMetrics struct {
	BMI              float64    `json:"bmi"`
	BMICategory      string     `json:"bmi_category"`
	IdealWeightRange [2]float64 `json:"ideal_weight_range"`
	BodyFatPercent   float64    `json:"body_fat_percent"`
}

// dailyGoal is the per-day calorie and macro target. Grams are never negative;
// DailyCalories is surfaced raw even when a tiny TDEE pushes it below zero.
type dailyGoal struct {
	DailyCalories int                  `json:"daily_calories"`
	ProteinG      int                  `json:"protein_g"`
	CarbsG        int                  `json:"carbs_g"`
	FatsG         int                  `json:"fats_g"`
	FiberG        int                  `json:"fiber_g"`
	Warnings      []ComputationWarning `json:"warnings"`
}

/* ─── Validation ─────────────────────────────────────────────────────── */

// validateBody checks the fields every formula needs.
func validateBody(p *profile) error {
	if p.HeightCM <= 0 {
		return &InvalidProfileError{Field: "height_cm", Reason: "must be positive"}
	}
	if p.WeightKG <= 0 {
		return &InvalidProfileError{Field: "weight_kg", Reason: "must be positive"}
	}
	if p.Age < 1 {
		return &InvalidProfileError{Field: "age", Reason: "must be at least 1"}
	}
	if !validGenders[p.Gender] {
		return &InvalidProfileError{Field: "gender", Reason: "must be one of: male, female"}
	}
	return nil
}

// validateProfile enforces the full profile invariant: body fields, both
// enums, and a target weight whenever the goal moves the weight.
func validateProfile(p *profile) error {
	if err := validateBody(p); err != nil {
		return err
	}
	if _, ok := activityMultipliers[p.ActivityLevel]; !ok {
		return &InvalidProfileError{Field: "activity_level", Reason: "must be one of: sedentary, light, moderate, active, very_active"}
	}
	if _, ok := goalAdjustment[p.Goal]; !ok {
		return &InvalidProfileError{Field: "goal", Reason: "must be one of: lose, maintain, gain"}
	}
	if p.Goal != "maintain" {
		if p.TargetWeightKG == nil {
			return &InvalidProfileError{Field: "target_weight_kg", Reason: "is required when goal is " + p.Goal}
		}
		if *p.TargetWeightKG <= 0 {
			return &InvalidProfileError{Field: "target_weight_kg", Reason: "must be positive"}
		}
	}
	return nil
}

/* ─── Calculator ─────────────────────────────────────────────────────── */

// computeBMR returns the Mifflin-St Jeor basal metabolic rate in kcal/day,
// rounded to the nearest integer.
func computeBMR(p *profile) (int, error) {
	if err := validateBody(p); err != nil {
		return 0, err
	}
	bmr := 10*p.WeightKG + 6.25*p.HeightCM - 5*float64(p.Age)
	if p.Gender == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}
	return int(math.Round(bmr)), nil
}

// computeBodyMetrics derives BMI, its category, the healthy weight range for
// the user's height, and an estimated body-fat percentage.
func computeBodyMetrics(p *profile) (bodyMetrics, error) {
	if err := validateBody(p); err != nil {
		return bodyMetrics{}, err
	}
	h := p.HeightCM / 100
	rawBMI := p.WeightKG / (h * h)
	bmi := round1(rawBMI)

	fat := 1.2*rawBMI + 0.23*float64(p.Age)
	if p.Gender == "male" {
		fat -= 16.2
	} else {
		fat -= 5.4
	}

	return bodyMetrics{
		BMI:              bmi,
		BMICategory:      bmiCategory(bmi),
		IdealWeightRange: [2]float64{round1(18.5 * h * h), round1(24.9 * h * h)},
		BodyFatPercent:   round1(fat),
	}, nil
}

// bmiCategory buckets a one-decimal BMI. Lower bounds are inclusive.
func bmiCategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal weight"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obesity"
	}
}

// computeDailyGoal turns a validated profile into calorie and macro targets.
// Steps: TDEE, goal adjustment, protein by body weight, fat at 25% of calories,
// carbs from what is left, fiber per 1000 kcal.
func computeDailyGoal(p *profile) (dailyGoal, error) {
	if err := validateProfile(p); err != nil {
		return dailyGoal{}, err
	}
	bmr, err := computeBMR(p)
	if err != nil {
		return dailyGoal{}, err
	}

	tdee := float64(bmr) * activityMultipliers[p.ActivityLevel]
	calories := int(math.Round(tdee + goalAdjustment[p.Goal][p.BuildMuscle]))

	base := 1.5
	if p.BuildMuscle {
		base = 1.7
	}
	protein := int(math.Round((base + activityProteinIncrement[p.ActivityLevel]) * p.WeightKG))

	fatCalories := fatCalorieShare * float64(calories)
	carbCalories := float64(calories) - float64(protein*4) - fatCalories

	goal := dailyGoal{
		DailyCalories: calories,
		ProteinG:      protein,
		FatsG:         nonNegative(int(math.Round(fatCalories / 9))),
		CarbsG:        nonNegative(int(math.Round(carbCalories / 4))),
		FiberG:        nonNegative(int(math.Round(float64(calories) / 1000 * fiberPer1000))),
		Warnings:      []ComputationWarning{},
	}

	if calories < 0 {
		goal.Warnings = append(goal.Warnings, ComputationWarning{
			Code:    warnNegativeCalories,
			Message: fmt.Sprintf("calorie target %d kcal is below zero; TDEE is too low for the selected goal", calories),
		})
	}
	if carbCalories < 0 {
		goal.Warnings = append(goal.Warnings, ComputationWarning{
			Code:    warnNegativeCarbs,
			Message: fmt.Sprintf("protein and fat exceed the calorie target by %.0f kcal; carbs clamped to 0", -carbCalories),
		})
	}
	recordGoalComputed(goal.Warnings)
	return goal, nil
}

// applyDailyGoal writes the computed targets back onto the profile's cached
// goal fields.
func applyDailyGoal(p *profile, g dailyGoal) {
	p.DailyCalories = &g.DailyCalories
	p.ProteinG = &g.ProteinG
	p.CarbsG = &g.CarbsG
	p.FatsG = &g.FatsG
	p.FiberG = &g.FiberG
}

// cachedGoal reads the cached targets off a profile. Missing values count as
// zero, which turns progress off rather than dividing by nothing.
func cachedGoal(p *profile) dailyGoal {
	deref := func(v *int) int {
		if v == nil {
			return 0
		}
		return *v
	}
	return dailyGoal{
		DailyCalories: deref(p.DailyCalories),
		ProteinG:      deref(p.ProteinG),
		CarbsG:        deref(p.CarbsG),
		FatsG:         deref(p.FatsG),
		FiberG:        deref(p.FiberG),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
