package main

import (
	"errors"
	"math"
	"testing"
)

// makeProfile constructs a valid maintain-goal profile for calculator tests.
// Individual tests mutate fields to exercise the guards.
func makeProfile(gender string, weightKG, heightCM float64, age int, activity string) *profile {
	return &profile{
		HeightCM:      heightCM,
		WeightKG:      weightKG,
		Age:           age,
		Gender:        gender,
		ActivityLevel: activity,
		Goal:          "maintain",
	}
}

func floatPtr(v float64) *float64 { return &v }

/* ─── Validation guard tests ─────────────────────────────────────────── */

// TestValidateProfile_Rejects verifies that every malformed field produces an
// InvalidProfileError naming that field, rather than a silent default.
func TestValidateProfile_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		field string
		mutFn func(p *profile)
	}{
		{"zero height", "height_cm", func(p *profile) { p.HeightCM = 0 }},
		{"negative weight", "weight_kg", func(p *profile) { p.WeightKG = -70 }},
		{"zero age", "age", func(p *profile) { p.Age = 0 }},
		{"unknown gender", "gender", func(p *profile) { p.Gender = "other" }},
		{"unknown activity level", "activity_level", func(p *profile) { p.ActivityLevel = "extreme" }},
		{"unknown goal", "goal", func(p *profile) { p.Goal = "bulk" }},
		{"lose without target", "target_weight_kg", func(p *profile) { p.Goal = "lose" }},
		{"gain without target", "target_weight_kg", func(p *profile) { p.Goal = "gain" }},
		{"non-positive target", "target_weight_kg", func(p *profile) { p.Goal = "lose"; p.TargetWeightKG = floatPtr(0) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := makeProfile("male", 75, 180, 30, "moderate")
			tc.mutFn(p)
			err := validateProfile(p)
			var invalid *InvalidProfileError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidProfileError, got %v", err)
			}
			if invalid.Field != tc.field {
				t.Errorf("field = %q, want %q", invalid.Field, tc.field)
			}
		})
	}
}

// TestValidateProfile_MaintainNeedsNoTarget verifies that a maintain goal is
// valid without a target weight.
func TestValidateProfile_MaintainNeedsNoTarget(t *testing.T) {
	if err := validateProfile(makeProfile("female", 60, 165, 40, "light")); err != nil {
		t.Errorf("expected valid profile, got %v", err)
	}
}

// TestComputeDailyGoal_RejectsMissingTarget verifies the calculator refuses a
// weight-changing goal with no target weight.
func TestComputeDailyGoal_RejectsMissingTarget(t *testing.T) {
	p := makeProfile("male", 75, 180, 30, "moderate")
	p.Goal = "lose"
	if _, err := computeDailyGoal(p); err == nil {
		t.Error("expected error for lose goal without target weight")
	}
}

/* ─── BMR tests ──────────────────────────────────────────────────────── */

// TestComputeBMR verifies the closed-form Mifflin-St Jeor values.
// Male, 75kg, 180cm, 30y: 10*75 + 6.25*180 - 5*30 + 5 = 1730.
func TestComputeBMR(t *testing.T) {
	cases := []struct {
		gender string
		want   int
	}{
		{"male", 1730},
		{"female", 1564},
	}
	for _, tc := range cases {
		t.Run(tc.gender, func(t *testing.T) {
			bmr, err := computeBMR(makeProfile(tc.gender, 75, 180, 30, "sedentary"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bmr != tc.want {
				t.Errorf("BMR = %d, want %d", bmr, tc.want)
			}
		})
	}
}

// TestComputeBMR_InvalidBody verifies non-positive inputs fail fast.
func TestComputeBMR_InvalidBody(t *testing.T) {
	p := makeProfile("male", 75, -1, 30, "sedentary")
	if _, err := computeBMR(p); err == nil {
		t.Error("expected error for negative height")
	}
}

/* ─── Body metrics tests ─────────────────────────────────────────────── */

// TestBMICategory_Boundaries uses a 200cm profile so weight/4 is the BMI.
// Lower bounds are inclusive; the top category is open-ended.
func TestBMICategory_Boundaries(t *testing.T) {
	cases := []struct {
		weightKG float64
		bmi      float64
		category string
	}{
		{70, 17.5, "Underweight"},
		{74, 18.5, "Normal weight"},
		{99.6, 24.9, "Normal weight"},
		{100, 25.0, "Overweight"},
		{119.6, 29.9, "Overweight"},
		{120, 30.0, "Obesity"},
		{160, 40.0, "Obesity"},
	}
	for _, tc := range cases {
		m, err := computeBodyMetrics(makeProfile("male", tc.weightKG, 200, 30, "sedentary"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.BMI != tc.bmi {
			t.Errorf("weight %.1f: BMI = %.1f, want %.1f", tc.weightKG, m.BMI, tc.bmi)
		}
		if m.BMICategory != tc.category {
			t.Errorf("BMI %.1f: category = %q, want %q", tc.bmi, m.BMICategory, tc.category)
		}
	}
}

// TestComputeBodyMetrics checks the ideal range and Deurenberg body fat.
// 180cm: h² = 3.24, range = [59.94, 80.676]; bmi = 23.148...
func TestComputeBodyMetrics(t *testing.T) {
	male, err := computeBodyMetrics(makeProfile("male", 75, 180, 30, "sedentary"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if male.BMI != 23.1 {
		t.Errorf("BMI = %.1f, want 23.1", male.BMI)
	}
	if male.IdealWeightRange != [2]float64{59.9, 80.7} {
		t.Errorf("ideal range = %v, want [59.9 80.7]", male.IdealWeightRange)
	}
	// 1.2*23.148 + 0.23*30 - 16.2 = 18.48
	if male.BodyFatPercent != 18.5 {
		t.Errorf("male body fat = %.1f, want 18.5", male.BodyFatPercent)
	}

	female, _ := computeBodyMetrics(makeProfile("female", 75, 180, 30, "sedentary"))
	// Same BMI and age, constant -5.4 instead of -16.2.
	if female.BodyFatPercent != 29.3 {
		t.Errorf("female body fat = %.1f, want 29.3", female.BodyFatPercent)
	}
}

/* ─── Daily goal tests ───────────────────────────────────────────────── */

// TestComputeDailyGoal_Maintain checks every step for a known profile.
// BMR 1730, TDEE 1730*1.2 = 2076, protein 1.5*75 = 112.5 -> 113,
// fats 519/9 -> 58, carbs (2076-452-519)/4 = 276.25 -> 276, fiber 29.064 -> 29.
func TestComputeDailyGoal_Maintain(t *testing.T) {
	g, err := computeDailyGoal(makeProfile("male", 75, 180, 30, "sedentary"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := dailyGoal{DailyCalories: 2076, ProteinG: 113, CarbsG: 276, FatsG: 58, FiberG: 29}
	if g.DailyCalories != want.DailyCalories || g.ProteinG != want.ProteinG ||
		g.CarbsG != want.CarbsG || g.FatsG != want.FatsG || g.FiberG != want.FiberG {
		t.Errorf("goal = %+v, want %+v", g, want)
	}
	if len(g.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", g.Warnings)
	}
}

// TestComputeDailyGoal_Adjustments verifies the (goal, buildMuscle) table
// against the 2076 kcal TDEE of the reference profile.
func TestComputeDailyGoal_Adjustments(t *testing.T) {
	cases := []struct {
		goal        string
		buildMuscle bool
		want        int
	}{
		{"lose", false, 1576},
		{"maintain", false, 2076},
		{"gain", false, 2576},
		{"lose", true, 1776},
		{"maintain", true, 2326},
		{"gain", true, 2576},
	}
	for _, tc := range cases {
		p := makeProfile("male", 75, 180, 30, "sedentary")
		p.Goal = tc.goal
		p.BuildMuscle = tc.buildMuscle
		p.TargetWeightKG = floatPtr(70)
		g, err := computeDailyGoal(p)
		if err != nil {
			t.Fatalf("%s/%v: unexpected error: %v", tc.goal, tc.buildMuscle, err)
		}
		if g.DailyCalories != tc.want {
			t.Errorf("%s/%v: calories = %d, want %d", tc.goal, tc.buildMuscle, g.DailyCalories, tc.want)
		}
	}
}

// TestComputeDailyGoal_MonotonicInActivity verifies that each activity level
// yields more calories and more protein than the one below it.
func TestComputeDailyGoal_MonotonicInActivity(t *testing.T) {
	levels := []string{"sedentary", "light", "moderate", "active", "very_active"}
	prev := dailyGoal{}
	for i, level := range levels {
		g, err := computeDailyGoal(makeProfile("female", 62, 168, 35, level))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", level, err)
		}
		if i > 0 && (g.DailyCalories <= prev.DailyCalories || g.ProteinG <= prev.ProteinG) {
			t.Errorf("%s: %+v is not above %+v", level, g, prev)
		}
		prev = g
	}
}

// TestComputeDailyGoal_MuscleShrinksDeficit verifies buildMuscle=true with a
// lose goal always leaves more calories than the plain lose goal.
func TestComputeDailyGoal_MuscleShrinksDeficit(t *testing.T) {
	for _, level := range []string{"sedentary", "moderate", "very_active"} {
		plain := makeProfile("male", 90, 175, 45, level)
		plain.Goal = "lose"
		plain.TargetWeightKG = floatPtr(80)
		muscle := *plain
		muscle.BuildMuscle = true

		a, _ := computeDailyGoal(plain)
		b, _ := computeDailyGoal(&muscle)
		if b.DailyCalories-a.DailyCalories != 200 {
			t.Errorf("%s: muscle %d vs plain %d, want a 200 kcal smaller deficit", level, b.DailyCalories, a.DailyCalories)
		}
	}
}

// TestComputeDailyGoal_MacroCaloriesRoundTrip sweeps profiles and checks that
// macro calories add back up to the target. Fats round to ±0.5g (4.5 kcal)
// and carbs to ±0.5g (2 kcal); protein calories are exact.
func TestComputeDailyGoal_MacroCaloriesRoundTrip(t *testing.T) {
	for _, gender := range []string{"male", "female"} {
		for w := 50.0; w <= 120; w += 7.5 {
			for _, level := range []string{"sedentary", "moderate", "very_active"} {
				for _, goal := range []string{"lose", "maintain", "gain"} {
					p := makeProfile(gender, w, 172, 33, level)
					p.Goal = goal
					p.TargetWeightKG = floatPtr(70)
					g, err := computeDailyGoal(p)
					if err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
					if len(g.Warnings) > 0 {
						continue
					}
					total := g.ProteinG*4 + g.FatsG*9 + g.CarbsG*4
					if diff := math.Abs(float64(total - g.DailyCalories)); diff > 6.5 {
						t.Errorf("%s %.1fkg %s %s: macros sum to %d kcal, target %d",
							gender, w, level, goal, total, g.DailyCalories)
					}
				}
			}
		}
	}
}

// TestComputeDailyGoal_NegativeCarbs uses a short, heavy, elderly profile on a
// deficit where protein and fat outweigh the target: 657 kcal, 150g protein.
func TestComputeDailyGoal_NegativeCarbs(t *testing.T) {
	p := makeProfile("female", 100, 100, 100, "sedentary")
	p.Goal = "lose"
	p.TargetWeightKG = floatPtr(80)

	g, err := computeDailyGoal(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.DailyCalories != 657 {
		t.Errorf("calories = %d, want 657", g.DailyCalories)
	}
	if g.CarbsG != 0 {
		t.Errorf("carbs = %d, want clamped to 0", g.CarbsG)
	}
	if !hasWarning(g.Warnings, warnNegativeCarbs) {
		t.Errorf("expected %s warning, got %v", warnNegativeCarbs, g.Warnings)
	}
	if hasWarning(g.Warnings, warnNegativeCalories) {
		t.Errorf("unexpected %s warning", warnNegativeCalories)
	}
}

// TestComputeDailyGoal_NegativeCalories verifies a pathologically low TDEE is
// surfaced raw with a warning while gram targets stay at zero.
func TestComputeDailyGoal_NegativeCalories(t *testing.T) {
	p := makeProfile("female", 30, 50, 100, "sedentary")
	p.Goal = "lose"
	p.TargetWeightKG = floatPtr(25)

	g, err := computeDailyGoal(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.DailyCalories >= 0 {
		t.Errorf("calories = %d, want negative", g.DailyCalories)
	}
	if !hasWarning(g.Warnings, warnNegativeCalories) {
		t.Errorf("expected %s warning, got %v", warnNegativeCalories, g.Warnings)
	}
	if g.FatsG != 0 || g.CarbsG != 0 || g.FiberG != 0 {
		t.Errorf("expected zero fats/carbs/fiber, got %+v", g)
	}
}

// TestApplyDailyGoal_RoundTripsThroughCache verifies the targets written back
// onto a profile read back unchanged.
func TestApplyDailyGoal_RoundTripsThroughCache(t *testing.T) {
	p := makeProfile("male", 75, 180, 30, "sedentary")
	if got := cachedGoal(p); got.DailyCalories != 0 {
		t.Fatalf("expected zero goal before computation, got %+v", got)
	}
	g, _ := computeDailyGoal(p)
	applyDailyGoal(p, g)

	got := cachedGoal(p)
	if got.DailyCalories != g.DailyCalories || got.ProteinG != g.ProteinG ||
		got.CarbsG != g.CarbsG || got.FatsG != g.FatsG || got.FiberG != g.FiberG {
		t.Errorf("cached goal = %+v, want %+v", got, g)
	}
}

func hasWarning(ws []ComputationWarning, code string) bool {
	for _, w := range ws {
		if w.Code == code {
			return true
		}
	}
	return false
}
