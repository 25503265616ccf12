package main

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. AuthToken and Password are hidden from JSON responses.
type user struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Email     string     `json:"email" db:"email"`
	AuthToken string     `json:"-" db:"auth_token"`
	Password  string     `json:"-" db:"password"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// profile maps to the profiles table: one row per user with the physical
// state and goal the calculator works from. The goal columns are a cache
// written by POST /api/profile/goal and are nil until the first computation.
type profile struct {
	UserID         int      `json:"user_id"          db:"user_id"`
	HeightCM       float64  `json:"height_cm"        db:"height_cm"`
	WeightKG       float64  `json:"weight_kg"        db:"weight_kg"`
	Age            int      `json:"age"              db:"age"`
	Gender         string   `json:"gender"           db:"gender"`
	ActivityLevel  string   `json:"activity_level"   db:"activity_level"`
	Goal           string   `json:"goal"             db:"goal"`
	BuildMuscle    bool     `json:"build_muscle"     db:"build_muscle"`
	TargetWeightKG *float64 `json:"target_weight_kg" db:"target_weight_kg"`

	DailyCalories *int `json:"daily_calories" db:"daily_calories"`
	ProteinG      *int `json:"protein_g"      db:"protein_g"`
	CarbsG        *int `json:"carbs_g"        db:"carbs_g"`
	FatsG         *int `json:"fats_g"         db:"fats_g"`
	FiberG        *int `json:"fiber_g"        db:"fiber_g"`

	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// mealLog maps to meal_logs. Day is the local day the meal counts towards,
// stamped from CreatedAt in the creating request's time zone and never moved.
type mealLog struct {
	ID          int        `json:"id"          db:"id"`
	UserID      int        `json:"user_id"     db:"user_id"`
	Day         DateOnly   `json:"day"         db:"day"`
	MealType    string     `json:"meal_type"   db:"meal_type"`
	MealName    string     `json:"meal_name"   db:"meal_name"`
	Quantity    string     `json:"quantity"    db:"quantity"`
	Description *string    `json:"description" db:"description"`
	Calories    float64    `json:"calories"    db:"calories"`
	ProteinG    float64    `json:"protein_g"   db:"protein_g"`
	CarbsG      float64    `json:"carbs_g"     db:"carbs_g"`
	FatsG       float64    `json:"fats_g"      db:"fats_g"`
	FiberG      float64    `json:"fiber_g"     db:"fiber_g"`
	CreatedAt   time.Time  `json:"created_at"  db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"  db:"updated_at"`
}

// activityLog maps to activity_logs. Duration is kept as the user typed it
// ("45 min", "5 km"); only CaloriesBurned feeds the aggregate.
type activityLog struct {
	ID             int        `json:"id"              db:"id"`
	UserID         int        `json:"user_id"         db:"user_id"`
	Day            DateOnly   `json:"day"             db:"day"`
	ActivityName   string     `json:"activity_name"   db:"activity_name"`
	Duration       string     `json:"duration"        db:"duration"`
	Description    *string    `json:"description"     db:"description"`
	CaloriesBurned float64    `json:"calories_burned" db:"calories_burned"`
	CreatedAt      time.Time  `json:"created_at"      db:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"      db:"updated_at"`
}

// weightEntry maps to weight_log. One entry per user per date.
type weightEntry struct {
	ID        int        `json:"id"         db:"id"`
	UserID    int        `json:"user_id"    db:"user_id"`
	Date      DateOnly   `json:"date"       db:"date"`
	WeightKG  float64    `json:"weight_kg"  db:"weight_kg"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// summaryRow maps to daily_summaries, the per-day cache kept in step with
// log mutations by applying deltas.
type summaryRow struct {
	UserID         int      `db:"user_id"`
	Day            DateOnly `db:"day"`
	Calories       float64  `db:"calories"`
	ProteinG       float64  `db:"protein_g"`
	CarbsG         float64  `db:"carbs_g"`
	FatsG          float64  `db:"fats_g"`
	FiberG         float64  `db:"fiber_g"`
	CaloriesBurned float64  `db:"calories_burned"`
}

// fastingRow maps to fasting_states: at most one fast per user.
type fastingRow struct {
	UserID           int        `db:"user_id"`
	Plan             string     `db:"plan"`
	Phase            string     `db:"phase"`
	IsRunning        bool       `db:"is_running"`
	EndTime          *time.Time `db:"end_time"`
	CustomStart      *string    `db:"custom_start"`
	CustomEnd        *string    `db:"custom_end"`
	TotalSeconds     int64      `db:"total_seconds"`
	RemainingSeconds int64      `db:"remaining_seconds"`
	UpdatedAt        *time.Time `db:"updated_at"`
}

/* ─── Requests ───────────────────────────────────────────────────────── */

// profileRequest is the body for PUT /api/profile and POST /api/metrics/preview.
type profileRequest struct {
	HeightCM       float64  `json:"height_cm"`
	WeightKG       float64  `json:"weight_kg"`
	Age            int      `json:"age"`
	Gender         string   `json:"gender"`
	ActivityLevel  string   `json:"activity_level"`
	Goal           string   `json:"goal"`
	BuildMuscle    bool     `json:"build_muscle"`
	TargetWeightKG *float64 `json:"target_weight_kg"`
}

// patchProfileRequest is the body for PATCH /api/profile.
// All fields are pointers — only non-nil fields are merged into the stored profile.
type patchProfileRequest struct {
	HeightCM       *float64 `json:"height_cm"`
	WeightKG       *float64 `json:"weight_kg"`
	Age            *int     `json:"age"`
	Gender         *string  `json:"gender"`
	ActivityLevel  *string  `json:"activity_level"`
	Goal           *string  `json:"goal"`
	BuildMuscle    *bool    `json:"build_muscle"`
	TargetWeightKG *float64 `json:"target_weight_kg"`
}

// createMealRequest is the body for POST /api/meals. CreatedAt defaults to now
// so meals can be back-filled onto an earlier day.
type createMealRequest struct {
	MealType    string     `json:"meal_type"`
	MealName    string     `json:"meal_name"`
	Quantity    string     `json:"quantity"`
	Description *string    `json:"description"`
	Calories    float64    `json:"calories"`
	ProteinG    float64    `json:"protein_g"`
	CarbsG      float64    `json:"carbs_g"`
	FatsG       float64    `json:"fats_g"`
	FiberG      float64    `json:"fiber_g"`
	CreatedAt   *time.Time `json:"created_at"`
}

// createActivityRequest is the body for POST /api/activities.
type createActivityRequest struct {
	ActivityName   string     `json:"activity_name"`
	Duration       string     `json:"duration"`
	Description    *string    `json:"description"`
	CaloriesBurned float64    `json:"calories_burned"`
	CreatedAt      *time.Time `json:"created_at"`
}
