package main

import "time"

// nutrientTotals is a signed bundle of the quantities a day's logs contribute.
// Used both as consumed totals and as the delta a single log mutation applies.
type nutrientTotals struct {
	Calories       float64 `json:"calories"`
	ProteinG       float64 `json:"protein_g"`
	CarbsG         float64 `json:"carbs_g"`
	FatsG          float64 `json:"fats_g"`
	FiberG         float64 `json:"fiber_g"`
	CaloriesBurned float64 `json:"calories_burned"`
}

func (n nutrientTotals) add(o nutrientTotals) nutrientTotals {
	return nutrientTotals{
		Calories:       n.Calories + o.Calories,
		ProteinG:       n.ProteinG + o.ProteinG,
		CarbsG:         n.CarbsG + o.CarbsG,
		FatsG:          n.FatsG + o.FatsG,
		FiberG:         n.FiberG + o.FiberG,
		CaloriesBurned: n.CaloriesBurned + o.CaloriesBurned,
	}
}

func (n nutrientTotals) negate() nutrientTotals {
	return nutrientTotals{}.sub(n)
}

func (n nutrientTotals) sub(o nutrientTotals) nutrientTotals {
	return n.add(nutrientTotals{
		Calories:       -o.Calories,
		ProteinG:       -o.ProteinG,
		CarbsG:         -o.CarbsG,
		FatsG:          -o.FatsG,
		FiberG:         -o.FiberG,
		CaloriesBurned: -o.CaloriesBurned,
	})
}

// macroGoals are the gram targets shown next to consumed macros. Fiber is part
// of both the consumed totals and the goal on every surface.
type macroGoals struct {
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatsG    int `json:"fats_g"`
	FiberG   int `json:"fiber_g"`
}

// daySummary is the consumed-vs-target view of one user's day.
type daySummary struct {
	Date            string         `json:"date"`
	Consumed        nutrientTotals `json:"consumed"`
	DailyGoal       int            `json:"daily_goal"`
	MacroGoals      macroGoals     `json:"macro_goals"`
	ProgressPercent float64        `json:"progress_percent"`
}

// mealContribution is what one meal adds to its day.
func mealContribution(m mealLog) nutrientTotals {
	return nutrientTotals{
		Calories: m.Calories,
		ProteinG: m.ProteinG,
		CarbsG:   m.CarbsG,
		FatsG:    m.FatsG,
		FiberG:   m.FiberG,
	}
}

// activityContribution is what one activity adds to its day.
func activityContribution(a activityLog) nutrientTotals {
	return nutrientTotals{CaloriesBurned: a.CaloriesBurned}
}

// dayKey is the calendar day t falls on in loc.
func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// stampDay is the calendar day t falls on in loc, as stored on a new log.
func stampDay(t time.Time, loc *time.Location) DateOnly {
	y, m, d := t.In(loc).Date()
	return DateOnly{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// logDay is the day a log counts towards: the day stamped on it at creation,
// or createdAt in loc when it carries none.
func logDay(stamped DateOnly, createdAt time.Time, loc *time.Location) string {
	if !stamped.IsZero() {
		return stamped.Format("2006-01-02")
	}
	return dayKey(createdAt, loc)
}

// dayBounds returns [start, end) of the calendar day in loc. The end is the
// next local midnight, so DST days are 23 or 25 hours long.
func dayBounds(day string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}

// aggregateDay folds a day's meals and activities into a summary. Logs that
// count towards another day (see logDay) are skipped, so raw and pre-filtered
// inputs produce the same result. An empty day accepts every log. Inputs are
// never modified.
func aggregateDay(day string, loc *time.Location, meals []mealLog, activities []activityLog, goal dailyGoal) daySummary {
	if loc == nil {
		loc = time.UTC
	}
	var consumed nutrientTotals
	for _, m := range meals {
		if day != "" && logDay(m.Day, m.CreatedAt, loc) != day {
			continue
		}
		consumed = consumed.add(mealContribution(m))
	}
	for _, a := range activities {
		if day != "" && logDay(a.Day, a.CreatedAt, loc) != day {
			continue
		}
		consumed = consumed.add(activityContribution(a))
	}
	return withProgress(daySummary{
		Date:      day,
		Consumed:  consumed,
		DailyGoal: goal.DailyCalories,
		MacroGoals: macroGoals{
			ProteinG: goal.ProteinG,
			CarbsG:   goal.CarbsG,
			FatsG:    goal.FatsG,
			FiberG:   goal.FiberG,
		},
	})
}

// applyDelta adds one mutation's signed contribution to a summary. Creates
// pass +new, edits pass new-old, deletes pass -old; the result must match a
// full aggregateDay over the mutated logs.
func applyDelta(s daySummary, delta nutrientTotals) daySummary {
	s.Consumed = s.Consumed.add(delta)
	return withProgress(s)
}

// summaryDelta is one mutation's signed change to a single day's summary.
type summaryDelta struct {
	Day    string
	Totals nutrientTotals
}

// mealDelta is the change from old to updated; nil old is a create, nil
// updated a delete. The day always comes from the stored log, so an edit or
// delete offsets exactly what the create added.
func mealDelta(old, updated *mealLog) summaryDelta {
	var d summaryDelta
	if updated != nil {
		d.Day = logDay(updated.Day, updated.CreatedAt, time.UTC)
		d.Totals = mealContribution(*updated)
	}
	if old != nil {
		d.Day = logDay(old.Day, old.CreatedAt, time.UTC)
		d.Totals = d.Totals.sub(mealContribution(*old))
	}
	return d
}

// activityDelta is mealDelta for activities.
func activityDelta(old, updated *activityLog) summaryDelta {
	var d summaryDelta
	if updated != nil {
		d.Day = logDay(updated.Day, updated.CreatedAt, time.UTC)
		d.Totals = activityContribution(*updated)
	}
	if old != nil {
		d.Day = logDay(old.Day, old.CreatedAt, time.UTC)
		d.Totals = d.Totals.sub(activityContribution(*old))
	}
	return d
}

func withProgress(s daySummary) daySummary {
	s.ProgressPercent = 0
	if s.DailyGoal > 0 {
		s.ProgressPercent = s.Consumed.Calories / float64(s.DailyGoal) * 100
	}
	return s
}
