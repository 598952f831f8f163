package training

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Fallback labels for sets and sessions missing a reference.
const (
	Uncategorized   = "Uncategorized"
	UnknownRoutine  = "No routine"
	UnknownExercise = "Exercise"

	// ProgressionPoints is how many training days ExerciseProgression keeps.
	ProgressionPoints = 20
)

// NamedSet is a logged set with its exercise and category names resolved.
type NamedSet struct {
	LoggedSet
	ExerciseName string `json:"exercise_name"`
	Category     string `json:"category,omitempty"`
}

// UnmarshalJSON decodes the set as LoggedSet does, plus the exercise and category names.
func (s *NamedSet) UnmarshalJSON(data []byte) error {
	var set LoggedSet
	if err := set.UnmarshalJSON(data); err != nil {
		return err
	}
	var names struct {
		ExerciseName string `json:"exercise_name"`
		Category     string `json:"category"`
	}
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("decoding named set: %w", err)
	}
	*s = NamedSet{LoggedSet: set, ExerciseName: names.ExerciseName, Category: names.Category}
	return nil
}

// Session is a completed workout reduced to what the aggregations need.
type Session struct {
	ID          uuid.UUID     `json:"id"`
	UserID      int           `json:"user_id"`
	RoutineName string        `json:"routine_name"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
	Sets        []NamedSet    `json:"sets"`
}

// Volume is the session's total reps × weight.
func (s Session) Volume() float64 {
	var total float64
	for _, set := range s.Sets {
		total = saturatingAdd(total, SetVolume(set.LoggedSet))
	}
	return total
}

// MaxWeight is the heaviest set in the session.
func (s Session) MaxWeight() float64 {
	var best float64
	for _, set := range s.Sets {
		best = max(best, set.WeightKg)
	}
	return best
}

// ExerciseCount is the number of distinct exercises with at least one set.
func (s Session) ExerciseCount() int {
	seen := make(map[uuid.UUID]struct{}, len(s.Sets))
	for _, set := range s.Sets {
		seen[set.ExerciseID] = struct{}{}
	}
	return len(seen)
}

// WeekStart returns Monday 00:00 of t's week in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

type WeekVolume struct {
	WeekStart time.Time `json:"week_start"`
	Volume    float64   `json:"volume"`
	Sessions  int       `json:"sessions"`
}

// WeeklyVolume buckets sessions by WeekStart and returns the latest lastN weeks
// that had sessions, oldest first. lastN <= 0 keeps every week.
func WeeklyVolume(sessions []Session, lastN int) []WeekVolume {
	byWeek := make(map[time.Time]*WeekVolume)
	for _, s := range sessions {
		ws := WeekStart(s.CompletedAt)
		wv, ok := byWeek[ws]
		if !ok {
			wv = &WeekVolume{WeekStart: ws}
			byWeek[ws] = wv
		}
		wv.Volume = saturatingAdd(wv.Volume, s.Volume())
		wv.Sessions++
	}

	out := make([]WeekVolume, 0, len(byWeek))
	for _, wv := range byWeek {
		out = append(out, *wv)
	}
	slices.SortFunc(out, func(a, b WeekVolume) int { return a.WeekStart.Compare(b.WeekStart) })
	if lastN > 0 && len(out) > lastN {
		out = out[len(out)-lastN:]
	}
	return out
}

type CategoryVolume struct {
	Category string  `json:"category"`
	Volume   float64 `json:"volume"`
	Percent  int     `json:"percent"`
}

// VolumeByCategory splits volume by muscle category, largest first.
// Categories with no volume are left out. Percentages are rounded and may not sum to 100.
func VolumeByCategory(sets []NamedSet) []CategoryVolume {
	byCat := make(map[string]float64)
	var total float64
	for _, s := range sets {
		cat := s.Category
		if cat == "" {
			cat = Uncategorized
		}
		v := SetVolume(s.LoggedSet)
		byCat[cat] = saturatingAdd(byCat[cat], v)
		total = saturatingAdd(total, v)
	}

	out := make([]CategoryVolume, 0, len(byCat))
	for cat, v := range byCat {
		if v <= 0 {
			continue
		}
		out = append(out, CategoryVolume{
			Category: cat,
			Volume:   v,
			Percent:  int(math.Round(v / total * 100)),
		})
	}
	slices.SortFunc(out, func(a, b CategoryVolume) int {
		return cmp.Or(cmp.Compare(b.Volume, a.Volume), cmp.Compare(a.Category, b.Category))
	})
	return out
}

type Frequency struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Frequencies counts each name and returns the most frequent first, ties by name.
// limit <= 0 returns every name.
func Frequencies(names []string, limit int) []Frequency {
	counts := make(map[string]int)
	for _, n := range names {
		counts[n]++
	}
	out := make([]Frequency, 0, len(counts))
	for n, c := range counts {
		out = append(out, Frequency{Name: n, Count: c})
	}
	slices.SortFunc(out, func(a, b Frequency) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Name, b.Name))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GoalProgress is current as a percentage of target, capped at 100.
func GoalProgress(current, target float64) int {
	if target <= 0 || math.IsNaN(target) || math.IsNaN(current) || current <= 0 {
		return 0
	}
	return int(min(100, math.Round(current/target*100)))
}

type ExerciseComparison struct {
	ExerciseID   uuid.UUID `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	OlderMax     float64   `json:"older_max"`
	NewerMax     float64   `json:"newer_max"`
	MaxDiff      float64   `json:"max_diff"`
	OlderVolume  float64   `json:"older_volume"`
	NewerVolume  float64   `json:"newer_volume"`
	VolumeDiff   float64   `json:"volume_diff"`
}

// CompareSessions lines up each exercise's best weight and volume in two sessions.
// Exercises with no weight in either session are dropped.
func CompareSessions(older, newer Session) []ExerciseComparison {
	rows := make(map[uuid.UUID]*ExerciseComparison)
	row := func(s NamedSet) *ExerciseComparison {
		r, ok := rows[s.ExerciseID]
		if !ok {
			r = &ExerciseComparison{ExerciseID: s.ExerciseID, ExerciseName: s.ExerciseName}
			rows[s.ExerciseID] = r
		}
		return r
	}
	for _, s := range older.Sets {
		r := row(s)
		r.OlderMax = max(r.OlderMax, s.WeightKg)
		r.OlderVolume = saturatingAdd(r.OlderVolume, SetVolume(s.LoggedSet))
	}
	for _, s := range newer.Sets {
		r := row(s)
		r.NewerMax = max(r.NewerMax, s.WeightKg)
		r.NewerVolume = saturatingAdd(r.NewerVolume, SetVolume(s.LoggedSet))
	}

	out := make([]ExerciseComparison, 0, len(rows))
	for _, r := range rows {
		if r.OlderMax == 0 && r.NewerMax == 0 {
			continue
		}
		r.MaxDiff = r.NewerMax - r.OlderMax
		r.VolumeDiff = r.NewerVolume - r.OlderVolume
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b ExerciseComparison) int {
		return cmp.Or(cmp.Compare(a.ExerciseName, b.ExerciseName), cmp.Compare(a.ExerciseID.String(), b.ExerciseID.String()))
	})
	return out
}

type ProgressPoint struct {
	Date      time.Time `json:"date"`
	MaxWeight float64   `json:"max_weight"`
	MaxVolume float64   `json:"max_volume"`
	Sets      int       `json:"sets"`
	OneRepMax float64   `json:"one_rep_max"`
}

// ExerciseProgression groups one exercise's sets by training day and keeps the
// latest ProgressionPoints days, oldest first.
func ExerciseProgression(sets []ExerciseSet) []ProgressPoint {
	byDay := make(map[civilDay]*ProgressPoint)
	for _, s := range sets {
		day := dayOf(s.PerformedAt)
		p, ok := byDay[day]
		if !ok {
			p = &ProgressPoint{Date: time.Date(day.y, day.m, day.d, 0, 0, 0, 0, s.PerformedAt.Location())}
			byDay[day] = p
		}
		p.MaxWeight = max(p.MaxWeight, s.WeightKg)
		p.MaxVolume = max(p.MaxVolume, SetVolume(s.LoggedSet))
		p.OneRepMax = max(p.OneRepMax, OneRepMax(s.WeightKg, s.Reps))
		p.Sets++
	}

	out := make([]ProgressPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b ProgressPoint) int { return a.Date.Compare(b.Date) })
	if len(out) > ProgressionPoints {
		out = out[len(out)-ProgressionPoints:]
	}
	return out
}

type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
)

type Trend struct {
	Diff      float64        `json:"diff"`
	Direction TrendDirection `json:"direction"`
}

// MeasurementTrend compares the two most recent readings of one measurement.
// It reports no trend when either is missing or they differ by less than 0.1.
func MeasurementTrend(latest, previous *float64) (Trend, bool) {
	if latest == nil || previous == nil {
		return Trend{}, false
	}
	diff := *latest - *previous
	if math.Abs(diff) < 0.1 || math.IsNaN(diff) {
		return Trend{}, false
	}
	t := Trend{Diff: round1(diff), Direction: TrendUp}
	if diff < 0 {
		t.Direction = TrendDown
	}
	return t, true
}

type NamedWeight struct {
	Name     string  `json:"name"`
	WeightKg float64 `json:"weight_kg"`
}

type YearSummary struct {
	Sessions      int          `json:"total_sessions"`
	Volume        float64      `json:"total_volume"`
	Sets          int          `json:"total_sets"`
	Hours         int          `json:"total_hours"`
	TopExercise   *Frequency   `json:"top_exercise"`
	TopRoutine    *Frequency   `json:"top_routine"`
	LongestStreak int          `json:"longest_streak"`
	PRCount       int          `json:"pr_count"`
	BestPR        *NamedWeight `json:"best_pr"`
	MonthlyVolume [12]float64  `json:"monthly_volume"`
}

// YearReview summarises a year of sessions. Callers filter sessions to the year.
// PRCount is the number of exercises trained; BestPR is the heaviest of their bests.
func YearReview(sessions []Session) YearSummary {
	var (
		sum       YearSummary
		duration  time.Duration
		times     = make([]time.Time, 0, len(sessions))
		exercises []string
		routines  = make([]string, 0, len(sessions))
		bests     = make(map[string]float64)
	)
	for _, s := range sessions {
		sum.Sessions++
		duration += s.Duration
		times = append(times, s.CompletedAt)
		routines = append(routines, cmp.Or(s.RoutineName, UnknownRoutine))

		month := s.CompletedAt.Month() - 1
		for _, set := range s.Sets {
			v := SetVolume(set.LoggedSet)
			sum.Volume = saturatingAdd(sum.Volume, v)
			sum.MonthlyVolume[month] = saturatingAdd(sum.MonthlyVolume[month], v)
			sum.Sets++

			name := cmp.Or(set.ExerciseName, UnknownExercise)
			exercises = append(exercises, name)
			if cur, ok := bests[name]; !ok || set.WeightKg > cur {
				bests[name] = set.WeightKg
			}
		}
	}

	sum.Hours = int(math.Round(duration.Hours()))
	sum.LongestStreak = LongestDayStreak(times, DefaultStreakGapDays)
	if top := Frequencies(exercises, 1); len(top) == 1 {
		sum.TopExercise = &top[0]
	}
	if top := Frequencies(routines, 1); len(top) == 1 {
		sum.TopRoutine = &top[0]
	}

	sum.PRCount = len(bests)
	for name, w := range bests {
		if sum.BestPR == nil || w > sum.BestPR.WeightKg || (w == sum.BestPR.WeightKg && name < sum.BestPR.Name) {
			sum.BestPR = &NamedWeight{Name: name, WeightKg: w}
		}
	}
	return sum
}
