package alpha

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `
"Legs · Day 2 · Week 4 · Push-Pull-Legs";"2026-02-19 4:54 h";"1:02 hr"
"1. Hack Squats · Machine · 8 reps";"WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps"
#;KG;REPS;RIR
1;115;8;1
2;115;10;1
3;115;10;1
"2. Sumo Squats · Smith machine · 10 reps";"WU1 · 35 kg · 8 reps"
#;KG;REPS;RIR
1;70;8;1
2;70;12;1
"3. Hyperextensions on Roman Chair · Bodyweight · 10 reps";"WU1 · +0 kg · 8 reps"
#;KG;REPS;RIR
1;+35;10;0
2;+35;9;1
3;+35;10;0
"4. Reverse Lunges · Dumbbells · 10 reps"
#;KG;REPS;RIR
1;10;10;1
2;10;10;1
3;10;10;0
"5. Standing Calf Raises · Machine · 12 reps";"WU1 · 47,5 kg · 8 reps"
#;KG;REPS;RIR
1;157,5;11;1
2;157,5;11;0
3;157,5;10;0
"6. Hanging Leg Raises · Bodyweight · 12 reps · 2 dropsets"
#;KG;REPS;RIR
1;+0;12;1
2;+0;12;1
3;+0;12;0

"Push · Day 1 · Week 4 · Push-Pull-Legs";"2026-02-17 5:04 h";"45 min"
"1. Bench Press · Barbell · 6 reps";"WU1 · 22,5 kg · 10 reps<br>WU2 · 47,5 kg · 8 reps<br>WU3 · 77,5 kg · 6 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;102,5;6;0
3;100;6;
`

// TestParseCompleteSessions verifies parsing a multi-session CSV with exercises and sets.
func TestParseCompleteSessions(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	s1 := sessions[0]
	assert.Equal(t, "Legs · Day 2 · Week 4 · Push-Pull-Legs", s1.Name)
	assert.Equal(t, time.Date(2026, 2, 19, 4, 54, 0, 0, time.UTC), s1.Date)
	assert.Equal(t, 62*time.Minute, s1.Duration)
	require.Len(t, s1.Exercises, 6)

	tests := []struct {
		name, equipment string
		targetReps      int
		sets            int
	}{
		{"Hack Squats", "Machine", 8, 5},
		{"Sumo Squats", "Smith machine", 10, 3},
		{"Hyperextensions on Roman Chair", "Bodyweight", 10, 4},
		{"Reverse Lunges", "Dumbbells", 10, 3},
		{"Standing Calf Raises", "Machine", 12, 4},
		{"Hanging Leg Raises", "Bodyweight", 12, 3},
	}
	for i, tt := range tests {
		ex := s1.Exercises[i]
		assert.Equal(t, i+1, ex.Number)
		assert.Equal(t, tt.name, ex.Name)
		assert.Equal(t, tt.equipment, ex.Equipment, tt.name)
		assert.Equal(t, tt.targetReps, ex.TargetReps, tt.name)
		assert.Len(t, ex.Sets, tt.sets, tt.name)
	}
	assert.Equal(t, "2 dropsets", s1.Exercises[5].Modifiers)
	assert.Empty(t, s1.Exercises[0].Modifiers)

	s2 := sessions[1]
	assert.Equal(t, "Push · Day 1 · Week 4 · Push-Pull-Legs", s2.Name)
	assert.Equal(t, 45*time.Minute, s2.Duration)
	require.Len(t, s2.Exercises, 1)
	assert.Len(t, s2.Exercises[0].Sets, 6)
}

// TestEuropeanDecimal verifies that European decimal notation is correctly parsed.
func TestEuropeanDecimal(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	bench := sessions[1].Exercises[0]
	assert.Equal(t, 102.5, bench.Sets[3].WeightKg)
	assert.Equal(t, 22.5, bench.Sets[0].WeightKg)
}

// TestBodyweightPlus verifies the +N notation for bodyweight exercises.
func TestBodyweightPlus(t *testing.T) {
	w, bw := parseWeight("+35")
	assert.Equal(t, 35.0, w)
	assert.True(t, bw)

	w, bw = parseWeight("+0")
	assert.Zero(t, w)
	assert.True(t, bw)

	w, bw = parseWeight("102,5")
	assert.Equal(t, 102.5, w)
	assert.False(t, bw)
}

// TestRIR verifies fractional, missing and unreadable RIR values.
func TestRIR(t *testing.T) {
	assert.Equal(t, 1.5, parseRIR("1,5"))
	assert.Equal(t, 2.0, parseRIR("2"))
	assert.Equal(t, float64(untrackedRIR), parseRIR(""))
	assert.Equal(t, float64(untrackedRIR), parseRIR("n/a"))

	sessions, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	last := sessions[1].Exercises[0].Sets[5]
	assert.Equal(t, float64(untrackedRIR), last.RIR, "empty RIR column")
}

// TestWarmupParsing verifies warmup set extraction from the exercise header's second field.
func TestWarmupParsing(t *testing.T) {
	sets := parseWarmups("WU1 · 37,5 kg · 9 reps<br>WU2 · +0 kg · 7 reps<br>garbage")
	require.Len(t, sets, 2)
	assert.Equal(t, 1, sets[0].Number)
	assert.Equal(t, 37.5, sets[0].WeightKg)
	assert.Equal(t, 9, sets[0].Reps)
	assert.True(t, sets[0].IsWarmup)
	assert.Equal(t, float64(untrackedRIR), sets[0].RIR)
	assert.True(t, sets[1].IsBodyweightPlus)
	assert.Nil(t, parseWarmups(""))
}

// TestParseDuration verifies hour and minute duration formats.
func TestParseDuration(t *testing.T) {
	assert.Equal(t, 62*time.Minute, parseDuration("1:02 hr"))
	assert.Equal(t, 2*time.Hour, parseDuration("2:00 hr"))
	assert.Equal(t, 45*time.Minute, parseDuration("45 min"))
	assert.Zero(t, parseDuration("soon"))
}

// TestEmptyInput verifies that empty input returns no sessions without error.
func TestEmptyInput(t *testing.T) {
	sessions, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

// TestOrphanLines verifies that exercises or sets outside their parent block are rejected.
func TestOrphanLines(t *testing.T) {
	_, err := Parse(strings.NewReader(`"1. Bench Press · Barbell · 6 reps"`))
	assert.ErrorContains(t, err, "line 1")

	_, err = Parse(strings.NewReader("\"Push\";\"2026-02-17 5:04 h\";\"45 min\"\n1;100;5;1"))
	assert.ErrorContains(t, err, "set data without exercise")
}
