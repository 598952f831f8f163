package training

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVolumeSum verifies the canonical three-set volume.
func TestVolumeSum(t *testing.T) {
	sets := []LoggedSet{
		NewLoggedSet(10, 100),
		NewLoggedSet(8, 100),
		NewLoggedSet(6, 90),
	}
	assert.Equal(t, 2340.0, Volume(sets))
	assert.Equal(t, Volume(sets), Volume(sets))
}

// TestVolumeEmpty verifies that no sets means no volume.
func TestVolumeEmpty(t *testing.T) {
	assert.Zero(t, Volume(nil))
	assert.Zero(t, Volume([]LoggedSet{}))
}

// TestNewLoggedSetCoercion verifies that raw values are coerced to finite, non-negative numbers.
func TestNewLoggedSetCoercion(t *testing.T) {
	tests := []struct {
		name       string
		reps       any
		weight     any
		wantReps   int
		wantWeight float64
	}{
		{"ints", 8, 80, 8, 80},
		{"floats", 8.0, 82.5, 8, 82.5},
		{"strings", "8", " 82.5 ", 8, 82.5},
		{"json numbers", json.Number("5"), json.Number("100"), 5, 100},
		{"nil", nil, nil, 0, 0},
		{"garbage", "abc", struct{}{}, 0, 0},
		{"negative", -3, -40, 0, 0},
		{"nan", math.NaN(), math.NaN(), 0, 0},
		{"inf", math.Inf(1), math.Inf(1), 0, 0},
		{"fractional reps truncate", 7.9, 60, 7, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewLoggedSet(tt.reps, tt.weight)
			assert.Equal(t, tt.wantReps, s.Reps)
			assert.Equal(t, tt.wantWeight, s.WeightKg)
			assert.Equal(t, SetNormal, s.SetType)
		})
	}
}

// TestLoggedSetUnmarshalMalformed verifies that malformed JSON entries contribute zero volume.
func TestLoggedSetUnmarshalMalformed(t *testing.T) {
	payload := `[
		{"reps": 10, "weight_kg": 100},
		{},
		{"weight_kg": 90},
		{"reps": null, "weight_kg": "abc"},
		{"reps": "6", "weight_kg": "50"},
		{"reps": -2, "weight_kg": 1e400},
		null
	]`
	var sets []LoggedSet
	require.NoError(t, json.Unmarshal([]byte(payload), &sets))
	require.Len(t, sets, 7)
	assert.Equal(t, 1300.0, Volume(sets))
}

// TestLoggedSetUnmarshalFields verifies that the non-numeric fields survive decoding.
func TestLoggedSetUnmarshalFields(t *testing.T) {
	id := uuid.New()
	var s LoggedSet
	err := json.Unmarshal([]byte(`{"exercise_id":"`+id.String()+`","reps":5,"weight_kg":60,"set_number":"2","set_type":"WARMUP","notes":"easy"}`), &s)
	require.NoError(t, err)
	assert.Equal(t, id, s.ExerciseID)
	assert.Equal(t, 2, s.SetNumber)
	assert.Equal(t, SetWarmup, s.SetType)
	assert.True(t, s.Warmup())
	assert.Equal(t, "easy", s.Notes)
}

// TestLoggedSetUnmarshalBadID verifies that an unparseable exercise id is an error rather than a silent zero.
func TestLoggedSetUnmarshalBadID(t *testing.T) {
	var s LoggedSet
	assert.Error(t, json.Unmarshal([]byte(`{"exercise_id":"nope"}`), &s))
}

// TestVolumeSaturates verifies that extreme inputs clamp at the largest float instead of overflowing.
func TestVolumeSaturates(t *testing.T) {
	huge := NewLoggedSet(math.MaxInt32, math.MaxFloat64)
	assert.Equal(t, math.MaxFloat64, SetVolume(huge))

	got := Volume([]LoggedSet{huge, huge, NewLoggedSet(10, 100)})
	assert.Equal(t, math.MaxFloat64, got)
	assert.False(t, math.IsInf(got, 0))
}

// TestLoggedSetEmpty verifies which sets count as unfilled.
func TestLoggedSetEmpty(t *testing.T) {
	assert.True(t, NewLoggedSet(0, 0).Empty())
	assert.False(t, NewLoggedSet(10, 0).Empty())
	assert.False(t, NewLoggedSet(0, 20).Empty())
}
