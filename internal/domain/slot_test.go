package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLoc = time.FixedZone("MSK", 3*60*60)

func testConfig(days int) SlotsConfig {
	return SlotsConfig{
		Days:     days,
		Open:     "09:00",
		Close:    "21:00",
		Interval: 30 * time.Minute,
		Location: testLoc,
	}
}

func at(day, hour, min int) time.Time {
	return time.Date(2024, 5, day, hour, min, 0, 0, testLoc)
}

func TestGenerateSlots_GridAndBounds(t *testing.T) {
	now := at(10, 7, 15) // до открытия
	duration := 60 * time.Minute

	slots := GenerateSlots(duration, now, testConfig(2))

	// 09:00..20:00 включительно с шагом 30 минут = 23 слота в день
	require.Len(t, slots, 46)
	assert.Equal(t, at(10, 9, 0), slots[0])
	assert.Equal(t, at(10, 20, 0), slots[22])
	assert.Equal(t, at(11, 9, 0), slots[23])
	assert.Equal(t, at(11, 20, 0), slots[45])

	for i, s := range slots {
		assert.Zero(t, s.Second())
		assert.Zero(t, (s.Minute())%30, "slot %d off grid: %s", i, s)
		assert.False(t, s.Add(duration).After(time.Date(s.Year(), s.Month(), s.Day(), 21, 0, 0, 0, testLoc)))
		if i > 0 {
			assert.True(t, slots[i-1].Before(s))
		}
	}
}

func TestGenerateSlots_FirstDayClampedToNow(t *testing.T) {
	now := time.Date(2024, 5, 10, 14, 47, 31, 0, testLoc)

	slots := GenerateSlots(30*time.Minute, now, testConfig(1))

	require.NotEmpty(t, slots)
	assert.Equal(t, at(10, 14, 30), slots[0])
	assert.Equal(t, at(10, 20, 30), slots[len(slots)-1])
}

func TestGenerateSlots_EmptyDayWhenTooLate(t *testing.T) {
	now := at(10, 20, 45)

	slots := GenerateSlots(60*time.Minute, now, testConfig(2))

	// Сегодня слотов нет, завтра полный день
	require.NotEmpty(t, slots)
	assert.Equal(t, at(11, 9, 0), slots[0])
}

func TestGenerateSlots_DurationLongerThanDay(t *testing.T) {
	slots := GenerateSlots(13*time.Hour, at(10, 8, 0), testConfig(3))
	assert.Empty(t, slots)
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	now := at(10, 11, 5)
	first := GenerateSlots(45*time.Minute, now, testConfig(14))
	second := GenerateSlots(45*time.Minute, now, testConfig(14))
	assert.Equal(t, first, second)
}

func TestGenerateSlots_InvalidConfig(t *testing.T) {
	cfg := testConfig(1)
	cfg.Interval = 0
	assert.Empty(t, GenerateSlots(time.Hour, at(10, 8, 0), cfg))
}

func TestGenerateSlots_NowInOtherZone(t *testing.T) {
	// 05:10 UTC = 08:10 MSK, день ещё не начался
	now := time.Date(2024, 5, 10, 5, 10, 0, 0, time.UTC)

	slots := GenerateSlots(30*time.Minute, now, testConfig(1))

	require.NotEmpty(t, slots)
	assert.True(t, slots[0].Equal(at(10, 9, 0)))
}

func TestIsBusy(t *testing.T) {
	busy := []Interval{{Start: at(10, 10, 0), End: at(10, 10, 30)}}
	duration := 30 * time.Minute

	tests := []struct {
		name      string
		candidate time.Time
		want      bool
	}{
		{name: "ends exactly at busy start", candidate: at(10, 9, 30), want: false},
		{name: "same start", candidate: at(10, 10, 0), want: true},
		{name: "starts at busy end", candidate: at(10, 10, 30), want: false},
		{name: "overlaps start", candidate: at(10, 9, 45), want: true},
		{name: "inside", candidate: at(10, 10, 15), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBusy(tt.candidate, duration, busy))
		})
	}
}

func TestIsBusy_LongOffering(t *testing.T) {
	busy := []Interval{{Start: at(10, 12, 0), End: at(10, 13, 0)}}

	assert.True(t, IsBusy(at(10, 10, 30), 2*time.Hour, busy))
	assert.False(t, IsBusy(at(10, 10, 0), 2*time.Hour, busy))
	assert.False(t, IsBusy(at(10, 13, 0), 2*time.Hour, busy))
}

func TestFilterFreeSlots(t *testing.T) {
	candidates := []time.Time{at(10, 9, 30), at(10, 10, 0), at(10, 10, 30), at(10, 11, 0)}
	busy := []Interval{
		{Start: at(10, 10, 0), End: at(10, 10, 30)},
		{Start: at(10, 11, 0), End: at(10, 12, 0)},
	}

	free := FilterFreeSlots(candidates, 30*time.Minute, busy)

	assert.Equal(t, []time.Time{at(10, 9, 30), at(10, 10, 30)}, free)
}

func TestFilterFreeSlots_NoBusy(t *testing.T) {
	candidates := []time.Time{at(10, 9, 0), at(10, 9, 30)}
	assert.Equal(t, candidates, FilterFreeSlots(candidates, time.Hour, nil))
}

func TestContainsSlot(t *testing.T) {
	slots := []time.Time{at(10, 9, 0), at(10, 9, 30)}

	assert.True(t, ContainsSlot(slots, at(10, 9, 30).UTC()))
	assert.False(t, ContainsSlot(slots, at(10, 9, 15)))
}

func TestIncorrectCodeError_Is(t *testing.T) {
	var err error = &IncorrectCodeError{AttemptsLeft: 3}

	assert.ErrorIs(t, err, ErrIncorrectCode)
	assert.Contains(t, err.Error(), "3 attempts left")

	var target *IncorrectCodeError
	require.ErrorAs(t, err, &target)
	assert.False(t, target.Deleted)
}

func TestSlotsConfig_DayStart(t *testing.T) {
	cfg := testConfig(1)
	// 22:30 UTC 9 мая = 01:30 MSK 10 мая
	got := cfg.DayStart(time.Date(2024, 5, 9, 22, 30, 0, 0, time.UTC))
	assert.Equal(t, at(10, 0, 0), got)
}
