package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	_ "time/tzdata"
)

func TestInPlaceFilter(t *testing.T) {
	values := []int{1, 2, 3, 4, 5, 6}

	InPlaceFilter(&values, func(v int) bool { return v%2 == 0 })

	assert.Equal(t, []int{2, 4, 6}, values)
}

func TestRemoveDuplicateStrings(t *testing.T) {
	assert.Equal(t, []string{"b", "c"}, RemoveDuplicateStrings([]string{"a", "b", "", "b", "c"}, []string{"a"}))
}

func TestNormaliseName(t *testing.T) {
	assert.Equal(t, "penn station", NormaliseName("  Penn   STATION "))
}

func TestServiceDays(t *testing.T) {
	location, _ := time.LoadLocation("America/New_York")

	date, err := ParseServiceDate("20240101", location)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, location), date)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, location), NextDay(date))
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, location), PreviousDay(date.Add(5*time.Hour)))
	assert.Equal(t, date, StartOfDay(date.Add(17*time.Hour)))
}

func TestServiceDayOrigin(t *testing.T) {
	location, _ := time.LoadLocation("America/New_York")

	assert.True(t, time.Date(2024, 1, 8, 0, 0, 0, 0, location).Equal(ServiceDayOrigin(time.Date(2024, 1, 8, 0, 0, 0, 0, location))))
	// Clocks go forward at 02:00 so the day starts an hour before local midnight
	assert.True(t, time.Date(2024, 3, 10, 4, 0, 0, 0, time.UTC).Equal(ServiceDayOrigin(time.Date(2024, 3, 10, 0, 0, 0, 0, location))))
	assert.True(t, time.Date(2024, 11, 3, 5, 0, 0, 0, time.UTC).Equal(ServiceDayOrigin(time.Date(2024, 11, 3, 0, 0, 0, 0, location))))
}
