package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climcare/repair-service/internal/domain"
)

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func finished(equipmentType, start, completion string) domain.Request {
	completed := day(completion)
	return domain.Request{
		EquipmentType:  equipmentType,
		StartDate:      day(start),
		Status:         domain.StatusCompleted,
		CompletionDate: &completed,
	}
}

func open(equipmentType string, status domain.Status) domain.Request {
	return domain.Request{
		EquipmentType: equipmentType,
		StartDate:     day("2024-03-01"),
		Status:        status,
	}
}

func TestComputeEmpty(t *testing.T) {
	stats := Compute(nil)

	assert.Zero(t, stats.FinishedCount)
	assert.Nil(t, stats.AverageTurnaroundDays)
	assert.Empty(t, stats.CountByEquipmentType)
	assert.NotNil(t, stats.CountByEquipmentType)
}

func TestComputeAverageTurnaround(t *testing.T) {
	requests := []domain.Request{
		finished("Кондиционер", "2024-03-01", "2024-03-03"),
		finished("Кондиционер", "2024-03-01", "2024-03-05"),
		finished("Увлажнитель", "2024-03-10", "2024-03-12"),
		finished("Сплит-система", "2024-04-01", "2024-04-05"),
	}

	stats := Compute(requests)
	assert.Equal(t, 4, stats.FinishedCount)
	require.NotNil(t, stats.AverageTurnaroundDays)
	assert.InDelta(t, 3.0, *stats.AverageTurnaroundDays, 1e-9)
}

func TestComputeFinishedWithoutCompletionDate(t *testing.T) {
	// Completed requests lacking a completion date count toward the
	// finished total but not the average.
	requests := []domain.Request{
		finished("Кондиционер", "2024-03-01", "2024-03-03"),
		{EquipmentType: "Кондиционер", StartDate: day("2024-03-01"), Status: domain.StatusCompleted},
	}

	stats := Compute(requests)
	assert.Equal(t, 2, stats.FinishedCount)
	require.NotNil(t, stats.AverageTurnaroundDays)
	assert.InDelta(t, 2.0, *stats.AverageTurnaroundDays, 1e-9)
}

func TestComputeNoMeasuredTurnaround(t *testing.T) {
	requests := []domain.Request{
		{EquipmentType: "Кондиционер", StartDate: day("2024-03-01"), Status: domain.StatusCompleted},
		open("Увлажнитель", domain.StatusInRepair),
	}

	stats := Compute(requests)
	assert.Equal(t, 1, stats.FinishedCount)
	assert.Nil(t, stats.AverageTurnaroundDays)
}

func TestComputeCountsEveryStatus(t *testing.T) {
	// The breakdown counts every request, not just finished ones.
	requests := []domain.Request{
		open("Кондиционер", domain.StatusNew),
		open("Кондиционер", domain.StatusCancelled),
		finished("Кондиционер", "2024-03-01", "2024-03-02"),
		open("Увлажнитель", domain.StatusAwaitingParts),
	}

	stats := Compute(requests)
	require.Len(t, stats.CountByEquipmentType, 2)
	assert.Equal(t, TypeCount{EquipmentType: "Кондиционер", Count: 3}, stats.CountByEquipmentType[0])
	assert.Equal(t, TypeCount{EquipmentType: "Увлажнитель", Count: 1}, stats.CountByEquipmentType[1])
}

func TestComputeOrderingAlphabeticalTiebreak(t *testing.T) {
	requests := []domain.Request{
		open("Вентиляция", domain.StatusNew),
		open("Кондиционер", domain.StatusNew),
		open("Вентиляция", domain.StatusNew),
		open("Кондиционер", domain.StatusNew),
		open("Абсорбер", domain.StatusNew),
	}

	stats := Compute(requests)
	require.Len(t, stats.CountByEquipmentType, 3)
	// Descending by count; ties resolve alphabetically.
	assert.Equal(t, "Вентиляция", stats.CountByEquipmentType[0].EquipmentType)
	assert.Equal(t, "Кондиционер", stats.CountByEquipmentType[1].EquipmentType)
	assert.Equal(t, "Абсорбер", stats.CountByEquipmentType[2].EquipmentType)
}

func TestTurnaround(t *testing.T) {
	request := finished("Кондиционер", "2024-03-01", "2024-03-04")
	days, ok := Turnaround(request)
	require.True(t, ok)
	assert.InDelta(t, 3.0, days, 1e-9)

	_, ok = Turnaround(open("Кондиционер", domain.StatusNew))
	assert.False(t, ok)
}
