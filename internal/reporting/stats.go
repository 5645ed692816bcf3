// Package reporting computes on-demand aggregates over request
// snapshots. Nothing here is cached or incrementally maintained; callers
// scan the store and hand the snapshots in.
package reporting

import (
	"sort"

	"github.com/climcare/repair-service/internal/domain"
)

// TypeCount pairs an equipment type with its request count.
type TypeCount struct {
	EquipmentType string `json:"equipment_type"`
	Count         int    `json:"count"`
}

// Statistics holds the derived reporting aggregates.
// AverageTurnaroundDays is nil when no completed request carries a
// completion date — "no data" is distinct from an average of zero.
type Statistics struct {
	FinishedCount         int         `json:"finished_count"`
	AverageTurnaroundDays *float64    `json:"average_turnaround_days,omitempty"`
	CountByEquipmentType  []TypeCount `json:"count_by_equipment_type"`
}

// Compute derives statistics from the given snapshots. An empty input
// yields zero counts, an absent average and an empty breakdown; Compute
// never fails.
func Compute(requests []domain.Request) Statistics {
	stats := Statistics{CountByEquipmentType: []TypeCount{}}

	var totalDays float64
	var measured int
	byType := make(map[string]int)

	for _, request := range requests {
		byType[request.EquipmentType]++
		if request.Status != domain.StatusCompleted {
			continue
		}
		stats.FinishedCount++
		if request.CompletionDate == nil {
			continue
		}
		totalDays += request.CompletionDate.Sub(request.StartDate).Hours() / 24
		measured++
	}

	if measured > 0 {
		avg := totalDays / float64(measured)
		stats.AverageTurnaroundDays = &avg
	}

	for equipmentType, count := range byType {
		stats.CountByEquipmentType = append(stats.CountByEquipmentType, TypeCount{
			EquipmentType: equipmentType,
			Count:         count,
		})
	}
	// Descending by count, alphabetical tiebreak for a reproducible order.
	sort.Slice(stats.CountByEquipmentType, func(i, j int) bool {
		a, b := stats.CountByEquipmentType[i], stats.CountByEquipmentType[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.EquipmentType < b.EquipmentType
	})

	return stats
}

// Turnaround returns the elapsed days between start and completion for a
// single request, or false when the request has no completion date.
func Turnaround(request domain.Request) (float64, bool) {
	if request.CompletionDate == nil {
		return 0, false
	}
	return request.CompletionDate.Sub(request.StartDate).Hours() / 24, true
}
