// Package lifecycle validates and applies edits to repair requests. It is
// pure: callers load a request snapshot, hand it in together with the
// proposed field changes and the policy decision, and persist whatever
// comes back.
package lifecycle

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/climcare/repair-service/internal/domain"
	"github.com/climcare/repair-service/internal/policy"
	apperrors "github.com/climcare/repair-service/pkg/util/errorutil"
)

// DateLayout is the calendar-date wire format for start and completion
// dates.
const DateLayout = "2006-01-02"

// Number derives the human-readable request number from the numeric id
// and the creation time. Generated once at creation, immutable afterwards.
func Number(id int64, createdAt time.Time) string {
	return fmt.Sprintf("REQ-%d%02d-%04d", createdAt.Year(), int(createdAt.Month()), id)
}

// Transitions is the explicit status graph: terminal statuses accept
// nothing, every other status may move to any other member of the
// enumeration.
var transitions = map[domain.Status][]domain.Status{
	domain.StatusNew:            nonTerminalTargets(domain.StatusNew),
	domain.StatusInRepair:       nonTerminalTargets(domain.StatusInRepair),
	domain.StatusAwaitingParts:  nonTerminalTargets(domain.StatusAwaitingParts),
	domain.StatusReadyForPickup: nonTerminalTargets(domain.StatusReadyForPickup),
	domain.StatusCompleted:      {},
	domain.StatusCancelled:      {},
}

func nonTerminalTargets(from domain.Status) []domain.Status {
	targets := make([]domain.Status, 0, len(domain.Statuses)-1)
	for _, s := range domain.Statuses {
		if s != from {
			targets = append(targets, s)
		}
	}
	return targets
}

// CanTransition reports whether the graph permits moving between the two
// statuses.
func CanTransition(current, next domain.Status) bool {
	for _, candidate := range transitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ApplyEdit validates the proposed changes against the policy decision
// and the lifecycle invariants, then returns the updated snapshot. The
// edit is all-or-nothing: a single out-of-scope field rejects the whole
// map. When the status actually changed, the returned record captures the
// transition attributed to the request's master after the edit.
func ApplyEdit(request domain.Request, changes map[string]string, decision policy.Decision) (domain.Request, *domain.StatusChangeRecord, error) {
	if decision.Tier == policy.TierNone {
		return request, nil, apperrors.NewForbidden("no edit access to this request")
	}
	if len(changes) == 0 {
		return request, nil, apperrors.NewValidationError("no changes supplied", nil)
	}

	var denied []string
	for key := range changes {
		if !decision.Writable.Contains(policy.Field(key)) {
			denied = append(denied, key)
		}
	}
	if len(denied) > 0 {
		return request, nil, apperrors.NewAuthorizationError(denied)
	}

	updated := request
	oldStatus := request.Status

	for key, raw := range changes {
		value := strings.TrimSpace(raw)
		if err := applyField(&updated, policy.Field(key), value); err != nil {
			return request, nil, err
		}
	}

	if updated.CompletionDate != nil && updated.CompletionDate.Before(updated.StartDate) {
		return request, nil, apperrors.NewValidationError("completion date precedes start date", map[string]any{
			"start_date":      updated.StartDate.Format(DateLayout),
			"completion_date": updated.CompletionDate.Format(DateLayout),
		})
	}

	var record *domain.StatusChangeRecord
	if updated.Status != oldStatus {
		if !CanTransition(oldStatus, updated.Status) {
			return request, nil, apperrors.NewValidationError("status transition not allowed", map[string]any{
				"from": string(oldStatus),
				"to":   string(updated.Status),
			})
		}
		record = &domain.StatusChangeRecord{
			RequestID: request.ID,
			OldStatus: oldStatus,
			NewStatus: updated.Status,
			ChangedBy: updated.MasterID,
		}
	}

	updated.UpdatedAt = time.Now()
	return updated, record, nil
}

func applyField(request *domain.Request, field policy.Field, value string) error {
	switch field {
	case policy.FieldStartDate:
		date, err := parseDate(string(field), value, true)
		if err != nil {
			return err
		}
		request.StartDate = *date
	case policy.FieldCompletionDate:
		date, err := parseDate(string(field), value, false)
		if err != nil {
			return err
		}
		request.CompletionDate = date
	case policy.FieldEquipmentType:
		if value == "" {
			return requiredField(field)
		}
		request.EquipmentType = value
	case policy.FieldEquipmentModel:
		if value == "" {
			return requiredField(field)
		}
		request.EquipmentModel = value
	case policy.FieldProblem:
		if value == "" {
			return requiredField(field)
		}
		request.ProblemDescription = value
	case policy.FieldStatus:
		status := domain.Status(value)
		if !status.Valid() {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": value})
		}
		request.Status = status
	case policy.FieldPriority:
		priority := domain.Priority(value)
		if !priority.Valid() {
			return apperrors.NewValidationError("unknown priority", map[string]any{"priority": value})
		}
		request.Priority = priority
	case policy.FieldRepairParts:
		if value == "" {
			request.RepairParts = nil
		} else {
			parts := value
			request.RepairParts = &parts
		}
	case policy.FieldMaster:
		id, err := parseID(string(field), value)
		if err != nil {
			return err
		}
		request.MasterID = id
	case policy.FieldClient:
		id, err := parseID(string(field), value)
		if err != nil {
			return err
		}
		if id == nil {
			return requiredField(field)
		}
		request.ClientID = *id
	default:
		return apperrors.NewValidationError("unknown field", map[string]any{"field": string(field)})
	}
	return nil
}

func parseDate(field, value string, required bool) (*time.Time, error) {
	if value == "" {
		if required {
			return nil, apperrors.NewValidationError(field+" required", nil)
		}
		return nil, nil
	}
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, apperrors.NewValidationError("date must be formatted as YYYY-MM-DD", map[string]any{field: value})
	}
	return &date, nil
}

func parseID(field, value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperrors.NewValidationError("invalid identifier", map[string]any{field: value})
	}
	return &id, nil
}

func requiredField(field policy.Field) error {
	return apperrors.NewValidationError(string(field)+" cannot be empty", nil)
}
