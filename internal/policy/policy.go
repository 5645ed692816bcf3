// Package policy decides which permission tier an actor holds on a repair
// request and which fields that tier may write. Evaluation is a pure
// function of the actor's role and the actor's relationship to the
// request (owning client, assigned master) — no other request state
// participates in the decision.
package policy

import "github.com/climcare/repair-service/internal/domain"

// Tier is the three-level permission outcome.
type Tier int

const (
	TierNone Tier = iota
	TierPartial
	TierFull
)

// String returns a stable name for logging and error details.
func (t Tier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierPartial:
		return "partial"
	default:
		return "none"
	}
}

// Field names a writable request attribute. Values match the storage
// column names so proposed-change maps can be passed through unchanged.
type Field string

const (
	FieldStartDate      Field = "start_date"
	FieldEquipmentType  Field = "equipment_type"
	FieldEquipmentModel Field = "equipment_model"
	FieldProblem        Field = "problem_description"
	FieldStatus         Field = "status"
	FieldPriority       Field = "priority"
	FieldCompletionDate Field = "completion_date"
	FieldRepairParts    Field = "repair_parts"
	FieldMaster         Field = "master_id"
	FieldClient         Field = "client_id"
)

// FieldSet is an unordered set of writable fields.
type FieldSet map[Field]struct{}

// Contains reports membership.
func (s FieldSet) Contains(f Field) bool {
	_, ok := s[f]
	return ok
}

func newFieldSet(fields ...Field) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

var (
	fullFields = newFieldSet(
		FieldStartDate,
		FieldEquipmentType,
		FieldEquipmentModel,
		FieldProblem,
		FieldStatus,
		FieldPriority,
		FieldCompletionDate,
		FieldRepairParts,
		FieldMaster,
		FieldClient,
	)
	clientFields = newFieldSet(
		FieldStartDate,
		FieldProblem,
	)
	statusFields = newFieldSet(
		FieldStatus,
		FieldEquipmentType,
		FieldEquipmentModel,
		FieldCompletionDate,
		FieldMaster,
	)
	noFields = newFieldSet()
)

// Actor identifies the authenticated caller for policy purposes.
type Actor struct {
	ID   int64
	Role domain.Role
}

// Decision is the evaluation outcome: the tier plus the exact field set
// writable under it. Customer-partial and specialist-partial share a tier
// but not a field set, so the set travels with the decision.
type Decision struct {
	Tier     Tier
	Writable FieldSet
}

// Evaluate applies the rule table in priority order, first match wins:
//
//	Manager/Administrator        -> full, all fields
//	Customer owning the request  -> partial, start date + problem only
//	Specialist assigned to it    -> partial, status/equipment/completion/master
//	Operator                     -> partial, same set as an assigned specialist,
//	                                regardless of assignment
//	anyone else                  -> none
//
// A nil request fails closed: TierNone.
func Evaluate(actor Actor, request *domain.Request) Decision {
	if request == nil {
		return Decision{Tier: TierNone, Writable: noFields}
	}

	switch actor.Role {
	case domain.RoleManager, domain.RoleAdministrator:
		return Decision{Tier: TierFull, Writable: fullFields}
	case domain.RoleCustomer:
		if request.ClientID == actor.ID {
			return Decision{Tier: TierPartial, Writable: clientFields}
		}
	case domain.RoleSpecialist:
		if request.MasterID != nil && *request.MasterID == actor.ID {
			return Decision{Tier: TierPartial, Writable: statusFields}
		}
	case domain.RoleOperator:
		return Decision{Tier: TierPartial, Writable: statusFields}
	}
	return Decision{Tier: TierNone, Writable: noFields}
}
