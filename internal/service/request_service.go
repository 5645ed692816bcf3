package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/climcare/repair-service/internal/domain"
	"github.com/climcare/repair-service/internal/events"
	"github.com/climcare/repair-service/internal/lifecycle"
	"github.com/climcare/repair-service/internal/policy"
	"github.com/climcare/repair-service/internal/repository"
	apperrors "github.com/climcare/repair-service/pkg/util/errorutil"
)

// RequestService coordinates repair request workflows: creation,
// policy-checked edits, comments and history.
type RequestService struct {
	requests   repository.RequestRepository
	users      repository.UserRepository
	comments   repository.CommentRepository
	history    repository.HistoryRepository
	dispatcher events.Dispatcher
}

// RequestDependencies bundles repositories for the request service.
type RequestDependencies struct {
	RequestRepo repository.RequestRepository
	UserRepo    repository.UserRepository
	CommentRepo repository.CommentRepository
	HistoryRepo repository.HistoryRepository
	Dispatcher  events.Dispatcher
}

// RequestCreateInput describes request creation payload.
type RequestCreateInput struct {
	ClientID       int64
	StartDate      *time.Time
	EquipmentType  string
	EquipmentModel string
	Problem        string
	Priority       domain.Priority
	MasterID       *int64
}

// RequestListFilter describes listing filters.
type RequestListFilter struct {
	Statuses      []domain.Status
	EquipmentType *string
	SearchTerm    *string
	StartFrom     *time.Time
	StartTo       *time.Time
	Limit         int
	Offset        int
}

// RequestDetail bundles a request with its visible comments and audit
// trail.
type RequestDetail struct {
	Request  *domain.Request
	Comments []domain.Comment
	History  []domain.StatusChangeRecord
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		requests:   deps.RequestRepo,
		users:      deps.UserRepo,
		comments:   deps.CommentRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateRequest registers a new repair request. Customers create for
// themselves; operators and managers may create on a customer's behalf.
// New requests always start in the initial status.
func (s *RequestService) CreateRequest(ctx context.Context, actor policy.Actor, input RequestCreateInput) (*domain.Request, error) {
	clientID := input.ClientID
	switch actor.Role {
	case domain.RoleCustomer:
		clientID = actor.ID
	case domain.RoleOperator, domain.RoleManager, domain.RoleAdministrator:
		if clientID == 0 {
			return nil, apperrors.NewValidationError("client_id required", nil)
		}
	default:
		return nil, apperrors.NewForbidden("role cannot create requests")
	}

	client, err := s.users.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("client", map[string]any{"client_id": clientID})
		}
		return nil, apperrors.MapError(err)
	}
	if client.Role != domain.RoleCustomer || !client.Active {
		return nil, apperrors.NewValidationError("client must be an active customer", map[string]any{"client_id": clientID})
	}

	if input.MasterID != nil {
		if err := s.verifyMaster(ctx, *input.MasterID); err != nil {
			return nil, err
		}
	}

	equipmentType := strings.TrimSpace(input.EquipmentType)
	equipmentModel := strings.TrimSpace(input.EquipmentModel)
	problem := strings.TrimSpace(input.Problem)
	if equipmentType == "" || equipmentModel == "" || problem == "" {
		return nil, apperrors.NewValidationError("equipment_type, equipment_model and problem_description required", nil)
	}

	startDate := time.Now().Truncate(24 * time.Hour)
	if input.StartDate != nil {
		startDate = *input.StartDate
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(priority)})
	}

	request := &domain.Request{
		StartDate:          startDate,
		EquipmentType:      equipmentType,
		EquipmentModel:     equipmentModel,
		ProblemDescription: problem,
		Status:             domain.StatusNew,
		Priority:           priority,
		MasterID:           input.MasterID,
		ClientID:           clientID,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: request.ID,
		ActorID:   actor.ID,
		Payload: events.RequestCreatedPayload{
			Number:        request.Number,
			ClientID:      request.ClientID,
			EquipmentType: request.EquipmentType,
			Priority:      request.Priority,
		},
	})
	return request, nil
}

// GetRequest returns a request with comments and history. Internal
// comments are stripped for customers.
func (s *RequestService) GetRequest(ctx context.Context, actor policy.Actor, requestID int64) (*RequestDetail, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	includeInternal := actor.Role != domain.RoleCustomer
	comments, err := s.comments.ListByRequest(ctx, requestID, includeInternal)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	history, err := s.history.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &RequestDetail{Request: request, Comments: comments, History: history}, nil
}

// ListRequests returns requests matching the filter. Every authenticated
// role may browse the register, matching the legacy behavior.
func (s *RequestService) ListRequests(ctx context.Context, filter RequestListFilter) ([]domain.Request, error) {
	requests, err := s.requests.ListWithFilter(ctx, repository.RequestFilter{
		Statuses:      filter.Statuses,
		EquipmentType: filter.EquipmentType,
		SearchTerm:    filter.SearchTerm,
		StartFrom:     filter.StartFrom,
		StartTo:       filter.StartTo,
		Limit:         filter.Limit,
		Offset:        filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

// EditRequest runs the full edit pipeline: evaluate the actor's tier,
// validate and apply the changes, persist, append the audit row, and
// publish events. The edit is all-or-nothing.
func (s *RequestService) EditRequest(ctx context.Context, actor policy.Actor, requestID int64, changes map[string]string) (*domain.Request, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	decision := policy.Evaluate(actor, request)
	if decision.Tier == policy.TierNone {
		return nil, apperrors.NewForbidden("no edit access to this request")
	}

	if err := s.verifyReferenceChanges(ctx, changes); err != nil {
		return nil, err
	}

	oldMaster := request.MasterID
	updated, record, err := lifecycle.ApplyEdit(*request, changes, decision)
	if err != nil {
		return nil, err
	}

	if err := s.requests.Update(ctx, &updated); err != nil {
		return nil, apperrors.MapError(err)
	}
	if record != nil {
		if err := s.history.Create(ctx, record); err != nil {
			return nil, apperrors.MapError(err)
		}
		s.publishEvent(ctx, events.Event{
			Type:      events.EventRequestStatusChanged,
			RequestID: updated.ID,
			ActorID:   actor.ID,
			Payload: events.RequestStatusChangedPayload{
				OldStatus: record.OldStatus,
				NewStatus: record.NewStatus,
				ClientID:  updated.ClientID,
				MasterID:  updated.MasterID,
			},
		})
	}
	if masterChanged(oldMaster, updated.MasterID) {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventRequestAssigned,
			RequestID: updated.ID,
			ActorID:   actor.ID,
			Payload: events.RequestAssignedPayload{
				OldMasterID: oldMaster,
				NewMasterID: updated.MasterID,
			},
		})
	}
	return &updated, nil
}

// AddComment appends a comment to a request. Customers may only post
// external comments.
func (s *RequestService) AddComment(ctx context.Context, actor policy.Actor, requestID int64, message string, internal bool) (*domain.Comment, error) {
	if _, err := s.loadRequest(ctx, requestID); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}
	if internal && actor.Role == domain.RoleCustomer {
		return nil, apperrors.NewForbidden("customers cannot post internal comments")
	}

	comment := &domain.Comment{
		RequestID: requestID,
		AuthorID:  actor.ID,
		Message:   message,
		Internal:  internal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventCommentAdded,
		RequestID: requestID,
		ActorID:   actor.ID,
		Payload: events.CommentAddedPayload{
			CommentID: comment.ID,
			AuthorID:  comment.AuthorID,
			Internal:  comment.Internal,
		},
	})
	return comment, nil
}

func (s *RequestService) loadRequest(ctx context.Context, requestID int64) (*domain.Request, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	return request, nil
}

// verifyReferenceChanges checks user references in a proposed change map
// before the lifecycle engine touches the snapshot: a reassigned client
// must be an active customer and a reassigned master an active
// specialist or manager.
func (s *RequestService) verifyReferenceChanges(ctx context.Context, changes map[string]string) error {
	if raw, ok := changes[string(policy.FieldClient)]; ok && strings.TrimSpace(raw) != "" {
		id, err := parseUserID(raw)
		if err != nil {
			return err
		}
		client, err := s.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("client", map[string]any{"client_id": raw})
			}
			return apperrors.MapError(err)
		}
		if client.Role != domain.RoleCustomer || !client.Active {
			return apperrors.NewValidationError("client must be an active customer", map[string]any{"client_id": raw})
		}
	}
	if raw, ok := changes[string(policy.FieldMaster)]; ok && strings.TrimSpace(raw) != "" {
		id, err := parseUserID(raw)
		if err != nil {
			return err
		}
		if err := s.verifyMaster(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *RequestService) verifyMaster(ctx context.Context, masterID int64) error {
	master, err := s.users.GetByID(ctx, masterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("master", map[string]any{"master_id": masterID})
		}
		return apperrors.MapError(err)
	}
	if (master.Role != domain.RoleSpecialist && master.Role != domain.RoleManager) || !master.Active {
		return apperrors.NewValidationError("master must be an active specialist or manager", map[string]any{"master_id": masterID})
	}
	return nil
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid identifier", map[string]any{"value": raw})
	}
	return id, nil
}

func masterChanged(old, new *int64) bool {
	switch {
	case old == nil && new == nil:
		return false
	case old == nil || new == nil:
		return true
	default:
		return *old != *new
	}
}

func (s *RequestService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
