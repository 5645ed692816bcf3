package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/climcare/repair-service/internal/api/dto"
	"github.com/climcare/repair-service/internal/auth"
	"github.com/climcare/repair-service/internal/domain"
	"github.com/climcare/repair-service/internal/lifecycle"
	"github.com/climcare/repair-service/internal/policy"
	"github.com/climcare/repair-service/internal/service"
	apperrors "github.com/climcare/repair-service/pkg/util/errorutil"
)

// RequestsHandler manages repair request endpoints.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// CreateRequest POST /requests.
func (h *RequestsHandler) CreateRequest(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateRequestPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.RequestCreateInput{
		ClientID:       req.ClientID,
		EquipmentType:  req.EquipmentType,
		EquipmentModel: req.EquipmentModel,
		Problem:        req.Problem,
		Priority:       req.Priority,
		MasterID:       req.MasterID,
	}
	if strings.TrimSpace(req.StartDate) != "" {
		startDate, err := time.Parse(lifecycle.DateLayout, req.StartDate)
		if err != nil {
			return apperrors.NewValidationError("start_date must be formatted as YYYY-MM-DD", nil)
		}
		input.StartDate = &startDate
	}

	request, err := h.service.CreateRequest(c.Context(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestSummary(request)})
}

// ListRequests GET /requests.
func (h *RequestsHandler) ListRequests(c *fiber.Ctx) error {
	if _, err := actorFromContext(c); err != nil {
		return err
	}
	filter := parseRequestQuery(c)
	requests, err := h.service.ListRequests(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.RequestSummary, 0, len(requests))
	for i := range requests {
		items = append(items, requestSummary(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetRequest GET /requests/:id.
func (h *RequestsHandler) GetRequest(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	requestID, err := parseIDParam(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetRequest(c.Context(), actor, requestID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestDetail(detail)})
}

// EditRequest PATCH /requests/:id.
func (h *RequestsHandler) EditRequest(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	requestID, err := parseIDParam(c)
	if err != nil {
		return err
	}
	var req dto.EditRequestPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.Changes) == 0 {
		return apperrors.NewValidationError("changes required", nil)
	}

	request, err := h.service.EditRequest(c.Context(), actor, requestID, req.Changes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(request)})
}

// AddComment POST /requests/:id/comments.
func (h *RequestsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	requestID, err := parseIDParam(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, err := h.service.AddComment(c.Context(), actor, requestID, req.Message, req.Internal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

func actorFromContext(c *fiber.Ctx) (policy.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return policy.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return policy.Actor{ID: principal.User.ID, Role: principal.User.Role}, nil
}

func parseIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid request id", nil)
	}
	return id, nil
}

func parseRequestQuery(c *fiber.Ctx) service.RequestListFilter {
	filter := service.RequestListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.Status(strings.TrimSpace(part)))
		}
	}
	if equipmentType := strings.TrimSpace(c.Query("equipment_type")); equipmentType != "" {
		filter.EquipmentType = &equipmentType
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseDateQuery(c.Query("start_from")); from != nil {
		filter.StartFrom = from
	}
	if to := parseDateQuery(c.Query("start_to")); to != nil {
		filter.StartTo = to
	}
	filter.Limit = c.QueryInt("limit", 20)
	filter.Offset = c.QueryInt("offset", 0)
	return filter
}

func parseDateQuery(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(lifecycle.DateLayout, value)
	if err != nil {
		return nil
	}
	return &parsed
}

func requestSummary(request *domain.Request) dto.RequestSummary {
	return dto.RequestSummary{
		ID:             request.ID,
		Number:         request.Number,
		StartDate:      request.StartDate.Format(lifecycle.DateLayout),
		EquipmentType:  request.EquipmentType,
		EquipmentModel: request.EquipmentModel,
		Status:         request.Status,
		Priority:       request.Priority,
		ClientID:       request.ClientID,
		MasterID:       request.MasterID,
		CreatedAt:      request.CreatedAt,
		UpdatedAt:      request.UpdatedAt,
	}
}

func requestDetail(detail *service.RequestDetail) dto.RequestDetailResponse {
	response := dto.RequestDetailResponse{
		RequestSummary: requestSummary(detail.Request),
		Problem:        detail.Request.ProblemDescription,
		RepairParts:    detail.Request.RepairParts,
		Comments:       make([]dto.CommentResponse, 0, len(detail.Comments)),
		History:        make([]dto.HistoryEntry, 0, len(detail.History)),
	}
	if detail.Request.CompletionDate != nil {
		formatted := detail.Request.CompletionDate.Format(lifecycle.DateLayout)
		response.CompletionDate = &formatted
	}
	for i := range detail.Comments {
		response.Comments = append(response.Comments, commentResponse(&detail.Comments[i]))
	}
	for _, entry := range detail.History {
		response.History = append(response.History, dto.HistoryEntry{
			ID:        entry.ID,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			ChangedBy: entry.ChangedBy,
			ChangedAt: entry.ChangedAt,
		})
	}
	return response
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        comment.ID,
		AuthorID:  comment.AuthorID,
		Message:   comment.Message,
		Internal:  comment.Internal,
		CreatedAt: comment.CreatedAt,
	}
}
