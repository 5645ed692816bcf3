package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climcare/repair-service/internal/domain"
	"github.com/climcare/repair-service/internal/events"
	"github.com/climcare/repair-service/internal/lifecycle"
	"github.com/climcare/repair-service/internal/policy"
	"github.com/climcare/repair-service/internal/repository"
	apperrors "github.com/climcare/repair-service/pkg/util/errorutil"
)

// --- in-memory stubs ---

type memoryUserRepo struct {
	users map[int64]*domain.User
}

func newMemoryUserRepo(users ...*domain.User) *memoryUserRepo {
	repo := &memoryUserRepo{users: make(map[int64]*domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *memoryUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = int64(len(r.users) + 1)
	user.RegisteredAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *memoryUserRepo) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Login == login {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryUserRepo) List(_ context.Context) ([]domain.User, error) {
	result := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		result = append(result, *user)
	}
	return result, nil
}

func (r *memoryUserRepo) ListByRole(_ context.Context, role domain.Role, activeOnly bool) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if user.Role != role {
			continue
		}
		if activeOnly && !user.Active {
			continue
		}
		result = append(result, *user)
	}
	return result, nil
}

type memoryRequestRepo struct {
	requests map[int64]*domain.Request
	nextID   int64
}

func newMemoryRequestRepo(requests ...*domain.Request) *memoryRequestRepo {
	repo := &memoryRequestRepo{requests: make(map[int64]*domain.Request), nextID: 1}
	for _, request := range requests {
		repo.requests[request.ID] = request
		if request.ID >= repo.nextID {
			repo.nextID = request.ID + 1
		}
	}
	return repo
}

func (r *memoryRequestRepo) Create(_ context.Context, request *domain.Request) error {
	request.ID = r.nextID
	r.nextID++
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	request.Number = lifecycle.Number(request.ID, request.CreatedAt)
	stored := *request
	r.requests[request.ID] = &stored
	return nil
}

func (r *memoryRequestRepo) Update(_ context.Context, request *domain.Request) error {
	if _, ok := r.requests[request.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *request
	r.requests[request.ID] = &stored
	return nil
}

func (r *memoryRequestRepo) GetByID(_ context.Context, id int64) (*domain.Request, error) {
	request, ok := r.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *request
	return &copied, nil
}

func (r *memoryRequestRepo) GetByNumber(_ context.Context, number string) (*domain.Request, error) {
	for _, request := range r.requests {
		if request.Number == number {
			copied := *request
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryRequestRepo) ListWithFilter(_ context.Context, _ repository.RequestFilter) ([]domain.Request, error) {
	return r.listAll()
}

func (r *memoryRequestRepo) ListAll(_ context.Context) ([]domain.Request, error) {
	return r.listAll()
}

func (r *memoryRequestRepo) listAll() ([]domain.Request, error) {
	result := make([]domain.Request, 0, len(r.requests))
	for _, request := range r.requests {
		result = append(result, *request)
	}
	return result, nil
}

type memoryCommentRepo struct {
	comments []domain.Comment
}

func (r *memoryCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	comment.ID = int64(len(r.comments) + 1)
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *memoryCommentRepo) ListByRequest(_ context.Context, requestID int64, includeInternal bool) ([]domain.Comment, error) {
	var result []domain.Comment
	for _, comment := range r.comments {
		if comment.RequestID != requestID {
			continue
		}
		if comment.Internal && !includeInternal {
			continue
		}
		result = append(result, comment)
	}
	return result, nil
}

type memoryHistoryRepo struct {
	records []domain.StatusChangeRecord
}

func (r *memoryHistoryRepo) Create(_ context.Context, record *domain.StatusChangeRecord) error {
	record.ID = int64(len(r.records) + 1)
	record.ChangedAt = time.Now()
	r.records = append(r.records, *record)
	return nil
}

func (r *memoryHistoryRepo) ListByRequest(_ context.Context, requestID int64) ([]domain.StatusChangeRecord, error) {
	var result []domain.StatusChangeRecord
	for _, record := range r.records {
		if record.RequestID == requestID {
			result = append(result, record)
		}
	}
	return result, nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) typesSeen() []events.EventType {
	types := make([]events.EventType, 0, len(d.published))
	for _, event := range d.published {
		types = append(types, event.Type)
	}
	return types
}

// --- fixtures ---

func activeUser(id int64, role domain.Role) *domain.User {
	return &domain.User{ID: id, FullName: "user", Login: "user", Role: role, Active: true}
}

type fixture struct {
	service    *RequestService
	users      *memoryUserRepo
	requests   *memoryRequestRepo
	comments   *memoryCommentRepo
	history    *memoryHistoryRepo
	dispatcher *recordingDispatcher
}

func newFixture(users []*domain.User, requests ...*domain.Request) *fixture {
	f := &fixture{
		users:      newMemoryUserRepo(users...),
		requests:   newMemoryRequestRepo(requests...),
		comments:   &memoryCommentRepo{},
		history:    &memoryHistoryRepo{},
		dispatcher: &recordingDispatcher{},
	}
	f.service = NewRequestService(RequestDependencies{
		RequestRepo: f.requests,
		UserRepo:    f.users,
		CommentRepo: f.comments,
		HistoryRepo: f.history,
		Dispatcher:  f.dispatcher,
	})
	return f
}

func storedRequest(clientID int64, masterID *int64, status domain.Status) *domain.Request {
	created := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	return &domain.Request{
		ID:                 42,
		Number:             "REQ-202403-0042",
		StartDate:          created,
		EquipmentType:      "Кондиционер",
		EquipmentModel:     "Daikin FTXB25",
		ProblemDescription: "Не охлаждает",
		Status:             status,
		Priority:           domain.PriorityMedium,
		MasterID:           masterID,
		ClientID:           clientID,
		CreatedAt:          created,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}

// --- CreateRequest ---

func TestCreateRequestCustomerCreatesForSelf(t *testing.T) {
	f := newFixture([]*domain.User{activeUser(10, domain.RoleCustomer)})

	request, err := f.service.CreateRequest(context.Background(),
		policy.Actor{ID: 10, Role: domain.RoleCustomer},
		RequestCreateInput{
			ClientID:       999, // ignored: customers always create for themselves
			EquipmentType:  "Кондиционер",
			EquipmentModel: "Daikin FTXB25",
			Problem:        "Не охлаждает",
		})
	require.NoError(t, err)
	assert.EqualValues(t, 10, request.ClientID)
	assert.Equal(t, domain.StatusNew, request.Status)
	assert.Equal(t, domain.PriorityMedium, request.Priority)
	assert.NotEmpty(t, request.Number)
	assert.Equal(t, []events.EventType{events.EventRequestCreated}, f.dispatcher.typesSeen())
}

func TestCreateRequestOperatorOnBehalf(t *testing.T) {
	f := newFixture([]*domain.User{
		activeUser(10, domain.RoleCustomer),
		activeUser(5, domain.RoleOperator),
	})

	request, err := f.service.CreateRequest(context.Background(),
		policy.Actor{ID: 5, Role: domain.RoleOperator},
		RequestCreateInput{
			ClientID:       10,
			EquipmentType:  "Увлажнитель",
			EquipmentModel: "Boneco U350",
			Problem:        "Шумит",
		})
	require.NoError(t, err)
	assert.EqualValues(t, 10, request.ClientID)
}

func TestCreateRequestOperatorMissingClient(t *testing.T) {
	f := newFixture([]*domain.User{activeUser(5, domain.RoleOperator)})

	_, err := f.service.CreateRequest(context.Background(),
		policy.Actor{ID: 5, Role: domain.RoleOperator},
		RequestCreateInput{EquipmentType: "x", EquipmentModel: "y", Problem: "z"})
	require.Error(t, err)
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestCreateRequestSpecialistForbidden(t *testing.T) {
	f := newFixture([]*domain.User{activeUser(20, domain.RoleSpecialist)})

	_, err := f.service.CreateRequest(context.Background(),
		policy.Actor{ID: 20, Role: domain.RoleSpecialist},
		RequestCreateInput{ClientID: 10, EquipmentType: "x", EquipmentModel: "y", Problem: "z"})
	require.Error(t, err)
	assertCode(t, err, "FORBIDDEN")
}

func TestCreateRequestClientMustBeActiveCustomer(t *testing.T) {
	inactive := activeUser(10, domain.RoleCustomer)
	inactive.Active = false
	f := newFixture([]*domain.User{inactive, activeUser(5, domain.RoleManager)})

	_, err := f.service.CreateRequest(context.Background(),
		policy.Actor{ID: 5, Role: domain.RoleManager},
		RequestCreateInput{ClientID: 10, EquipmentType: "x", EquipmentModel: "y", Problem: "z"})
	require.Error(t, err)
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestCreateRequestMasterMustBeSpecialist(t *testing.T) {
	master := int64(7)
	f := newFixture([]*domain.User{
		activeUser(10, domain.RoleCustomer),
		activeUser(5, domain.RoleManager),
		activeUser(7, domain.RoleOperator), // wrong role for assignment
	})

	_, err := f.service.CreateRequest(context.Background(),
		policy.Actor{ID: 5, Role: domain.RoleManager},
		RequestCreateInput{ClientID: 10, MasterID: &master, EquipmentType: "x", EquipmentModel: "y", Problem: "z"})
	require.Error(t, err)
	assertCode(t, err, "VALIDATION_FAILED")
}

// --- EditRequest ---

func TestEditRequestManagerFullEdit(t *testing.T) {
	f := newFixture(
		[]*domain.User{activeUser(1, domain.RoleManager)},
		storedRequest(10, nil, domain.StatusNew),
	)

	updated, err := f.service.EditRequest(context.Background(),
		policy.Actor{ID: 1, Role: domain.RoleManager}, 42,
		map[string]string{"status": string(domain.StatusInRepair)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInRepair, updated.Status)

	require.Len(t, f.history.records, 1)
	assert.Equal(t, domain.StatusNew, f.history.records[0].OldStatus)
	assert.Equal(t, domain.StatusInRepair, f.history.records[0].NewStatus)
	assert.Equal(t, []events.EventType{events.EventRequestStatusChanged}, f.dispatcher.typesSeen())
}

func TestEditRequestCustomerCannotTouchStatus(t *testing.T) {
	f := newFixture(
		[]*domain.User{activeUser(10, domain.RoleCustomer)},
		storedRequest(10, nil, domain.StatusNew),
	)

	_, err := f.service.EditRequest(context.Background(),
		policy.Actor{ID: 10, Role: domain.RoleCustomer}, 42,
		map[string]string{
			"problem_description": "Новое описание",
			"status":              string(domain.StatusCancelled),
		})
	require.Error(t, err)
	assertCode(t, err, "AUTHORIZATION_FAILED")

	// Nothing persisted, no audit row, no events.
	stored, getErr := f.requests.GetByID(context.Background(), 42)
	require.NoError(t, getErr)
	assert.Equal(t, "Не охлаждает", stored.ProblemDescription)
	assert.Equal(t, domain.StatusNew, stored.Status)
	assert.Empty(t, f.history.records)
	assert.Empty(t, f.dispatcher.published)
}

func TestEditRequestForeignActorForbidden(t *testing.T) {
	f := newFixture(
		[]*domain.User{activeUser(11, domain.RoleCustomer)},
		storedRequest(10, nil, domain.StatusNew),
	)

	_, err := f.service.EditRequest(context.Background(),
		policy.Actor{ID: 11, Role: domain.RoleCustomer}, 42,
		map[string]string{"problem_description": "x"})
	require.Error(t, err)
	assertCode(t, err, "FORBIDDEN")
}

func TestEditRequestReassignmentPublishesAssignedEvent(t *testing.T) {
	f := newFixture(
		[]*domain.User{
			activeUser(1, domain.RoleManager),
			activeUser(33, domain.RoleSpecialist),
		},
		storedRequest(10, nil, domain.StatusNew),
	)

	updated, err := f.service.EditRequest(context.Background(),
		policy.Actor{ID: 1, Role: domain.RoleManager}, 42,
		map[string]string{
			"status":    string(domain.StatusInRepair),
			"master_id": "33",
		})
	require.NoError(t, err)
	require.NotNil(t, updated.MasterID)
	assert.EqualValues(t, 33, *updated.MasterID)

	// The audit row attributes the transition to the newly assigned master.
	require.Len(t, f.history.records, 1)
	require.NotNil(t, f.history.records[0].ChangedBy)
	assert.EqualValues(t, 33, *f.history.records[0].ChangedBy)

	assert.ElementsMatch(t,
		[]events.EventType{events.EventRequestStatusChanged, events.EventRequestAssigned},
		f.dispatcher.typesSeen())
}

func TestEditRequestUnknownMasterRejected(t *testing.T) {
	f := newFixture(
		[]*domain.User{activeUser(1, domain.RoleManager)},
		storedRequest(10, nil, domain.StatusNew),
	)

	_, err := f.service.EditRequest(context.Background(),
		policy.Actor{ID: 1, Role: domain.RoleManager}, 42,
		map[string]string{"master_id": "404"})
	require.Error(t, err)
	assertCode(t, err, "NOT_FOUND")
}

func TestEditRequestNotFound(t *testing.T) {
	f := newFixture([]*domain.User{activeUser(1, domain.RoleManager)})

	_, err := f.service.EditRequest(context.Background(),
		policy.Actor{ID: 1, Role: domain.RoleManager}, 404,
		map[string]string{"status": string(domain.StatusInRepair)})
	require.Error(t, err)
	assertCode(t, err, "NOT_FOUND")
}

func TestEditRequestNoStatusChangeNoRecord(t *testing.T) {
	master := int64(20)
	f := newFixture(
		[]*domain.User{activeUser(20, domain.RoleSpecialist)},
		storedRequest(10, &master, domain.StatusInRepair),
	)

	_, err := f.service.EditRequest(context.Background(),
		policy.Actor{ID: 20, Role: domain.RoleSpecialist}, 42,
		map[string]string{"equipment_model": "Daikin FTXB35"})
	require.NoError(t, err)
	assert.Empty(t, f.history.records)
	assert.Empty(t, f.dispatcher.published)
}

// --- GetRequest / comments ---

func TestGetRequestHidesInternalCommentsFromCustomers(t *testing.T) {
	f := newFixture(
		[]*domain.User{
			activeUser(10, domain.RoleCustomer),
			activeUser(1, domain.RoleManager),
		},
		storedRequest(10, nil, domain.StatusNew),
	)

	_, err := f.service.AddComment(context.Background(),
		policy.Actor{ID: 1, Role: domain.RoleManager}, 42, "внутренняя заметка", true)
	require.NoError(t, err)
	_, err = f.service.AddComment(context.Background(),
		policy.Actor{ID: 1, Role: domain.RoleManager}, 42, "ответ клиенту", false)
	require.NoError(t, err)

	asCustomer, err := f.service.GetRequest(context.Background(),
		policy.Actor{ID: 10, Role: domain.RoleCustomer}, 42)
	require.NoError(t, err)
	require.Len(t, asCustomer.Comments, 1)
	assert.Equal(t, "ответ клиенту", asCustomer.Comments[0].Message)

	asManager, err := f.service.GetRequest(context.Background(),
		policy.Actor{ID: 1, Role: domain.RoleManager}, 42)
	require.NoError(t, err)
	assert.Len(t, asManager.Comments, 2)
}

func TestAddCommentCustomerCannotPostInternal(t *testing.T) {
	f := newFixture(
		[]*domain.User{activeUser(10, domain.RoleCustomer)},
		storedRequest(10, nil, domain.StatusNew),
	)

	_, err := f.service.AddComment(context.Background(),
		policy.Actor{ID: 10, Role: domain.RoleCustomer}, 42, "секрет", true)
	require.Error(t, err)
	assertCode(t, err, "FORBIDDEN")
}

func TestAddCommentEmptyMessageRejected(t *testing.T) {
	f := newFixture(
		[]*domain.User{activeUser(1, domain.RoleManager)},
		storedRequest(10, nil, domain.StatusNew),
	)

	_, err := f.service.AddComment(context.Background(),
		policy.Actor{ID: 1, Role: domain.RoleManager}, 42, "   ", false)
	require.Error(t, err)
	assertCode(t, err, "VALIDATION_FAILED")
}
