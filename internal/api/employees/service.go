package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"

	"github.com/Artexxx/hr-services/internal/api"
	"github.com/Artexxx/hr-services/internal/dto"
	"github.com/Artexxx/hr-services/internal/exchange/rpc"
)

type Repository interface {
	Create(ctx context.Context, e dto.Employee) (int64, error)
	Update(ctx context.Context, e dto.Employee) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*dto.Employee, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]dto.Employee, error)
	ListByDepartment(ctx context.Context, departmentID int64) ([]dto.Employee, error)
}

type EventsRepository interface {
	ListEvents(ctx context.Context) ([]dto.KafkaEvent, error)
	ListDLQ(ctx context.Context) ([]dto.KafkaDLQ, error)
	ResetAll(ctx context.Context) error
}

type Guard interface {
	RequireExists(ctx context.Context, ref rpc.Ref) error
}

type DepartmentReader interface {
	GetByID(ctx context.Context, id int64) (*dto.Department, error)
}

type ReviewReader interface {
	ListByEmployee(ctx context.Context, employeeID int64) ([]dto.Review, error)
}

// PresenceEvicter drops cached "employee exists" markers that callers
// share through Redis.
type PresenceEvicter interface {
	Forget(ctx context.Context, key string) error
}

type Deps struct {
	Repo        Repository
	Events      EventsRepository
	Guard       Guard
	Departments DepartmentReader
	Reviews     ReviewReader
	// Presence is optional; when set, delete evicts the employee's marker.
	Presence PresenceEvicter
}

type Service struct {
	repo        Repository
	events      EventsRepository
	guard       Guard
	departments DepartmentReader
	reviews     ReviewReader
	presence    PresenceEvicter
	log         zerolog.Logger
}

func NewService(d Deps, log zerolog.Logger) *Service {
	return &Service{
		repo:        d.Repo,
		events:      d.Events,
		guard:       d.Guard,
		departments: d.Departments,
		reviews:     d.Reviews,
		presence:    d.Presence,
		log:         log.With().Str("component", "EmployeesAPI").Logger(),
	}
}

func (s *Service) Mount(r *router.Router) {
	r.POST("/employees", s.create)
	r.GET("/employees", s.list)
	r.GET("/employees/{id}", s.get)
	r.PUT("/employees/{id}", s.update)
	r.DELETE("/employees/{id}", s.delete)
	r.GET("/employees/{id}/exists", s.exists)

	// Events/DLQ
	r.GET("/events", s.listEvents)
	r.GET("/dlq", s.listDLQ)
	r.POST("/admin/reset", s.reset)
}

type employeeReq struct {
	FirstName    string `json:"first_name" example:"Анна"`       // Имя сотрудника
	LastName     string `json:"last_name" example:"Иванова"`     // Фамилия сотрудника
	Email        string `json:"email" example:"anna@company.ru"` // Почта, уникальна
	DepartmentID int64  `json:"department_id" example:"3"`       // Отдел, должен существовать в department-service
}

func (req employeeReq) toEmployee(id int64) (dto.Employee, error) {
	e := dto.Employee{
		ID:           id,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.TrimSpace(req.Email),
		DepartmentID: req.DepartmentID,
	}

	if e.FirstName == "" {
		return e, fmt.Errorf("%w: required field 'first_name'", api.ErrValidation)
	}

	if e.Email == "" {
		return e, fmt.Errorf("%w: required field 'email'", api.ErrValidation)
	}

	if !strings.Contains(e.Email, "@") {
		return e, fmt.Errorf("%w: invalid value in field 'email'=%s", api.ErrValidation, e.Email)
	}

	return e, nil
}

func notFound(ctx *fasthttp.RequestCtx, id int64) {
	api.Fail(ctx, fasthttp.StatusNotFound, fmt.Sprintf("Employee not found with id: %d", id))
}

func emailTaken(ctx *fasthttp.RequestCtx, email string) {
	api.Fail(ctx, fasthttp.StatusConflict, fmt.Sprintf("Employee with email %s already exists", email))
}

// @Summary Создать сотрудника
// @Description Отдел проверяется в department-service: 404, если его нет, 503, если сервис не ответил.
// @Tags    Employees
// @Accept  json
// @Produce json
// @Param   request body employeeReq true "Сотрудник"
// @Success 201 {object} dto.ApiResponse[dto.Employee]
// @Failure 400 {object} dto.ApiResponse[any] "VALIDATION ERROR"
// @Failure 404 {object} dto.ApiResponse[any] "department not found"
// @Failure 409 {object} dto.ApiResponse[any] "email already exists"
// @Failure 503 {object} dto.ApiResponse[any] "department service unavailable"
// @Router  /employees [post]
func (s *Service) create(ctx *fasthttp.RequestCtx) {
	var req employeeReq
	if err := api.DecodeJSON(ctx, &req); err != nil {
		api.WriteError(ctx, err)
		return
	}

	e, err := req.toEmployee(0)
	if err != nil {
		api.WriteError(ctx, err)
		return
	}

	if err := s.guard.RequireExists(ctx, rpc.DepartmentRef(e.DepartmentID)); err != nil {
		api.WriteError(ctx, err)
		return
	}

	id, err := s.repo.Create(ctx, e)
	if err != nil {
		if errors.Is(err, dto.ErrAlreadyExists) {
			emailTaken(ctx, e.Email)
			return
		}

		api.WriteError(ctx, fmt.Errorf("employeeRepository.Create: %w", err))
		return
	}

	e.ID = id
	api.Created(ctx, "Employee created successfully", e)
}

// @Summary Список сотрудников
// @Tags    Employees
// @Produce json
// @Param   departmentId query int false "Фильтр по отделу"
// @Success 200 {object} dto.ApiResponse[[]dto.Employee]
// @Router  /employees [get]
func (s *Service) list(ctx *fasthttp.RequestCtx) {
	var (
		rows []dto.Employee
		err  error
	)

	if ctx.QueryArgs().Has("departmentId") {
		departmentID, perr := api.QueryID(ctx, "departmentId")
		if perr != nil {
			api.WriteError(ctx, perr)
			return
		}
		rows, err = s.repo.ListByDepartment(ctx, departmentID)
	} else {
		rows, err = s.repo.List(ctx)
	}

	if err != nil {
		api.WriteError(ctx, fmt.Errorf("employeeRepository.List: %w", err))
		return
	}

	api.OK(ctx, "Employees retrieved successfully", rows)
}

// @Summary Получить сотрудника
// @Description Ответ дополняется отделом и отзывами. Если сервис-владелец не ответил, поле опускается.
// @Tags    Employees
// @Produce json
// @Param   id path int true "Идентификатор сотрудника"
// @Success 200 {object} dto.ApiResponse[dto.EmployeeDetails]
// @Failure 404 {object} dto.ApiResponse[any] "employee not found"
// @Router  /employees/{id} [get]
func (s *Service) get(ctx *fasthttp.RequestCtx) {
	id, err := api.PathID(ctx, "id")
	if err != nil {
		api.WriteError(ctx, err)
		return
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dto.ErrNotFound) {
			notFound(ctx, id)
			return
		}

		api.WriteError(ctx, fmt.Errorf("employeeRepository.GetByID: %w", err))
		return
	}

	api.OK(ctx, "Employee retrieved successfully", s.enrich(ctx, *e))
}

// enrich fetches department and reviews in parallel. Either part is left
// empty when its owner does not answer.
func (s *Service) enrich(ctx context.Context, e dto.Employee) dto.EmployeeDetails {
	details := dto.EmployeeDetails{Employee: e}

	var g errgroup.Group

	if s.departments != nil {
		g.Go(func() error {
			dep, err := s.departments.GetByID(ctx, e.DepartmentID)
			if err != nil {
				s.log.Warn().Err(err).Int64("employee_id", e.ID).Msg("department lookup failed, omitted")
				return nil
			}
			details.Department = dep
			return nil
		})
	}

	if s.reviews != nil {
		g.Go(func() error {
			reviews, err := s.reviews.ListByEmployee(ctx, e.ID)
			if err != nil {
				s.log.Warn().Err(err).Int64("employee_id", e.ID).Msg("review lookup failed, omitted")
				return nil
			}
			details.Reviews = reviews
			return nil
		})
	}

	_ = g.Wait()

	return details
}

// @Summary Обновить сотрудника
// @Description Средний рейтинг не изменяется: он пересчитывается только по событиям отзывов.
// @Tags    Employees
// @Accept  json
// @Produce json
// @Param   id path int true "Идентификатор сотрудника"
// @Param   request body employeeReq true "Сотрудник"
// @Success 200 {object} dto.ApiResponse[dto.Employee]
// @Failure 400 {object} dto.ApiResponse[any] "VALIDATION ERROR"
// @Failure 404 {object} dto.ApiResponse[any] "employee or department not found"
// @Failure 409 {object} dto.ApiResponse[any] "email already exists"
// @Failure 503 {object} dto.ApiResponse[any] "department service unavailable"
// @Router  /employees/{id} [put]
func (s *Service) update(ctx *fasthttp.RequestCtx) {
	id, err := api.PathID(ctx, "id")
	if err != nil {
		api.WriteError(ctx, err)
		return
	}

	var req employeeReq
	if err := api.DecodeJSON(ctx, &req); err != nil {
		api.WriteError(ctx, err)
		return
	}

	e, err := req.toEmployee(id)
	if err != nil {
		api.WriteError(ctx, err)
		return
	}

	if err := s.guard.RequireExists(ctx, rpc.DepartmentRef(e.DepartmentID)); err != nil {
		api.WriteError(ctx, err)
		return
	}

	if err := s.repo.Update(ctx, e); err != nil {
		switch {
		case errors.Is(err, dto.ErrNotFound):
			notFound(ctx, id)
		case errors.Is(err, dto.ErrAlreadyExists):
			emailTaken(ctx, e.Email)
		default:
			api.WriteError(ctx, fmt.Errorf("employeeRepository.Update: %w", err))
		}
		return
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		api.WriteError(ctx, fmt.Errorf("employeeRepository.GetByID: %w", err))
		return
	}

	api.OK(ctx, "Employee updated successfully", updated)
}

// @Summary Удалить сотрудника
// @Tags    Employees
// @Produce json
// @Param   id path int true "Идентификатор сотрудника"
// @Success 200 {object} dto.ApiResponse[any]
// @Failure 404 {object} dto.ApiResponse[any] "employee not found"
// @Router  /employees/{id} [delete]
func (s *Service) delete(ctx *fasthttp.RequestCtx) {
	id, err := api.PathID(ctx, "id")
	if err != nil {
		api.WriteError(ctx, err)
		return
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, dto.ErrNotFound) {
			notFound(ctx, id)
			return
		}

		api.WriteError(ctx, fmt.Errorf("employeeRepository.Delete: %w", err))
		return
	}

	if s.presence != nil {
		key := rpc.PresenceKey(rpc.EmployeeRef(id))
		if err := s.presence.Forget(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("presence marker not evicted")
		}
	}

	api.OK[any](ctx, "Employee deleted successfully", nil)
}

// @Summary Проверить существование сотрудника
// @Tags    Employees
// @Produce json
// @Param   id path int true "Идентификатор сотрудника"
// @Success 200 {object} dto.ApiResponse[bool]
// @Failure 500 {object} dto.ApiResponse[any]
// @Router  /employees/{id}/exists [get]
func (s *Service) exists(ctx *fasthttp.RequestCtx) {
	id, err := api.PathID(ctx, "id")
	if err != nil {
		api.OK(ctx, "Employee existence checked", false)
		return
	}

	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Int64("employee_id", id).Msg("employeeRepository.Exists failed")
		api.WriteError(ctx, fmt.Errorf("employeeRepository.Exists: %w", err))
		return
	}

	api.OK(ctx, "Employee existence checked", ok)
}

// @Summary Журнал обработанных событий рейтинга
// @Tags    Events
// @Produce json
// @Success 200 {object} dto.ApiResponse[[]dto.KafkaEvent]
// @Router  /events [get]
func (s *Service) listEvents(ctx *fasthttp.RequestCtx) {
	rows, err := s.events.ListEvents(ctx)
	if err != nil {
		api.WriteError(ctx, fmt.Errorf("eventsRepository.ListEvents: %w", err))
		return
	}

	api.OK(ctx, "Events retrieved successfully", rows)
}

// @Summary Сообщения в DLQ
// @Tags    Events
// @Produce json
// @Success 200 {object} dto.ApiResponse[[]dto.KafkaDLQ]
// @Router  /dlq [get]
func (s *Service) listDLQ(ctx *fasthttp.RequestCtx) {
	rows, err := s.events.ListDLQ(ctx)
	if err != nil {
		api.WriteError(ctx, fmt.Errorf("eventsRepository.ListDLQ: %w", err))
		return
	}

	api.OK(ctx, "DLQ retrieved successfully", rows)
}

// @Summary Очистить журнал событий и DLQ
// @Tags    Admin
// @Success 200 {object} dto.ApiResponse[any]
// @Failure 500 {object} dto.ApiResponse[any]
// @Router  /admin/reset [post]
func (s *Service) reset(ctx *fasthttp.RequestCtx) {
	if err := s.events.ResetAll(ctx); err != nil {
		api.WriteError(ctx, fmt.Errorf("eventsRepository.ResetAll: %w", err))
		return
	}

	api.OK[any](ctx, "Journal and DLQ cleared", nil)
}
