package departments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Artexxx/hr-services/internal/api"
	"github.com/Artexxx/hr-services/internal/dto"
	"github.com/Artexxx/hr-services/internal/exchange/rpc"
)

type Repository interface {
	Create(ctx context.Context, d dto.Department) (int64, error)
	Update(ctx context.Context, d dto.Department) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*dto.Department, error)
	GetByName(ctx context.Context, name string) (*dto.Department, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]dto.Department, error)
}

// EmployeeLister reads employees from employee-service.
type EmployeeLister interface {
	ListByDepartment(ctx context.Context, departmentID int64) ([]dto.Employee, error)
}

// PresenceEvicter drops cached "department exists" markers that callers
// share through Redis.
type PresenceEvicter interface {
	Forget(ctx context.Context, key string) error
}

type Service struct {
	repo      Repository
	employees EmployeeLister
	presence  PresenceEvicter
	log       zerolog.Logger
}

type Option func(*Service)

// WithPresenceEviction makes delete evict the department's presence marker.
func WithPresenceEviction(p PresenceEvicter) Option {
	return func(s *Service) {
		s.presence = p
	}
}

func NewService(repo Repository, employees EmployeeLister, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		employees: employees,
		log:       log.With().Str("component", "DepartmentsAPI").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Mount(r *router.Router) {
	r.POST("/departments", s.create)
	r.GET("/departments", s.list)
	r.GET("/departments/employees/{name}", s.listEmployees)
	r.GET("/departments/{id}", s.get)
	r.PUT("/departments/{id}", s.update)
	r.DELETE("/departments/{id}", s.delete)
	r.GET("/departments/{id}/exists", s.exists)
}

type departmentReq struct {
	Name string `json:"name" example:"Отдел качества"` // Название отдела, уникально
}

func (req departmentReq) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: required field 'name'", api.ErrValidation)
	}
	return nil
}

func notFound(ctx *fasthttp.RequestCtx, id int64) {
	api.Fail(ctx, fasthttp.StatusNotFound, fmt.Sprintf("Department not found with id: %d", id))
}

// @Summary Создать отдел
// @Tags    Departments
// @Accept  json
// @Produce json
// @Param   request body departmentReq true "Отдел"
// @Success 201 {object} dto.ApiResponse[dto.Department]
// @Failure 400 {object} dto.ApiResponse[any] "VALIDATION ERROR"
// @Failure 409 {object} dto.ApiResponse[any] "department already exists"
// @Router  /departments [post]
func (s *Service) create(ctx *fasthttp.RequestCtx) {
	var req departmentReq
	if err := api.DecodeJSON(ctx, &req); err != nil {
		api.WriteError(ctx, err)
		return
	}
	if err := req.validate(); err != nil {
		api.WriteError(ctx, err)
		return
	}

	d := dto.Department{Name: strings.TrimSpace(req.Name)}

	id, err := s.repo.Create(ctx, d)
	if err != nil {
		if errors.Is(err, dto.ErrAlreadyExists) {
			api.Fail(ctx, fasthttp.StatusConflict, fmt.Sprintf("Department with name %s already exists", d.Name))
			return
		}

		api.WriteError(ctx, fmt.Errorf("departmentRepository.Create: %w", err))
		return
	}

	d.ID = id
	api.Created(ctx, "Department created successfully", d)
}

// @Summary Список отделов
// @Tags    Departments
// @Produce json
// @Success 200 {object} dto.ApiResponse[[]dto.Department]
// @Router  /departments [get]
func (s *Service) list(ctx *fasthttp.RequestCtx) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		api.WriteError(ctx, fmt.Errorf("departmentRepository.List: %w", err))
		return
	}

	api.OK(ctx, "Departments retrieved successfully", rows)
}

// @Summary Получить отдел
// @Tags    Departments
// @Produce json
// @Param   id path int true "Идентификатор отдела"
// @Success 200 {object} dto.ApiResponse[dto.Department]
// @Failure 404 {object} dto.ApiResponse[any] "department not found"
// @Router  /departments/{id} [get]
func (s *Service) get(ctx *fasthttp.RequestCtx) {
	id, err := api.PathID(ctx, "id")
	if err != nil {
		api.WriteError(ctx, err)
		return
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dto.ErrNotFound) {
			notFound(ctx, id)
			return
		}

		api.WriteError(ctx, fmt.Errorf("departmentRepository.GetByID: %w", err))
		return
	}

	api.OK(ctx, "Department retrieved successfully", d)
}

// @Summary Обновить отдел
// @Tags    Departments
// @Accept  json
// @Produce json
// @Param   id path int true "Идентификатор отдела"
// @Param   request body departmentReq true "Отдел"
// @Success 200 {object} dto.ApiResponse[dto.Department]
// @Failure 404 {object} dto.ApiResponse[any] "department not found"
// @Failure 409 {object} dto.ApiResponse[any] "department already exists"
// @Router  /departments/{id} [put]
func (s *Service) update(ctx *fasthttp.RequestCtx) {
	id, err := api.PathID(ctx, "id")
	if err != nil {
		api.WriteError(ctx, err)
		return
	}

	var req departmentReq
	if err := api.DecodeJSON(ctx, &req); err != nil {
		api.WriteError(ctx, err)
		return
	}
	if err := req.validate(); err != nil {
		api.WriteError(ctx, err)
		return
	}

	d := dto.Department{ID: id, Name: strings.TrimSpace(req.Name)}

	if err := s.repo.Update(ctx, d); err != nil {
		switch {
		case errors.Is(err, dto.ErrNotFound):
			notFound(ctx, id)
		case errors.Is(err, dto.ErrAlreadyExists):
			api.Fail(ctx, fasthttp.StatusConflict, fmt.Sprintf("Department with name %s already exists", d.Name))
		default:
			api.WriteError(ctx, fmt.Errorf("departmentRepository.Update: %w", err))
		}
		return
	}

	api.OK(ctx, "Department updated successfully", d)
}

// @Summary Удалить отдел
// @Tags    Departments
// @Produce json
// @Param   id path int true "Идентификатор отдела"
// @Success 200 {object} dto.ApiResponse[any]
// @Failure 404 {object} dto.ApiResponse[any] "department not found"
// @Router  /departments/{id} [delete]
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

		api.WriteError(ctx, fmt.Errorf("departmentRepository.Delete: %w", err))
		return
	}

	if s.presence != nil {
		key := rpc.PresenceKey(rpc.DepartmentRef(id))
		if err := s.presence.Forget(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("presence marker not evicted")
		}
	}

	api.OK[any](ctx, "Department deleted successfully", nil)
}

// exists is the endpoint behind rpc.Checker. A store failure must surface as
// a failed envelope, never as data:false.
//
// @Summary Проверить существование отдела
// @Tags    Departments
// @Produce json
// @Param   id path int true "Идентификатор отдела"
// @Success 200 {object} dto.ApiResponse[bool]
// @Failure 500 {object} dto.ApiResponse[any]
// @Router  /departments/{id}/exists [get]
func (s *Service) exists(ctx *fasthttp.RequestCtx) {
	id, err := api.PathID(ctx, "id")
	if err != nil {
		api.OK(ctx, "Department existence checked", false)
		return
	}

	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Int64("department_id", id).Msg("departmentRepository.Exists failed")
		api.WriteError(ctx, fmt.Errorf("departmentRepository.Exists: %w", err))
		return
	}

	api.OK(ctx, "Department existence checked", ok)
}

// @Summary Сотрудники отдела
// @Description Список берётся из employee-service. Если он недоступен, ответ 503.
// @Tags    Departments
// @Produce json
// @Param   name path string true "Название отдела"
// @Success 200 {object} dto.ApiResponse[[]dto.Employee]
// @Failure 404 {object} dto.ApiResponse[any] "department not found"
// @Failure 503 {object} dto.ApiResponse[any] "employee service unavailable"
// @Router  /departments/employees/{name} [get]
func (s *Service) listEmployees(ctx *fasthttp.RequestCtx) {
	name, _ := ctx.UserValue("name").(string)
	name = strings.TrimSpace(name)
	if name == "" {
		api.WriteError(ctx, fmt.Errorf("%w: required field 'name'", api.ErrValidation))
		return
	}

	d, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, dto.ErrNotFound) {
			api.Fail(ctx, fasthttp.StatusNotFound, fmt.Sprintf("Department not found with name: %s", name))
			return
		}

		api.WriteError(ctx, fmt.Errorf("departmentRepository.GetByName: %w", err))
		return
	}

	employees, err := s.employees.ListByDepartment(ctx, d.ID)
	if err != nil {
		s.log.Warn().Err(err).Int64("department_id", d.ID).Msg("employee service call failed")
		api.WriteError(ctx, err)
		return
	}

	if employees == nil {
		employees = []dto.Employee{}
	}

	api.OK(ctx, "Employees retrieved successfully", employees)
}
