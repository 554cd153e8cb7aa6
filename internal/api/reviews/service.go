package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Artexxx/hr-services/internal/api"
	"github.com/Artexxx/hr-services/internal/dto"
	"github.com/Artexxx/hr-services/internal/exchange/rpc"
)

type Repository interface {
	Create(ctx context.Context, rv dto.Review) (int64, error)
	Update(ctx context.Context, rv dto.Review) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*dto.Review, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]dto.Review, error)
}

type Guard interface {
	RequireExists(ctx context.Context, ref rpc.Ref) error
}

type Publisher interface {
	Publish(ctx context.Context, event dto.RatingEvent) error
}

type Service struct {
	repo      Repository
	guard     Guard
	publisher Publisher
	log       zerolog.Logger
}

func NewService(repo Repository, guard Guard, publisher Publisher, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		guard:     guard,
		publisher: publisher,
		log:       log.With().Str("component", "ReviewsAPI").Logger(),
	}
}

func (s *Service) Mount(r *router.Router) {
	r.POST("/reviews", s.create)
	r.GET("/reviews", s.listByEmployee)
	r.GET("/reviews/average-rating", s.averageRating)
	r.GET("/reviews/{id}", s.get)
	r.PUT("/reviews/{id}", s.update)
	r.DELETE("/reviews/{id}", s.delete)
}

type reviewReq struct {
	Title       string  `json:"title" example:"Q1"`                      // Заголовок отзыва
	Description string  `json:"description" example:"Квартальное ревью"` // Текст отзыва
	Rating      float64 `json:"rating" example:"4.5"`                    // Оценка, неотрицательная
}

func (req reviewReq) toReview(id, employeeID int64) (dto.Review, error) {
	rv := dto.Review{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Rating:      req.Rating,
		EmployeeID:  employeeID,
	}

	if rv.Title == "" {
		return rv, fmt.Errorf("%w: required field 'title'", api.ErrValidation)
	}

	if math.IsNaN(rv.Rating) || math.IsInf(rv.Rating, 0) || rv.Rating < 0 {
		return rv, fmt.Errorf("%w: invalid value in field 'rating'=%v", api.ErrValidation, rv.Rating)
	}

	return rv, nil
}

func notFound(ctx *fasthttp.RequestCtx, id int64) {
	api.Fail(ctx, fasthttp.StatusNotFound, fmt.Sprintf("Review not found with id: %d", id))
}

// @Summary Создать отзыв
// @Description Сотрудник проверяется в employee-service: 404, если его нет, 503, если сервис не ответил.
// @Description После сохранения публикуется событие в топик рейтинга. Ошибка публикации не отменяет создание.
// @Tags    Reviews
// @Accept  json
// @Produce json
// @Param   employeeId query int true "Идентификатор сотрудника"
// @Param   request body reviewReq true "Отзыв"
// @Success 201 {object} dto.ApiResponse[dto.Review]
// @Failure 400 {object} dto.ApiResponse[any] "VALIDATION ERROR"
// @Failure 404 {object} dto.ApiResponse[any] "employee not found"
// @Failure 503 {object} dto.ApiResponse[any] "employee service unavailable"
// @Router  /reviews [post]
func (s *Service) create(ctx *fasthttp.RequestCtx) {
	employeeID, err := api.QueryID(ctx, "employeeId")
	if err != nil {
		api.WriteError(ctx, err)
		return
	}

	var req reviewReq
	if err := api.DecodeJSON(ctx, &req); err != nil {
		api.WriteError(ctx, err)
		return
	}

	rv, err := req.toReview(0, employeeID)
	if err != nil {
		api.WriteError(ctx, err)
		return
	}

	if err := s.guard.RequireExists(ctx, rpc.EmployeeRef(employeeID)); err != nil {
		api.WriteError(ctx, err)
		return
	}

	id, err := s.repo.Create(ctx, rv)
	if err != nil {
		api.WriteError(ctx, fmt.Errorf("reviewRepository.Create: %w", err))
		return
	}
	rv.ID = id

	// The review is committed; a lost event leaves the rating stale until
	// the next review of this employee.
	if err := s.publisher.Publish(ctx, dto.RatingEventFromReview(rv)); err != nil {
		s.log.Error().
			Err(err).
			Int64("review_id", rv.ID).
			Int64("employee_id", rv.EmployeeID).
			Msg("rating event not published")
	}

	api.Created(ctx, "Review created successfully", rv)
}

// @Summary Отзывы сотрудника
// @Description Пустой список возвращается как data: null.
// @Tags    Reviews
// @Produce json
// @Param   employeeId query int true "Идентификатор сотрудника"
// @Success 200 {object} dto.ApiResponse[[]dto.Review]
// @Failure 400 {object} dto.ApiResponse[any] "VALIDATION ERROR"
// @Router  /reviews [get]
func (s *Service) listByEmployee(ctx *fasthttp.RequestCtx) {
	employeeID, err := api.QueryID(ctx, "employeeId")
	if err != nil {
		api.WriteError(ctx, err)
		return
	}

	rows, err := s.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		api.WriteError(ctx, fmt.Errorf("reviewRepository.ListByEmployee: %w", err))
		return
	}

	if len(rows) == 0 {
		api.OK[[]dto.Review](ctx, fmt.Sprintf("No reviews found for employee with ID: %d", employeeID), nil)
		return
	}

	api.OK(ctx, "Reviews retrieved successfully", rows)
}

// @Summary Средний рейтинг сотрудника
// @Tags    Reviews
// @Produce json
// @Param   employeeId query int true "Идентификатор сотрудника"
// @Success 200 {object} dto.ApiResponse[float64]
// @Failure 404 {object} dto.ApiResponse[any] "no reviews"
// @Router  /reviews/average-rating [get]
func (s *Service) averageRating(ctx *fasthttp.RequestCtx) {
	employeeID, err := api.QueryID(ctx, "employeeId")
	if err != nil {
		api.WriteError(ctx, err)
		return
	}

	rows, err := s.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		api.WriteError(ctx, fmt.Errorf("reviewRepository.ListByEmployee: %w", err))
		return
	}

	if len(rows) == 0 {
		api.Fail(ctx, fasthttp.StatusNotFound, fmt.Sprintf("No reviews found for employee with ID: %d", employeeID))
		return
	}

	var sum float64
	for _, rv := range rows {
		sum += rv.Rating
	}

	api.OK(ctx, "Average rating retrieved successfully", sum/float64(len(rows)))
}

// @Summary Получить отзыв
// @Tags    Reviews
// @Produce json
// @Param   id path int true "Идентификатор отзыва"
// @Success 200 {object} dto.ApiResponse[dto.Review]
// @Failure 404 {object} dto.ApiResponse[any] "review not found"
// @Router  /reviews/{id} [get]
func (s *Service) get(ctx *fasthttp.RequestCtx) {
	id, err := api.PathID(ctx, "id")
	if err != nil {
		api.WriteError(ctx, err)
		return
	}

	rv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dto.ErrNotFound) {
			notFound(ctx, id)
			return
		}

		api.WriteError(ctx, fmt.Errorf("reviewRepository.GetByID: %w", err))
		return
	}

	api.OK(ctx, "Review retrieved successfully", rv)
}

// @Summary Обновить отзыв
// @Description Сотрудник отзыва не меняется. Событие рейтинга не публикуется.
// @Tags    Reviews
// @Accept  json
// @Produce json
// @Param   id path int true "Идентификатор отзыва"
// @Param   request body reviewReq true "Отзыв"
// @Success 200 {object} dto.ApiResponse[dto.Review]
// @Failure 404 {object} dto.ApiResponse[any] "review not found"
// @Router  /reviews/{id} [put]
func (s *Service) update(ctx *fasthttp.RequestCtx) {
	id, err := api.PathID(ctx, "id")
	if err != nil {
		api.WriteError(ctx, err)
		return
	}

	var req reviewReq
	if err := api.DecodeJSON(ctx, &req); err != nil {
		api.WriteError(ctx, err)
		return
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dto.ErrNotFound) {
			notFound(ctx, id)
			return
		}

		api.WriteError(ctx, fmt.Errorf("reviewRepository.GetByID: %w", err))
		return
	}

	rv, err := req.toReview(id, existing.EmployeeID)
	if err != nil {
		api.WriteError(ctx, err)
		return
	}

	if err := s.repo.Update(ctx, rv); err != nil {
		if errors.Is(err, dto.ErrNotFound) {
			notFound(ctx, id)
			return
		}

		api.WriteError(ctx, fmt.Errorf("reviewRepository.Update: %w", err))
		return
	}

	api.OK(ctx, "Review updated successfully", rv)
}

// @Summary Удалить отзыв
// @Tags    Reviews
// @Produce json
// @Param   id path int true "Идентификатор отзыва"
// @Success 200 {object} dto.ApiResponse[any]
// @Failure 404 {object} dto.ApiResponse[any] "review not found"
// @Router  /reviews/{id} [delete]
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

		api.WriteError(ctx, fmt.Errorf("reviewRepository.Delete: %w", err))
		return
	}

	api.OK[any](ctx, "Review deleted successfully", nil)
}
