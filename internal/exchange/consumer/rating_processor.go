package consumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Artexxx/hr-services/internal/dto"
)

// Outcome of processing one rating event.
type Outcome uint8

const (
	// OutcomeRedeliver is the zero value: anything not positively resolved
	// must be retried rather than acknowledged.
	OutcomeRedeliver Outcome = iota
	OutcomeUpdated
	OutcomeSkipped
	OutcomeTargetGone
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeTargetGone:
		return "target_gone"
	default:
		return "redeliver"
	}
}

// Ack reports whether the message offset may be committed.
func (o Outcome) Ack() bool {
	return o != OutcomeRedeliver
}

type EmployeeStore interface {
	GetByID(ctx context.Context, id int64) (*dto.Employee, error)
	UpdateAverageRating(ctx context.Context, id int64, average float64) error
}

// RatingSource returns the full current review set of an employee.
type RatingSource interface {
	Ratings(ctx context.Context, employeeID int64) ([]float64, error)
}

// RatingProcessor recomputes an employee's average rating from the full
// review set. The event only names the employee; its rating is not used in
// the computation, so redelivery and reordering converge to the same value.
type RatingProcessor struct {
	employees EmployeeStore
	ratings   RatingSource
	log       zerolog.Logger
}

func NewRatingProcessor(employees EmployeeStore, ratings RatingSource, log zerolog.Logger) *RatingProcessor {
	return &RatingProcessor{
		employees: employees,
		ratings:   ratings,
		log:       log.With().Str("component", "RatingProcessor").Logger(),
	}
}

func (p *RatingProcessor) Process(ctx context.Context, event dto.RatingEvent) (Outcome, error) {
	log := p.log.With().Int64("employee_id", event.EmployeeID).Int64("review_id", event.ReviewID).Logger()

	if _, err := p.employees.GetByID(ctx, event.EmployeeID); err != nil {
		if errors.Is(err, dto.ErrNotFound) {
			log.Warn().Msg("employee not found, event dropped")
			return OutcomeTargetGone, fmt.Errorf("employees.GetByID: %w", err)
		}

		return OutcomeRedeliver, fmt.Errorf("employees.GetByID: %w", err)
	}

	ratings, err := p.ratings.Ratings(ctx, event.EmployeeID)
	if err != nil {
		return OutcomeRedeliver, fmt.Errorf("ratings.Ratings: %w", err)
	}

	if len(ratings) == 0 {
		log.Info().Msg("no reviews found, rating left unchanged")
		return OutcomeSkipped, nil
	}

	average := mean(ratings)

	if err := p.employees.UpdateAverageRating(ctx, event.EmployeeID, average); err != nil {
		if errors.Is(err, dto.ErrNotFound) {
			log.Warn().Msg("employee deleted during recompute, event dropped")
			return OutcomeTargetGone, fmt.Errorf("employees.UpdateAverageRating: %w", err)
		}

		return OutcomeRedeliver, fmt.Errorf("employees.UpdateAverageRating: %w", err)
	}

	log.Info().Float64("average_rating", average).Int("reviews", len(ratings)).Msg("average rating updated")

	return OutcomeUpdated, nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
