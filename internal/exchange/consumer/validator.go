package consumer

import (
	"math"

	"github.com/Artexxx/hr-services/internal/dto"
)

func validateRatingEvent(event dto.RatingEvent) string {
	if event.EmployeeID < 1 {
		return "required field 'employee_id'"
	}

	if math.IsNaN(event.Rating) || math.IsInf(event.Rating, 0) || event.Rating < 0 {
		return "invalid value in field 'rating'"
	}

	return ""
}
