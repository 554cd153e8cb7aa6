package dto

// Review - отзыв о работе сотрудника, хранится в review-service.
type Review struct {
	ID          int64   `json:"id" example:"42"`
	Title       string  `json:"title" example:"Q1"`
	Description string  `json:"description" example:"Квартальное ревью"`
	Rating      float64 `json:"rating" example:"4.5"`
	EmployeeID  int64   `json:"employee_id" example:"7"`
}

// RatingEvent - событие о создании отзыва. Несёт всё, что нужно
// потребителю, без обратного вызова к продюсеру.
type RatingEvent struct {
	ReviewID    int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Rating      float64 `json:"rating"`
	EmployeeID  int64   `json:"employee_id"`
}

func RatingEventFromReview(r Review) RatingEvent {
	return RatingEvent{
		ReviewID:    r.ID,
		Title:       r.Title,
		Description: r.Description,
		Rating:      r.Rating,
		EmployeeID:  r.EmployeeID,
	}
}
