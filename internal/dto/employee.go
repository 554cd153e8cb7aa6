package dto

import (
	"time"
)

// Employee - запись сотрудника, которой владеет employee-service.
type Employee struct {
	ID              int64      `json:"id" example:"7"`                        // Идентификатор сотрудника
	FirstName       string     `json:"first_name" example:"Анна"`             // Имя
	LastName        string     `json:"last_name,omitempty" example:"Иванова"` // Фамилия
	Email           string     `json:"email" example:"anna@company.ru"`       // Почта, уникальна
	DepartmentID    int64      `json:"department_id" example:"3"`             // Ссылка на отдел в department-service
	AverageRating   *float64   `json:"average_rating"`                        // Производное поле: null, пока не посчитано
	RatingUpdatedAt *time.Time `json:"rating_updated_at,omitempty"`           // Время последнего пересчёта рейтинга
}

// EmployeeDetails - сотрудник вместе с данными из соседних сервисов.
// Department и Reviews пустые, если владелец данных не ответил.
type EmployeeDetails struct {
	Employee
	Department *Department `json:"department,omitempty"`
	Reviews    []Review    `json:"reviews,omitempty"`
}
