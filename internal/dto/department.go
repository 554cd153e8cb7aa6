package dto

// Department - отдел.
type Department struct {
	ID   int64  `json:"id" example:"3"`
	Name string `json:"name" example:"Отдел качества"`
}
