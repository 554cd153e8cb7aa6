package dto

// ApiResponse - общий конверт ответа всех сервисов.
// Success=false означает, что сервис не смог ответить по существу,
// независимо от HTTP-статуса.
type ApiResponse[T any] struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Employee retrieved successfully"`
	Data    T      `json:"data"`
}
