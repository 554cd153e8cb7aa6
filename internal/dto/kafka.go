package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// KafkaEvent - запись журнала: событие рейтинга, применённое к сотруднику.
// MessageID одинаков для всех повторных доставок одного сообщения.
type KafkaEvent struct {
	ID         int64           `json:"id"`
	MessageID  uuid.UUID       `json:"message_id"`
	Topic      string          `json:"topic"`
	Key        string          `json:"key"`
	Partition  int             `json:"partition"`
	Offset     int64           `json:"offset"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt string          `json:"received_at"`
}

// KafkaDLQ - сообщение, которое потребитель подтвердил, но не применил:
// невалидный JSON, неверные поля или удалённый сотрудник.
type KafkaDLQ struct {
	ID         int64           `json:"id"`
	Topic      string          `json:"topic"`
	Key        string          `json:"key"`
	Partition  int             `json:"partition"`
	Offset     int64           `json:"offset"`
	Payload    json.RawMessage `json:"payload"`
	Error      string          `json:"error"`
	ReceivedAt string          `json:"received_at"`
}
