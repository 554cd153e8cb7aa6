package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/Artexxx/hr-services/internal/dto"
)

func TestRepository_InsertEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec("ON CONFLICT \\(message_id\\) DO NOTHING").
		WithArgs("reviews.rating", "7", id, 0, int64(42), `{"id":1}`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = NewRepository(mock).InsertEvent(context.Background(), dto.KafkaEvent{
		MessageID: id,
		Topic:     "reviews.rating",
		Key:       "7",
		Offset:    42,
		Payload:   []byte(`{"id":1}`),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertDLQQuotesInvalidJSON(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO kafka_dlq").
		WithArgs("reviews.rating", "7", 2, int64(10), `"not json {"`, "invalid_json").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO kafka_dlq").
		WithArgs("reviews.rating", "7", 0, int64(11), `{"id":1}`, "employee_not_found").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewRepository(mock)
	require.NoError(t, repo.InsertDLQ(context.Background(), dto.KafkaDLQ{
		Topic: "reviews.rating", Key: "7", Partition: 2, Offset: 10, Payload: []byte("not json {"), Error: "invalid_json",
	}))
	require.NoError(t, repo.InsertDLQ(context.Background(), dto.KafkaDLQ{
		Topic: "reviews.rating", Key: "7", Offset: 11, Payload: []byte(`{"id":1}`), Error: "employee_not_found",
	}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListDLQ(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "topic", "msg_key", "partition", "offset", "payload", "error", "received_at"}).
		AddRow(int64(2), "reviews.rating", "7", 1, int64(5), []byte(`"not json {"`), "invalid_json", "2026-10-19T10:00:00+00").
		AddRow(int64(1), "reviews.rating", "9", 0, int64(3), []byte(`{"id":4}`), "employee_not_found", "2026-10-19T09:00:00+00")
	mock.ExpectQuery("from kafka_dlq").WillReturnRows(rows)

	got, err := NewRepository(mock).ListDLQ(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 1, got[0].Partition)
	require.EqualValues(t, 5, got[0].Offset)
	require.Equal(t, "employee_not_found", got[1].Error)
	require.NoError(t, mock.ExpectationsWereMet())
}
