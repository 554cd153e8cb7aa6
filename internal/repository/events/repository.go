package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Artexxx/hr-services/internal/dto"
)

type PgxPoolIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository struct {
	pool PgxPoolIface
}

func NewRepository(pool PgxPoolIface) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS kafka_events (
	id          BIGSERIAL PRIMARY KEY,
	topic       TEXT NOT NULL,
	msg_key     TEXT NOT NULL DEFAULT '',
	message_id  UUID NOT NULL UNIQUE,
	partition   INT NOT NULL,
	"offset"    BIGINT NOT NULL,
	payload     JSONB NOT NULL,
	received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS kafka_dlq (
	id          BIGSERIAL PRIMARY KEY,
	topic       TEXT NOT NULL,
	msg_key     TEXT NOT NULL DEFAULT '',
	partition   INT NOT NULL DEFAULT 0,
	"offset"    BIGINT NOT NULL DEFAULT 0,
	payload     JSONB,
	error       TEXT NOT NULL,
	received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	return nil
}

// InsertEvent journals a processed message. A redelivered message with the
// same message_id is ignored.
func (r *Repository) InsertEvent(ctx context.Context, event dto.KafkaEvent) error {
	query := `
INSERT INTO kafka_events
	(topic, msg_key, message_id, partition, "offset", payload, received_at)
VALUES
	($1, $2, $3::uuid, $4, $5, $6::jsonb, NOW())
ON CONFLICT (message_id) DO NOTHING;
`
	_, err := r.pool.Exec(ctx, query, event.Topic, event.Key, event.MessageID, event.Partition, event.Offset, string(event.Payload))
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	return nil
}

// InsertDLQ stores payload as jsonb when it is valid JSON and as a JSON
// string otherwise, so undecodable messages are kept verbatim.
func (r *Repository) InsertDLQ(ctx context.Context, dlq dto.KafkaDLQ) error {
	query := `
INSERT INTO kafka_dlq
	(topic, msg_key, partition, "offset", payload, error, received_at)
VALUES
	($1, $2, $3, $4, $5::jsonb, $6, NOW());
`
	payload := dlq.Payload
	if !json.Valid(payload) {
		quoted, err := json.Marshal(string(payload))
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}
		payload = quoted
	}

	_, err := r.pool.Exec(ctx, query, dlq.Topic, dlq.Key, dlq.Partition, dlq.Offset, string(payload), dlq.Error)
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	return nil
}

func (r *Repository) ListEvents(ctx context.Context) ([]dto.KafkaEvent, error) {
	query := `
SELECT id, topic, msg_key, message_id, partition, "offset", payload, to_char(received_at, 'YYYY-MM-DD"T"HH24:MI:SSOF')
FROM kafka_events
ORDER BY id DESC
`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	out := make([]dto.KafkaEvent, 0)
	for rows.Next() {
		var (
			kafkaEvent dto.KafkaEvent
			payload    []byte
		)

		err = rows.Scan(&kafkaEvent.ID, &kafkaEvent.Topic, &kafkaEvent.Key, &kafkaEvent.MessageID, &kafkaEvent.Partition, &kafkaEvent.Offset, &payload, &kafkaEvent.ReceivedAt)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		kafkaEvent.Payload = payload
		out = append(out, kafkaEvent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return out, nil
}

func (r *Repository) ListDLQ(ctx context.Context) ([]dto.KafkaDLQ, error) {
	query := `
select id, topic, msg_key, partition, "offset", payload, error, to_char(received_at, 'YYYY-MM-DD"T"HH24:MI:SSOF')
from kafka_dlq
order by id desc
`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	out := make([]dto.KafkaDLQ, 0)
	for rows.Next() {
		var (
			kafkaDLQ dto.KafkaDLQ
			payload  []byte
		)

		err = rows.Scan(&kafkaDLQ.ID, &kafkaDLQ.Topic, &kafkaDLQ.Key, &kafkaDLQ.Partition, &kafkaDLQ.Offset, &payload, &kafkaDLQ.Error, &kafkaDLQ.ReceivedAt)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		kafkaDLQ.Payload = payload
		out = append(out, kafkaDLQ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return out, nil
}

// ResetAll clears the consumer journal and the DLQ. Employee data is kept.
func (r *Repository) ResetAll(ctx context.Context) error {
	query := `
TRUNCATE kafka_events RESTART IDENTITY CASCADE;
TRUNCATE kafka_dlq RESTART IDENTITY CASCADE;
`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	return nil
}
