package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Artexxx/hr-services/internal/dto"
	"github.com/Artexxx/hr-services/internal/metrics"
)

type Processor interface {
	Process(ctx context.Context, event dto.RatingEvent) (Outcome, error)
}

type EventsRepository interface {
	InsertEvent(ctx context.Context, ev dto.KafkaEvent) error
	InsertDLQ(ctx context.Context, dlq dto.KafkaDLQ) error
}

type handler struct {
	processor    Processor
	events       EventsRepository
	metrics      *metrics.Recorder
	retryInitial time.Duration
	retryMax     time.Duration
	log          zerolog.Logger
}

func (h *handler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *handler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks a message only once it is resolved. A message that
// keeps failing blocks its partition until it succeeds or the session ends,
// and is then redelivered to whoever owns the partition next.
func (h *handler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if h.handle(sess.Context(), msg) {
				sess.MarkMessage(msg, "")
			}
		case <-sess.Context().Done():
			return nil
		}
	}
}

func (h *handler) handle(ctx context.Context, msg *sarama.ConsumerMessage) bool {
	var event dto.RatingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.toDLQ(ctx, msg, fmt.Sprintf("invalid_json: %v", err))
		return true
	}

	if verr := validateRatingEvent(event); verr != "" {
		h.toDLQ(ctx, msg, verr)
		return true
	}

	backoff := h.retryInitial
	for attempt := 1; ; attempt++ {
		outcome, err := h.processor.Process(ctx, event)
		h.metrics.RatingConsumed(outcome.String())

		switch outcome {
		case OutcomeUpdated:
			h.journal(ctx, msg)
			return true
		case OutcomeSkipped:
			return true
		case OutcomeTargetGone:
			h.toDLQ(ctx, msg, fmt.Sprintf("target_gone: %v", err))
			return true
		}

		h.log.Warn().
			Err(err).
			Int64("employee_id", event.EmployeeID).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("rating event processing failed, retrying")

		if !sleepCtx(ctx, backoff) {
			h.log.Info().
				Int32("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("session closed, message left for redelivery")
			return false
		}

		backoff = min(backoff*2, h.retryMax)
	}
}

func (h *handler) journal(ctx context.Context, msg *sarama.ConsumerMessage) {
	err := h.events.InsertEvent(ctx, dto.KafkaEvent{
		MessageID: messageID(msg),
		Topic:     msg.Topic,
		Key:       string(msg.Key),
		Partition: int(msg.Partition),
		Offset:    msg.Offset,
		Payload:   append([]byte(nil), msg.Value...),
	})
	if err != nil {
		h.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("events.InsertEvent failed")
	}
}

func (h *handler) toDLQ(ctx context.Context, msg *sarama.ConsumerMessage, reason string) {
	err := h.events.InsertDLQ(ctx, dto.KafkaDLQ{
		Topic:     msg.Topic,
		Key:       string(msg.Key),
		Partition: int(msg.Partition),
		Offset:    msg.Offset,
		Payload:   append([]byte(nil), msg.Value...),
		Error:     reason,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("events.InsertDLQ failed")
	}

	h.log.Warn().
		Str("topic", msg.Topic).
		Int32("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Str("reason", reason).
		Msg("message sent to DLQ")
}

// messageID prefers the producer's message-id header and falls back to an id
// derived from the message position, so a redelivery maps to the same id.
func messageID(msg *sarama.ConsumerMessage) uuid.UUID {
	for _, hdr := range msg.Headers {
		if hdr != nil && string(hdr.Key) == "message-id" {
			if id, err := uuid.ParseBytes(hdr.Value); err == nil {
				return id
			}
		}
	}

	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
