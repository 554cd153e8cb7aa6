package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Artexxx/hr-services/internal/dto"
	"github.com/Artexxx/hr-services/internal/metrics"
)

// ErrDeliveryFailed: the broker did not accept the event.
var ErrDeliveryFailed = errors.New("rating event delivery failed")

const eventKindReviewCreated = "review-created"

type Config struct {
	Topic  string
	Source string
}

type RatingProducer struct {
	sp      sarama.SyncProducer
	topic   string
	source  string
	metrics *metrics.Recorder
	log     zerolog.Logger
}

// NewSaramaConfig returns an idempotent acks=all producer config.
func NewSaramaConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Version = sarama.V3_3_2_0
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 200 * time.Millisecond
	return cfg
}

func NewSyncProducer(brokers []string, clientID string) (sarama.SyncProducer, error) {
	sp, err := sarama.NewSyncProducer(brokers, NewSaramaConfig(clientID))
	if err != nil {
		return nil, fmt.Errorf("sarama.NewSyncProducer: %w", err)
	}

	return sp, nil
}

func NewRatingProducer(sp sarama.SyncProducer, cfg Config, m *metrics.Recorder, log zerolog.Logger) *RatingProducer {
	return &RatingProducer{
		sp:      sp,
		topic:   cfg.Topic,
		source:  cfg.Source,
		metrics: m,
		log:     log.With().Str("component", "RatingProducer").Logger(),
	}
}

func (p *RatingProducer) Close() error {
	if p == nil || p.sp == nil {
		return nil
	}
	return p.sp.Close()
}

// Publish enqueues the event keyed by employee id, so all events of one
// employee land on one partition.
func (p *RatingProducer) Publish(ctx context.Context, event dto.RatingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: json.Marshal: %w", ErrDeliveryFailed, err)
	}

	err = p.send(ctx, strconv.FormatInt(event.EmployeeID, 10), body, map[string]string{
		"event-kind":   eventKindReviewCreated,
		"source":       p.source,
		"content-type": "application/json",
		"message-id":   uuid.NewString(),
	})
	p.metrics.RatingPublished(err == nil)

	return err
}

func (p *RatingProducer) send(ctx context.Context, key string, value []byte, headers map[string]string) error {
	if p == nil || p.sp == nil {
		return fmt.Errorf("%w: sync producer is not initialized", ErrDeliveryFailed)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	hs := make([]sarama.RecordHeader, 0, len(headers))
	for k, v := range headers {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	msg := &sarama.ProducerMessage{
		Topic:   p.topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(value),
		Headers: hs,
	}

	part, off, err := p.sp.SendMessage(msg)
	if err != nil {
		p.log.Error().
			Err(err).
			Str("topic", p.topic).
			Str("key", key).
			Int("bytes", len(value)).
			Msg("failed to send kafka message")
		return fmt.Errorf("%w: send kafka message: %w", ErrDeliveryFailed, err)
	}

	p.log.Info().
		Str("topic", p.topic).
		Str("key", key).
		Int32("partition", part).
		Int64("offset", off).
		Int("bytes", len(value)).
		Msg("kafka message sent")
	return nil
}
