package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Artexxx/hr-services/internal/dto"
	"github.com/Artexxx/hr-services/internal/metrics"
)

func headerMap(hs []sarama.RecordHeader) map[string]string {
	out := make(map[string]string, len(hs))
	for _, h := range hs {
		out[string(h.Key)] = string(h.Value)
	}
	return out
}

func TestRatingProducer_Publish(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	defer func() { require.NoError(t, sp.Close()) }()

	event := dto.RatingEvent{ReviewID: 11, Title: "Q3", Description: "solid", Rating: 4.5, EmployeeID: 7}

	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "reviews.rating" {
			return fmt.Errorf("topic %q", msg.Topic)
		}

		key, _ := msg.Key.Encode()
		if string(key) != "7" {
			return fmt.Errorf("key %q", key)
		}

		h := headerMap(msg.Headers)
		if h["event-kind"] != "review-created" || h["source"] != "review-service" || h["content-type"] != "application/json" {
			return fmt.Errorf("headers %v", h)
		}
		if h["message-id"] == "" {
			return errors.New("missing message-id")
		}

		value, _ := msg.Value.Encode()
		var got dto.RatingEvent
		if err := json.Unmarshal(value, &got); err != nil {
			return err
		}
		if got != event {
			return fmt.Errorf("payload %+v", got)
		}
		return nil
	})

	m := metrics.NewIsolated()
	p := NewRatingProducer(sp, Config{Topic: "reviews.rating", Source: "review-service"}, m, zerolog.Nop())

	require.NoError(t, p.Publish(context.Background(), event))
}

func TestRatingProducer_PublishFailure(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	defer func() { _ = sp.Close() }()

	sp.ExpectSendMessageAndFail(sarama.ErrNotEnoughReplicas)

	p := NewRatingProducer(sp, Config{Topic: "reviews.rating", Source: "review-service"}, nil, zerolog.Nop())

	err := p.Publish(context.Background(), dto.RatingEvent{ReviewID: 1, Rating: 3, EmployeeID: 2})
	require.ErrorIs(t, err, ErrDeliveryFailed)
	require.ErrorIs(t, err, sarama.ErrNotEnoughReplicas)
}

func TestRatingProducer_NotInitialized(t *testing.T) {
	var p *RatingProducer
	require.ErrorIs(t, p.send(context.Background(), "1", nil, nil), ErrDeliveryFailed)
	require.NoError(t, p.Close())
}

func TestRatingProducer_CountsResults(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	defer func() { _ = sp.Close() }()

	sp.ExpectSendMessageAndSucceed()
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	m := metrics.NewIsolated()
	p := NewRatingProducer(sp, Config{Topic: "reviews.rating"}, m, zerolog.Nop())

	require.NoError(t, p.Publish(context.Background(), dto.RatingEvent{EmployeeID: 1, Rating: 5}))
	require.Error(t, p.Publish(context.Background(), dto.RatingEvent{EmployeeID: 1, Rating: 5}))

	require.NoError(t, testutil.GatherAndCompare(m.Gatherer(), strings.NewReader(`
# HELP hr_rating_events_published_total Rating events handed to the broker, by result.
# TYPE hr_rating_events_published_total counter
hr_rating_events_published_total{result="failed"} 1
hr_rating_events_published_total{result="ok"} 1
`), "hr_rating_events_published_total"))
}
