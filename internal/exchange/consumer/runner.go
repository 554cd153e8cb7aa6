package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/Artexxx/hr-services/internal/metrics"
)

type Config struct {
	Brokers      []string
	Topic        string
	GroupID      string
	ClientID     string
	RetryInitial time.Duration
	RetryMax     time.Duration
}

// Runner keeps one consumer group session alive on the rating topic until
// its context is cancelled.
type Runner struct {
	topic    string
	handler  *handler
	log      zerolog.Logger
	newGroup func() (sarama.ConsumerGroup, error)
}

// NewSaramaConfig is the consumer side of the rating topic. Offsets are
// marked by the handler only for resolved messages.
func NewSaramaConfig(clientID string) *sarama.Config {
	sc := sarama.NewConfig()
	sc.ClientID = clientID
	sc.Version = sarama.V3_3_2_0
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRange()}
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	sc.Consumer.Return.Errors = true
	return sc
}

func NewRatingRunner(cfg Config, processor Processor, events EventsRepository, m *metrics.Recorder, log zerolog.Logger) *Runner {
	r := newRunner(cfg, processor, events, m, log)
	r.newGroup = func() (sarama.ConsumerGroup, error) {
		return sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, NewSaramaConfig(cfg.ClientID))
	}
	return r
}

func newRunner(cfg Config, processor Processor, events EventsRepository, m *metrics.Recorder, log zerolog.Logger) *Runner {
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = 500 * time.Millisecond
	}
	if cfg.RetryMax < cfg.RetryInitial {
		cfg.RetryMax = cfg.RetryInitial
	}

	return &Runner{
		topic: cfg.Topic,
		handler: &handler{
			processor:    processor,
			events:       events,
			metrics:      m,
			retryInitial: cfg.RetryInitial,
			retryMax:     cfg.RetryMax,
			log:          log.With().Str("consumer", "rating").Logger(),
		},
		log: log.With().Str("topic", cfg.Topic).Str("group", cfg.GroupID).Logger(),
	}
}

// Start returns nil on cancellation. A failed Consume (broker down,
// rebalance error) is logged and retried after the handler's initial backoff.
func (r *Runner) Start(ctx context.Context) error {
	group, err := r.newGroup()
	if err != nil {
		return err
	}
	defer func() { _ = group.Close() }()

	go func() {
		for err := range group.Errors() {
			if err != nil && !errors.Is(err, context.Canceled) {
				r.log.Error().Err(err).Msg("consumer group error")
			}
		}
	}()

	r.log.Info().Msg("consumer started")
	defer r.log.Info().Msg("consumer stopped")

	for ctx.Err() == nil {
		err := group.Consume(ctx, []string{r.topic}, r.handler)
		if ctx.Err() != nil || errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}

		if err != nil {
			r.log.Error().Err(err).Msg("consume error")
			if !sleepCtx(ctx, r.handler.retryInitial) {
				return nil
			}
		}
	}

	return nil
}
