package consumer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/Artexxx/hr-services/internal/dto"
)

var errStoreDown = errors.New("connection reset by peer")

type fakeEmployees struct {
	mu        sync.Mutex
	rows      map[int64]*dto.Employee
	getErr    error
	updateErr error
	updates   int
}

func newFakeEmployees(ids ...int64) *fakeEmployees {
	f := &fakeEmployees{rows: map[int64]*dto.Employee{}}
	for _, id := range ids {
		f.rows[id] = &dto.Employee{ID: id, FirstName: "E", Email: "e@corp.io", DepartmentID: 1}
	}
	return f
}

func (f *fakeEmployees) GetByID(_ context.Context, id int64) (*dto.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	e, ok := f.rows[id]
	if !ok {
		return nil, dto.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEmployees) UpdateAverageRating(_ context.Context, id int64, average float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	e, ok := f.rows[id]
	if !ok {
		return dto.ErrNotFound
	}
	now := time.Now()
	e.AverageRating = &average
	e.RatingUpdatedAt = &now
	f.updates++
	return nil
}

func (f *fakeEmployees) average(id int64) *float64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	if e, ok := f.rows[id]; ok {
		return e.AverageRating
	}
	return nil
}

type fakeRatings struct {
	mu      sync.Mutex
	ratings map[int64][]float64
	err     error
}

func (f *fakeRatings) add(employeeID int64, rating float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings[employeeID] = append(f.ratings[employeeID], rating)
}

func (f *fakeRatings) Ratings(_ context.Context, employeeID int64) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return append([]float64(nil), f.ratings[employeeID]...), nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []dto.KafkaEvent
	dlq    []dto.KafkaDLQ
}

func (f *fakeEvents) InsertEvent(_ context.Context, ev dto.KafkaEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) InsertDLQ(_ context.Context, dlq dto.KafkaDLQ) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dlq = append(f.dlq, dlq)
	return nil
}

type fakeSession struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "member-1" }
func (s *fakeSession) GenerationID() int32                      { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Context() context.Context                 { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

func (s *fakeSession) markedOffsets() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.marked...)
}

type fakeClaim struct {
	msgs chan *sarama.ConsumerMessage
}

func newFakeClaim(msgs ...*sarama.ConsumerMessage) *fakeClaim {
	ch := make(chan *sarama.ConsumerMessage, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	close(ch)
	return &fakeClaim{msgs: ch}
}

func (c *fakeClaim) Topic() string                            { return "reviews.rating" }
func (c *fakeClaim) Partition() int32                         { return 0 }
func (c *fakeClaim) InitialOffset() int64                     { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64               { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func message(offset int64, value string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{
		Topic:     "reviews.rating",
		Partition: 0,
		Offset:    offset,
		Key:       []byte("7"),
		Value:     []byte(value),
	}
}
