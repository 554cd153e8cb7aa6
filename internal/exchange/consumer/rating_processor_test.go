package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/valyala/fasthttp"

	"github.com/Artexxx/hr-services/internal/dto"
	"github.com/Artexxx/hr-services/internal/exchange/rpc"
)

func ratingMessage(ev dto.RatingEvent) string {
	b, _ := json.Marshal(ev)
	return string(b)
}

func TestRatingProcessor(t *testing.T) {
	Convey("Given an employee store and a review source", t, func() {
		ctx := context.Background()
		employees := newFakeEmployees(7)
		reviews := &fakeRatings{ratings: map[int64][]float64{}}
		p := NewRatingProcessor(employees, reviews, zerolog.Nop())

		Convey("Scenario A: first review of an employee sets the average to its rating", func() {
			reviews.add(7, 4.0)

			outcome, err := p.Process(ctx, dto.RatingEvent{ReviewID: 1, Title: "Q1", Rating: 4.0, EmployeeID: 7})
			So(err, ShouldBeNil)
			So(outcome, ShouldEqual, OutcomeUpdated)
			So(*employees.average(7), ShouldEqual, 4.0)
		})

		Convey("Scenario B: a new review is averaged with the existing ones", func() {
			reviews.add(7, 3.0)
			reviews.add(7, 5.0)
			reviews.add(7, 4.0)

			outcome, err := p.Process(ctx, dto.RatingEvent{ReviewID: 3, Rating: 4.0, EmployeeID: 7})
			So(err, ShouldBeNil)
			So(outcome, ShouldEqual, OutcomeUpdated)
			So(*employees.average(7), ShouldEqual, 4.0)
		})

		Convey("An empty review set leaves the rating unset", func() {
			outcome, err := p.Process(ctx, dto.RatingEvent{ReviewID: 1, Rating: 4.0, EmployeeID: 7})
			So(err, ShouldBeNil)
			So(outcome, ShouldEqual, OutcomeSkipped)
			So(employees.average(7), ShouldBeNil)
		})

		Convey("A missing employee is a terminal outcome", func() {
			reviews.add(999, 2.0)

			outcome, err := p.Process(ctx, dto.RatingEvent{ReviewID: 1, Rating: 2.0, EmployeeID: 999})
			So(err, ShouldWrap, dto.ErrNotFound)
			So(outcome, ShouldEqual, OutcomeTargetGone)
			So(outcome.Ack(), ShouldBeTrue)
		})

		Convey("An employee deleted between read and write is a terminal outcome", func() {
			reviews.add(7, 2.0)
			employees.updateErr = dto.ErrNotFound

			outcome, _ := p.Process(ctx, dto.RatingEvent{ReviewID: 1, Rating: 2.0, EmployeeID: 7})
			So(outcome, ShouldEqual, OutcomeTargetGone)
		})

		Convey("When the review source is unavailable", func() {
			reviews.add(7, 5.0)
			reviews.err = fmt.Errorf("review-service: %w", errStoreDown)

			outcome, err := p.Process(ctx, dto.RatingEvent{ReviewID: 1, Rating: 5.0, EmployeeID: 7})

			Convey("the event is redelivered and nothing is written", func() {
				So(err, ShouldNotBeNil)
				So(outcome, ShouldEqual, OutcomeRedeliver)
				So(outcome.Ack(), ShouldBeFalse)
				So(employees.average(7), ShouldBeNil)
			})
		})

		Convey("When the employee store fails", func() {
			employees.getErr = errStoreDown

			outcome, err := p.Process(ctx, dto.RatingEvent{ReviewID: 1, Rating: 5.0, EmployeeID: 7})
			So(err, ShouldWrap, errStoreDown)
			So(outcome, ShouldEqual, OutcomeRedeliver)
		})

		Convey("Processing the same event twice converges to the same average", func() {
			reviews.add(7, 3.0)
			reviews.add(7, 4.5)
			ev := dto.RatingEvent{ReviewID: 2, Rating: 4.5, EmployeeID: 7}

			_, _ = p.Process(ctx, ev)
			first := *employees.average(7)
			_, _ = p.Process(ctx, ev)

			So(*employees.average(7), ShouldEqual, first)
			So(first, ShouldEqual, 3.75)
		})

		Convey("Out-of-order events converge to the mean of the full set", func() {
			reviews.add(7, 1.0)
			reviews.add(7, 2.0)
			reviews.add(7, 5.0)

			for _, id := range []int64{3, 1, 2} {
				_, err := p.Process(ctx, dto.RatingEvent{ReviewID: id, EmployeeID: 7})
				So(err, ShouldBeNil)
			}

			So(*employees.average(7), ShouldAlmostEqual, 8.0/3.0, 1e-9)
		})
	})
}

func TestHandler_RedeliveredEvent(t *testing.T) {
	Convey("Scenario E: the broker delivers the same event twice", t, func() {
		employees := newFakeEmployees(7)
		reviews := &fakeRatings{ratings: map[int64][]float64{7: {3.0, 5.0, 4.0}}}
		events := &fakeEvents{}

		h := &handler{
			processor:    NewRatingProcessor(employees, reviews, zerolog.Nop()),
			events:       events,
			retryInitial: time.Millisecond,
			retryMax:     time.Millisecond,
			log:          zerolog.Nop(),
		}

		ev := dto.RatingEvent{ReviewID: 3, Title: "Q3", Rating: 4.0, EmployeeID: 7}
		sess := &fakeSession{ctx: context.Background()}
		claim := newFakeClaim(message(10, ratingMessage(ev)), message(10, ratingMessage(ev)))

		So(h.ConsumeClaim(sess, claim), ShouldBeNil)

		Convey("the persisted average matches a single delivery", func() {
			So(*employees.average(7), ShouldEqual, 4.0)
			So(sess.markedOffsets(), ShouldResemble, []int64{10, 10})
		})

		Convey("both deliveries map to the same journal id", func() {
			So(events.events, ShouldHaveLength, 2)
			So(events.events[0].MessageID, ShouldEqual, events.events[1].MessageID)
		})
	})
}

// reviewService answers every request with a fixed status and body.
type reviewService struct {
	status int
	body   string
}

func (s reviewService) DoDeadline(_ *fasthttp.Request, resp *fasthttp.Response, _ time.Time) error {
	resp.SetStatusCode(s.status)
	resp.SetBodyString(s.body)
	return nil
}

func TestRatingProcessor_ReviewServiceResponses(t *testing.T) {
	Convey("Given the real review client in front of review-service", t, func() {
		ctx := context.Background()
		employees := newFakeEmployees(7)
		process := func(svc reviewService) (Outcome, error) {
			ratings := rpc.NewReviewClient("http://review-service:8083", zerolog.Nop(), rpc.WithDoer(svc))
			return NewRatingProcessor(employees, ratings, zerolog.Nop()).
				Process(ctx, dto.RatingEvent{ReviewID: 1, Rating: 4.0, EmployeeID: 7})
		}

		Convey("a 404 for the review set is redelivered, not skipped", func() {
			outcome, err := process(reviewService{404, `{"success":false,"message":"Not Found","data":null}`})
			So(errors.Is(err, rpc.ErrUpstreamUnavailable), ShouldBeTrue)
			So(outcome, ShouldEqual, OutcomeRedeliver)
			So(outcome.Ack(), ShouldBeFalse)
			So(employees.average(7), ShouldBeNil)
		})

		Convey("success:false with status 200 is redelivered", func() {
			outcome, _ := process(reviewService{200, `{"success":false,"message":"db down","data":null}`})
			So(outcome, ShouldEqual, OutcomeRedeliver)
		})

		Convey("a successful empty set is skipped", func() {
			outcome, err := process(reviewService{200, `{"success":true,"message":"No reviews found for employee with ID: 7","data":null}`})
			So(err, ShouldBeNil)
			So(outcome, ShouldEqual, OutcomeSkipped)
		})

		Convey("a successful set updates the average", func() {
			outcome, err := process(reviewService{200, `{"success":true,"message":"ok","data":[
				{"id":1,"title":"a","rating":4,"employee_id":7},
				{"id":2,"title":"b","rating":2,"employee_id":7}]}`})
			So(err, ShouldBeNil)
			So(outcome, ShouldEqual, OutcomeUpdated)
			So(*employees.average(7), ShouldEqual, 3.0)
		})
	})
}
