package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Artexxx/hr-services/internal/dto"
	"github.com/Artexxx/hr-services/internal/metrics"
)

// Kind is the resource path segment of the owning service.
type Kind string

const (
	KindDepartment Kind = "departments"
	KindEmployee   Kind = "employees"
)

func (k Kind) Entity() string {
	switch k {
	case KindDepartment:
		return "Department"
	case KindEmployee:
		return "Employee"
	default:
		return string(k)
	}
}

// Ref points at exactly one entity owned by another service.
type Ref struct {
	Kind Kind
	ID   int64
}

func DepartmentRef(id int64) Ref { return Ref{Kind: KindDepartment, ID: id} }
func EmployeeRef(id int64) Ref   { return Ref{Kind: KindEmployee, ID: id} }

func (r Ref) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

type Status uint8

// The zero Status is Indeterminate, so an unset Result never reads as Absent.
const (
	Indeterminate Status = iota
	Present
	Absent
)

func (s Status) String() string {
	switch s {
	case Present:
		return "present"
	case Absent:
		return "absent"
	default:
		return "indeterminate"
	}
}

// Result of an existence check. Reason is set only for Indeterminate.
type Result struct {
	Status Status
	Reason error
}

func present() Result                { return Result{Status: Present} }
func absent() Result                 { return Result{Status: Absent} }
func indeterminate(err error) Result { return Result{Status: Indeterminate, Reason: err} }

// PresenceCache remembers confirmed-present entities for a short time.
// Absent and Indeterminate results are never stored.
type PresenceCache interface {
	IsPresent(ctx context.Context, key string) (bool, error)
	MarkPresent(ctx context.Context, key string) error
}

// Checker asks owning services whether an entity exists.
type Checker struct {
	transport
	bases   map[Kind]string
	retries int
	backoff time.Duration
	cache   PresenceCache
	metrics *metrics.Recorder
}

// NewChecker takes the base URL of every owning service by kind,
// e.g. {KindDepartment: "http://department-service:8081"}.
func NewChecker(bases map[Kind]string, log zerolog.Logger, opts ...Option) *Checker {
	o := buildOptions(opts)

	normalized := make(map[Kind]string, len(bases))
	for k, v := range bases {
		normalized[k] = strings.TrimRight(v, "/")
	}

	return &Checker{
		transport: transport{
			doer:    o.doer,
			timeout: o.timeout,
			log:     log.With().Str("component", "ExistenceChecker").Logger(),
		},
		bases:   normalized,
		retries: o.retries,
		backoff: o.backoff,
		cache:   o.cache,
		metrics: o.metrics,
	}
}

func (c *Checker) CheckExists(ctx context.Context, ref Ref) Result {
	start := time.Now()
	res := c.checkExists(ctx, ref)
	took := time.Since(start)

	c.metrics.ObserveExistence(string(ref.Kind), res.Status.String(), took)

	if res.Status == Indeterminate {
		c.log.Warn().
			Err(res.Reason).
			Str("ref", ref.String()).
			Dur("took", took).
			Msg("existence check indeterminate")
	} else {
		c.log.Debug().
			Str("ref", ref.String()).
			Str("status", res.Status.String()).
			Dur("took", took).
			Msg("existence check")
	}

	return res
}

func (c *Checker) checkExists(ctx context.Context, ref Ref) Result {
	if ref.ID < 1 {
		return absent()
	}

	base, ok := c.bases[ref.Kind]
	if !ok || base == "" {
		return indeterminate(fmt.Errorf("%w: %q", ErrUnknownKind, ref.Kind))
	}

	key := PresenceKey(ref)
	if c.cache != nil {
		hit, err := c.cache.IsPresent(ctx, key)
		if err != nil {
			c.log.Debug().Err(err).Str("key", key).Msg("presence cache read failed")
		}
		if hit {
			return present()
		}
	}

	url := fmt.Sprintf("%s/%s/%d/exists", base, ref.Kind, ref.ID)

	var res Result
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			if !sleepCtx(ctx, c.backoff*time.Duration(attempt)) {
				break
			}
		}

		res = c.once(ctx, url)
		if res.Status != Indeterminate || errors.Is(res.Reason, context.Canceled) || errors.Is(res.Reason, context.DeadlineExceeded) {
			break
		}
	}

	if res.Status == Present && c.cache != nil {
		if err := c.cache.MarkPresent(ctx, key); err != nil {
			c.log.Debug().Err(err).Str("key", key).Msg("presence cache write failed")
		}
	}

	return res
}

func (c *Checker) once(ctx context.Context, url string) Result {
	status, body, err := c.get(ctx, url)
	if err != nil {
		return indeterminate(err)
	}

	switch {
	case status == fasthttp.StatusNotFound:
		return absent()
	case status < 200 || status >= 300:
		return indeterminate(fmt.Errorf("%w %d", ErrUpstreamStatus, status))
	}

	var env dto.ApiResponse[*bool]
	if err := json.Unmarshal(body, &env); err != nil {
		return indeterminate(fmt.Errorf("%w: %v", ErrMalformedEnvelope, err))
	}

	if !env.Success {
		return indeterminate(fmt.Errorf("%w: %s", ErrUnsuccessful, env.Message))
	}

	if env.Data == nil {
		return indeterminate(fmt.Errorf("%w: data is null", ErrMalformedEnvelope))
	}

	if *env.Data {
		return present()
	}

	return absent()
}

// PresenceKey is the cache key of ref. Owning services evict it on delete.
func PresenceKey(ref Ref) string {
	return fmt.Sprintf("exists:%s:%d", ref.Kind, ref.ID)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
