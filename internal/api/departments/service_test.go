package departments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/Artexxx/hr-services/internal/api"
	"github.com/Artexxx/hr-services/internal/api/apitest"
	"github.com/Artexxx/hr-services/internal/cache"
	"github.com/Artexxx/hr-services/internal/dto"
	"github.com/Artexxx/hr-services/internal/exchange/rpc"
	"github.com/Artexxx/hr-services/internal/metrics"
)

type memRepo struct {
	mu        sync.Mutex
	rows      map[int64]dto.Department
	next      int64
	existsErr error
}

func newMemRepo(names ...string) *memRepo {
	r := &memRepo{rows: map[int64]dto.Department{}}
	for _, n := range names {
		_, _ = r.Create(context.Background(), dto.Department{Name: n})
	}
	return r
}

func (r *memRepo) Create(_ context.Context, d dto.Department) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Name == d.Name {
			return 0, dto.ErrAlreadyExists
		}
	}
	r.next++
	d.ID = r.next
	r.rows[d.ID] = d
	return d.ID, nil
}

func (r *memRepo) Update(_ context.Context, d dto.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[d.ID]; !ok {
		return dto.ErrNotFound
	}
	r.rows[d.ID] = d
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return dto.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*dto.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.rows[id]
	if !ok {
		return nil, dto.ErrNotFound
	}
	return &d, nil
}

func (r *memRepo) GetByName(_ context.Context, name string) (*dto.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.rows {
		if d.Name == name {
			return &d, nil
		}
	}
	return nil, dto.ErrNotFound
}

func (r *memRepo) Exists(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsErr != nil {
		return false, r.existsErr
	}
	_, ok := r.rows[id]
	return ok, nil
}

func (r *memRepo) List(_ context.Context) ([]dto.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dto.Department, 0, len(r.rows))
	for id := int64(1); id <= r.next; id++ {
		if d, ok := r.rows[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

type stubEmployees struct {
	rows []dto.Employee
	err  error
}

func (s stubEmployees) ListByDepartment(context.Context, int64) ([]dto.Employee, error) {
	return s.rows, s.err
}

func handler(repo Repository, employees EmployeeLister) fasthttp.RequestHandler {
	svc := NewService(repo, employees, zerolog.Nop())
	return api.NewServer(api.ServerConfig{Name: "department-service"}, zerolog.Nop(), metrics.NewIsolated(), svc).Handler()
}

func TestDepartments_CreateAndConflict(t *testing.T) {
	h := handler(newMemRepo(), stubEmployees{})

	resp := apitest.Do(h, "POST", "/departments", `{"name":"Engineering"}`)
	require.Equal(t, fasthttp.StatusCreated, resp.Status)

	var d dto.Department
	require.NoError(t, resp.Data(&d))
	require.EqualValues(t, 1, d.ID)

	resp = apitest.Do(h, "POST", "/departments", `{"name":"Engineering"}`)
	require.Equal(t, fasthttp.StatusConflict, resp.Status)
	require.False(t, resp.Envelope.Success)

	resp = apitest.Do(h, "POST", "/departments", `{"name":"  "}`)
	require.Equal(t, fasthttp.StatusBadRequest, resp.Status)

	resp = apitest.Do(h, "POST", "/departments", `{`)
	require.Equal(t, fasthttp.StatusBadRequest, resp.Status)
}

func TestDepartments_GetUpdateDelete(t *testing.T) {
	h := handler(newMemRepo("Engineering", "Sales"), stubEmployees{})

	resp := apitest.Do(h, "GET", "/departments/2", "")
	require.Equal(t, fasthttp.StatusOK, resp.Status)

	resp = apitest.Do(h, "PUT", "/departments/2", `{"name":"Marketing"}`)
	require.Equal(t, fasthttp.StatusOK, resp.Status)

	resp = apitest.Do(h, "PUT", "/departments/9", `{"name":"Support"}`)
	require.Equal(t, fasthttp.StatusNotFound, resp.Status)

	resp = apitest.Do(h, "DELETE", "/departments/2", "")
	require.Equal(t, fasthttp.StatusOK, resp.Status)

	resp = apitest.Do(h, "GET", "/departments/2", "")
	require.Equal(t, fasthttp.StatusNotFound, resp.Status)
	require.Equal(t, "Department not found with id: 2", resp.Envelope.Message)

	resp = apitest.Do(h, "GET", "/departments", "")
	var list []dto.Department
	require.NoError(t, resp.Data(&list))
	require.Len(t, list, 1)
}

func TestDepartments_Exists(t *testing.T) {
	repo := newMemRepo("Engineering")
	h := handler(repo, stubEmployees{})

	resp := apitest.Do(h, "GET", "/departments/1/exists", "")
	require.Equal(t, fasthttp.StatusOK, resp.Status)
	require.True(t, resp.Envelope.Success)
	require.JSONEq(t, "true", string(resp.Envelope.Data))

	resp = apitest.Do(h, "GET", "/departments/5/exists", "")
	require.JSONEq(t, "false", string(resp.Envelope.Data))

	resp = apitest.Do(h, "GET", "/departments/0/exists", "")
	require.JSONEq(t, "false", string(resp.Envelope.Data))

	repo.existsErr = errors.New("pool exhausted")
	resp = apitest.Do(h, "GET", "/departments/1/exists", "")
	require.Equal(t, fasthttp.StatusInternalServerError, resp.Status)
	require.False(t, resp.Envelope.Success)
	require.True(t, resp.IsNullData())
}

func TestDepartments_ListEmployees(t *testing.T) {
	repo := newMemRepo("Engineering")

	h := handler(repo, stubEmployees{rows: []dto.Employee{{ID: 1, FirstName: "Ann", DepartmentID: 1}}})
	resp := apitest.Do(h, "GET", "/departments/employees/Engineering", "")
	require.Equal(t, fasthttp.StatusOK, resp.Status)
	var employees []dto.Employee
	require.NoError(t, resp.Data(&employees))
	require.Len(t, employees, 1)

	resp = apitest.Do(h, "GET", "/departments/employees/Nope", "")
	require.Equal(t, fasthttp.StatusNotFound, resp.Status)

	down := fmt.Errorf("EmployeeClient.ListByDepartment: %w: connection refused", rpc.ErrUpstreamUnavailable)
	h = handler(repo, stubEmployees{err: down})
	resp = apitest.Do(h, "GET", "/departments/employees/Engineering", "")
	require.Equal(t, fasthttp.StatusServiceUnavailable, resp.Status)

	h = handler(repo, stubEmployees{})
	resp = apitest.Do(h, "GET", "/departments/employees/Engineering", "")
	require.Equal(t, fasthttp.StatusOK, resp.Status)
	require.JSONEq(t, "[]", string(resp.Envelope.Data))
}

// inProcess serves rpc calls straight from a handler.
type inProcess struct {
	h fasthttp.RequestHandler
}

func (p inProcess) DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, _ time.Time) error {
	var ctx fasthttp.RequestCtx
	req.CopyTo(&ctx.Request)
	p.h(&ctx)
	ctx.Response.CopyTo(resp)
	return nil
}

func TestDepartments_DeleteEvictsPresenceMarker(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	pc := cache.NewPresenceCache(client, time.Minute, zerolog.Nop())
	defer func() { _ = pc.Close() }()

	repo := newMemRepo("Engineering")
	svc := NewService(repo, stubEmployees{}, zerolog.Nop(), WithPresenceEviction(pc))
	h := api.NewServer(api.ServerConfig{Name: "department-service"}, zerolog.Nop(), metrics.NewIsolated(), svc).Handler()

	checker := rpc.NewChecker(
		map[rpc.Kind]string{rpc.KindDepartment: "http://department-service:8081"},
		zerolog.Nop(),
		rpc.WithDoer(inProcess{h}),
		rpc.WithPresenceCache(pc),
		rpc.WithRetries(0),
	)
	key := rpc.PresenceKey(rpc.DepartmentRef(1))

	require.Equal(t, rpc.Present, checker.CheckExists(ctx, rpc.DepartmentRef(1)).Status)
	require.True(t, mr.Exists(key))

	require.Equal(t, fasthttp.StatusOK, apitest.Do(h, "DELETE", "/departments/1", "").Status)
	require.False(t, mr.Exists(key))

	require.Equal(t, rpc.Absent, checker.CheckExists(ctx, rpc.DepartmentRef(1)).Status)
	require.False(t, mr.Exists(key))
}
