package rpc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Artexxx/hr-services/internal/dto"
)

// ReviewClient reads review data from review-service.
type ReviewClient struct {
	transport
	base string
}

func NewReviewClient(base string, log zerolog.Logger, opts ...Option) *ReviewClient {
	o := buildOptions(opts)
	return &ReviewClient{
		transport: transport{
			doer:    o.doer,
			timeout: o.timeout,
			log:     log.With().Str("component", "ReviewClient").Logger(),
		},
		base: strings.TrimRight(base, "/"),
	}
}

// ListByEmployee returns the full review set of an employee. Only a
// successful envelope with null or [] data is an empty set; a 404 means the
// route or the service is wrong and is reported as ErrUpstreamUnavailable.
func (c *ReviewClient) ListByEmployee(ctx context.Context, employeeID int64) ([]dto.Review, error) {
	u := c.base + "/reviews?employeeId=" + strconv.FormatInt(employeeID, 10)

	reviews, found, err := getEnvelope[[]dto.Review](ctx, c.transport, u)
	if err != nil {
		return nil, fmt.Errorf("ReviewClient.ListByEmployee: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("ReviewClient.ListByEmployee: %w: GET %s: %w 404", ErrUpstreamUnavailable, u, ErrUpstreamStatus)
	}

	return reviews, nil
}

// Ratings returns only the ratings of ListByEmployee.
func (c *ReviewClient) Ratings(ctx context.Context, employeeID int64) ([]float64, error) {
	reviews, err := c.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	ratings := make([]float64, 0, len(reviews))
	for _, r := range reviews {
		ratings = append(ratings, r.Rating)
	}

	return ratings, nil
}

// DepartmentClient reads departments from department-service.
type DepartmentClient struct {
	transport
	base string
}

func NewDepartmentClient(base string, log zerolog.Logger, opts ...Option) *DepartmentClient {
	o := buildOptions(opts)
	return &DepartmentClient{
		transport: transport{
			doer:    o.doer,
			timeout: o.timeout,
			log:     log.With().Str("component", "DepartmentClient").Logger(),
		},
		base: strings.TrimRight(base, "/"),
	}
}

// GetByID returns ErrEntityNotFound when department-service answers 404.
func (c *DepartmentClient) GetByID(ctx context.Context, id int64) (*dto.Department, error) {
	u := c.base + "/departments/" + strconv.FormatInt(id, 10)

	dep, found, err := getEnvelope[*dto.Department](ctx, c.transport, u)
	if err != nil {
		return nil, fmt.Errorf("DepartmentClient.GetByID: %w", err)
	}

	if !found || dep == nil {
		return nil, &RefError{Ref: DepartmentRef(id), Kind: ErrEntityNotFound}
	}

	return dep, nil
}

// EmployeeClient reads employees from employee-service.
type EmployeeClient struct {
	transport
	base string
}

func NewEmployeeClient(base string, log zerolog.Logger, opts ...Option) *EmployeeClient {
	o := buildOptions(opts)
	return &EmployeeClient{
		transport: transport{
			doer:    o.doer,
			timeout: o.timeout,
			log:     log.With().Str("component", "EmployeeClient").Logger(),
		},
		base: strings.TrimRight(base, "/"),
	}
}

func (c *EmployeeClient) ListByDepartment(ctx context.Context, departmentID int64) ([]dto.Employee, error) {
	q := url.Values{}
	q.Set("departmentId", strconv.FormatInt(departmentID, 10))
	u := c.base + "/employees?" + q.Encode()

	employees, _, err := getEnvelope[[]dto.Employee](ctx, c.transport, u)
	if err != nil {
		return nil, fmt.Errorf("EmployeeClient.ListByDepartment: %w", err)
	}

	return employees, nil
}
