package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsProtected(t *testing.T) {
	cases := map[string]bool{
		"/auth/login":              false,
		"/auth/register":           false,
		"/auth/verify-token":       false,
		"/auth/verify-token/abc":   false,
		"/health":                  false,
		"/metrics":                 false,
		"/auth/logout":             true,
		"/auth/login-as-admin":     true,
		"/employees/1":             true,
		"/departments":             true,
		"/reviews?employeeId=1":    true,
		"/":                        true,
		"/healthz":                 true,
		"/employees/health":        true,
		"/reviews/average-rating":  true,
		"/departments/1/exists":    true,
		"/departments/employees/x": true,
	}

	for path, want := range cases {
		require.Equal(t, want, IsProtected(path), path)
	}
}
