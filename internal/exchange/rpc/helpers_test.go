package rpc

import (
	"errors"
	"net"
	"testing"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

// upstream serves handler over an in-memory listener and returns a client
// that dials it regardless of the request host.
func upstream(t *testing.T, handler fasthttp.RequestHandler) *fasthttp.Client {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}

	go func() { _ = srv.Serve(ln) }()

	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = ln.Close()
	})

	return &fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}
}

// unreachable returns a client whose every dial fails.
func unreachable() *fasthttp.Client {
	return &fasthttp.Client{
		Dial: func(string) (net.Conn, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBodyString(body)
}
