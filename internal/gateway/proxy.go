package gateway

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Artexxx/hr-services/internal/api"
	"github.com/Artexxx/hr-services/internal/exchange/rpc"
)

const defaultProxyTimeout = 10 * time.Second

// Route sends every path under Prefix to Upstream.
type Route struct {
	Prefix   string
	Upstream string
	Service  string
}

// Routes builds the route table from upstream base URLs. Empty URLs are skipped.
func Routes(departments, employees, reviews, auth string) []Route {
	all := []Route{
		{Prefix: "/departments", Upstream: departments, Service: "department service"},
		{Prefix: "/employees", Upstream: employees, Service: "employee service"},
		{Prefix: "/events", Upstream: employees, Service: "employee service"},
		{Prefix: "/dlq", Upstream: employees, Service: "employee service"},
		{Prefix: "/admin", Upstream: employees, Service: "employee service"},
		{Prefix: "/reviews", Upstream: reviews, Service: "review service"},
		{Prefix: "/auth", Upstream: auth, Service: "auth service"},
	}

	out := make([]Route, 0, len(all))
	for _, r := range all {
		if strings.TrimSpace(r.Upstream) != "" {
			r.Upstream = strings.TrimRight(r.Upstream, "/")
			out = append(out, r)
		}
	}
	return out
}

// Proxy forwards admitted requests to the owning service.
type Proxy struct {
	routes  []Route
	doer    rpc.Doer
	timeout time.Duration
	filter  Validator
	log     zerolog.Logger
}

func NewProxy(routes []Route, doer rpc.Doer, filter Validator, timeout time.Duration, log zerolog.Logger) *Proxy {
	if timeout <= 0 {
		timeout = defaultProxyTimeout
	}

	sorted := append([]Route(nil), routes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})

	return &Proxy{
		routes:  sorted,
		doer:    doer,
		timeout: timeout,
		filter:  filter,
		log:     log.With().Str("component", "GatewayProxy").Logger(),
	}
}

// Mount sends everything the router does not serve itself through the
// admission filter to the upstreams.
func (p *Proxy) Mount(r *router.Router) {
	r.HandleMethodNotAllowed = false
	r.NotFound = AdmissionFilter(p.filter, p.log, p.forward)
}

func (p *Proxy) match(path string) (Route, bool) {
	for _, r := range p.routes {
		if path == r.Prefix || strings.HasPrefix(path, r.Prefix+"/") {
			return r, true
		}
	}
	return Route{}, false
}

func (p *Proxy) forward(ctx *fasthttp.RequestCtx) {
	route, ok := p.match(string(ctx.Path()))
	if !ok {
		api.Fail(ctx, fasthttp.StatusNotFound, fmt.Sprintf("No route for %s", ctx.Path()))
		return
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	ctx.Request.CopyTo(req)
	req.SetRequestURI(route.Upstream + string(ctx.RequestURI()))
	req.Header.Del(fasthttp.HeaderConnection)
	if id := api.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	if err := p.doer.DoDeadline(req, resp, time.Now().Add(p.timeout)); err != nil {
		p.log.Error().
			Err(err).
			Str("service", route.Service).
			Str("url", req.URI().String()).
			Msg("upstream call failed")
		api.Fail(ctx, fasthttp.StatusServiceUnavailable, fmt.Sprintf("%s is temporarily unavailable", route.Service))
		return
	}

	resp.Header.Del(fasthttp.HeaderConnection)
	resp.CopyTo(&ctx.Response)
}
