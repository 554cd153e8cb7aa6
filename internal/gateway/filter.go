package gateway

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Artexxx/hr-services/internal/api"
)

// Validator is satisfied by *TokenValidator.
type Validator interface {
	Validate(raw string) error
}

// AdmissionFilter rejects requests to protected paths that carry no valid
// bearer token. Accepted requests go to next untouched.
func AdmissionFilter(v Validator, log zerolog.Logger, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	log = log.With().Str("component", "AdmissionFilter").Logger()

	return func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		if !IsProtected(path) {
			next(ctx)
			return
		}

		header := string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization))
		if header == "" {
			api.Fail(ctx, fasthttp.StatusUnauthorized, "Missing authorization header")
			return
		}

		token, _ := strings.CutPrefix(header, "Bearer ")
		if err := v.Validate(token); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("token rejected")
			api.Fail(ctx, fasthttp.StatusUnauthorized, "Invalid token")
			return
		}

		next(ctx)
	}
}
