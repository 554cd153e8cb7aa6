package api

import (
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Artexxx/hr-services/internal/metrics"
)

const requestIDKey = "request-id"

func RecoveryMiddleware(log zerolog.Logger, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		defer func() {
			if rvr := recover(); rvr != nil {
				log.Error().
					Interface("panic", rvr).
					Str("method", string(ctx.Method())).
					Str("url", ctx.URI().String()).
					Str("remote_addr", ctx.RemoteAddr().String()).
					Str("stack_trace", string(debug.Stack())).
					Msg("Recovered from panic")

				Fail(ctx, fasthttp.StatusInternalServerError, "Internal Server Error")
			}
		}()

		next(ctx)
	}
}

// LoggingMiddleware логирует каждый запрос с включением request_id.
func LoggingMiddleware(log zerolog.Logger, m *metrics.Recorder, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		requestID := string(ctx.Request.Header.Peek("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx.SetUserValue(requestIDKey, requestID)
		ctx.Response.Header.Set("X-Request-ID", requestID)

		begin := time.Now()
		next(ctx)

		status := ctx.Response.StatusCode()
		m.HTTPRequest(string(ctx.Method()), status)

		log.Info().
			Str("request_id", requestID).
			Bytes("method", ctx.Method()).
			Str("url", ctx.URI().String()).
			Int("status", status).
			Dur("latency", time.Since(begin)).
			Msg("Completed request")
	}
}

// RequestID returns the id assigned by LoggingMiddleware.
func RequestID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(requestIDKey).(string)
	return id
}

// CORS middleware для обработки заголовков CORS
func CORS(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
		ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if string(ctx.Method()) == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		next(ctx)
	}
}
