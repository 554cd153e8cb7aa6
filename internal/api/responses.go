package api

import (
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"

	"github.com/Artexxx/hr-services/internal/dto"
	"github.com/Artexxx/hr-services/internal/exchange/rpc"
)

// ErrValidation marks request validation failures (400).
var ErrValidation = errors.New("validation error")

func WriteJSON(ctx *fasthttp.RequestCtx, statusCode int, body any) {
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.SetStatusCode(statusCode)

	_ = json.NewEncoder(ctx).Encode(body)
}

func OK[T any](ctx *fasthttp.RequestCtx, msg string, data T) {
	WriteJSON(ctx, fasthttp.StatusOK, dto.ApiResponse[T]{Success: true, Message: msg, Data: data})
}

func Created[T any](ctx *fasthttp.RequestCtx, msg string, data T) {
	WriteJSON(ctx, fasthttp.StatusCreated, dto.ApiResponse[T]{Success: true, Message: msg, Data: data})
}

// Fail writes {success:false, data:null}.
func Fail(ctx *fasthttp.RequestCtx, httpStatus int, msg string) {
	WriteJSON(ctx, httpStatus, dto.ApiResponse[any]{Success: false, Message: msg})
}

// WriteError maps an error to its status code. Unknown errors are 500.
func WriteError(ctx *fasthttp.RequestCtx, err error) {
	Fail(ctx, StatusOf(err), err.Error())
}

func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fasthttp.StatusBadRequest
	case errors.Is(err, dto.ErrNotFound), errors.Is(err, rpc.ErrEntityNotFound):
		return fasthttp.StatusNotFound
	case errors.Is(err, dto.ErrAlreadyExists):
		return fasthttp.StatusConflict
	case errors.Is(err, rpc.ErrUpstreamUnavailable):
		return fasthttp.StatusServiceUnavailable
	default:
		return fasthttp.StatusInternalServerError
	}
}
