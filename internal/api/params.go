package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
)

// PathID parses a positive integer path parameter.
func PathID(ctx *fasthttp.RequestCtx, name string) (int64, error) {
	raw, _ := ctx.UserValue(name).(string)
	return parseID(name, raw)
}

// QueryID parses a positive integer query argument.
func QueryID(ctx *fasthttp.RequestCtx, name string) (int64, error) {
	return parseID(name, string(ctx.QueryArgs().Peek(name)))
}

func parseID(name, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: required field '%s'", ErrValidation, name)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid value in field '%s'=%s", ErrValidation, name, raw)
	}

	return id, nil
}

// DecodeJSON unmarshals the request body into dst.
func DecodeJSON(ctx *fasthttp.RequestCtx, dst any) error {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		return fmt.Errorf("%w: invalid json: %v", ErrValidation, err)
	}
	return nil
}
