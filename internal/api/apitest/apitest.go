// Package apitest drives fasthttp handlers in tests without a listener.
package apitest

import (
	"encoding/json"

	"github.com/valyala/fasthttp"

	"github.com/Artexxx/hr-services/internal/dto"
)

type Response struct {
	Status   int
	Header   *fasthttp.ResponseHeader
	Body     []byte
	Envelope dto.ApiResponse[json.RawMessage]
}

// Data decodes the envelope's data field into dst.
func (r *Response) Data(dst any) error {
	return json.Unmarshal(r.Envelope.Data, dst)
}

// IsNullData reports whether data was absent or JSON null.
func (r *Response) IsNullData() bool {
	return len(r.Envelope.Data) == 0 || string(r.Envelope.Data) == "null"
}

func Do(h fasthttp.RequestHandler, method, uri, body string, headers ...string) *Response {
	var req fasthttp.Request

	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBodyString(body)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	// Init attaches fasthttp's stand-in server so the ctx is usable as a
	// context.Context (Done/Err dereference it).
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)

	h(&ctx)

	resp := &Response{
		Status: ctx.Response.StatusCode(),
		Header: &fasthttp.ResponseHeader{},
		Body:   append([]byte(nil), ctx.Response.Body()...),
	}
	ctx.Response.Header.CopyTo(resp.Header)
	_ = json.Unmarshal(resp.Body, &resp.Envelope)

	return resp
}
