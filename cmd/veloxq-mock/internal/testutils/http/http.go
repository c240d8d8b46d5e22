// Package http drives echo handlers in tests without a listening server.
package http

import (
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/labstack/echo/v4"
)

type RequestOption func(req *http.Request) *http.Request

func WithHeader(key string, value string, values ...string) RequestOption {
	return func(req *http.Request) *http.Request {
		for _, v := range append([]string{value}, values...) {
			req.Header.Add(key, v)
		}
		return req
	}
}

// ContentType is WithHeader("Content-Type", ctyp).
func ContentType(ctyp string) RequestOption {
	return WithHeader("Content-Type", ctyp)
}

// record applies reqopts and pairs the request with a fresh recorder.
func record(e *echo.Echo, req *http.Request, reqopts []RequestOption) (echo.Context, *httptest.ResponseRecorder) {
	for _, opt := range reqopts {
		req = opt(req)
	}
	resp := httptest.NewRecorder()
	return e.NewContext(req, resp), resp
}

func Get(e *echo.Echo, target string, reqopts ...RequestOption) (echo.Context, *httptest.ResponseRecorder) {
	return record(e, httptest.NewRequest(http.MethodGet, target, nil), reqopts)
}

func Post(e *echo.Echo, target string, data io.Reader, reqopts ...RequestOption) (echo.Context, *httptest.ResponseRecorder) {
	return record(e, httptest.NewRequest(http.MethodPost, target, data), reqopts)
}

func Delete(e *echo.Echo, target string, reqopts ...RequestOption) (echo.Context, *httptest.ResponseRecorder) {
	return record(e, httptest.NewRequest(http.MethodDelete, target, nil), reqopts)
}
