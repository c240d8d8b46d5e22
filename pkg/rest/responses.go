package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apierr "github.com/veloxq/veloxq-api-types/errors"
)

// MessageFor gives the error summary per HTTP status code range.
type MessageFor map[StatusCodeRange]string

// unmarshalJsonResponse decodes the response body into v.
//
// Non-2xx responses come back as *apierr.ErrorMessage built by
// errorFromResponse, so callers can inspect the platform's message
// and status code.
func unmarshalJsonResponse[T any](resp *http.Response, v T, messageFor MessageFor) error {
	if Status2xx < StatusCodeRangeOf(resp) {
		return errorFromResponse(resp, messageFor)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf(
			"unexpected response (status code = %d): %w", resp.StatusCode, err,
		)
	}
	return nil
}

func jsonUnmarshal[T any](buf []byte) (*T, error) {
	ret := new(T)
	if err := json.Unmarshal(buf, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// listEnvelope is the `{"data": [...]}` wrapper of listing endpoints.
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// unmarshalStreamResponse hands the raw body through on success.
// Closing it is up to the caller.
func unmarshalStreamResponse(resp *http.Response, messageFor MessageFor) (io.ReadCloser, error) {
	if Status2xx < StatusCodeRangeOf(resp) {
		return nil, errorFromResponse(resp, messageFor)
	}
	return resp.Body, nil
}

// unmarshalResponseDiscardingPayload checks the status only, draining
// whatever body there is.
func unmarshalResponseDiscardingPayload(resp *http.Response, messageFor MessageFor) error {
	rc, err := unmarshalStreamResponse(resp, messageFor)
	if rc != nil {
		io.Copy(io.Discard, rc)
		rc.Close()
	}
	return err
}

// errorFromResponse drains a non-2xx response into *apierr.ErrorMessage.
//
// The platform sends `{"message": ...}` bodies; when the body is not
// shaped so, its raw text is attached to the summary instead.
func errorFromResponse(resp *http.Response, messageFor MessageFor) error {
	scr := StatusCodeRangeOf(resp)
	summary, ok := messageFor[scr]
	if !ok {
		summary = scr.String()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apierr.ErrorMessage{
			Message:    summary,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("cannot read server message: %w", err),
		}
	}

	if em, err := jsonUnmarshal[apierr.ErrorMessage](body); err == nil {
		em.Message = summary + ": " + em.Message
		if em.StatusCode == 0 {
			em.StatusCode = resp.StatusCode
		}
		return em
	}

	em := &apierr.ErrorMessage{Message: summary, StatusCode: resp.StatusCode}
	if detail := strings.TrimSpace(string(body)); detail != "" {
		em.Message = summary + ": " + detail
	}
	return em
}
