package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorMessage is the error body the VeloxQ API sends with non-2xx
// responses.
type ErrorMessage struct {
	Message    string `json:"message"`
	Code       string `json:"error,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Cause      error  `json:"-"`
}

// UnmarshalJSON insists on the message field. The platform always
// sends one; a body without it is not an error payload.
func (em *ErrorMessage) UnmarshalJSON(bytes []byte) error {
	var f struct {
		Message    *string `json:"message"`
		Code       string  `json:"error"`
		StatusCode int     `json:"statusCode"`
	}
	if err := json.Unmarshal(bytes, &f); err != nil {
		return err
	}
	if f.Message == nil {
		return fmt.Errorf(`required field missing: "message"`)
	}

	em.Message = *f.Message
	em.Code = f.Code
	em.StatusCode = f.StatusCode
	return nil
}

func (e ErrorMessage) String() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Cause != nil {
		b.WriteString("\ncaused by: ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e ErrorMessage) Error() string {
	return e.String()
}

func (e ErrorMessage) Unwrap() error {
	return e.Cause
}

func (e *ErrorMessage) Equal(o *ErrorMessage) bool {
	return e.Message == o.Message &&
		e.Code == o.Code &&
		e.StatusCode == o.StatusCode
}
