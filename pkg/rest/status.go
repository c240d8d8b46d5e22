package rest

import (
	"fmt"
	"net/http"
)

// StatusCodeRange is the hundreds class of an HTTP status code.
type StatusCodeRange int

const (
	StatusUnknown StatusCodeRange = iota
	Status1xx
	Status2xx
	Status3xx
	Status4xx
	Status5xx
)

var rangeNames = [...]string{
	Status1xx: "informational response",
	Status2xx: "success",
	Status3xx: "redirect",
	Status4xx: "client error",
	Status5xx: "server error",
}

func (sc StatusCodeRange) String() string {
	if Status1xx <= sc && sc <= Status5xx {
		return rangeNames[sc]
	}
	return fmt.Sprintf("unknown (%d)", sc)
}

// StatusCodeRangeOf classifies the status code of resp.
func StatusCodeRangeOf(resp *http.Response) StatusCodeRange {
	h := StatusCodeRange(resp.StatusCode / 100)
	if h < Status1xx || Status5xx < h {
		return StatusUnknown
	}
	return h
}
