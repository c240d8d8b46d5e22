package rfctime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// RFC3339DateTimeFormat renders a timestamp the way the VeloxQ API
// does: millisecond resolution, "Z" for UTC.
const RFC3339DateTimeFormat string = "2006-01-02T15:04:05.000Z07:00"

// RFC3339DateTimeFormatZ parses any full RFC3339 date-time expression.
const RFC3339DateTimeFormatZ string = time.RFC3339Nano

// zonedLayouts are the abbreviated RFC3339 forms carrying an offset.
var zonedLayouts = []string{
	RFC3339DateTimeFormatZ,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02Z07:00",
}

// localLayouts are the forms without an offset, read in the local
// timezone.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// RFC3339 is a timestamp interchanged with the VeloxQ API, in the
// date-time shape of https://www.ietf.org/rfc/rfc3339.txt .
type RFC3339 time.Time

func New(t time.Time) RFC3339 {
	return RFC3339(t)
}

func (t RFC3339) Time() time.Time {
	return time.Time(t)
}

func (t RFC3339) Equal(other RFC3339) bool {
	return t.Time().Equal(other.Time())
}

// Equiv is Equal against anything with a Time(). A nil other counts as
// equal.
func (t RFC3339) Equiv(other interface{ Time() time.Time }) bool {
	return other == nil || t.Time().Equal(other.Time())
}

// String formats by RFC3339DateTimeFormat.
func (t RFC3339) String() string {
	return t.Time().Format(RFC3339DateTimeFormat)
}

// ParseRFC3339DateTime reads a full RFC3339 date-time expression.
func ParseRFC3339DateTime(s string) (RFC3339, error) {
	t, err := time.Parse(RFC3339DateTimeFormatZ, s)
	if err != nil {
		return RFC3339{}, err
	}
	return RFC3339(t), nil
}

// ParseLooseRFC3339 reads a date-time in any abbreviated RFC3339 form,
// down to a bare date. Expressions without an offset are read in the
// local timezone.
func ParseLooseRFC3339(s string) (RFC3339, error) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return RFC3339(t), nil
		}
	}

	loc, err := time.LoadLocation("Local")
	if err != nil {
		return RFC3339{}, err
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return RFC3339(t), nil
		}
	}

	return RFC3339{}, fmt.Errorf("failed to parse %s", s)
}

func (t RFC3339) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *RFC3339) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRFC3339DateTime(s)
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}
