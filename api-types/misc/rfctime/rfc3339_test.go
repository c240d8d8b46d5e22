package rfctime_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/veloxq/veloxq-api-types/misc/rfctime"
)

func TestRFC3339(t *testing.T) {
	t.Run("it parses a timestamp with a zone offset", func(t *testing.T) {
		parsed, err := rfctime.ParseRFC3339DateTime("2025-10-22T12:34:56.987654321+07:00")
		if err != nil {
			t.Fatal(err)
		}

		want := time.Date(
			2025, 10, 22, 12, 34, 56, 987654321,
			time.FixedZone("+07:00", 7*60*60),
		)
		if !parsed.Time().Equal(want) {
			t.Errorf("parsed time: got %v, want %v", parsed.Time(), want)
		}
		if !parsed.Equiv(rfctime.RFC3339(want)) {
			t.Errorf("not equivalent: %v vs %v", parsed, rfctime.RFC3339(want))
		}
	})

	t.Run("it rejects a slash-separated expression", func(t *testing.T) {
		if _, err := rfctime.ParseRFC3339DateTime("2025/10/22 12:34:56 +07:00"); err == nil {
			t.Error("parse succeeded on a non-RFC3339 expression")
		}
	})

	t.Run("it marshals the way the API emits timestamps", func(t *testing.T) {
		stamp := rfctime.New(time.Date(2025, 10, 22, 12, 34, 56, 789000000, time.UTC))

		marshalled, err := json.Marshal(stamp)
		if err != nil {
			t.Fatal(err)
		}
		if want := `"2025-10-22T12:34:56.789Z"`; string(marshalled) != want {
			t.Errorf("marshalled: got %s, want %s", marshalled, want)
		}
	})

	t.Run("it unmarshals what it marshals", func(t *testing.T) {
		var stamp rfctime.RFC3339
		if err := json.Unmarshal([]byte(`"2025-10-22T12:34:56.789Z"`), &stamp); err != nil {
			t.Fatal(err)
		}
		want := time.Date(2025, 10, 22, 12, 34, 56, 789000000, time.UTC)
		if !stamp.Time().Equal(want) {
			t.Errorf("unmarshalled: got %s, want %s", stamp.Time(), want)
		}
	})

	t.Run("it keeps null as the zero value", func(t *testing.T) {
		var stamp rfctime.RFC3339
		if err := json.Unmarshal([]byte("null"), &stamp); err != nil {
			t.Fatal(err)
		}
		if !stamp.Time().IsZero() {
			t.Errorf("not zero: %s", stamp)
		}
	})
}

func TestParseLooseRFC3339(t *testing.T) {
	parses := func(expression string, want time.Time) func(*testing.T) {
		return func(t *testing.T) {
			got, err := rfctime.ParseLooseRFC3339(expression)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Time().Equal(want) {
				t.Errorf("parsed %q: got %s, want %s", expression, got.Time(), want)
			}
		}
	}

	t.Run("full date-time", parses(
		"2025-10-22T12:34:56.789Z",
		time.Date(2025, 10, 22, 12, 34, 56, 789000000, time.UTC),
	))
	t.Run("seconds with offset", parses(
		"2025-10-22T12:34:56+09:00",
		time.Date(2025, 10, 22, 12, 34, 56, 0, time.FixedZone("+09:00", 9*60*60)),
	))
	t.Run("date only with offset", parses(
		"2025-10-22Z",
		time.Date(2025, 10, 22, 0, 0, 0, 0, time.UTC),
	))

	t.Run("it fails on a non-date expression", func(t *testing.T) {
		if _, err := rfctime.ParseLooseRFC3339("not a date"); err == nil {
			t.Error("parse succeeded unexpectedly")
		}
	})
}
