package errors_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	apierr "github.com/veloxq/veloxq-api-types/errors"
)

func TestErrorMessage(t *testing.T) {
	t.Run("it unmarshals a platform error body", func(t *testing.T) {
		body := `{"message": "no such job", "error": "NotFound", "statusCode": 404}`

		var em apierr.ErrorMessage
		if err := json.Unmarshal([]byte(body), &em); err != nil {
			t.Fatal(err)
		}

		expected := apierr.ErrorMessage{
			Message: "no such job", Code: "NotFound", StatusCode: 404,
		}
		if !em.Equal(&expected) {
			t.Errorf("unmatch: (actual, expected) = (%+v, %+v)", em, expected)
		}
	})

	t.Run("a body without message is rejected", func(t *testing.T) {
		var em apierr.ErrorMessage
		if err := json.Unmarshal([]byte(`{"error": "NotFound"}`), &em); err == nil {
			t.Error("no error unexpectedly")
		}
	})

	t.Run("it renders the code and the cause", func(t *testing.T) {
		em := apierr.ErrorMessage{
			Message: "upload rejected",
			Code:    "TooLarge",
			Cause:   fmt.Errorf("body exceeds the size limit"),
		}
		expected := "upload rejected (TooLarge)\ncaused by: body exceeds the size limit"
		if em.String() != expected {
			t.Errorf("unmatch: (actual, expected) = (%q, %q)", em.String(), expected)
		}
	})

	t.Run("the cause is exposed to errors.Is", func(t *testing.T) {
		cause := errors.New("connection reset")
		var err error = &apierr.ErrorMessage{Message: "failed", Cause: cause}
		if !errors.Is(err, cause) {
			t.Error("cause is not unwrapped")
		}
	})
}
