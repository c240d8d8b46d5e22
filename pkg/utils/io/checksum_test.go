package io_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	vio "github.com/veloxq/veloxq-go/pkg/utils/io"
)

func TestSHA256Writer(t *testing.T) {
	// expected digests come from the sha256sum command

	t.Run("it digests nothing as the empty hash", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		testee := vio.NewSHA256Writer(buf)

		if buf.Len() != 0 {
			t.Errorf("something was written: %q", buf.String())
		}

		actual := hex.EncodeToString(testee.Sum())
		expected := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
		if actual != expected {
			t.Errorf("digest mismatch: %s (expected %s)", actual, expected)
		}
	})

	t.Run("it passes content through and digests it", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		testee := vio.NewSHA256Writer(buf)

		payload := []byte("test text to be hashed")
		n, err := testee.Write(payload)
		if err != nil {
			t.Fatalf("write failed: %s", err)
		}
		if n != len(payload) {
			t.Errorf("wrote %d bytes of %d", n, len(payload))
		}
		if !bytes.Equal(buf.Bytes(), payload) {
			t.Errorf("content was not passed through: %q", buf.String())
		}

		actual := hex.EncodeToString(testee.Sum())
		expected := "5d249d950c789e8879076ddc4a8890a2998ab1b9e90598e879156d264268db0b"
		if actual != expected {
			t.Errorf("digest mismatch: %s (expected %s)", actual, expected)
		}
	})

	t.Run("it digests chunked writes as one stream", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		testee := vio.NewSHA256Writer(buf)

		for _, chunk := range []string{"test text", " to be", " hashed"} {
			if _, err := testee.Write([]byte(chunk)); err != nil {
				t.Fatalf("write failed: %s", err)
			}
		}

		actual := hex.EncodeToString(testee.Sum())
		expected := "5d249d950c789e8879076ddc4a8890a2998ab1b9e90598e879156d264268db0b"
		if actual != expected {
			t.Errorf("digest mismatch: %s (expected %s)", actual, expected)
		}
	})
}
