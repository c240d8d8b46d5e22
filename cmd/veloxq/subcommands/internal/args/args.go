package args

import (
	"fmt"
	"strconv"
	"time"
)

// Number is a non-negative integer flag value. Zero means "not set",
// letting the client fall back to its defaults.
type Number struct {
	n int
}

func (n Number) String() string {
	return strconv.Itoa(n.n)
}

func (n Number) Value() int {
	return n.n
}

// Set is compliant with the flag.Value interface.
func (n *Number) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return fmt.Errorf("the value should be a non-negative integer: %s", s)
	}
	n.n = v
	return nil
}

// Duration is a flag value in Go duration syntax, like "30s" or "1.5h".
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) Value() time.Duration {
	return time.Duration(d)
}

// Set is compliant with the flag.Value interface.
func (d *Duration) Set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Typed parses s as an integer, float or boolean when it reads as one;
// anything else stays a string.
func Typed(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
