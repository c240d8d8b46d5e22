package codec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// QAP is a quadratic assignment instance read from DAT/TSP text.
//
// It is a problem class of its own: it is never converted into an Ising
// model, and its bytes are uploaded to the platform unchanged. Decoding
// exists to validate the content before upload.
type QAP struct {
	Flow     [][]float64
	Distance [][]float64
}

// Size returns the number of facilities/locations.
func (q QAP) Size() int {
	return len(q.Flow)
}

// DecodeQAP reads DAT text: an integer n, then the n-by-n flow matrix and
// the n-by-n distance matrix in row-major order. Tokens may be wrapped
// across lines.
//
// # Returns
//
// - QAP
//
// - error: ErrFormat on a malformed size, too few or too many values.
func DecodeQAP(r io.Reader) (QAP, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	sc.Split(bufio.ScanWords)

	if !sc.Scan() {
		return QAP{}, fmt.Errorf("%w: empty dat input", ErrFormat)
	}
	n, err := strconv.Atoi(sc.Text())
	if err != nil || n <= 0 {
		return QAP{}, fmt.Errorf("%w: bad size %q", ErrFormat, sc.Text())
	}

	matrix := func(name string) ([][]float64, error) {
		m := make([][]float64, n)
		for i := range m {
			m[i] = make([]float64, n)
			for j := range m[i] {
				if !sc.Scan() {
					return nil, fmt.Errorf(
						"%w: %s matrix is truncated at (%d, %d)", ErrFormat, name, i, j,
					)
				}
				v, err := strconv.ParseFloat(sc.Text(), 64)
				if err != nil {
					return nil, fmt.Errorf(
						"%w: %s matrix holds non-number %q at (%d, %d)",
						ErrFormat, name, sc.Text(), i, j,
					)
				}
				m[i][j] = v
			}
		}
		return m, nil
	}

	flow, err := matrix("flow")
	if err != nil {
		return QAP{}, err
	}
	distance, err := matrix("distance")
	if err != nil {
		return QAP{}, err
	}

	if sc.Scan() {
		return QAP{}, fmt.Errorf("%w: trailing content %q after both matrices", ErrFormat, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return QAP{}, fmt.Errorf("%w: %s", ErrFormat, err)
	}

	return QAP{Flow: flow, Distance: distance}, nil
}
