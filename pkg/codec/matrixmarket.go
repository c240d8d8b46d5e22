package codec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/veloxq/veloxq-go/pkg/ising"
)

// decodeMatrixMarket reads coordinate-format Matrix-Market text.
//
// The header must declare `matrix coordinate` with a real, integer or
// pattern field. Coordinates are 1-indexed in the file and shifted to
// 0-indexed here. Diagonal entries populate biases.
func decodeMatrixMarket(r io.Reader) (ising.Model, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	if !sc.Scan() {
		return ising.Model{}, fmt.Errorf("%w: empty matrix-market input", ErrFormat)
	}
	header := strings.Fields(sc.Text())
	if len(header) < 4 || header[0] != "%%MatrixMarket" {
		return ising.Model{}, fmt.Errorf("%w: malformed matrix-market header %q", ErrFormat, sc.Text())
	}
	if header[1] != "matrix" || header[2] != "coordinate" {
		return ising.Model{}, fmt.Errorf(
			"%w: matrix-market %s %s is not supported (want matrix coordinate)",
			ErrFormat, header[1], header[2],
		)
	}
	field := header[3]
	switch field {
	case "real", "integer", "pattern":
	default:
		return ising.Model{}, fmt.Errorf("%w: matrix-market field %q is not supported", ErrFormat, field)
	}

	var l, nnz int
	sized := false
	var rows, cols []int
	var values []float64

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		fields := strings.Fields(line)

		if !sized {
			if len(fields) != 3 {
				return ising.Model{}, fmt.Errorf("%w: malformed size line %q", ErrFormat, line)
			}
			nr, err := strconv.Atoi(fields[0])
			if err != nil {
				return ising.Model{}, fmt.Errorf("%w: malformed size line %q", ErrFormat, line)
			}
			nc, err := strconv.Atoi(fields[1])
			if err != nil {
				return ising.Model{}, fmt.Errorf("%w: malformed size line %q", ErrFormat, line)
			}
			if nnz, err = strconv.Atoi(fields[2]); err != nil {
				return ising.Model{}, fmt.Errorf("%w: malformed size line %q", ErrFormat, line)
			}
			if nr != nc {
				return ising.Model{}, fmt.Errorf("%w: matrix %dx%d is not square", ErrFormat, nr, nc)
			}
			if nr <= 0 {
				return ising.Model{}, fmt.Errorf("%w: matrix size %d is not positive", ErrFormat, nr)
			}
			l = nr
			sized = true
			rows = make([]int, 0, nnz)
			cols = make([]int, 0, nnz)
			values = make([]float64, 0, nnz)
			continue
		}

		if nnz <= len(rows) {
			return ising.Model{}, fmt.Errorf(
				"%w: more entries than the declared %d", ErrFormat, nnz,
			)
		}

		value := 1.0
		switch len(fields) {
		case 2:
			// value defaults to 1
		case 3:
			if field == "pattern" {
				return ising.Model{}, fmt.Errorf(
					"%w: pattern entry %q carries a value", ErrFormat, line,
				)
			}
			v, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return ising.Model{}, fmt.Errorf("%w: malformed entry %q", ErrFormat, line)
			}
			value = v
		default:
			return ising.Model{}, fmt.Errorf("%w: malformed entry %q", ErrFormat, line)
		}

		row, err := strconv.Atoi(fields[0])
		if err != nil {
			return ising.Model{}, fmt.Errorf("%w: malformed entry %q", ErrFormat, line)
		}
		col, err := strconv.Atoi(fields[1])
		if err != nil {
			return ising.Model{}, fmt.Errorf("%w: malformed entry %q", ErrFormat, line)
		}
		if row < 1 || l < row || col < 1 || l < col {
			return ising.Model{}, fmt.Errorf(
				"%w: entry (%d, %d) is out of range [1, %d]", ErrFormat, row, col, l,
			)
		}

		rows = append(rows, row-1)
		cols = append(cols, col-1)
		values = append(values, value)
	}
	if err := sc.Err(); err != nil {
		return ising.Model{}, fmt.Errorf("%w: %s", ErrFormat, err)
	}
	if !sized {
		return ising.Model{}, fmt.Errorf("%w: missing size line", ErrFormat)
	}
	if len(rows) != nnz {
		return ising.Model{}, fmt.Errorf(
			"%w: %d entries declared but %d found", ErrFormat, nnz, len(rows),
		)
	}

	return cooToModel(l, rows, cols, values, nil)
}
