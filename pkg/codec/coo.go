package codec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/veloxq/veloxq-go/pkg/ising"
)

// decodeCOO reads plain COO text: one `row col value` triplet per line,
// separated by whitespace or commas, `#` comment lines skipped.
// Coordinates are 0-indexed. Diagonal entries populate biases.
func decodeCOO(r io.Reader) (ising.Model, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var rows, cols []int
	var values []float64

	lineno := 0
	for sc.Scan() {
		lineno += 1
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
		if len(fields) != 3 {
			return ising.Model{}, fmt.Errorf(
				"%w: line %d: want `row col value`, got %q", ErrFormat, lineno, line,
			)
		}

		row, err := strconv.Atoi(fields[0])
		if err != nil {
			return ising.Model{}, fmt.Errorf("%w: line %d: bad row index %q", ErrFormat, lineno, fields[0])
		}
		col, err := strconv.Atoi(fields[1])
		if err != nil {
			return ising.Model{}, fmt.Errorf("%w: line %d: bad col index %q", ErrFormat, lineno, fields[1])
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return ising.Model{}, fmt.Errorf("%w: line %d: bad value %q", ErrFormat, lineno, fields[2])
		}

		rows = append(rows, row)
		cols = append(cols, col)
		values = append(values, value)
	}
	if err := sc.Err(); err != nil {
		return ising.Model{}, fmt.Errorf("%w: %s", ErrFormat, err)
	}
	if len(rows) == 0 {
		return ising.Model{}, fmt.Errorf("%w: no entries", ErrFormat)
	}

	return cooToModel(0, rows, cols, values, nil)
}
