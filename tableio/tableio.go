// SPDX-License-Identifier: MIT

// Package tableio reads and writes the whitespace-delimited numeric tables
// used for every EEMS input (sample coordinates, habitat outline, lattice,
// dissimilarities) and for the plain-text outputs consumed by plotting tools.
//
// A table is a sequence of lines, each holding the same number of numeric
// fields separated by spaces or tabs. Blank lines are skipped.
package tableio

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Sentinel errors for table input.
var (
	// ErrRagged indicates rows with differing numbers of fields.
	ErrRagged = errors.New("tableio: rows have differing lengths")

	// ErrShape indicates a table whose dimensions differ from the expected ones.
	ErrShape = errors.New("tableio: unexpected table shape")

	// ErrParse indicates a field that is not a number.
	ErrParse = errors.New("tableio: cannot parse field")
)

// Read loads the table stored at path. It returns ErrRagged if the rows do
// not share one width and ErrParse for non-numeric fields. Errors name the path.
func Read(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tableio: open %s: %w", path, err)
	}
	defer f.Close()

	var (
		rows  [][]float64
		width = -1
		line  int
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if width < 0 {
			width = len(fields)
		} else if len(fields) != width {
			return nil, fmt.Errorf("%s:%d: got %d fields, want %d: %w", path, line, len(fields), width, ErrRagged)
		}
		row := make([]float64, len(fields))
		for j, s := range fields {
			v, perr := strconv.ParseFloat(s, 64)
			if perr != nil {
				return nil, fmt.Errorf("%s:%d: field %d %q: %w", path, line, j+1, s, ErrParse)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("tableio: read %s: %w", path, err)
	}
	return rows, nil
}

// ReadShape loads path and checks its dimensions. A negative rows or cols
// accepts any count along that axis. The error message names the file and
// the expected shape so that the caller can report it verbatim.
func ReadShape(path string, rows, cols int) ([][]float64, error) {
	t, err := Read(path)
	if err != nil {
		return nil, err
	}
	gotCols := 0
	if len(t) > 0 {
		gotCols = len(t[0])
	}
	if (rows >= 0 && len(t) != rows) || (cols >= 0 && gotCols != cols) {
		return nil, fmt.Errorf("check that %s is a %s table, got %dx%d: %w",
			path, shapeString(rows, cols), len(t), gotCols, ErrShape)
	}
	return t, nil
}

func shapeString(rows, cols int) string {
	r, c := "n", "k"
	if rows >= 0 {
		r = strconv.Itoa(rows)
	}
	if cols >= 0 {
		c = strconv.Itoa(cols)
	}
	return r + "x" + c
}

// WriteFloats writes rows with a fixed number of decimals, one row per line.
func WriteFloats(path string, rows [][]float64, decimals int) error {
	return write(path, func(w *bufio.Writer) {
		for _, row := range rows {
			for j, v := range row {
				if j > 0 {
					w.WriteByte(' ')
				}
				w.WriteString(strconv.FormatFloat(v, 'f', decimals, 64))
			}
			w.WriteByte('\n')
		}
	})
}

// WriteInts writes integer rows, one row per line.
func WriteInts(path string, rows [][]int) error {
	return write(path, func(w *bufio.Writer) {
		for _, row := range rows {
			for j, v := range row {
				if j > 0 {
					w.WriteByte(' ')
				}
				w.WriteString(strconv.Itoa(v))
			}
			w.WriteByte('\n')
		}
	})
}

func write(path string, body func(w *bufio.Writer)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tableio: cannot open %s for writing: %w", path, err)
	}
	w := bufio.NewWriter(f)
	body(w)
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("tableio: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("tableio: close %s: %w", path, err)
	}
	return nil
}
