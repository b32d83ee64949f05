package tableio_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/eems/tableio"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// TestRead_SkipsBlankLinesAndMixedWhitespace checks the tolerant parser.
func TestRead_SkipsBlankLinesAndMixedWhitespace(t *testing.T) {
	path := writeFile(t, "x.coord", "1 2\n\n  3\t4.5 \n-1e-3 7\n")
	got, err := tableio.Read(path)
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1, 2}, {3, 4.5}, {-0.001, 7}}, got)
}

// TestRead_Errors verifies ragged and non-numeric input is rejected.
func TestRead_Errors(t *testing.T) {
	_, err := tableio.Read(writeFile(t, "ragged", "1 2\n3\n"))
	require.ErrorIs(t, err, tableio.ErrRagged)

	_, err = tableio.Read(writeFile(t, "nan", "1 x\n"))
	require.ErrorIs(t, err, tableio.ErrParse)

	_, err = tableio.Read(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing")
}

// TestReadShape reports the offending file and the expected shape.
func TestReadShape(t *testing.T) {
	path := writeFile(t, "s.coord", "1 2\n3 4\n")

	_, err := tableio.ReadShape(path, 2, 2)
	require.NoError(t, err)

	_, err = tableio.ReadShape(path, -1, 2)
	require.NoError(t, err)

	_, err = tableio.ReadShape(path, 3, 2)
	require.ErrorIs(t, err, tableio.ErrShape)
	require.Contains(t, err.Error(), path)
	require.Contains(t, err.Error(), "3x2")
}

// TestWrite_RoundTrip writes fixed-decimal floats and integers.
func TestWrite_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	fpath := filepath.Join(dir, "demes.txt")
	require.NoError(t, tableio.WriteFloats(fpath, [][]float64{{1, 2.5}, {0.1234567, -3}}, 6))
	raw, err := os.ReadFile(fpath)
	require.NoError(t, err)
	require.Equal(t, "1.000000 2.500000\n0.123457 -3.000000\n", string(raw))

	ipath := filepath.Join(dir, "edges.txt")
	require.NoError(t, tableio.WriteInts(ipath, [][]int{{1, 2}, {2, 3}}))
	raw, err = os.ReadFile(ipath)
	require.NoError(t, err)
	require.Equal(t, "1 2\n2 3\n", string(raw))

	err = tableio.WriteInts(filepath.Join(dir, "nope", "edges.txt"), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nope")
}
