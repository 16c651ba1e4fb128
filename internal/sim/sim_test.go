package sim

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/FlavioCFOliveira/convaddr/internal/addr"
	"github.com/FlavioCFOliveira/convaddr/internal/layer"
)

func newReference(t *testing.T, opts ...Option) *Simulator {
	t.Helper()
	s, err := New(layer.Default(), opts...)
	require.NoError(t, err)
	return s
}

func TestReferenceCounts(t *testing.T) {
	s := newReference(t)

	results := s.RunAll(s.Schemes())
	require.Len(t, results, 2)

	legacy, strided := results[0], results[1]
	assert.Equal(t, "legacy", legacy.Scheme)
	assert.Equal(t, "strided", strided.Scheme)

	// 10 filters * 1 block * 8x8 positions
	assert.Equal(t, 640, legacy.Fetches)
	assert.Equal(t, 640, strided.Fetches)
	// 12 lattice pairs per axis
	assert.Equal(t, 1440, legacy.Checks)
	assert.Equal(t, 1440, strided.Checks)

	assert.Equal(t, 1210, legacy.Outputs)
	assert.Equal(t, 810, strided.Outputs)
	assert.Equal(t, ExpectedStridedOutputs(s.Layer()), strided.Outputs)
}

func TestNewRejectsInvalidShape(t *testing.T) {
	_, err := New(layer.NewConv2D(8, 8, 8, 10, 3, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, layer.ErrInvalidShape))
}

func TestEventOrdering(t *testing.T) {
	s := newReference(t)
	var rec Recorder
	s.Run(addr.NewStrided(s.Layer()), &rec)

	key := func(e OutputEvent) []int {
		return []int{e.Filter, e.InBlock, e.Input.Row, e.Input.Col, e.Tap.Row, e.Tap.Col}
	}
	for i := 1; i < len(rec.Outputs); i++ {
		prev, cur := key(rec.Outputs[i-1]), key(rec.Outputs[i])
		if !lexLess(prev, cur) {
			t.Fatalf("output %d out of order: %v after %v", i, cur, prev)
		}
	}
	for i := 1; i < len(rec.Fetches); i++ {
		prev, cur := rec.Fetches[i-1], rec.Fetches[i]
		p := []int{prev.Filter, prev.InBlock, prev.Input.Row, prev.Input.Col}
		c := []int{cur.Filter, cur.InBlock, cur.Input.Row, cur.Input.Col}
		if !lexLess(p, c) {
			t.Fatalf("fetch %d out of order: %v after %v", i, c, p)
		}
	}
}

func lexLess(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func TestKernelTapsOnStrideLattice(t *testing.T) {
	s := newReference(t)
	var rec Recorder
	s.Run(addr.NewLegacy(s.Layer()), &rec)

	for _, e := range rec.Checks {
		if e.Tap.Row%2 != e.Input.Row%2 || e.Tap.Col%2 != e.Input.Col%2 {
			t.Fatalf("tap %+v visited for input %+v", e.Tap, e.Input)
		}
	}
}

func TestTextLoggerReference(t *testing.T) {
	s := newReference(t)
	var buf bytes.Buffer
	s.RunAll(s.Schemes(), NewTextLogger(&buf))

	lines := strings.Split(buf.String(), "\n")
	want := []string{
		"[Fetch_INPUT_ACT]: in_chanblk: 0 i_row: 0 i_col: 0 block address: 0",
		"\tOut of bound checking [OLD]: 1 1 False",
		"[Output_ACT]: filter_id: 0 in_chan_blk: 0 act_row: 0 act_col: 0 k_row: 0 k_col: 0 output_chan_blk: 0",
		"\tAddr: 9",
		"\tOut of bound checking [OLD]: 1 -1 True",
		"\tOut of bound checking [OLD]: -1 1 True",
		"\tOut of bound checking [OLD]: -1 -1 True",
		"",
		"",
		"[Fetch_INPUT_ACT]: in_chanblk: 0 i_row: 0 i_col: 1 block address: 10",
	}
	require.GreaterOrEqual(t, len(lines), len(want))
	assert.Equal(t, want, lines[:len(want)])

	out := buf.String()
	assert.Contains(t, out, "Old out elements count: 1210\n")
	assert.Contains(t, out, "\tOut of bound checking [New]: 0 0 False\n"+
		"[Output_ACT]: filter_id: 0 in_chan_blk: 0 act_row: 0 act_col: 0 k_row: 0 k_col: 0 output_chan_blk: 0\n"+
		"\tAddr: 0 (0, 0)\n")
	assert.True(t, strings.HasSuffix(out, "New out element count:  810\n"))
	assert.Less(t, strings.Index(out, "Old out elements count"), strings.Index(out, "[New]"),
		"legacy sweep must finish before the strided sweep starts")
}

func TestOutputDeterministic(t *testing.T) {
	s := newReference(t)
	var a, b bytes.Buffer
	s.RunAll(s.Schemes(), NewTextLogger(&a))
	s.RunAll(s.Schemes(), NewTextLogger(&b))
	assert.Equal(t, a.String(), b.String())
}

func TestBaseAddresses(t *testing.T) {
	s := newReference(t, WithActivationBase(0x1000), WithOutputBase(0x200))
	var rec Recorder
	s.Run(addr.NewStrided(s.Layer()), &rec)

	require.NotEmpty(t, rec.Fetches)
	require.NotEmpty(t, rec.Outputs)
	assert.Equal(t, 0x1000, rec.Fetches[0].Address)
	assert.Equal(t, 0x1000+16, rec.Fetches[1].Address)
	assert.Equal(t, 0x200, rec.Outputs[0].Address)
}

func TestRecorderReset(t *testing.T) {
	s := newReference(t)
	var rec Recorder
	s.Run(addr.NewStrided(s.Layer()), &rec)
	require.Len(t, rec.Results, 1)
	assert.Len(t, rec.Outputs, 810)

	rec.Reset()
	assert.Empty(t, rec.Fetches)
	assert.Empty(t, rec.Outputs)
	assert.Empty(t, rec.Results)
}

// axisCount counts (i, k) pairs on one axis whose mapped coordinate lands
// in [0, limit).
func axisCount(in, kernel, stride, limit int, mapping func(i, k int) int) int {
	n := 0
	for i := 0; i < in; i++ {
		for k := i % stride; k < kernel; k += stride {
			if o := mapping(i, k); o >= 0 && o < limit {
				n++
			}
		}
	}
	return n
}

func drawShape(t *rapid.T) layer.Conv2D {
	rows := rapid.IntRange(1, 10).Draw(t, "in_rows")
	cols := rapid.IntRange(1, 10).Draw(t, "in_cols")
	return layer.Conv2D{
		InChannels: rapid.IntRange(1, 20).Draw(t, "in_channels"),
		InRows:     rows,
		InCols:     cols,
		Filters:    rapid.IntRange(1, 12).Draw(t, "filters"),
		KernelRows: rapid.IntRange(1, rows).Draw(t, "kernel_rows"),
		KernelCols: rapid.IntRange(1, cols).Draw(t, "kernel_cols"),
		RowStride:  rapid.IntRange(1, 3).Draw(t, "row_stride"),
		ColStride:  rapid.IntRange(1, 3).Draw(t, "col_stride"),
	}
}

func TestStridedSweepProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := drawShape(t)
		s, err := New(c)
		if err != nil {
			t.Fatalf("New(%v): %v", c, err)
		}

		var rec Recorder
		res := s.Run(addr.NewStrided(c), &rec)

		if want := c.Filters * c.InBlocks() * c.InRows * c.InCols; res.Fetches != want {
			t.Fatalf("fetches = %d, want %d", res.Fetches, want)
		}
		if want := ExpectedStridedOutputs(c); res.Outputs != want {
			t.Fatalf("outputs = %d, want closed form %d", res.Outputs, want)
		}
		rows := axisCount(c.InRows, c.KernelRows, c.RowStride, c.OutRows(),
			func(i, k int) int { return (i - k) / c.RowStride })
		cols := axisCount(c.InCols, c.KernelCols, c.ColStride, c.OutCols(),
			func(i, k int) int { return (i - k) / c.ColStride })
		if want := c.Filters * c.InBlocks() * rows * cols; res.Outputs != want {
			t.Fatalf("outputs = %d, want enumerated %d", res.Outputs, want)
		}

		for _, e := range rec.Outputs {
			if e.Output.Row < 0 || e.Output.Row >= c.OutRows() || e.Output.Col < 0 || e.Output.Col >= c.OutCols() {
				t.Fatalf("output %v outside %dx%d", e.Output, c.OutRows(), c.OutCols())
			}
			want := c.FilterBlock(e.Filter)*c.OutRows()*c.OutCols() + e.Output.Row*c.OutCols() + e.Output.Col
			if e.Address != want {
				t.Fatalf("address %d for %v, want %d", e.Address, e.Output, want)
			}
		}
	})
}

func TestLegacySweepProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := drawShape(t)
		s, err := New(c)
		if err != nil {
			t.Fatalf("New(%v): %v", c, err)
		}

		var rec Recorder
		res := s.Run(addr.NewLegacy(c), &rec)

		rows := axisCount(c.InRows, c.KernelRows, c.RowStride, c.InRows,
			func(i, k int) int { return i + c.KernelRows/2 - k })
		cols := axisCount(c.InCols, c.KernelCols, c.ColStride, c.InCols,
			func(i, k int) int { return i + c.KernelCols/2 - k })
		if want := c.Filters * c.InBlocks() * rows * cols; res.Outputs != want {
			t.Fatalf("outputs = %d, want %d", res.Outputs, want)
		}

		for _, e := range rec.Outputs {
			if e.Output.Row < 0 || e.Output.Row >= c.InRows || e.Output.Col < 0 || e.Output.Col >= c.InCols {
				t.Fatalf("output %v outside %dx%d", e.Output, c.InRows, c.InCols)
			}
		}
	})
}
