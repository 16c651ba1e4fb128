// Package addr maps (input, kernel tap) pairs to output coordinates and turns
// coordinates into linear buffer addresses. Everything here is a pure
// function of the layer shape.
package addr

import (
	"fmt"

	"github.com/FlavioCFOliveira/convaddr/internal/layer"
)

// Coord is a (row, col) position inside one channel plane, either of the
// input or of an output tensor.
type Coord struct {
	Row int
	Col int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d)", c.Row, c.Col)
}

// Tap is a (row, col) position inside the kernel window.
type Tap struct {
	Row int
	Col int
}

// LegacyIndex maps an input position and a kernel tap with the centred,
// unit-stride rule o = i + floor(k/2) - tap. The result lives in the input
// coordinate space.
func LegacyIndex(c layer.Conv2D, in Coord, tap Tap) Coord {
	return Coord{
		Row: in.Row + c.KernelRows/2 - tap.Row,
		Col: in.Col + c.KernelCols/2 - tap.Col,
	}
}

// StridedIndex maps an input position and a kernel tap with o = (i - tap) / stride.
// Division truncates toward zero, so -1/2 yields 0 rather than -1. The
// driver only visits taps on the stride lattice, where i - tap is always a
// multiple of the stride and the two conventions agree.
func StridedIndex(c layer.Conv2D, in Coord, tap Tap) Coord {
	return Coord{
		Row: (in.Row - tap.Row) / c.RowStride,
		Col: (in.Col - tap.Col) / c.ColStride,
	}
}

// LegacyOutOfBounds checks o against the input extent. The legacy scheme
// never knew the true output extent.
func LegacyOutOfBounds(c layer.Conv2D, o Coord) bool {
	return o.Row < 0 || o.Col < 0 || o.Row >= c.InRows || o.Col >= c.InCols
}

// StridedOutOfBounds checks o against the true output extent.
func StridedOutOfBounds(c layer.Conv2D, o Coord) bool {
	return o.Row < 0 || o.Col < 0 || o.Row >= c.OutRows() || o.Col >= c.OutCols()
}
