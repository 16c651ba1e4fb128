package addr

import (
	"gonum.org/v1/gonum/stat/combin"

	"github.com/FlavioCFOliveira/convaddr/internal/layer"
)

const (
	// BytesPerElement is the width of one activation.
	BytesPerElement = 2

	// AccessWidth is the byte granularity of the legacy output buffer.
	AccessWidth = 16
)

// Buffers are laid out as [channel_block][row][col][8 channels]. Linear
// element indices come from combin.IdxFor, which panics when a subscript
// falls outside its dimension; callers must bounds-check first.

// ActivationAddress returns the byte address of the 8-channel vector at
// (in, block) in the input activation buffer.
func ActivationAddress(c layer.Conv2D, in Coord, block int) int {
	vec := combin.IdxFor(
		[]int{block, in.Row, in.Col},
		[]int{c.InBlocks(), c.InRows, c.InCols},
	)
	return vec * layer.ChannelBlockSize * BytesPerElement
}

// LegacyOutputAddress returns the output address under the legacy scheme:
// the byte address inside a buffer sized by the input extent, divided down
// to AccessWidth units.
func LegacyOutputAddress(c layer.Conv2D, in Coord, tap Tap, filter int) int {
	o := LegacyIndex(c, in, tap)
	vec := combin.IdxFor(
		[]int{c.FilterBlock(filter), o.Row, o.Col},
		[]int{c.OutBlocks(), c.InRows, c.InCols},
	)
	return vec * layer.ChannelBlockSize * BytesPerElement / AccessWidth
}

// StridedOutputAddress returns the block-and-offset address of the output
// vector under the strided scheme. It depends only on the filter block and
// the output coordinate.
func StridedOutputAddress(c layer.Conv2D, in Coord, tap Tap, filter int) int {
	o := StridedIndex(c, in, tap)
	return combin.IdxFor(
		[]int{c.FilterBlock(filter), o.Row, o.Col},
		[]int{c.OutBlocks(), c.OutRows(), c.OutCols()},
	)
}
