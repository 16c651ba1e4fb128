package layer

import "fmt"

// Conv2D is the shape of a 2D convolution layer as seen by the address
// generators. It carries no weights; only the extents that drive addressing.
type Conv2D struct {
	// Input dimensions
	InChannels int
	InRows     int
	InCols     int

	// Number of output feature maps
	Filters int

	// Kernel window
	KernelRows int
	KernelCols int

	// Strides are independent per axis
	RowStride int
	ColStride int
}

// NewConv2D creates a layer shape with a square kernel and one stride.
// inChannels: number of input channels
// inRows, inCols: spatial size of one input channel plane
// filters: number of output feature maps
// kernelSize: size of convolutional kernel (square)
// stride: stride for both axes
func NewConv2D(inChannels, inRows, inCols, filters, kernelSize, stride int) Conv2D {
	return Conv2D{
		InChannels: inChannels,
		InRows:     inRows,
		InCols:     inCols,
		Filters:    filters,
		KernelRows: kernelSize,
		KernelCols: kernelSize,
		RowStride:  stride,
		ColStride:  stride,
	}
}

// Default returns the reference layer: 8 channels of 8x8 input, 10 filters,
// a 3x3 kernel and stride 2.
func Default() Conv2D {
	return NewConv2D(8, 8, 8, 10, 3, 2)
}

// OutRows returns the number of output rows: (in - kernel) / stride + 1.
func (c Conv2D) OutRows() int {
	return (c.InRows-c.KernelRows)/c.RowStride + 1
}

// OutCols returns the number of output columns.
func (c Conv2D) OutCols() int {
	return (c.InCols-c.KernelCols)/c.ColStride + 1
}

// InBlocks returns the number of input channel blocks.
func (c Conv2D) InBlocks() int {
	return blocks(c.InChannels)
}

// OutBlocks returns the number of output channel blocks, one per group of
// ChannelBlockSize filters.
func (c Conv2D) OutBlocks() int {
	return blocks(c.Filters)
}

// FilterBlock returns the output channel block that filter belongs to.
func (c Conv2D) FilterBlock(filter int) int {
	return filter / ChannelBlockSize
}

// Validate reports whether the shape can be enumerated. Strides must be
// positive and the kernel must fit inside the input plane.
func (c Conv2D) Validate() error {
	switch {
	case c.InChannels <= 0:
		return fmt.Errorf("%w: in_channels must be positive, got %d", ErrInvalidShape, c.InChannels)
	case c.InRows <= 0 || c.InCols <= 0:
		return fmt.Errorf("%w: input must be non-empty, got %dx%d", ErrInvalidShape, c.InRows, c.InCols)
	case c.Filters <= 0:
		return fmt.Errorf("%w: filters must be positive, got %d", ErrInvalidShape, c.Filters)
	case c.KernelRows <= 0 || c.KernelCols <= 0:
		return fmt.Errorf("%w: kernel must be non-empty, got %dx%d", ErrInvalidShape, c.KernelRows, c.KernelCols)
	case c.RowStride <= 0 || c.ColStride <= 0:
		return fmt.Errorf("%w: strides must be positive, got %d/%d", ErrInvalidShape, c.RowStride, c.ColStride)
	case c.KernelRows > c.InRows || c.KernelCols > c.InCols:
		return fmt.Errorf("%w: kernel %dx%d larger than input %dx%d",
			ErrInvalidShape, c.KernelRows, c.KernelCols, c.InRows, c.InCols)
	}
	return nil
}

// String renders the shape for logs.
func (c Conv2D) String() string {
	return fmt.Sprintf("conv2d(in=%dx%dx%d filters=%d kernel=%dx%d stride=%d/%d out=%dx%d)",
		c.InChannels, c.InRows, c.InCols, c.Filters,
		c.KernelRows, c.KernelCols, c.RowStride, c.ColStride,
		c.OutRows(), c.OutCols())
}
