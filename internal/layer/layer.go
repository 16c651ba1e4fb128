// Package layer describes the geometry of the convolution layers whose
// memory accesses are simulated.
package layer

import "errors"

// ChannelBlockSize is the number of channels packed into one addressing unit.
const ChannelBlockSize = 8

// ErrInvalidShape is returned (wrapped) by Validate for unusable geometries.
var ErrInvalidShape = errors.New("invalid layer shape")

// blocks returns ceil(n / ChannelBlockSize).
func blocks(n int) int {
	return (n + ChannelBlockSize - 1) / ChannelBlockSize
}
