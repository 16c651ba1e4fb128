package addr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/FlavioCFOliveira/convaddr/internal/layer"
)

// ErrUnknownScheme is returned by ParseScheme for unrecognised names.
var ErrUnknownScheme = errors.New("unknown address scheme")

// Scheme is one output address generation strategy.
type Scheme interface {
	// Name is the canonical scheme name ("legacy" or "strided").
	Name() string
	// Label is the short tag used in diagnostic lines.
	Label() string
	MapToOutput(in Coord, tap Tap) Coord
	OutOfBounds(o Coord) bool
	// OutputAddress is only meaningful when MapToOutput(in, tap) is in bounds.
	OutputAddress(in Coord, tap Tap, filter int) int
}

// Legacy is the centred-kernel scheme. It ignores the stride when
// mapping and checks against the input extent.
type Legacy struct {
	Layer layer.Conv2D
}

// NewLegacy creates a legacy scheme for c.
func NewLegacy(c layer.Conv2D) *Legacy {
	return &Legacy{Layer: c}
}

func (s *Legacy) Name() string { return "legacy" }
func (s *Legacy) Label() string { return "OLD" }

func (s *Legacy) MapToOutput(in Coord, tap Tap) Coord {
	return LegacyIndex(s.Layer, in, tap)
}

func (s *Legacy) OutOfBounds(o Coord) bool {
	return LegacyOutOfBounds(s.Layer, o)
}

func (s *Legacy) OutputAddress(in Coord, tap Tap, filter int) int {
	return LegacyOutputAddress(s.Layer, in, tap, filter)
}

// Strided is the stride-aware scheme addressing the true output tensor.
type Strided struct {
	Layer layer.Conv2D
}

// NewStrided creates a strided scheme for c.
func NewStrided(c layer.Conv2D) *Strided {
	return &Strided{Layer: c}
}

func (s *Strided) Name() string { return "strided" }
func (s *Strided) Label() string { return "New" }

func (s *Strided) MapToOutput(in Coord, tap Tap) Coord {
	return StridedIndex(s.Layer, in, tap)
}

func (s *Strided) OutOfBounds(o Coord) bool {
	return StridedOutOfBounds(s.Layer, o)
}

func (s *Strided) OutputAddress(in Coord, tap Tap, filter int) int {
	return StridedOutputAddress(s.Layer, in, tap, filter)
}

// ParseScheme resolves a scheme by name. "old" and "new" are accepted as
// aliases for "legacy" and "strided".
func ParseScheme(name string, c layer.Conv2D) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "legacy", "old":
		return NewLegacy(c), nil
	case "strided", "new":
		return NewStrided(c), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

// Both returns the legacy and strided schemes, in sweep order.
func Both(c layer.Conv2D) []Scheme {
	return []Scheme{NewLegacy(c), NewStrided(c)}
}
