// Package sim drives the address generators over every (filter, channel
// block, input position, kernel tap) tuple and reports the accesses.
package sim

import (
	"gonum.org/v1/gonum/stat/combin"

	"github.com/FlavioCFOliveira/convaddr/internal/addr"
	"github.com/FlavioCFOliveira/convaddr/internal/layer"
)

// FetchEvent is emitted once per input position, before its kernel taps.
type FetchEvent struct {
	Filter  int
	InBlock int
	Input   addr.Coord
	Address int
}

// CheckEvent is emitted for every kernel tap visited on the stride lattice,
// whether or not the mapped coordinate is in bounds.
type CheckEvent struct {
	Label       string
	Filter      int
	InBlock     int
	Input       addr.Coord
	Tap         addr.Tap
	Output      addr.Coord
	OutOfBounds bool
}

// OutputEvent is emitted for every in-bounds (input, tap) pair.
type OutputEvent struct {
	Filter   int
	InBlock  int
	Input    addr.Coord
	Tap      addr.Tap
	OutBlock int
	Output   addr.Coord
	Address  int
}

// Result summarises one sweep.
type Result struct {
	Scheme  string
	Fetches int
	Checks  int
	// Outputs is the number of valid output elements produced.
	Outputs int
}

// Simulator enumerates the access pattern of one layer.
type Simulator struct {
	layer   layer.Conv2D
	actBase int
	outBase int
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithActivationBase offsets every emitted input activation address.
func WithActivationBase(base int) Option {
	return func(s *Simulator) {
		s.actBase = base
	}
}

// WithOutputBase offsets every emitted output activation address.
func WithOutputBase(base int) Option {
	return func(s *Simulator) {
		s.outBase = base
	}
}

// New creates a simulator for c. The shape is validated up front so that
// Run never enumerates a malformed kernel range.
func New(c layer.Conv2D, opts ...Option) (*Simulator, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{layer: c}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Layer returns the simulated layer shape.
func (s *Simulator) Layer() layer.Conv2D {
	return s.layer
}

// Schemes returns the legacy and strided schemes bound to the simulated layer.
func (s *Simulator) Schemes() []addr.Scheme {
	return addr.Both(s.layer)
}

// Run performs one full sweep with scheme. The scheme must be bound to the
// same layer shape as the simulator.
//
// Order: filter, input channel block, input row, input col, kernel row,
// kernel col. Kernel rows start at input_row mod stride and step by the
// stride, so only taps on the stride lattice are visited.
func (s *Simulator) Run(scheme addr.Scheme, callbacks ...Callback) Result {
	c := s.layer
	res := Result{Scheme: scheme.Name()}

	for _, cb := range callbacks {
		cb.OnSweepBegin(scheme)
	}

	gen := combin.NewCartesianGenerator([]int{c.Filters, c.InBlocks(), c.InRows, c.InCols})
	sub := make([]int, 4)
	for gen.Next() {
		sub = gen.Product(sub)
		filter, block := sub[0], sub[1]
		in := addr.Coord{Row: sub[2], Col: sub[3]}

		fetch := FetchEvent{
			Filter:  filter,
			InBlock: block,
			Input:   in,
			Address: s.actBase + addr.ActivationAddress(c, in, block),
		}
		res.Fetches++
		for _, cb := range callbacks {
			cb.OnFetch(fetch)
		}

		for kr := in.Row % c.RowStride; kr < c.KernelRows; kr += c.RowStride {
			for kc := in.Col % c.ColStride; kc < c.KernelCols; kc += c.ColStride {
				tap := addr.Tap{Row: kr, Col: kc}
				o := scheme.MapToOutput(in, tap)
				oob := scheme.OutOfBounds(o)

				res.Checks++
				check := CheckEvent{
					Label:       scheme.Label(),
					Filter:      filter,
					InBlock:     block,
					Input:       in,
					Tap:         tap,
					Output:      o,
					OutOfBounds: oob,
				}
				for _, cb := range callbacks {
					cb.OnCheck(check)
				}
				if oob {
					continue
				}

				out := OutputEvent{
					Filter:   filter,
					InBlock:  block,
					Input:    in,
					Tap:      tap,
					OutBlock: c.FilterBlock(filter),
					Output:   o,
					Address:  s.outBase + scheme.OutputAddress(in, tap, filter),
				}
				res.Outputs++
				for _, cb := range callbacks {
					cb.OnOutput(out)
				}
			}
		}

		for _, cb := range callbacks {
			cb.OnPixelEnd(fetch)
		}
	}

	for _, cb := range callbacks {
		cb.OnSweepEnd(res)
	}
	return res
}

// RunAll sweeps each scheme in turn; a scheme is fully enumerated before the
// next begins.
func (s *Simulator) RunAll(schemes []addr.Scheme, callbacks ...Callback) []Result {
	results := make([]Result, 0, len(schemes))
	for _, scheme := range schemes {
		results = append(results, s.Run(scheme, callbacks...))
	}
	return results
}

// ExpectedStridedOutputs returns the closed-form valid output count of the
// strided scheme: every output element receives every kernel tap exactly
// once, since i = o*stride + k always lies inside the input.
func ExpectedStridedOutputs(c layer.Conv2D) int {
	return c.Filters * c.InBlocks() * c.OutRows() * c.OutCols() * c.KernelRows * c.KernelCols
}
