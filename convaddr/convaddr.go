package convaddr

import (
	"io"

	"github.com/FlavioCFOliveira/convaddr/internal/addr"
	"github.com/FlavioCFOliveira/convaddr/internal/config"
	"github.com/FlavioCFOliveira/convaddr/internal/layer"
	"github.com/FlavioCFOliveira/convaddr/internal/sim"
)

// Re-export common types and functions for easier access
type (
	Conv2D     = layer.Conv2D
	Coord      = addr.Coord
	Tap        = addr.Tap
	Scheme     = addr.Scheme
	Simulator  = sim.Simulator
	Result     = sim.Result
	Comparison = sim.Comparison
	Config     = config.Config
)

// Layers
func NewConv2D(inChannels, inRows, inCols, filters, kernelSize, stride int) Conv2D {
	return layer.NewConv2D(inChannels, inRows, inCols, filters, kernelSize, stride)
}

func DefaultLayer() Conv2D {
	return layer.Default()
}

// Schemes
func Legacy(c Conv2D) Scheme {
	return addr.NewLegacy(c)
}

func Strided(c Conv2D) Scheme {
	return addr.NewStrided(c)
}

func ParseScheme(name string, c Conv2D) (Scheme, error) {
	return addr.ParseScheme(name, c)
}

// Simulation
func New(c Conv2D, opts ...sim.Option) (*Simulator, error) {
	return sim.New(c, opts...)
}

func Compare(c Conv2D) (Comparison, error) {
	return sim.Compare(c)
}

// Callbacks
type Callback = sim.Callback

func TextLogger(w io.Writer) Callback {
	return sim.NewTextLogger(w)
}

func CSVLogger(w io.Writer) *sim.CSVLogger {
	return sim.NewCSVLogger(w)
}

// Simulate writes the diagnostic stream of a legacy sweep followed by a
// strided sweep over c and returns both results.
func Simulate(w io.Writer, c Conv2D) ([]Result, error) {
	s, err := sim.New(c)
	if err != nil {
		return nil, err
	}
	return s.RunAll(s.Schemes(), sim.NewTextLogger(w)), nil
}

// Configuration
func LoadConfig(filename string) (*Config, error) {
	return config.Load(filename)
}
