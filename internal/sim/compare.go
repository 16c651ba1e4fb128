package sim

import (
	"github.com/FlavioCFOliveira/convaddr/internal/addr"
	"github.com/FlavioCFOliveira/convaddr/internal/layer"
)

// Comparison holds the outcome of sweeping both schemes over one layer.
type Comparison struct {
	Legacy  Result
	Strided Result
	// Disagreements counts (input, tap) pairs that one scheme accepts and the
	// other rejects.
	Disagreements int
}

// Equivalent reports whether both schemes accept exactly the same pairs.
func (c Comparison) Equivalent() bool {
	return c.Disagreements == 0 && c.Legacy.Outputs == c.Strided.Outputs
}

type verdicts struct {
	BaseCallback
	oob []bool
}

func (v *verdicts) OnCheck(e CheckEvent) {
	v.oob = append(v.oob, e.OutOfBounds)
}

// Compare sweeps the legacy and the strided scheme over c and counts the
// pairs whose validity verdicts differ. Both sweeps visit the same lattice
// in the same order, so verdicts line up index by index.
func Compare(c layer.Conv2D) (Comparison, error) {
	s, err := New(c)
	if err != nil {
		return Comparison{}, err
	}

	var lv, sv verdicts
	cmp := Comparison{
		Legacy:  s.Run(addr.NewLegacy(c), &lv),
		Strided: s.Run(addr.NewStrided(c), &sv),
	}
	for i := range lv.oob {
		if lv.oob[i] != sv.oob[i] {
			cmp.Disagreements++
		}
	}
	return cmp, nil
}
