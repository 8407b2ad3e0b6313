package tableau

import (
	"fmt"
	"math"

	"github.com/d33fur/caso/internal/ode"
)

// Kind classifies the coupling structure of a tableau.
type Kind int

const (
	// Auto derives the kind from the coupling matrix.
	Auto Kind = iota
	// Explicit methods couple stage i only to stages j < i.
	Explicit
	// Implicit methods have at least one entry on or above the diagonal.
	Implicit
)

func (k Kind) String() string {
	switch k {
	case Explicit:
		return "explicit"
	case Implicit:
		return "implicit"
	default:
		return "auto"
	}
}

// Spec is raw coefficient input. A may be ragged: missing trailing entries of
// a row are zero.
type Spec struct {
	Name          string
	Order         int
	EmbeddedOrder int
	Kind          Kind
	C             []float64
	A             [][]float64
	B             []float64
	BStar         []float64
}

// Tableau is an immutable Butcher tableau.
type Tableau struct {
	name          string
	order         int
	embeddedOrder int
	kind          Kind
	c             []float64
	a             [][]float64
	b             []float64
	bStar         []float64
}

// New validates spec and builds a tableau from a private copy of its data.
func New(spec Spec) (*Tableau, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	s := len(spec.C)
	t := &Tableau{
		name:          spec.Name,
		order:         spec.Order,
		embeddedOrder: spec.EmbeddedOrder,
		c:             append([]float64(nil), spec.C...),
		b:             append([]float64(nil), spec.B...),
		a:             make([][]float64, s),
	}
	for i := range t.a {
		t.a[i] = make([]float64, s)
		copy(t.a[i], spec.A[i])
	}
	if len(spec.BStar) > 0 {
		t.bStar = append([]float64(nil), spec.BStar...)
	}

	t.kind = Explicit
	for i := 0; i < s && t.kind == Explicit; i++ {
		for j := i; j < s; j++ {
			if t.a[i][j] != 0 {
				t.kind = Implicit
				break
			}
		}
	}
	return t, nil
}

func mustNew(spec Spec) *Tableau {
	t, err := New(spec)
	if err != nil {
		panic(err)
	}
	return t
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ode.ErrInvalidTableau)
}

// Validate checks the dimensional and structural invariants of the spec.
func (s Spec) Validate() error {
	n := len(s.C)
	if n == 0 {
		return invalidf("%q has no stages", s.Name)
	}
	if len(s.B) != n {
		return invalidf("%q: %d weights for %d stages", s.Name, len(s.B), n)
	}
	if len(s.A) != n {
		return invalidf("%q: %d coupling rows for %d stages", s.Name, len(s.A), n)
	}
	if len(s.BStar) != 0 && len(s.BStar) != n {
		return invalidf("%q: %d embedded weights for %d stages", s.Name, len(s.BStar), n)
	}
	if len(s.BStar) != 0 && s.EmbeddedOrder <= 0 {
		return invalidf("%q: embedded weights without an embedded order", s.Name)
	}
	if s.Order <= 0 {
		return invalidf("%q: order must be positive, got %d", s.Name, s.Order)
	}

	for i, row := range s.A {
		if len(row) > n {
			return invalidf("%q: coupling row %d has %d entries for %d stages", s.Name, i+1, len(row), n)
		}
		for j, v := range row {
			if !finite(v) {
				return invalidf("%q: a[%d][%d] is not finite", s.Name, i+1, j+1)
			}
			if s.Kind == Explicit && j >= i && v != 0 {
				return invalidf("%q: explicit tableau has a[%d][%d] = %g on or above the diagonal", s.Name, i+1, j+1, v)
			}
		}
	}
	for _, row := range [][]float64{s.C, s.B, s.BStar} {
		for i, v := range row {
			if !finite(v) {
				return invalidf("%q: coefficient %d is not finite", s.Name, i+1)
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (t *Tableau) Name() string       { return t.name }
func (t *Tableau) Order() int         { return t.order }
func (t *Tableau) EmbeddedOrder() int { return t.embeddedOrder }
func (t *Tableau) Kind() Kind         { return t.kind }
func (t *Tableau) IsExplicit() bool   { return t.kind == Explicit }
func (t *Tableau) Stages() int        { return len(t.c) }

// HasEmbeddedEstimate reports whether the method carries a second weight row
// and therefore supports adaptive step control.
func (t *Tableau) HasEmbeddedEstimate() bool { return len(t.bStar) > 0 }

// ErrorOrder is the order p of the lower-order formula of an embedded pair.
// For methods without an estimate it is the method order.
func (t *Tableau) ErrorOrder() int {
	if !t.HasEmbeddedEstimate() || t.order < t.embeddedOrder {
		return t.order
	}
	return t.embeddedOrder
}

func (t *Tableau) C(i int) float64     { return t.c[i] }
func (t *Tableau) A(i, j int) float64  { return t.a[i][j] }
func (t *Tableau) B(i int) float64     { return t.b[i] }
func (t *Tableau) BStar(i int) float64 { return t.bStar[i] }

// Nodes returns a copy of c.
func (t *Tableau) Nodes() []float64 { return append([]float64(nil), t.c...) }

// Weights returns a copy of b.
func (t *Tableau) Weights() []float64 { return append([]float64(nil), t.b...) }

// EmbeddedWeights returns a copy of b*, or nil.
func (t *Tableau) EmbeddedWeights() []float64 {
	if len(t.bStar) == 0 {
		return nil
	}
	return append([]float64(nil), t.bStar...)
}

// Coupling returns a copy of the square coupling matrix.
func (t *Tableau) Coupling() [][]float64 {
	out := make([][]float64, len(t.a))
	for i, row := range t.a {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

func (t *Tableau) String() string {
	if t.HasEmbeddedEstimate() {
		return fmt.Sprintf("%s %d(%d), %d stages, %s", t.name, t.order, t.embeddedOrder, t.Stages(), t.kind)
	}
	return fmt.Sprintf("%s order %d, %d stages, %s", t.name, t.order, t.Stages(), t.kind)
}
