package tableau

import (
	"fmt"
	"math"
	"strings"

	"github.com/PaesslerAG/gval"
)

// ExprSpec is a tableau whose coefficients are arithmetic expressions such as
// "-56/15" or "1/2 - sqrt(3)/6". Empty strings are zero.
type ExprSpec struct {
	Name          string     `yaml:"name" json:"name"`
	Order         int        `yaml:"order" json:"order"`
	EmbeddedOrder int        `yaml:"embedded_order,omitempty" json:"embedded_order,omitempty"`
	Explicit      bool       `yaml:"explicit,omitempty" json:"explicit,omitempty"`
	C             []string   `yaml:"c" json:"c"`
	A             [][]string `yaml:"a" json:"a"`
	B             []string   `yaml:"b" json:"b"`
	BStar         []string   `yaml:"b_star,omitempty" json:"b_star,omitempty"`
}

var coefficients = gval.Full(
	gval.Function("sqrt", math.Sqrt),
	gval.Constant("pi", math.Pi),
)

// ParseSpec evaluates every coefficient of es and builds the tableau.
func ParseSpec(es ExprSpec) (*Tableau, error) {
	spec := Spec{
		Name:          es.Name,
		Order:         es.Order,
		EmbeddedOrder: es.EmbeddedOrder,
	}
	if es.Explicit {
		spec.Kind = Explicit
	}

	var err error
	if spec.C, err = evalRow(es.Name, "c", es.C); err != nil {
		return nil, err
	}
	if spec.B, err = evalRow(es.Name, "b", es.B); err != nil {
		return nil, err
	}
	if spec.BStar, err = evalRow(es.Name, "b_star", es.BStar); err != nil {
		return nil, err
	}
	spec.A = make([][]float64, len(es.A))
	for i, row := range es.A {
		if spec.A[i], err = evalRow(es.Name, fmt.Sprintf("a[%d]", i+1), row); err != nil {
			return nil, err
		}
	}

	return New(spec)
}

func evalRow(name, field string, exprs []string) ([]float64, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	out := make([]float64, len(exprs))
	for i, expr := range exprs {
		v, err := Eval(expr)
		if err != nil {
			return nil, invalidf("%q: %s[%d] = %q: %v", name, field, i+1, expr, err)
		}
		out[i] = v
	}
	return out, nil
}

// Eval evaluates a single coefficient expression.
func Eval(expr string) (float64, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, nil
	}
	v, err := coefficients.Evaluate(expr, nil)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expression yields %T, not a number", v)
	}
}
