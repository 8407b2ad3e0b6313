package control

import (
	"errors"
	"math"
	"testing"

	"github.com/d33fur/caso/internal/ode"
	"github.com/d33fur/caso/internal/tableau"
)

func TestPropose(t *testing.T) {
	c := New(tableau.ClassicalRK4(), DefaultConfig())

	tests := []struct {
		name      string
		h, remain float64
		want      float64
		last      bool
	}{
		{"interior", 0.25, 2, 0.25, false},
		{"exact fit", 0.25, 0.25, 0.25, true},
		{"overshoot", 0.25, 0.1, 0.1, true},
		{"tiny leftover absorbed", 0.25, 0.25 + 1e-12, 0.25 + 1e-12, true},
		{"small leftover kept", 0.25, 0.26, 0.25, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, last := c.Propose(tt.h, tt.remain)
			if got != tt.want || last != tt.last {
				t.Errorf("Propose(%v, %v) = (%v, %v), want (%v, %v)", tt.h, tt.remain, got, last, tt.want, tt.last)
			}
		})
	}
}

func TestFixedStepAlwaysAccepts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Step = 0.1
	c := New(tableau.ForwardEuler(), cfg)
	if c.Adaptive() {
		t.Fatal("forward Euler should not be adaptive")
	}

	d, err := c.Decide(0.05, 1e3, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Accept || d.NextH != 0.1 {
		t.Errorf("Decide() = %+v", d)
	}
}

func TestAdaptiveFactor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tolerance = 1e-6
	c := New(tableau.DormandPrince(), cfg) // p = 4

	tests := []struct {
		name   string
		e      float64
		accept bool
		factor float64
	}{
		{"at tolerance", 1e-6, true, 0.9},
		{"small error", 1e-6 / 32, true, 0.9 * 2},
		{"zero error", 0, true, 10},
		{"large error", 32e-6, false, 0.9 / 2},
		{"huge error", 1, false, 0.2},
		{"nan", math.NaN(), false, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := c.Decide(0.01, tt.e, 1)
			if err != nil {
				t.Fatal(err)
			}
			if d.Accept != tt.accept {
				t.Errorf("Accept = %v, want %v", d.Accept, tt.accept)
			}
			if math.Abs(d.Factor-tt.factor) > 1e-12 {
				t.Errorf("Factor = %v, want %v", d.Factor, tt.factor)
			}
			if math.Abs(d.NextH-0.01*tt.factor) > 1e-12 {
				t.Errorf("NextH = %v, want %v", d.NextH, 0.01*tt.factor)
			}
			c.Reset()
		})
	}
}

func TestAdaptiveClamp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HMax = 0.05
	cfg.HMin = 0.001
	c := New(tableau.BogackiShampine(), cfg)

	d, _ := c.Decide(0.04, 0, 1)
	if d.NextH != 0.05 {
		t.Errorf("NextH = %v, want HMax", d.NextH)
	}

	d, _ = c.Decide(0.04, 0, 0.02)
	if d.NextH != 0.02 {
		t.Errorf("NextH = %v, want remaining length", d.NextH)
	}

	d, err := c.Decide(0.002, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if d.Accept || d.NextH != 0.001 {
		t.Errorf("Decide() = %+v, want rejection clamped to HMin", d)
	}
}

func TestRejectionAtHMin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HMin = 1e-3
	c := New(tableau.HeunEuler(), cfg)

	_, err := c.Decide(1e-3, 1, 1)
	if !errors.Is(err, ode.ErrStepSizeUnderflow) {
		t.Errorf("error = %v, want ErrStepSizeUnderflow", err)
	}
}

func TestRejectionBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRejections = 3
	c := New(tableau.HeunEuler(), cfg)

	for i := 0; i < 3; i++ {
		if _, err := c.Decide(0.1, 1, 1); err != nil {
			t.Fatalf("rejection %d: %v", i+1, err)
		}
	}
	if c.Rejections() != 3 {
		t.Errorf("Rejections() = %d", c.Rejections())
	}
	if _, err := c.Decide(0.1, 1, 1); !errors.Is(err, ode.ErrStepSizeUnderflow) {
		t.Errorf("error = %v, want ErrStepSizeUnderflow", err)
	}

	c.Reset()
	if _, err := c.Decide(0.1, 0, 1); err != nil || c.Rejections() != 0 {
		t.Errorf("accept after reset: err=%v rejections=%d", err, c.Rejections())
	}
}

func TestShrink(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HMin = 0.01
	c := New(tableau.BackwardEuler(), cfg)

	h, err := c.Shrink(0.5)
	if err != nil || math.Abs(h-0.1) > 1e-15 {
		t.Errorf("Shrink(0.5) = %v, %v", h, err)
	}
	h, err = c.Shrink(0.02)
	if err != nil || h != 0.01 {
		t.Errorf("Shrink(0.02) = %v, %v", h, err)
	}
	if _, err = c.Shrink(0.01); !errors.Is(err, ode.ErrStepSizeUnderflow) {
		t.Errorf("Shrink at HMin error = %v", err)
	}
}

func TestPIControllerUsesHistory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Beta = 0.08
	c := New(tableau.DormandPrince(), cfg)

	first, _ := c.Decide(0.01, 1e-7, 1)
	second, _ := c.Decide(0.01, 1e-7, 1)

	elementary := New(tableau.DormandPrince(), DefaultConfig())
	base, _ := elementary.Decide(0.01, 1e-7, 1)

	if first.Factor != base.Factor {
		t.Errorf("first PI factor %v should match elementary %v", first.Factor, base.Factor)
	}
	if second.Factor == base.Factor {
		t.Error("PI factor ignored the previous error")
	}
}
