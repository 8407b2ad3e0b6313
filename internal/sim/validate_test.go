package sim_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/d33fur/caso/internal/ode"
	"github.com/d33fur/caso/internal/sim"
)

func linear(x float64, y ode.State) ode.State {
	return ode.State{-2*y[0] + x}
}

var _ = Describe("Normalize", func() {
	params := func(xl, xr, xs float64) sim.Params {
		return sim.Params{F: linear, Y0: ode.State{2}, XL: xl, XR: xr, XS: xs}
	}

	DescribeTable("defaulting",
		func(in sim.Params, xl, xr, xs float64, fields []string) {
			out, corrections, err := sim.Normalize(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.XL).To(Equal(xl))
			Expect(out.XR).To(Equal(xr))
			Expect(out.XS).To(Equal(xs))

			got := make([]string, 0, len(corrections))
			for _, c := range corrections {
				got = append(got, c.Field)
			}
			Expect(got).To(Equal(fields))
		},
		Entry("valid input is untouched", params(1, 3, 0.25), 1.0, 3.0, 0.25, []string{}),
		Entry("zero step", params(1, 3, 0), 1.0, 3.0, 0.25, []string{"xs"}),
		Entry("negative step", params(1, 3, -0.5), 1.0, 3.0, 0.25, []string{"xs"}),
		Entry("step equal to the interval", params(1, 3, 2), 1.0, 3.0, 0.25, []string{"xs"}),
		Entry("step longer than the interval", params(0, 1, 5), 0.0, 1.0, 0.25, []string{"xs"}),
		Entry("reversed interval", params(3, 1, 0.25), 1.0, 3.0, 0.25, []string{"xl", "xr"}),
		Entry("empty interval", params(2, 2, 0.25), 1.0, 3.0, 0.25, []string{"xl", "xr"}),
		Entry("reversed interval and bad step", params(3, 1, 0), 1.0, 3.0, 0.25, []string{"xl", "xr", "xs"}),
	)

	It("records the replaced values", func() {
		_, corrections, err := sim.Normalize(params(3, 1, 0.25))
		Expect(err).NotTo(HaveOccurred())
		Expect(corrections).To(Equal([]sim.Correction{
			{Field: "xl", From: 3, To: 1},
			{Field: "xr", From: 1, To: 3},
		}))
	})

	It("copies the initial state", func() {
		y0 := ode.State{2}
		out, _, err := sim.Normalize(sim.Params{F: linear, Y0: y0, XL: 1, XR: 3, XS: 0.25})
		Expect(err).NotTo(HaveOccurred())
		out.Y0[0] = 7
		Expect(y0[0]).To(Equal(2.0))
	})

	DescribeTable("malformed input",
		func(in sim.Params) {
			_, _, err := sim.Normalize(in)
			Expect(err).To(MatchError(ode.ErrInvalidParameters))
		},
		Entry("nil function", sim.Params{Y0: ode.State{1}, XL: 1, XR: 3, XS: 0.25}),
		Entry("empty state", sim.Params{F: linear, XL: 1, XR: 3, XS: 0.25}),
		Entry("nan state", sim.Params{F: linear, Y0: ode.State{math.NaN()}, XL: 1, XR: 3, XS: 0.25}),
		Entry("nan bound", sim.Params{F: linear, Y0: ode.State{1}, XL: math.NaN(), XR: 3, XS: 0.25}),
		Entry("infinite bound", sim.Params{F: linear, Y0: ode.State{1}, XL: 1, XR: math.Inf(1), XS: 0.25}),
		Entry("nan step", sim.Params{F: linear, Y0: ode.State{1}, XL: 1, XR: 3, XS: math.NaN()}),
	)
})
