package sim_test

import (
	"context"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/d33fur/caso/internal/ode"
	"github.com/d33fur/caso/internal/sim"
	"github.com/d33fur/caso/internal/tableau"
)

var _ = Describe("Ensemble", func() {
	var params []sim.Params

	BeforeEach(func() {
		params = nil
		for i := 1; i <= 16; i++ {
			params = append(params, sim.Params{F: decay, Y0: ode.State{float64(i)}, XL: 0, XR: 1, XS: 0.1})
		}
	})

	It("matches sequential runs", func() {
		base := sim.New(tableau.DormandPrince(), sim.DefaultOptions())
		results, err := sim.NewEnsemble(base).Run(context.Background(), params)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(len(params)))

		for i, p := range params {
			want, err := base.Run(context.Background(), p)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[i].Trajectory).To(Equal(want.Trajectory))
		}
	})

	It("shares concurrency-safe observers across runs", func() {
		var accepted atomic.Int64
		base := sim.New(tableau.ClassicalRK4(), sim.DefaultOptions())
		base.AddObserver(sim.ObserverFunc(func(ev sim.StepEvent) {
			if ev.Accepted {
				accepted.Add(1)
			}
		}))

		e := sim.NewEnsemble(base)
		e.SetLimit(3)
		_, err := e.Run(context.Background(), params)
		Expect(err).NotTo(HaveOccurred())
		Expect(accepted.Load()).To(Equal(int64(16 * 10)))
	})

	It("runs mixed methods", func() {
		jobs := []sim.Job{
			{Name: "euler", Method: tableau.ForwardEuler(), Options: sim.DefaultOptions(), Params: params[0]},
			{Name: "gl4", Method: tableau.GaussLegendre4(), Options: sim.DefaultOptions(), Params: params[1]},
			{Name: "dopri", Method: tableau.DormandPrince(), Options: sim.DefaultOptions(), Params: params[2]},
		}
		results, err := sim.NewEnsemble(sim.New(nil, sim.Options{})).RunJobs(context.Background(), jobs)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Method).To(Equal("forward-euler"))
		Expect(results[1].Method).To(Equal("gauss-legendre4"))
		Expect(results[2].Method).To(Equal("dormand-prince"))
	})

	It("fails as a whole when one run fails", func() {
		params[5].F = nil
		results, err := sim.NewEnsemble(sim.New(tableau.ClassicalRK4(), sim.DefaultOptions())).Run(context.Background(), params)
		Expect(results).To(BeNil())
		Expect(err).To(MatchError(ode.ErrInvalidParameters))
		Expect(err.Error()).To(ContainSubstring("run-5"))
	})
})
