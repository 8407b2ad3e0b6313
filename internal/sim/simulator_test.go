package sim_test

import (
	"bytes"
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/d33fur/caso/internal/ode"
	"github.com/d33fur/caso/internal/sim"
	"github.com/d33fur/caso/internal/tableau"
)

// linearExact solves y' = -2y + x with y(1) = 2.
func linearExact(x float64) float64 {
	return x/2 - 0.25 + 1.75*math.Exp(-2*(x-1))
}

func decay(x float64, y ode.State) ode.State {
	return ode.State{-y[0]}
}

// sharp has a narrow front near x = 1.
func sharp(x float64, y ode.State) ode.State {
	d := 100 * (x - 1)
	return ode.State{100 / (1 + d*d)}
}

type recorder struct {
	events []sim.StepEvent
}

func (r *recorder) OnStep(ev sim.StepEvent) { r.events = append(r.events, ev) }

func (r *recorder) accepted() []sim.StepEvent {
	var out []sim.StepEvent
	for _, ev := range r.events {
		if ev.Accepted {
			out = append(out, ev)
		}
	}
	return out
}

func run(tab *tableau.Tableau, opts sim.Options, p sim.Params, observers ...sim.Observer) (*sim.Result, error) {
	s := sim.New(tab, opts)
	for _, o := range observers {
		s.AddObserver(o)
	}
	return s.Run(context.Background(), p)
}

var _ = Describe("Simulator", func() {
	linearParams := sim.Params{F: linear, Y0: ode.State{2}, XL: 1, XR: 3, XS: 0.25}

	Describe("fixed-step methods", func() {
		DescribeTable("y' = -2y + x on [1, 3] with xs = 0.25",
			func(tab *tableau.Tableau, tol float64) {
				res, err := run(tab, sim.DefaultOptions(), linearParams)
				Expect(err).NotTo(HaveOccurred())

				traj := res.Trajectory
				Expect(traj).To(HaveLen(9))
				Expect(traj[0].X).To(Equal(1.0))
				Expect(traj[0].Y).To(Equal(ode.State{2.0}))

				last, _ := traj.Last()
				Expect(last.X).To(Equal(3.0))
				Expect(last.Y[0]).To(BeNumerically("~", linearExact(3), tol))

				for i, pt := range traj {
					Expect(pt.X).To(BeNumerically("~", 1+0.25*float64(i), 1e-12))
				}
				Expect(res.Stats.Accepted).To(Equal(8))
				Expect(res.Stats.Rejected).To(BeZero())
				Expect(res.Stats.Evaluations).To(Equal(8 * tab.Stages()))
			},
			Entry("forward Euler", tableau.ForwardEuler(), 0.1),
			Entry("classical RK4", tableau.ClassicalRK4(), 1e-3),
		)

		It("lands exactly on the right end when the step does not divide the interval", func() {
			res, err := run(tableau.ClassicalRK4(), sim.DefaultOptions(),
				sim.Params{F: decay, Y0: ode.State{1}, XL: 0, XR: 1, XS: 0.3})
			Expect(err).NotTo(HaveOccurred())

			xs := res.Trajectory.Xs()
			Expect(xs).To(HaveLen(5))
			Expect(xs[len(xs)-1]).To(Equal(1.0))
			Expect(xs[len(xs)-1] - xs[len(xs)-2]).To(BeNumerically("~", 0.1, 1e-12))
		})

		It("takes non-representable steps without a sliver at the end", func() {
			res, err := run(tableau.ClassicalRK4(), sim.DefaultOptions(),
				sim.Params{F: decay, Y0: ode.State{1}, XL: 0, XR: 1, XS: 0.1})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Trajectory).To(HaveLen(11))
			last, _ := res.Trajectory.Last()
			Expect(last.X).To(Equal(1.0))
		})

		It("applies the defaulting policy and reports it", func() {
			res, err := run(tableau.ClassicalRK4(), sim.DefaultOptions(),
				sim.Params{F: linear, Y0: ode.State{2}, XL: 3, XR: 1, XS: 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Corrections).To(HaveLen(3))
			Expect(res.Params.XL).To(Equal(1.0))
			Expect(res.Params.XR).To(Equal(3.0))
			Expect(res.Params.XS).To(Equal(0.25))
			Expect(res.Trajectory).To(HaveLen(9))
		})
	})

	Describe("adaptive methods", func() {
		DescribeTable("never accept a step above tolerance",
			func(tab *tableau.Tableau) {
				opts := sim.DefaultOptions()
				opts.Tolerance = 1e-8
				rec := &recorder{}

				res, err := run(tab, opts, sim.Params{F: sharp, Y0: ode.State{0}, XL: 0, XR: 2, XS: 0.5}, rec)
				Expect(err).NotTo(HaveOccurred())

				for _, ev := range rec.accepted() {
					Expect(ev.Error).To(BeNumerically("<=", opts.Tolerance))
				}
				Expect(res.Stats.MaxError).To(BeNumerically("<=", opts.Tolerance))
				Expect(res.Stats.Accepted).To(Equal(len(rec.accepted())))
				Expect(res.Stats.Rejected).To(Equal(len(rec.events) - len(rec.accepted())))

				last, _ := res.Trajectory.Last()
				Expect(last.X).To(Equal(2.0))
				exact := math.Atan(100) + math.Atan(100)
				Expect(last.Y[0]).To(BeNumerically("~", exact, 1e-4))
			},
			Entry("Heun-Euler", tableau.HeunEuler()),
			Entry("Bogacki-Shampine", tableau.BogackiShampine()),
			Entry("Fehlberg", tableau.Fehlberg()),
			Entry("Dormand-Prince", tableau.DormandPrince()),
		)

		It("rejects the naive step across a sharp transition and retries smaller", func() {
			opts := sim.DefaultOptions()
			opts.Tolerance = 1e-8
			rec := &recorder{}

			_, err := run(tableau.DormandPrince(), opts, sim.Params{F: sharp, Y0: ode.State{0}, XL: 0, XR: 2, XS: 0.5}, rec)
			Expect(err).NotTo(HaveOccurred())

			first := -1
			for i, ev := range rec.events {
				if !ev.Accepted {
					first = i
					break
				}
			}
			Expect(first).To(BeNumerically(">=", 0), "expected at least one rejection")

			rejected := rec.events[first]
			for _, ev := range rec.events[first+1:] {
				if ev.Accepted {
					Expect(ev.X).To(Equal(rejected.X))
					Expect(ev.H).To(BeNumerically("<", rejected.H))
					break
				}
			}
		})

		It("respects hmax", func() {
			opts := sim.DefaultOptions()
			opts.HMax = 0.05
			rec := &recorder{}
			_, err := run(tableau.DormandPrince(), opts, sim.Params{F: decay, Y0: ode.State{1}, XL: 0, XR: 1, XS: 0.5}, rec)
			Expect(err).NotTo(HaveOccurred())
			for _, ev := range rec.events {
				Expect(ev.H).To(BeNumerically("<=", 0.05+1e-15))
			}
		})

		It("fails with step size underflow when the rejection budget runs out", func() {
			opts := sim.DefaultOptions()
			opts.Tolerance = 1e-14
			opts.MaxRejectionsPerStep = 1
			noisy := func(x float64, y ode.State) ode.State {
				return ode.State{math.Sin(1e6 * x)}
			}
			res, err := run(tableau.HeunEuler(), opts, sim.Params{F: noisy, Y0: ode.State{0}, XL: 0, XR: 1, XS: 0.5})
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(ode.ErrStepSizeUnderflow))
		})
	})

	Describe("implicit methods", func() {
		DescribeTable("use stages whose fixed-point residual is below the implicit tolerance",
			func(tab *tableau.Tableau) {
				opts := sim.DefaultOptions()
				opts.ImplicitTolerance = 1e-12
				opts.MaxImplicitIterations = 100
				rec := &recorder{}

				res, err := run(tab, opts, linearParams, rec)
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.accepted()).To(HaveLen(8))
				for _, ev := range rec.accepted() {
					Expect(ev.Iterations).To(BeNumerically(">", 0))
					Expect(ev.Residual).To(BeNumerically("<", opts.ImplicitTolerance))
				}
				Expect(res.Stats.ImplicitIterations).To(BeNumerically(">", 0))
			},
			Entry("backward Euler", tableau.BackwardEuler()),
			Entry("implicit midpoint", tableau.ImplicitMidpoint()),
			Entry("trapezoidal", tableau.Trapezoidal()),
			Entry("Gauss-Legendre", tableau.GaussLegendre4()),
		)

		stiff := func(x float64, y ode.State) ode.State { return ode.State{-1000 * y[0]} }

		It("fails a fixed-step run when the stage solve does not converge", func() {
			res, err := run(tableau.BackwardEuler(), sim.DefaultOptions(),
				sim.Params{F: stiff, Y0: ode.State{1}, XL: 0, XR: 1, XS: 0.25})
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(ode.ErrImplicitNotConverged))

			var ierr *ode.IntegrationError
			Expect(errors.As(err, &ierr)).To(BeTrue())
			Expect(ierr.Step).To(Equal(1))
			Expect(ierr.X).To(Equal(0.0))
			Expect(ierr.H).To(Equal(0.25))
		})

		Context("with an embedded implicit pair", func() {
			var pair *tableau.Tableau

			BeforeEach(func() {
				var err error
				pair, err = tableau.New(tableau.Spec{
					Name:          "trapezoidal-euler",
					Order:         2,
					EmbeddedOrder: 1,
					C:             []float64{0, 1},
					A:             [][]float64{{0, 0}, {0.5, 0.5}},
					B:             []float64{0.5, 0.5},
					BStar:         []float64{0, 1},
				})
				Expect(err).NotTo(HaveOccurred())
			})

			It("shrinks the step instead of failing", func() {
				rec := &recorder{}
				res, err := run(pair, sim.DefaultOptions(),
					sim.Params{F: stiff, Y0: ode.State{1}, XL: 0, XR: 0.05, XS: 0.04}, rec)
				Expect(err).NotTo(HaveOccurred())

				var diverged int
				for _, ev := range rec.events {
					if !ev.Converged {
						diverged++
						Expect(ev.Accepted).To(BeFalse())
						Expect(ev.NextH).To(BeNumerically("~", ev.H*0.2, 1e-15))
					}
				}
				Expect(diverged).To(BeNumerically(">", 0))
				last, _ := res.Trajectory.Last()
				Expect(last.X).To(Equal(0.05))
			})

			It("counts the work of diverged attempts", func() {
				calls := 0
				counting := func(x float64, y ode.State) ode.State {
					calls++
					return stiff(x, y)
				}
				rec := &recorder{}
				res, err := run(pair, sim.DefaultOptions(),
					sim.Params{F: counting, Y0: ode.State{1}, XL: 0, XR: 0.05, XS: 0.04}, rec)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Stats.Evaluations).To(Equal(calls))

				var evals, iters int
				for _, ev := range rec.events {
					evals += ev.Evaluations
					iters += ev.Iterations
					if !ev.Converged {
						Expect(ev.Evaluations).To(BeNumerically(">", 0))
						Expect(ev.Iterations).To(Equal(sim.DefaultOptions().MaxImplicitIterations))
					}
				}
				Expect(evals).To(Equal(calls))
				Expect(iters).To(Equal(res.Stats.ImplicitIterations))
			})

			It("gives up after the rejection budget", func() {
				opts := sim.DefaultOptions()
				opts.MaxRejectionsPerStep = 2
				_, err := run(pair, opts, sim.Params{F: stiff, Y0: ode.State{1}, XL: 0, XR: 1, XS: 0.5})
				Expect(err).To(MatchError(ode.ErrStepSizeUnderflow))
			})
		})
	})

	Describe("failures", func() {
		It("is all-or-nothing", func() {
			calls := 0
			flaky := func(x float64, y ode.State) ode.State {
				calls++
				if x > 2 {
					return ode.State{1, 2}
				}
				return ode.State{-y[0]}
			}
			res, err := run(tableau.ClassicalRK4(), sim.DefaultOptions(),
				sim.Params{F: flaky, Y0: ode.State{1}, XL: 1, XR: 3, XS: 0.25})
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(ode.ErrInvalidParameters))
			Expect(calls).To(BeNumerically(">", 0))
		})

		It("rejects malformed parameters", func() {
			res, err := run(tableau.ClassicalRK4(), sim.DefaultOptions(), sim.Params{Y0: ode.State{1}, XL: 0, XR: 1, XS: 0.1})
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(ode.ErrInvalidParameters))
		})

		It("rejects malformed options", func() {
			opts := sim.DefaultOptions()
			opts.Tolerance = -1
			_, err := run(tableau.ClassicalRK4(), opts, linearParams)
			Expect(err).To(MatchError(ode.ErrInvalidParameters))
		})

		It("rejects a missing method", func() {
			_, err := run(nil, sim.DefaultOptions(), linearParams)
			Expect(err).To(MatchError(ode.ErrInvalidTableau))
		})

		It("detects a diverging state", func() {
			blowup := func(x float64, y ode.State) ode.State {
				if x > 1.5 {
					return ode.State{math.Inf(1)}
				}
				return ode.State{y[0]}
			}
			p := sim.Params{F: blowup, Y0: ode.State{1}, XL: 1, XR: 3, XS: 0.25}

			_, err := run(tableau.ForwardEuler(), sim.DefaultOptions(), p)
			Expect(err).To(MatchError(ode.ErrUnstable))

			opts := sim.DefaultOptions()
			opts.ValidateState = false
			res, err := run(tableau.ForwardEuler(), opts, p)
			Expect(err).NotTo(HaveOccurred())
			last, _ := res.Trajectory.Last()
			Expect(last.Y.IsValid()).To(BeFalse())
		})

		It("grows a tiny first step instead of preallocating for it", func() {
			p := sim.Params{F: decay, Y0: ode.State{1}, XL: 0, XR: 1, XS: 1e-20}
			res, err := run(tableau.DormandPrince(), sim.DefaultOptions(), p)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Corrections).To(BeEmpty())
			last, _ := res.Trajectory.Last()
			Expect(last.X).To(Equal(1.0))
			Expect(last.Y[0]).To(BeNumerically("~", math.Exp(-1), 1e-5))
		})

		It("runs out of steps on a tiny fixed step", func() {
			opts := sim.DefaultOptions()
			opts.MaxSteps = 1000
			res, err := run(tableau.ClassicalRK4(), opts,
				sim.Params{F: decay, Y0: ode.State{1}, XL: 0, XR: 1, XS: 1e-20})
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(ode.ErrTooManySteps))
		})

		It("enforces the step budget", func() {
			opts := sim.DefaultOptions()
			opts.MaxSteps = 3
			_, err := run(tableau.ClassicalRK4(), opts, linearParams)
			Expect(err).To(MatchError(ode.ErrTooManySteps))
		})

		It("stops on context cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err := sim.New(tableau.ClassicalRK4(), sim.DefaultOptions()).Run(ctx, linearParams)
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	It("is deterministic", func() {
		opts := sim.DefaultOptions()
		opts.Tolerance = 1e-9
		p := sim.Params{F: sharp, Y0: ode.State{0}, XL: 0, XR: 2, XS: 0.5}

		a, err := run(tableau.DormandPrince(), opts, p)
		Expect(err).NotTo(HaveOccurred())
		b, err := run(tableau.DormandPrince(), opts, p)
		Expect(err).NotTo(HaveOccurred())

		Expect(a.Trajectory).To(Equal(b.Trajectory))
		Expect(a.Stats).To(Equal(b.Stats))
		Expect(a.RunID).NotTo(Equal(b.RunID))
	})

	It("feeds metrics and reports their values", func() {
		s := sim.New(tableau.ClassicalRK4(), sim.DefaultOptions())
		m := &countMetric{}
		s.AddMetric(m)

		res, err := s.Run(context.Background(), linearParams)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Metrics).To(HaveKeyWithValue("steps", 8.0))

		res, err = s.Run(context.Background(), linearParams)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Metrics["steps"]).To(Equal(8.0))
	})

	It("logs corrections and completion", func() {
		var buf bytes.Buffer
		logger := logrus.New()
		logger.SetOutput(&buf)
		logger.SetLevel(logrus.DebugLevel)

		s := sim.New(tableau.ClassicalRK4(), sim.DefaultOptions())
		s.SetLogger(logger)
		_, err := s.Run(context.Background(), sim.Params{F: linear, Y0: ode.State{2}, XL: 1, XR: 3, XS: 0})
		Expect(err).NotTo(HaveOccurred())

		Expect(buf.String()).To(ContainSubstring("parameter defaulted"))
		Expect(buf.String()).To(ContainSubstring("field=xs"))
		Expect(buf.String()).To(ContainSubstring("integration finished"))
		Expect(buf.String()).To(ContainSubstring("method=rk4"))
	})
})

type countMetric struct{ n int }

func (c *countMetric) Name() string { return "steps" }
func (c *countMetric) Observe(ev sim.StepEvent) {
	if ev.Accepted {
		c.n++
	}
}
func (c *countMetric) Value() float64 { return float64(c.n) }
func (c *countMetric) Reset()         { c.n = 0 }
