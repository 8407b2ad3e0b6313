package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/d33fur/caso/internal/analysis"
	"github.com/d33fur/caso/internal/config"
	"github.com/d33fur/caso/internal/export"
	"github.com/d33fur/caso/internal/metrics"
	"github.com/d33fur/caso/internal/problems"
	"github.com/d33fur/caso/internal/sim"
	"github.com/d33fur/caso/internal/tableau"
	"github.com/d33fur/caso/internal/viz"
)

func listMethods(cmd *cobra.Command, args []string) error {
	reg := tableau.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTAGES\tORDER\tEMBEDDED\tKIND\tALIASES")
	for _, name := range reg.Names() {
		tab, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		embedded := "-"
		if tab.HasEmbeddedEstimate() {
			embedded = fmt.Sprintf("%d", tab.EmbeddedOrder())
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
			name, tab.Stages(), tab.Order(), embedded, tab.Kind(), strings.Join(reg.Aliases(name), ", "))
	}
	return w.Flush()
}

func listProblems(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDIM\tINTERVAL\tXS\tEXACT\tPARAMS\tDESCRIPTION")
	for _, name := range problems.Names() {
		p, err := problems.Get(name)
		if err != nil {
			return err
		}
		d := p.Defaults()
		_, exact := p.(problems.Exact)
		params := "-"
		if c, ok := p.(problems.Configurable); ok {
			params = formatParams(c.GetParams())
		}
		fmt.Fprintf(w, "%s\t%d\t[%g, %g]\t%g\t%v\t%s\t%s\n",
			name, p.Dim(), d.XL, d.XR, d.XS, exact, params, p.Description())
	}
	return w.Flush()
}

func formatParams(params map[string]float64) string {
	parts := make([]string, 0, len(params))
	for _, k := range sortedKeys(params) {
		parts = append(parts, fmt.Sprintf("%s=%g", k, params[k]))
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orderStudy(cmd *cobra.Command, args []string) error {
	name := "decay"
	if len(args) > 0 {
		name = args[0]
	}
	p, err := problems.Get(name)
	if err != nil {
		return err
	}

	reg := tableau.NewRegistry()
	names := methodList
	if len(names) == 0 {
		names = reg.Names()
	}

	fmt.Println(titleStyle.Render("convergence order on " + p.Name()))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tORDER\tOBSERVED\tCOARSE ERROR\tFINE ERROR")
	for _, m := range names {
		tab, err := reg.Lookup(m)
		if err != nil {
			return err
		}
		rows, err := analysis.OrderStudy(tab, p, baseSteps, halvings)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.3e\t%.3e\n",
			tab.Name(), tab.Order(), analysis.ObservedOrder(rows), rows[0].Error, rows[len(rows)-1].Error)
	}
	return w.Flush()
}

func compareMethods(cmd *cobra.Command, args []string) error {
	name, methods := args[0], args[1:]

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tFINAL\tERROR\tSTEPS\tREJECTED\tEVALS\tTIME")
	for _, m := range methods {
		cfg, err := loadConfig(cmd, []string{name})
		if err != nil {
			return err
		}
		cfg.Method, cfg.Tableau = m, nil

		s, p, params, err := prepare(cfg)
		if err != nil {
			return err
		}
		start := time.Now()
		res, err := s.Run(cmd.Context(), params)
		if err != nil {
			return fmt.Errorf("%s: %w", m, err)
		}
		elapsed := time.Since(start)

		last, _ := res.Trajectory.Last()
		errCol := "-"
		if ex, ok := p.(problems.Exact); ok {
			errCol = fmt.Sprintf("%.3e", last.Y.Sub(ex.Exact(last.X)).MaxNorm())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%v\n",
			res.Method, formatState(last.Y), errCol, res.Stats.Accepted, res.Stats.Rejected, res.Stats.Evaluations, elapsed)
	}
	return w.Flush()
}

func formatState(y []float64) string {
	parts := make([]string, len(y))
	for i, v := range y {
		parts[i] = fmt.Sprintf("%.6g", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func runBatch(cmd *cobra.Command, args []string) error {
	b, err := config.LoadBatch(args[0])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") {
		b.Concurrency = concurrency
	}
	runs, err := b.AllRuns()
	if err != nil {
		return err
	}

	// The base simulator only contributes its logger and observers.
	base := sim.New(tableau.ClassicalRK4(), sim.DefaultOptions())
	base.SetLogger(log.WithField("batch", b.Name))
	var collector *metrics.Collector
	if showMetric {
		collector = metrics.NewCollector("")
		base.AddObserver(collector)
	}

	log.WithField("runs", len(runs)).Info("starting batch")
	start := time.Now()
	results, err := b.Execute(cmd.Context(), base, tableau.NewRegistry())
	if err != nil {
		return err
	}

	if b.Name != "" {
		fmt.Println(titleStyle.Render(b.Name))
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tMETHOD\tPOINTS\tACCEPTED\tREJECTED\tEVALS\tFINAL")
	for i, res := range results {
		last, _ := res.Trajectory.Last()
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			runs[i].Name, res.Method, len(res.Trajectory), res.Stats.Accepted, res.Stats.Rejected, res.Stats.Evaluations, formatState(last.Y))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d runs in %v\n", len(results), time.Since(start))

	if collector != nil {
		return collector.WriteText(os.Stderr)
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"vanderpol"}
	}
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, p, params, err := prepare(cfg)
	if err != nil {
		return err
	}
	res, err := s.Run(cmd.Context(), params)
	if err != nil {
		return err
	}

	portrait, err := analysis.NewPhasePortrait(res.Trajectory, xAxis, yAxis)
	if err != nil {
		return err
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s: y%d vs y%d", p.Name(), yAxis, xAxis)))
	fmt.Println(portrait.ASCII(80, 24))

	if svgPath != "" {
		if err := writePhaseSVG(svgPath, res); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote portrait to %s\n", svgPath)
	}

	if section >= 0 {
		ps, err := analysis.NewPoincareSection(res.Trajectory, section, threshold, xAxis, yAxis)
		if err != nil {
			return err
		}
		fmt.Println(titleStyle.Render(fmt.Sprintf("poincare section y%d = %g (%d crossings)", section, threshold, len(ps.Points))))
		fmt.Println(ps.ASCII(80, 24))
	}
	return nil
}

func writePhaseSVG(path string, res *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return export.WritePhaseSVG(file, res.Trajectory, xAxis, yAxis, export.DefaultSVGOptions())
}

func viewTrajectory(cmd *cobra.Command, args []string) error {
	if fromPath != "" {
		r, err := loadReport(fromPath)
		if err != nil {
			return err
		}
		title := r.Method
		if r.Problem != "" {
			title = fmt.Sprintf("%s / %s", r.Problem, r.Method)
		}
		return viz.Run(title, r.Result())
	}

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, p, params, err := prepare(cfg)
	if err != nil {
		return err
	}
	res, err := s.Run(cmd.Context(), params)
	if err != nil {
		return err
	}
	return viz.Run(fmt.Sprintf("%s / %s", p.Name(), res.Method), res)
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := problems.Names()
	if len(args) > 0 {
		names = args
	}
	for _, name := range names {
		presets := config.ListPresets(name)
		if len(presets) == 0 {
			if len(args) > 0 {
				fmt.Printf("no presets for problem: %s\n", name)
			}
			continue
		}
		fmt.Printf("presets for %s:\n", name)
		for _, p := range presets {
			cfg := config.GetPreset(name, p)
			fmt.Printf("  %-14s %s\n", p, cfg.Method)
		}
	}
	return nil
}

func lyapunov(cmd *cobra.Command, args []string) error {
	name := "lorenz"
	if len(args) > 0 {
		name = args[0]
	}
	p, err := problems.Get(name)
	if err != nil {
		return err
	}
	tab, err := tableau.Lookup(lyapunovMethod)
	if err != nil {
		return err
	}

	lambda, err := analysis.LyapunovExponent(tab, p.Derive, p.Defaults().Y0, dt, duration, perturbation)
	if err != nil {
		return err
	}
	verdict := "regular"
	switch {
	case math.IsNaN(lambda):
		verdict = "undetermined"
	case lambda > 0.01:
		verdict = "chaotic"
	}
	fmt.Printf("%s (%s, dt=%g, t=%g): lambda = %.4f (%s)\n", p.Name(), tab.Name(), dt, duration, lambda, verdict)
	return nil
}

func loadReport(path string) (export.Report, error) {
	f, err := export.FormatOf(path)
	if err != nil {
		return export.Report{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return export.Report{}, err
	}
	defer file.Close()

	r, err := export.Read(file, f)
	if err != nil {
		return export.Report{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(r.Points) < 2 {
		return export.Report{}, fmt.Errorf("%s: need at least 2 points, got %d", path, len(r.Points))
	}
	return r, nil
}
