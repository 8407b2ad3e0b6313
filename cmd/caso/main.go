package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/d33fur/caso/internal/config"
	"github.com/d33fur/caso/internal/export"
	"github.com/d33fur/caso/internal/metrics"
	"github.com/d33fur/caso/internal/problems"
	"github.com/d33fur/caso/internal/sim"
	"github.com/d33fur/caso/internal/tableau"
)

var (
	logLevel string
	logJSON  bool
	log      = logrus.New()

	method      string
	xl, xr, xs  float64
	y0          string
	paramFlags  []string
	tol         float64
	safety      float64
	hmin, hmax  float64
	maxIter     int
	implicitTol float64
	maxReject   int
	configFile  string
	preset      string
	stability   float64

	format     string
	outPath    string
	component  int
	showPlot   bool
	showMetric bool

	xAxis, yAxis int
	section      int
	threshold    float64
	svgPath      string

	fromPath string

	methodList  []string
	baseSteps   int
	halvings    int
	concurrency int

	lyapunovMethod string
	dt             float64
	duration       float64
	perturbation   float64
)

var titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)

// main registers the caso commands and exits with status 1 when a command
// fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "caso",
		Short:         "butcher tableau ode integrator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as json")

	runCmd := &cobra.Command{
		Use:   "run [problem]",
		Short: "integrate a problem",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runIntegration,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&format, "format", "table", "output format (table, csv, json, svg)")
	runCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the report to a file instead of stdout")
	runCmd.Flags().IntVar(&component, "component", 0, "state component plotted by svg")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot every component in the terminal")
	runCmd.Flags().BoolVar(&showMetric, "metrics", false, "print prometheus metrics of the run to stderr")

	methodsCmd := &cobra.Command{
		Use:   "methods",
		Short: "list integration methods",
		Args:  cobra.NoArgs,
		RunE:  listMethods,
	}

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list test problems",
		Args:  cobra.NoArgs,
		RunE:  listProblems,
	}

	orderCmd := &cobra.Command{
		Use:   "order [problem]",
		Short: "measure the convergence order of methods",
		Args:  cobra.MaximumNArgs(1),
		RunE:  orderStudy,
	}
	orderCmd.Flags().StringSliceVar(&methodList, "methods", nil, "methods to study (default all)")
	orderCmd.Flags().IntVar(&baseSteps, "steps", 8, "steps of the coarsest run")
	orderCmd.Flags().IntVar(&halvings, "halvings", 4, "number of step halvings")

	compareCmd := &cobra.Command{
		Use:   "compare [problem] [method1] [method2] ...",
		Short: "compare methods on the same problem",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareMethods,
	}
	addRunFlags(compareCmd)

	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run a yaml batch of integrations concurrently",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "runs in flight (default from file, 0 = unlimited)")
	batchCmd.Flags().BoolVar(&showMetric, "metrics", false, "print prometheus metrics of the batch to stderr")

	phaseCmd := &cobra.Command{
		Use:   "phase [problem]",
		Short: "phase space plot",
		Args:  cobra.MaximumNArgs(1),
		RunE:  phasePlot,
	}
	addRunFlags(phaseCmd)
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	phaseCmd.Flags().IntVar(&section, "section", -1, "state index of a poincare section (off when negative)")
	phaseCmd.Flags().Float64Var(&threshold, "threshold", 0, "crossing value of the poincare section")
	phaseCmd.Flags().StringVarP(&svgPath, "out", "o", "", "also write the portrait as svg to this file")

	viewCmd := &cobra.Command{
		Use:   "view [problem]",
		Short: "browse a trajectory in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  viewTrajectory,
	}
	addRunFlags(viewCmd)
	viewCmd.Flags().StringVar(&fromPath, "from", "", "browse a saved json or csv report instead of integrating")

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [problem]",
		Short: "estimate the largest lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  lyapunov,
	}
	lyapunovCmd.Flags().StringVar(&lyapunovMethod, "method", "rk4", "integration method")
	lyapunovCmd.Flags().Float64Var(&dt, "dt", 0.01, "fixed step")
	lyapunovCmd.Flags().Float64Var(&duration, "time", 50, "integration time")
	lyapunovCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-8, "initial separation")

	rootCmd.AddCommand(runCmd, methodsCmd, problemsCmd, orderCmd, compareCmd, batchCmd, phaseCmd, viewCmd, presetsCmd, lyapunovCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogging() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	if logJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	def := sim.DefaultOptions()
	f.StringVar(&method, "method", config.DefaultMethod, "integration method")
	f.Float64Var(&xl, "xl", 0, "left end of the interval (default from problem)")
	f.Float64Var(&xr, "xr", 0, "right end of the interval (default from problem)")
	f.Float64Var(&xs, "xs", 0, "step size, or initial step for adaptive methods (default from problem)")
	f.StringVar(&y0, "y0", "", "comma separated initial state (default from problem)")
	f.StringArrayVar(&paramFlags, "param", nil, "problem parameter name=value, repeatable")
	f.Float64Var(&tol, "tol", def.Tolerance, "local error tolerance of adaptive methods")
	f.Float64Var(&safety, "safety", def.Safety, "step size safety factor")
	f.Float64Var(&hmin, "hmin", def.HMin, "smallest step before giving up")
	f.Float64Var(&hmax, "hmax", 0, "largest step (default the interval length)")
	f.IntVar(&maxIter, "max-iter", def.MaxImplicitIterations, "fixed-point iterations per implicit step")
	f.Float64Var(&implicitTol, "implicit-tol", def.ImplicitTolerance, "fixed-point convergence tolerance")
	f.IntVar(&maxReject, "max-reject", def.MaxRejectionsPerStep, "rejections allowed for a single step")
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&stability, "stability-threshold", config.DefaultStabilityThreshold, "state bound of the stability metric (0 disables it)")
}

// loadConfig layers preset, config file, positional problem and changed flags,
// in that order.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Problem = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Problem, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Problem))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) > 0 {
			cfg.Problem = args[0]
		}
	}

	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Method = method
		cfg.Tableau = nil
	}
	if flags.Changed("tol") {
		cfg.Options.Tolerance = tol
	}
	if flags.Changed("safety") {
		cfg.Options.Safety = safety
	}
	if flags.Changed("hmin") {
		cfg.Options.HMin = hmin
	}
	if flags.Changed("hmax") {
		cfg.Options.HMax = hmax
	}
	if flags.Changed("max-iter") {
		cfg.Options.MaxImplicitIterations = maxIter
	}
	if flags.Changed("implicit-tol") {
		cfg.Options.ImplicitTolerance = implicitTol
	}
	if flags.Changed("max-reject") {
		cfg.Options.MaxRejectionsPerStep = maxReject
	}
	if flags.Changed("stability-threshold") {
		cfg.Options.StabilityThreshold = stability
	}
	if flags.Changed("y0") {
		state, err := parseState(y0)
		if err != nil {
			return nil, err
		}
		cfg.Y0 = state
	}
	for _, kv := range paramFlags {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("param %q: want name=value", kv)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", name, err)
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		cfg.Params[strings.TrimSpace(name)] = v
	}

	if flags.Changed("xl") || flags.Changed("xr") || flags.Changed("xs") {
		if cfg.Interval == nil {
			p, err := problems.Get(cfg.Problem)
			if err != nil {
				return nil, err
			}
			d := p.Defaults()
			cfg.Interval = &config.Interval{XL: d.XL, XR: d.XR, XS: d.XS}
		}
		if flags.Changed("xl") {
			cfg.Interval.XL = xl
		}
		if flags.Changed("xr") {
			cfg.Interval.XR = xr
		}
		if flags.Changed("xs") {
			cfg.Interval.XS = xs
		}
	}
	return cfg, nil
}

func parseState(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	state := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("y0: %w", err)
		}
		state = append(state, v)
	}
	return state, nil
}

// prepare resolves the configured run into a simulator ready to go, with the
// standard metrics, the stability metric when a bound is set and, for
// conservative problems, energy drift attached.
func prepare(cfg *config.Config) (*sim.Simulator, problems.Problem, sim.Params, error) {
	tab, err := cfg.ResolveMethod(tableau.NewRegistry())
	if err != nil {
		return nil, nil, sim.Params{}, err
	}
	p, err := cfg.ResolveProblem()
	if err != nil {
		return nil, nil, sim.Params{}, err
	}
	params, err := cfg.SimParams(p)
	if err != nil {
		return nil, nil, sim.Params{}, err
	}

	s := sim.New(tab, cfg.Options.Sim())
	s.SetLogger(log.WithField("problem", p.Name()))
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}
	if cfg.Options.StabilityThreshold > 0 {
		s.AddMetric(metrics.NewStability(cfg.Options.StabilityThreshold))
	}
	if h, ok := p.(problems.Hamiltonian); ok && len(params.Y0) == p.Dim() {
		s.AddMetric(metrics.NewEnergyDrift(h, params.Y0))
	}
	return s, p, params, nil
}

func runIntegration(cmd *cobra.Command, args []string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, p, params, err := prepare(cfg)
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if showMetric {
		collector = metrics.NewCollector("")
		s.AddObserver(collector)
	}

	start := time.Now()
	res, err := s.Run(cmd.Context(), params)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	var out io.Writer = os.Stdout
	if outPath != "" {
		file, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	if f == export.FormatTable && outPath == "" {
		fmt.Println(titleStyle.Render(fmt.Sprintf("%s / %s", p.Name(), res.Method)))
		printSummary(os.Stdout, res, elapsed)
		fmt.Println()
	}
	if err := export.Write(out, f, export.NewReport(p.Name(), res), component); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(os.Stderr, "wrote %d points to %s\n", len(res.Trajectory), outPath)
	}

	if showPlot {
		plotTrajectory(res)
	}
	if collector != nil {
		return collector.WriteText(os.Stderr)
	}
	return nil
}

func printSummary(w io.Writer, res *sim.Result, elapsed time.Duration) {
	st := res.Stats
	fmt.Fprintf(w, "run id: %s\n", res.RunID)
	fmt.Fprintf(w, "completed in %v\n", elapsed)
	fmt.Fprintf(w, "points: %d  accepted: %d  rejected: %d  evaluations: %d\n",
		len(res.Trajectory), st.Accepted, st.Rejected, st.Evaluations)
	for _, c := range res.Corrections {
		fmt.Fprintf(w, "defaulted %s: %g -> %g\n", c.Field, c.From, c.To)
	}
	if len(res.Metrics) > 0 {
		fmt.Fprintln(w, "metrics:")
		names := make([]string, 0, len(res.Metrics))
		for name := range res.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %.6g\n", name, res.Metrics[name])
		}
	}
}

func plotTrajectory(res *sim.Result) {
	numVars := min(res.Trajectory.Dim(), 6)
	for i := 0; i < numVars; i++ {
		data := res.Trajectory.Component(i)
		if len(data) < 2 {
			return
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("y%d vs x", i)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
}
