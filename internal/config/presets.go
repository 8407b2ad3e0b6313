package config

import "sort"

var Presets = map[string]map[string]*Config{
	"linear": {
		"reference": {
			Method: "rk4", Problem: "linear",
			Interval: &Interval{XL: 1, XR: 3, XS: 0.25},
		},
		"defaulted": {
			Method: "rk4", Problem: "linear",
			Interval: &Interval{XL: 3, XR: 1, XS: 0},
		},
		"adaptive": {
			Method: "dormand-prince", Problem: "linear",
			Interval: &Interval{XL: 1, XR: 3, XS: 0.5},
		},
	},
	"vanderpol": {
		"limit-cycle": {
			Method: "dormand-prince", Problem: "vanderpol",
			Params: map[string]float64{"mu": 1},
		},
		"relaxation": {
			Method: "dormand-prince", Problem: "vanderpol",
			Params:   map[string]float64{"mu": 10},
			Interval: &Interval{XL: 0, XR: 50, XS: 0.01},
		},
	},
	"lorenz": {
		"butterfly": {
			Method: "dormand-prince", Problem: "lorenz",
			Interval: &Interval{XL: 0, XR: 50, XS: 0.01},
		},
		"periodic": {
			Method: "dormand-prince", Problem: "lorenz",
			Params: map[string]float64{"rho": 160},
		},
	},
	"oscillator": {
		"long-run": {
			Method: "gauss-legendre4", Problem: "oscillator",
			Interval: &Interval{XL: 0, XR: 200, XS: 0.1},
		},
		"euler-drift": {
			Method: "forward-euler", Problem: "oscillator",
			Interval: &Interval{XL: 0, XR: 20, XS: 0.05},
		},
	},
	"sharp": {
		"narrow": {
			Method: "bogacki-shampine", Problem: "sharp",
			Params: map[string]float64{"width": 0.001},
		},
	},
	"prothero-robinson": {
		"stiff": {
			Method: "gauss-legendre4", Problem: "prothero-robinson",
			Params:   map[string]float64{"lambda": 1000},
			Interval: &Interval{XL: 0, XR: 2, XS: 0.0005},
		},
	},
}

// GetPreset returns a copy of the named preset with default options, or nil.
func GetPreset(problem, preset string) *Config {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	cfg, ok := problemPresets[preset]
	if !ok {
		return nil
	}
	out := cfg.Clone()
	out.Options = DefaultOptions()
	return out
}

func ListPresets(problem string) []string {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	return sortedKeys(problemPresets)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
