package tableau

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps method names to tableau constructors. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]func() *Tableau
	aliases map[string]string
}

// NewRegistry returns a registry holding every built-in method.
func NewRegistry() *Registry {
	r := &Registry{
		methods: make(map[string]func() *Tableau),
		aliases: make(map[string]string),
	}

	r.Register("forward-euler", ForwardEuler, "euler", "explicit-euler")
	r.Register("backward-euler", BackwardEuler, "implicit-euler")
	r.Register("midpoint", Midpoint, "explicit-midpoint")
	r.Register("implicit-midpoint", ImplicitMidpoint)
	r.Register("heun", Heun, "ralston")
	r.Register("heun-euler", HeunEuler, "heun21")
	r.Register("rk4", ClassicalRK4, "classical-rk4")
	r.Register("bogacki-shampine", BogackiShampine, "bs32", "ode23")
	r.Register("fehlberg", Fehlberg, "rkf45")
	r.Register("dormand-prince", DormandPrince, "dopri5", "rk45", "ode45")
	r.Register("trapezoidal", Trapezoidal, "crank-nicolson")
	r.Register("gauss-legendre4", GaussLegendre4, "gl4")

	return r
}

// Register adds or replaces a method. Names are case-insensitive.
func (r *Registry) Register(name string, fn func() *Tableau, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	r.methods[key] = fn
	delete(r.aliases, key)
	for _, a := range aliases {
		r.aliases[strings.ToLower(a)] = key
	}
}

// Lookup resolves a method name or alias.
func (r *Registry) Lookup(name string) (*Tableau, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := r.aliases[key]; ok {
		key = canonical
	}
	fn, ok := r.methods[key]
	if !ok {
		return nil, fmt.Errorf("unknown method: %s", name)
	}
	return fn(), nil
}

// Names lists canonical method names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Aliases returns the alternative names registered for a canonical name.
func (r *Registry) Aliases(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToLower(name)
	var out []string
	for alias, canonical := range r.aliases {
		if canonical == key {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

var defaultRegistry = NewRegistry()

// Lookup resolves name against the built-in methods.
func Lookup(name string) (*Tableau, error) {
	return defaultRegistry.Lookup(name)
}

// Names lists the built-in methods.
func Names() []string {
	return defaultRegistry.Names()
}
