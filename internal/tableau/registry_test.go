package tableau

import (
	"strings"
	"testing"
)

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		want string
	}{
		{"rk4", "rk4"},
		{"RK4", "rk4"},
		{"euler", "forward-euler"},
		{"dopri5", "dormand-prince"},
		{"rk45", "dormand-prince"},
		{"bs32", "bogacki-shampine"},
		{"rkf45", "fehlberg"},
		{"gl4", "gauss-legendre4"},
		{" crank-nicolson ", "trapezoidal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab, err := r.Lookup(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if tab.Name() != tt.want {
				t.Errorf("Lookup(%q) = %s, want %s", tt.name, tab.Name(), tt.want)
			}
		})
	}
}

func TestRegistryUnknown(t *testing.T) {
	_, err := NewRegistry().Lookup("rk99")
	if err == nil || !strings.Contains(err.Error(), "unknown method: rk99") {
		t.Errorf("Lookup(rk99) error = %v", err)
	}
}

func TestRegistryNames(t *testing.T) {
	names := Names()
	if len(names) != 12 {
		t.Fatalf("got %d methods: %v", len(names), names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
	for _, name := range names {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
		}
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	r.Register("My-Euler", ForwardEuler, "me")

	tab, err := r.Lookup("me")
	if err != nil {
		t.Fatal(err)
	}
	if tab.Name() != "forward-euler" {
		t.Errorf("got %s", tab.Name())
	}
	if got := r.Aliases("my-euler"); len(got) != 1 || got[0] != "me" {
		t.Errorf("Aliases() = %v", got)
	}
}
