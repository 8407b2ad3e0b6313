// Package tableau describes Runge-Kutta methods as Butcher tableaus.
//
// A [Tableau] holds the nodes c, the coupling matrix a, the weights b and,
// for embedded pairs, a second weight row b*. It is validated once at
// construction and never changes afterwards, so a single value may be shared
// by any number of concurrent integrations.
//
// Named methods are available as constructors ([ClassicalRK4],
// [DormandPrince], ...) and through a [Registry] keyed by name. Custom
// methods are built from raw coefficients with [New] or from arithmetic
// expressions such as "1/2 - sqrt(3)/6" with [ParseSpec].
package tableau
