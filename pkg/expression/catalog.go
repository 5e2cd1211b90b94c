package expression

import "strings"

// builtins are the function names the engine understands, keyed by lowercase name.
var builtins = func() map[string]string {
	names := []string{
		// distributions
		"Arithmetic", "Normal", "TNormal", "LogNormal", "Uniform", "Beta", "Gamma",
		"Exponential", "Binomial", "Poisson", "Geometric", "NegativeBinomial",
		"Triangular", "Weibull", "Student", "ChiSquared", "Logistic",
		"Hypergeometric", "Mixture", "Comparative", "Partitioned",
		// ranked weighted functions
		"WMean", "WMin", "WMax", "MixMinMax", "WeightedMean",
		// arithmetic
		"min", "max", "abs", "exp", "log", "log10", "sqrt", "pow", "floor",
		"ceil", "round", "sin", "cos", "tan", "if",
	}
	m := make(map[string]string, len(names))
	for _, n := range names {
		m[strings.ToLower(n)] = n
	}
	return m
}()

// constants are bare words that are always allowed.
var constants = map[string]struct{}{
	"true":     {},
	"false":    {},
	"infinity": {},
	"pi":       {},
	"e":        {},
}

// IsBuiltin reports whether name is a known function.
func IsBuiltin(name string) bool {
	_, ok := builtins[strings.ToLower(name)]
	return ok
}

// Builtins returns the canonical names of every known function.
func Builtins() []string {
	out := make([]string, 0, len(builtins))
	for _, n := range builtins {
		out = append(out, n)
	}
	return out
}

func isConstant(word string) bool {
	_, ok := constants[strings.ToLower(word)]
	return ok
}
