package npt

import "fmt"

// EnumerateCombinations lists every joint state combination of the given parents,
// first parent most significant, each parent's states in ordinal order.
func EnumerateCombinations(parentLabels [][]string) [][]string {
	combos := [][]string{{}}
	for _, labels := range parentLabels {
		next := make([][]string, 0, len(combos)*len(labels))
		for _, prefix := range combos {
			for _, l := range labels {
				combo := append(append([]string(nil), prefix...), l)
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}

// CheckPartitions verifies that one expression is supplied per combination.
func CheckPartitions(parentStates []int, expressions []string) error {
	want := Combinations(parentStates)
	if len(expressions) != want {
		return fmt.Errorf("%d expressions for %d combinations: %w", len(expressions), want, ErrPartitionCount)
	}
	return nil
}
