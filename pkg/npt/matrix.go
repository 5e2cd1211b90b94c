package npt

import "fmt"

// Combinations returns the number of joint parent state combinations.
func Combinations(parentStates []int) int {
	n := 1
	for _, c := range parentStates {
		n *= c
	}
	return n
}

// ExpectedCells is ownStates × Π parentStates.
func ExpectedCells(ownStates int, parentStates []int) int {
	return ownStates * Combinations(parentStates)
}

// columns returns the common row length, or ErrNotSquare. Rows without cells
// are rejected because their transpose would lose the row count.
func columns(m [][]float64) (int, error) {
	if len(m) == 0 {
		return 0, nil
	}
	width := len(m[0])
	if width == 0 {
		return 0, fmt.Errorf("%d rows without cells: %w", len(m), ErrNotSquare)
	}
	for i, row := range m {
		if len(row) != width {
			return 0, fmt.Errorf("row %d has %d cells, row 0 has %d: %w", i, len(row), width, ErrNotSquare)
		}
	}
	return width, nil
}

// Transpose flips rows and columns of a rectangular matrix.
func Transpose(m [][]float64) ([][]float64, error) {
	width, err := columns(m)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, width)
	for c := 0; c < width; c++ {
		out[c] = make([]float64, len(m))
		for r := range m {
			out[c][r] = m[r][c]
		}
	}
	return out, nil
}

// ToMemory checks a wire matrix against the node shape and returns the memory
// orientation.
func ToMemory(wire [][]float64, ownStates int, parentStates []int) ([][]float64, error) {
	width, err := columns(wire)
	if err != nil {
		return nil, err
	}
	expected := ExpectedCells(ownStates, parentStates)
	if got := len(wire) * width; got != expected || width != ownStates {
		return nil, fmt.Errorf("%d×%d matrix, expected %d rows of %d (%d cells): %w",
			len(wire), width, Combinations(parentStates), ownStates, expected, ErrWrongCellCount)
	}
	for r, row := range wire {
		for c, p := range row {
			if p < 0 {
				return nil, fmt.Errorf("cell [%d][%d] = %g: %w", r, c, p, ErrNegativeProbability)
			}
		}
	}
	return Transpose(wire)
}

// ToWire converts a memory matrix to wire orientation.
func ToWire(memory [][]float64) ([][]float64, error) {
	return Transpose(memory)
}

// Uniform returns a memory-orientation table with every column uniform.
func Uniform(ownStates int, parentStates []int) [][]float64 {
	cols := Combinations(parentStates)
	m := make([][]float64, ownStates)
	for r := range m {
		m[r] = make([]float64, cols)
		for c := range m[r] {
			m[r][c] = 1 / float64(ownStates)
		}
	}
	return m
}
