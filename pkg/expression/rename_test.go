package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRename(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		from    string
		to      string
		want    string
		changed bool
	}{
		{"single reference", "Normal(A, 1)", "A", "Alpha", "Normal(Alpha, 1)", true},
		{"every occurrence", "Arithmetic(A*A + B)", "A", "Speed", "Arithmetic(Speed*Speed + B)", true},
		{"case-insensitive", "Arithmetic(speed / 2)", "Speed", "Velocity", "Arithmetic(Velocity / 2)", true},
		{"calls are not references", "Normal(Normal, 1)", "Normal", "Mu", "Normal(Mu, 1)", true},
		{"strings untouched", `if(B == "A", A, 0)`, "A", "X", `if(B == "A", X, 0)`, true},
		{"prefix is not a match", "Arithmetic(AB + 1)", "A", "X", "Arithmetic(AB + 1)", false},
		{"variable name", "Arithmetic(Supply_Demand_Mean)", "Supply_Demand_Mean", "Supply_Orders_Mean", "Arithmetic(Supply_Orders_Mean)", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed, err := Rename(tt.src, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestRename_ResultPassesCheck(t *testing.T) {
	got, _, err := Rename("TNormal(A, B, 0, A * 10)", "A", "Rain")
	require.NoError(t, err)
	_, err = Check(got, []string{"Rain", "B"})
	assert.NoError(t, err)
}

func TestRename_SyntaxError(t *testing.T) {
	_, changed, err := Rename("A = 1", "A", "B")
	assert.ErrorIs(t, err, ErrSyntax)
	assert.False(t, changed)
}
