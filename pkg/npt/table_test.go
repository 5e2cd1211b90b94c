package npt

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", Manual, false},
		{"manual", Manual, false},
		{"Expression", Expression, false},
		{"partitioned", Partitioned, false},
		{"PARTITIONED", Manual, true},
		{"lookup", Manual, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
	if Kind(7).String() != "Unknown" {
		t.Errorf("Kind(7).String() = %q", Kind(7).String())
	}
}

func TestCheckPartitions(t *testing.T) {
	if err := CheckPartitions([]int{2, 3}, make([]string, 6)); err != nil {
		t.Errorf("CheckPartitions(6 for 2x3) = %v", err)
	}
	err := CheckPartitions([]int{2, 3}, make([]string, 5))
	if !errors.Is(err, ErrPartitionCount) {
		t.Fatalf("CheckPartitions(5 for 2x3) = %v, want ErrPartitionCount", err)
	}
	if err.Error() != "5 expressions for 6 combinations: "+ErrPartitionCount.Error() {
		t.Errorf("message = %q", err.Error())
	}
	if err := CheckPartitions(nil, []string{"Normal(0, 1)"}); err != nil {
		t.Errorf("no partition parents must take exactly one expression: %v", err)
	}
}

func TestTableWire(t *testing.T) {
	manual := Table{Kind: Manual, Matrix: [][]float64{{0.2, 0.5}, {0.8, 0.5}}, Parents: []string{"Rain"}}
	wire, err := manual.Wire()
	if err != nil {
		t.Fatalf("Wire() error = %v", err)
	}
	if want := [][]float64{{0.2, 0.8}, {0.5, 0.5}}; !reflect.DeepEqual(wire, want) {
		t.Errorf("Wire() = %v, want %v", wire, want)
	}

	if _, err := (Table{Kind: Expression, Expression: "Normal(0, 1)"}).Wire(); err == nil {
		t.Error("Wire() on an expression table must fail")
	}
}
