package quota

import "testing"

func TestCalcDelta(t *testing.T) {
	tests := []struct {
		current, previous, want int
	}{
		{5, 3, 2},
		{3, 5, -2},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := CalcDelta(tt.current, tt.previous); got != tt.want {
			t.Errorf("CalcDelta(%d, %d) = %d, want %d", tt.current, tt.previous, got, tt.want)
		}
	}
}

func TestCalcTrend(t *testing.T) {
	tests := []struct {
		name              string
		current, previous int
		want              float64
	}{
		{"both zero is flat", 0, 0, 0},
		{"zero baseline is full swing", 5, 0, 100},
		{"halved", 50, 100, -50},
		{"doubled", 100, 50, 100},
		{"unchanged", 7, 7, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalcTrend(tt.current, tt.previous); got != tt.want {
				t.Errorf("CalcTrend(%d, %d) = %v, want %v", tt.current, tt.previous, got, tt.want)
			}
		})
	}
}
