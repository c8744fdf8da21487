package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"one per CPU", 1.0, 0, availableCPU},
		{"two per CPU", 2.0, 0, availableCPU * 2},
		{"capped by limit", 2.0, 1, 1},
		{"never below one", 0.0001, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCountWithEnvOverride(t *testing.T) {
	fallback := runtime.GOMAXPROCS(0)

	tests := []struct {
		name     string
		envValue string
		limit    int
		want     int
	}{
		{"valid override", "8", 0, 8},
		{"override capped by limit", "20", 10, 10},
		{"override below limit", "5", 10, 5},
		{"non-numeric falls back", "invalid", 0, fallback},
		{"zero falls back", "0", 0, fallback},
		{"negative falls back", "-5", 0, fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.envValue)
			if got := Count(1.0, tt.limit); got != tt.want {
				t.Errorf("Count(1.0, %d) with %s=%s = %d, want %d", tt.limit, EnvOverride, tt.envValue, got, tt.want)
			}
		})
	}
}

func TestForWalkTwoPerCPU(t *testing.T) {
	t.Setenv(EnvOverride, "")

	if got, want := ForWalk(0), 2*runtime.GOMAXPROCS(0); got != want {
		t.Errorf("ForWalk(0) = %d, want %d", got, want)
	}
	if got := ForWalk(1); got != 1 {
		t.Errorf("ForWalk(1) = %d, want 1", got)
	}
}

func BenchmarkCount(b *testing.B) {
	for b.Loop() {
		Count(2.0, 16)
	}
}
