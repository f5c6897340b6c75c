package models

import "testing"

func TestHazardValue(t *testing.T) {
	tests := []struct {
		name     string
		hazardID int16
		want     float64
		wantOK   bool
	}{
		{"hazard 1", 1, 1.0, true},
		{"hazard 5", 5, 5.0, true},
		{"deep dive stage 1", 100, 3.0, true},
		{"deep dive stage 2", 101, 3.5, true},
		{"deep dive stage 3", 102, 3.5, true},
		{"elite deep dive stage 1", 103, 4.5, true},
		{"elite deep dive stage 2", 104, 5.0, true},
		{"elite deep dive stage 3", 105, 5.5, true},
		{"unknown", 42, 0, false},
		{"zero", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HazardValue(tt.hazardID)
			if ok != tt.wantOK {
				t.Fatalf("HazardValue(%d) ok = %v, want %v", tt.hazardID, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("HazardValue(%d) = %v, want %v", tt.hazardID, got, tt.want)
			}
		})
	}
}
