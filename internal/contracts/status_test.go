package contracts

import "testing"

func TestWorstStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"empty defaults to ok", nil, StatusOK},
		{"all ok", []Status{StatusOK, StatusOK}, StatusOK},
		{"one degraded", []Status{StatusOK, StatusDegraded, StatusOK}, StatusDegraded},
		{"error beats degraded", []Status{StatusDegraded, StatusError, StatusOK}, StatusError},
		{"single error", []Status{StatusError}, StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WorstStatus(tt.statuses...); got != tt.want {
				t.Errorf("WorstStatus(%v) = %v, want %v", tt.statuses, got, tt.want)
			}
		})
	}
}

func TestInterpretMacro(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.8, "strong_risk_on"},
		{0.5, "strong_risk_on"},
		{0.3, "risk_on"},
		{0.15, "risk_on"},
		{0.0, "neutral"},
		{-0.1, "neutral"},
		{-0.3, "risk_off"},
		{-0.5, "strong_risk_off"},
		{-1.0, "strong_risk_off"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := InterpretMacro(tt.score); got != tt.want {
				t.Errorf("InterpretMacro(%v) = %q, want %q", tt.score, got, tt.want)
			}
		})
	}
}
