package compliance

import "testing"

func TestRegistrationGate(t *testing.T) {
	var gate RegistrationGate
	tests := []struct {
		name    string
		ready   bool
		from    string
		to      string
		allowed bool
	}{
		{"us domestic ready", true, "+15551234567", "+15557654321", true},
		{"us domestic not ready", false, "+15551234567", "+15557654321", false},
		{"international route bypasses gate", false, "+447700900123", "+15557654321", true},
		{"malformed from bypasses gate", false, "15551234567", "+15557654321", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := gate.Check(tt.ready, tt.from, tt.to)
			if dec.Allowed != tt.allowed {
				t.Fatalf("Check(%v, %s, %s).Allowed = %v, want %v",
					tt.ready, tt.from, tt.to, dec.Allowed, tt.allowed)
			}
			if !dec.Allowed && dec.Note == "" {
				t.Fatal("suppression must carry a log note")
			}
		})
	}
}
