package utils

import "testing"

func TestIsUUID(t *testing.T) {
	tests := map[string]bool{
		"6f1c1c2e-8d0a-4f43-9a77-5b2d7f2c9e10":          true,
		"6F1C1C2E-8D0A-4F43-9A77-5B2D7F2C9E10":          true,
		"6f1c1c2e8d0a4f439a775b2d7f2c9e10":              false,
		"urn:uuid:6f1c1c2e-8d0a-4f43-9a77-5b2d7f2c9e10": false,
		"not-a-uuid": false,
		"":           false,
	}

	for in, want := range tests {
		if got := IsUUID(in); got != want {
			t.Fatalf("IsUUID(%q) = %v, want %v", in, got, want)
		}
	}
}
