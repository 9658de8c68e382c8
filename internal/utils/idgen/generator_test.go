package idgen

import (
	"strings"
	"testing"
)

func TestGenerateSecureID(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		length     int
		wantErr    bool
		wantPrefix string
	}{
		{name: "conversation ID", prefix: "conv", length: 16, wantPrefix: "conv_"},
		{name: "message ID", prefix: "msg", length: 16, wantPrefix: "msg_"},
		{name: "short ID", prefix: "test", length: 8, wantPrefix: "test_"},
		{name: "zero length", prefix: "test", length: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateSecureID(tt.prefix, tt.length)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GenerateSecureID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("GenerateSecureID() = %v, want prefix %v", got, tt.wantPrefix)
			}
			if len(got) != len(tt.wantPrefix)+tt.length {
				t.Errorf("GenerateSecureID() length = %d, want %d", len(got), len(tt.wantPrefix)+tt.length)
			}
		})
	}
}

func TestGenerateSecureID_Uniqueness(t *testing.T) {
	const iterations = 10000
	seen := make(map[string]bool, iterations)

	for i := 0; i < iterations; i++ {
		id, err := GenerateSecureID("test", 16)
		if err != nil {
			t.Fatalf("GenerateSecureID() error = %v", err)
		}
		if seen[id] {
			t.Errorf("GenerateSecureID() generated duplicate ID: %v", id)
		}
		seen[id] = true
	}
}

func TestValidateIDFormat(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		expectedPrefix string
		want           bool
	}{
		{"valid conversation ID", "conv_a3f8d2k9p1m4n7q2", "conv", true},
		{"valid message ID", "msg_x7y2z5w8r3t6u9v1", "msg", true},
		{"wrong prefix", "conv_a3f8d2k9p1m4n7q2", "msg", false},
		{"missing underscore", "conva3f8d2k9p1m4n7q2", "conv", false},
		{"empty suffix", "conv_", "conv", false},
		{"uppercase", "conv_A3F8D2K9P1M4N7Q2", "conv", false},
		{"special chars", "conv_a3f8-d2k9-p1m4", "conv", false},
		{"underscore in suffix", "conv_a3f8_d2k9", "conv", false},
		{"empty ID", "", "conv", false},
		{"sentinel session id", "42-INCOME-1739999999999", "conv", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateIDFormat(tt.id, tt.expectedPrefix); got != tt.want {
				t.Errorf("ValidateIDFormat(%q, %q) = %v, want %v", tt.id, tt.expectedPrefix, got, tt.want)
			}
		})
	}
}

func TestValidateIDFormat_GeneratedIDs(t *testing.T) {
	for _, prefix := range []string{"conv", "msg"} {
		for _, length := range []int{8, 16, 32} {
			id, err := GenerateSecureID(prefix, length)
			if err != nil {
				t.Fatalf("GenerateSecureID() error = %v", err)
			}
			if !ValidateIDFormat(id, prefix) {
				t.Errorf("generated ID %q failed validation with prefix %q", id, prefix)
			}
		}
	}
}
