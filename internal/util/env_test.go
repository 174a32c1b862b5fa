package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		expected     bool
	}{
		{"unset uses default true", "", true, true},
		{"unset uses default false", "", false, false},
		{"true", "true", false, true},
		{"one", "1", false, true},
		{"yes uppercase", "YES", false, true},
		{"on with spaces", " on ", false, true},
		{"false", "false", true, false},
		{"zero", "0", true, false},
		{"off", "off", true, false},
		{"invalid uses default", "maybe", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "UTIL_TEST_BOOL"
			t.Setenv(key, tt.value)
			if got := ParseBoolEnv(key, tt.defaultValue); got != tt.expected {
				t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.expected)
			}
		})
	}
}
