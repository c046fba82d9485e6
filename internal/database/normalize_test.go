package database

import "testing"

func TestNormalizeDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jiří", "jiri"},
		{"Jana Nováková", "jana novakova"},
		{"Anne-Marie", "anne marie"},
		{"  Petr  ", "petr"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeDisplayName(tt.input); got != tt.expected {
				t.Errorf("NormalizeDisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
