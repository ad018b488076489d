package errors

import (
	"testing"
)

func TestValidateDiagramName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "research", false},
		{"valid with spaces", "Market Research", false},
		{"valid filename", "Market_Research.json", false},
		{"valid unicode", "équipe de rédaction", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", string(make([]byte, 300)), true},
		{"path traversal", "..", true},
		{"embedded traversal", "a..b", true},
		{"slash", "foo/bar", true},
		{"backslash", "foo\\bar", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"hidden", ".secret.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDiagramName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDiagramName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidName) {
				t.Errorf("ValidateDiagramName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidName)
			}
		})
	}
}

func TestValidateNodeKey(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"output", false},
		{"1735033913363", false},
		{"", true},
		{"a\tb", true},
	}
	for _, tt := range tests {
		err := ValidateNodeKey(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateNodeKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
