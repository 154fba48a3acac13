package errors

import (
	"testing"
)

func TestValidateEngine(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"dot", "dot", false},
		{"neato", "neato", false},
		{"custom", "my-engine_2", false},

		{"empty", "", true},
		{"slash", "bin/dot", true},
		{"backslash", `bin\dot`, true},
		{"traversal", "..", true},
		{"space", "dot -Tpng", true},
		{"control char", "dot\x01", true},
		{"null byte", "dot\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEngine(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEngine(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidEngine) {
				t.Errorf("ValidateEngine(%q) code = %v", tt.input, GetCode(err))
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"svg", "svg", false},
		{"renderer selector", "png:cairo:gd", false},
		{"dotted", "plain-ext", false},

		{"empty", "", true},
		{"space", "svg png", true},
		{"slash", "svg/x", true},
		{"semicolon", "svg;rm", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "out/graph.svg", false},
		{"absolute", "/tmp/graph.png", false},
		{"spaces", "my graph.pdf", false},

		{"empty", "", true},
		{"null byte", "out\x00.svg", true},
		{"newline", "out\n.svg", true},
		{"too long", string(make([]byte, 5000)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
