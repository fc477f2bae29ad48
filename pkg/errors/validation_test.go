package errors

import (
	"math"
	"testing"
)

func TestValidateNumbers(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string, float64) error
		value   float64
		wantErr bool
	}{
		{"finite ok", ValidateFinite, -3, false},
		{"finite nan", ValidateFinite, math.NaN(), true},
		{"finite inf", ValidateFinite, math.Inf(1), true},
		{"positive ok", ValidatePositive, 0.5, false},
		{"positive zero", ValidatePositive, 0, true},
		{"positive negative", ValidatePositive, -1, true},
		{"positive inf", ValidatePositive, math.Inf(1), true},
		{"non-negative zero", ValidateNonNegative, 0, false},
		{"non-negative negative", ValidateNonNegative, -1e-12, true},
		{"non-negative nan", ValidateNonNegative, math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn("x", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidConfig) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidConfig)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple file", "atlas.nrrd", false},
		{"nested", "regions/cortex/astrocytes.nrrd", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "../secret.nrrd", true},
		{"backslash", "dir\\file", true},
		{"null byte", "foo\x00bar", true},
		{"too long", string(make([]byte, 600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput, ErrCodeInvalidConfig, ErrCodeInvalidFormat, ErrCodeInvalidPath,
		ErrCodeExhausted, ErrCodeNumericalDomain, ErrCodeCapacity,
		ErrCodeNotFound, ErrCodeNetwork, ErrCodeInternal, ErrCodeUnsupported,
	}
	seen := make(map[Code]bool)
	for _, c := range codes {
		if seen[c] {
			t.Errorf("duplicate error code %q", c)
		}
		seen[c] = true
	}
}
