package core

import (
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"positive integer", "1000", 1000, true},
		{"zero", "0", 0, true},
		{"empty is zero", "", 0, true},
		{"whitespace is zero", "   ", 0, true},
		{"decimal", "1234.5", 1234.5, true},
		{"leading decimal point", ".99", 0.99, true},
		{"negative", "-456", -456, true},
		{"explicit plus", "+250", 250, true},
		{"surrounding whitespace", "  999.99\t", 999.99, true},
		{"trailing decimal point", "12.", 12, true},
		{"scientific notation", "1.5e3", 1500, true},
		{"thousands separators", "1,234,567.89", 0, false},
		{"dollar sign", "$1,234.56", 0, false},
		{"shilling prefix", "KShs 50,000", 0, false},
		{"trailing slash dash", "50000/-", 0, false},
		{"accounting negative", "(123.45)", 0, false},
		{"excel formula prefix", `="1500"`, 0, false},
		{"overflow", "1e400", 0, false},
		{"text", "abc", 0, false},
		{"two decimal points", "1.2.3", 0, false},
		{"mixed text", "12abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseAmount(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				if !math.IsNaN(got) {
					t.Errorf("ParseAmount(%q) = %v, want NaN", tt.input, got)
				}
				return
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1000", "1,000.00"},
		{"200", "200.00"},
		{"0", "0.00"},
		{"", "0.00"},
		{"999.999", "1,000.00"},
		{"1234567.891", "1,234,567.89"},
		{"12345", "12,345.00"},
		{"123456", "123,456.00"},
		{"-1500.5", "-1,500.50"},
		{"-0.001", "0.00"},
		{"not a number", "NaN"},
		{"KShs 1,000", "NaN"},
		{"1,000", "NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FormatAmount(tt.input); got != tt.want {
				t.Errorf("FormatAmount(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  plain  ", "plain"},
		{`="00123"`, "00123"},
		{"=SUM", "SUM"},
		{`"quoted"`, "quoted"},
		{"'single'", "single"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
