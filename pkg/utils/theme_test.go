package utils

import (
	"reflect"
	"testing"
)

func TestNormalizeTheme(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Red Ledges Real Esate", "Red Ledges Real Estate"},
		{"  Victory   Ranch Real Esate ", "Victory Ranch Real Estate"},
		{"Promontory Park City ", "Promontory Park City"},
		{"Park City Real Estate", "Park City Real Estate"},
		{"park city real esate", "Park City Real Estate"},
		{"Bozeman Montana Real Esate", "Bozeman Montana Real Estate"},
		{"Glenwild", "Glenwild"},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeTheme(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeTheme(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestShortThemeName(t *testing.T) {
	tests := map[string]string{
		"Park City Real Estate": "Park City",
		"Red Ledges Real Esate": "Red Ledges",
		"Glenwild":              "Glenwild",
		"Real Estate":           "Real Estate",
	}
	for in, want := range tests {
		if got := ShortThemeName(in); got != want {
			t.Errorf("ShortThemeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestThemeTerms(t *testing.T) {
	got := ThemeTerms("Ski in Ski Out Home for Sale")
	want := []string{"ski", "ski", "out"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ThemeTerms = %v, want %v", got, want)
	}
	if got := ThemeTerms("Heber Utah Real Estate"); !reflect.DeepEqual(got, []string{"heber", "utah"}) {
		t.Errorf("ThemeTerms(Heber) = %v", got)
	}
}
