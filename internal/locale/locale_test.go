package locale

import (
	"testing"

	"golang.org/x/text/language"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		in   string
		want language.Tag
	}{
		{in: "", want: language.English},
		{in: "en", want: language.English},
		{in: "ru", want: language.Russian},
		{in: "ru-RU", want: language.Russian},
		{in: "fr-CH, ru;q=0.9, en;q=0.8", want: language.Russian},
		{in: "zz", want: language.English},
	}

	for _, tt := range tests {
		if got := Match(tt.in); got != tt.want {
			t.Fatalf("Match(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTextFallbacks(t *testing.T) {
	if got := Text(language.English, LoginFailed); got != "Login failed" {
		t.Fatalf("expected english fallback, got %q", got)
	}
	if got := Text(language.Russian, LoginFailed); got != "Ошибка при входе" {
		t.Fatalf("expected russian fallback, got %q", got)
	}
	if got := Text(language.English, PasswordTooShort, 6); got != "Password must be at least 6 characters" {
		t.Fatalf("unexpected formatted message %q", got)
	}
}

func TestEveryKeyTranslated(t *testing.T) {
	base := entries[language.English]
	for tag, set := range entries {
		for key := range base {
			if _, ok := set[key]; !ok {
				t.Fatalf("locale %s missing key %s", tag, key)
			}
		}
	}
}
