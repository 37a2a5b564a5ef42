package service

import "testing"

func TestGenerateSlug(t *testing.T) {
	cases := map[string]string{
		"Face Care":              "face-care",
		"  Serums & Oils!! ":     "serums-oils",
		"Vitamin-C  10% Booster": "vitamin-c-10-booster",
		"---":                    "",
		"Crème Brûlée":           "cr-me-br-l-e",
		"already-a-slug":         "already-a-slug",
		"UPPER_and_lower 2024":   "upper-and-lower-2024",
	}
	for input, want := range cases {
		if got := GenerateSlug(input); got != want {
			t.Fatalf("GenerateSlug(%q) want %q got %q", input, want, got)
		}
	}
}
