//go:build !integration

package usecase

import (
	"strings"
	"testing"
)

func TestGenerateShortCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := generateShortCode(8)
		if err != nil {
			t.Fatalf("generateShortCode: %v", err)
		}
		if len(code) != 8 {
			t.Fatalf("len(%q) = %d, want 8", code, len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		seen[code] = true
	}
	// 32^8 possibilities; a repeat in 200 draws means the source is broken.
	if len(seen) != 200 {
		t.Fatalf("only %d distinct codes in 200 draws", len(seen))
	}

	if code, _ := generateShortCode(0); len(code) != defaultCodeLength {
		t.Fatalf("default length = %d", len(code))
	}
}

func TestCodeAlphabetExcludesAmbiguousCharacters(t *testing.T) {
	if len(codeAlphabet) != 32 {
		t.Fatalf("alphabet size = %d, want 32", len(codeAlphabet))
	}
	if strings.ContainsAny(codeAlphabet, "01OIL") {
		t.Fatalf("alphabet contains ambiguous characters: %s", codeAlphabet)
	}
}
