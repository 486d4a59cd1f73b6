package catalog_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/KylianTITREN/e-kom-backend/internal/catalog"
)

func TestPlainDescription_String(t *testing.T) {
	raw := json.RawMessage(`"Un mug en céramique artisanale."`)
	got := catalog.PlainDescription(raw, 500)
	if got != "Un mug en céramique artisanale." {
		t.Errorf("got %q", got)
	}
}

func TestPlainDescription_Blocks(t *testing.T) {
	raw := json.RawMessage(`[
		{"type":"paragraph","children":[{"text":"Première ligne"},{"text":" suite."}]},
		{"type":"paragraph","children":[{"text":"Deuxième ligne."}]}
	]`)
	got := catalog.PlainDescription(raw, 500)
	want := "Première ligne suite.\nDeuxième ligne."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPlainDescription_CapsAtRuneLimit(t *testing.T) {
	// Multi-byte runes: the cap counts runes, not bytes.
	raw, _ := json.Marshal(strings.Repeat("é", 600))
	got := catalog.PlainDescription(raw, 500)
	if n := len([]rune(got)); n != 500 {
		t.Errorf("got %d runes, want 500", n)
	}
}

func TestPlainDescription_Garbage(t *testing.T) {
	for _, raw := range []json.RawMessage{
		nil,
		json.RawMessage(``),
		json.RawMessage(`{"not":"blocks"}`),
		json.RawMessage(`42`),
	} {
		if got := catalog.PlainDescription(raw, 500); got != "" {
			t.Errorf("raw=%s: got %q, want empty", raw, got)
		}
	}
}

func TestPlainDescription_TrimsWhitespace(t *testing.T) {
	raw := json.RawMessage(`"  bords à couper  "`)
	if got := catalog.PlainDescription(raw, 500); got != "bords à couper" {
		t.Errorf("got %q", got)
	}
}
