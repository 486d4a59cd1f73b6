package checkout_test

import (
	"testing"

	"github.com/KylianTITREN/e-kom-backend/internal/checkout"
)

func TestCustomizationMetadataRoundTrip(t *testing.T) {
	metas := []checkout.CustomizationMeta{
		{TargetName: "Mug", Text: `Joyeux anniversaire "Léa" !`, LogoURL: "https://cdn.example.com/uploads/logo.png"},
		{TargetName: "Bracelet", Text: "M&M"},
		{TargetName: "Plaque", LogoURL: "https://cdn.example.com/uploads/blason.svg"},
	}

	dst := map[string]string{"source": "e-kom-front"}
	checkout.EncodeCustomizations(dst, metas)

	if dst["customization_count"] != "3" {
		t.Errorf("customization_count = %q, want 3", dst["customization_count"])
	}
	// Text must survive verbatim — quotes included.
	if dst["customization_1_text"] != `Joyeux anniversaire "Léa" !` {
		t.Errorf("customization_1_text = %q", dst["customization_1_text"])
	}
	if _, ok := dst["customization_2_logo"]; ok {
		t.Error("empty logo must not be written")
	}

	got := checkout.DecodeCustomizations(dst)
	if len(got) != 3 {
		t.Fatalf("decoded %d entries, want 3", len(got))
	}
	for i := range metas {
		if got[i] != metas[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, got[i], metas[i])
		}
	}
}

func TestDecodeCustomizations_AbsentOrMalformed(t *testing.T) {
	cases := map[string]map[string]string{
		"nil":        nil,
		"no count":   {"customization_1_target": "Mug"},
		"zero count": {"customization_count": "0"},
		"bad count":  {"customization_count": "beaucoup"},
	}
	for name, meta := range cases {
		if got := checkout.DecodeCustomizations(meta); got != nil {
			t.Errorf("%s: got %v, want nil", name, got)
		}
	}
}

func TestDecodeCustomizations_SkipsEmptySlots(t *testing.T) {
	meta := map[string]string{
		"customization_count":    "3",
		"customization_1_target": "Mug",
		"customization_1_text":   "A",
		// slot 2 missing entirely
		"customization_3_target": "Plaque",
	}
	got := checkout.DecodeCustomizations(meta)
	if len(got) != 2 {
		t.Fatalf("decoded %d entries, want 2", len(got))
	}
	if got[0].TargetName != "Mug" || got[1].TargetName != "Plaque" {
		t.Errorf("got %+v", got)
	}
}

func TestLookupByTarget_LaterDuplicateWins(t *testing.T) {
	byTarget := checkout.LookupByTarget([]checkout.CustomizationMeta{
		{TargetName: "Mug", Text: "premier"},
		{TargetName: "Mug", Text: "second"},
	})
	if byTarget["Mug"].Text != "second" {
		t.Errorf("got %q, want second", byTarget["Mug"].Text)
	}
	if checkout.LookupByTarget(nil) != nil {
		t.Error("empty input must yield nil map")
	}
}
