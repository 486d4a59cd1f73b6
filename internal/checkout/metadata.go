package checkout

import (
	"fmt"
	"strconv"
)

// Customization details ride to Stripe and back inside session-level string
// metadata. Line-item product metadata is not reliably preserved on the
// line items of a completed-session event, so the session carries a parallel
// flat encoding that the webhook processor decodes. This codec is the single
// schema for both directions — the encoder and decoder must never drift.
//
// Keys, 1-indexed:
//
//	customization_count
//	customization_<n>_target  — product name the engraving applies to
//	customization_<n>_text    — free text, verbatim
//	customization_<n>_logo    — logo URL, verbatim
const (
	metaCountKey  = "customization_count"
	metaKeyFormat = "customization_%d_%s"
)

// CustomizationMeta is one decoded sideband entry.
type CustomizationMeta struct {
	TargetName string
	Text       string
	LogoURL    string
}

// EncodeCustomizations writes the sideband entries into dst in order.
func EncodeCustomizations(dst map[string]string, metas []CustomizationMeta) {
	dst[metaCountKey] = strconv.Itoa(len(metas))
	for i, m := range metas {
		n := i + 1
		dst[fmt.Sprintf(metaKeyFormat, n, "target")] = m.TargetName
		if m.Text != "" {
			dst[fmt.Sprintf(metaKeyFormat, n, "text")] = m.Text
		}
		if m.LogoURL != "" {
			dst[fmt.Sprintf(metaKeyFormat, n, "logo")] = m.LogoURL
		}
	}
}

// DecodeCustomizations reads the sideband entries back out of session
// metadata, in encoding order. Absent or malformed metadata yields nil —
// a session without customizations is the common case.
func DecodeCustomizations(meta map[string]string) []CustomizationMeta {
	count, err := strconv.Atoi(meta[metaCountKey])
	if err != nil || count <= 0 {
		return nil
	}

	metas := make([]CustomizationMeta, 0, count)
	for n := 1; n <= count; n++ {
		m := CustomizationMeta{
			TargetName: meta[fmt.Sprintf(metaKeyFormat, n, "target")],
			Text:       meta[fmt.Sprintf(metaKeyFormat, n, "text")],
			LogoURL:    meta[fmt.Sprintf(metaKeyFormat, n, "logo")],
		}
		if m.TargetName == "" && m.Text == "" && m.LogoURL == "" {
			continue
		}
		metas = append(metas, m)
	}
	return metas
}

// LookupByTarget indexes decoded entries by the product name they apply to.
// Later duplicates win, matching encoding order.
func LookupByTarget(metas []CustomizationMeta) map[string]CustomizationMeta {
	if len(metas) == 0 {
		return nil
	}
	byTarget := make(map[string]CustomizationMeta, len(metas))
	for _, m := range metas {
		byTarget[m.TargetName] = m
	}
	return byTarget
}
