package catalog

import (
	"encoding/json"
	"strings"
)

// richTextBlock mirrors the block shape produced by the CMS rich-text editor:
// a list of blocks, each with children carrying plain text fragments.
type richTextBlock struct {
	Children []struct {
		Text string `json:"text"`
	} `json:"children"`
}

// PlainDescription flattens a rich-text description into plain text, capped
// at limit runes. Stripe rejects descriptions past its own limit, so callers
// pass the provider cap (500 is what product sync uses).
//
// A raw JSON string is returned as-is (minus the cap). Anything unparseable
// yields "".
func PlainDescription(raw json.RawMessage, limit int) string {
	if len(raw) == 0 {
		return ""
	}

	var text string

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		text = asString
	} else {
		var blocks []richTextBlock
		if err := json.Unmarshal(raw, &blocks); err != nil {
			return ""
		}
		var lines []string
		for _, block := range blocks {
			var sb strings.Builder
			for _, child := range block.Children {
				sb.WriteString(child.Text)
			}
			lines = append(lines, sb.String())
		}
		text = strings.Join(lines, "\n")
	}

	text = strings.TrimSpace(text)
	if limit > 0 {
		runes := []rune(text)
		if len(runes) > limit {
			text = string(runes[:limit])
		}
	}
	return text
}
