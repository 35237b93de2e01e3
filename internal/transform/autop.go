package transform

import (
	"regexp"
	"strings"
)

var (
	blankLines = regexp.MustCompile(`\n\s*\n`)
	blockStart = regexp.MustCompile(`(?i)^<(p|div|ul|ol|li|h[1-6]|blockquote|pre|table|thead|tbody|tr|figure|figcaption|hr|section|article|aside|header|footer|nav|main|form|fieldset|details|summary|dl|dt|dd|svg|math|address|menu|canvas|video|audio|style|script|meta|link|base)[\s/>]`)
)

// Autop wraps text blocks separated by blank lines in <p> elements and turns
// remaining single newlines into <br />. Blocks that already start with a
// block-level element are left alone.
func Autop(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	blocks := blankLines.Split(text, -1)
	out := make([]string, 0, len(blocks))
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if blockStart.MatchString(block) {
			out = append(out, block)
			continue
		}
		out = append(out, "<p>"+strings.ReplaceAll(block, "\n", "<br />\n")+"</p>")
	}
	return strings.Join(out, "\n")
}
