// Package personalize renders one authored message for one recipient. It is
// pure: same message, attributes and language always produce the same output,
// and rendering never fails on missing data.
package personalize

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"campaign-engine/internal/models"
)

// placeholderPattern matches {{ name }} with optional surrounding whitespace.
// Variable names are case-insensitive.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z][a-zA-Z0-9_]*)\s*\}\}`)

// Rendered is channel-ready content for a single recipient.
type Rendered struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	RichContent string `json:"richContent"`
}

// Personalize renders the message for a recipient. Content source selection:
// the approved variant for languageCode, else the message defaults (silent
// fallback, no error). Substitution is three-tier: recipient attributes,
// then the message's default variables, then the empty string.
func Personalize(msg *models.Message, attrs map[string]string, languageCode string) Rendered {
	title := msg.DefaultTitle
	content := msg.DefaultContent

	if v := msg.VariantFor(languageCode); v != nil {
		title = v.Title
		content = v.Content
	}

	lowered := lowerKeys(attrs)
	defaults := lowerKeys(msg.DefaultVars)

	title = substitute(title, lowered, defaults)
	content = substitute(content, lowered, defaults)

	return Rendered{
		Title:       title,
		Content:     content,
		RichContent: richContent(title, content),
	}
}

// substitute resolves every placeholder in tmpl. Unresolved names become the
// empty string; by policy this is never an error.
func substitute(tmpl string, attrs, defaults map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := strings.ToLower(placeholderPattern.FindStringSubmatch(match)[1])
		if val, ok := attrs[name]; ok {
			return val
		}
		if val, ok := defaults[name]; ok {
			return val
		}
		return ""
	})
}

// richContent wraps the rendered title and content in a fixed, escaped markup
// shell for channels that display rich formatting. Deterministic derivation,
// no external state.
func richContent(title, content string) string {
	var b strings.Builder
	b.WriteString(`<div class="campaign-message">`)
	if title != "" {
		fmt.Fprintf(&b, "<h3>%s</h3>", html.EscapeString(title))
	}
	for _, para := range strings.Split(content, "\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(para))
	}
	b.WriteString(`</div>`)
	return b.String()
}

func lowerKeys(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}
