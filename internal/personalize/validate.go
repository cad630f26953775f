package personalize

import (
	"fmt"
	"strings"
)

// TemplateWhitelist is the fixed set of variable names allowed in message
// content. Matching is case-insensitive and whitespace-tolerant inside {{ }}.
var TemplateWhitelist = []string{
	"voterName",
	"firstName",
	"lastName",
	"constituency",
	"assemblySegment",
	"boothNumber",
	"age",
	"gender",
	"occupation",
	"customField",
}

var whitelistSet = func() map[string]string {
	m := make(map[string]string, len(TemplateWhitelist))
	for _, name := range TemplateWhitelist {
		m[strings.ToLower(name)] = name
	}
	return m
}()

// Validation is the authoring-time verdict on a template.
type Validation struct {
	IsValid   bool     `json:"isValid"`
	Variables []string `json:"variables"`
	Errors    []string `json:"errors"`
}

// ValidateTemplate flags placeholder names outside the whitelist. It runs at
// message-authoring time only; rendering never re-validates.
func ValidateTemplate(content string) Validation {
	result := Validation{IsValid: true}
	seen := map[string]bool{}

	for _, match := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		raw := match[1]
		key := strings.ToLower(raw)
		canonical, ok := whitelistSet[key]

		display := raw
		if ok {
			display = canonical
		}
		if !seen[key] {
			seen[key] = true
			result.Variables = append(result.Variables, display)
			if !ok {
				result.Errors = append(result.Errors, fmt.Sprintf("unknown template variable: %s", raw))
			}
		}
		if !ok {
			result.IsValid = false
		}
	}

	return result
}
