package personalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"campaign-engine/internal/models"
)

func testMessage() *models.Message {
	return &models.Message{
		ID:              "msg-001",
		DefaultTitle:    "Campaign Update",
		DefaultContent:  "Hi {{firstName}}, rally at booth {{boothNumber}}.",
		DefaultLanguage: "en",
		DefaultVars: map[string]string{
			"boothNumber": "TBD",
		},
		Variants: []models.Variant{
			{Language: "hi", Title: "Abhiyan", Content: "Namaste {{firstName}}", Approved: true},
			{Language: "te", Title: "Draft", Content: "Draft {{firstName}}", Approved: false},
		},
	}
}

func TestPersonalize_Substitution(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		attrs    map[string]string
		defaults map[string]string
		expected string
	}{
		{
			name:     "simple replacement",
			content:  "Hi {{firstName}}",
			attrs:    map[string]string{"firstname": "Rahul"},
			expected: "Hi Rahul",
		},
		{
			name:     "case-insensitive variable name",
			content:  "Hi {{FIRSTNAME}}",
			attrs:    map[string]string{"firstname": "Rahul"},
			expected: "Hi Rahul",
		},
		{
			name:     "whitespace inside braces ignored",
			content:  "Hi {{  firstName  }}",
			attrs:    map[string]string{"firstname": "Rahul"},
			expected: "Hi Rahul",
		},
		{
			name:     "default variable fallback",
			content:  "Booth {{boothNumber}}",
			attrs:    map[string]string{},
			defaults: map[string]string{"boothNumber": "12"},
			expected: "Booth 12",
		},
		{
			name:     "attribute wins over default",
			content:  "Booth {{boothNumber}}",
			attrs:    map[string]string{"boothnumber": "7"},
			defaults: map[string]string{"boothNumber": "12"},
			expected: "Booth 7",
		},
		{
			name:     "unresolved variable becomes empty string",
			content:  "Hi {{unknown}}",
			attrs:    map[string]string{},
			expected: "Hi ",
		},
		{
			name:     "multiple placeholders",
			content:  "{{firstName}} {{lastName}} of {{constituency}}",
			attrs:    map[string]string{"firstname": "Rahul", "lastname": "Sharma", "constituency": "North"},
			expected: "Rahul Sharma of North",
		},
		{
			name:     "no placeholders",
			content:  "Static message.",
			attrs:    map[string]string{"firstname": "Rahul"},
			expected: "Static message.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &models.Message{DefaultContent: tt.content, DefaultVars: tt.defaults}
			out := Personalize(msg, tt.attrs, "en")
			assert.Equal(t, tt.expected, out.Content)
		})
	}
}

func TestPersonalize_LanguageSelection(t *testing.T) {
	msg := testMessage()
	attrs := map[string]string{"firstname": "Rahul"}

	t.Run("approved variant used", func(t *testing.T) {
		out := Personalize(msg, attrs, "hi")
		assert.Equal(t, "Namaste Rahul", out.Content)
		assert.Equal(t, "Abhiyan", out.Title)
	})

	t.Run("missing language falls back to default", func(t *testing.T) {
		out := Personalize(msg, attrs, "te")
		assert.Equal(t, "Hi Rahul, rally at booth TBD.", out.Content)
		assert.Equal(t, "Campaign Update", out.Title)
	})

	t.Run("empty language falls back to default", func(t *testing.T) {
		out := Personalize(msg, attrs, "")
		assert.Equal(t, "Campaign Update", out.Title)
	})
}

func TestPersonalize_Deterministic(t *testing.T) {
	msg := testMessage()
	attrs := map[string]string{"firstname": "Rahul", "boothnumber": "3"}

	first := Personalize(msg, attrs, "en")
	second := Personalize(msg, attrs, "en")
	assert.Equal(t, first, second)

	// Inputs are not mutated.
	assert.Equal(t, "Hi {{firstName}}, rally at booth {{boothNumber}}.", msg.DefaultContent)
	assert.Equal(t, "Rahul", attrs["firstname"])
}

func TestPersonalize_RichContent(t *testing.T) {
	t.Run("wraps title and content", func(t *testing.T) {
		msg := &models.Message{DefaultTitle: "Update", DefaultContent: "line one\nline two"}
		out := Personalize(msg, nil, "en")
		assert.Equal(t,
			`<div class="campaign-message"><h3>Update</h3><p>line one</p><p>line two</p></div>`,
			out.RichContent)
	})

	t.Run("escapes injected markup", func(t *testing.T) {
		msg := &models.Message{DefaultContent: "Hi {{firstName}}"}
		out := Personalize(msg, map[string]string{"firstname": `<script>alert("x")</script>`}, "en")
		assert.NotContains(t, out.RichContent, "<script>")
		assert.Contains(t, out.RichContent, "&lt;script&gt;")
	})
}

func TestValidateTemplate(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		isValid   bool
		variables []string
		errCount  int
	}{
		{
			name:      "all whitelisted",
			content:   "Hi {{firstName}} {{lastName}}, booth {{boothNumber}}",
			isValid:   true,
			variables: []string{"firstName", "lastName", "boothNumber"},
		},
		{
			name:      "case and whitespace tolerated",
			content:   "Hi {{ FIRSTNAME }} from {{constituency}}",
			isValid:   true,
			variables: []string{"firstName", "constituency"},
		},
		{
			name:      "unknown variable rejected",
			content:   "Hi {{firstName}}, your {{salary}} is ready",
			isValid:   false,
			variables: []string{"firstName", "salary"},
			errCount:  1,
		},
		{
			name:      "repeated unknown reported once",
			content:   "{{salary}} and {{salary}} again",
			isValid:   false,
			variables: []string{"salary"},
			errCount:  1,
		},
		{
			name:    "no placeholders",
			content: "Static content",
			isValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateTemplate(tt.content)
			assert.Equal(t, tt.isValid, result.IsValid)
			assert.Equal(t, tt.variables, result.Variables)
			assert.Len(t, result.Errors, tt.errCount)
		})
	}
}
