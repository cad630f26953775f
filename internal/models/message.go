package models

import "strings"

// Variant is a language-specific rendition of a message. Only approved
// variants are eligible for rendering; unapproved ones are authoring drafts.
type Variant struct {
	Language string `json:"language"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Approved bool   `json:"approved"`
}

// Message is a single authored campaign message with its translations,
// declared template variables and aggregate delivery counters.
type Message struct {
	ID              string            `json:"id"`
	CampaignID      string            `json:"campaignId"`
	DefaultTitle    string            `json:"defaultTitle"`
	DefaultContent  string            `json:"defaultContent"`
	DefaultLanguage string            `json:"defaultLanguage"`
	Variants        []Variant         `json:"variants"`
	TemplateVars    []string          `json:"templateVariables"`
	DefaultVars     map[string]string `json:"defaultVariables"`

	TotalRecipients int `json:"totalRecipients"`
	SentCount       int `json:"sentCount"`
	DeliveredCount  int `json:"deliveredCount"`
	FailedCount     int `json:"failedCount"`
	OptOutCount     int `json:"optOutCount"`
}

// VariantFor returns the approved variant for the language, or nil. Language
// match is case-insensitive; unapproved variants never match.
func (m *Message) VariantFor(language string) *Variant {
	for i := range m.Variants {
		v := &m.Variants[i]
		if v.Approved && strings.EqualFold(v.Language, language) {
			return v
		}
	}
	return nil
}
