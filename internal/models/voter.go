package models

import (
	"strconv"
	"strings"
)

// Voter holds the recipient attributes the engine reads. The record is owned
// by the voter-management layer; this core never mutates it.
type Voter struct {
	ID                string `json:"id"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Constituency      string `json:"constituency"`
	AssemblySegment   string `json:"assemblySegment"`
	BoothNumber       string `json:"boothNumber"`
	Age               int    `json:"age"`
	Gender            string `json:"gender"`
	Occupation        string `json:"occupation"`
	PreferredLanguage string `json:"preferredLanguage"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
	CustomField       string `json:"customField"`
	OptedOut          bool   `json:"optedOut"`
}

// FullName joins the name parts, tolerating an empty last name.
func (v *Voter) FullName() string {
	return strings.TrimSpace(v.FirstName + " " + v.LastName)
}

// TemplateAttributes maps the voter onto the template variable whitelist.
// Keys are lower-cased; lookups are case-insensitive on the caller side.
func (v *Voter) TemplateAttributes() map[string]string {
	attrs := map[string]string{
		"votername":       v.FullName(),
		"firstname":       v.FirstName,
		"lastname":        v.LastName,
		"constituency":    v.Constituency,
		"assemblysegment": v.AssemblySegment,
		"boothnumber":     v.BoothNumber,
		"gender":          v.Gender,
		"occupation":      v.Occupation,
		"customfield":     v.CustomField,
	}
	if v.Age > 0 {
		attrs["age"] = strconv.Itoa(v.Age)
	}
	return attrs
}
