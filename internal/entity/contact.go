package entity

import (
	"strings"

	"github.com/joseph-ayodele/contact-extractor/constants"
)

// PrimaryFieldCount is the number of fields that count towards completeness.
const PrimaryFieldCount = 7

// Contact is one extracted contact record.
type Contact struct {
	Name          string               `json:"name,omitempty"`
	Designation   string               `json:"designation,omitempty"`
	Company       string               `json:"company,omitempty"`
	Phone         string               `json:"phone,omitempty"`
	Email         string               `json:"email,omitempty"`
	Website       string               `json:"website,omitempty"`
	Address       string               `json:"address,omitempty"`
	Category      constants.Category   `json:"category"`
	Notes         string               `json:"notes,omitempty"`
	Confidence    float64              `json:"confidence"`
	Provenance    constants.Provenance `json:"provenance"`
	LowConfidence bool                 `json:"low_confidence,omitempty"`
}

// Reachable reports whether the contact has a name, an email or a phone.
// Contacts without any of them are dropped.
func (c Contact) Reachable() bool {
	return strings.TrimSpace(c.Name) != "" ||
		strings.TrimSpace(c.Email) != "" ||
		strings.TrimSpace(c.Phone) != ""
}

// PopulatedFields counts the non-empty primary fields:
// name, designation, company, phone, email, website, address.
func (c Contact) PopulatedFields() int {
	n := 0
	for _, v := range []string{c.Name, c.Designation, c.Company, c.Phone, c.Email, c.Website, c.Address} {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}
