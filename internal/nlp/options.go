package nlp

import (
	"github.com/joseph-ayodele/contact-extractor/internal/common"
)

// Options holds the keyword lists the extractor matches against. All matching is
// case-insensitive and on word boundaries.
type Options struct {
	Designations   []string
	OrgSuffixes    []string
	AddressMarkers []string
	Vocabulary     common.Vocabulary
}

// DefaultOptions returns the built-in keyword lists and the default category vocabulary.
func DefaultOptions() Options {
	return Options{
		Designations:   append([]string(nil), defaultDesignations...),
		OrgSuffixes:    append([]string(nil), defaultOrgSuffixes...),
		AddressMarkers: append([]string(nil), defaultAddressMarkers...),
		Vocabulary:     common.DefaultVocabulary(),
	}
}

var defaultDesignations = []string{
	"manager", "director", "ceo", "cto", "cfo", "coo", "founder", "co-founder", "president",
	"vice president", "chairman", "chairperson", "partner", "officer", "executive", "head",
	"lead", "engineer", "consultant", "advisor", "adviser", "secretary", "ambassador", "consul",
	"attache", "attaché", "counsellor", "counselor", "commissioner", "coordinator", "supervisor",
	"assistant", "associate", "analyst", "specialist", "representative", "owner", "proprietor",
	"administrator", "agent", "accountant", "architect", "designer", "developer", "principal",
}

var defaultOrgSuffixes = []string{
	"ltd", "limited", "inc", "incorporated", "llc", "llp", "corp", "corporation", "company",
	"co", "gmbh", "plc", "pvt", "pte", "ag", "bv", "group", "holdings", "enterprises", "enterprise",
	"industries", "international", "trading", "solutions", "services", "technologies", "embassy",
	"consulate", "ministry", "association", "chamber", "commission", "council", "federation",
	"foundation", "institute", "university", "bank", "agency",
}

var defaultAddressMarkers = []string{
	"street", "st", "road", "rd", "avenue", "ave", "lane", "ln", "boulevard", "blvd", "drive",
	"way", "close", "crescent", "plaza", "suite", "floor", "building", "bldg", "p.o. box",
	"po box", "zip", "postcode", "estate",
}

// genericWords never appear in a person name.
var genericWords = []string{
	"the", "and", "of", "for", "dear", "regards", "thanks", "thank", "best", "sincerely", "page",
	"tel", "email", "e-mail", "phone", "fax", "mobile", "website", "web", "contact", "contacts",
	"address", "office", "hotline", "www",
}
