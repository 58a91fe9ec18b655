package constants

import (
	"strings"
)

type Category string

const (
	Government             Category = "Government"
	Embassy                Category = "Embassy"
	Consulate              Category = "Consulate"
	HighCommissioner       Category = "High Commissioner"
	DeputyHighCommissioner Category = "Deputy High Commissioner"
	Associations           Category = "Associations"
	Exporter               Category = "Exporter"
	Importer               Category = "Importer"
	Logistics              Category = "Logistics"
	EventManagement        Category = "Event management"
	Consultancy            Category = "Consultancy"
	Manufacturer           Category = "Manufacturer"
	Distributors           Category = "Distributors"
	Producers              Category = "Producers"
	Others                 Category = "Others"
)

// FallbackCategory is assigned when neither the model nor keyword inference yields a category.
const FallbackCategory = Others

var allCategories = []Category{
	Government,
	Embassy,
	Consulate,
	HighCommissioner,
	DeputyHighCommissioner,
	Associations,
	Exporter,
	Importer,
	Logistics,
	EventManagement,
	Consultancy,
	Manufacturer,
	Distributors,
	Producers,
	Others,
}

func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// DefaultCategoryKeywords maps each category to the lowercase keywords that imply it.
// Order matters: more specific categories come first so "deputy high commissioner"
// wins over "high commissioner" and over Government's "commissioner".
var DefaultCategoryKeywords = []CategoryKeywords{
	{DeputyHighCommissioner, []string{"deputy high commissioner", "deputy high commission", "deputy commission"}},
	{HighCommissioner, []string{"high commissioner", "high commission"}},
	{Embassy, []string{"embassy", "ambassador", "diplomatic", "foreign affairs"}},
	{Consulate, []string{"consulate", "consul general", "vice consul", "consul", "consular"}},
	{Government, []string{"government", "ministry", "minister", "department", "municipal", "federal", "bureau", "authority", "public sector"}},
	{Associations, []string{"association", "society", "federation", "chamber", "council", "guild", "union", "foundation"}},
	{Exporter, []string{"exporter", "exports", "export", "international trade", "overseas trade", "foreign trade"}},
	{Importer, []string{"importer", "imports", "import", "procurement", "sourcing", "buying house"}},
	{Logistics, []string{"logistics", "shipping", "freight", "cargo", "courier", "supply chain", "warehouse", "transport"}},
	{EventManagement, []string{"event management", "events", "event", "conference", "exhibition", "expo", "trade show"}},
	{Consultancy, []string{"consultancy", "consultant", "consulting", "advisory", "advisor"}},
	{Manufacturer, []string{"manufacturer", "manufacturing", "factory", "industries", "fabrication"}},
	{Distributors, []string{"distributor", "distributors", "distribution", "wholesale", "dealer", "stockist"}},
	{Producers, []string{"producer", "producers", "production", "growers", "farms"}},
}

// CategoryKeywords binds a category to the keywords that imply it.
type CategoryKeywords struct {
	Category Category `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Others, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"others":           Others,
		"other":            Others,
		"uncategorized":    Others,
		"govt":             Government,
		"gov":              Government,
		"association":      Associations,
		"export":           Exporter,
		"exports":          Exporter,
		"exporters":        Exporter,
		"import":           Importer,
		"importers":        Importer,
		"logistic":         Logistics,
		"event":            EventManagement,
		"events":           EventManagement,
		"event-management": EventManagement,
		"consulting":       Consultancy,
		"consultant":       Consultancy,
		"manufacturing":    Manufacturer,
		"manufacturers":    Manufacturer,
		"distributor":      Distributors,
		"distribution":     Distributors,
		"producer":         Producers,
		"high commission":  HighCommissioner,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// check if it matches any category string
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Others, false
}
