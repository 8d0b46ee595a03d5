package scheduling

import "strings"

// FallbackCategory is suggested for methods with no recognised category.
const FallbackCategory = "other"

// methodEquipmentCategories narrows equipment suggestions for a method
// category. It is read-only after package initialisation.
var methodEquipmentCategories = map[string][]string{
	"analytical":    {"analytical", "optical"},
	"chemical":      {"mechanical", "analytical"},
	"physical":      {"mechanical", "optical"},
	"electrical":    {"electrical"},
	"environmental": {"environmental", "thermal"},
	"reliability":   {"reliability", "environmental", "electrical"},
	"thermal":       {"thermal", "environmental"},
	"mechanical":    {"mechanical"},
	"optical":       {"optical", "analytical"},
}

// EquipmentCategoriesFor returns the equipment categories suited to a method
// category. Matching is case-insensitive; unknown or empty categories map to
// FallbackCategory. The returned slice is a copy the caller may modify.
func EquipmentCategoriesFor(methodCategory string) []string {
	cats, ok := methodEquipmentCategories[strings.ToLower(strings.TrimSpace(methodCategory))]
	if !ok {
		return []string{FallbackCategory}
	}
	out := make([]string, len(cats))
	copy(out, cats)
	return out
}
