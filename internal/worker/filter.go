package worker

import (
	"regexp"
	"strings"

	"github.com/prudhvinik1/crmsync/internal/models"
)

// Upstream CRMs hand back these strings where a human never entered a value.
var disallowedValues = map[string]struct{}{
	"[not provided]": {},
	"placeholder":    {},
	"[[unknown]]":    {},
	"not set":        {},
	"not provided":   {},
	"unknown":        {},
	"undefined":      {},
	"n/a":            {},
}

// FilterProperties returns a copy of the map without entries whose value is
// the type's null equivalent or a case-insensitive placeholder match. Pure
// and idempotent: filtering a filtered map yields the same map.
func FilterProperties(properties map[string]models.PropertyValue) map[string]models.PropertyValue {
	filtered := make(map[string]models.PropertyValue, len(properties))
	for key, value := range properties {
		if value.IsEmpty() {
			continue
		}
		if value.Kind == models.PropertyString {
			if _, disallowed := disallowedValues[strings.ToLower(value.Str)]; disallowed {
				continue
			}
		}
		filtered[key] = value
	}
	return filtered
}

var (
	customFieldSuffix = regexp.MustCompile(`__c$`)
	edgeUnderscores   = regexp.MustCompile(`^_+|_+$`)
	repeatUnderscores = regexp.MustCompile(`_+`)
)

// NormalizePropertyName harmonizes a property name from a heterogeneous
// source: lower-cased, trailing custom-field suffix stripped, leading,
// trailing and doubled underscores collapsed.
func NormalizePropertyName(key string) string {
	key = strings.ToLower(key)
	key = customFieldSuffix.ReplaceAllString(key, "")
	key = edgeUnderscores.ReplaceAllString(key, "")
	return repeatUnderscores.ReplaceAllString(key, "_")
}
