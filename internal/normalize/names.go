package normalize

import "strings"

// EffectTable resolves an item's unusual effect from its attachments.
type EffectTable interface {
	EffectName(attachments []string) (string, bool)
}

// Killstreak kit prefixes, longest first so "Killstreak" does not shadow
// the specialized variants.
var kitPrefixes = []string{
	"Professional Killstreak",
	"Specialized Killstreak",
	"Killstreak",
}

// CanonicalName maps a feed item name to the canonical form the classifieds
// API expects. The rules cover mutually exclusive naming conventions, so
// exactly one applies: first match wins, in the stated order.
//
//  1. Killstreak kits and unusualifiers are listed under a non-tradable
//     prefix.
//  2. Crate names carry a " Series" suffix the API does not use.
//  3. An "Unusual" placeholder is replaced by the specific effect's display
//     name, resolved from the attachments.
//  4. Literal '#' characters must be percent-escaped.
func CanonicalName(name string, attachments []string, effects EffectTable) string {
	if isKitName(name) {
		return "Non-Craftable " + name
	}

	if strings.Contains(name, " Series") {
		return strings.ReplaceAll(name, " Series", "")
	}

	if strings.Contains(name, "Unusual") {
		if effect, ok := effects.EffectName(attachments); ok {
			return strings.Replace(name, "Unusual", effect, 1)
		}
	}

	if strings.Contains(name, "#") {
		return strings.ReplaceAll(name, "#", "%23")
	}

	return name
}

func isKitName(name string) bool {
	if strings.HasSuffix(name, "Unusualifier") {
		return true
	}
	if !strings.HasSuffix(name, "Kit") {
		return false
	}
	for _, p := range kitPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
