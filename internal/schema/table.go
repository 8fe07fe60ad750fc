// Package schema holds the item attribute tables the normalizer depends on:
// unusual effect names, spell attribute defindexes and strange part score
// types. Built-in seed data covers the common cases; a weekly loader swaps in
// the full tables from the schema API.
package schema

import "sync"

// Attribute defindexes that mark a halloween spell on a listed item.
var spellDefindexes = map[int]struct{}{
	1004: {}, // paint spell
	1005: {}, // footprints
	1006: {}, // voices from below
	1007: {}, // pumpkin bombs
	1008: {}, // halloween fire
	1009: {}, // exorcism
}

// Attribute defindexes that carry a strange part score type in float_value.
var strangePartDefindexes = map[int]struct{}{
	379: {},
	380: {},
	381: {},
	382: {},
	383: {},
	384: {},
}

// Seed strange part score types, replaced by the loader once the full
// table has been fetched.
var seedStrangePartScores = map[string]float64{
	"Robots Destroyed":         31,
	"Kills Under A Full Moon":  27,
	"Posthumous Kills":         19,
	"Allies Extinguished":      61,
	"Damage Dealt":             82,
	"Critical Kills":           33,
	"Kills While Explosive-Jumping": 34,
	"Low-Health Kills":         44,
	"Gib Kills":                37,
	"Kills During Halloween":   39,
}

// Seed unusual effect display names, replaced by the loader.
var seedEffects = map[string]float64{
	"Green Confetti":    6,
	"Purple Confetti":   7,
	"Haunted Ghosts":    8,
	"Green Energy":      9,
	"Purple Energy":     10,
	"Circling TF Logo":  11,
	"Massed Flies":      12,
	"Burning Flames":    13,
	"Scorching Flames":  14,
	"Searing Plasma":    15,
	"Vivid Plasma":      16,
	"Sunbeams":          17,
	"Circling Peace Sign": 18,
	"Circling Heart":    19,
	"Cloud 9":           32,
	"Miami Nights":      38,
}

// Table serves attribute lookups to the normalizer. Reads vastly outnumber
// writes; writes replace whole sub-tables.
type Table struct {
	mu           sync.RWMutex
	effects      map[string]float64
	strangeParts map[string]float64
	partScores   map[float64]struct{}
}

// NewTable creates a table populated with the built-in seed data.
func NewTable() *Table {
	t := &Table{}
	t.ReplaceEffects(seedEffects)
	t.ReplaceStrangeParts(seedStrangePartScores)
	return t
}

// ReplaceEffects swaps in a new effect-name table.
func (t *Table) ReplaceEffects(effects map[string]float64) {
	copied := make(map[string]float64, len(effects))
	for k, v := range effects {
		copied[k] = v
	}
	t.mu.Lock()
	t.effects = copied
	t.mu.Unlock()
}

// ReplaceStrangeParts swaps in a new strange-part table.
func (t *Table) ReplaceStrangeParts(parts map[string]float64) {
	copied := make(map[string]float64, len(parts))
	scores := make(map[float64]struct{}, len(parts))
	for k, v := range parts {
		copied[k] = v
		scores[v] = struct{}{}
	}
	t.mu.Lock()
	t.strangeParts = copied
	t.partScores = scores
	t.mu.Unlock()
}

// IsSpell reports whether the attribute defindex marks a spell.
func (t *Table) IsSpell(defindex int) bool {
	_, ok := spellDefindexes[defindex]
	return ok
}

// IsStrangePart reports whether the (defindex, float value) pair marks a
// strange part. Both must match: the defindex identifies a part slot and the
// float value a known score type.
func (t *Table) IsStrangePart(defindex int, floatValue float64) bool {
	if _, ok := strangePartDefindexes[defindex]; !ok {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.partScores[floatValue]
	return ok
}

// EffectName returns the first attachment label that names a known unusual
// effect. Attachment order is the item's display order, so first match wins.
func (t *Table) EffectName(attachments []string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, a := range attachments {
		if _, ok := t.effects[a]; ok {
			return a, true
		}
	}
	return "", false
}
