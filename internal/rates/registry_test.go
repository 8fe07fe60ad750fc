package rates

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
)

func TestRegistry_UnsetRateUnavailable(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Rate(model.UnitMetal, model.DirectionSell); ok {
		t.Error("Rate() on empty registry reported ok")
	}
}

func TestRegistry_ZeroRateUnavailable(t *testing.T) {
	r := NewRegistry()
	r.Set(model.UnitKey, model.DirectionSell, decimal.Zero)

	if _, ok := r.Rate(model.UnitKey, model.DirectionSell); ok {
		t.Error("Rate() returned ok for a zero rate")
	}
}

func TestRegistry_LastWriterWins(t *testing.T) {
	r := NewRegistry()
	r.Set(model.UnitMetal, model.DirectionSell, decimal.RequireFromString("0.05"))
	r.Set(model.UnitMetal, model.DirectionSell, decimal.RequireFromString("0.06"))

	got, ok := r.Rate(model.UnitMetal, model.DirectionSell)
	if !ok {
		t.Fatal("Rate() not ok after writes")
	}
	if !got.Equal(decimal.RequireFromString("0.06")) {
		t.Errorf("Rate() = %s, want 0.06", got)
	}
}

func TestRegistry_FieldsIndependent(t *testing.T) {
	r := NewRegistry()
	r.Set(model.UnitMetal, model.DirectionSell, decimal.RequireFromString("0.05"))

	if _, ok := r.Rate(model.UnitMetal, model.DirectionBuy); ok {
		t.Error("buy direction reported ok after only sell was written")
	}
	if _, ok := r.Rate(model.UnitKey, model.DirectionSell); ok {
		t.Error("key unit reported ok after only metal was written")
	}
}

func TestRegistry_SetAtPreservesTimestamp(t *testing.T) {
	r := NewRegistry()
	at := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	r.SetAt(model.UnitKey, model.DirectionSell, decimal.RequireFromString("1.80"), at)

	got, ok := r.UpdatedAt(model.UnitKey, model.DirectionSell)
	if !ok {
		t.Fatal("UpdatedAt() not ok")
	}
	if !got.Equal(at) {
		t.Errorf("UpdatedAt() = %v, want %v", got, at)
	}
}

func TestUnitForName(t *testing.T) {
	tests := []struct {
		name     string
		wantUnit model.Unit
		wantOK   bool
	}{
		{KeyItemName, model.UnitKey, true},
		{MetalItemName, model.UnitMetal, true},
		{"Scrap Metal", "", false},
	}

	for _, tt := range tests {
		unit, ok := UnitForName(tt.name)
		if ok != tt.wantOK || unit != tt.wantUnit {
			t.Errorf("UnitForName(%q) = (%q, %v), want (%q, %v)", tt.name, unit, ok, tt.wantUnit, tt.wantOK)
		}
	}
}
