package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
)

func TestMemory_GetAbsent(t *testing.T) {
	m := NewMemory()
	entry, err := m.GetSnapshot(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if entry != nil {
		t.Errorf("GetSnapshot() = %+v, want nil for absent key", entry)
	}
}

func TestMemory_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	first := model.CacheEntry{
		Key: "Team Captain",
		Listings: []model.NormalizedListing{
			{SettlementValue: decimal.NewFromInt(10)},
		},
		FetchedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := m.PutSnapshot(ctx, first); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	second := first
	second.Listings = []model.NormalizedListing{
		{SettlementValue: decimal.NewFromInt(12)},
		{SettlementValue: decimal.NewFromInt(14)},
	}
	second.FetchedAt = first.FetchedAt.Add(time.Hour)
	if err := m.PutSnapshot(ctx, second); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	got, err := m.GetSnapshot(ctx, "Team Captain")
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if got == nil || len(got.Listings) != 2 {
		t.Fatalf("GetSnapshot() = %+v, want overwritten entry", got)
	}
	if !got.FetchedAt.Equal(second.FetchedAt) {
		t.Errorf("FetchedAt = %v, want %v", got.FetchedAt, second.FetchedAt)
	}
}
