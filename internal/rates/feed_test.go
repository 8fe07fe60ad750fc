package rates

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
	"github.com/scrapyard-labs/lootscan/internal/notify"
)

type msgRecorder struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *msgRecorder) Notify(_ context.Context, msg notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func TestFeedObserver(t *testing.T) {
	reg := NewRegistry()
	o := NewFeedObserver(reg, nil)

	o.ObserveQuote(KeyItemName, decimal.NewFromFloat(1.75))
	o.ObserveQuote(MetalItemName, decimal.NewFromFloat(0.04))
	o.ObserveQuote("Team Captain", decimal.NewFromFloat(10)) // not a currency
	o.ObserveQuote(KeyItemName, decimal.Zero)                // garbage quote

	if r, ok := reg.Rate(model.UnitKey, model.DirectionBuy); !ok || !r.Equal(decimal.NewFromFloat(1.75)) {
		t.Errorf("key buy rate = %s/%v, want 1.75", r, ok)
	}
	if r, ok := reg.Rate(model.UnitMetal, model.DirectionBuy); !ok || !r.Equal(decimal.NewFromFloat(0.04)) {
		t.Errorf("metal buy rate = %s/%v, want 0.04", r, ok)
	}
	if _, ok := reg.Rate(model.UnitKey, model.DirectionSell); ok {
		t.Error("sell side set by feed observer")
	}
}

func TestParseFallback(t *testing.T) {
	fb, err := ParseFallback(0.05, 1.80, "15/06/2026")
	if err != nil {
		t.Fatalf("ParseFallback() error = %v", err)
	}
	if fb.QuotedAt.Day() != 15 || fb.QuotedAt.Month() != time.June {
		t.Errorf("QuotedAt = %v", fb.QuotedAt)
	}

	if _, err := ParseFallback(0.05, 1.80, "2026-06-15"); err == nil {
		t.Error("ParseFallback() accepted wrong date layout")
	}
	if _, err := ParseFallback(0, 1.80, "15/06/2026"); err == nil {
		t.Error("ParseFallback() accepted zero rate")
	}
}

func TestFallbackSeed(t *testing.T) {
	reg := NewRegistry()
	rec := &msgRecorder{}

	fb := Fallback{
		MetalSellUSD: decimal.NewFromFloat(0.05),
		KeySellUSD:   decimal.NewFromFloat(1.80),
		QuotedAt:     time.Now().Add(-24 * time.Hour),
	}
	fb.Seed(context.Background(), reg, rec, nil)

	if r, ok := reg.Rate(model.UnitMetal, model.DirectionSell); !ok || !r.Equal(fb.MetalSellUSD) {
		t.Errorf("metal sell rate = %s/%v", r, ok)
	}
	if at, ok := reg.UpdatedAt(model.UnitKey, model.DirectionSell); !ok || !at.Equal(fb.QuotedAt) {
		t.Errorf("key sell UpdatedAt = %v/%v, want quote date", at, ok)
	}
	if len(rec.msgs) != 0 {
		t.Errorf("messages = %+v, want none for fresh rates", rec.msgs)
	}
}

func TestFallbackSeed_StaleWarns(t *testing.T) {
	reg := NewRegistry()
	rec := &msgRecorder{}

	fb := Fallback{
		MetalSellUSD: decimal.NewFromFloat(0.05),
		KeySellUSD:   decimal.NewFromFloat(1.80),
		QuotedAt:     time.Now().Add(-8 * 24 * time.Hour),
	}
	fb.Seed(context.Background(), reg, rec, nil)

	if len(rec.msgs) != 1 || rec.msgs[0].Severity != notify.SeverityWarning {
		t.Errorf("messages = %+v, want one stale warning", rec.msgs)
	}
}
