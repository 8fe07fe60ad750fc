package detect

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
)

func item(id, name string) model.InventoryItem {
	return model.InventoryItem{ID: id, Name: name, Price: decimal.NewFromInt(1)}
}

type quoteRecorder struct {
	names  []string
	prices []decimal.Decimal
}

func (q *quoteRecorder) ObserveQuote(name string, price decimal.Decimal) {
	q.names = append(q.names, name)
	q.prices = append(q.prices, price)
}

func TestObserve_NotSeeded(t *testing.T) {
	d := New(nil, nil, nil)
	if _, err := d.Observe([]model.InventoryItem{item("a", "A")}); err != ErrNotSeeded {
		t.Fatalf("Observe() error = %v, want ErrNotSeeded", err)
	}
}

func TestObserve_NewItemsAboveAnchor(t *testing.T) {
	d := New(nil, nil, nil)
	d.Seed("b")

	view := []model.InventoryItem{item("d", "D"), item("a", "A"), item("b", "B"), item("c", "C")}
	res, err := d.Observe(view)
	if err != nil {
		t.Fatalf("Observe() error = %v", err)
	}
	if res == nil {
		t.Fatal("Observe() returned nil result, want new items")
	}
	if len(res.NewItems) != 2 || res.NewItems[0].ID != "d" || res.NewItems[1].ID != "a" {
		t.Errorf("NewItems = %+v, want [d a]", res.NewItems)
	}

	// Same view again: the anchor has advanced to the head, nothing is new.
	res, err = d.Observe(view)
	if err != nil {
		t.Fatalf("Observe() second pass error = %v", err)
	}
	if res != nil {
		t.Errorf("Observe() second pass = %+v, want nil", res)
	}
}

func TestObserve_AnchorGone(t *testing.T) {
	d := New(nil, nil, nil)
	d.Seed("gone")

	view := []model.InventoryItem{item("a", "A"), item("b", "B")}
	res, err := d.Observe(view)
	if err != nil {
		t.Fatalf("Observe() error = %v", err)
	}
	if res == nil || len(res.NewItems) != 2 {
		t.Fatalf("Observe() = %+v, want whole view as new", res)
	}
}

func TestObserve_EmptyViewKeepsAnchor(t *testing.T) {
	d := New(nil, nil, nil)
	d.Seed("b")

	res, err := d.Observe(nil)
	if err != nil {
		t.Fatalf("Observe(empty) error = %v", err)
	}
	if res != nil {
		t.Fatalf("Observe(empty) = %+v, want nil", res)
	}

	// The anchor must still be where it was before the glitch.
	view := []model.InventoryItem{item("a", "A"), item("b", "B")}
	res, err = d.Observe(view)
	if err != nil {
		t.Fatalf("Observe() error = %v", err)
	}
	if res == nil || len(res.NewItems) != 1 || res.NewItems[0].ID != "a" {
		t.Errorf("Observe() after glitch = %+v, want [a]", res)
	}
}

func TestObserve_RepeatedNames(t *testing.T) {
	d := New(nil, nil, nil)
	d.Seed("z")

	view := []model.InventoryItem{
		item("1", "Team Captain"),
		item("2", "Rocket Launcher"),
		item("3", "Team Captain"),
		item("z", "Z"),
	}
	res, err := d.Observe(view)
	if err != nil {
		t.Fatalf("Observe() error = %v", err)
	}
	if len(res.NewItems) != 2 {
		t.Fatalf("NewItems = %+v, want first occurrence of each name", res.NewItems)
	}
	if !res.Repeated("Team Captain") {
		t.Error("Repeated(Team Captain) = false, want true")
	}
	if res.Repeated("Rocket Launcher") {
		t.Error("Repeated(Rocket Launcher) = true, want false")
	}
}

func TestObserve_IgnoredItems(t *testing.T) {
	d := New([]string{"Gift Wrap"}, nil, nil)
	d.Seed("z")

	view := []model.InventoryItem{item("1", "Gift Wrap"), item("2", "Team Captain"), item("z", "Z")}
	res, err := d.Observe(view)
	if err != nil {
		t.Fatalf("Observe() error = %v", err)
	}
	if len(res.NewItems) != 1 || res.NewItems[0].Name != "Team Captain" {
		t.Errorf("NewItems = %+v, want ignored name dropped", res.NewItems)
	}
}

func TestObserve_AllFilteredKeepsAnchor(t *testing.T) {
	rec := &quoteRecorder{}
	d := New([]string{"Gift Wrap"}, rec, nil)
	d.Seed("z")

	view := []model.InventoryItem{
		item("1", "Gift Wrap"),
		{ID: "2", Name: "Refined Metal", Price: decimal.NewFromFloat(0.05)},
		item("z", "Z"),
	}
	res, err := d.Observe(view)
	if err != nil {
		t.Fatalf("Observe() error = %v", err)
	}
	if res != nil {
		t.Fatalf("Observe() = %+v, want nil when nothing qualifies", res)
	}
	if len(rec.names) != 1 {
		t.Errorf("observer names = %v, want metal quote recorded", rec.names)
	}

	// The anchor must not have advanced past the filtered batch.
	res, err = d.Observe(view)
	if err != nil {
		t.Fatalf("Observe() second pass error = %v", err)
	}
	if res != nil {
		t.Errorf("Observe() second pass = %+v, want nil", res)
	}
	if len(rec.names) != 2 {
		t.Errorf("observer names = %v, want quote re-observed while anchor holds", rec.names)
	}
}

func TestObserve_CurrencyQuotes(t *testing.T) {
	rec := &quoteRecorder{}
	d := New(nil, rec, nil)
	d.Seed("z")

	view := []model.InventoryItem{
		{ID: "1", Name: "Mann Co. Supply Crate Key", Price: decimal.NewFromFloat(1.75)},
		item("2", "Team Captain"),
		item("z", "Z"),
	}
	res, err := d.Observe(view)
	if err != nil {
		t.Fatalf("Observe() error = %v", err)
	}
	if len(res.NewItems) != 1 || res.NewItems[0].Name != "Team Captain" {
		t.Errorf("NewItems = %+v, want currency routed to observer", res.NewItems)
	}
	if len(rec.names) != 1 || rec.names[0] != "Mann Co. Supply Crate Key" {
		t.Fatalf("observer names = %v, want key quote", rec.names)
	}
	if !rec.prices[0].Equal(decimal.NewFromFloat(1.75)) {
		t.Errorf("observer price = %s, want 1.75", rec.prices[0])
	}
}
