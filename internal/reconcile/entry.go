package reconcile

import (
	"juku/internal/core"
)

// Entry is everything recorded against one item key.
type Entry struct {
	Record   *PaymentRecord
	Override *MethodOverride
}

// IsEmpty reports whether nothing is recorded for the item
func (e Entry) IsEmpty() bool {
	return e.Record == nil && e.Override == nil
}

// Method returns the effective method of the entry given the default.
func (e Entry) Method(def core.PaymentMethod) core.PaymentMethod {
	return EffectiveMethod(def, e.Record, e.Override)
}

// ToggleMethod flips the effective method of key. Without a payment record an
// override is created or updated; with one, the record's method is changed in
// place and its amounts are left alone.
func ToggleMethod(key core.ItemKey, e Entry, def core.PaymentMethod) Entry {
	return SetMethod(key, e, e.Method(def).Other())
}

// SetMethod sets an explicit method, following the same rules as ToggleMethod.
func SetMethod(key core.ItemKey, e Entry, m core.PaymentMethod) Entry {
	if e.Record != nil {
		rec := *e.Record
		rec.Method = m
		return Entry{Record: &rec}
	}
	return Entry{Override: &MethodOverride{Key: key, Method: m}}
}

// RecordPayment stores rec for the item. A method chosen earlier through an
// override carries over when rec has none of its own.
func RecordPayment(e Entry, rec PaymentRecord) Entry {
	if rec.Method == "" {
		switch {
		case e.Record != nil && e.Record.Method != "":
			rec.Method = e.Record.Method
		case e.Override != nil:
			rec.Method = e.Override.Method
		}
	}
	if rec.ID == 0 && e.Record != nil {
		rec.ID = e.Record.ID
	}
	return Entry{Record: &rec}
}

// Delete removes the payment and any override; the item returns to unpaid
// with its default method.
func Delete(Entry) Entry {
	return Entry{}
}

// SplitLegacy interprets a single stored payment row. A row with no amount
// and no payment date only carries a method.
func SplitLegacy(p core.Payment) (*PaymentRecord, *MethodOverride) {
	if p.PaidAmount == 0 && p.PaymentDate == nil {
		if p.Method == "" {
			return nil, nil
		}
		return nil, &MethodOverride{Key: p.Key, Method: p.Method}
	}
	return &PaymentRecord{
		ID:           p.ID,
		Key:          p.Key,
		BilledAmount: p.BilledAmount,
		PaidAmount:   p.PaidAmount,
		PaymentDate:  p.PaymentDate,
		Method:       p.Method,
		Followup:     p.Followup,
		Notes:        p.Notes,
	}, nil
}

// Book indexes records and overrides by item key for a single pass over a
// snapshot. Later duplicates for a key replace earlier ones.
type Book struct {
	entries map[core.ItemKey]Entry
}

func NewBook(records []PaymentRecord, overrides []MethodOverride) *Book {
	b := &Book{entries: make(map[core.ItemKey]Entry, len(records)+len(overrides))}
	for i := range overrides {
		ov := overrides[i]
		e := b.entries[ov.Key]
		e.Override = &ov
		b.entries[ov.Key] = e
	}
	for i := range records {
		rec := records[i]
		e := b.entries[rec.Key]
		e.Record = &rec
		b.entries[rec.Key] = e
	}
	return b
}

// Lookup returns the entry for key; the zero Entry when nothing is recorded.
func (b *Book) Lookup(key core.ItemKey) Entry {
	if b == nil {
		return Entry{}
	}
	return b.entries[key]
}

// Reconcile reconciles item against the book
func (b *Book) Reconcile(item Item) Result {
	e := b.Lookup(item.Key)
	return Reconcile(item, e.Record, e.Override)
}

// Len returns the number of keys with something recorded
func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}
