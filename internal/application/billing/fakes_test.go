package billing_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cartera-api/internal/application/billing"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

// memStore implementa todos los repositorios en memoria. RunBilling toma una copia del
// estado y la restaura si fn falla, imitando el rollback.
type memStore struct {
	mu          sync.Mutex
	invoices    map[string]entity.Invoice
	lines       map[string][]entity.LineItem // por documento
	creditNotes map[string]entity.CreditNote
	payments    []entity.Payment
	products    map[string]entity.Product
	customers   map[string]entity.Customer

	txCount     int
	forUpdate   []string
	failOnWrite error
}

func newMemStore() *memStore {
	return &memStore{
		invoices:    map[string]entity.Invoice{},
		lines:       map[string][]entity.LineItem{},
		creditNotes: map[string]entity.CreditNote{},
		products:    map[string]entity.Product{},
		customers:   map[string]entity.Customer{},
	}
}

type snapshot struct {
	invoices    map[string]entity.Invoice
	lines       map[string][]entity.LineItem
	creditNotes map[string]entity.CreditNote
	payments    []entity.Payment
}

func (s *memStore) snapshot() snapshot {
	snap := snapshot{
		invoices:    map[string]entity.Invoice{},
		lines:       map[string][]entity.LineItem{},
		creditNotes: map[string]entity.CreditNote{},
		payments:    append([]entity.Payment(nil), s.payments...),
	}
	for k, v := range s.invoices {
		snap.invoices[k] = v
	}
	for k, v := range s.lines {
		snap.lines[k] = append([]entity.LineItem(nil), v...)
	}
	for k, v := range s.creditNotes {
		snap.creditNotes[k] = v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.invoices, s.lines, s.creditNotes, s.payments = snap.invoices, snap.lines, snap.creditNotes, snap.payments
}

func (s *memStore) RunBilling(ctx context.Context, fn func(r billing.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++
	snap := s.snapshot()
	if err := fn(s.repos()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) repos() billing.Repos {
	return billing.Repos{
		Invoices:    invoiceRepo{s},
		CreditNotes: creditRepo{s},
		Payments:    paymentRepo{s},
		Products:    productRepo{s},
		Customers:   customerRepo{s},
	}
}

func (s *memStore) line(docID, lineID string) *entity.LineItem {
	for i := range s.lines[docID] {
		if s.lines[docID][i].ID == lineID {
			return &s.lines[docID][i]
		}
	}
	return nil
}

// ── invoices ─────────────────────────────────────────────────────────────────

type invoiceRepo struct{ s *memStore }

func (r invoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (r invoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	r.s.forUpdate = append(r.s.forUpdate, id)
	return r.GetByID(ctx, id)
}

func (r invoiceRepo) ListLines(_ context.Context, id string) ([]entity.LineItem, error) {
	out := append([]entity.LineItem(nil), r.s.lines[id]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r invoiceRepo) CreateLine(_ context.Context, l *entity.LineItem) error {
	if r.s.failOnWrite != nil {
		return r.s.failOnWrite
	}
	r.s.lines[l.DocumentID] = append(r.s.lines[l.DocumentID], *l)
	return nil
}

func (r invoiceRepo) UpdateLine(_ context.Context, l *entity.LineItem) error {
	if cur := r.s.line(l.DocumentID, l.ID); cur != nil {
		*cur = *l
		return nil
	}
	return domain.ErrNotFound
}

func (r invoiceRepo) DeleteLine(_ context.Context, invoiceID, lineID string) error {
	lines := r.s.lines[invoiceID]
	for i := range lines {
		if lines[i].ID == lineID {
			r.s.lines[invoiceID] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r invoiceRepo) UpdateTotals(_ context.Context, inv *entity.Invoice) error {
	cur := r.s.invoices[inv.ID]
	status := cur.Status
	cur = *inv
	cur.Status = status
	r.s.invoices[inv.ID] = cur
	return nil
}

func (r invoiceRepo) UpdateStatus(_ context.Context, id string, status entity.InvoiceStatus) error {
	inv := r.s.invoices[id]
	inv.Status = status
	r.s.invoices[id] = inv
	return nil
}

func (r invoiceRepo) ListByCustomerUntil(_ context.Context, customerID string, until time.Time) ([]entity.Invoice, error) {
	var out []entity.Invoice
	for _, inv := range r.s.invoices {
		if inv.CustomerID == customerID && !inv.Date.After(until) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r invoiceRepo) ListByPeriod(_ context.Context, companyID string, from, to time.Time) ([]entity.Invoice, error) {
	var out []entity.Invoice
	for _, inv := range r.s.invoices {
		if inv.CompanyID == companyID && !inv.Date.Before(from) && !inv.Date.After(to) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r invoiceRepo) ListByIDs(_ context.Context, ids []string) ([]entity.Invoice, error) {
	var out []entity.Invoice
	for _, id := range ids {
		if inv, ok := r.s.invoices[id]; ok {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r invoiceRepo) ListLinesByInvoiceIDs(_ context.Context, ids []string) (map[string][]entity.LineItem, error) {
	out := map[string][]entity.LineItem{}
	for _, id := range ids {
		out[id] = append([]entity.LineItem(nil), r.s.lines[id]...)
	}
	return out, nil
}

// ── credit notes ─────────────────────────────────────────────────────────────

type creditRepo struct{ s *memStore }

func (r creditRepo) GetByID(_ context.Context, id string) (*entity.CreditNote, error) {
	cn, ok := r.s.creditNotes[id]
	if !ok {
		return nil, nil
	}
	return &cn, nil
}

func (r creditRepo) GetForUpdate(ctx context.Context, id string) (*entity.CreditNote, error) {
	r.s.forUpdate = append(r.s.forUpdate, id)
	return r.GetByID(ctx, id)
}

func (r creditRepo) ListLines(_ context.Context, id string) ([]entity.LineItem, error) {
	return append([]entity.LineItem(nil), r.s.lines[id]...), nil
}

func (r creditRepo) CreateLine(_ context.Context, l *entity.LineItem) error {
	r.s.lines[l.DocumentID] = append(r.s.lines[l.DocumentID], *l)
	return nil
}

func (r creditRepo) UpdateTotals(_ context.Context, cn *entity.CreditNote) error {
	cur := r.s.creditNotes[cn.ID]
	cur.Subtotal, cur.VATAmount, cur.Total, cur.UpdatedAt = cn.Subtotal, cn.VATAmount, cn.Total, cn.UpdatedAt
	r.s.creditNotes[cn.ID] = cur
	return nil
}

func (r creditRepo) UpdateStatus(_ context.Context, id string, status entity.CreditNoteStatus) error {
	cn := r.s.creditNotes[id]
	cn.Status = status
	r.s.creditNotes[id] = cn
	return nil
}

func (r creditRepo) ListByCustomerUntil(_ context.Context, customerID string, until time.Time) ([]entity.CreditNote, error) {
	var out []entity.CreditNote
	for _, cn := range r.s.creditNotes {
		if cn.CustomerID == customerID && !cn.Date.After(until) {
			out = append(out, cn)
		}
	}
	return out, nil
}

func (r creditRepo) ListByPeriod(_ context.Context, companyID string, from, to time.Time) ([]entity.CreditNote, error) {
	var out []entity.CreditNote
	for _, cn := range r.s.creditNotes {
		if cn.CompanyID == companyID && !cn.Date.Before(from) && !cn.Date.After(to) {
			out = append(out, cn)
		}
	}
	return out, nil
}

func (r creditRepo) ListLinesByCreditNoteIDs(_ context.Context, ids []string) (map[string][]entity.LineItem, error) {
	out := map[string][]entity.LineItem{}
	for _, id := range ids {
		out[id] = append([]entity.LineItem(nil), r.s.lines[id]...)
	}
	return out, nil
}

// ── payments, products, customers ────────────────────────────────────────────

type paymentRepo struct{ s *memStore }

func (r paymentRepo) Create(_ context.Context, p *entity.Payment) error {
	r.s.payments = append(r.s.payments, *p)
	return nil
}

func (r paymentRepo) ListByCustomerUntil(_ context.Context, customerID string, until time.Time) ([]entity.Payment, error) {
	var out []entity.Payment
	for _, p := range r.s.payments {
		if p.CustomerID == customerID && !p.Date.After(until) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r paymentRepo) ListByInvoiceIDs(_ context.Context, ids []string) ([]entity.Payment, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []entity.Payment
	for _, p := range r.s.payments {
		if want[p.InvoiceID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r paymentRepo) SumByInvoice(_ context.Context, invoiceID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range r.s.payments {
		if p.InvoiceID == invoiceID {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

type productRepo struct{ s *memStore }

func (r productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type customerRepo struct{ s *memStore }

func (r customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	c, ok := r.s.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// ── locker ───────────────────────────────────────────────────────────────────

type fakeLocker struct {
	mu       sync.Mutex
	acquired []string
	held     map[string]bool
	err      error
}

func (l *fakeLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	if l.held == nil {
		l.held = map[string]bool{}
	}
	l.acquired = append(l.acquired, key)
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}
