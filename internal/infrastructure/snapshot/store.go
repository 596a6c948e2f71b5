package snapshot

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cartera-api/internal/application/billing"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
)

var (
	_ billing.BillingTxRunner         = (*Store)(nil)
	_ repository.InvoiceRepository    = InvoiceRepo{}
	_ repository.CreditNoteRepository = CreditNoteRepo{}
	_ repository.PaymentRepository    = PaymentRepo{}
	_ repository.ProductRepository    = ProductRepo{}
	_ repository.CustomerRepository   = CustomerRepo{}
)

// Store estado en memoria. RunBilling serializa las escrituras y restaura el estado si fn falla.
type Store struct {
	mu          sync.RWMutex
	customers   map[string]entity.Customer
	products    map[string]entity.Product
	invoices    map[string]entity.Invoice
	creditNotes map[string]entity.CreditNote
	lines       map[string][]entity.LineItem // por documento
	payments    []entity.Payment
}

type state struct {
	invoices    map[string]entity.Invoice
	creditNotes map[string]entity.CreditNote
	lines       map[string][]entity.LineItem
	payments    []entity.Payment
}

func newStore(f File) (*Store, error) {
	s := &Store{
		customers:   make(map[string]entity.Customer, len(f.Customers)),
		products:    make(map[string]entity.Product, len(f.Products)),
		invoices:    make(map[string]entity.Invoice, len(f.Invoices)),
		creditNotes: make(map[string]entity.CreditNote, len(f.CreditNotes)),
		lines:       make(map[string][]entity.LineItem),
	}
	for _, c := range f.Customers {
		s.customers[c.ID] = c.toEntity()
	}
	for _, p := range f.Products {
		s.products[p.ID] = p.toEntity()
	}
	for _, in := range f.Invoices {
		inv, err := in.toEntity()
		if err != nil {
			return nil, err
		}
		if _, dup := s.invoices[inv.ID]; dup {
			return nil, fmt.Errorf("%w: factura %s duplicada", domain.ErrInvalidInput, inv.ID)
		}
		s.invoices[inv.ID] = inv
		for _, l := range in.Lines {
			s.lines[inv.ID] = append(s.lines[inv.ID], l.toEntity(inv.ID))
		}
	}
	for _, in := range f.CreditNotes {
		cn, err := in.toEntity()
		if err != nil {
			return nil, err
		}
		s.creditNotes[cn.ID] = cn
		for _, l := range in.Lines {
			s.lines[cn.ID] = append(s.lines[cn.ID], l.toEntity(cn.ID))
		}
	}
	for _, in := range f.Payments {
		p, err := in.toEntity()
		if err != nil {
			return nil, err
		}
		s.payments = append(s.payments, p)
	}
	return s, nil
}

// Save escribe el estado actual con el mismo formato de Load.
func (s *Store) Save(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var f File
	for _, id := range slices.Sorted(maps.Keys(s.customers)) {
		c := s.customers[id]
		f.Customers = append(f.Customers, Customer{
			ID: c.ID, CompanyID: c.CompanyID, Name: c.Name, TaxID: c.TaxID,
			Email: c.Email, Phone: c.Phone, Address: c.Address, SalesRepID: c.SalesRepID,
		})
	}
	for _, id := range slices.Sorted(maps.Keys(s.products)) {
		p := s.products[id]
		f.Products = append(f.Products, Product{
			ID: p.ID, CompanyID: p.CompanyID, SKU: p.SKU, Name: p.Name, SellingPrice: p.SellingPrice,
			UnitsPerBox: p.UnitsPerBox, KgPerBag: p.KgPerBag, DefaultUnit: string(p.DefaultUnit),
		})
	}
	for _, inv := range sortedInvoices(slices.Collect(maps.Values(s.invoices))) {
		f.Invoices = append(f.Invoices, invoiceFromEntity(inv, sortedLines(s.lines[inv.ID])))
	}
	for _, cn := range sortedCreditNotes(slices.Collect(maps.Values(s.creditNotes))) {
		f.CreditNotes = append(f.CreditNotes, creditNoteFromEntity(cn, sortedLines(s.lines[cn.ID])))
	}
	for _, p := range s.payments {
		f.Payments = append(f.Payments, Payment{
			ID: p.ID, CompanyID: p.CompanyID, InvoiceID: p.InvoiceID, CustomerID: p.CustomerID,
			Date: formatDate(p.Date), Amount: p.Amount, Method: p.Method, Reference: p.Reference,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// CustomerIDs clientes de la empresa (todos si companyID es vacío), ordenados.
func (s *Store) CustomerIDs(companyID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, c := range s.customers {
		if companyID == "" || c.CompanyID == companyID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Repos repositorios fuera de transacción (toman el candado de lectura/escritura en cada llamada).
func (s *Store) Repos() billing.Repos { return s.repos(false) }

func (s *Store) repos(inTx bool) billing.Repos {
	return billing.Repos{
		Invoices:    InvoiceRepo{s: s, inTx: inTx},
		CreditNotes: CreditNoteRepo{s: s, inTx: inTx},
		Payments:    PaymentRepo{s: s, inTx: inTx},
		Products:    ProductRepo{s: s, inTx: inTx},
		Customers:   CustomerRepo{s: s, inTx: inTx},
	}
}

// RunBilling ejecuta fn con acceso exclusivo. Si fn falla el estado vuelve al de antes.
func (s *Store) RunBilling(ctx context.Context, fn func(r billing.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.save()
	if err := fn(s.repos(true)); err != nil {
		s.restore(saved)
		return err
	}
	return nil
}

func (s *Store) save() state {
	st := state{
		invoices:    maps.Clone(s.invoices),
		creditNotes: maps.Clone(s.creditNotes),
		lines:       make(map[string][]entity.LineItem, len(s.lines)),
		payments:    slices.Clone(s.payments),
	}
	for k, v := range s.lines {
		st.lines[k] = slices.Clone(v)
	}
	return st
}

func (s *Store) restore(st state) {
	s.invoices, s.creditNotes, s.lines, s.payments = st.invoices, st.creditNotes, st.lines, st.payments
}

// rlock y wlock toman el candado salvo dentro de RunBilling, que ya lo tiene.
func (s *Store) rlock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) wlock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ── orden ────────────────────────────────────────────────────────────────────

func sortedInvoices(list []entity.Invoice) []entity.Invoice {
	slices.SortFunc(list, func(a, b entity.Invoice) int {
		return cmp.Or(a.Date.Compare(b.Date), cmp.Compare(a.Number, b.Number), cmp.Compare(a.ID, b.ID))
	})
	return list
}

func sortedCreditNotes(list []entity.CreditNote) []entity.CreditNote {
	slices.SortFunc(list, func(a, b entity.CreditNote) int {
		return cmp.Or(a.Date.Compare(b.Date), cmp.Compare(a.Number, b.Number), cmp.Compare(a.ID, b.ID))
	})
	return list
}

func sortedLines(list []entity.LineItem) []entity.LineItem {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b entity.LineItem) int { return cmp.Compare(a.Position, b.Position) })
	return out
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

// ── facturas ─────────────────────────────────────────────────────────────────

// InvoiceRepo facturas del volcado.
type InvoiceRepo struct {
	s    *Store
	inTx bool
}

func (r InvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	defer r.s.rlock(r.inTx)()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

// GetForUpdate igual a GetByID: la exclusión la da RunBilling.
func (r InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r InvoiceRepo) ListLines(_ context.Context, invoiceID string) ([]entity.LineItem, error) {
	defer r.s.rlock(r.inTx)()
	return sortedLines(r.s.lines[invoiceID]), nil
}

func (r InvoiceRepo) CreateLine(_ context.Context, line *entity.LineItem) error {
	return createLine(r.s, r.inTx, line)
}

func (r InvoiceRepo) UpdateLine(_ context.Context, line *entity.LineItem) error {
	defer r.s.wlock(r.inTx)()
	lines := r.s.lines[line.DocumentID]
	for i := range lines {
		if lines[i].ID == line.ID {
			lines[i] = *line
			return nil
		}
	}
	return fmt.Errorf("%w: línea %s", domain.ErrNotFound, line.ID)
}

func (r InvoiceRepo) DeleteLine(_ context.Context, invoiceID, lineID string) error {
	defer r.s.wlock(r.inTx)()
	lines := r.s.lines[invoiceID]
	for i := range lines {
		if lines[i].ID == lineID {
			r.s.lines[invoiceID] = slices.Delete(slices.Clone(lines), i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: línea %s", domain.ErrNotFound, lineID)
}

func (r InvoiceRepo) UpdateTotals(_ context.Context, inv *entity.Invoice) error {
	defer r.s.wlock(r.inTx)()
	cur, ok := r.s.invoices[inv.ID]
	if !ok {
		return fmt.Errorf("%w: factura %s", domain.ErrNotFound, inv.ID)
	}
	cur.VATPercent = inv.VATPercent
	cur.DiscountPercent = inv.DiscountPercent
	cur.SubtotalBeforeDiscount = inv.SubtotalBeforeDiscount
	cur.Subtotal = inv.Subtotal
	cur.VATAmount = inv.VATAmount
	cur.DiscountAmount = inv.DiscountAmount
	cur.Total = inv.Total
	cur.PreviousBalance = inv.PreviousBalance
	cur.GrossTotal = inv.GrossTotal
	cur.AmountPaid = inv.AmountPaid
	cur.CreditsApplied = inv.CreditsApplied
	cur.BalanceRemaining = inv.BalanceRemaining
	cur.UpdatedAt = inv.UpdatedAt
	r.s.invoices[inv.ID] = cur
	return nil
}

func (r InvoiceRepo) UpdateStatus(_ context.Context, id string, status entity.InvoiceStatus) error {
	defer r.s.wlock(r.inTx)()
	cur, ok := r.s.invoices[id]
	if !ok {
		return fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
	}
	cur.Status = status
	r.s.invoices[id] = cur
	return nil
}

func (r InvoiceRepo) ListByCustomerUntil(_ context.Context, customerID string, until time.Time) ([]entity.Invoice, error) {
	defer r.s.rlock(r.inTx)()
	var out []entity.Invoice
	for _, inv := range r.s.invoices {
		if inv.CustomerID == customerID && !inv.Date.After(until) {
			out = append(out, inv)
		}
	}
	return sortedInvoices(out), nil
}

func (r InvoiceRepo) ListByPeriod(_ context.Context, companyID string, from, to time.Time) ([]entity.Invoice, error) {
	defer r.s.rlock(r.inTx)()
	var out []entity.Invoice
	for _, inv := range r.s.invoices {
		if inv.CompanyID == companyID && inRange(inv.Date, from, to) {
			out = append(out, inv)
		}
	}
	return sortedInvoices(out), nil
}

func (r InvoiceRepo) ListByIDs(_ context.Context, ids []string) ([]entity.Invoice, error) {
	defer r.s.rlock(r.inTx)()
	var out []entity.Invoice
	for _, id := range ids {
		if inv, ok := r.s.invoices[id]; ok {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r InvoiceRepo) ListLinesByInvoiceIDs(_ context.Context, ids []string) (map[string][]entity.LineItem, error) {
	return linesByDocument(r.s, r.inTx, ids), nil
}

// ── notas crédito ────────────────────────────────────────────────────────────

// CreditNoteRepo notas crédito del volcado.
type CreditNoteRepo struct {
	s    *Store
	inTx bool
}

func (r CreditNoteRepo) GetByID(_ context.Context, id string) (*entity.CreditNote, error) {
	defer r.s.rlock(r.inTx)()
	cn, ok := r.s.creditNotes[id]
	if !ok {
		return nil, nil
	}
	return &cn, nil
}

func (r CreditNoteRepo) GetForUpdate(ctx context.Context, id string) (*entity.CreditNote, error) {
	return r.GetByID(ctx, id)
}

func (r CreditNoteRepo) ListLines(_ context.Context, creditNoteID string) ([]entity.LineItem, error) {
	defer r.s.rlock(r.inTx)()
	return sortedLines(r.s.lines[creditNoteID]), nil
}

func (r CreditNoteRepo) CreateLine(_ context.Context, line *entity.LineItem) error {
	return createLine(r.s, r.inTx, line)
}

func (r CreditNoteRepo) UpdateTotals(_ context.Context, cn *entity.CreditNote) error {
	defer r.s.wlock(r.inTx)()
	cur, ok := r.s.creditNotes[cn.ID]
	if !ok {
		return fmt.Errorf("%w: nota crédito %s", domain.ErrNotFound, cn.ID)
	}
	cur.Subtotal, cur.VATAmount, cur.Total, cur.UpdatedAt = cn.Subtotal, cn.VATAmount, cn.Total, cn.UpdatedAt
	r.s.creditNotes[cn.ID] = cur
	return nil
}

func (r CreditNoteRepo) UpdateStatus(_ context.Context, id string, status entity.CreditNoteStatus) error {
	defer r.s.wlock(r.inTx)()
	cur, ok := r.s.creditNotes[id]
	if !ok {
		return fmt.Errorf("%w: nota crédito %s", domain.ErrNotFound, id)
	}
	cur.Status = status
	r.s.creditNotes[id] = cur
	return nil
}

func (r CreditNoteRepo) ListByCustomerUntil(_ context.Context, customerID string, until time.Time) ([]entity.CreditNote, error) {
	defer r.s.rlock(r.inTx)()
	var out []entity.CreditNote
	for _, cn := range r.s.creditNotes {
		if cn.CustomerID == customerID && !cn.Date.After(until) {
			out = append(out, cn)
		}
	}
	return sortedCreditNotes(out), nil
}

func (r CreditNoteRepo) ListByPeriod(_ context.Context, companyID string, from, to time.Time) ([]entity.CreditNote, error) {
	defer r.s.rlock(r.inTx)()
	var out []entity.CreditNote
	for _, cn := range r.s.creditNotes {
		if cn.CompanyID == companyID && inRange(cn.Date, from, to) {
			out = append(out, cn)
		}
	}
	return sortedCreditNotes(out), nil
}

func (r CreditNoteRepo) ListLinesByCreditNoteIDs(_ context.Context, ids []string) (map[string][]entity.LineItem, error) {
	return linesByDocument(r.s, r.inTx, ids), nil
}

func createLine(s *Store, inTx bool, line *entity.LineItem) error {
	defer s.wlock(inTx)()
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	for _, l := range s.lines[line.DocumentID] {
		if l.ID == line.ID {
			return fmt.Errorf("%w: línea %s", domain.ErrConflict, line.ID)
		}
	}
	s.lines[line.DocumentID] = append(s.lines[line.DocumentID], *line)
	return nil
}

func linesByDocument(s *Store, inTx bool, ids []string) map[string][]entity.LineItem {
	defer s.rlock(inTx)()
	out := make(map[string][]entity.LineItem, len(ids))
	for _, id := range ids {
		if lines, ok := s.lines[id]; ok {
			out[id] = sortedLines(lines)
		}
	}
	return out
}

// ── abonos ───────────────────────────────────────────────────────────────────

// PaymentRepo abonos del volcado.
type PaymentRepo struct {
	s    *Store
	inTx bool
}

func (r PaymentRepo) Create(_ context.Context, p *entity.Payment) error {
	defer r.s.wlock(r.inTx)()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	r.s.payments = append(r.s.payments, *p)
	return nil
}

func (r PaymentRepo) ListByCustomerUntil(_ context.Context, customerID string, until time.Time) ([]entity.Payment, error) {
	defer r.s.rlock(r.inTx)()
	var out []entity.Payment
	for _, p := range r.s.payments {
		if p.CustomerID == customerID && !p.Date.After(until) {
			out = append(out, p)
		}
	}
	return sortedPayments(out), nil
}

func (r PaymentRepo) ListByInvoiceIDs(_ context.Context, invoiceIDs []string) ([]entity.Payment, error) {
	defer r.s.rlock(r.inTx)()
	var out []entity.Payment
	for _, p := range r.s.payments {
		if slices.Contains(invoiceIDs, p.InvoiceID) {
			out = append(out, p)
		}
	}
	return sortedPayments(out), nil
}

func (r PaymentRepo) SumByInvoice(_ context.Context, invoiceID string) (decimal.Decimal, error) {
	defer r.s.rlock(r.inTx)()
	total := decimal.Zero
	for _, p := range r.s.payments {
		if p.InvoiceID == invoiceID {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func sortedPayments(list []entity.Payment) []entity.Payment {
	slices.SortStableFunc(list, func(a, b entity.Payment) int {
		return cmp.Or(a.Date.Compare(b.Date), cmp.Compare(a.ID, b.ID))
	})
	return list
}

// ── catálogo ─────────────────────────────────────────────────────────────────

// ProductRepo productos del volcado.
type ProductRepo struct {
	s    *Store
	inTx bool
}

func (r ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	defer r.s.rlock(r.inTx)()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// CustomerRepo clientes del volcado.
type CustomerRepo struct {
	s    *Store
	inTx bool
}

func (r CustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	defer r.s.rlock(r.inTx)()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}
