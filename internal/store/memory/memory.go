package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/logger"
	"dukaan/backend/internal/store"
	"dukaan/backend/internal/xid"
)

const DemoStore = "Demo Store"

type Store struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	products  map[string]map[string]domain.Product
	invoices  map[string][]domain.Invoice
	reports   map[string][]domain.ReportEntry
	templates map[string]domain.MessageTemplates
	backups   map[string][]domain.Backup
}

var _ store.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		users:     make(map[string]domain.User),
		products:  make(map[string]map[string]domain.Product),
		invoices:  make(map[string][]domain.Invoice),
		reports:   make(map[string][]domain.ReportEntry),
		templates: make(map[string]domain.MessageTemplates),
		backups:   make(map[string][]domain.Backup),
	}
}

// NewSeeded returns a store with one demo owner and a small catalogue. The
// owner password comes from SEED_OWNER_PASSWORD, with a dev default.
func NewSeeded() *Store {
	s := New()
	log := logger.WithComponent("memory-store")

	password := envOr("SEED_OWNER_PASSWORD", "dukaan123")
	if os.Getenv("SEED_OWNER_PASSWORD") == "" {
		log.Warn().Msg("using default dev credentials, set SEED_OWNER_PASSWORD to override")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash seed password")
	}

	now := time.Now().UTC()
	owner := domain.User{
		ID:           xid.New(xid.UserPrefix),
		Name:         DemoStore,
		Email:        "demo@dukaan.local",
		Address:      "Hodan, Mogadishu",
		Phone:        "+252615000000",
		PasswordHash: string(hash),
		FirstTime:    true,
		CreatedAt:    now,
	}
	s.users[owner.ID] = owner

	key := store.StoreKey(DemoStore)
	s.products[key] = make(map[string]domain.Product)
	for _, p := range []domain.Product{
		{Name: "Bariis 25kg", Cost: 18, Price: 22, Qty: 40},
		{Name: "Sonkor 1kg", Cost: 0.9, Price: 1.25, Qty: 120},
		{Name: "Caano Boore", Cost: 2.5, Price: 3.5, Qty: 60},
		{Name: "Saliid 3L", Cost: 6, Price: 7.75, Qty: 35},
		{Name: "Baasto 500g", Cost: 0.55, Price: 0.8, Qty: 150},
		{Name: "Shaah Jaad", Cost: 1.2, Price: 1.75, Qty: 80},
	} {
		p.ID = xid.New(xid.ProductPrefix)
		p.Store = DemoStore
		p.UpdatedAt = now
		s.products[key][p.ID] = p
	}
	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return nil, store.ErrConflict
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Name, user.Name) {
			return nil, fmt.Errorf("%w: name %s", store.ErrConflict, user.Name)
		}
		if user.Email != "" && strings.EqualFold(existing.Email, user.Email) {
			return nil, fmt.Errorf("%w: email %s", store.ErrConflict, user.Email)
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = user
	dup := user
	return &dup, nil
}

func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *Store) FindUserByLogin(_ context.Context, login string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	login = strings.TrimSpace(login)
	if login == "" {
		return nil, store.ErrNotFound
	}
	for _, user := range s.users {
		if strings.EqualFold(user.Name, login) || (user.Email != "" && strings.EqualFold(user.Email, login)) {
			dup := user
			return &dup, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.users[user.ID] = user
	dup := user
	return &dup, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return users, nil
}

func (s *Store) ListProducts(_ context.Context, storeName string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	catalog := s.products[store.StoreKey(storeName)]
	products := make([]domain.Product, 0, len(catalog))
	for _, p := range catalog {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, storeName string, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[store.StoreKey(storeName)][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := store.StoreKey(product.Store)
	catalog, ok := s.products[key]
	if !ok {
		catalog = make(map[string]domain.Product)
		s.products[key] = catalog
	}
	if _, exists := catalog[product.ID]; exists {
		return nil, store.ErrConflict
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = time.Now().UTC()
	}
	catalog[product.ID] = product
	return &product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog := s.products[store.StoreKey(product.Store)]
	if _, ok := catalog[product.ID]; !ok {
		return nil, store.ErrNotFound
	}
	product.UpdatedAt = time.Now().UTC()
	catalog[product.ID] = product
	return &product, nil
}

func (s *Store) DeleteProduct(_ context.Context, storeName string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog := s.products[store.StoreKey(storeName)]
	if _, ok := catalog[id]; !ok {
		return store.ErrNotFound
	}
	delete(catalog, id)
	return nil
}

func (s *Store) Checkout(_ context.Context, storeName string, lines []domain.CartLine, build store.SaleBuilder) (*domain.CheckoutResponse, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := store.StoreKey(storeName)
	catalog := s.products[key]
	demand := make(map[string]int, len(lines))
	order := make([]string, 0, len(lines))
	products := make([]domain.Product, 0, len(lines))
	for _, line := range lines {
		if line.Qty < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", store.ErrInvalidInput)
		}
		p, ok := catalog[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, line.ProductID)
		}
		if _, seen := demand[p.ID]; !seen {
			order = append(order, p.ID)
		}
		demand[p.ID] += line.Qty
		if demand[p.ID] > p.Qty {
			return nil, fmt.Errorf("%w: %s", store.ErrInsufficientStock, p.Name)
		}
		products = append(products, p)
	}

	invoice, report, err := build(products)
	if err != nil {
		return nil, err
	}
	if invoice != nil && indexOfInvoice(s.invoices[key], invoice.ID) >= 0 {
		return nil, store.ErrConflict
	}
	if indexOfReport(s.reports[key], report.ID) >= 0 {
		return nil, store.ErrConflict
	}

	resp := &domain.CheckoutResponse{Report: cloneReport(report)}
	if invoice != nil {
		s.invoices[key] = append(s.invoices[key], cloneInvoice(*invoice))
		dup := cloneInvoice(*invoice)
		resp.Invoice = &dup
	}
	s.reports[key] = append(s.reports[key], cloneReport(report))

	now := time.Now().UTC()
	resp.Products = make([]domain.Product, 0, len(order))
	for _, id := range order {
		p := catalog[id]
		p.Qty = max(0, p.Qty-demand[id])
		p.UpdatedAt = now
		catalog[id] = p
		resp.Products = append(resp.Products, p)
	}
	return resp, nil
}

func (s *Store) ListInvoices(_ context.Context, storeName string) ([]domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.invoices[store.StoreKey(storeName)]
	invoices := make([]domain.Invoice, 0, len(src))
	for _, inv := range src {
		invoices = append(invoices, cloneInvoice(inv))
	}
	return invoices, nil
}

func (s *Store) GetInvoice(_ context.Context, storeName string, id string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.invoices[store.StoreKey(storeName)]
	idx := indexOfInvoice(src, id)
	if idx < 0 {
		return nil, store.ErrNotFound
	}
	dup := cloneInvoice(src[idx])
	return &dup, nil
}

func (s *Store) CreateInvoice(_ context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := store.StoreKey(invoice.Store)
	if indexOfInvoice(s.invoices[key], invoice.ID) >= 0 {
		return nil, store.ErrConflict
	}
	s.invoices[key] = append(s.invoices[key], cloneInvoice(invoice))
	dup := cloneInvoice(invoice)
	return &dup, nil
}

func (s *Store) UpdateInvoice(_ context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := store.StoreKey(invoice.Store)
	idx := indexOfInvoice(s.invoices[key], invoice.ID)
	if idx < 0 {
		return nil, store.ErrNotFound
	}
	s.invoices[key][idx] = cloneInvoice(invoice)
	dup := cloneInvoice(invoice)
	return &dup, nil
}

func (s *Store) DeleteInvoice(_ context.Context, storeName string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := store.StoreKey(storeName)
	idx := indexOfInvoice(s.invoices[key], id)
	if idx < 0 {
		return store.ErrNotFound
	}
	s.invoices[key] = slices.Delete(s.invoices[key], idx, idx+1)
	return nil
}

func (s *Store) ListReports(_ context.Context, storeName string) ([]domain.ReportEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.reports[store.StoreKey(storeName)]
	entries := make([]domain.ReportEntry, 0, len(src))
	for _, entry := range src {
		entries = append(entries, cloneReport(entry))
	}
	return entries, nil
}

func (s *Store) CreateReport(_ context.Context, entry domain.ReportEntry) (*domain.ReportEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := store.StoreKey(entry.Store)
	if indexOfReport(s.reports[key], entry.ID) >= 0 {
		return nil, store.ErrConflict
	}
	s.reports[key] = append(s.reports[key], cloneReport(entry))
	dup := cloneReport(entry)
	return &dup, nil
}

func (s *Store) DeleteReport(_ context.Context, storeName string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := store.StoreKey(storeName)
	idx := indexOfReport(s.reports[key], id)
	if idx < 0 {
		return store.ErrNotFound
	}
	s.reports[key] = slices.Delete(s.reports[key], idx, idx+1)
	return nil
}

func (s *Store) ClearReports(_ context.Context, storeName string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := store.StoreKey(storeName)
	removed := len(s.reports[key])
	delete(s.reports, key)
	return removed, nil
}

func (s *Store) GetTemplates(_ context.Context, storeName string) (*domain.MessageTemplates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, ok := s.templates[store.StoreKey(storeName)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &tpl, nil
}

func (s *Store) SaveTemplates(_ context.Context, templates domain.MessageTemplates) (*domain.MessageTemplates, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if templates.UpdatedAt.IsZero() {
		templates.UpdatedAt = time.Now().UTC()
	}
	s.templates[store.StoreKey(templates.Store)] = templates
	return &templates, nil
}

func (s *Store) CreateBackup(_ context.Context, backup domain.Backup) (*domain.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := store.StoreKey(backup.Store)
	for _, existing := range s.backups[key] {
		if existing.ID == backup.ID {
			return nil, store.ErrConflict
		}
	}
	s.backups[key] = append(s.backups[key], backup)
	summary := backup
	summary.Snapshot = nil
	return &summary, nil
}

// ListBackups returns backup metadata, newest first, without snapshots.
func (s *Store) ListBackups(_ context.Context, storeName string) ([]domain.Backup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.backups[store.StoreKey(storeName)]
	backups := make([]domain.Backup, 0, len(src))
	for _, b := range src {
		b.Snapshot = nil
		backups = append(backups, b)
	}
	slices.SortStableFunc(backups, func(a, b domain.Backup) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return backups, nil
}

func (s *Store) GetBackup(_ context.Context, storeName string, id string) (*domain.Backup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.backups[store.StoreKey(storeName)] {
		if b.ID == id {
			dup := b
			return &dup, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) LatestBackupAt(_ context.Context, storeName string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	found := false
	for _, b := range s.backups[store.StoreKey(storeName)] {
		if !found || b.CreatedAt.After(latest) {
			latest = b.CreatedAt
			found = true
		}
	}
	return latest, found, nil
}

func (s *Store) ReplaceStoreData(_ context.Context, storeName string, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := store.StoreKey(storeName)
	catalog := make(map[string]domain.Product, len(snapshot.Products))
	for _, p := range snapshot.Products {
		p.Store = storeName
		catalog[p.ID] = p
	}
	invoices := make([]domain.Invoice, 0, len(snapshot.Invoices))
	for _, inv := range snapshot.Invoices {
		inv.Store = storeName
		invoices = append(invoices, cloneInvoice(inv))
	}
	reports := make([]domain.ReportEntry, 0, len(snapshot.Reports))
	for _, entry := range snapshot.Reports {
		entry.Store = storeName
		reports = append(reports, cloneReport(entry))
	}

	s.products[key] = catalog
	s.invoices[key] = invoices
	s.reports[key] = reports
	if snapshot.Templates != nil {
		tpl := *snapshot.Templates
		tpl.Store = storeName
		s.templates[key] = tpl
	} else {
		delete(s.templates, key)
	}
	return nil
}

func indexOfInvoice(invoices []domain.Invoice, id string) int {
	return slices.IndexFunc(invoices, func(inv domain.Invoice) bool { return inv.ID == id })
}

func indexOfReport(entries []domain.ReportEntry, id string) int {
	return slices.IndexFunc(entries, func(e domain.ReportEntry) bool { return e.ID == id })
}

func cloneInvoice(src domain.Invoice) domain.Invoice {
	dup := src
	dup.Items = slices.Clone(src.Items)
	return dup
}

func cloneReport(src domain.ReportEntry) domain.ReportEntry {
	dup := src
	dup.Items = slices.Clone(src.Items)
	return dup
}
