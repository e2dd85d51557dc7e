package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/store"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
}

var _ store.Repository = (*Store)(nil)

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, name, email, address, phone, password_hash, first_time, created_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Address, &u.Phone, &u.PasswordHash, &u.FirstTime, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, user.Name, strings.TrimSpace(user.Email), user.Address, user.Phone, user.PasswordHash, user.FirstTime, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) FindUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, store.ErrNotFound
	}
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE lower(name) = lower($1) OR (email <> '' AND lower(email) = lower($1))
		ORDER BY created_at
		LIMIT 1
	`, login))
}

func (s *Store) UpdateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $2, email = $3, address = $4, phone = $5, password_hash = $6, first_time = $7
		WHERE id = $1
	`, user.ID, user.Name, strings.TrimSpace(user.Email), user.Address, user.Phone, user.PasswordHash, user.FirstTime)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, user.ID)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY lower(name)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, 16)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

const productColumns = `id, store, name, cost, price, qty, updated_at`

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p           domain.Product
		cost, price float64
	)
	if err := row.Scan(&p.ID, &p.Store, &p.Name, &cost, &price, &p.Qty, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	p.Cost = domain.Number(cost)
	p.Price = domain.Number(price)
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context, storeName string) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE store_key = $1
		ORDER BY lower(name), id
	`, store.StoreKey(storeName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, storeName string, id string) (*domain.Product, error) {
	return scanProduct(s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE store_key = $1 AND id = $2
	`, store.StoreKey(storeName), id))
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = time.Now().UTC()
	}
	if err := insertProduct(ctx, s.db, product); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &product, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertProduct(ctx context.Context, db execer, p domain.Product) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO products (store_key, `+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, store.StoreKey(p.Store), p.ID, p.Store, p.Name, p.Cost.Float(), p.Price.Float(), max(0, p.Qty), p.UpdatedAt)
	return err
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $3, cost = $4, price = $5, qty = $6, updated_at = $7
		WHERE store_key = $1 AND id = $2
	`, store.StoreKey(product.Store), product.ID, product.Name, product.Cost.Float(), product.Price.Float(), max(0, product.Qty), product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) DeleteProduct(ctx context.Context, storeName string, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE store_key = $1 AND id = $2`, store.StoreKey(storeName), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) Checkout(ctx context.Context, storeName string, lines []domain.CartLine, build store.SaleBuilder) (*domain.CheckoutResponse, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", store.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	key := store.StoreKey(storeName)
	locked := make(map[string]domain.Product, len(lines))
	demand := make(map[string]int, len(lines))
	order := make([]string, 0, len(lines))
	products := make([]domain.Product, 0, len(lines))
	for _, line := range lines {
		if line.Qty < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", store.ErrInvalidInput)
		}
		p, ok := locked[line.ProductID]
		if !ok {
			row := tx.QueryRowContext(ctx, `
				SELECT `+productColumns+`
				FROM products
				WHERE store_key = $1 AND id = $2
				FOR UPDATE
			`, key, line.ProductID)
			found, err := scanProduct(row)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, line.ProductID)
				}
				return nil, err
			}
			p = *found
			locked[p.ID] = p
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

	resp := &domain.CheckoutResponse{Report: report}
	if invoice != nil {
		if err := insertInvoice(ctx, tx, *invoice); err != nil {
			if isUniqueViolation(err) {
				return nil, store.ErrConflict
			}
			return nil, err
		}
		dup := *invoice
		resp.Invoice = &dup
	}
	if err := insertReport(ctx, tx, report); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	now := time.Now().UTC()
	resp.Products = make([]domain.Product, 0, len(order))
	for _, id := range order {
		p := locked[id]
		p.Qty = max(0, p.Qty-demand[id])
		p.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, `
			UPDATE products SET qty = $3, updated_at = $4 WHERE store_key = $1 AND id = $2
		`, key, id, p.Qty, now); err != nil {
			return nil, err
		}
		resp.Products = append(resp.Products, p)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return resp, nil
}

const invoiceColumns = `id, store, date, customer, phone, items, amount, paid, status, total, prev_paid`

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var (
		inv                           domain.Invoice
		date                          string
		items                         []byte
		amount, paid, total, prevPaid float64
	)
	if err := row.Scan(&inv.ID, &inv.Store, &date, &inv.Customer, &inv.Phone, &items, &amount, &paid, &inv.Status, &total, &prevPaid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := decodeItems(items, &inv.Items); err != nil {
		return nil, err
	}
	inv.Date = domain.FlexDate(date)
	inv.Amount = domain.Number(amount)
	inv.Paid = domain.Number(paid)
	inv.Total = domain.Number(total)
	inv.PrevPaid = domain.Number(prevPaid)
	return &inv, nil
}

func insertInvoice(ctx context.Context, db execer, inv domain.Invoice) error {
	items, err := encodeItems(inv.Items)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO invoices (store_key, `+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, store.StoreKey(inv.Store), inv.ID, inv.Store, inv.Date.String(), inv.Customer, inv.Phone, items,
		inv.Amount.Float(), inv.Paid.Float(), inv.Status, inv.Total.Float(), inv.PrevPaid.Float())
	return err
}

func (s *Store) ListInvoices(ctx context.Context, storeName string) ([]domain.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices WHERE store_key = $1 ORDER BY seq
	`, store.StoreKey(storeName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]domain.Invoice, 0, 64)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (s *Store) GetInvoice(ctx context.Context, storeName string, id string) (*domain.Invoice, error) {
	return scanInvoice(s.db.QueryRowContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices WHERE store_key = $1 AND id = $2
	`, store.StoreKey(storeName), id))
}

func (s *Store) CreateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	if err := insertInvoice(ctx, s.db, invoice); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &invoice, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	items, err := encodeItems(invoice.Items)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE invoices
		SET date = $3, customer = $4, phone = $5, items = $6, amount = $7, paid = $8,
		    status = $9, total = $10, prev_paid = $11
		WHERE store_key = $1 AND id = $2
	`, store.StoreKey(invoice.Store), invoice.ID, invoice.Date.String(), invoice.Customer, invoice.Phone, items,
		invoice.Amount.Float(), invoice.Paid.Float(), invoice.Status, invoice.Total.Float(), invoice.PrevPaid.Float())
	if err != nil {
		return nil, err
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (s *Store) DeleteInvoice(ctx context.Context, storeName string, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE store_key = $1 AND id = $2`, store.StoreKey(storeName), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

const reportColumns = `id, store, date, items, amount, paid, due, status, type, customer, phone`

func scanReport(row rowScanner) (*domain.ReportEntry, error) {
	var (
		entry             domain.ReportEntry
		date              string
		items             []byte
		amount, paid, due float64
	)
	if err := row.Scan(&entry.ID, &entry.Store, &date, &items, &amount, &paid, &due, &entry.Status, &entry.Type, &entry.Customer, &entry.Phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := decodeItems(items, &entry.Items); err != nil {
		return nil, err
	}
	entry.Date = domain.FlexDate(date)
	entry.Amount = domain.Number(amount)
	entry.Paid = domain.Number(paid)
	entry.Due = domain.Number(due)
	return &entry, nil
}

func insertReport(ctx context.Context, db execer, entry domain.ReportEntry) error {
	items, err := encodeItems(entry.Items)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO reports (store_key, `+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, store.StoreKey(entry.Store), entry.ID, entry.Store, entry.Date.String(), items,
		entry.Amount.Float(), entry.Paid.Float(), entry.Due.Float(), entry.Status, entry.Type, entry.Customer, entry.Phone)
	return err
}

func (s *Store) ListReports(ctx context.Context, storeName string) ([]domain.ReportEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reportColumns+` FROM reports WHERE store_key = $1 ORDER BY seq
	`, store.StoreKey(storeName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.ReportEntry, 0, 64)
	for rows.Next() {
		entry, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (s *Store) CreateReport(ctx context.Context, entry domain.ReportEntry) (*domain.ReportEntry, error) {
	if err := insertReport(ctx, s.db, entry); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &entry, nil
}

func (s *Store) DeleteReport(ctx context.Context, storeName string, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE store_key = $1 AND id = $2`, store.StoreKey(storeName), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) ClearReports(ctx context.Context, storeName string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE store_key = $1`, store.StoreKey(storeName))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) GetTemplates(ctx context.Context, storeName string) (*domain.MessageTemplates, error) {
	var tpl domain.MessageTemplates
	err := s.db.QueryRowContext(ctx, `
		SELECT store, whatsapp, sms, updated_at FROM message_templates WHERE store_key = $1
	`, store.StoreKey(storeName)).Scan(&tpl.Store, &tpl.WhatsApp, &tpl.SMS, &tpl.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

func (s *Store) SaveTemplates(ctx context.Context, templates domain.MessageTemplates) (*domain.MessageTemplates, error) {
	if templates.UpdatedAt.IsZero() {
		templates.UpdatedAt = time.Now().UTC()
	}
	if err := upsertTemplates(ctx, s.db, templates); err != nil {
		return nil, err
	}
	return &templates, nil
}

func upsertTemplates(ctx context.Context, db execer, tpl domain.MessageTemplates) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO message_templates (store_key, store, whatsapp, sms, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (store_key)
		DO UPDATE SET store = EXCLUDED.store, whatsapp = EXCLUDED.whatsapp, sms = EXCLUDED.sms, updated_at = EXCLUDED.updated_at
	`, store.StoreKey(tpl.Store), tpl.Store, tpl.WhatsApp, tpl.SMS, tpl.UpdatedAt)
	return err
}

func (s *Store) CreateBackup(ctx context.Context, backup domain.Backup) (*domain.Backup, error) {
	if backup.Snapshot == nil {
		return nil, fmt.Errorf("%w: backup without snapshot", store.ErrInvalidInput)
	}
	payload, err := json.Marshal(backup.Snapshot)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO backups (id, store_key, store, trigger_kind, size_bytes, created_at, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, backup.ID, store.StoreKey(backup.Store), backup.Store, backup.Trigger, backup.SizeBytes, backup.CreatedAt, payload)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	backup.Snapshot = nil
	return &backup, nil
}

func (s *Store) ListBackups(ctx context.Context, storeName string) ([]domain.Backup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store, trigger_kind, size_bytes, created_at
		FROM backups
		WHERE store_key = $1
		ORDER BY created_at DESC
	`, store.StoreKey(storeName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	backups := make([]domain.Backup, 0, 16)
	for rows.Next() {
		var b domain.Backup
		if err := rows.Scan(&b.ID, &b.Store, &b.Trigger, &b.SizeBytes, &b.CreatedAt); err != nil {
			return nil, err
		}
		backups = append(backups, b)
	}
	return backups, rows.Err()
}

func (s *Store) GetBackup(ctx context.Context, storeName string, id string) (*domain.Backup, error) {
	var (
		b       domain.Backup
		payload []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, store, trigger_kind, size_bytes, created_at, snapshot
		FROM backups
		WHERE store_key = $1 AND id = $2
	`, store.StoreKey(storeName), id).Scan(&b.ID, &b.Store, &b.Trigger, &b.SizeBytes, &b.CreatedAt, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode backup %s: %w", id, err)
	}
	b.Snapshot = &snap
	return &b, nil
}

func (s *Store) LatestBackupAt(ctx context.Context, storeName string) (time.Time, bool, error) {
	var latest sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT max(created_at) FROM backups WHERE store_key = $1
	`, store.StoreKey(storeName)).Scan(&latest)
	if err != nil {
		return time.Time{}, false, err
	}
	return latest.Time, latest.Valid, nil
}

func (s *Store) ReplaceStoreData(ctx context.Context, storeName string, snapshot domain.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	key := store.StoreKey(storeName)
	for _, table := range []string{"products", "invoices", "reports", "message_templates"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE store_key = $1`, key); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	now := time.Now().UTC()
	for _, p := range snapshot.Products {
		p.Store = storeName
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
		if err := insertProduct(ctx, tx, p); err != nil {
			return fmt.Errorf("restore product %s: %w", p.ID, err)
		}
	}
	for _, inv := range snapshot.Invoices {
		inv.Store = storeName
		if err := insertInvoice(ctx, tx, inv); err != nil {
			return fmt.Errorf("restore invoice %s: %w", inv.ID, err)
		}
	}
	for _, entry := range snapshot.Reports {
		entry.Store = storeName
		if err := insertReport(ctx, tx, entry); err != nil {
			return fmt.Errorf("restore report %s: %w", entry.ID, err)
		}
	}
	if snapshot.Templates != nil {
		tpl := *snapshot.Templates
		tpl.Store = storeName
		if tpl.UpdatedAt.IsZero() {
			tpl.UpdatedAt = now
		}
		if err := upsertTemplates(ctx, tx, tpl); err != nil {
			return fmt.Errorf("restore templates: %w", err)
		}
	}

	return tx.Commit()
}

func encodeItems(items []domain.LineItem) ([]byte, error) {
	if items == nil {
		items = []domain.LineItem{}
	}
	return json.Marshal(items)
}

func decodeItems(raw []byte, dst *[]domain.LineItem) error {
	if len(raw) == 0 {
		*dst = []domain.LineItem{}
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
