package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"dukaan/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("already exists")
	ErrUnauthorized      = errors.New("unauthorized")
)

// SaleBuilder receives the locked products of a cart, in cart-line order,
// and returns the records to persist. Returning an error aborts the sale.
type SaleBuilder func(products []domain.Product) (*domain.Invoice, domain.ReportEntry, error)

type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	FindUserByLogin(ctx context.Context, login string) (*domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type Repository interface {
	UserStore

	ListProducts(ctx context.Context, storeName string) ([]domain.Product, error)
	GetProduct(ctx context.Context, storeName string, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, storeName string, id string) error

	// Checkout checks stock for every line, persists what build returns and
	// decrements stock, all or nothing.
	Checkout(ctx context.Context, storeName string, lines []domain.CartLine, build SaleBuilder) (*domain.CheckoutResponse, error)

	ListInvoices(ctx context.Context, storeName string) ([]domain.Invoice, error)
	GetInvoice(ctx context.Context, storeName string, id string) (*domain.Invoice, error)
	CreateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error)
	DeleteInvoice(ctx context.Context, storeName string, id string) error

	ListReports(ctx context.Context, storeName string) ([]domain.ReportEntry, error)
	CreateReport(ctx context.Context, entry domain.ReportEntry) (*domain.ReportEntry, error)
	DeleteReport(ctx context.Context, storeName string, id string) error
	ClearReports(ctx context.Context, storeName string) (int, error)

	GetTemplates(ctx context.Context, storeName string) (*domain.MessageTemplates, error)
	SaveTemplates(ctx context.Context, templates domain.MessageTemplates) (*domain.MessageTemplates, error)

	CreateBackup(ctx context.Context, backup domain.Backup) (*domain.Backup, error)
	ListBackups(ctx context.Context, storeName string) ([]domain.Backup, error)
	GetBackup(ctx context.Context, storeName string, id string) (*domain.Backup, error)
	LatestBackupAt(ctx context.Context, storeName string) (time.Time, bool, error)
	// ReplaceStoreData swaps a store's products, invoices, reports and
	// templates for the snapshot contents.
	ReplaceStoreData(ctx context.Context, storeName string, snapshot domain.Snapshot) error
}

// StoreKey is the normalised owner key used for lookups.
func StoreKey(storeName string) string {
	return strings.ToLower(storeName)
}
