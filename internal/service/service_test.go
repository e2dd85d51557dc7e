package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"dukaan/backend/internal/cache"
	"dukaan/backend/internal/dashboard"
	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/metrics"
	"dukaan/backend/internal/store"
	"dukaan/backend/internal/store/memory"
)

const testStore = "Hodan Market"

var eat = time.FixedZone("EAT", 3*60*60)

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 14, 30, 0, 0, eat)
}

type fixture struct {
	svc  *Service
	repo *memory.Store
	ctx  context.Context
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := memory.New()
	user, err := repo.CreateUser(context.Background(), domain.User{
		ID: "USR-1", Name: testStore, Phone: "+252615111222", PasswordHash: "x", CreatedAt: fixedNow(),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	m := metrics.New(prometheus.NewRegistry())
	engine := dashboard.NewEngine(dashboard.FromRepository(repo), cache.NewMemoryDashboardCache(), time.Minute, m)
	svc := New(repo, engine, m)
	svc.SetClock(fixedNow)

	ctx := WithActor(context.Background(), domain.Actor{UserID: user.ID, Store: user.Name})
	return fixture{svc: svc, repo: repo, ctx: ctx}
}

func (f fixture) product(t *testing.T, name string, price float64, qty int) domain.Product {
	t.Helper()
	p, err := f.svc.CreateProduct(f.ctx, domain.ProductRequest{Name: name, Cost: domain.Number(price / 2), Price: domain.Number(price), Qty: qty})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func TestCallsWithoutActorAreUnauthorized(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.ListProducts(context.Background(), ""); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestProductValidationAndSearch(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.CreateProduct(f.ctx, domain.ProductRequest{Name: "  "}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank name, got %v", err)
	}
	if _, err := f.svc.CreateProduct(f.ctx, domain.ProductRequest{Name: "Sonkor", Price: -1}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative price, got %v", err)
	}
	f.product(t, "Sonkor 1kg", 1.25, 10)
	f.product(t, "Bariis 25kg", 22, 3)

	found, err := f.svc.ListProducts(f.ctx, "SONK")
	if err != nil || len(found) != 1 || found[0].Name != "Sonkor 1kg" {
		t.Fatalf("unexpected search result %+v err=%v", found, err)
	}
	all, _ := f.svc.ListProducts(f.ctx, "")
	if len(all) != 2 || all[0].Name != "Bariis 25kg" {
		t.Fatalf("expected products sorted by name, got %+v", all)
	}
	if !strings.HasPrefix(all[0].ID, "PRD-") {
		t.Fatalf("expected PRD- id, got %q", all[0].ID)
	}
}

func TestCheckoutSellPaidCreatesInvoiceAndReport(t *testing.T) {
	f := newFixture(t)
	sonkor := f.product(t, "Sonkor", 1.25, 10)
	bariis := f.product(t, "Bariis", 22, 2)

	resp, err := f.svc.Checkout(f.ctx, domain.CheckoutRequest{
		Mode:   domain.CheckoutModeSell,
		Items:  []domain.CartLine{{ProductID: sonkor.ID, Qty: 4}, {ProductID: bariis.ID, Qty: 1}},
		Status: "paid",
		Phone:  "0615333444",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if resp.Invoice == nil || !strings.HasPrefix(resp.Invoice.ID, "INV-") || !strings.HasPrefix(resp.Report.ID, "RPT-") {
		t.Fatalf("expected invoice and report ids, got %+v", resp)
	}
	if resp.Invoice.Amount != 27 || resp.Invoice.Paid != 27 || resp.Report.Due != 0 {
		t.Fatalf("unexpected amounts invoice=%+v report=%+v", resp.Invoice, resp.Report)
	}
	if resp.Invoice.Customer != domain.DefaultCustomer || resp.Report.Customer != domain.DefaultCustomer {
		t.Fatalf("expected walk-in customer default")
	}
	if resp.Report.Phone != "0615333444" || resp.Report.Type != domain.ReportTypeSale {
		t.Fatalf("unexpected report %+v", resp.Report)
	}
	if resp.Invoice.Date.String() != fixedNow().Format(time.RFC3339) {
		t.Fatalf("expected date to default to now, got %q", resp.Invoice.Date)
	}
	if len(resp.Products) != 2 || resp.Products[0].Qty != 6 || resp.Products[1].Qty != 1 {
		t.Fatalf("unexpected remaining stock %+v", resp.Products)
	}
}

func TestCheckoutUnpaidValidatesPaidRange(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Caano", 3.5, 5)

	_, err := f.svc.Checkout(f.ctx, domain.CheckoutRequest{
		Items: []domain.CartLine{{ProductID: p.ID, Qty: 2}}, Status: "unpaid", Paid: 9,
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected paid above total to be rejected, got %v", err)
	}
	if got, _ := f.svc.GetProduct(f.ctx, p.ID); got.Qty != 5 {
		t.Fatalf("expected stock untouched after rejected sale, got %d", got.Qty)
	}

	resp, err := f.svc.Checkout(f.ctx, domain.CheckoutRequest{
		Items: []domain.CartLine{{ProductID: p.ID, Qty: 2}}, Status: "unpaid", Paid: 3, Customer: "Ayaan",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if resp.Invoice.Paid != 3 || resp.Report.Due != 4 || resp.Report.Status != domain.InvoiceStatusUnpaid {
		t.Fatalf("unexpected partial payment records invoice=%+v report=%+v", resp.Invoice, resp.Report)
	}
	if resp.Report.Phone != domain.DefaultPhone {
		t.Fatalf("expected default phone on report, got %q", resp.Report.Phone)
	}
}

func TestCheckoutRecordModeWritesOnlyReport(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Saliid", 7.75, 4)

	resp, err := f.svc.Checkout(f.ctx, domain.CheckoutRequest{
		Mode: "record", Items: []domain.CartLine{{ProductID: p.ID, Qty: 2}}, Status: "unpaid", Paid: 5,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if resp.Invoice != nil {
		t.Fatalf("record mode must not create an invoice")
	}
	if resp.Report.Paid != 0 || resp.Report.Amount != 15.5 {
		t.Fatalf("unexpected report %+v", resp.Report)
	}
	invoices, _ := f.svc.ListInvoices(f.ctx, domain.InvoiceFilter{})
	if len(invoices) != 0 {
		t.Fatalf("expected no invoices, got %d", len(invoices))
	}
	if got, _ := f.svc.GetProduct(f.ctx, p.ID); got.Qty != 2 {
		t.Fatalf("expected stock decremented in record mode, got %d", got.Qty)
	}
}

func TestCheckoutRejectsEmptyCartUnknownModeAndShortStock(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Baasto", 0.8, 1)

	if _, err := f.svc.Checkout(f.ctx, domain.CheckoutRequest{}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected empty cart to be invalid, got %v", err)
	}
	if _, err := f.svc.Checkout(f.ctx, domain.CheckoutRequest{Mode: "gift", Items: []domain.CartLine{{ProductID: p.ID, Qty: 1}}}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected unknown mode to be invalid, got %v", err)
	}
	_, err := f.svc.Checkout(f.ctx, domain.CheckoutRequest{Items: []domain.CartLine{{ProductID: p.ID, Qty: 2}}})
	if !errors.Is(err, store.ErrInsufficientStock) || !strings.Contains(err.Error(), "Baasto") {
		t.Fatalf("expected insufficient stock naming the product, got %v", err)
	}
}
