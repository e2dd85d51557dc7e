package reminder

import (
	"errors"
	"testing"

	"dukaan/backend/internal/domain"
)

func TestCleanPhone(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"+252 61 555 0101": "252615550101",
		"0615550101":       "252615550101",
		"615550101":        "252615550101",
		"(061) 555-0101":   "252615550101",
		"abc":              "",
	}
	for in, want := range cases {
		if got := CleanPhone(in); got != want {
			t.Fatalf("CleanPhone(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	if got := FormatMoney(12.5); got != "12.50" {
		t.Fatalf("expected 12.50, got %s", got)
	}
	if got := FormatMoney(0); got != "0.00" {
		t.Fatalf("expected 0.00, got %s", got)
	}
	if got := FormatMoney(1234.567); got != "1234.57" {
		t.Fatalf("expected 1234.57, got %s", got)
	}
}

func TestRenderReplacesEveryPlaceholderCaseInsensitively(t *testing.T) {
	got := Render("{Customer}/{customer} owes {BALANCE} on {id} to {store} ({phone})", Fields{
		Customer: "Amina",
		IDs:      "INV-1,INV-2",
		Balance:  7,
		Store:    "Hodan Market",
		Phone:    "+252615550101",
	})
	want := "Amina/Amina owes 7.00 on INV-1,INV-2 to Hodan Market (+252615550101)"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGroupInvoices(t *testing.T) {
	invoices := []domain.Invoice{
		{ID: "INV-1", Customer: "Amina ", Phone: "0615550101", Amount: 10, Paid: 4},
		{ID: "INV-2", Customer: "Omar", Phone: "252617770000", Amount: 20, Paid: 20},
		{ID: "INV-3", Customer: "Amina", Phone: "+252 615550101", Amount: 5, Paid: 0},
		{ID: "INV-4", Customer: "Farah", Phone: "", Amount: 50, Paid: 0},
		{ID: "INV-5", Customer: "Omar", Phone: "252617770000", Amount: 9, Paid: 1},
	}

	groups := GroupInvoices(invoices)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Customer != "Amina" || groups[0].Phone != "252615550101" || groups[0].Balance != 11 {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if ids := groups[0].InvoiceIDs(); len(ids) != 2 || ids[0] != "INV-1" || ids[1] != "INV-3" {
		t.Fatalf("unexpected invoice ids %v", ids)
	}
	if groups[1].Customer != "Omar" || groups[1].Balance != 8 {
		t.Fatalf("unexpected second group %+v", groups[1])
	}
}

func TestComposeBuildsLinks(t *testing.T) {
	group := ForInvoice(domain.Invoice{ID: "INV-9", Customer: "Amina", Phone: "0615550101", Amount: 30, Paid: 10})
	reminder, err := Compose(DefaultTemplates("Hodan Market"), Sender{Store: "Hodan Market", Phone: "+252610000000"}, group)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	wantWA := "Xasuusin: Amina, lacagta lagugu leeyahay waa: 20.00.\nFadlan iska bixi dukaanka Hodan Market (+252610000000)."
	if reminder.WhatsAppMsg != wantWA {
		t.Fatalf("unexpected whatsapp message %q", reminder.WhatsAppMsg)
	}
	if reminder.SMSMsg != "Xasuusin: Amina, lacagta lagugu leeyahay waa: 20.00. Fadlan iska bixi dukaanka Hodan Market (+252610000000)." {
		t.Fatalf("unexpected sms message %q", reminder.SMSMsg)
	}
	wantURL := "https://wa.me/252615550101?text=Xasuusin%3A%20Amina%2C%20lacagta%20lagugu%20leeyahay%20waa%3A%2020.00.%0AFadlan%20iska%20bixi%20dukaanka%20Hodan%20Market%20(%2B252610000000)."
	if reminder.WhatsAppURL != wantURL {
		t.Fatalf("unexpected whatsapp url %q", reminder.WhatsAppURL)
	}
	if reminder.SMSURL[:len("sms:+252615550101?&body=")] != "sms:+252615550101?&body=" {
		t.Fatalf("unexpected sms url %q", reminder.SMSURL)
	}
}

func TestEncodeComponentKeepsUnreservedMarks(t *testing.T) {
	got := encodeComponent("Mahadsanid! (Hodan's) *today* a+b & 100%")
	want := "Mahadsanid!%20(Hodan's)%20*today*%20a%2Bb%20%26%20100%25"
	if got != want {
		t.Fatalf("encodeComponent = %q, want %q", got, want)
	}
}

func TestComposeFallsBackToWhatsAppTemplateForSMS(t *testing.T) {
	templates := domain.MessageTemplates{WhatsApp: "Hi {customer}"}
	group := ForInvoice(domain.Invoice{ID: "INV-1", Customer: "Omar", Phone: "617770000", Amount: 3})
	reminder, err := Compose(templates, Sender{}, group)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if reminder.SMSMsg != "Hi Omar" {
		t.Fatalf("expected sms to reuse whatsapp template, got %q", reminder.SMSMsg)
	}
}

func TestComposeRequiresPhone(t *testing.T) {
	_, err := Compose(DefaultTemplates("Shop"), Sender{}, ForInvoice(domain.Invoice{ID: "INV-1", Amount: 3}))
	if !errors.Is(err, ErrNoPhone) {
		t.Fatalf("expected ErrNoPhone, got %v", err)
	}
}
