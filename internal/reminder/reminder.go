package reminder

import (
	"errors"
	"math"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"dukaan/backend/internal/analytics"
	"dukaan/backend/internal/domain"
)

const (
	DefaultWhatsApp = "Xasuusin: {customer}, lacagta lagugu leeyahay waa: {balance}.\nFadlan iska bixi dukaanka {store} ({phone})."
	DefaultSMS      = "Xasuusin: {customer}, lacagta lagugu leeyahay waa: {balance}. Fadlan iska bixi dukaanka {store} ({phone})."
	// fallbackTemplate is used when a stored template set has no WhatsApp text.
	fallbackTemplate = DefaultSMS
	countryPrefix    = "252"
)

var ErrNoPhone = errors.New("no phone number")

var placeholderPattern = regexp.MustCompile(`(?i)\{(customer|id|balance|store|phone)\}`)

var nonDigits = regexp.MustCompile(`\D`)

// Sender identifies the store a reminder is sent on behalf of.
type Sender struct {
	Store string
	Phone string
}

// Group is one customer's outstanding invoices.
type Group struct {
	Customer string
	Phone    string
	Balance  float64
	Invoices []domain.Invoice
}

func (g Group) InvoiceIDs() []string {
	ids := make([]string, 0, len(g.Invoices))
	for _, inv := range g.Invoices {
		ids = append(ids, inv.ID)
	}
	return ids
}

// DefaultTemplates returns the template set a store starts with.
func DefaultTemplates(store string) domain.MessageTemplates {
	return domain.MessageTemplates{Store: store, WhatsApp: DefaultWhatsApp, SMS: DefaultSMS}
}

// CleanPhone keeps digits only and makes sure the number carries the 252
// country prefix, dropping a single trunk zero first.
func CleanPhone(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, countryPrefix) {
		return digits
	}
	digits = strings.TrimPrefix(digits, "0")
	if !strings.HasPrefix(digits, countryPrefix) {
		digits = countryPrefix + digits
	}
	return digits
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

type Fields struct {
	Customer string
	IDs      string
	Balance  float64
	Store    string
	Phone    string
}

// Render substitutes every placeholder occurrence, matching names
// case-insensitively.
func Render(template string, f Fields) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		switch strings.ToLower(match) {
		case "{customer}":
			return f.Customer
		case "{id}":
			return f.IDs
		case "{balance}":
			return FormatMoney(f.Balance)
		case "{store}":
			return f.Store
		case "{phone}":
			return f.Phone
		}
		return match
	})
}

func WhatsAppURL(phone string, message string) string {
	return "https://wa.me/" + strings.TrimPrefix(phone, "+") + "?text=" + encodeComponent(message)
}

func SMSURL(phone string, message string) string {
	return "sms:+" + phone + "?&body=" + encodeComponent(message)
}

// componentUnescaper restores the characters encodeURIComponent leaves as is.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// ForInvoice wraps a single invoice as a reminder group.
func ForInvoice(inv domain.Invoice) Group {
	return Group{
		Customer: strings.TrimSpace(inv.Customer),
		Phone:    CleanPhone(inv.Phone),
		Balance:  analytics.Balance(inv),
		Invoices: []domain.Invoice{inv},
	}
}

// GroupInvoices collects invoices that have a phone and an outstanding
// balance, keyed by cleaned phone and trimmed customer name, in first-seen
// order.
func GroupInvoices(invoices []domain.Invoice) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, inv := range invoices {
		if strings.TrimSpace(inv.Phone) == "" {
			continue
		}
		if inv.Amount.Float()-inv.Paid.Float() <= 0 {
			continue
		}
		phone := CleanPhone(inv.Phone)
		customer := strings.TrimSpace(inv.Customer)
		key := phone + "||" + customer
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, Group{Customer: customer, Phone: phone})
		}
		groups[pos].Balance += analytics.Balance(inv)
		groups[pos].Invoices = append(groups[pos].Invoices, inv)
	}
	return groups
}

// Compose renders both channel messages for a group.
func Compose(templates domain.MessageTemplates, sender Sender, g Group) (domain.Reminder, error) {
	if g.Phone == "" {
		return domain.Reminder{}, ErrNoPhone
	}

	waTemplate := templates.WhatsApp
	if strings.TrimSpace(waTemplate) == "" {
		waTemplate = fallbackTemplate
	}
	smsTemplate := templates.SMS
	if strings.TrimSpace(smsTemplate) == "" {
		smsTemplate = waTemplate
	}

	ids := g.InvoiceIDs()
	fields := Fields{
		Customer: g.Customer,
		IDs:      strings.Join(ids, ","),
		Balance:  g.Balance,
		Store:    sender.Store,
		Phone:    sender.Phone,
	}
	wa := Render(waTemplate, fields)
	sms := Render(smsTemplate, fields)

	return domain.Reminder{
		InvoiceIDs:  ids,
		Customer:    g.Customer,
		Phone:       g.Phone,
		Balance:     g.Balance,
		WhatsAppMsg: wa,
		SMSMsg:      sms,
		WhatsAppURL: WhatsAppURL(g.Phone, wa),
		SMSURL:      SMSURL(g.Phone, sms),
	}, nil
}
