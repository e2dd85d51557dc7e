package domain

import "time"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Address      string    `json:"address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	FirstTime    bool      `json:"first_time"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
	User        User   `json:"user"`
}

// Actor is the authenticated store owner attached to a request context.
type Actor struct {
	UserID string
	Store  string
}

type Product struct {
	ID        string    `json:"id"`
	Store     string    `json:"store"`
	Name      string    `json:"name"`
	Cost      Number    `json:"cost"`
	Price     Number    `json:"price"`
	Qty       int       `json:"qty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductRequest struct {
	Name  string `json:"name"`
	Cost  Number `json:"cost"`
	Price Number `json:"price"`
	Qty   int    `json:"qty"`
}

type LineItem struct {
	Name  string `json:"name"`
	Price Number `json:"price"`
	Qty   Number `json:"qty"`
	Total Number `json:"total"`
}

// Invoice mirrors the records written at sale time. Total is the legacy
// field older clients wrote instead of Amount.
type Invoice struct {
	ID       string     `json:"id"`
	Store    string     `json:"store"`
	Date     FlexDate   `json:"date"`
	Customer string     `json:"customer"`
	Phone    string     `json:"phone"`
	Items    []LineItem `json:"items"`
	Amount   Number     `json:"amount"`
	Paid     Number     `json:"paid"`
	Status   string     `json:"status"`
	Total    Number     `json:"total,omitempty"`
	PrevPaid Number     `json:"prev_paid,omitempty"`
}

type InvoiceRequest struct {
	Customer string     `json:"customer"`
	Phone    string     `json:"phone"`
	Date     string     `json:"date"`
	Items    []LineItem `json:"items"`
	Paid     Number     `json:"paid"`
	Status   string     `json:"status"`
}

type InvoiceFilter struct {
	Status string
	Query  string
	Period string
}

type CartLine struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type CheckoutRequest struct {
	Mode     string     `json:"mode"`
	Items    []CartLine `json:"items"`
	Customer string     `json:"customer"`
	Phone    string     `json:"phone"`
	Date     string     `json:"date"`
	Status   string     `json:"status"`
	Paid     Number     `json:"paid"`
}

type CheckoutResponse struct {
	Invoice  *Invoice    `json:"invoice,omitempty"`
	Report   ReportEntry `json:"report"`
	Products []Product   `json:"products"`
}

type ReportEntry struct {
	ID       string     `json:"id"`
	Date     FlexDate   `json:"date"`
	Store    string     `json:"store"`
	Items    []LineItem `json:"items"`
	Amount   Number     `json:"amount"`
	Paid     Number     `json:"paid"`
	Due      Number     `json:"due"`
	Status   string     `json:"status"`
	Type     string     `json:"type"`
	Customer string     `json:"customer"`
	Phone    string     `json:"phone"`
}

type ReportFilter struct {
	Period string
	Date   string
	Query  string
}

type ReportSummary struct {
	Count  int     `json:"count"`
	Items  int     `json:"items"`
	Amount float64 `json:"amount"`
	Paid   float64 `json:"paid"`
	Due    float64 `json:"due"`
}

type ReportListResponse struct {
	Period  string        `json:"period"`
	Entries []ReportEntry `json:"entries"`
	Summary ReportSummary `json:"summary"`
}

type MessageTemplates struct {
	Store     string    `json:"store"`
	WhatsApp  string    `json:"whatsapp"`
	SMS       string    `json:"sms"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TemplateRequest struct {
	WhatsApp string `json:"whatsapp"`
	SMS      string `json:"sms"`
}

type Reminder struct {
	InvoiceIDs  []string `json:"invoice_ids"`
	Customer    string   `json:"customer"`
	Phone       string   `json:"phone"`
	Balance     float64  `json:"balance"`
	WhatsAppMsg string   `json:"whatsapp_message"`
	SMSMsg      string   `json:"sms_message"`
	WhatsAppURL string   `json:"whatsapp_url"`
	SMSURL      string   `json:"sms_url"`
}

type Series struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

type Totals struct {
	Count      int     `json:"count"`
	PaidSum    float64 `json:"paid_sum"`
	RevenueSum float64 `json:"revenue_sum"`
}

type Axis struct {
	Step float64 `json:"step"`
	Max  float64 `json:"max"`
}

type DashboardResponse struct {
	Period       string  `json:"period"`
	Series       Series  `json:"series"`
	Axis         Axis    `json:"axis"`
	Totals       Totals  `json:"totals"`
	ProductCount int     `json:"product_count"`
	Outstanding  float64 `json:"outstanding"`
	GeneratedAt  string  `json:"generated_at"`
}

type Snapshot struct {
	Version   int               `json:"version"`
	Store     string            `json:"store"`
	CreatedAt time.Time         `json:"created_at"`
	User      *User             `json:"user,omitempty"`
	Products  []Product         `json:"products"`
	Invoices  []Invoice         `json:"invoices"`
	Reports   []ReportEntry     `json:"reports"`
	Templates *MessageTemplates `json:"templates,omitempty"`
}

type Backup struct {
	ID        string    `json:"id"`
	Store     string    `json:"store"`
	Trigger   string    `json:"trigger"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`
}

type RestoreResponse struct {
	BackupID string `json:"backup_id"`
	Products int    `json:"products"`
	Invoices int    `json:"invoices"`
	Reports  int    `json:"reports"`
}

const (
	InvoiceStatusPaid   = "paid"
	InvoiceStatusUnpaid = "unpaid"
)

const (
	CheckoutModeSell   = "sell"
	CheckoutModeRecord = "record"
)

const (
	ReportTypeSale  = "sale"
	DefaultCustomer = "Walk-in Customer"
	DefaultPhone    = "+252000000000"
)

const (
	BackupTriggerManual = "manual"
	BackupTriggerAuto   = "auto"
	SnapshotVersion     = 1
)
