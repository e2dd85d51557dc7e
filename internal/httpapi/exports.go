package httpapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"dukaan/backend/internal/analytics"
	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/reminder"
	"dukaan/backend/internal/service"
)

func attachment(name string, ext string) string {
	return fmt.Sprintf("attachment; filename=%q", name+"."+ext)
}

func exportFormat(r *http.Request, fallback string) string {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		return fallback
	}
	return format
}

func (a *API) handleInvoiceExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	invoices, err := a.service.ListInvoices(r.Context(), invoiceFilter(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch exportFormat(r, "json") {
	case "csv":
		body, err := invoicesToCSV(invoices)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", attachment("invoices", "csv"))
		_, _ = w.Write(body)
	case "json":
		w.Header().Set("Content-Disposition", attachment("invoices", "json"))
		writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported export format %q", r.URL.Query().Get("format")))
	}
}

func invoicesToCSV(invoices []domain.Invoice) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"id", "date", "customer", "phone", "items", "amount", "paid", "balance", "status"})
	for _, inv := range invoices {
		_ = cw.Write([]string{
			inv.ID,
			inv.Date.String(),
			inv.Customer,
			inv.Phone,
			strconv.Itoa(len(inv.Items)),
			reminder.FormatMoney(analytics.Revenue(inv)),
			reminder.FormatMoney(inv.Paid.Float()),
			reminder.FormatMoney(analytics.Balance(inv)),
			inv.Status,
		})
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}

// reportRow is one printed line of a report export.
type reportRow struct {
	N         int
	Products  string
	Qty       string
	Total     string
	Paid      string
	Due       string
	Status    string
	Customer  string
	Phone     string
	Timestamp string
}

var reportHeader = []string{"#", "Products", "Qty", "Total", "Paid", "Due", "Status", "Customer", "Phone", "Timestamp"}

func reportRows(entries []domain.ReportEntry) []reportRow {
	rows := make([]reportRow, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, reportRow{
			N:         i + 1,
			Products:  service.ReportProducts(entry),
			Qty:       strconv.FormatFloat(service.ReportQty(entry), 'f', -1, 64),
			Total:     reminder.FormatMoney(entry.Amount.Float()),
			Paid:      reminder.FormatMoney(entry.Paid.Float()),
			Due:       reminder.FormatMoney(entry.Due.Float()),
			Status:    service.ReportStatus(entry),
			Customer:  entry.Customer,
			Phone:     entry.Phone,
			Timestamp: entry.Date.String(),
		})
	}
	return rows
}

func (row reportRow) cells() []string {
	return []string{strconv.Itoa(row.N), row.Products, row.Qty, row.Total, row.Paid, row.Due, row.Status, row.Customer, row.Phone, row.Timestamp}
}

func (a *API) handleReportExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	report, err := a.service.ListReports(r.Context(), reportFilter(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	actor, _ := service.ActorFromContext(r.Context())
	name := "report-" + report.Period

	switch exportFormat(r, "csv") {
	case "csv":
		body, err := reportToCSV(report)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", attachment(name, "csv"))
		_, _ = w.Write(body)
	case "html":
		body, err := reportToPrintableHTML(actor.Store, report)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
	case "pdf":
		body, err := reportToPDF(actor.Store, report)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", attachment(name, "pdf"))
		_, _ = w.Write(body)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported export format %q", r.URL.Query().Get("format")))
	}
}

func reportToCSV(report domain.ReportListResponse) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write(reportHeader)
	for _, row := range reportRows(report.Entries) {
		_ = cw.Write(row.cells())
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}

// reportHTMLTmpl auto-escapes every customer supplied field.
var reportHTMLTmpl = template.Must(template.New("report").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>{{.Store}} {{.Period}} report</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    td.num { text-align: right; }
  </style>
</head>
<body onload="window.print()">
  <h2>{{.Store}} {{.Period}} report</h2>
  <p>Entries: {{.Summary.Count}} | Amount: {{.Amount}} | Paid: {{.Paid}} | Due: {{.Due}}</p>
  <table>
    <thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
    <tbody>{{range .Rows}}<tr><td>{{.N}}</td><td>{{.Products}}</td><td class="num">{{.Qty}}</td><td class="num">{{.Total}}</td><td class="num">{{.Paid}}</td><td class="num">{{.Due}}</td><td>{{.Status}}</td><td>{{.Customer}}</td><td>{{.Phone}}</td><td>{{.Timestamp}}</td></tr>{{end}}</tbody>
  </table>
</body>
</html>
`))

type reportPage struct {
	Store   string
	Period  string
	Summary domain.ReportSummary
	Amount  string
	Paid    string
	Due     string
	Header  []string
	Rows    []reportRow
}

func newReportPage(storeName string, report domain.ReportListResponse) reportPage {
	return reportPage{
		Store:   storeName,
		Period:  report.Period,
		Summary: report.Summary,
		Amount:  reminder.FormatMoney(report.Summary.Amount),
		Paid:    reminder.FormatMoney(report.Summary.Paid),
		Due:     reminder.FormatMoney(report.Summary.Due),
		Header:  reportHeader,
		Rows:    reportRows(report.Entries),
	}
}

func reportToPrintableHTML(storeName string, report domain.ReportListResponse) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportHTMLTmpl.Execute(&buf, newReportPage(storeName, report)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// reportColumns are grid widths out of 12, one per reportHeader entry.
var reportColumns = []int{1, 2, 1, 1, 1, 1, 1, 1, 1, 2}

func reportToPDF(storeName string, report domain.ReportListResponse) ([]byte, error) {
	page := newReportPage(storeName, report)

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, page.Store+" "+page.Period+" report", props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(3, "Entries: "+strconv.Itoa(page.Summary.Count), props.Text{Size: 9}),
		text.NewCol(3, "Amount: "+page.Amount, props.Text{Size: 9}),
		text.NewCol(3, "Paid: "+page.Paid, props.Text{Size: 9}),
		text.NewCol(3, "Due: "+page.Due, props.Text{Size: 9}),
	)

	header := make([]core.Col, 0, len(reportHeader))
	for i, title := range reportHeader {
		header = append(header, text.NewCol(reportColumns[i], title, props.Text{Size: 7, Style: fontstyle.Bold}))
	}
	m.AddRow(8, header...)

	for _, row := range page.Rows {
		cells := make([]core.Col, 0, len(reportHeader))
		for i, value := range row.cells() {
			cellProps := props.Text{Size: 7}
			if i >= 2 && i <= 5 {
				cellProps.Align = align.Right
			}
			cells = append(cells, text.NewCol(reportColumns[i], value, cellProps))
		}
		m.AddRow(7, cells...)
	}

	if len(page.Rows) == 0 {
		m.AddRow(10, col.New(12).Add(text.New("No entries", props.Text{Size: 9, Top: 2})))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
