package reporting

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sort"
	"time"

	"go.uber.org/zap"

	cashdeskapp "github.com/lostcode-dev/cashdesk/internal/application/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
)

// Ensure StatementReporter satisfies the application-layer contract
var _ cashdeskapp.ClosingStatementReporter = (*StatementReporter)(nil)

const statementContentType = "application/pdf"

// StatementReporterConfig holds the collaborators and tuning knobs for the
// closing statement reporter.
type StatementReporterConfig struct {
	Renderer PDFRenderer
	Storage  ObjectStorageService
	// RenderTimeout bounds a single PDF render (default: 30s)
	RenderTimeout time.Duration
	// URLExpiration bounds the presigned download URL (default: 15m)
	URLExpiration time.Duration
	Logger        *zap.Logger
}

// StatementReporter renders a pt-BR closing statement for a just-closed cash
// session, stores the PDF and hands back a presigned download URL.
type StatementReporter struct {
	renderer      PDFRenderer
	storage       ObjectStorageService
	renderTimeout time.Duration
	urlExpiration time.Duration
	tmpl          *template.Template
	logger        *zap.Logger
}

// NewStatementReporter creates a new StatementReporter
func NewStatementReporter(cfg StatementReporterConfig) (*StatementReporter, error) {
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("statement reporter requires a renderer")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("statement reporter requires object storage")
	}

	if cfg.RenderTimeout == 0 {
		cfg.RenderTimeout = 30 * time.Second
	}
	if cfg.URLExpiration == 0 {
		cfg.URLExpiration = 15 * time.Minute
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.New("closing_statement").Parse(statementTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse statement template: %w", err)
	}

	return &StatementReporter{
		renderer:      cfg.Renderer,
		storage:       cfg.Storage,
		renderTimeout: cfg.RenderTimeout,
		urlExpiration: cfg.URLExpiration,
		tmpl:          tmpl,
		logger:        logger,
	}, nil
}

// statementView is the data bound to the statement template. All money and
// date values arrive pre-formatted in pt-BR convention.
type statementView struct {
	SessionID      string
	OpenedAt       string
	ClosedAt       string
	OpeningAmount  string
	ExpectedAmount string
	CountedAmount  string
	Difference     string
	Classification string
	EntryCount     int64
	Methods        []methodTotalView
	Entries        []entryView
	GeneratedAt    string
}

type methodTotalView struct {
	Label string
	Total string
}

type entryView struct {
	OccurredAt string
	Kind       string
	Category   string
	Method     string
	Amount     string
	Negative   bool
	Notes      string
}

// GenerateStatement renders, stores and publishes the closing statement.
// It returns a presigned URL for the stored PDF.
func (r *StatementReporter) GenerateStatement(ctx context.Context, report *cashdesk.ClosingReport, entries []cashdesk.LedgerEntry) (string, error) {
	if report == nil {
		return "", fmt.Errorf("closing report is required")
	}

	view := r.buildView(report, entries)

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render statement template: %w", err)
	}

	result, err := r.renderer.Render(ctx, &RenderRequest{
		HTML:    buf.String(),
		Title:   "Fechamento de Caixa " + report.SessionID.String(),
		Timeout: r.renderTimeout,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render statement PDF: %w", err)
	}

	key := statementKey(report)
	if err := r.storage.Upload(ctx, key, result.PDFData, statementContentType); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to store statement PDF", err)
	}

	url, _, err := r.storage.GenerateDownloadURL(ctx, key, r.urlExpiration)
	if err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to presign statement URL", err)
	}

	r.logger.Info("Closing statement published",
		zap.String("cash_session_id", report.SessionID.String()),
		zap.String("storage_key", key),
		zap.Int("pdf_bytes", len(result.PDFData)),
	)

	return url, nil
}

func (r *StatementReporter) buildView(report *cashdesk.ClosingReport, entries []cashdesk.LedgerEntry) statementView {
	view := statementView{
		SessionID:      report.SessionID.String(),
		OpenedAt:       formatDateTimeBR(report.OpenedAt),
		ClosedAt:       formatDateTimeBR(report.ClosedAt),
		OpeningAmount:  formatBRL(report.OpeningAmount),
		ExpectedAmount: formatBRL(report.ExpectedAmount),
		CountedAmount:  formatBRL(report.CountedAmount),
		Difference:     formatBRL(report.Difference),
		Classification: classificationLabel(report.Classification),
		EntryCount:     report.EntryCount,
		GeneratedAt:    formatDateTimeBR(time.Now()),
	}

	// Stable method ordering for the totals table
	methods := make([]cashdesk.PaymentMethod, 0, len(report.TotalsByMethod))
	for m := range report.TotalsByMethod {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	for _, m := range methods {
		view.Methods = append(view.Methods, methodTotalView{
			Label: methodLabel(m),
			Total: formatBRL(report.TotalsByMethod[m]),
		})
	}

	for _, e := range entries {
		view.Entries = append(view.Entries, entryView{
			OccurredAt: formatDateTimeBR(e.OccurredAt),
			Kind:       kindLabel(e.Kind, e.Variant),
			Category:   e.Category,
			Method:     methodLabel(e.Method),
			Amount:     formatBRL(e.Amount),
			Negative:   e.Amount.IsNegative(),
			Notes:      e.Notes,
		})
	}

	return view
}

// statementKey builds the storage key for a session's closing statement.
// One statement per session; a close retry overwrites the same object.
func statementKey(report *cashdesk.ClosingReport) string {
	return fmt.Sprintf("statements/%s/%s.pdf", report.TenantID, report.SessionID)
}

const statementTemplate = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="UTF-8">
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 12px; color: #1a1a1a; }
  h1 { font-size: 18px; margin-bottom: 2px; }
  .muted { color: #666; }
  table { width: 100%; border-collapse: collapse; margin-top: 12px; }
  th, td { padding: 6px 8px; text-align: left; border-bottom: 1px solid #ddd; }
  th { background: #f5f5f5; text-transform: uppercase; font-size: 10px; letter-spacing: 0.05em; }
  td.amount, th.amount { text-align: right; white-space: nowrap; }
  .negative { color: #b00020; }
  .summary { margin-top: 16px; }
  .summary td:first-child { width: 40%; color: #666; }
  .classification { font-weight: bold; margin-top: 8px; }
  footer { margin-top: 24px; font-size: 10px; color: #999; }
</style>
</head>
<body>
  <h1>Fechamento de Caixa</h1>
  <div class="muted">Sessão {{.SessionID}}</div>
  <div class="muted">Abertura: {{.OpenedAt}} &middot; Fechamento: {{.ClosedAt}}</div>

  <table class="summary">
    <tr><td>Valor de abertura</td><td class="amount">{{.OpeningAmount}}</td></tr>
    <tr><td>Valor esperado</td><td class="amount">{{.ExpectedAmount}}</td></tr>
    <tr><td>Valor contado</td><td class="amount">{{.CountedAmount}}</td></tr>
    <tr><td>Diferença</td><td class="amount">{{.Difference}}</td></tr>
    <tr><td>Lançamentos</td><td class="amount">{{.EntryCount}}</td></tr>
  </table>
  <div class="classification">{{.Classification}}</div>

  {{if .Methods}}
  <h1>Totais por método</h1>
  <table>
    <tr><th>Método</th><th class="amount">Total</th></tr>
    {{range .Methods}}
    <tr><td>{{.Label}}</td><td class="amount">{{.Total}}</td></tr>
    {{end}}
  </table>
  {{end}}

  {{if .Entries}}
  <h1>Movimentações</h1>
  <table>
    <tr><th>Data</th><th>Tipo</th><th>Categoria</th><th>Método</th><th class="amount">Valor</th><th>Observações</th></tr>
    {{range .Entries}}
    <tr>
      <td>{{.OccurredAt}}</td>
      <td>{{.Kind}}</td>
      <td>{{.Category}}</td>
      <td>{{.Method}}</td>
      <td class="amount{{if .Negative}} negative{{end}}">{{.Amount}}</td>
      <td>{{.Notes}}</td>
    </tr>
    {{end}}
  </table>
  {{end}}

  <footer>Gerado em {{.GeneratedAt}}</footer>
</body>
</html>`
