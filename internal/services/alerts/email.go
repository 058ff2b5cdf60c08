package alerts

import (
	"bytes"
	"fmt"
	"html"
	"log"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"trade-reconciliation-backend/internal/config"
	"trade-reconciliation-backend/internal/services/matching"
)

// EmailSender mails critical alerts over SMTP with STARTTLS.
//
// Configuration via environment variables:
//   - EMAIL_ENABLED: "true" to enable
//   - EMAIL_FROM: sender address
//   - EMAIL_TO: comma-separated recipients
//   - SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD
type EmailSender struct {
	Enabled  bool
	From     string
	To       []string
	Host     string
	Port     int
	User     string
	Password string
}

// NewEmailSenderFromEnv builds a sender from the environment. Returns a
// disabled sender unless EMAIL_ENABLED=true and recipients are set.
func NewEmailSenderFromEnv() *EmailSender {
	s := &EmailSender{
		Enabled:  strings.EqualFold(config.GetEnv("EMAIL_ENABLED", "false"), "true"),
		From:     config.GetEnv("EMAIL_FROM", "reconciliation@company.com"),
		Host:     config.GetEnv("SMTP_HOST", "smtp.gmail.com"),
		Port:     config.GetEnvAsInt("SMTP_PORT", 587),
		User:     config.GetEnv("SMTP_USER", ""),
		Password: config.GetEnv("SMTP_PASSWORD", ""),
	}
	for _, addr := range strings.Split(config.GetEnv("EMAIL_TO", ""), ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			s.To = append(s.To, addr)
		}
	}
	if s.Enabled && len(s.To) == 0 {
		log.Println("WARN: EMAIL_ENABLED=true but EMAIL_TO is not set, disabling email alerts")
		s.Enabled = false
	}
	return s
}

// Send mails the critical record set. No-op when disabled or empty.
func (s *EmailSender) Send(critical []matching.Record, summary Summary) error {
	if !s.Enabled {
		log.Println("Email alerts disabled (EMAIL_ENABLED=false)")
		return nil
	}
	if len(critical) == 0 {
		return nil
	}
	if s.User == "" || s.Password == "" {
		return fmt.Errorf("SMTP_USER and SMTP_PASSWORD must be set")
	}

	msg, err := s.buildMessage(critical, summary)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	auth := smtp.PlainAuth("", s.User, s.Password, s.Host)

	if err := smtp.SendMail(addr, auth, s.From, s.To, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	log.Printf("Email sent successfully to %s", strings.Join(s.To, ", "))
	return nil
}

func (s *EmailSender) subject(alertCount int, summary Summary) string {
	plural := ""
	if alertCount != 1 {
		plural = "s"
	}
	return fmt.Sprintf("Reconciliation Alert: %d issue%s found ($%s)",
		alertCount, plural, summary.TotalDiscrepancyAmt.StringFixed(2))
}

// buildMessage assembles a multipart/alternative mail with a plain-text
// part and an HTML part, so clients pick whichever they render.
func (s *EmailSender) buildMessage(critical []matching.Record, summary Summary) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/plain; charset="UTF-8"`},
	})
	if err != nil {
		return nil, err
	}
	if _, err := text.Write([]byte(s.textBody(critical, summary))); err != nil {
		return nil, err
	}

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/html; charset="UTF-8"`},
	})
	if err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write([]byte(s.htmlBody(critical, summary))); err != nil {
		return nil, err
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(s.To, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", s.subject(len(critical), summary))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", mw.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

func (s *EmailSender) textBody(critical []matching.Record, summary Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RECONCILIATION ALERT\r\n%s\r\n%s\r\n\r\n",
		time.Now().Format("January 2, 2006 at 15:04"), strings.Repeat("=", 70))
	fmt.Fprintf(&b, "SUMMARY\r\n")
	fmt.Fprintf(&b, "Total Keys:          %d\r\n", summary.TotalKeys)
	fmt.Fprintf(&b, "Alerts Found:        %d\r\n", summary.CriticalAlerts)
	fmt.Fprintf(&b, "Total Discrepancy:   $%s\r\n\r\n", summary.TotalDiscrepancyAmt.StringFixed(2))
	fmt.Fprintf(&b, "DETAILS\r\n%s\r\n", strings.Repeat("-", 70))

	for _, rec := range critical {
		fmt.Fprintf(&b, "%s | %s | %s | %s\r\n",
			rec.Key.Product, rec.Key.Counterparty, rec.Key.TradeDate, rec.Key.Direction)
		fmt.Fprintf(&b, "Status: %s  Bank: $%s  Exchange: $%s  Diff: $%s\r\n",
			rec.Status, rec.BankValue.StringFixed(2), rec.ExchangeValue.StringFixed(2), rec.ValueDiff.StringFixed(2))
		fmt.Fprintf(&b, "%s\r\n", strings.Repeat("-", 70))
	}

	b.WriteString("\r\n---\r\nAutomated Reconciliation Pipeline\r\n")
	return b.String()
}

func (s *EmailSender) htmlBody(critical []matching.Record, summary Summary) string {
	var rows strings.Builder
	for _, rec := range critical {
		fmt.Fprintf(&rows, `<tr style="border-bottom: 1px solid #e5e7eb;">
<td style="padding: 12px 8px; font-weight: 500;">%s</td>
<td style="padding: 12px 8px;">%s</td>
<td style="padding: 12px 8px;">%s</td>
<td style="padding: 12px 8px;">%s</td>
<td style="padding: 12px 8px; text-align: right;">$%s</td>
<td style="padding: 12px 8px; text-align: right;">$%s</td>
<td style="padding: 12px 8px; text-align: right; font-weight: 600; color: #dc2626;">$%s</td>
</tr>
`,
			html.EscapeString(rec.Key.Product),
			html.EscapeString(rec.Key.Counterparty),
			html.EscapeString(rec.Key.TradeDate),
			html.EscapeString(rec.Status),
			rec.BankValue.StringFixed(2),
			rec.ExchangeValue.StringFixed(2),
			rec.ValueDiff.StringFixed(2))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; line-height: 1.5; color: #1f2937; background: #f9fafb; margin: 0; padding: 20px;">
<div style="max-width: 700px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden;">
<div style="background: #1f2937; color: white; padding: 24px; border-bottom: 3px solid #dc2626;">
<h1 style="margin: 0; font-size: 20px; font-weight: 600;">Reconciliation Alert</h1>
<p style="margin: 4px 0 0 0; font-size: 14px; opacity: 0.8;">%s</p>
</div>
<div style="padding: 24px; background: #fef2f2; border-bottom: 1px solid #fee2e2;">
<table style="width: 100%%; border-collapse: collapse;">
<tr><td style="padding: 6px 0; font-size: 14px;">Total Keys</td><td style="padding: 6px 0; text-align: right; font-weight: 600;">%d</td></tr>
<tr><td style="padding: 6px 0; font-size: 14px;">Alerts Found</td><td style="padding: 6px 0; text-align: right; font-weight: 600;">%d</td></tr>
<tr><td style="padding: 6px 0; font-size: 14px; font-weight: 600;">Total Discrepancy</td><td style="padding: 6px 0; text-align: right; font-weight: 700; color: #dc2626; font-size: 16px;">$%s</td></tr>
</table>
</div>
<div style="padding: 24px;">
<h2 style="margin: 0 0 16px 0; font-size: 16px; font-weight: 600; color: #374151;">Details</h2>
<table style="width: 100%%; border-collapse: collapse; font-size: 14px;">
<thead>
<tr style="border-bottom: 2px solid #e5e7eb; background: #f9fafb;">
<th style="padding: 10px 8px; text-align: left; font-weight: 600; color: #6b7280;">Product</th>
<th style="padding: 10px 8px; text-align: left; font-weight: 600; color: #6b7280;">Counterparty</th>
<th style="padding: 10px 8px; text-align: left; font-weight: 600; color: #6b7280;">Trade Date</th>
<th style="padding: 10px 8px; text-align: left; font-weight: 600; color: #6b7280;">Status</th>
<th style="padding: 10px 8px; text-align: right; font-weight: 600; color: #6b7280;">Bank</th>
<th style="padding: 10px 8px; text-align: right; font-weight: 600; color: #6b7280;">Exchange</th>
<th style="padding: 10px 8px; text-align: right; font-weight: 600; color: #6b7280;">Diff</th>
</tr>
</thead>
<tbody>
%s</tbody>
</table>
</div>
<div style="padding: 16px 24px; background: #f9fafb; border-top: 1px solid #e5e7eb; text-align: center; font-size: 12px; color: #6b7280;">
<p style="margin: 0;">Automated Reconciliation Pipeline</p>
</div>
</div>
</body>
</html>
`,
		time.Now().Format("January 2, 2006 at 15:04"),
		summary.TotalKeys,
		summary.CriticalAlerts,
		summary.TotalDiscrepancyAmt.StringFixed(2),
		rows.String())
}
