package alerts

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-reconciliation-backend/internal/services/matching"
)

func record(product, status, valueDiff string) matching.Record {
	return matching.Record{
		Key: matching.BusinessKey{
			Product:      product,
			Counterparty: "BP",
			TradeDate:    "2025-01-14",
			Direction:    "BUY",
		},
		Status:    status,
		ValueDiff: decimal.RequireFromString(valueDiff),
	}
}

func TestCriticalFiltersByThresholdAndMissing(t *testing.T) {
	mgr := NewAlertManager(decimal.NewFromInt(100), nil)

	records := []matching.Record{
		record("GAS-UK", matching.StatusMatched, "0"),
		record("PWR-GER", matching.StatusValueMismatch, "300"),   // above threshold
		record("PWR-NORDIC", matching.StatusValueMismatch, "50"), // below threshold
		record("COAL-API2", matching.StatusMissingInBank, "0"),   // missing always alerts
		record("PWR-FR", matching.StatusMissingInExchange, "10"),
	}

	critical := mgr.Critical(records)
	require.Len(t, critical, 3)
	assert.Equal(t, "PWR-GER", critical[0].Key.Product)
	assert.Equal(t, "COAL-API2", critical[1].Key.Product)
	assert.Equal(t, "PWR-FR", critical[2].Key.Product)
}

func TestCriticalUsesAbsoluteDiff(t *testing.T) {
	mgr := NewAlertManager(decimal.NewFromInt(100), nil)

	records := []matching.Record{
		record("PWR-GER", matching.StatusValueMismatch, "-300"),
	}

	assert.Len(t, mgr.Critical(records), 1)
}

func TestSummarize(t *testing.T) {
	mgr := NewAlertManager(decimal.NewFromInt(100), nil)

	records := []matching.Record{
		record("A", matching.StatusMatched, "0"),
		record("B", matching.StatusMatched, "0"),
		record("C", matching.StatusQtyMismatch, "5"),
		record("D", matching.StatusValueMismatch, "150"),
		record("E", matching.StatusMissingInBank, "-40"),
		record("F", matching.StatusMissingInExchange, "40"),
	}

	s := mgr.Summarize(records)
	assert.Equal(t, 6, s.TotalKeys)
	assert.Equal(t, 2, s.Matched)
	assert.Equal(t, 1, s.QtyMismatches)
	assert.Equal(t, 1, s.ValueMismatches)
	assert.Equal(t, 1, s.MissingInBank)
	assert.Equal(t, 1, s.MissingInExchange)
	assert.Equal(t, 3, s.CriticalAlerts)
	assert.True(t, s.TotalDiscrepancyAmt.Equal(decimal.RequireFromString("235")), "sum of |value_diff|, got %s", s.TotalDiscrepancyAmt)
}

func TestEmailSenderDisabledIsNoop(t *testing.T) {
	sender := &EmailSender{Enabled: false}
	err := sender.Send([]matching.Record{record("A", matching.StatusMissingInBank, "500")}, Summary{})
	assert.NoError(t, err)
}

func TestEmailSenderRequiresCredentials(t *testing.T) {
	sender := &EmailSender{
		Enabled: true,
		From:    "recon@example.com",
		To:      []string{"ops@example.com"},
		Host:    "smtp.example.com",
		Port:    587,
	}
	err := sender.Send([]matching.Record{record("A", matching.StatusMissingInBank, "500")}, Summary{})
	assert.Error(t, err)
}

func TestEmailMessageIsMultipartAlternative(t *testing.T) {
	sender := &EmailSender{
		From: "recon@example.com",
		To:   []string{"ops@example.com"},
	}
	critical := []matching.Record{record("GAS-UK", matching.StatusMissingInBank, "500")}
	summary := Summary{TotalKeys: 4, CriticalAlerts: 1, TotalDiscrepancyAmt: decimal.RequireFromString("500")}

	raw, err := sender.buildMessage(critical, summary)
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Reconciliation Alert: 1 issue found ($500.00)", msg.Header.Get("Subject"))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/alternative", mediaType)
	require.NotEmpty(t, params["boundary"])

	mr := multipart.NewReader(msg.Body, params["boundary"])

	textPart, err := mr.NextPart()
	require.NoError(t, err)
	assert.Contains(t, textPart.Header.Get("Content-Type"), "text/plain")
	textBody, err := io.ReadAll(textPart)
	require.NoError(t, err)
	assert.Contains(t, string(textBody), "GAS-UK")
	assert.Contains(t, string(textBody), "MISSING IN BANK")

	htmlPart, err := mr.NextPart()
	require.NoError(t, err)
	assert.Contains(t, htmlPart.Header.Get("Content-Type"), "text/html")
	htmlBody, err := io.ReadAll(htmlPart)
	require.NoError(t, err)
	assert.Contains(t, string(htmlBody), "<html>")
	assert.Contains(t, string(htmlBody), "GAS-UK")
	assert.Contains(t, string(htmlBody), "$500.00")

	_, err = mr.NextPart()
	assert.Equal(t, io.EOF, err, "exactly two alternatives")
}

func TestEmailSubject(t *testing.T) {
	sender := &EmailSender{}
	summary := Summary{TotalDiscrepancyAmt: decimal.RequireFromString("1234.5")}

	assert.Equal(t, "Reconciliation Alert: 1 issue found ($1234.50)", sender.subject(1, summary))
	assert.Equal(t, "Reconciliation Alert: 3 issues found ($1234.50)", sender.subject(3, summary))
}
