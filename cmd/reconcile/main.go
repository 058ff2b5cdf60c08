package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"trade-reconciliation-backend/internal/config"
	"trade-reconciliation-backend/internal/ingest"
	"trade-reconciliation-backend/internal/models"
	"trade-reconciliation-backend/internal/report"
	"trade-reconciliation-backend/internal/services/alerts"
	"trade-reconciliation-backend/internal/services/matching"
	service "trade-reconciliation-backend/internal/services/reconciliation"
)

// Offline reconciliation: reads both ledgers from CSV files and writes the
// classified report to stdout, no database required.
func main() {
	bankFile := flag.String("bank", "", "Path to the bank clearing CSV file (required)")
	exchangeFile := flag.String("exchange", "", "Path to the exchange executions CSV file (required)")
	startStr := flag.String("start", "", "Start date for reconciliation (YYYY-MM-DD) (required)")
	endStr := flag.String("end", "", "End date for reconciliation (YYYY-MM-DD) (required)")
	zoneName := flag.String("zone", "", "Reporting time zone (defaults to RECON_TIMEZONE or Australia/Sydney)")
	format := flag.String("format", "json", "Output format: json or csv")
	flag.Parse()

	if *bankFile == "" || *exchangeFile == "" || *startStr == "" || *endStr == "" {
		fmt.Println("Error: all flags (-bank, -exchange, -start, -end) are required.")
		flag.Usage()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		log.Fatalf("Error parsing start date: %v", err)
	}
	end, err := time.Parse("2006-01-02", *endStr)
	if err != nil {
		log.Fatalf("Error parsing end date: %v", err)
	}

	zone := config.ReportingZone()
	if *zoneName != "" {
		zone, err = time.LoadLocation(*zoneName)
		if err != nil {
			log.Fatalf("Invalid zone %q: %v", *zoneName, err)
		}
	}
	policy := matching.NewKeyPolicy(zone)

	clearingFills, bankRowErrs, err := readBankCSV(*bankFile, zone)
	if err != nil {
		log.Fatalf("Bank CSV failed: %v", err)
	}
	executionFills, exchangeRowErrs, err := readExchangeCSV(*exchangeFile)
	if err != nil {
		log.Fatalf("Exchange CSV failed: %v", err)
	}
	for _, e := range bankRowErrs {
		log.Printf("WARN: bank row %d skipped: %s", e.Row, e.Message)
	}
	for _, e := range exchangeRowErrs {
		log.Printf("WARN: exchange row %d skipped: %s", e.Row, e.Message)
	}

	clearingFills = filterClearing(clearingFills, start, end)
	executionFills = filterExecutions(executionFills, start, end, zone)

	threshold := decimal.NewFromFloat(config.GetEnvAsFloat("ALERT_THRESHOLD", 100.0))
	alertMgr := alerts.NewAlertManager(threshold, alerts.NewEmailSenderFromEnv())

	svc := service.NewReconciliationService(nil, nil, policy, alertMgr)
	rep := svc.Run(clearingFills, executionFills, start, end)

	switch *format {
	case "csv":
		if err := report.WriteCSV(os.Stdout, rep.Records); err != nil {
			log.Fatalf("Failed to write CSV report: %v", err)
		}
	default:
		output, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			log.Fatalf("Failed to generate JSON report: %v", err)
		}
		fmt.Println(string(output))
	}
}

func readBankCSV(path string, zone *time.Location) ([]models.ClearingFill, []ingest.RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ingest.ParseClearingCSV(f, zone)
}

func readExchangeCSV(path string) ([]models.ExecutionFill, []ingest.RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ingest.ParseExecutionCSV(f)
}

func filterClearing(fills []models.ClearingFill, start, end time.Time) []models.ClearingFill {
	var out []models.ClearingFill
	for _, f := range fills {
		d := f.TradeDateLocal
		if !d.Before(start) && !d.After(end) {
			out = append(out, f)
		}
	}
	return out
}

func filterExecutions(fills []models.ExecutionFill, start, end time.Time, zone *time.Location) []models.ExecutionFill {
	var out []models.ExecutionFill
	for _, f := range fills {
		local := f.TradeDateUTC.In(zone)
		d := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		if !d.Before(start) && !d.After(end) {
			out = append(out, f)
		}
	}
	return out
}
