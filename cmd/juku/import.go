package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"juku/internal/core"
)

var importPaymentsCmd = &cobra.Command{
	Use:   "import-payments <file.yaml>",
	Short: "Import payments exported from the old single-table layout",
	Long: `Import payments from a YAML list. Rows with a zero amount and no
payment date only carried a payment method; they become method overrides.

  - billing_type: contract
    ref_id: 12
    period: 2026-04
    billed_amount: 35000
    paid_amount: 35000
    payment_date: 2026-04-27
    payment_method: direct_debit`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runImportPayments),
}

func init() {
	rootCmd.AddCommand(importPaymentsCmd)
}

// legacyPayment is one row of the import file.
type legacyPayment struct {
	ID           int64  `yaml:"id"`
	BillingType  string `yaml:"billing_type"`
	RefID        int64  `yaml:"ref_id"`
	Period       string `yaml:"period"`
	BilledAmount int64  `yaml:"billed_amount"`
	PaidAmount   int64  `yaml:"paid_amount"`
	PaymentDate  string `yaml:"payment_date"`
	Method       string `yaml:"payment_method"`
	Followup     string `yaml:"followup"`
	Notes        string `yaml:"notes"`
}

func decodeLegacyPayments(r io.Reader) ([]core.Payment, error) {
	var rows []legacyPayment
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rows); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse payments yaml: %w", err)
	}

	out := make([]core.Payment, 0, len(rows))
	for i, row := range rows {
		p, err := row.toPayment()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (l legacyPayment) toPayment() (core.Payment, error) {
	period, err := core.ParsePeriod(l.Period)
	if err != nil {
		return core.Payment{}, err
	}
	key := core.ItemKey{Type: core.BillingType(l.BillingType), RefID: l.RefID, Period: period}
	if err := key.Validate(); err != nil {
		return core.Payment{}, err
	}
	if l.BilledAmount < 0 || l.PaidAmount < 0 {
		return core.Payment{}, core.ErrInvalidAmount
	}
	method := core.PaymentMethod(l.Method)
	if method != "" {
		if err := method.Validate(); err != nil {
			return core.Payment{}, err
		}
	}
	date, err := parseDate(l.PaymentDate)
	if err != nil {
		return core.Payment{}, err
	}
	followup := core.FollowupStatus(l.Followup)
	if followup == "" {
		followup = core.FollowupNone
	}
	return core.Payment{
		ID:           l.ID,
		Key:          key,
		BilledAmount: core.Yen(l.BilledAmount),
		PaidAmount:   core.Yen(l.PaidAmount),
		PaymentDate:  date,
		Method:       method,
		Followup:     followup,
		Notes:        l.Notes,
	}, nil
}

func runImportPayments(ctx context.Context, a *app, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	payments, err := decodeLegacyPayments(bytes.NewReader(data))
	if err != nil {
		return err
	}
	stats, err := a.repo.ImportLegacy(ctx, payments)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d payments, %d method overrides (%d skipped)\n", stats.Records, stats.Overrides, stats.Skipped)
	return nil
}
