package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"juku/internal/billing"
	"juku/internal/printout"
)

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Contract billing documents",
}

var printInitialCmd = &cobra.Command{
	Use:   "initial <contract-id>",
	Short: "Two-month breakdown for a new enrollment",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runPrintInitial),
}

var printRenewalCmd = &cobra.Command{
	Use:   "renewal <contract-id>",
	Short: "Before/after comparison for a renewal contract",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runPrintRenewal),
}

func init() {
	rootCmd.AddCommand(printCmd)
	printCmd.AddCommand(printInitialCmd)
	printCmd.AddCommand(printRenewalCmd)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func runPrintInitial(ctx context.Context, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ct, err := a.repo.GetContract(ctx, id)
	if err != nil {
		return err
	}
	b, err := printout.NewPrinter(a.calc).Initial(ct)
	if err != nil {
		return err
	}

	fmt.Printf("Contract %d  %s start %s", ct.ID, ct.Grade.Label(), b.StartDate.Format(dateLayout))
	if b.HalfMonth {
		fmt.Print("  (half month)")
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "COURSE\tLESSONS\tUNIT\t%d月\t%d月\tSUBTOTAL\tDISCOUNT\n", b.FirstPeriod.Month, b.SecondPeriod.Month)
	for _, r := range b.Rows {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			r.Course, r.LessonsPerWeek, r.UnitPrice, r.FirstMonth, r.SecondMonth, r.Subtotal, r.Discount)
	}
	fmt.Fprintf(w, "Tuition\t\t\t\t\t%s\t\n", b.Tuition)
	fmt.Fprintf(w, "Facility fee\t%s\t\t\t\t%s\t\n", b.FacilityDescription, b.FacilityFee)
	fmt.Fprintf(w, "Discount (x%s)\t\t\t\t\t-%s\t\n", b.DiscountFactor, b.Discount)
	fmt.Fprintf(w, "Tax excluded\t\t\t\t\t%s\t\n", b.TaxExcluded)
	fmt.Fprintf(w, "Tax\t\t\t\t\t%s\t\n", b.Tax)
	fmt.Fprintf(w, "Tax included\t\t\t\t\t%s\t\n", b.TaxIncluded)
	fmt.Fprintf(w, "Enrollment fee\t\t\t\t\t%s\t\n", b.EnrollmentFee)
	if b.CampaignDiscount > 0 {
		fmt.Fprintf(w, "Campaign discount\t\t\t\t\t-%s\t\n", b.CampaignDiscount)
	}
	fmt.Fprintf(w, "First payment\t\t\t\t\t%s\t\n", b.FirstPayment)
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nFrom %s monthly:\n", b.RegularFrom)
	return printBlock(b.Regular)
}

func runPrintRenewal(ctx context.Context, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	next, err := a.repo.GetContract(ctx, id)
	if err != nil {
		return err
	}
	if next.PredecessorID == 0 {
		return errors.New("contract is a new enrollment; use print initial")
	}
	prev, err := a.repo.GetContract(ctx, next.PredecessorID)
	if err != nil {
		return fmt.Errorf("predecessor: %w", err)
	}
	b, err := printout.NewPrinter(a.calc).Renewal(prev, next)
	if err != nil {
		return err
	}

	fmt.Printf("Renewal of contract %d by %d, effective %s\n", prev.ID, next.ID, b.EffectiveDate.Format(dateLayout))
	fmt.Println("\nBefore:")
	if err := printBlock(b.Before); err != nil {
		return err
	}
	fmt.Println("\nAfter:")
	if err := printBlock(b.After); err != nil {
		return err
	}
	fmt.Printf("\nDifference %s per month, first direct debit %s\n", b.Difference, b.FirstDebit)
	return nil
}

func printBlock(m billing.MonthlyBlock) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COURSE\tLESSONS\tUNIT\tAMOUNT\tDISCOUNT")
	for _, l := range m.Lines {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", l.Course, l.LessonsPerWeek, l.UnitPrice, l.Amount, l.Discount)
	}
	fmt.Fprintf(w, "Tuition\t\t\t%s\t\n", m.Tuition)
	fmt.Fprintf(w, "Discount\t\t\t-%s\t\n", m.Discount)
	fmt.Fprintf(w, "Tax excluded\t\t\t%s\t\n", m.TaxExcluded)
	fmt.Fprintf(w, "Tax\t\t\t%s\t\n", m.Tax)
	fmt.Fprintf(w, "Facility fee\t\t\t%s\t\n", m.FacilityFee)
	fmt.Fprintf(w, "Tax included\t\t\t%s\t\n", m.TaxIncluded)
	return w.Flush()
}
