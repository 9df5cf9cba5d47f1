package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"juku/internal/core"
	"juku/internal/reconcile"
	"juku/internal/services"
)

var payCmd = &cobra.Command{
	Use:   "pay <type> <ref-id> <YYYY-MM> <amount>",
	Short: "Record a received payment",
	Long: `Record money received for a billed item. The amount accepts
"35000", "35,000", "¥35,000" or "35000円". Recording again replaces the
previous amount.`,
	Args: cobra.ExactArgs(4),
	RunE: withApp(runPay),
}

var toggleMethodCmd = &cobra.Command{
	Use:   "toggle-method <type> <ref-id> <YYYY-MM>",
	Short: "Switch an item between direct debit and bank transfer",
	Args:  cobra.ExactArgs(3),
	RunE:  withApp(runToggleMethod),
}

var setMethodCmd = &cobra.Command{
	Use:   "set-method <type> <ref-id> <YYYY-MM> <direct_debit|bank_transfer>",
	Short: "Set the payment method of an item, paid or not",
	Args:  cobra.ExactArgs(4),
	RunE:  withApp(runSetMethod),
}

var deletePaymentCmd = &cobra.Command{
	Use:   "delete-payment <type> <ref-id> <YYYY-MM>",
	Short: "Remove the payment and method override of an item",
	Args:  cobra.ExactArgs(3),
	RunE:  withApp(runDeletePayment),
}

var (
	payDate     string
	payMethod   string
	payFollowup string
	payNotes    string
)

func init() {
	rootCmd.AddCommand(payCmd)
	rootCmd.AddCommand(toggleMethodCmd)
	rootCmd.AddCommand(setMethodCmd)
	rootCmd.AddCommand(deletePaymentCmd)

	payCmd.Flags().StringVar(&payDate, "date", "", "payment date YYYY-MM-DD")
	payCmd.Flags().StringVar(&payMethod, "method", "", "direct_debit or bank_transfer (default keeps the current method)")
	payCmd.Flags().StringVar(&payFollowup, "followup", "", "followup status (none, contacted, promised, resolved)")
	payCmd.Flags().StringVar(&payNotes, "notes", "", "free-text notes")
}

func runPay(ctx context.Context, a *app, args []string) error {
	key, err := parseKey(args)
	if err != nil {
		return err
	}
	amount, err := core.ParseYen(args[3])
	if err != nil {
		return fmt.Errorf("amount %q: %w", args[3], err)
	}
	date, err := parseDate(payDate)
	if err != nil {
		return err
	}
	res, err := a.payments.Record(ctx, services.RecordRequest{
		Key:         key,
		PaidAmount:  amount,
		PaymentDate: date,
		Method:      core.PaymentMethod(payMethod),
		Followup:    core.FollowupStatus(payFollowup),
		Notes:       payNotes,
	})
	if err != nil {
		return err
	}
	printResult(key, res)
	return nil
}

func runToggleMethod(ctx context.Context, a *app, args []string) error {
	key, err := parseKey(args)
	if err != nil {
		return err
	}
	res, err := a.payments.ToggleMethod(ctx, key)
	if err != nil {
		return err
	}
	printResult(key, res)
	return nil
}

func runSetMethod(ctx context.Context, a *app, args []string) error {
	key, err := parseKey(args)
	if err != nil {
		return err
	}
	res, err := a.payments.SetMethod(ctx, key, core.PaymentMethod(args[3]))
	if err != nil {
		return err
	}
	printResult(key, res)
	return nil
}

func runDeletePayment(ctx context.Context, a *app, args []string) error {
	key, err := parseKey(args)
	if err != nil {
		return err
	}
	removed, err := a.payments.Delete(ctx, key)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("%s: nothing recorded\n", key)
		return nil
	}
	fmt.Printf("%s: payment deleted\n", key)
	return nil
}

func printResult(key core.ItemKey, res reconcile.Result) {
	fmt.Printf("%s: billed %s, paid %s, %s (%s)\n",
		key, res.Item.BilledAmount, res.PaidAmount, res.Status.Label(), res.Method.Label())
	if res.Status == core.StatusDiscrepancy {
		fmt.Printf("  %s %s\n", reconcile.DifferenceLabel(res.Difference), res.Difference)
	}
}
