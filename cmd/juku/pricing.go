package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"juku/internal/core"
	"juku/internal/pricing"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Inspect the pricing table",
}

var pricingValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a pricing table YAML (default: the configured table)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPricingValidate,
}

var pricingShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Print unit prices per course and grade category",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPricingShow,
}

func init() {
	rootCmd.AddCommand(pricingCmd)
	pricingCmd.AddCommand(pricingValidateCmd)
	pricingCmd.AddCommand(pricingShowCmd)
}

func loadTable(args []string) (*pricing.Table, string, error) {
	path := pricingFile
	if path == "" {
		path = os.Getenv("PRICING_FILE")
	}
	if len(args) > 0 {
		path = args[0]
	}
	t, err := pricing.Load(path)
	if path == "" {
		path = "(embedded)"
	}
	return t, path, err
}

func runPricingValidate(cmd *cobra.Command, args []string) error {
	t, path, err := loadTable(args)
	if err != nil {
		return fmt.Errorf("%s invalid: %w", path, err)
	}
	fmt.Printf("%s valid\n", path)
	fmt.Printf("  School year: %d\n", t.SchoolYear())
	fmt.Printf("  Courses: %d\n", len(t.Courses()))
	fmt.Printf("  Tax rate: %d%%\n", t.TaxRatePercent())
	return nil
}

func runPricingShow(cmd *cobra.Command, args []string) error {
	t, _, err := loadTable(args)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "COURSE\t")
	for _, cat := range core.Categories {
		fmt.Fprintf(w, "%s\t", cat)
	}
	fmt.Fprintln(w)
	for _, course := range t.Courses() {
		fmt.Fprintf(w, "%s\t", course)
		for _, cat := range core.Categories {
			if price, err := t.UnitPrice(course, cat); err == nil {
				fmt.Fprintf(w, "%s\t", price)
			} else {
				fmt.Fprint(w, "-\t")
			}
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nFacility fee %s (half month %s), enrollment fee %s, tax %d%%\n",
		t.FacilityFeeMonthly(), t.FacilityFeeHalfMonth(), t.EnrollmentFee(), t.TaxRatePercent())
	for n := 2; n <= core.MaxLessonsPerWeek; n++ {
		if d := t.LessonDiscount(n); d > 0 {
			fmt.Printf("  %d lessons/week: -%s\n", n, d)
		}
	}
	return nil
}
