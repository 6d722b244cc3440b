// zutaxctl is the operator CLI: TIN validation, IRN inspection, HSN lookup
// and proof-artifact verification without going through the API.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	domfirs "github.com/zulaiy/zutax-api/internal/domain/firs"
	"github.com/zulaiy/zutax-api/internal/infrastructure/qrsign"
	pkgfirs "github.com/zulaiy/zutax-api/pkg/firs"
)

func main() {
	root := &cobra.Command{
		Use:           "zutaxctl",
		Short:         "Operator tooling for the FIRS e-invoicing engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(tinCmd())
	root.AddCommand(irnCmd())
	root.AddCommand(hsnCmd())
	root.AddCommand(verifyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func tinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tin [tin ...]",
		Short: "Validate one or more Taxpayer Identification Numbers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := pkgfirs.ValidateTINs(args)
			invalid := 0
			for _, r := range results {
				if r.Valid {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tvalid\n", r.TIN)
					continue
				}
				invalid++
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tinvalid\t%s\n", r.TIN, r.Reason)
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d TINs invalid", invalid, len(results))
			}
			return nil
		},
	}
	return cmd
}

func irnCmd() *cobra.Command {
	var serviceID string
	var issueDate string

	cmd := &cobra.Command{
		Use:   "irn <invoice-number-or-irn>",
		Short: "Generate an IRN for an invoice number, or parse an existing one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := args[0]

			if strings.Count(arg, "-") == 2 && serviceID == "" {
				parts, err := domfirs.ParseIRN(arg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "invoice number:\t%s\nservice ID:\t%s\ndate:\t\t%s\n",
					parts.InvoiceNumber, parts.ServiceID, parts.IssueDate.Format("2006-01-02"))
				return nil
			}

			if serviceID == "" {
				return fmt.Errorf("--service-id is required to generate an IRN")
			}
			date := time.Now().UTC()
			if issueDate != "" {
				var err error
				date, err = time.Parse("2006-01-02", issueDate)
				if err != nil {
					return fmt.Errorf("parse --date: %w", err)
				}
			}
			irn, err := domfirs.GenerateIRN(arg, serviceID, date)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), irn)
			return nil
		},
	}
	cmd.Flags().StringVar(&serviceID, "service-id", "", "8-character FIRS service ID")
	cmd.Flags().StringVar(&issueDate, "date", "", "issue date (YYYY-MM-DD, default today)")
	return cmd
}

func hsnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hsn <code-or-search-term>",
		Short: "Look up an HSN code or search the catalogue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := args[0]
			if ok, _ := pkgfirs.ValidateHSNCode(arg); ok {
				if h, found := pkgfirs.LookupHSN(arg); found {
					return printJSON(cmd, h)
				}
				return fmt.Errorf("HSN %s not in catalogue", arg)
			}
			matches := pkgfirs.SearchHSN(arg)
			if len(matches) == 0 {
				return fmt.Errorf("no catalogue entries match %q", arg)
			}
			return printJSON(cmd, matches)
		},
	}
	return cmd
}

func verifyCmd() *cobra.Command {
	var keyPath, certPath, invoicePath string

	cmd := &cobra.Command{
		Use:   "verify <artifact-data>",
		Short: "Verify a proof artifact's signature and, optionally, its content digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := qrsign.NewSigner(keyPath, certPath)
			if err != nil {
				return err
			}
			var canonical []byte
			if invoicePath != "" {
				canonical, err = os.ReadFile(invoicePath)
				if err != nil {
					return fmt.Errorf("read canonical invoice: %w", err)
				}
			}
			if err := signer.Verify(args[0], canonical); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "artifact OK")
			return nil
		},
	}
	cmd.Flags().StringVar(&keyPath, "key", "", "PEM private key path")
	cmd.Flags().StringVar(&certPath, "cert", "", "PEM certificate path")
	cmd.Flags().StringVar(&invoicePath, "invoice", "", "canonical invoice JSON to check the content digest against")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("cert")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
