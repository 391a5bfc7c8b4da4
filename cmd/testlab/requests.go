package main

import (
	"fmt"
	"os"
	"testlab/internal/apperr"
	. "testlab/internal/models"
	"testlab/internal/utils"

	"github.com/spf13/cobra"
)

var (
	listLimit  int
	listOffset int
	reportOut  string

	submitRequest struct {
		customerName  string
		company       string
		phone         string
		email         string
		testItemType  string
		standards     string
		message       string
		preferredDate string
	}
)

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Work with submitted test requests",
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List test requests in submission order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := connect()
		if err != nil {
			return err
		}

		page, err := r.query.TestRequests(cmd.Context(), listLimit, listOffset)
		if err != nil {
			return err
		}

		w := newTable()
		fmt.Fprintln(w, "ID\tSUBMITTED\tCUSTOMER\tPHONE\tITEM TYPE")
		for _, tr := range page.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				tr.ID, formatNanos(tr.SubmittedAt), tr.CustomerName, tr.Phone, TestItemTypeLabel(tr.TestItemType))
		}
		printPageFooter(w, len(page.Items), page.Limit, page.Offset, page.Version)
		return w.Flush()
	},
}

var requestsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one test request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := connect()
		if err != nil {
			return err
		}

		record, err := r.query.TestRequest(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		tr, ok := record.Get()
		if !ok {
			return apperr.NotFound("test request not found")
		}

		w := newTable()
		printTestRequest(w, tr)
		return w.Flush()
	},
}

var requestsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a test request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := connect()
		if err != nil {
			return err
		}

		if _, err := r.query.DeleteTestRequest(cmd.Context(), args[0]).Wait(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}

var requestsReportCmd = &cobra.Command{
	Use:   "report <id>",
	Short: "Render the printable HTML report for a test request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := connect()
		if err != nil {
			return err
		}

		html, err := r.http.TestRequestReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if reportOut == "" || reportOut == "-" {
			_, err = os.Stdout.Write(html)
			return err
		}
		if err := os.WriteFile(reportOut, html, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Println("Wrote", reportOut)
		return nil
	},
}

var requestsSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a test request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		request := SubmitTestRequestRequest{
			CustomerName: submitRequest.customerName,
			Company:      OptionalString(submitRequest.company),
			Phone:        submitRequest.phone,
			Email:        OptionalString(submitRequest.email),
			TestItemType: submitRequest.testItemType,
			Standards:    OptionalString(submitRequest.standards),
			Message:      OptionalString(submitRequest.message),
		}
		if submitRequest.preferredDate != "" {
			nanos, ok := utils.ParseDate(submitRequest.preferredDate)
			if !ok {
				return apperr.ValidationField("preferredDate", "unrecognised date")
			}
			request.PreferredDate = Some(nanos)
		}

		return submitAndPrint(func(r remote) (string, error) {
			return r.query.SubmitTestRequest(cmd.Context(), request).Wait(cmd.Context())
		})
	},
}

var itemTypesCmd = &cobra.Command{
	Use:   "item-types",
	Short: "List the test item types offered on the booking form",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := connect()
		if err != nil {
			return err
		}

		itemTypes, err := r.http.TestItemTypes(cmd.Context())
		if err != nil {
			return err
		}

		w := newTable()
		fmt.Fprintln(w, "VALUE\tLABEL")
		for _, itemType := range itemTypes {
			fmt.Fprintf(w, "%s\t%s\n", itemType.Value, itemType.Label)
		}
		return w.Flush()
	},
}

func submitAndPrint(submit func(r remote) (string, error)) error {
	r, err := connect()
	if err != nil {
		return err
	}

	id, err := submit(r)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum number of records")
	cmd.Flags().IntVar(&listOffset, "offset", 0, "Records to skip")
}

func init() {
	addPageFlags(requestsListCmd)
	requestsReportCmd.Flags().StringVarP(&reportOut, "output", "o", "", "Write the report to a file instead of stdout")

	flags := requestsSubmitCmd.Flags()
	flags.StringVar(&submitRequest.customerName, "name", "", "Customer name (required)")
	flags.StringVar(&submitRequest.company, "company", "", "Company")
	flags.StringVar(&submitRequest.phone, "phone", "", "Phone number (required)")
	flags.StringVar(&submitRequest.email, "email", "", "Email address")
	flags.StringVar(&submitRequest.testItemType, "item-type", "", "Test item type (required)")
	flags.StringVar(&submitRequest.standards, "standards", "", "Standards to test against")
	flags.StringVar(&submitRequest.message, "message", "", "Additional message")
	flags.StringVar(&submitRequest.preferredDate, "preferred-date", "", "Preferred date, e.g. 2026-01-15 or 15/01/2026")

	requestsCmd.AddCommand(requestsListCmd)
	requestsCmd.AddCommand(requestsGetCmd)
	requestsCmd.AddCommand(requestsDeleteCmd)
	requestsCmd.AddCommand(requestsReportCmd)
	requestsCmd.AddCommand(requestsSubmitCmd)
	requestsCmd.AddCommand(itemTypesCmd)
}
