package main

import (
	"fmt"
	"testlab/internal/apperr"
	. "testlab/internal/models"

	"github.com/spf13/cobra"
)

var contactForm struct {
	name    string
	phone   string
	email   string
	message string
}

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Work with contact form submissions",
}

var contactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contact submissions in submission order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := connect()
		if err != nil {
			return err
		}

		page, err := r.query.ContactSubmissions(cmd.Context(), listLimit, listOffset)
		if err != nil {
			return err
		}

		w := newTable()
		fmt.Fprintln(w, "ID\tSUBMITTED\tNAME\tPHONE\tEMAIL")
		for _, cs := range page.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cs.ID, formatNanos(cs.SubmittedAt), cs.Name, cs.Phone, orDash(cs.Email))
		}
		printPageFooter(w, len(page.Items), page.Limit, page.Offset, page.Version)
		return w.Flush()
	},
}

var contactsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one contact submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := connect()
		if err != nil {
			return err
		}

		record, err := r.query.ContactSubmission(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cs, ok := record.Get()
		if !ok {
			return apperr.NotFound("contact submission not found")
		}

		w := newTable()
		printContactSubmission(w, cs)
		return w.Flush()
	},
}

var contactsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a contact submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := connect()
		if err != nil {
			return err
		}

		if _, err := r.query.DeleteContactSubmission(cmd.Context(), args[0]).Wait(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}

var contactsSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Send a contact form message",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		request := SubmitContactFormRequest{
			Name:    contactForm.name,
			Phone:   contactForm.phone,
			Email:   OptionalString(contactForm.email),
			Message: contactForm.message,
		}

		return submitAndPrint(func(r remote) (string, error) {
			return r.query.SubmitContactForm(cmd.Context(), request).Wait(cmd.Context())
		})
	},
}

func init() {
	addPageFlags(contactsListCmd)

	flags := contactsSubmitCmd.Flags()
	flags.StringVar(&contactForm.name, "name", "", "Your name (required)")
	flags.StringVar(&contactForm.phone, "phone", "", "Phone number (required)")
	flags.StringVar(&contactForm.email, "email", "", "Email address")
	flags.StringVar(&contactForm.message, "message", "", "Message (required)")

	contactsCmd.AddCommand(contactsListCmd)
	contactsCmd.AddCommand(contactsGetCmd)
	contactsCmd.AddCommand(contactsDeleteCmd)
	contactsCmd.AddCommand(contactsSubmitCmd)
}
