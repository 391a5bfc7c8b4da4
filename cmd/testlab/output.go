package main

import (
	"fmt"
	"io"
	"os"
	. "testlab/internal/models"
	"text/tabwriter"
	"time"
)

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func formatNanos(nanos int64) string {
	return time.Unix(0, nanos).Format("2006-01-02 15:04")
}

func formatDate(date Optional[int64]) string {
	if nanos, ok := date.Get(); ok {
		return time.Unix(0, nanos).Format("2006-01-02")
	}
	return "-"
}

func orDash(value Optional[string]) string {
	return value.OrElse("-")
}

func printPageFooter(w io.Writer, shown, limit, offset int, version int64) {
	fmt.Fprintf(w, "\n%d shown (limit %d, offset %d, version %d)\n", shown, limit, offset, version)
}

func printTestRequest(w io.Writer, tr TestRequest) {
	fmt.Fprintf(w, "ID:\t%s\n", tr.ID)
	fmt.Fprintf(w, "Customer:\t%s\n", tr.CustomerName)
	fmt.Fprintf(w, "Company:\t%s\n", orDash(tr.Company))
	fmt.Fprintf(w, "Phone:\t%s\n", tr.Phone)
	fmt.Fprintf(w, "Email:\t%s\n", orDash(tr.Email))
	fmt.Fprintf(w, "Item type:\t%s\n", TestItemTypeLabel(tr.TestItemType))
	fmt.Fprintf(w, "Standards:\t%s\n", orDash(tr.Standards))
	fmt.Fprintf(w, "Preferred date:\t%s\n", formatDate(tr.PreferredDate))
	fmt.Fprintf(w, "Message:\t%s\n", orDash(tr.Message))
	fmt.Fprintf(w, "Submitted:\t%s\n", formatNanos(tr.SubmittedAt))
}

func printContactSubmission(w io.Writer, cs ContactSubmission) {
	fmt.Fprintf(w, "ID:\t%s\n", cs.ID)
	fmt.Fprintf(w, "Name:\t%s\n", cs.Name)
	fmt.Fprintf(w, "Phone:\t%s\n", cs.Phone)
	fmt.Fprintf(w, "Email:\t%s\n", orDash(cs.Email))
	fmt.Fprintf(w, "Message:\t%s\n", cs.Message)
	fmt.Fprintf(w, "Submitted:\t%s\n", formatNanos(cs.SubmittedAt))
}
