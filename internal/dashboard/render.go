package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"contracts-backend/internal/contracts"
)

// urgencyWidth fits the longest tier name plus the column gap.
const urgencyWidth = len(TierCritical) + 2

var tierColors = map[Tier]*color.Color{
	TierCritical: color.New(color.FgRed, color.Bold),
	TierWarning:  color.New(color.FgYellow),
	TierNormal:   color.New(color.FgGreen),
}

// Render writes a plain-text dashboard to w.
func Render(w io.Writer, view View) error {
	s := view.Summary
	if _, err := fmt.Fprintf(w, "Contracts: %d   Active value: %s   Expiring in 30 days: %d\n\n",
		s.Total, humanize.CommafWithDigits(s.TotalValue, 2), s.ExpiringIn30Days); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tCOUNT")
	for _, status := range contracts.AllStatuses {
		fmt.Fprintf(tw, "%s\t%d\n", status, s.ByStatus[status])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\nExpiring within %d days:\n", view.WindowDays); err != nil {
		return err
	}
	if len(view.Expiring) == 0 {
		_, err := fmt.Fprintln(w, "  none")
		return err
	}

	// Escape codes differ in length per tier, so the coloured column stays
	// outside the tabwriter and is padded to a fixed width instead.
	var table bytes.Buffer
	tw = tabwriter.NewWriter(&table, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAYS\tEND DATE\tDOCUMENT\tCLIENT\tDOCUMENT ID")
	for _, item := range view.Expiring {
		c := item.Contract
		end := ""
		if c.EndDate != nil {
			end = c.EndDate.Format("2006-01-02")
		}
		name := c.DocumentName
		if name == "" {
			name = "-"
		}
		client := c.ClientName
		if client == "" {
			client = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", item.DaysUntilExpiry, end, name, client, c.DocumentID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	lines := strings.Split(strings.TrimRight(table.String(), "\n"), "\n")
	if _, err := fmt.Fprintf(w, "%-*s%s\n", urgencyWidth, "URGENCY", lines[0]); err != nil {
		return err
	}
	for i, item := range view.Expiring {
		tier := fmt.Sprintf("%-*s", urgencyWidth, item.Urgency)
		if _, err := fmt.Fprintf(w, "%s%s\n", tierColors[item.Urgency].Sprint(tier), lines[i+1]); err != nil {
			return err
		}
	}
	return nil
}
