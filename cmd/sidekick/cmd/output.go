package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	apiclient "github.com/zhuliguang/Sidekick/internal/api/client"
	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printLeaguesTable(w io.Writer, resp *apiclient.LeaguesResponse) error {
	tw := newTabWriter(w)
	tw.writef("ID\tNAME\tREALM\tSELECTED\n")
	for i := range resp.Leagues {
		l := &resp.Leagues[i]
		selected := ""
		if l.ID == resp.Selected {
			selected = "*"
		}
		realm := l.Realm
		if realm == "" {
			realm = "-"
		}
		tw.writef("%s\t%s\t%s\t%s\n", l.ID, l.Text, realm, selected)
	}
	return tw.finish()
}

func printStatusDetail(w io.Writer, st *apiclient.StatusResponse) error {
	selected := st.SelectedLeague
	if selected == "" {
		selected = "-"
	}
	tw := newTabWriter(w)
	tw.writef("State:\t%s\n", st.State)
	tw.writef("Ready:\t%v\n", st.Ready)
	tw.writef("Busy:\t%v\n", st.Busy)
	tw.writef("Leagues:\t%d\n", st.Leagues)
	tw.writef("Selected:\t%s\n", selected)
	return tw.finish()
}

func printQueryDetail(w io.Writer, q *apiclient.QueryResponse) error {
	tw := newTabWriter(w)
	tw.writef("Query:\t%s (%s)\n", q.ID, q.Kind)
	tw.writef("Total:\t%d\n", q.Total)
	tw.writef("URL:\t%s\n", q.URI)
	tw.writef("IDs:\t%d\n", len(q.Result))
	return tw.finish()
}

func printListingsTable(w io.Writer, resp *apiclient.ListingsResponse) error {
	tw := newTabWriter(w)
	tw.writef("Showing %d of %d listings for %s query %s\n",
		len(resp.Result), resp.Total, resp.Kind, resp.ID)
	if resp.URI != "" {
		tw.writef("%s\n", resp.URI)
	}
	tw.writef("\nID\tPRICE\tSELLER\tINDEXED\n")
	for i := range resp.Result {
		r := &resp.Result[i]
		indexed := "-"
		if !r.Listing.Indexed.IsZero() {
			indexed = r.Listing.Indexed.Local().Format(time.DateTime)
		}
		tw.writef("%s\t%s\t%s\t%s\n",
			truncate(r.ID, 16),
			r.Listing.Price.String(),
			sellerName(&r.Listing.Account),
			indexed,
		)
	}
	return tw.finish()
}

func sellerName(a *domain.Account) string {
	switch {
	case a.LastCharacterName != "" && a.Name != "":
		return a.Name + " (" + a.LastCharacterName + ")"
	case a.Name != "":
		return a.Name
	default:
		return "-"
	}
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
