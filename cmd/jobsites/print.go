package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"relocation/internal/resolver"
)

func outputFormat(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("output")
	return f
}

type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) *printer {
	return &printer{w: w, format: format}
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

type resultView struct {
	Update      bool       `json:"update"`
	Status      string     `json:"status"`
	Source      string     `json:"source"`
	Location    string     `json:"location"`
	RegionCode  string     `json:"region_code,omitempty"`
	RegionLabel string     `json:"region_label,omitempty"`
	Sites       []siteView `json:"sites"`
}

type siteView struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// result prints one resolution. Updates from a background refresh are
// marked so they can be told apart from the first answer.
func (p *printer) result(res resolver.Result, update bool) error {
	if p.format == "json" {
		v := resultView{
			Update:      update,
			Status:      res.Status.String(),
			Source:      res.Source.String(),
			Location:    res.Key,
			RegionCode:  res.RegionCode,
			RegionLabel: res.RegionLabel,
			Sites:       make([]siteView, 0, len(res.Sites)),
		}
		for _, s := range res.Sites {
			v.Sites = append(v.Sites, siteView(s))
		}
		return p.json(v)
	}

	prefix := ""
	if update {
		prefix = "Updated: "
	}
	switch {
	case res.ManualSelectionRequired():
		_, err := fmt.Fprintln(p.w, "Could not determine your country. Pick one with --region (see 'jobsites regions').")
		return err
	case res.Empty():
		_, err := fmt.Fprintf(p.w, "%sNo job sites found for %s.\n", prefix, res.RegionLabel)
		return err
	}

	if _, err := fmt.Fprintf(p.w, "%sJob sites in %s (%s)\n", prefix, res.RegionLabel, res.Source); err != nil {
		return err
	}
	rows := make([][]string, 0, len(res.Sites))
	for _, s := range res.Sites {
		rows = append(rows, []string{s.Name, s.URL, s.Description})
	}
	return p.table([]string{"NAME", "URL", "DESCRIPTION"}, rows)
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
