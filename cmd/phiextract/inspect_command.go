package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"phiextract/internal/extraction"
	"phiextract/internal/gamedata"
	"phiextract/internal/locator"
)

// inspectView renders one record family of a dataset.
type inspectView struct {
	name    string
	short   string
	source  string
	found   func(*extraction.Dataset) bool
	headers []string
	aligns  []columnAlignment
	rows    func(*extraction.Dataset) [][]string
}

var inspectViews = []inspectView{
	{
		name:    "songs",
		short:   "List exported songs with ratings and charters",
		source:  locator.GameInformation,
		found:   func(d *extraction.Dataset) bool { return d.HasGameInformation },
		headers: songHeaders(),
		aligns:  songAligns(),
		rows:    songRows,
	},
	{
		name:    "keys",
		short:   "List single and illustration unlock keys",
		source:  locator.GameInformation,
		found:   func(d *extraction.Dataset) bool { return d.HasGameInformation },
		headers: []string{"Kind", "Name"},
		rows: func(d *extraction.Dataset) [][]string {
			rows := make([][]string, 0, len(d.Singles)+len(d.Illustrations))
			for _, name := range d.Singles {
				rows = append(rows, []string{"single", name})
			}
			for _, name := range d.Illustrations {
				rows = append(rows, []string{"illustration", name})
			}
			return rows
		},
	},
	{
		name:    "collections",
		short:   "List merged collection items",
		source:  locator.CollectionControl,
		found:   func(d *extraction.Dataset) bool { return d.HasCollections },
		headers: []string{"Key", "Title", "SubIndex"},
		aligns:  []columnAlignment{alignLeft, alignLeft, alignRight},
		rows: func(d *extraction.Dataset) [][]string {
			rows := make([][]string, 0, len(d.Collections))
			for _, c := range d.Collections {
				rows = append(rows, []string{c.Key, c.Title, strconv.FormatInt(c.SubIndex, 10)})
			}
			return rows
		},
	},
	{
		name:    "avatars",
		short:   "List avatars and their addressable key suffixes",
		source:  locator.CollectionControl,
		found:   func(d *extraction.Dataset) bool { return d.HasCollections },
		headers: []string{"Name", "Suffix"},
		rows: func(d *extraction.Dataset) [][]string {
			rows := make([][]string, 0, len(d.Avatars))
			for _, a := range d.Avatars {
				rows = append(rows, []string{a.Name, a.Suffix})
			}
			return rows
		},
	},
	{
		name:    "tips",
		short:   "List loading screen tips",
		source:  locator.TipsProvider,
		found:   func(d *extraction.Dataset) bool { return d.HasTips },
		headers: []string{"#", "Tip"},
		aligns:  []columnAlignment{alignRight, alignLeft},
		rows: func(d *extraction.Dataset) [][]string {
			rows := make([][]string, 0, len(d.Tips))
			for i, tip := range d.Tips {
				rows = append(rows, []string{strconv.Itoa(i + 1), tip})
			}
			return rows
		},
	},
}

func songHeaders() []string {
	headers := []string{"ID", "Title", "Composer"}
	for _, tier := range gamedata.Tiers {
		headers = append(headers, tier.String())
	}
	return append(headers, "Charters")
}

func songAligns() []columnAlignment {
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft}
	for range gamedata.Tiers {
		aligns = append(aligns, alignRight)
	}
	return append(aligns, alignLeft)
}

func songRows(d *extraction.Dataset) [][]string {
	rows := make([][]string, 0, len(d.Songs.Songs))
	for i, song := range d.Songs.Songs {
		row := []string{song.ID, song.Title, song.Composer}
		row = append(row, d.Songs.Difficulty[i][1:]...)
		row = append(row, strings.Join(song.Charters(), ", "))
		rows = append(rows, row)
	}
	return rows
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show normalized records without writing any files",
	}
	for _, view := range inspectViews {
		inspectCmd.AddCommand(newInspectViewCommand(ctx, view))
	}
	return inspectCmd
}

func newInspectViewCommand(ctx *commandContext, view inspectView) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   view.name + " [archive]",
		Short: view.short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			var archive string
			if len(args) == 1 {
				archive = args[0]
			}

			// Other behaviours may be absent; only this view's source matters.
			inspectCfg := *cfg
			inspectCfg.Extraction.AllowPartial = true
			ds, _, err := extraction.New(&inspectCfg, logger).Inspect(cmd.Context(), archive)
			if err != nil {
				return err
			}
			if !view.found(ds) {
				return fmt.Errorf("%s not found in archive", view.source)
			}

			rows := view.rows(ds)
			if asJSON {
				return writeJSON(cmd, rowsToRecords(view.headers, rows))
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintf(out, "No %s found\n", view.name)
				return nil
			}
			fmt.Fprintln(out, renderTable(view.headers, rows, view.aligns))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// rowsToRecords keys each row by the lower-cased headers.
func rowsToRecords(headers []string, rows [][]string) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				record[strings.ToLower(h)] = row[i]
			}
		}
		out = append(out, record)
	}
	return out
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
