package emit

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"phiextract/internal/services"
)

// Output file names.
const (
	FileDifficulty   = "difficulty.csv"
	FileInfo         = "info.csv"
	FileSingle       = "single.txt"
	FileIllustration = "illustration.txt"
	FileCollection   = "collection.tsv"
	FileAvatar       = "avatar.txt"
	FileAvatarKeys   = "tmp.tsv"
	FileTips         = "tips.txt"
)

// Quote selects how fields containing the delimiter are written.
type Quote int

const (
	// QuoteNone writes fields verbatim.
	QuoteNone Quote = iota
	// QuoteLegacy wraps a field containing a comma in double quotes and
	// leaves embedded quotes untouched.
	QuoteLegacy
	// QuoteStandard applies RFC 4180 quoting.
	QuoteStandard
)

// ParseQuote maps a configured quoting mode to a Quote.
func ParseQuote(mode string) (Quote, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "legacy":
		return QuoteLegacy, nil
	case "standard":
		return QuoteStandard, nil
	case "none":
		return QuoteNone, nil
	default:
		return QuoteNone, fmt.Errorf("unknown quoting mode %q", mode)
	}
}

// Format describes the on-disk shape of a table.
type Format struct {
	Delimiter rune
	Quote     Quote
}

// Common formats.
var (
	CSV = Format{Delimiter: ',', Quote: QuoteLegacy}
	TSV = Format{Delimiter: '\t', Quote: QuoteNone}
)

// Table is a named set of rows with an optional header line.
type Table struct {
	File   string
	Header []string
	Rows   [][]string
	Format Format
}

// List builds a one-column table without a header.
func List(file string, items []string) Table {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item})
	}
	return Table{File: file, Rows: rows, Format: TSV}
}

// Emit writes table into dir, replacing any existing file. Every line,
// including the last, ends with a newline.
func Emit(dir string, table Table) (err error) {
	path := filepath.Join(dir, table.File)
	file, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrWrite, "emit", "create", table.File, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = services.Wrap(services.ErrWrite, "emit", "close", table.File, cerr)
		}
	}()

	w := bufio.NewWriter(file)
	if err := write(w, table); err != nil {
		return services.Wrap(services.ErrWrite, "emit", "write", table.File, err)
	}
	if err := w.Flush(); err != nil {
		return services.Wrap(services.ErrWrite, "emit", "flush", table.File, err)
	}
	return nil
}

func write(w *bufio.Writer, table Table) error {
	if table.Format.Quote == QuoteStandard {
		cw := csv.NewWriter(w)
		cw.Comma = table.Format.Delimiter
		if len(table.Header) > 0 {
			if err := cw.Write(table.Header); err != nil {
				return err
			}
		}
		for _, row := range table.Rows {
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}

	if len(table.Header) > 0 {
		if err := writeLine(w, table.Header, table.Format); err != nil {
			return err
		}
	}
	for _, row := range table.Rows {
		if err := writeLine(w, row, table.Format); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w *bufio.Writer, fields []string, f Format) error {
	delim := string(f.Delimiter)
	for i, field := range fields {
		if i > 0 {
			if _, err := w.WriteString(delim); err != nil {
				return err
			}
		}
		if f.Quote == QuoteLegacy && strings.Contains(field, ",") {
			field = `"` + field + `"`
		}
		if _, err := w.WriteString(field); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}
