// Package tableio reads and writes tables in any supported format, chosen
// explicitly or from the file extension.
package tableio

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/wdm0006/mice/pkg/io/csvio"
	iox "github.com/wdm0006/mice/pkg/io/ioutils"
	"github.com/wdm0006/mice/pkg/io/jsonlio"
	"github.com/wdm0006/mice/pkg/io/parquetio"
	"github.com/wdm0006/mice/pkg/io/xlsxio"
	tb "github.com/wdm0006/mice/pkg/table"
)

var ErrUnknownFormat = errors.New("unknown table format")

type Format string

const (
	CSV     Format = "csv"
	TSV     Format = "tsv"
	JSONL   Format = "jsonl"
	Parquet Format = "parquet"
	XLSX    Format = "xlsx"
)

// Options apply to every format that supports them.
type Options struct {
	// Format overrides detection from the extension.
	Format Format
	// Missing lists the text cells read as missing (csv, jsonl, xlsx).
	Missing []string
	// MissingOut is written for missing cells in csv output.
	MissingOut string
	// Sheet names the xlsx sheet.
	Sheet string
	// NoHeader marks csv input without a header row.
	NoHeader bool
	// Logger receives reader warnings such as widened columns.
	Logger *slog.Logger
}

// Detect maps a path to a format. stdin/stdout ("-") is csv.
func Detect(path string) (Format, error) {
	if path == "-" || path == "" {
		return CSV, nil
	}
	switch ext := strings.ToLower(filepath.Ext(iox.TrimCompression(path))); ext {
	case ".csv", ".txt":
		return CSV, nil
	case ".tsv", ".tab":
		return TSV, nil
	case ".jsonl", ".ndjson":
		return JSONL, nil
	case ".parquet", ".pq":
		return Parquet, nil
	case ".xlsx":
		return XLSX, nil
	default:
		return "", fmt.Errorf("%w: extension %q", ErrUnknownFormat, ext)
	}
}

// Resolve returns the explicit Format, or the one detected from path.
func (o Options) Resolve(path string) (Format, error) {
	if o.Format != "" {
		switch o.Format {
		case CSV, TSV, JSONL, Parquet, XLSX:
			return o.Format, nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, o.Format)
	}
	return Detect(path)
}

// Read loads the table at path.
func Read(path string, opt Options) (*tb.Table, error) {
	f, err := opt.Resolve(path)
	if err != nil {
		return nil, err
	}
	switch f {
	case CSV, TSV:
		ro := csvio.ReaderOptions{HasHeader: !opt.NoHeader, Missing: opt.Missing, Logger: opt.Logger}
		if f == TSV {
			ro.Delimiter = '\t'
		}
		return csvio.Read(path, ro)
	case JSONL:
		return jsonlio.Read(path, jsonlio.ReaderOptions{Missing: opt.Missing, Logger: opt.Logger})
	case Parquet:
		return parquetio.Read(path)
	default:
		return xlsxio.Read(path, xlsxio.Options{Sheet: opt.Sheet, Missing: opt.Missing, Logger: opt.Logger})
	}
}

// Write stores t at path.
func Write(path string, t *tb.Table, opt Options) error {
	f, err := opt.Resolve(path)
	if err != nil {
		return err
	}
	switch f {
	case CSV, TSV:
		wo := csvio.WriterOptions{Missing: opt.MissingOut}
		if f == TSV {
			wo.Delimiter = '\t'
		}
		return csvio.WriteAll(path, t, wo)
	case JSONL:
		return jsonlio.WriteAll(path, t)
	case Parquet:
		return parquetio.WriteAll(path, t)
	default:
		return xlsxio.WriteAll(path, t, xlsxio.Options{Sheet: opt.Sheet})
	}
}
