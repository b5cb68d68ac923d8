package output

import (
	"encoding/json"
	"fmt"

	"github.com/sdpower/ctxgw-report/internal/types"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

type Formatter struct {
	options FormatterOptions
}

type FormatterOptions struct {
	Format  string // "table", "json"
	NoColor bool
}

func NewFormatter(opts FormatterOptions) *Formatter {
	if opts.Format == "" {
		opts.Format = FormatTable
	}
	return &Formatter{options: opts}
}

// ValidateFormat reports whether name is a supported output format.
func ValidateFormat(name string) error {
	switch name {
	case FormatTable, FormatJSON:
		return nil
	}
	return fmt.Errorf("%w: unknown format %q (want table or json)", types.ErrInvalidConfig, name)
}

func (f *Formatter) FormatReport(report types.Report) (string, error) {
	switch f.options.Format {
	case FormatJSON:
		return f.FormatJSON(report)
	default:
		tableFormatter := NewTableWriterFormatter(f.options.NoColor)
		return tableFormatter.FormatReport(report), nil
	}
}

func (f *Formatter) FormatJSON(data interface{}) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}
