package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/mikey/spam-sweeper/internal/core"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Canonical column order for exports. Imports may carry extra columns, which
// are passed through untouched.
var canonicalColumns = []string{"id", "sender", "subject", "body", "prediction"}

// ContentType is the MIME type of the produced spreadsheets.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Codec reads and writes classification results as xlsx workbooks
type Codec struct {
	logger *zap.Logger
}

// NewCodec creates a new spreadsheet codec
func NewCodec(logger *zap.Logger) *Codec {
	return &Codec{logger: logger}
}

// Filename returns the download filename for a result set of the given
// provenance.
func Filename(provenance core.Provenance) string {
	if provenance == core.ProvenanceUser {
		return "spam_results_corrected.xlsx"
	}
	return "spam_results.xlsx"
}

// Export renders messages as an xlsx workbook with a header row. Columns keep
// the canonical order; a canonical column with no value in any row is omitted.
func (c *Codec) Export(messages []core.Message) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	columns := presentColumns(messages)

	for col, name := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row := range messages {
		for col, name := range columns {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, columnValue(&messages[row], name)); err != nil {
				return nil, fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	c.logger.Debug("Exported result spreadsheet",
		zap.Int("rows", len(messages)),
		zap.Strings("columns", columns))
	return buf.Bytes(), nil
}

// Import parses an uploaded workbook back into messages. Headers are trimmed
// and lower-cased; id and prediction are required, every other column is
// carried through as an extra field.
func (c *Codec) Import(r io.Reader) ([]core.Message, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, core.NewValidationError("failed to open spreadsheet: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, core.NewValidationError("failed to read spreadsheet rows: %v", err)
	}
	if len(rows) == 0 {
		return nil, core.NewValidationError("spreadsheet has no header row")
	}

	headers := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
		seen[headers[i]] = true
	}
	if !seen["id"] || !seen["prediction"] {
		return nil, core.NewValidationError("spreadsheet must contain columns: id, prediction")
	}

	messages := make([]core.Message, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var msg core.Message
		for i, header := range headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			switch header {
			case "id":
				msg.ID = value
			case "sender":
				msg.Sender = value
			case "subject":
				msg.Subject = value
			case "body":
				msg.Body = value
			case "prediction":
				msg.Prediction = value
			default:
				if msg.Extra == nil {
					msg.Extra = make(map[string]string)
				}
				msg.Extra[header] = value
			}
		}
		messages = append(messages, msg)
	}

	c.logger.Debug("Imported correction spreadsheet", zap.Int("rows", len(messages)))
	return messages, nil
}

// presentColumns returns the canonical columns that hold a value in at least
// one message. The id and prediction columns are always included.
func presentColumns(messages []core.Message) []string {
	columns := make([]string, 0, len(canonicalColumns))
	for _, name := range canonicalColumns {
		if name == "id" || name == "prediction" {
			columns = append(columns, name)
			continue
		}
		for i := range messages {
			if columnValue(&messages[i], name) != "" {
				columns = append(columns, name)
				break
			}
		}
	}
	return columns
}

// columnValue reads the named canonical column from a message
func columnValue(m *core.Message, name string) string {
	switch name {
	case "id":
		return m.ID
	case "sender":
		return m.Sender
	case "subject":
		return m.Subject
	case "body":
		return m.Body
	case "prediction":
		return m.Prediction
	}
	return ""
}
