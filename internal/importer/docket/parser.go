package docket

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	enc "github.com/MrJamesThe3rd/boqrecon/internal/encoding"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

const defaultUnit = "each"

// structuredConfidence is assigned to every CSV line; the columns are read as
// written, not inferred.
const structuredConfidence = 1.0

// delimiters are tried in order until one yields a known header.
var delimiters = []rune{',', ';'}

// Parser reads supplier invoice and delivery docket CSV exports and produces
// invoice item params. It auto-detects the delimiter and which layout is used
// by matching column headers against known profiles.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]reconciliation.InvoiceItemParams, error) {
	utf8r, charset, err := enc.Detect(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	for _, comma := range delimiters {
		rows, err := readRows(data, comma)
		if err != nil {
			continue
		}

		profile, colMap, headerIdx := detectProfile(rows)
		if profile == nil {
			continue
		}

		slog.Debug("detected invoice layout", "profile", profile.Name, "charset", charset, "delimiter", string(comma))

		return parseRows(profile, colMap, rows[headerIdx+1:], headerIdx, comma == ';')
	}

	return nil, fmt.Errorf("no matching invoice format found: expected columns for generic or delivery docket")
}

func readRows(data []byte, comma rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return rows, nil
}

// colIndex maps lowercased column names to their index in the row.
type colIndex map[string]int

// idx returns -1 for columns the profile does not carry or the file lacks.
func (c colIndex) idx(name string) int {
	if name == "" {
		return -1
	}

	i, ok := c[name]
	if !ok {
		return -1
	}

	return i
}

// detectProfile scans rows for a header that matches a known profile.
// Returns the matched profile, column index map, and header row index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts invoice lines from data rows using the matched profile.
// headerRowNum is the 0-based index of the header in the original file (for error messages).
// Rows without a quantity are notes or footers and are skipped.
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int, decimalComma bool) ([]reconciliation.InvoiceItemParams, error) {
	var (
		lineIdx     = cols.idx(p.LineCol)
		descIdx     = cols.idx(p.DescCol)
		qtyIdx      = cols.idx(p.QtyCol)
		unitIdx     = cols.idx(p.UnitCol)
		priceIdx    = cols.idx(p.UnitPriceCol)
		totalIdx    = cols.idx(p.TotalCol)
		categoryIdx = cols.idx(p.CategoryCol)
	)

	var items []reconciliation.InvoiceItemParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		qtyStr := cellValue(row, qtyIdx)
		if qtyStr == "" {
			continue
		}

		desc := cellValue(row, descIdx)
		if desc == "" {
			return nil, fmt.Errorf("row %d: missing description", rowNum)
		}

		qty, err := parseNumber(qtyStr, decimalComma)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid quantity %q", rowNum, qtyStr)
		}

		line := len(items) + 1
		if n, err := strconv.Atoi(cellValue(row, lineIdx)); err == nil && n >= 0 {
			line = n
		}

		unit := cellValue(row, unitIdx)
		if unit == "" {
			unit = defaultUnit
		}

		priceStr := cellValue(row, priceIdx)

		unitPrice, err := parseCents(priceStr, decimalComma)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid unit price %q", rowNum, priceStr)
		}

		totalStr := cellValue(row, totalIdx)

		totalPrice, err := parseCents(totalStr, decimalComma)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid total %q", rowNum, totalStr)
		}

		item := reconciliation.InvoiceItemParams{
			LineNumber:      line,
			Description:     desc,
			Quantity:        qty,
			Unit:            unit,
			UnitPriceCents:  unitPrice,
			TotalPriceCents: totalPrice,
			Confidence:      structuredConfidence,
		}

		if c := cellValue(row, categoryIdx); c != "" {
			item.Category = &c
		}

		items = append(items, item)
	}

	return items, nil
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
