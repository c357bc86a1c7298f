package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hrstack/queryintent/internal/domain"
	"github.com/hrstack/queryintent/internal/repository"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// expected header names; column order in the file does not matter.
var knownColumns = map[string]bool{
	"doctype":             true,
	"module":              true,
	"doctype_description": true,
	"is_submittable":      true,
	"fieldname":           true,
	"label":               true,
	"fieldtype":           true,
	"options":             true,
	"description":         true,
}

// Service loads doctype metadata from tabular uploads into the catalog. One
// row describes one field; rows sharing a doctype column are grouped into a
// single doctype definition.
type Service struct {
	catalog repository.CatalogRepository
}

// NewService creates a new ingestion service.
func NewService(catalog repository.CatalogRepository) *Service {
	return &Service{catalog: catalog}
}

// Request is one metadata upload.
type Request struct {
	FileName string
	Data     io.Reader
}

// Summary reports what an upload changed.
type Summary struct {
	Doctypes    int      `json:"doctypes"`
	Fields      int      `json:"fields"`
	SkippedRows int      `json:"skipped_rows"`
	Names       []string `json:"names"`
}

// Ingest parses the upload and replaces every doctype it describes.
func (s *Service) Ingest(ctx context.Context, req Request) (Summary, error) {
	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return Summary{}, errors.New("uploaded file is empty")
	}

	records, err := parseTable(req.FileName, payload)
	if err != nil {
		return Summary{}, err
	}

	doctypes, skipped, err := buildDoctypes(records)
	if err != nil {
		return Summary{}, err
	}
	if len(doctypes) == 0 {
		return Summary{}, errors.New("no doctype rows found in file")
	}

	summary := Summary{SkippedRows: skipped}
	for _, raw := range doctypes {
		if err := s.catalog.ReplaceDoctype(ctx, raw); err != nil {
			return Summary{}, err
		}
		summary.Doctypes++
		summary.Fields += len(raw.Fields)
		summary.Names = append(summary.Names, raw.Name)
	}
	return summary, nil
}

func parseTable(fileName string, payload []byte) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx", ".xlsm":
		return parseExcel(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) ([][]string, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return records, nil
}

func parseExcel(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return rows, nil
}

// buildDoctypes groups field rows by their doctype column, preserving the
// order fields appear in the file. Rows missing a doctype, fieldname or
// fieldtype are counted and skipped rather than failing the whole upload.
func buildDoctypes(records [][]string) ([]domain.RawDoctype, int, error) {
	if len(records) == 0 {
		return nil, 0, errors.New("no rows found in file")
	}

	header, err := mapHeader(records[0])
	if err != nil {
		return nil, 0, err
	}

	byName := map[string]*domain.RawDoctype{}
	var order []string
	skipped := 0

	for _, row := range records[1:] {
		get := func(column string) string {
			idx, ok := header[column]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		name := get("doctype")
		fieldname := get("fieldname")
		if name == "" && fieldname == "" {
			continue // blank row
		}
		if name == "" || fieldname == "" {
			skipped++
			continue
		}

		raw, ok := byName[name]
		if !ok {
			raw = &domain.RawDoctype{
				Name:          name,
				Module:        get("module"),
				Description:   get("doctype_description"),
				IsSubmittable: parseBool(get("is_submittable")),
			}
			byName[name] = raw
			order = append(order, name)
		}

		fieldtype := get("fieldtype")
		if fieldtype == "" {
			skipped++
			continue
		}
		raw.Fields = append(raw.Fields, domain.RawField{
			Fieldname:   fieldname,
			Label:       get("label"),
			Fieldtype:   fieldtype,
			Options:     strings.ReplaceAll(get("options"), ", ", "\n"),
			Description: get("description"),
		})
	}

	doctypes := make([]domain.RawDoctype, 0, len(order))
	for _, name := range order {
		doctypes = append(doctypes, *byName[name])
	}
	return doctypes, skipped, nil
}

func mapHeader(row []string) (map[string]int, error) {
	header := map[string]int{}
	for i, cell := range row {
		key := strings.ToLower(strings.TrimSpace(cell))
		key = strings.ReplaceAll(key, " ", "_")
		if knownColumns[key] {
			header[key] = i
		}
	}
	if _, ok := header["doctype"]; !ok {
		return nil, errors.New("missing required column: doctype")
	}
	if _, ok := header["fieldname"]; !ok {
		return nil, errors.New("missing required column: fieldname")
	}
	if _, ok := header["fieldtype"]; !ok {
		return nil, errors.New("missing required column: fieldtype")
	}
	return header, nil
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}
