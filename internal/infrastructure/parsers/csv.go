package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSV column names.
var (
	MemberColumns       = []string{"id", "name", "generation", "gender", "remark"}
	RelationshipColumns = []string{"from_id", "to_id", "relation_type"}
)

// CSVParser parses snapshot records from CSV with a header row.
type CSVParser struct{}

// ParseMembers reads member rows.
// Expected columns: id, name, generation, gender, remark
func (p *CSVParser) ParseMembers(r io.Reader) ([]RawMember, error) {
	var members []RawMember
	err := p.each(r, []string{"id", "name", "generation", "gender"}, func(row csvRow) error {
		id, err := row.number("id")
		if err != nil {
			return err
		}
		gen, err := row.integer("generation")
		if err != nil {
			return err
		}
		members = append(members, RawMember{
			ID:         id,
			Name:       row.get("name"),
			Generation: gen,
			Gender:     row.get("gender"),
			Remark:     row.get("remark"),
			LineNum:    row.line,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// ParseRelationships reads relationship rows.
// Expected columns: from_id, to_id, relation_type
func (p *CSVParser) ParseRelationships(r io.Reader) ([]RawRelationship, error) {
	var rels []RawRelationship
	err := p.each(r, RelationshipColumns, func(row csvRow) error {
		from, err := row.number("from_id")
		if err != nil {
			return err
		}
		to, err := row.number("to_id")
		if err != nil {
			return err
		}
		rels = append(rels, RawRelationship{
			FromID:  from,
			ToID:    to,
			Type:    row.get("relation_type"),
			LineNum: row.line,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rels, nil
}

// each reads the header, checks the required columns and calls fn per data row.
func (p *CSVParser) each(r io.Reader, required []string, fn func(csvRow) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	colIndex, err := p.readHeader(reader, required)
	if err != nil {
		return err
	}

	lineNum := 1 // Header is line 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		if err := fn(csvRow{record: record, cols: colIndex, line: lineNum}); err != nil {
			return err
		}
	}
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader, required []string) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}

	for _, col := range required {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

type csvRow struct {
	record []string
	cols   map[string]int
	line   int
}

// get safely retrieves a column value from a record.
func (r csvRow) get(col string) string {
	if idx, ok := r.cols[col]; ok && idx < len(r.record) {
		return strings.TrimSpace(r.record[idx])
	}
	return ""
}

func (r csvRow) number(col string) (int64, error) {
	s := r.get(col)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid %s value %q: %w", r.line, col, s, err)
	}
	return n, nil
}

func (r csvRow) integer(col string) (int, error) {
	n, err := r.number(col)
	return int(n), err
}
