package analysis

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
)

// errNotTabular signals that a parse tier does not apply to the payload and
// the next tier should be attempted.
var errNotTabular = errors.New("payload is not tabular in this representation")

// cell is one value of a table. text is the form used for numeric detection
// and value counting; raw keeps the decoded value for previews when the
// payload carried typed values.
type cell struct {
	text    string
	raw     any
	missing bool
}

// table is the internal representation every parse tier produces. Rows are
// indexed [row][column] and always match len(columns).
type table struct {
	columns []string
	rows    [][]cell
}

// parseDelimited reads the payload as comma-delimited text with a header row.
// A header with fewer than two fields means the payload is plain text rather
// than a delimited table, so the tier does not apply.
func parseDelimited(payload string) (*table, error) {
	reader := csv.NewReader(strings.NewReader(payload))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) < 2 {
		return nil, errNotTabular
	}

	columns := make([]string, len(records[0]))
	for i, name := range records[0] {
		columns[i] = strings.TrimSpace(name)
	}

	t := &table{columns: columns}
	for _, record := range records[1:] {
		row := make([]cell, len(columns))
		for i, field := range record {
			row[i] = cell{text: field, missing: field == ""}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// parseRecords reads the payload as a JSON array of flat records. Column
// order is the order of first appearance across all records; keys absent from
// a record and JSON nulls both yield missing cells. The token-based decoder
// is used because key order matters and map decoding would lose it.
func parseRecords(payload string) (*table, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, errNotTabular
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, errNotTabular
	}

	t := &table{}
	columnIndex := map[string]int{}
	var records []map[string]cell

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errNotTabular
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return nil, errNotTabular
		}

		record := map[string]cell{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, errNotTabular
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, errNotTabular
			}

			var value any
			if err := dec.Decode(&value); err != nil {
				return nil, errNotTabular
			}

			if _, seen := columnIndex[key]; !seen {
				columnIndex[key] = len(t.columns)
				t.columns = append(t.columns, key)
			}
			record[key] = decodedCell(value)
		}
		if _, err := dec.Token(); err != nil { // closing '}'
			return nil, errNotTabular
		}
		records = append(records, record)
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return nil, errNotTabular
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errNotTabular
	}

	for _, record := range records {
		row := make([]cell, len(t.columns))
		for i, col := range t.columns {
			c, ok := record[col]
			if !ok {
				c = cell{missing: true}
			}
			row[i] = c
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func decodedCell(value any) cell {
	switch v := value.(type) {
	case nil:
		return cell{missing: true}
	case json.Number:
		text := v.String()
		if f, err := v.Float64(); err == nil {
			return cell{text: text, raw: f}
		}
		return cell{text: text, raw: text}
	case string:
		return cell{text: v, raw: v, missing: v == ""}
	case bool:
		return cell{text: strconv.FormatBool(v), raw: v}
	default:
		// nested arrays or objects become their JSON text
		encoded, err := json.Marshal(v)
		if err != nil {
			return cell{missing: true}
		}
		return cell{text: string(encoded), raw: string(encoded)}
	}
}

// parseLines is the final tier and never fails: every non-blank trimmed line
// becomes one row of a single column named "values".
func parseLines(payload string) *table {
	t := &table{columns: []string{"values"}}
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		t.rows = append(t.rows, []cell{{text: line, raw: line}})
	}
	return t
}
