package usersapi

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ettle/strcase"

	"github.com/goliatone/go-userboard/components/userboard"
)

// ErrMissingColumns is returned when the CSV header lacks name or age.
var ErrMissingColumns = errors.New("usersapi: csv header must contain name and age columns")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSkip explains why a row was not imported.
type CSVSkip struct {
	Line   int    `json:"line"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// CSVPreview is the outcome of applying a CSV file to an existing list.
type CSVPreview struct {
	Added   []userboard.User `json:"added"`
	Skipped []CSVSkip        `json:"skipped,omitempty"`
}

// PreviewCSV applies the upload rules without sending anything: header names
// are case and spacing insensitive, a UTF-8 BOM is ignored, and names already
// present (or repeated in the file) are skipped.
func PreviewCSV(r io.Reader, existing []userboard.User) (CSVPreview, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return CSVPreview{}, fmt.Errorf("usersapi: read csv: %w", err)
	}
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return CSVPreview{}, ErrMissingColumns
	}
	if err != nil {
		return CSVPreview{}, fmt.Errorf("usersapi: read csv header: %w", err)
	}
	nameCol, ageCol := -1, -1
	for i, column := range header {
		switch normalizeColumn(column) {
		case "name":
			nameCol = i
		case "age":
			ageCol = i
		}
	}
	if nameCol < 0 || ageCol < 0 {
		return CSVPreview{}, ErrMissingColumns
	}

	seen := make(map[string]struct{}, len(existing))
	for _, u := range existing {
		seen[u.Name] = struct{}{}
	}

	preview := CSVPreview{Added: []userboard.User{}}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return CSVPreview{}, fmt.Errorf("usersapi: read csv line %d: %w", line, err)
		}
		if nameCol >= len(record) || ageCol >= len(record) {
			preview.Skipped = append(preview.Skipped, CSVSkip{Line: line, Reason: "missing columns"})
			continue
		}
		name := strings.TrimSpace(record[nameCol])
		if name == "" {
			preview.Skipped = append(preview.Skipped, CSVSkip{Line: line, Reason: "empty name"})
			continue
		}
		age, err := strconv.Atoi(strings.TrimSpace(record[ageCol]))
		if err != nil {
			preview.Skipped = append(preview.Skipped, CSVSkip{Line: line, Name: name, Reason: "age is not a whole number"})
			continue
		}
		if _, dup := seen[name]; dup {
			preview.Skipped = append(preview.Skipped, CSVSkip{Line: line, Name: name, Reason: "name already exists"})
			continue
		}
		seen[name] = struct{}{}
		preview.Added = append(preview.Added, userboard.User{Name: name, Age: age})
	}
	return preview, nil
}

func normalizeColumn(column string) string {
	return strcase.ToSnake(strings.TrimSpace(column))
}
