// Package catalog loads the restaurant menu from its tabular source. The
// source is admin-maintained and read-only to the ordering core.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"foodcourt-system/internal/models"
)

var requiredColumns = []string{"Item", "Half", "Full"}

// Catalog is the ordered, read-only menu for one service session
type Catalog struct {
	entries []models.MenuEntry
	byName  map[string]models.MenuEntry
}

// Load reads the menu from a CSV file with columns Item, Half, Full and an
// optional Image column. A missing file is seeded with a one-item default
// menu. A source missing a required column reports SchemaError.
func Load(path string) (*Catalog, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := seedDefault(path); err != nil {
			return nil, fmt.Errorf("failed to seed default menu: %w", err)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open menu file: %w", err)
	}
	defer file.Close()

	return Parse(file, path)
}

// Parse reads menu rows from r. Malformed numeric cells coerce to zero;
// rows with an empty or duplicate item name are skipped.
func Parse(r io.Reader, source string) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, models.SchemaError{Source: source, Message: "missing header row"}
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	for _, required := range requiredColumns {
		if _, ok := cols[required]; !ok {
			return nil, models.SchemaError{Source: source, Message: fmt.Sprintf("missing required column %q", required)}
		}
	}

	cat := &Catalog{byName: make(map[string]models.MenuEntry)}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, models.SchemaError{Source: source, Message: err.Error()}
		}

		name := strings.TrimSpace(cell(record, cols["Item"]))
		if name == "" {
			continue
		}
		if _, dup := cat.byName[name]; dup {
			continue
		}

		entry := models.MenuEntry{
			Name:      name,
			HalfPrice: parsePrice(cell(record, cols["Half"])),
			FullPrice: parsePrice(cell(record, cols["Full"])),
		}
		if idx, ok := cols["Image"]; ok {
			entry.ImageRef = strings.TrimSpace(cell(record, idx))
		}

		cat.entries = append(cat.entries, entry)
		cat.byName[name] = entry
	}

	return cat, nil
}

// Empty returns a catalog with no entries, the fallback after SchemaError
func Empty() *Catalog {
	return &Catalog{byName: make(map[string]models.MenuEntry)}
}

// Entries returns the menu in source order
func (c *Catalog) Entries() []models.MenuEntry {
	snapshot := make([]models.MenuEntry, len(c.entries))
	copy(snapshot, c.entries)
	return snapshot
}

// Lookup finds a menu entry by name
func (c *Catalog) Lookup(name string) (models.MenuEntry, error) {
	entry, ok := c.byName[name]
	if !ok {
		return models.MenuEntry{}, models.NotFoundError{Kind: "menu entry", Key: name}
	}
	return entry, nil
}

// Len returns the number of menu entries
func (c *Catalog) Len() int {
	return len(c.entries)
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// parsePrice coerces malformed or negative cells to zero
func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func seedDefault(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"Item", "Half", "Full", "Image"}); err != nil {
		return err
	}
	if err := w.Write([]string{"Veg Biryani", "80", "150", ""}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
