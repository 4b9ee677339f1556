package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"foodcourt-system/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   bool
		wantLen   int
		wantEntry *models.MenuEntry
	}{
		{
			name:    "valid source",
			input:   "Item,Half,Full,Image\nVeg Biryani,80,150,biryani.png\nPaneer Tikka,0,220,\n",
			wantLen: 2,
			wantEntry: &models.MenuEntry{
				Name: "Veg Biryani", HalfPrice: 80, FullPrice: 150, ImageRef: "biryani.png",
			},
		},
		{
			name:    "missing required column",
			input:   "Item,Half,Image\nVeg Biryani,80,\n",
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "malformed numbers coerce to zero",
			input:   "Item,Half,Full\nVeg Biryani,abc,-5\n",
			wantLen: 1,
			wantEntry: &models.MenuEntry{
				Name: "Veg Biryani", HalfPrice: 0, FullPrice: 0,
			},
		},
		{
			name:    "blank and duplicate names skipped",
			input:   "Item,Half,Full\n,10,20\nVeg Biryani,80,150\nVeg Biryani,99,299\n",
			wantLen: 1,
			wantEntry: &models.MenuEntry{
				Name: "Veg Biryani", HalfPrice: 80, FullPrice: 150,
			},
		},
		{
			name:    "image column optional",
			input:   "Item,Half,Full\nVeg Biryani,80,150\n",
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := Parse(strings.NewReader(tt.input), "test.csv")

			if tt.wantErr {
				var schemaErr models.SchemaError
				if !errors.As(err, &schemaErr) {
					t.Fatalf("expected SchemaError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			if cat.Len() != tt.wantLen {
				t.Fatalf("got %d entries, want %d", cat.Len(), tt.wantLen)
			}
			if tt.wantEntry != nil {
				got, err := cat.Lookup(tt.wantEntry.Name)
				if err != nil {
					t.Fatalf("Lookup returned error: %v", err)
				}
				if got != *tt.wantEntry {
					t.Errorf("entry = %+v, want %+v", got, *tt.wantEntry)
				}
			}
		})
	}
}

func TestLookupMissing(t *testing.T) {
	cat, err := Parse(strings.NewReader("Item,Half,Full\nVeg Biryani,80,150\n"), "test.csv")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	_, err = cat.Lookup("Dosa")
	var notFound models.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestLoadSeedsDefaultMenu(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.csv")

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cat.Len() != 1 {
		t.Fatalf("got %d entries, want 1 seeded entry", cat.Len())
	}

	entry, err := cat.Lookup("Veg Biryani")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if entry.HalfPrice != 80 || entry.FullPrice != 150 {
		t.Errorf("seeded entry = %+v", entry)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("seeded menu file missing: %v", err)
	}
}

func TestEmptyCatalog(t *testing.T) {
	cat := Empty()
	if cat.Len() != 0 {
		t.Fatal("empty catalog must have no entries")
	}
	if _, err := cat.Lookup("anything"); err == nil {
		t.Fatal("lookup on empty catalog must fail")
	}
}
