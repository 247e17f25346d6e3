package seed

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"stationdocs/internal/domain"
	models "stationdocs/internal/domain/models/hierarchy"
	"stationdocs/internal/service/hierarchy"
)

func newStore() *hierarchy.Store {
	return hierarchy.NewStore(hierarchy.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoad_SampleTree(t *testing.T) {
	store := newStore()

	stats, err := Load(store, SampleTree())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stats.Folders != 3 || stats.Files != 2 {
		t.Errorf("stats = %+v, want 3 folders 2 files", stats)
	}

	root := store.CurrentItems()
	var names []string
	for _, n := range root {
		names = append(names, n.Name)
	}
	if len(names) != 3 || names[0] != "Licenses" || names[1] != "Compliance" || names[2] != "Technical" {
		t.Errorf("root = %v", names)
	}

	tests := []struct {
		folder   string
		file     string
		size     string
		modified string
		pages    int
	}{
		{"Licenses", "Station_License_WXYZ_2024.pdf", "3.2 MB", "2024-02-15", 3},
		{"Compliance", "Annual_EEO_Report_2023.pdf", "2.8 MB", "2024-01-20", 5},
	}
	for _, tt := range tests {
		t.Run(tt.folder, func(t *testing.T) {
			items, err := store.ListAt(models.Path{"Home", tt.folder})
			if err != nil {
				t.Fatal(err)
			}
			if len(items) != 1 {
				t.Fatalf("items = %+v", items)
			}
			f := items[0]
			if f.Name != tt.file || f.Size != tt.size || len(f.Content) != tt.pages {
				t.Errorf("file = %s %s %d pages", f.Name, f.Size, len(f.Content))
			}
			if got := f.Modified.Format(time.DateOnly); got != tt.modified {
				t.Errorf("modified = %s, want %s", got, tt.modified)
			}
			if !f.Path.Equal(models.Path{"Home", tt.folder}) {
				t.Errorf("path = %v", f.Path)
			}
		})
	}

	technical, _ := store.ListAt(models.Path{"Home", "Technical"})
	if len(technical) != 0 {
		t.Errorf("Technical = %+v", technical)
	}
}

func TestLoad_NestedAndRootFiles(t *testing.T) {
	store := newStore()
	data := []byte(`
files:
  - name: readme.txt
folders:
  - name: "  Outer  "
    folders:
      - name: Inner
        files:
          - name: deep.pdf
            url: https://files.example.com/deep.pdf
`)

	stats, err := Load(store, data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stats.Folders != 2 || stats.Files != 2 {
		t.Errorf("stats = %+v", stats)
	}

	deep, err := store.ListAt(models.Path{"Home", "Outer", "Inner"})
	if err != nil || len(deep) != 1 || deep[0].URL != "https://files.example.com/deep.pdf" {
		t.Errorf("Inner = %+v, %v", deep, err)
	}

	root := store.CurrentItems()
	for _, n := range root {
		if n.Name == "readme.txt" && (n.Size != models.DefaultFileSize || n.Modified.IsZero()) {
			t.Errorf("defaults not applied: %+v", n)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{name: "bad yaml", data: "folders: [unclosed"},
		{name: "duplicate folder", data: "folders:\n  - name: A\n  - name: A\n", wantErr: domain.ErrConflict},
		{name: "empty folder name", data: "folders:\n  - name: \"\"\n", wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newStore(), []byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	data, err := ReadFile("")
	if err != nil || len(data) == 0 {
		t.Errorf("ReadFile(\"\") = %d bytes, %v", len(data), err)
	}
	if _, err := ReadFile("/nonexistent/seed.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
