package hierarchy

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"stationdocs/internal/config"
	"stationdocs/internal/domain"
	models "stationdocs/internal/domain/models/hierarchy"
)

var fixedTime = time.Date(2024, 2, 15, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(Config{Now: func() time.Time { return fixedTime }}, logger)
}

func home(segments ...string) models.Path {
	return append(models.Path{"Home"}, segments...)
}

func mustFolder(t *testing.T, s *Store, name string, path models.Path) *models.Node {
	t.Helper()
	folder, err := s.CreateFolder(name, path)
	if err != nil {
		t.Fatalf("CreateFolder(%q, %v): %v", name, path, err)
	}
	return folder
}

func mustFile(t *testing.T, s *Store, name string, path models.Path) models.Node {
	t.Helper()
	added, err := s.AddFiles([]models.FileInput{{Name: name, Path: path}})
	if err != nil {
		t.Fatalf("AddFiles(%q): %v", name, err)
	}
	return added[0]
}

func ids(nodes []models.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func containsID(nodes []models.Node, id string) bool {
	for _, n := range nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

func TestStore_IdentitiesAreUnique(t *testing.T) {
	s := newTestStore(t)
	seen := make(map[string]bool)

	for i := 0; i < 20; i++ {
		folder := mustFolder(t, s, fmt.Sprintf("Folder %d", i), home())
		if seen[folder.ID] {
			t.Fatalf("duplicate identity %s", folder.ID)
		}
		seen[folder.ID] = true

		added, err := s.AddFiles([]models.FileInput{
			{Name: "a.pdf", Path: folder.FullPath()},
			{Name: "a.pdf", Path: folder.FullPath()},
		})
		if err != nil {
			t.Fatalf("AddFiles: %v", err)
		}
		for _, n := range added {
			if seen[n.ID] {
				t.Fatalf("duplicate identity %s", n.ID)
			}
			seen[n.ID] = true
		}
	}
}

func TestStore_CreateFolder(t *testing.T) {
	t.Run("appends to root in insertion order", func(t *testing.T) {
		s := newTestStore(t)
		b := mustFolder(t, s, "B", home())
		a := mustFolder(t, s, "A", home())

		got := ids(s.CurrentItems())
		want := []string{b.ID, a.ID}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("root order = %v, want %v (no implicit sorting)", got, want)
		}
		if !a.Path.Equal(home()) {
			t.Errorf("path = %v, want %v", a.Path, home())
		}
		if !a.Modified.Equal(fixedTime) {
			t.Errorf("modified = %v, want %v", a.Modified, fixedTime)
		}
	})

	t.Run("nested folder", func(t *testing.T) {
		s := newTestStore(t)
		mustFolder(t, s, "Licenses", home())
		sub := mustFolder(t, s, "2024", home("Licenses"))

		if !sub.Path.Equal(home("Licenses")) {
			t.Errorf("path = %v", sub.Path)
		}
		items, err := s.ListAt(home("Licenses"))
		if err != nil {
			t.Fatalf("ListAt: %v", err)
		}
		if len(items) != 1 || items[0].ID != sub.ID {
			t.Errorf("ListAt = %v", ids(items))
		}
	})

	t.Run("unresolved path is a no-op", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.CreateFolder("Orphan", home("Missing"))
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		if folders, files := s.Stats(); folders != 0 || files != 0 {
			t.Errorf("tree changed: %d folders, %d files", folders, files)
		}
	})

	t.Run("wrong root label does not resolve", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.CreateFolder("X", models.Path{"Elsewhere"})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("invalid names", func(t *testing.T) {
		s := newTestStore(t)
		for _, name := range []string{"", "   ", "a/b"} {
			if _, err := s.CreateFolder(name, home()); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("CreateFolder(%q) err = %v, want ErrValidation", name, err)
			}
		}
	})

	t.Run("duplicate sibling folder", func(t *testing.T) {
		s := newTestStore(t)
		first := mustFolder(t, s, "Licenses", home())

		_, err := s.CreateFolder("Licenses", home())
		var conflict *domain.ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("err = %v, want ConflictError", err)
		}
		if conflict.ResourceID != first.ID {
			t.Errorf("ResourceID = %s, want %s", conflict.ResourceID, first.ID)
		}
	})
}

func TestStore_AddFiles(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s := newTestStore(t)
		added, err := s.AddFiles([]models.FileInput{{}})
		if err != nil {
			t.Fatalf("AddFiles: %v", err)
		}
		f := added[0]
		if f.Name != models.DefaultFileName || f.Size != models.DefaultFileSize {
			t.Errorf("defaults not applied: name=%q size=%q", f.Name, f.Size)
		}
		if !f.Modified.Equal(fixedTime) {
			t.Errorf("modified = %v", f.Modified)
		}
		if !f.Path.Equal(home()) {
			t.Errorf("path = %v, want cursor %v", f.Path, home())
		}
		if f.Kind != models.KindFile {
			t.Errorf("kind = %s", f.Kind)
		}
	})

	t.Run("appends to cursor in input order", func(t *testing.T) {
		s := newTestStore(t)
		mustFolder(t, s, "Compliance", home())
		s.SetCurrentPath(home("Compliance"))

		modified := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
		added, err := s.AddFiles([]models.FileInput{
			{Name: "one.pdf", Size: "2.8 MB", Modified: &modified, Content: []string{"p1", "p2"}},
			{Name: "two.pdf", URL: "https://example.com/two.pdf"},
		})
		if err != nil {
			t.Fatalf("AddFiles: %v", err)
		}

		items := s.CurrentItems()
		if fmt.Sprint(ids(items)) != fmt.Sprint(ids(added)) {
			t.Errorf("items = %v, want %v", ids(items), ids(added))
		}
		if items[0].Size != "2.8 MB" || !items[0].Modified.Equal(modified) || len(items[0].Content) != 2 {
			t.Errorf("fields not carried: %+v", items[0])
		}
		if items[1].URL != "https://example.com/two.pdf" {
			t.Errorf("url = %q", items[1].URL)
		}
	})

	t.Run("all or nothing", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.AddFiles([]models.FileInput{
			{Name: "ok.pdf"},
			{Name: "lost.pdf", Path: home("Missing")},
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		if len(s.CurrentItems()) != 0 {
			t.Error("partial batch was inserted")
		}
	})

	t.Run("dangling cursor", func(t *testing.T) {
		s := newTestStore(t)
		s.SetCurrentPath(home("Gone"))
		if _, err := s.AddFiles([]models.FileInput{{Name: "x.pdf"}}); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("duplicate file names allowed", func(t *testing.T) {
		s := newTestStore(t)
		mustFile(t, s, "scan.pdf", home())
		mustFile(t, s, "scan.pdf", home())
		if n := len(s.CurrentItems()); n != 2 {
			t.Errorf("got %d items, want 2", n)
		}
	})
}

func TestStore_CurrentItemsMatchesResolve(t *testing.T) {
	s := newTestStore(t)
	mustFolder(t, s, "Licenses", home())
	mustFolder(t, s, "Renewals", home("Licenses"))
	file := mustFile(t, s, "renewal.pdf", home("Licenses", "Renewals"))

	tests := []struct {
		name    string
		path    models.Path
		wantIDs []string
	}{
		{name: "root", path: home(), wantIDs: ids(s.Tree())},
		{name: "nested", path: home("Licenses", "Renewals"), wantIDs: []string{file.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.SetCurrentPath(tt.path)
			got := s.CurrentItems()
			if fmt.Sprint(ids(got)) != fmt.Sprint(tt.wantIDs) {
				t.Errorf("CurrentItems = %v, want %v", ids(got), tt.wantIDs)
			}
			listed, err := s.ListAt(tt.path)
			if err != nil {
				t.Fatalf("ListAt: %v", err)
			}
			if fmt.Sprint(ids(listed)) != fmt.Sprint(ids(got)) {
				t.Errorf("ListAt = %v, CurrentItems = %v", ids(listed), ids(got))
			}

			// Idempotent with no intervening mutation
			again := s.CurrentItems()
			if fmt.Sprint(again) != fmt.Sprint(got) {
				t.Error("second read differs from first")
			}
		})
	}

	t.Run("dangling cursor yields empty list", func(t *testing.T) {
		s.SetCurrentPath(home("Nope"))
		got := s.CurrentItems()
		if got == nil || len(got) != 0 {
			t.Errorf("CurrentItems = %v, want empty non-nil list", got)
		}
	})
}

func TestStore_ReadsAreCopies(t *testing.T) {
	s := newTestStore(t)
	mustFolder(t, s, "Licenses", home())
	added, err := s.AddFiles([]models.FileInput{{Name: "a.pdf", Content: []string{"page"}}})
	if err != nil {
		t.Fatalf("AddFiles: %v", err)
	}

	items := s.CurrentItems()
	items[0].Name = "Hacked"
	items[1].Content[0] = "tampered"
	added[0].Path[0] = "Elsewhere"

	fresh := s.CurrentItems()
	if fresh[0].Name != "Licenses" {
		t.Errorf("folder renamed through a read: %q", fresh[0].Name)
	}
	if fresh[1].Content[0] != "page" {
		t.Errorf("content edited through a read: %q", fresh[1].Content[0])
	}
	if !fresh[1].Path.Equal(home()) {
		t.Errorf("path edited through a read: %v", fresh[1].Path)
	}

	cursor := s.CurrentPath()
	cursor[0] = "Elsewhere"
	if !s.CurrentPath().Equal(home()) {
		t.Error("cursor edited through CurrentPath")
	}
}

func TestStore_MoveItem(t *testing.T) {
	t.Run("file between folders", func(t *testing.T) {
		s := newTestStore(t)
		mustFolder(t, s, "A", home())
		mustFolder(t, s, "B", home())
		x := mustFile(t, s, "X.pdf", home("A"))

		moved, err := s.MoveItem(x.ID, home("B"))
		if err != nil {
			t.Fatalf("MoveItem: %v", err)
		}
		if moved.ID != x.ID || !moved.Path.Equal(home("B")) {
			t.Errorf("moved = %+v", moved)
		}

		s.SetCurrentPath(home("A"))
		if containsID(s.CurrentItems(), x.ID) {
			t.Error("X still listed in A")
		}
		s.SetCurrentPath(home("B"))
		if !containsID(s.CurrentItems(), x.ID) {
			t.Error("X not listed in B")
		}
	})

	t.Run("folder subtree paths follow", func(t *testing.T) {
		s := newTestStore(t)
		mustFolder(t, s, "A", home())
		mustFolder(t, s, "B", home())
		inner := mustFolder(t, s, "Inner", home("A"))
		deep := mustFile(t, s, "deep.pdf", home("A", "Inner"))

		if _, err := s.MoveItem(inner.ID, home("B")); err != nil {
			t.Fatalf("MoveItem: %v", err)
		}

		path, err := s.PathOf(deep.ID)
		if err != nil {
			t.Fatalf("PathOf: %v", err)
		}
		if !path.Equal(home("B", "Inner")) {
			t.Errorf("descendant path = %v, want %v", path, home("B", "Inner"))
		}
		got, _ := s.Get(deep.ID)
		if got.ID != deep.ID {
			t.Error("descendant identity changed")
		}
	})

	t.Run("to root", func(t *testing.T) {
		s := newTestStore(t)
		mustFolder(t, s, "A", home())
		x := mustFile(t, s, "X.pdf", home("A"))

		if _, err := s.MoveItem(x.ID, home()); err != nil {
			t.Fatalf("MoveItem: %v", err)
		}
		s.SetCurrentPath(home())
		if !containsID(s.CurrentItems(), x.ID) {
			t.Error("X not at root")
		}
	})

	t.Run("unresolved target keeps the node", func(t *testing.T) {
		s := newTestStore(t)
		mustFolder(t, s, "A", home())
		x := mustFile(t, s, "X.pdf", home("A"))

		_, err := s.MoveItem(x.ID, home("Missing"))
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		items, _ := s.ListAt(home("A"))
		if !containsID(items, x.ID) {
			t.Error("node lost after failed move")
		}
	})

	t.Run("folder into its own descendant", func(t *testing.T) {
		s := newTestStore(t)
		a := mustFolder(t, s, "A", home())
		mustFolder(t, s, "Child", home("A"))

		for _, target := range []models.Path{home("A"), home("A", "Child")} {
			if _, err := s.MoveItem(a.ID, target); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("MoveItem to %v err = %v, want ErrValidation", target, err)
			}
		}
		if path, _ := s.PathOf(a.ID); !path.Equal(home()) {
			t.Errorf("A moved to %v", path)
		}
	})

	t.Run("folder name collision at target", func(t *testing.T) {
		s := newTestStore(t)
		mustFolder(t, s, "A", home())
		mustFolder(t, s, "Reports", home())
		inner := mustFolder(t, s, "Reports", home("A"))

		if _, err := s.MoveItem(inner.ID, home()); !errors.Is(err, domain.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})

	t.Run("unknown node", func(t *testing.T) {
		s := newTestStore(t)
		if _, err := s.MoveItem("nope", home()); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("cursor follows a moved folder", func(t *testing.T) {
		s := newTestStore(t)
		mustFolder(t, s, "A", home())
		mustFolder(t, s, "B", home())
		inner := mustFolder(t, s, "Inner", home("A"))
		mustFolder(t, s, "Deeper", home("A", "Inner"))
		s.SetCurrentPath(home("A", "Inner", "Deeper"))

		if _, err := s.MoveItem(inner.ID, home("B")); err != nil {
			t.Fatalf("MoveItem: %v", err)
		}
		if got := s.CurrentPath(); !got.Equal(home("B", "Inner", "Deeper")) {
			t.Errorf("cursor = %v", got)
		}
	})
}

func TestStore_MoveItemDepthLimit(t *testing.T) {
	s := newTestStore(t)

	// Deepest folder of the chain sits one level above the limit
	deep := home()
	for i := range config.MaxPathDepth - 2 {
		folder := mustFolder(t, s, fmt.Sprintf("A%d", i), deep)
		deep = folder.FullPath()
	}
	b1 := mustFolder(t, s, "B1", home())
	b2 := mustFolder(t, s, "B2", home("B1"))
	mustFile(t, s, "notes.pdf", home("B1", "B2"))

	_, err := s.MoveItem(b1.ID, deep)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("MoveItem(two levels) err = %v, want ErrValidation", err)
	}
	if got, _ := s.Get(b1.ID); !got.Path.Equal(home()) {
		t.Errorf("rejected folder moved to %v", got.Path)
	}

	// A single level still fits; files don't add depth
	moved, err := s.MoveItem(b2.ID, deep)
	if err != nil {
		t.Fatalf("MoveItem(one level): %v", err)
	}
	if depth := len(moved.FullPath()); depth != config.MaxPathDepth {
		t.Errorf("moved folder depth = %d, want %d", depth, config.MaxPathDepth)
	}
}

func TestStore_EndToEndLicenseArchive(t *testing.T) {
	s := newTestStore(t)
	mustFolder(t, s, "Licenses", home())
	license := mustFile(t, s, "Station_License.pdf", home("Licenses"))

	mustFolder(t, s, "Archive", home())
	if _, err := s.MoveItem(license.ID, home("Archive")); err != nil {
		t.Fatalf("MoveItem: %v", err)
	}

	s.SetCurrentPath(home("Licenses"))
	if items := s.CurrentItems(); len(items) != 0 {
		t.Errorf("Licenses still has %d items", len(items))
	}

	s.SetCurrentPath(home("Archive"))
	items := s.CurrentItems()
	if len(items) != 1 {
		t.Fatalf("Archive has %d items, want 1", len(items))
	}
	if items[0].Name != "Station_License.pdf" || items[0].ID != license.ID || !items[0].IsFile() {
		t.Errorf("Archive item = %+v", items[0])
	}
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	mustFolder(t, s, "A", home())
	mustFolder(t, s, "Inner", home("A"))
	file := mustFile(t, s, "x.pdf", home("A", "Inner"))
	keep := mustFile(t, s, "keep.pdf", home())

	if err := s.SelectFile(file.ID); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	var notified []string
	s.OnSelectionChange(func(id string) { notified = append(notified, id) })
	s.SetCurrentPath(home("A", "Inner"))

	a, _ := s.Resolve(home("A"))
	removed, err := s.Delete(a.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if s.Selected() != nil {
		t.Error("selection inside deleted subtree not cleared")
	}
	if len(notified) != 1 || notified[0] != "" {
		t.Errorf("hooks saw %v", notified)
	}
	if got := s.CurrentPath(); !got.Equal(home()) {
		t.Errorf("cursor = %v, want root", got)
	}
	if folders, files := s.Stats(); folders != 0 || files != 1 {
		t.Errorf("stats = %d folders, %d files", folders, files)
	}
	if _, err := s.Get(keep.ID); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}
	if _, err := s.Delete(a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestStore_Selection(t *testing.T) {
	s := newTestStore(t)
	folder := mustFolder(t, s, "A", home())
	file := mustFile(t, s, "x.pdf", home())

	var notified []string
	unsubscribe := s.OnSelectionChange(func(id string) { notified = append(notified, id) })

	if err := s.SelectFile(file.ID); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if sel := s.Selected(); sel == nil || sel.ID != file.ID {
		t.Fatalf("Selected = %v", sel)
	}

	if err := s.SelectFile(folder.ID); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("selecting a folder err = %v", err)
	}
	if err := s.SelectFile("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("selecting unknown err = %v", err)
	}
	if sel := s.Selected(); sel == nil || sel.ID != file.ID {
		t.Error("failed selection replaced the current one")
	}

	if err := s.SelectFile(""); err != nil {
		t.Fatalf("SelectFile(\"\"): %v", err)
	}
	if s.Selected() != nil {
		t.Error("selection not cleared")
	}

	unsubscribe()
	_ = s.SelectFile(file.ID)

	if fmt.Sprint(notified) != fmt.Sprint([]string{file.ID, ""}) {
		t.Errorf("hooks saw %q", notified)
	}

	before := s.Tree()
	s.ClearSelection()
	if fmt.Sprint(s.Tree()) != fmt.Sprint(before) {
		t.Error("selection changed the tree")
	}
}

func TestStore_TreeAndReset(t *testing.T) {
	s := newTestStore(t)
	mustFolder(t, s, "Licenses", home())
	mustFile(t, s, "license.pdf", home("Licenses"))
	mustFolder(t, s, "Technical", home())

	tree := s.Tree()
	if len(tree) != 2 {
		t.Fatalf("tree roots = %d", len(tree))
	}
	if len(tree[0].Children) != 1 || tree[0].Children[0].Name != "license.pdf" {
		t.Errorf("Licenses children = %+v", tree[0].Children)
	}
	if tree[1].Children == nil {
		t.Error("empty folder should carry an empty, non-nil children list")
	}

	s.SetCurrentPath(home("Licenses"))
	s.Reset()
	if len(s.Tree()) != 0 || !s.CurrentPath().Equal(home()) || s.Selected() != nil {
		t.Error("Reset did not restore an empty store")
	}
}

func TestStore_ResolveRoot(t *testing.T) {
	s := newTestStore(t)
	node, err := s.Resolve(home())
	if err != nil || node != nil {
		t.Errorf("Resolve(root) = %v, %v; want nil, nil", node, err)
	}
}

func TestStore_CustomRootLabel(t *testing.T) {
	s := NewStore(Config{RootLabel: "Station"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := s.CreateFolder("Licenses", models.Path{"Station"}); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if _, err := s.CreateFolder("X", home()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("default label should not resolve, err = %v", err)
	}
}
