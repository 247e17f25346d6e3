package viewer

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"stationdocs/internal/domain"
	models "stationdocs/internal/domain/models/hierarchy"
	"stationdocs/internal/service/hierarchy"
)

// countingMinter hands out leases and counts releases per URL.
type countingMinter struct {
	minted   []string
	released map[string]int
	fail     bool
}

func newCountingMinter() *countingMinter {
	return &countingMinter{released: make(map[string]int)}
}

func (m *countingMinter) Mint(handle *models.FileHandle) (*Lease, error) {
	if m.fail {
		return nil, errors.New("mint failed")
	}
	url := "blob:test/" + handle.Name + "/" + string(rune('a'+len(m.minted)))
	m.minted = append(m.minted, url)
	return &Lease{URL: url, release: func() { m.released[url]++ }}, nil
}

type fixture struct {
	store   *hierarchy.Store
	minter  *countingMinter
	session *Session
	upload  models.Node // Has a file handle
	linked  models.Node // Has only a URL
	text    models.Node // Has only content pages
	single  models.Node // One content page
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := hierarchy.NewStore(hierarchy.Config{}, logger)

	added, err := store.AddFiles([]models.FileInput{
		{Name: "upload.pdf", Handle: &models.FileHandle{Name: "upload.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}},
		{Name: "linked.pdf", URL: "https://files.example.com/linked.pdf"},
		{Name: "license.pdf", Content: []string{"page one", "page two", "page three"}},
		{Name: "memo.pdf", Content: []string{"only page"}},
	})
	if err != nil {
		t.Fatalf("AddFiles: %v", err)
	}

	minter := newCountingMinter()
	return &fixture{
		store:   store,
		minter:  minter,
		session: NewSession(store, minter, logger),
		upload:  added[0],
		linked:  added[1],
		text:    added[2],
		single:  added[3],
	}
}

func (f *fixture) assertAllReleasedOnce(t *testing.T) {
	t.Helper()
	for _, url := range f.minter.minted {
		if n := f.minter.released[url]; n != 1 {
			t.Errorf("url %s released %d times, want 1", url, n)
		}
	}
}

func TestSession_OpenModes(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name          string
		file          models.Node
		wantMode      Mode
		wantTransient bool
		wantURL       string
	}{
		{name: "file handle mints a url", file: f.upload, wantMode: ModeURL, wantTransient: true},
		{name: "stored url adopted", file: f.linked, wantMode: ModeURL, wantURL: "https://files.example.com/linked.pdf"},
		{name: "content falls back to pages", file: f.text, wantMode: ModePages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := f.session.Open(tt.file.ID)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if !state.Open || state.File.ID != tt.file.ID {
				t.Errorf("state = %+v", state)
			}
			if state.Mode != tt.wantMode || state.Transient != tt.wantTransient {
				t.Errorf("mode = %s transient = %v", state.Mode, state.Transient)
			}
			if tt.wantURL != "" && state.URL != tt.wantURL {
				t.Errorf("url = %q, want %q", state.URL, tt.wantURL)
			}
			if sel := f.store.Selected(); sel == nil || sel.ID != tt.file.ID {
				t.Errorf("store selection = %v", sel)
			}
		})
	}

	f.session.Close()
	f.assertAllReleasedOnce(t)
}

func TestSession_SelectThenCloseReleasesOnce(t *testing.T) {
	f := newFixture(t)

	if _, err := f.session.Open(f.upload.ID); err != nil {
		t.Fatalf("Open: %v", err)
	}
	f.session.Close()
	f.session.Close()

	if f.store.Selected() != nil {
		t.Error("selection not cleared")
	}
	if len(f.minter.minted) != 1 {
		t.Fatalf("minted %d urls, want 1", len(f.minter.minted))
	}
	f.assertAllReleasedOnce(t)
	if state := f.session.State(); state.Open {
		t.Errorf("state after close = %+v", state)
	}
}

func TestSession_ExitPaths(t *testing.T) {
	t.Run("switching files", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.session.Open(f.upload.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := f.session.Open(f.text.ID); err != nil {
			t.Fatal(err)
		}
		f.assertAllReleasedOnce(t)
	})

	t.Run("reopening the same file mints a fresh url", func(t *testing.T) {
		f := newFixture(t)
		first, _ := f.session.Open(f.upload.ID)
		second, _ := f.session.Open(f.upload.ID)
		if first.URL == second.URL {
			t.Error("expected a fresh url")
		}
		if f.minter.released[first.URL] != 1 {
			t.Error("first url not released")
		}
	})

	t.Run("selection cleared through the store", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.session.Open(f.upload.ID); err != nil {
			t.Fatal(err)
		}
		f.store.ClearSelection()
		f.assertAllReleasedOnce(t)
		if f.session.State().Open {
			t.Error("session still open")
		}
	})

	t.Run("open file deleted", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.session.Open(f.upload.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := f.store.Delete(f.upload.ID); err != nil {
			t.Fatal(err)
		}
		f.assertAllReleasedOnce(t)
	})

	t.Run("teardown", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.session.Open(f.upload.ID); err != nil {
			t.Fatal(err)
		}
		f.session.Teardown()
		f.assertAllReleasedOnce(t)

		// Detached: later selections don't reach the session
		if err := f.store.SelectFile(f.text.ID); err != nil {
			t.Fatal(err)
		}
		if f.session.State().Open {
			t.Error("torn-down session reacted to selection")
		}
	})
}

func TestSession_ConcurrentOpensAgreeWithStore(t *testing.T) {
	f := newFixture(t)
	ids := []string{f.upload.ID, f.text.ID, f.linked.ID}

	var wg sync.WaitGroup
	for i := range 60 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.session.Open(ids[i%len(ids)]); err != nil {
				t.Errorf("Open: %v", err)
			}
		}()
	}
	wg.Wait()

	state := f.session.State()
	sel := f.store.Selected()
	if !state.Open || sel == nil || state.File.ID != sel.ID {
		t.Fatalf("session file = %v, store selection = %v", state.File, sel)
	}

	f.session.Close()
	f.assertAllReleasedOnce(t)
}

func TestSession_MintFailureFallsBackToPages(t *testing.T) {
	f := newFixture(t)
	f.minter.fail = true

	state, err := f.session.Open(f.upload.ID)
	if err != nil {
		t.Fatalf("Open should degrade, got %v", err)
	}
	if state.Mode != ModePages || state.Transient || state.URL != "" {
		t.Errorf("state = %+v", state)
	}
}

func TestSession_OpenErrors(t *testing.T) {
	f := newFixture(t)

	if _, err := f.session.Open("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Open(missing) err = %v", err)
	}

	folder, err := f.store.CreateFolder("Licenses", models.Path{"Home"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.session.Open(folder.ID); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Open(folder) err = %v", err)
	}
	if len(f.minter.minted) != 0 {
		t.Error("minted for a failed open")
	}
}

func TestSession_PageNavigation(t *testing.T) {
	f := newFixture(t)

	if _, err := f.session.NextPage(); !errors.Is(err, ErrNoFileOpen) {
		t.Errorf("NextPage with nothing open err = %v", err)
	}

	state, err := f.session.Open(f.text.ID)
	if err != nil {
		t.Fatal(err)
	}
	if state.PageCount != 3 || state.Page != 0 || state.PageText != "page one" {
		t.Fatalf("initial state = %+v", state)
	}

	steps := []struct {
		name string
		do   func() (State, error)
		want int
	}{
		{"prev at start clamps", f.session.PrevPage, 0},
		{"next", f.session.NextPage, 1},
		{"next", f.session.NextPage, 2},
		{"next at end clamps", f.session.NextPage, 2},
		{"seek past end clamps", func() (State, error) { return f.session.SeekPage(99) }, 2},
		{"seek negative clamps", func() (State, error) { return f.session.SeekPage(-4) }, 0},
	}
	for _, step := range steps {
		state, err := step.do()
		if err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if state.Page != step.want {
			t.Errorf("%s: page = %d, want %d", step.name, state.Page, step.want)
		}
	}
}

func TestSession_SinglePageIsNoOp(t *testing.T) {
	f := newFixture(t)
	if _, err := f.session.Open(f.single.ID); err != nil {
		t.Fatal(err)
	}

	next, _ := f.session.NextPage()
	prev, _ := f.session.PrevPage()
	if next.Page != 0 || prev.Page != 0 {
		t.Errorf("pages = %d, %d; want 0, 0", next.Page, prev.Page)
	}
}
