// Package viewer binds the selected file to a viewing session and owns the
// transient URLs created for it.
package viewer

import (
	"fmt"
	"log/slog"
	"sync"

	"stationdocs/internal/domain"
	models "stationdocs/internal/domain/models/hierarchy"
	"stationdocs/internal/service/hierarchy"
)

// ErrNoFileOpen is returned by page navigation when nothing is open
var ErrNoFileOpen = fmt.Errorf("%w: no file is open", domain.ErrNotFound)

// Mode says how the open file is displayed
type Mode string

const (
	ModeURL   Mode = "url"   // Rendered from a URL (minted or adopted)
	ModePages Mode = "pages" // Text page fallback
)

// Selector is the store surface the session needs
type Selector interface {
	Get(id string) (*models.Node, error)
	SelectFile(id string) error
	ClearSelection()
	OnSelectionChange(hook hierarchy.SelectionHook) (unsubscribe func())
}

// State is a snapshot of the session
type State struct {
	Open      bool         `json:"open"`
	File      *models.Node `json:"file,omitempty"`
	Mode      Mode         `json:"mode,omitempty"`
	URL       string       `json:"url,omitempty"`
	Transient bool         `json:"transient,omitempty"` // URL was minted for this session
	Page      int          `json:"page"`
	PageCount int          `json:"page_count"`
	PageText  string       `json:"page_text,omitempty"`
}

// Session is the lifecycle of the currently open file. Any URL it mints is
// released on every exit path: Close, opening another file, the selection
// changing underneath it (e.g. the file is deleted) and Teardown.
type Session struct {
	store  Selector
	minter URLMinter
	logger *slog.Logger

	// Held across SelectFile and binding so the session and the store's
	// selection agree on the open file
	openMu sync.Mutex

	mu     sync.Mutex
	fileID string
	file   models.Node
	lease  *Lease
	url    string
	pager  *Pager

	unsubscribe func()
}

// NewSession creates a session and starts following the store's selection
func NewSession(store Selector, minter URLMinter, logger *slog.Logger) *Session {
	s := &Session{
		store:  store,
		minter: minter,
		logger: logger,
	}
	s.unsubscribe = store.OnSelectionChange(s.onSelectionChange)
	return s
}

// Open selects the file id and binds it to the session. A file handle gets a
// fresh transient URL, a stored URL is adopted as-is, and otherwise (or if
// minting fails) the text pages are shown.
func (s *Session) Open(id string) (State, error) {
	s.openMu.Lock()
	defer s.openMu.Unlock()

	node, err := s.store.Get(id)
	if err != nil {
		return State{}, err
	}
	// Switching files releases the previous lease through onSelectionChange
	if err := s.store.SelectFile(id); err != nil {
		return State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Reopening the same file still gets a fresh URL
	s.releaseLocked()

	s.fileID = node.ID
	s.file = *node
	s.pager = NewPager(node.Content)

	switch {
	case node.Handle != nil:
		lease, err := s.minter.Mint(node.Handle)
		if err != nil {
			s.logger.Warn("transient url unavailable, falling back to pages",
				"file_id", node.ID,
				"name", node.Name,
				"error", err,
			)
			break
		}
		s.lease = lease
		s.url = lease.URL
	case node.URL != "":
		s.url = node.URL
	}

	s.logger.Info("file opened",
		"file_id", node.ID,
		"name", node.Name,
		"mode", s.modeLocked(),
	)
	return s.stateLocked(), nil
}

// Close releases the session's URL and clears the selection. Safe to call
// when nothing is open.
func (s *Session) Close() {
	s.openMu.Lock()
	defer s.openMu.Unlock()

	s.mu.Lock()
	closed := s.fileID
	s.releaseLocked()
	s.resetLocked()
	s.mu.Unlock()

	s.store.ClearSelection()
	if closed != "" {
		s.logger.Info("file closed", "file_id", closed)
	}
}

// Teardown closes the session and stops following the selection
func (s *Session) Teardown() {
	s.Close()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// State returns the current snapshot
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// NextPage advances one text page, staying put on the last page
func (s *Session) NextPage() (State, error) {
	return s.navigate(func(p *Pager) { p.Next() })
}

// PrevPage goes back one text page, staying put on the first page
func (s *Session) PrevPage() (State, error) {
	return s.navigate(func(p *Pager) { p.Prev() })
}

// SeekPage jumps to page i, clamped into range
func (s *Session) SeekPage(i int) (State, error) {
	return s.navigate(func(p *Pager) { p.Seek(i) })
}

func (s *Session) navigate(move func(*Pager)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fileID == "" {
		return State{}, ErrNoFileOpen
	}
	move(s.pager)
	return s.stateLocked(), nil
}

// onSelectionChange drops the session's file when the store selects
// something else or clears the selection.
func (s *Session) onSelectionChange(selectedID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fileID == "" || selectedID == s.fileID {
		return
	}
	s.logger.Debug("selection moved away, releasing viewer",
		"file_id", s.fileID,
		"selected", selectedID,
	)
	s.releaseLocked()
	s.resetLocked()
}

func (s *Session) releaseLocked() {
	if s.lease != nil {
		s.lease.Release()
		s.lease = nil
	}
	s.url = ""
}

func (s *Session) resetLocked() {
	s.fileID = ""
	s.file = models.Node{}
	s.pager = nil
}

func (s *Session) modeLocked() Mode {
	if s.url != "" {
		return ModeURL
	}
	return ModePages
}

func (s *Session) stateLocked() State {
	if s.fileID == "" {
		return State{}
	}

	file := s.file.Clone()
	st := State{
		Open:      true,
		File:      &file,
		Mode:      s.modeLocked(),
		URL:       s.url,
		Transient: s.lease != nil,
		Page:      s.pager.Index(),
		PageCount: s.pager.Len(),
	}
	if text, ok := s.pager.Current(); ok {
		st.PageText = text
	}
	return st
}
