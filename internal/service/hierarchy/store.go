package hierarchy

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"stationdocs/internal/config"
	"stationdocs/internal/domain"
	models "stationdocs/internal/domain/models/hierarchy"
	"stationdocs/internal/metrics"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

var noSlashes = regexp.MustCompile(`^[^/]+$`)

// Config configures a Store. Zero values fall back to defaults.
type Config struct {
	RootLabel string           // First segment of every path, "Home" by default
	Now       func() time.Time // Clock for Modified timestamps
	NewID     func() string    // Identity generator, uuid v4 by default
}

// entry is one node in the arena. Paths are never stored: they are derived
// by walking parentID links, so moving a folder can't leave stale paths below it.
type entry struct {
	node     models.Node // Path and Children are always empty here
	parentID string      // "" = root collection
	children []string    // Child IDs in insertion order (folders only)
}

// SelectionHook is called after the selection changes, outside the store lock.
type SelectionHook func(selectedID string)

// Store owns the folder/file hierarchy, the browsing cursor and the single
// file selection. Every method is one atomic mutation or a pure read, and
// every node handed out is a copy.
type Store struct {
	mu        sync.RWMutex
	rootLabel string
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger

	nodes    map[string]*entry
	root     []string // Top-level IDs in insertion order
	cursor   models.Path
	selected string

	hooksMu  sync.Mutex
	hooks    map[int]SelectionHook
	nextHook int
}

// NewStore creates an empty store with the cursor at the root
func NewStore(cfg Config, logger *slog.Logger) *Store {
	if cfg.RootLabel == "" {
		cfg.RootLabel = models.DefaultRootLabel
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	s := &Store{
		rootLabel: cfg.RootLabel,
		now:       cfg.Now,
		newID:     cfg.NewID,
		logger:    logger,
		hooks:     make(map[int]SelectionHook),
	}
	s.resetLocked()
	return s
}

// RootLabel returns the first segment of every path
func (s *Store) RootLabel() string { return s.rootLabel }

// RootPath returns the path denoting the root collection
func (s *Store) RootPath() models.Path { return models.RootPath(s.rootLabel) }

// Reset drops every node and returns the cursor to the root with no selection.
func (s *Store) Reset() {
	s.mu.Lock()
	hadSelection := s.selected != ""
	s.resetLocked()
	s.mu.Unlock()

	metrics.SetTreeSize(0, 0)
	if hadSelection {
		s.notifySelection("")
	}
	s.logger.Info("hierarchy reset")
}

func (s *Store) resetLocked() {
	s.nodes = make(map[string]*entry)
	s.root = nil
	s.cursor = s.RootPath()
	s.selected = ""
}

// ============================================================================
// Mutations
// ============================================================================

// CreateFolder appends a new, empty folder to the folder at path (or the root).
// The caller is expected to pre-validate name; an empty name is still rejected.
// An unresolved path returns NotFoundError and leaves the tree unchanged.
func (s *Store) CreateFolder(name string, path models.Path) (node *models.Node, err error) {
	defer func() { metrics.RecordStoreOperation("create_folder", err) }()

	name = strings.TrimSpace(name)
	if err := validateName(name, config.MaxFolderNameLength, "folder"); err != nil {
		return nil, err
	}
	if len(path)+1 > config.MaxPathDepth {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("folder %q would exceed maximum depth of %d", name, config.MaxPathDepth),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parentID, ok := s.resolveFolderLocked(path)
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %q not found", path.String())}
	}
	if err := s.checkFolderNameFreeLocked(parentID, name, ""); err != nil {
		return nil, err
	}

	e := &entry{
		node: models.Node{
			ID:       s.newID(),
			Kind:     models.KindFolder,
			Name:     name,
			Modified: s.now(),
		},
		parentID: parentID,
	}
	s.nodes[e.node.ID] = e
	s.appendChildLocked(parentID, e.node.ID)
	s.updateSizeLocked()

	created := s.copyLocked(e.node.ID, false)
	s.logger.Info("folder created",
		"id", created.ID,
		"name", created.Name,
		"path", created.Path.String(),
	)
	return &created, nil
}

// AddFiles turns each input into a file node and appends them, in input
// order, to the folder named by the input's Path or, when absent, the
// current cursor. Either every file is added or none is.
func (s *Store) AddFiles(items []models.FileInput) (added []models.Node, err error) {
	defer func() { metrics.RecordStoreOperation("add_files", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	type pending struct {
		e        *entry
		parentID string
	}
	batch := make([]pending, 0, len(items))

	for i, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = models.DefaultFileName
		}
		if err := validateName(name, config.MaxFileNameLength, "file"); err != nil {
			return nil, fmt.Errorf("file %d: %w", i, err)
		}

		dest := item.Path
		if len(dest) == 0 {
			dest = s.cursor
		}
		parentID, ok := s.resolveFolderLocked(dest)
		if !ok {
			return nil, &domain.NotFoundError{
				Message: fmt.Sprintf("file %q: folder %q not found", name, dest.String()),
			}
		}

		modified := s.now()
		if item.Modified != nil {
			modified = *item.Modified
		}
		size := item.Size
		if size == "" {
			size = models.DefaultFileSize
		}

		batch = append(batch, pending{
			e: &entry{
				node: models.Node{
					ID:       s.newID(),
					Kind:     models.KindFile,
					Name:     name,
					Modified: modified,
					Size:     size,
					Content:  slices.Clone(item.Content),
					Handle:   item.Handle,
					URL:      item.URL,
				},
				parentID: parentID,
			},
			parentID: parentID,
		})
	}

	added = make([]models.Node, 0, len(batch))
	for _, p := range batch {
		s.nodes[p.e.node.ID] = p.e
		s.appendChildLocked(p.parentID, p.e.node.ID)
	}
	for _, p := range batch {
		added = append(added, s.copyLocked(p.e.node.ID, false))
	}
	s.updateSizeLocked()

	s.logger.Info("files added", "count", len(added))
	return added, nil
}

// MoveItem reparents the node id (and its whole subtree) under the folder at
// target, keeping every identity. Paths below the moved node follow
// automatically. A target that doesn't resolve returns NotFoundError and the
// node stays where it was; moving a folder into itself or a descendant
// returns ValidationError.
func (s *Store) MoveItem(id string, target models.Path) (moved *models.Node, err error) {
	defer func() { metrics.RecordStoreOperation("move_item", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.nodes[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}
	targetID, ok := s.resolveFolderLocked(target)
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("target folder %q not found", target.String())}
	}

	if e.node.IsFolder() {
		if err := s.validateNoCycleLocked(id, targetID); err != nil {
			return nil, err
		}
		if targetID != e.parentID {
			if err := s.checkFolderNameFreeLocked(targetID, e.node.Name, id); err != nil {
				return nil, err
			}
		}
		if depth := len(target) + s.folderHeightLocked(id); depth > config.MaxPathDepth {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("moving folder %q would nest folders %d deep, maximum is %d", e.node.Name, depth, config.MaxPathDepth),
			}
		}
	}

	oldFull := s.pathLocked(id).Child(e.node.Name)

	s.removeChildLocked(e.parentID, id)
	e.parentID = targetID
	s.appendChildLocked(targetID, id)

	result := s.copyLocked(id, false)

	// Keep the cursor on the folder it was browsing
	if e.node.IsFolder() && s.cursor.HasPrefix(oldFull) {
		newFull := result.FullPath()
		s.cursor = append(newFull, s.cursor[len(oldFull):]...)
	}

	s.logger.Info("node moved",
		"id", id,
		"name", result.Name,
		"from", oldFull[:len(oldFull)-1].String(),
		"to", result.Path.String(),
	)
	return &result, nil
}

// Delete removes a node and, for folders, everything below it. A selection
// inside the removed subtree is cleared and a cursor inside it falls back to
// the removed node's parent. Returns the number of nodes removed.
func (s *Store) Delete(id string) (removed int, err error) {
	defer func() { metrics.RecordStoreOperation("delete", err) }()

	s.mu.Lock()
	e, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return 0, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}

	parentPath := s.pathLocked(id)
	full := parentPath.Child(e.node.Name)

	var ids []string
	s.collectSubtreeLocked(id, &ids)

	clearedSelection := false
	for _, nodeID := range ids {
		if nodeID == s.selected {
			s.selected = ""
			clearedSelection = true
		}
		delete(s.nodes, nodeID)
	}
	s.removeChildLocked(e.parentID, id)

	if e.node.IsFolder() && s.cursor.HasPrefix(full) {
		s.cursor = parentPath
	}
	s.updateSizeLocked()
	s.mu.Unlock()

	if clearedSelection {
		s.notifySelection("")
	}
	s.logger.Info("node deleted",
		"id", id,
		"name", e.node.Name,
		"path", parentPath.String(),
		"removed", len(ids),
	)
	return len(ids), nil
}

// SetCurrentPath replaces the cursor unconditionally. A path that doesn't
// resolve simply yields an empty listing from CurrentItems.
func (s *Store) SetCurrentPath(path models.Path) {
	s.mu.Lock()
	s.cursor = slices.Clone(path)
	s.mu.Unlock()

	s.logger.Debug("cursor moved", "path", path.String())
}

// SelectFile makes the file id the current selection. An empty id clears it.
func (s *Store) SelectFile(id string) error {
	if id == "" {
		s.ClearSelection()
		return nil
	}

	s.mu.Lock()
	e, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", id)}
	}
	if !e.node.IsFile() {
		s.mu.Unlock()
		return &domain.ValidationError{Message: fmt.Sprintf("%q is a folder, only files can be opened", e.node.Name)}
	}
	changed := s.selected != id
	s.selected = id
	s.mu.Unlock()

	if changed {
		s.notifySelection(id)
		s.logger.Debug("file selected", "id", id, "name", e.node.Name)
	}
	return nil
}

// ClearSelection leaves no file selected
func (s *Store) ClearSelection() {
	s.mu.Lock()
	changed := s.selected != ""
	s.selected = ""
	s.mu.Unlock()

	if changed {
		s.notifySelection("")
		s.logger.Debug("selection cleared")
	}
}

// OnSelectionChange registers a hook run after every selection change.
// The returned function unregisters it.
func (s *Store) OnSelectionChange(hook SelectionHook) (unsubscribe func()) {
	s.hooksMu.Lock()
	id := s.nextHook
	s.nextHook++
	s.hooks[id] = hook
	s.hooksMu.Unlock()

	return func() {
		s.hooksMu.Lock()
		delete(s.hooks, id)
		s.hooksMu.Unlock()
	}
}

func (s *Store) notifySelection(selectedID string) {
	s.hooksMu.Lock()
	hooks := make([]SelectionHook, 0, len(s.hooks))
	for _, h := range s.hooks {
		hooks = append(hooks, h)
	}
	s.hooksMu.Unlock()

	for _, h := range hooks {
		h(selectedID)
	}
}

// ============================================================================
// Reads
// ============================================================================

// CurrentItems returns the children of the folder at the cursor in insertion
// order, or an empty list when the cursor no longer resolves.
func (s *Store) CurrentItems() []models.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folderID, ok := s.resolveFolderLocked(s.cursor)
	if !ok {
		return []models.Node{}
	}
	return s.listLocked(folderID)
}

// CurrentPath returns a copy of the cursor
func (s *Store) CurrentPath() models.Path {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cursor)
}

// Selected returns the selected file, or nil
func (s *Store) Selected() *models.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selected == "" {
		return nil
	}
	n := s.copyLocked(s.selected, false)
	return &n
}

// ListAt returns the children of the folder at path
func (s *Store) ListAt(path models.Path) ([]models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folderID, ok := s.resolveFolderLocked(path)
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %q not found", path.String())}
	}
	return s.listLocked(folderID), nil
}

// Get returns the node with the given identity
func (s *Store) Get(id string) (*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[id]; !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}
	n := s.copyLocked(id, false)
	return &n, nil
}

// PathOf returns the path of a node: the names from the root to its parent
func (s *Store) PathOf(id string) (models.Path, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[id]; !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}
	return s.pathLocked(id), nil
}

// Resolve returns the folder at path by walking folder names one level at a
// time; among same-named siblings the first in insertion order wins. The
// root path resolves to a nil node with a nil error.
func (s *Store) Resolve(path models.Path) (*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folderID, ok := s.resolveFolderLocked(path)
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %q not found", path.String())}
	}
	if folderID == "" {
		return nil, nil
	}
	n := s.copyLocked(folderID, false)
	return &n, nil
}

// Tree returns a nested snapshot of the whole hierarchy
func (s *Store) Tree() []models.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Node, 0, len(s.root))
	for _, id := range s.root {
		out = append(out, s.copyLocked(id, true))
	}
	return out
}

// Stats counts folders and files in the tree
func (s *Store) Stats() (folders, files int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked()
}

// ============================================================================
// Internals (callers hold s.mu)
// ============================================================================

// resolveFolderLocked returns the folder ID at path ("" for the root).
func (s *Store) resolveFolderLocked(path models.Path) (string, bool) {
	if len(path) == 0 || path[0] != s.rootLabel {
		return "", false
	}

	current := ""
	for _, segment := range path.Segments() {
		found := ""
		for _, childID := range s.childrenLocked(current) {
			child := s.nodes[childID]
			if child.node.IsFolder() && child.node.Name == segment {
				found = childID
				break
			}
		}
		if found == "" {
			return "", false
		}
		current = found
	}
	return current, true
}

func (s *Store) childrenLocked(parentID string) []string {
	if parentID == "" {
		return s.root
	}
	return s.nodes[parentID].children
}

func (s *Store) appendChildLocked(parentID, id string) {
	if parentID == "" {
		s.root = append(s.root, id)
		return
	}
	parent := s.nodes[parentID]
	parent.children = append(parent.children, id)
}

func (s *Store) removeChildLocked(parentID, id string) {
	if parentID == "" {
		s.root = slices.DeleteFunc(s.root, func(c string) bool { return c == id })
		return
	}
	parent := s.nodes[parentID]
	parent.children = slices.DeleteFunc(parent.children, func(c string) bool { return c == id })
}

// pathLocked walks the parent chain up to the root.
func (s *Store) pathLocked(id string) models.Path {
	var names []string
	for parentID := s.nodes[id].parentID; parentID != ""; parentID = s.nodes[parentID].parentID {
		names = append(names, s.nodes[parentID].node.Name)
	}
	path := make(models.Path, 0, len(names)+1)
	path = append(path, s.rootLabel)
	for i := len(names) - 1; i >= 0; i-- {
		path = append(path, names[i])
	}
	return path
}

func (s *Store) copyLocked(id string, withChildren bool) models.Node {
	e := s.nodes[id]
	n := e.node.Clone()
	n.Path = s.pathLocked(id)
	if withChildren && n.IsFolder() {
		n.Children = make([]models.Node, 0, len(e.children))
		for _, childID := range e.children {
			n.Children = append(n.Children, s.copyLocked(childID, true))
		}
	}
	return n
}

func (s *Store) listLocked(folderID string) []models.Node {
	ids := s.childrenLocked(folderID)
	out := make([]models.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.copyLocked(id, false))
	}
	return out
}

func (s *Store) collectSubtreeLocked(id string, out *[]string) {
	*out = append(*out, id)
	for _, childID := range s.nodes[id].children {
		s.collectSubtreeLocked(childID, out)
	}
}

// folderHeightLocked counts the folder levels from id down to its deepest subfolder, id included.
func (s *Store) folderHeightLocked(id string) int {
	height := 0
	for _, childID := range s.nodes[id].children {
		if s.nodes[childID].node.IsFolder() {
			height = max(height, s.folderHeightLocked(childID))
		}
	}
	return height + 1
}

// validateNoCycleLocked ensures targetID is neither folderID nor one of its descendants.
func (s *Store) validateNoCycleLocked(folderID, targetID string) error {
	for current := targetID; current != ""; current = s.nodes[current].parentID {
		if current == folderID {
			return &domain.ValidationError{Message: "cannot move a folder into itself or one of its descendants"}
		}
	}
	return nil
}

// checkFolderNameFreeLocked rejects a second sibling folder with the same name,
// since path resolution is by name.
func (s *Store) checkFolderNameFreeLocked(parentID, name, exceptID string) error {
	for _, childID := range s.childrenLocked(parentID) {
		child := s.nodes[childID]
		if childID != exceptID && child.node.IsFolder() && child.node.Name == name {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a folder named %q already exists in this location", name),
				ResourceType: "folder",
				ResourceID:   childID,
			}
		}
	}
	return nil
}

func (s *Store) countLocked() (folders, files int) {
	for _, e := range s.nodes {
		if e.node.IsFolder() {
			folders++
		} else {
			files++
		}
	}
	return folders, files
}

func (s *Store) updateSizeLocked() {
	metrics.SetTreeSize(s.countLocked())
}

func validateName(name string, maxLength int, kind string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.Length(1, maxLength),
		validation.Match(noSlashes).Error(kind+" name cannot contain slashes"),
	)
	if err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid %s name: %v", kind, err)}
	}
	return nil
}
