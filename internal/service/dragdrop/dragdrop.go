// Package dragdrop implements the negotiation between a dragged node (the
// source) and a folder it is dropped on (the target).
package dragdrop

import (
	"errors"
	"fmt"
	"log/slog"

	"stationdocs/internal/domain"
	models "stationdocs/internal/domain/models/hierarchy"
	"stationdocs/internal/metrics"
)

// ItemType is the drag type offered by a source
type ItemType string

const (
	TypeFile   ItemType = "FILE"
	TypeFolder ItemType = "FOLDER"
)

// Rejection reasons. Both match domain.ErrValidation.
var (
	ErrSameLocation   = fmt.Errorf("%w: item is already in this folder", domain.ErrValidation)
	ErrIntoDescendant = fmt.Errorf("%w: cannot move a folder into itself or one of its descendants", domain.ErrValidation)
)

// Payload is what a source offers on drag start
type Payload struct {
	ID   string      `json:"id"`
	Type ItemType    `json:"type"`
	Path models.Path `json:"path"` // The dragged node's parent path
	Node models.Node `json:"item"`
}

// NodeReader is the store surface a drag source needs
type NodeReader interface {
	Get(id string) (*models.Node, error)
}

// Mover is the store surface a drop target needs
type Mover interface {
	MoveItem(id string, target models.Path) (*models.Node, error)
}

// Begin builds the payload for dragging node id, reading its current path from the store.
func Begin(reader NodeReader, id string) (Payload, error) {
	node, err := reader.Get(id)
	if err != nil {
		return Payload{}, err
	}
	return NewPayload(*node), nil
}

// NewPayload builds a payload from a node snapshot
func NewPayload(node models.Node) Payload {
	itemType := TypeFile
	if node.IsFolder() {
		itemType = TypeFolder
	}
	return Payload{
		ID:   node.ID,
		Type: itemType,
		Path: node.Path,
		Node: node,
	}
}

// HoverState is the pair of signals a target exposes while something hovers over it
type HoverState struct {
	IsOver  bool `json:"is_over"`
	CanDrop bool `json:"can_drop"`
}

// Result reports the outcome of a drop. A rejected drop leaves the tree untouched.
type Result struct {
	Moved  bool         `json:"moved"`
	Reason string       `json:"reason,omitempty"`
	Node   *models.Node `json:"item,omitempty"`
}

// Target is a droppable folder identified by its own path
type Target struct {
	Path   models.Path
	mover  Mover
	logger *slog.Logger
}

// NewTarget creates a drop target for the folder at path
func NewTarget(path models.Path, mover Mover, logger *slog.Logger) *Target {
	return &Target{
		Path:   path,
		mover:  mover,
		logger: logger,
	}
}

// Check runs the legality checks in order without touching the store:
//  1. the payload already sits in a folder with the target's name at the target's depth
//  2. a folder payload would land inside its own subtree
//
// Check 1 compares only depth and the last segment, so a drop between two
// same-named folders under different parents is also refused.
func (t *Target) Check(p Payload) error {
	if p.Path.Depth() == t.Path.Depth() && p.Path.Terminal() == t.Path.Terminal() {
		return ErrSameLocation
	}
	if p.Type == TypeFolder && t.Path.HasPrefix(p.Path.Child(p.Node.Name)) {
		return ErrIntoDescendant
	}
	return nil
}

// Hover recomputes the hover signals. A nil payload means nothing is hovering.
func (t *Target) Hover(p *Payload) HoverState {
	if p == nil {
		return HoverState{}
	}
	return HoverState{
		IsOver:  true,
		CanDrop: t.Check(*p) == nil,
	}
}

// Drop checks the payload and, if legal, moves it into the target folder.
// Illegal drops are reported in the Result, not as an error; the error is
// reserved for store failures such as a target that no longer exists.
func (t *Target) Drop(p Payload) (Result, error) {
	if err := t.Check(p); err != nil {
		outcome := "rejected_noop"
		if errors.Is(err, ErrIntoDescendant) {
			outcome = "rejected_cycle"
		}
		metrics.RecordDrop(outcome)
		t.logger.Debug("drop rejected",
			"id", p.ID,
			"target", t.Path.String(),
			"reason", err.Error(),
		)
		return Result{Moved: false, Reason: err.Error()}, nil
	}

	moved, err := t.mover.MoveItem(p.ID, t.Path)
	if err != nil {
		// The store re-checks ancestry; a cycle it catches is still a rejection
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrConflict) {
			metrics.RecordDrop("rejected_store")
			return Result{Moved: false, Reason: err.Error()}, nil
		}
		metrics.RecordDrop("failed")
		return Result{}, fmt.Errorf("move %s to %s: %w", p.Node.Name, t.Path.String(), err)
	}

	metrics.RecordDrop("moved")
	t.logger.Info("item dropped",
		"id", p.ID,
		"name", p.Node.Name,
		"target", t.Path.String(),
	)
	return Result{Moved: true, Node: moved}, nil
}
