package sketchnet

import (
	"encoding/json"
	"time"
)

type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Collaborator grants a non-owner user access to a board. A user appears
// at most once in a board's collaborator list, and the owner never does.
type Collaborator struct {
	UserID     int        `json:"user"`
	Permission Permission `json:"permission"`
}

// Board is a named canvas. Shapes are stored and returned verbatim: the
// backend only guarantees they form a JSON array.
type Board struct {
	ID            int               `json:"id"`
	Name          string            `json:"name"`
	CreatedBy     int               `json:"createdBy"`
	Collaborators []Collaborator    `json:"collaborators"`
	Shapes        []json.RawMessage `json:"shapes"`
	Thumbnail     string            `json:"thumbnail"`
	Security      Visibility        `json:"security"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Collaborator returns the entry for userID, if any.
func (b *Board) Collaborator(userID int) (Collaborator, bool) {
	for _, c := range b.Collaborators {
		if c.UserID == userID {
			return c, true
		}
	}
	return Collaborator{}, false
}

type BoardStore interface {
	// Get retrieves a board by id, or nil if there is none.
	Get(int) (*Board, error)

	// ListForUser returns the boards the user owns or collaborates on.
	ListForUser(int) ([]*Board, error)

	// List returns all boards. Used for reindexing.
	List() ([]*Board, error)

	// Upsert inserts or updates a board. It fails with a conflict when
	// another board of the same owner already uses the name.
	Upsert(*Board) error

	// AddCollaborator appends a collaborator to the board within a single
	// store write. It fails with a conflict if the user is already a
	// collaborator, and returns the updated board.
	AddCollaborator(boardID int, c Collaborator) (*Board, error)

	// RemoveCollaborator removes the entry for userID within a single
	// store write. It fails with not-found if the user is not a
	// collaborator, and returns the updated board.
	RemoveCollaborator(boardID, userID int) (*Board, error)

	Delete(int) error
}

// BoardIndex is the search index over board names.
type BoardIndex interface {
	Index(*Board) error

	// Search returns the ids of the boards, among ids, whose name
	// contains name (case-insensitive).
	Search(name string, ids []int) ([]int, error)

	Delete(int) error
}
