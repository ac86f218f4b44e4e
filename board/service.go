// Package board orchestrates the lifecycle of boards: create, list,
// search, read, delete. Every permission decision is delegated to the
// access package.
package board

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/access"
	"github.com/bobinette/sketchnet/errors"
)

// Summary is the board representation used in lists and search results.
// It leaves the shapes out for payload economy.
type Summary struct {
	ID        int                  `json:"id"`
	Name      string               `json:"name"`
	Thumbnail string               `json:"thumbnail"`
	Security  sketchnet.Visibility `json:"security"`
	Role      string               `json:"role"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// Profile is the minimal user representation embedded in a board detail.
type Profile struct {
	ID       int                `json:"id"`
	Username string             `json:"username,omitempty"`
	Email    string             `json:"email"`
	Provider sketchnet.Provider `json:"authProvider"`
}

type CollaboratorDetail struct {
	Profile
	Permission sketchnet.Permission `json:"permission"`
}

// Detail is the full board, with the owner and collaborators expanded
// for display.
type Detail struct {
	ID            int                  `json:"id"`
	Name          string               `json:"name"`
	Owner         Profile              `json:"owner"`
	Collaborators []CollaboratorDetail `json:"collaborators"`
	Shapes        []json.RawMessage    `json:"shapes"`
	Thumbnail     string               `json:"thumbnail"`
	Security      sketchnet.Visibility `json:"security"`
	Role          string               `json:"role"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

type CollaboratorParams struct {
	UserID     int                  `json:"userId"`
	Permission sketchnet.Permission `json:"permission"`
}

type CreateParams struct {
	Name          string               `json:"name"`
	Security      sketchnet.Visibility `json:"security"`
	Collaborators []CollaboratorParams `json:"collaborators"`
}

type Service struct {
	store  sketchnet.BoardStore
	index  sketchnet.BoardIndex
	users  sketchnet.UserStore
	access *access.Service
}

func NewService(store sketchnet.BoardStore, index sketchnet.BoardIndex, users sketchnet.UserStore, access *access.Service) *Service {
	return &Service{
		store:  store,
		index:  index,
		users:  users,
		access: access,
	}
}

// List returns the summaries of the boards userID owns or collaborates
// on. No board is not an error, just an empty list.
func (s *Service) List(userID int) ([]Summary, error) {
	boards, err := s.store.ListForUser(userID)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("error listing boards for user %d", userID), errors.WithCause(err))
	}

	summaries := make([]Summary, len(boards))
	for i, board := range boards {
		summaries[i] = summarize(board, userID)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

// Create builds a new board owned by ownerID. The security defaults to
// private, the shape list starts empty, and the initial collaborators
// are validated before anything is written.
func (s *Service) Create(ownerID int, params CreateParams) (*Summary, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, errors.New(
			"a board needs a name",
			errors.BadRequest(),
			errors.WithDetail("name", "cannot be blank"),
		)
	}

	security := params.Security
	if security == "" {
		security = sketchnet.VisibilityPrivate
	}
	if !security.Valid() {
		return nil, errors.New(
			fmt.Sprintf("unknown security %q", security),
			errors.BadRequest(),
			errors.WithDetail("security", "must be public or private"),
		)
	}

	collaborators, err := s.validateCollaborators(ownerID, params.Collaborators)
	if err != nil {
		return nil, err
	}

	board := &sketchnet.Board{
		Name:          strings.TrimSpace(params.Name),
		CreatedBy:     ownerID,
		Collaborators: collaborators,
		Shapes:        []json.RawMessage{},
		Security:      security,
	}
	if err := s.store.Upsert(board); err != nil {
		if errors.Code(err) < 500 {
			return nil, err
		}
		return nil, errors.New("error saving board", errors.WithCause(err))
	}

	if err := s.index.Index(board); err != nil {
		return nil, errors.New(fmt.Sprintf("error indexing board %d", board.ID), errors.WithCause(err))
	}

	summary := summarize(board, ownerID)
	return &summary, nil
}

func (s *Service) validateCollaborators(ownerID int, params []CollaboratorParams) ([]sketchnet.Collaborator, error) {
	collaborators := make([]sketchnet.Collaborator, 0, len(params))
	seen := make(map[int]struct{})
	for _, p := range params {
		if !p.Permission.Valid() {
			return nil, errors.New(
				fmt.Sprintf("unknown permission %q", p.Permission),
				errors.BadRequest(),
				errors.WithDetail("collaborators", "permission must be view or edit"),
			)
		}
		if p.UserID == ownerID {
			return nil, errors.New(
				"the owner cannot be added as a collaborator of their own board",
				errors.BadRequest(),
				errors.WithDetail("collaborators", "contains the board owner"),
			)
		}
		if _, ok := seen[p.UserID]; ok {
			return nil, errors.New(
				fmt.Sprintf("user %d appears twice", p.UserID),
				errors.BadRequest(),
				errors.WithDetail("collaborators", "contains duplicates"),
			)
		}
		seen[p.UserID] = struct{}{}

		user, err := s.users.Get(p.UserID)
		if err != nil {
			return nil, errors.New(fmt.Sprintf("error retrieving user %d", p.UserID), errors.WithCause(err))
		} else if user == nil {
			return nil, errors.New(
				fmt.Sprintf("<User %d> not found", p.UserID),
				errors.BadRequest(),
				errors.WithDetail("collaborators", fmt.Sprintf("unknown user %d", p.UserID)),
			)
		}

		collaborators = append(collaborators, sketchnet.Collaborator{
			UserID:     p.UserID,
			Permission: p.Permission,
		})
	}
	return collaborators, nil
}

// Get returns the full board, owner and collaborators expanded. Not
// found comes before permission: the caller learns a board does not
// exist, never that it exists but is off-limits as a 404.
func (s *Service) Get(boardID, userID int) (*Detail, error) {
	board, err := s.store.Get(boardID)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("error retrieving board %d", boardID), errors.WithCause(err))
	} else if board == nil {
		return nil, errBoardNotFound(boardID)
	}

	if !s.access.CanRead(board, userID) {
		return nil, errors.New("you cannot see this board", errors.Forbidden())
	}

	return s.detail(board, userID)
}

func (s *Service) detail(board *sketchnet.Board, userID int) (*Detail, error) {
	owner, err := s.profile(board.CreatedBy)
	if err != nil {
		return nil, err
	}

	collaborators := make([]CollaboratorDetail, len(board.Collaborators))
	for i, c := range board.Collaborators {
		profile, err := s.profile(c.UserID)
		if err != nil {
			return nil, err
		}
		collaborators[i] = CollaboratorDetail{
			Profile:    profile,
			Permission: c.Permission,
		}
	}

	shapes := board.Shapes
	if shapes == nil {
		shapes = []json.RawMessage{}
	}

	return &Detail{
		ID:            board.ID,
		Name:          board.Name,
		Owner:         owner,
		Collaborators: collaborators,
		Shapes:        shapes,
		Thumbnail:     board.Thumbnail,
		Security:      board.Security,
		Role:          access.Role(board, userID),
		CreatedAt:     board.CreatedAt,
		UpdatedAt:     board.UpdatedAt,
	}, nil
}

func (s *Service) profile(userID int) (Profile, error) {
	user, err := s.users.Get(userID)
	if err != nil {
		return Profile{}, errors.New(fmt.Sprintf("error retrieving user %d", userID), errors.WithCause(err))
	} else if user == nil {
		// The user record went away from under the board. Keep the id so
		// the entry still renders.
		return Profile{ID: userID}, nil
	}

	profile := Profile{
		ID:       user.ID,
		Email:    user.Email,
		Provider: user.Provider,
	}
	if user.Provider == sketchnet.ProviderLocal {
		profile.Username = user.Name
	}
	return profile, nil
}

// Delete removes the board and its index entry. Owner only.
func (s *Service) Delete(boardID, userID int) error {
	board, err := s.store.Get(boardID)
	if err != nil {
		return errors.New(fmt.Sprintf("error retrieving board %d", boardID), errors.WithCause(err))
	} else if board == nil {
		return errBoardNotFound(boardID)
	}

	if !s.access.CanManage(board, userID) {
		return errors.New("only the board owner can delete it", errors.Forbidden())
	}

	if err := s.index.Delete(boardID); err != nil {
		return errors.New(fmt.Sprintf("error deleting board %d from the index", boardID), errors.WithCause(err))
	}
	if err := s.store.Delete(boardID); err != nil {
		return errors.New(fmt.Sprintf("error deleting board %d", boardID), errors.WithCause(err))
	}
	return nil
}

// Search returns the summaries of the boards userID owns or
// collaborates on whose name contains name, case-insensitively.
func (s *Service) Search(userID int, name string) ([]Summary, error) {
	boards, err := s.store.ListForUser(userID)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("error listing boards for user %d", userID), errors.WithCause(err))
	}

	ids := make([]int, len(boards))
	byID := make(map[int]*sketchnet.Board, len(boards))
	for i, board := range boards {
		ids[i] = board.ID
		byID[board.ID] = board
	}

	found, err := s.index.Search(name, ids)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("error searching boards for %q", name), errors.WithCause(err))
	}

	summaries := make([]Summary, 0, len(found))
	for _, id := range found {
		if board, ok := byID[id]; ok {
			summaries = append(summaries, summarize(board, userID))
		}
	}
	return summaries, nil
}

func summarize(board *sketchnet.Board, userID int) Summary {
	return Summary{
		ID:        board.ID,
		Name:      board.Name,
		Thumbnail: board.Thumbnail,
		Security:  board.Security,
		Role:      access.Role(board, userID),
		CreatedAt: board.CreatedAt,
		UpdatedAt: board.UpdatedAt,
	}
}

func errBoardNotFound(id int) error {
	return errors.New(fmt.Sprintf("<Board %d> not found", id), errors.NotFound())
}
