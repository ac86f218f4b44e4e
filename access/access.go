// Package access is the single authority deciding whether a user may
// read, delete or reshare a board, and the only place allowed to mutate
// a board's collaborator list.
package access

import (
	"fmt"
	"net/http"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/errors"
)

const (
	RoleOwner        = "owner"
	RoleCollaborator = "collaborator"
)

type Service struct {
	boards sketchnet.BoardStore
	users  sketchnet.UserStore
}

func NewService(boards sketchnet.BoardStore, users sketchnet.UserStore) *Service {
	return &Service{
		boards: boards,
		users:  users,
	}
}

// CanRead tells whether userID may see the board. Public boards are
// readable by anyone, private ones only by the owner and collaborators.
func (s *Service) CanRead(board *sketchnet.Board, userID int) bool {
	if board.Security == sketchnet.VisibilityPublic {
		return true
	}
	if board.CreatedBy == userID {
		return true
	}
	_, ok := board.Collaborator(userID)
	return ok
}

// CanManage tells whether userID may delete the board or change its
// collaborator list. Only the owner can, whatever permission the
// collaborators hold.
func (s *Service) CanManage(board *sketchnet.Board, userID int) bool {
	return board.CreatedBy == userID
}

// Role reports how userID relates to the board, for display purposes.
// It is only meaningful once an access check has passed: a user with no
// relation to the board is reported as a collaborator all the same.
func Role(board *sketchnet.Board, userID int) string {
	if board.CreatedBy == userID {
		return RoleOwner
	}
	return RoleCollaborator
}

// AddCollaborator grants targetID the given permission on the board, on
// behalf of actorID. The duplicate check runs inside the store write, so
// two concurrent adds of the same user cannot both succeed.
func (s *Service) AddCollaborator(boardID, actorID, targetID int, permission sketchnet.Permission) (*sketchnet.Board, error) {
	board, err := s.boards.Get(boardID)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("error retrieving board %d", boardID), errors.WithCause(err))
	} else if board == nil {
		return nil, errBoardNotFound(boardID)
	}

	if !s.CanManage(board, actorID) {
		return nil, errNotOwner()
	}

	if !permission.Valid() {
		return nil, errors.New(
			fmt.Sprintf("unknown permission %q", permission),
			errors.BadRequest(),
			errors.WithDetail("permission", "must be view or edit"),
		)
	}

	if targetID == board.CreatedBy {
		return nil, errors.New(
			"the owner cannot be added as a collaborator of their own board",
			errors.BadRequest(),
			errors.WithDetail("userId", "is the board owner"),
		)
	}

	target, err := s.users.Get(targetID)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("error retrieving user %d", targetID), errors.WithCause(err))
	} else if target == nil {
		return nil, errors.New(fmt.Sprintf("<User %d> not found", targetID), errors.NotFound())
	}

	return s.boards.AddCollaborator(boardID, sketchnet.Collaborator{
		UserID:     targetID,
		Permission: permission,
	})
}

// RemoveCollaborator revokes targetID's access to the board, on behalf
// of actorID.
func (s *Service) RemoveCollaborator(boardID, actorID, targetID int) (*sketchnet.Board, error) {
	board, err := s.boards.Get(boardID)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("error retrieving board %d", boardID), errors.WithCause(err))
	} else if board == nil {
		return nil, errBoardNotFound(boardID)
	}

	if !s.CanManage(board, actorID) {
		return nil, errNotOwner()
	}

	return s.boards.RemoveCollaborator(boardID, targetID)
}

func errBoardNotFound(id int) error {
	return errors.New(fmt.Sprintf("<Board %d> not found", id), errors.NotFound())
}

func errNotOwner() error {
	return errors.New("only the board owner can do that", errors.WithCode(http.StatusForbidden))
}
