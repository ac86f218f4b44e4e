package mock

import (
	"fmt"
	"strings"
	"time"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/errors"
)

type BoardStore struct {
	db    map[int]*sketchnet.Board
	maxID int
}

func (s *BoardStore) Get(id int) (*sketchnet.Board, error) {
	if s.db == nil {
		s.db = make(map[int]*sketchnet.Board)
	}
	return s.db[id], nil
}

func (s *BoardStore) List() ([]*sketchnet.Board, error) {
	boards := make([]*sketchnet.Board, 0, len(s.db))
	for _, board := range s.db {
		boards = append(boards, board)
	}
	return boards, nil
}

func (s *BoardStore) ListForUser(userID int) ([]*sketchnet.Board, error) {
	boards := make([]*sketchnet.Board, 0)
	for _, board := range s.db {
		if board.CreatedBy == userID {
			boards = append(boards, board)
			continue
		}
		if _, ok := board.Collaborator(userID); ok {
			boards = append(boards, board)
		}
	}
	return boards, nil
}

func (s *BoardStore) Upsert(board *sketchnet.Board) error {
	if s.db == nil {
		s.db = make(map[int]*sketchnet.Board)
	}

	for _, b := range s.db {
		if b.ID == board.ID {
			continue
		}
		if b.CreatedBy == board.CreatedBy && strings.EqualFold(b.Name, board.Name) {
			return errors.New(
				fmt.Sprintf("you already have a board named %s", board.Name),
				errors.Conflict(),
			)
		}
	}

	if board.ID <= 0 {
		s.maxID++
		board.ID = s.maxID
		board.CreatedAt = time.Now()
	}
	if board.ID > s.maxID {
		s.maxID = board.ID
	}
	board.UpdatedAt = time.Now()

	s.db[board.ID] = board
	return nil
}

func (s *BoardStore) AddCollaborator(boardID int, c sketchnet.Collaborator) (*sketchnet.Board, error) {
	board := s.db[boardID]
	if board == nil {
		return nil, errors.New(fmt.Sprintf("<Board %d> not found", boardID), errors.NotFound())
	}

	if _, ok := board.Collaborator(c.UserID); ok {
		return nil, errors.New(
			fmt.Sprintf("user %d is already a collaborator", c.UserID),
			errors.Conflict(),
		)
	}

	board.Collaborators = append(board.Collaborators, c)
	board.UpdatedAt = time.Now()
	return board, nil
}

func (s *BoardStore) RemoveCollaborator(boardID, userID int) (*sketchnet.Board, error) {
	board := s.db[boardID]
	if board == nil {
		return nil, errors.New(fmt.Sprintf("<Board %d> not found", boardID), errors.NotFound())
	}

	index := -1
	for i, c := range board.Collaborators {
		if c.UserID == userID {
			index = i
			break
		}
	}
	if index == -1 {
		return nil, errors.New(fmt.Sprintf("user %d is not a collaborator", userID), errors.NotFound())
	}

	board.Collaborators = append(board.Collaborators[:index], board.Collaborators[index+1:]...)
	board.UpdatedAt = time.Now()
	return board, nil
}

func (s *BoardStore) Delete(id int) error {
	delete(s.db, id)
	return nil
}
