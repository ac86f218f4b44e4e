package bolt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/boltdb/bolt"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/errors"
)

var (
	boardBucket = []byte("boards")

	// boardNameBucket enforces the (owner, name) uniqueness. Keys are
	// "<owner id>:<lowercased name>", values the board id.
	boardNameBucket = []byte("board_names")
)

// BoardStore is used to store and retrieve boards from a bolt database.
// Collaborator mutations happen inside a single update transaction: that
// per-document atomicity is the only concurrency guarantee offered.
type BoardStore struct {
	Driver *Driver
}

func (s *BoardStore) Get(id int) (*sketchnet.Board, error) {
	var board *sketchnet.Board
	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(boardBucket).Get(itob(id))
		if data == nil {
			return nil
		}

		board = &sketchnet.Board{}
		return json.Unmarshal(data, board)
	})
	if err != nil {
		return nil, err
	}

	return board, nil
}

func (s *BoardStore) List() ([]*sketchnet.Board, error) {
	var boards []*sketchnet.Board

	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boardBucket).Cursor()
		for id, data := c.First(); id != nil; id, data = c.Next() {
			var board sketchnet.Board
			if err := json.Unmarshal(data, &board); err != nil {
				return err
			}
			boards = append(boards, &board)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return boards, nil
}

func (s *BoardStore) ListForUser(userID int) ([]*sketchnet.Board, error) {
	boards := make([]*sketchnet.Board, 0)

	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boardBucket).Cursor()
		for id, data := c.First(); id != nil; id, data = c.Next() {
			var board sketchnet.Board
			if err := json.Unmarshal(data, &board); err != nil {
				return err
			}

			if board.CreatedBy == userID {
				boards = append(boards, &board)
				continue
			}
			if _, ok := board.Collaborator(userID); ok {
				boards = append(boards, &board)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return boards, nil
}

// Upsert inserts or updates a board, maintaining the name index. It
// fails with a conflict when the owner already has another board with
// the same name (case-insensitive).
func (s *BoardStore) Upsert(board *sketchnet.Board) error {
	return s.Driver.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boardBucket)
		names := tx.Bucket(boardNameBucket)

		var previous *sketchnet.Board
		if board.ID > 0 {
			if data := bucket.Get(itob(board.ID)); data != nil {
				previous = &sketchnet.Board{}
				if err := json.Unmarshal(data, previous); err != nil {
					return err
				}
			}
		}

		if board.ID <= 0 {
			id, err := bucket.NextSequence()
			if err != nil {
				return fmt.Errorf("error incrementing id: %v", err)
			}
			board.ID = int(id)
			board.CreatedAt = time.Now()
		}
		board.UpdatedAt = time.Now()

		key := nameKey(board.CreatedBy, board.Name)
		if existing := names.Get(key); existing != nil && btoi(existing) != board.ID {
			return errors.New(
				fmt.Sprintf("you already have a board named %s", board.Name),
				errors.Conflict(),
			)
		}

		if previous != nil {
			oldKey := nameKey(previous.CreatedBy, previous.Name)
			if string(oldKey) != string(key) {
				if err := names.Delete(oldKey); err != nil {
					return err
				}
			}
		}
		if err := names.Put(key, itob(board.ID)); err != nil {
			return err
		}

		data, err := json.Marshal(board)
		if err != nil {
			return err
		}

		return bucket.Put(itob(board.ID), data)
	})
}

// AddCollaborator appends c to the board's collaborator list, checking
// for duplicates within the same transaction as the write.
func (s *BoardStore) AddCollaborator(boardID int, c sketchnet.Collaborator) (*sketchnet.Board, error) {
	var board *sketchnet.Board
	err := s.Driver.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boardBucket)

		data := bucket.Get(itob(boardID))
		if data == nil {
			return errBoardNotFound(boardID)
		}

		board = &sketchnet.Board{}
		if err := json.Unmarshal(data, board); err != nil {
			return err
		}

		if _, ok := board.Collaborator(c.UserID); ok {
			return errors.New(
				fmt.Sprintf("user %d is already a collaborator", c.UserID),
				errors.Conflict(),
			)
		}

		board.Collaborators = append(board.Collaborators, c)
		board.UpdatedAt = time.Now()

		data, err := json.Marshal(board)
		if err != nil {
			return err
		}

		return bucket.Put(itob(boardID), data)
	})
	if err != nil {
		return nil, err
	}

	return board, nil
}

// RemoveCollaborator removes the entry for userID, preserving the order
// of the remaining entries.
func (s *BoardStore) RemoveCollaborator(boardID, userID int) (*sketchnet.Board, error) {
	var board *sketchnet.Board
	err := s.Driver.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boardBucket)

		data := bucket.Get(itob(boardID))
		if data == nil {
			return errBoardNotFound(boardID)
		}

		board = &sketchnet.Board{}
		if err := json.Unmarshal(data, board); err != nil {
			return err
		}

		index := -1
		for i, c := range board.Collaborators {
			if c.UserID == userID {
				index = i
				break
			}
		}
		if index == -1 {
			return errors.New(
				fmt.Sprintf("user %d is not a collaborator", userID),
				errors.NotFound(),
			)
		}

		board.Collaborators = append(board.Collaborators[:index], board.Collaborators[index+1:]...)
		board.UpdatedAt = time.Now()

		data, err := json.Marshal(board)
		if err != nil {
			return err
		}

		return bucket.Put(itob(boardID), data)
	})
	if err != nil {
		return nil, err
	}

	return board, nil
}

func (s *BoardStore) Delete(id int) error {
	return s.Driver.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boardBucket)

		data := bucket.Get(itob(id))
		if data == nil {
			return nil
		}

		var board sketchnet.Board
		if err := json.Unmarshal(data, &board); err != nil {
			return err
		}

		if err := tx.Bucket(boardNameBucket).Delete(nameKey(board.CreatedBy, board.Name)); err != nil {
			return err
		}

		return bucket.Delete(itob(id))
	})
}

func nameKey(ownerID int, name string) []byte {
	return []byte(fmt.Sprintf("%d:%s", ownerID, strings.ToLower(name)))
}

func errBoardNotFound(id int) error {
	return errors.New(fmt.Sprintf("<Board %d> not found", id), errors.NotFound())
}
