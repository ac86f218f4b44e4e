package mock

import (
	"sort"
	"strings"

	"github.com/bobinette/sketchnet"
)

// BoardIndex is a naive in-memory stand-in for the bleve index.
type BoardIndex struct {
	names map[int]string
}

func (s *BoardIndex) Index(board *sketchnet.Board) error {
	if s.names == nil {
		s.names = make(map[int]string)
	}
	s.names[board.ID] = strings.ToLower(board.Name)
	return nil
}

func (s *BoardIndex) Delete(id int) error {
	delete(s.names, id)
	return nil
}

func (s *BoardIndex) Search(name string, ids []int) ([]int, error) {
	name = strings.ToLower(name)

	found := make([]int, 0)
	for _, id := range ids {
		if indexed, ok := s.names[id]; ok && strings.Contains(indexed, name) {
			found = append(found, id)
		}
	}
	sort.Ints(found)
	return found, nil
}
