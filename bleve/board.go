package bleve

import (
	"strconv"
	"strings"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/search/query"

	"github.com/bobinette/sketchnet"
)

// BoardIndex indexes board names for the search endpoint. Names are
// stored lowercased under a keyword analyzer so that a wildcard query
// gives case-insensitive substring matching.
type BoardIndex struct {
	index bleve.Index
}

// Open opens the index at path, creating it with the board mapping if it
// does not exist yet.
func (s *BoardIndex) Open(path string) error {
	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		nm := bleve.NewTextFieldMapping()
		nm.Analyzer = keyword.Name

		dm := bleve.NewDocumentMapping()
		dm.AddFieldMappingsAt("name", nm)

		mapping := bleve.NewIndexMapping()
		mapping.DefaultMapping = dm

		index, err = bleve.New(path, mapping)
		if err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	s.index = index
	return nil
}

func (s *BoardIndex) Close() error {
	if s.index == nil {
		return nil
	}

	return s.index.Close()
}

func (s *BoardIndex) Index(board *sketchnet.Board) error {
	data := map[string]interface{}{
		"name": strings.ToLower(board.Name),
	}

	return s.index.Index(strconv.Itoa(board.ID), data)
}

func (s *BoardIndex) Delete(id int) error {
	return s.index.Delete(strconv.Itoa(id))
}

// Search returns the ids among ids whose name contains name. The DocID
// conjunction keeps the search scoped to the boards the caller can
// access.
func (s *BoardIndex) Search(name string, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return []int{}, nil
	}

	q := query.NewConjunctionQuery([]query.Query{
		s.searchName(name),
		s.searchIDs(ids),
	})

	searchRequest := bleve.NewSearchRequest(q)
	searchRequest.SortBy([]string{"_id"})
	searchRequest.Size = len(ids)

	searchResults, err := s.index.Search(searchRequest)
	if err != nil {
		return nil, err
	}

	found := make([]int, len(searchResults.Hits))
	for i, hit := range searchResults.Hits {
		found[i], err = strconv.Atoi(hit.ID)
		if err != nil {
			return nil, err
		}
	}

	return found, nil
}

func (*BoardIndex) searchName(name string) query.Query {
	// * and ? carry wildcard semantics, everything else is literal.
	cleaned := strings.NewReplacer("*", "", "?", "").Replace(strings.ToLower(name))
	q := bleve.NewWildcardQuery("*" + cleaned + "*")
	q.SetField("name")
	return q
}

func (*BoardIndex) searchIDs(ids []int) query.Query {
	docIDs := make([]string, len(ids))
	for i, id := range ids {
		docIDs[i] = strconv.Itoa(id)
	}
	return query.NewDocIDQuery(docIDs)
}
