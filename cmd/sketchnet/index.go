package main

import (
	"github.com/spf13/cobra"

	"github.com/bobinette/sketchnet/bleve"
	"github.com/bobinette/sketchnet/bolt"
	"github.com/bobinette/sketchnet/errors"
)

func init() {
	RootCmd.AddCommand(&IndexCommand)
}

var IndexCommand = cobra.Command{
	Use:   "index",
	Short: "Reindex all boards",
	Long:  "Rebuild the search index from the boards in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		driver := bolt.Driver{}
		if err := driver.Open(config.Bolt); err != nil {
			return errors.New("error opening db", errors.WithCause(err))
		}
		defer driver.Close()

		index := bleve.BoardIndex{}
		if err := index.Open(config.Bleve); err != nil {
			return errors.New("error opening index", errors.WithCause(err))
		}
		defer index.Close()

		store := bolt.BoardStore{Driver: &driver}
		boards, err := store.List()
		if err != nil {
			return errors.New("error getting boards", errors.WithCause(err))
		}

		for _, board := range boards {
			if err := index.Index(board); err != nil {
				return errors.New("error indexing", errors.WithCause(err))
			}
			cmd.Printf("<Board %d> indexed\n", board.ID)
		}
		return nil
	},
}
