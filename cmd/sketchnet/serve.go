package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/bobinette/sketchnet/bleve"
	"github.com/bobinette/sketchnet/bolt"
	"github.com/bobinette/sketchnet/errors"
	"github.com/bobinette/sketchnet/gin"
	"github.com/bobinette/sketchnet/jwt"
	"github.com/bobinette/sketchnet/oauth"
)

func init() {
	RootCmd.AddCommand(&ServeCommand)
}

var ServeCommand = cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Open the stores and serve the API on the configured address",
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

		key, err := readKey(config.Key)
		if err != nil {
			return err
		}

		handler := gin.New(
			&bolt.UserStore{Driver: &driver},
			&bolt.BoardStore{Driver: &driver},
			&index,
			jwt.NewEncodeDecoder(key),
			oauth.NewGoogleClient(config.Google),
			oauth.NewGitHubClient(config.GitHub),
			logger,
		)

		logger.Print("server started, listening on ", config.Addr)
		return http.ListenAndServe(config.Addr, handler)
	},
}
