package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/bobinette/sketchnet/errors"
	"github.com/bobinette/sketchnet/log"
	"github.com/bobinette/sketchnet/oauth"
)

var (
	// flags
	env        string
	configFile string

	// logger
	logger log.Logger

	config Configuration
)

type Configuration struct {
	Addr  string `toml:"addr"`
	Bolt  string `toml:"bolt"`
	Bleve string `toml:"bleve"`
	Key   string `toml:"key"`

	Google oauth.Credentials `toml:"google"`
	GitHub oauth.Credentials `toml:"github"`
}

func init() {
	RootCmd.PersistentFlags().StringVar(&env, "env", "dev", "environment")
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "configuration file")
}

var RootCmd = cobra.Command{
	Use:   "sketchnet",
	Short: "Draw together on shared boards",
	Long:  "Draw together on shared boards",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = log.New(env)

		if configFile == "" {
			configFile = path.Join("configuration", fmt.Sprintf("config.%s.toml", env))
		}

		if _, err := toml.DecodeFile(configFile, &config); err != nil {
			return errors.New(fmt.Sprintf("error loading configuration from %s", configFile), errors.WithCause(err))
		}
		return nil
	},
}

// readKey loads the token signing key. The file holds a JSON object
// with the key material under "k".
func readKey(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("error reading key file %s", filename), errors.WithCause(err))
	}

	var key struct {
		K string `json:"k"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, errors.New("error decoding key file", errors.WithCause(err))
	}
	if key.K == "" {
		return nil, errors.New("empty signing key")
	}

	return []byte(key.K), nil
}
