package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	app := &cli.App{
		Name: "corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info"},
		},
		Before: setupLogger,
		Action: func(c *cli.Context) error { return nil },
	}

	for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
		err := app.Run([]string{"corpus", "--log-level", level})
		assert.NoError(t, err, level)
	}

	err := app.Run([]string{"corpus", "--log-level", "verbose"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestBuildAIConfigDefaults(t *testing.T) {
	var got error
	app := &cli.App{
		Name:  "corpus",
		Flags: aiFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := buildAIConfig(c)
			if err != nil {
				got = err
				return err
			}
			// generation host falls back to the embedding host
			assert.Equal(t, cfg.EmbeddingHost, cfg.GenerationHost)
			assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
			return nil
		},
	}

	require.NoError(t, app.Run([]string{"corpus"}))
	require.NoError(t, got)
}
