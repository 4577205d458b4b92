package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	doodle "github.com/causal/go-doodle"
	"github.com/causal/go-doodle/internal/config"
)

func newRootCmd(c config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "doodle",
		Short:         "Manage Doodle polls from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newListCmd(c),
		newCreateCmd(c),
		newDeleteCmd(c),
		newWhoamiCmd(c),
		newLogoutCmd(c),
	)
	return rootCmd
}

// newClient builds the library client from the environment configuration.
func newClient(c config.Config) (*doodle.Client, error) {
	if c.GetUsername() == "" || c.GetPassword() == "" {
		return nil, errors.New("DOODLE_USERNAME and DOODLE_PASSWORD must be set (flags, environment or .env)")
	}

	opts := []doodle.Option{
		doodle.WithBaseURL(c.GetBaseURL()),
		doodle.WithLocale(c.GetLocale()),
		doodle.WithTimeZone(c.GetTimeZone()),
		doodle.WithLogger(newLogger(c.GetLogLevel())),
	}
	if dir := c.GetCredentialDir(); dir != "" {
		opts = append(opts, doodle.WithCredentialDir(dir))
	}

	client, err := doodle.New(c.GetUsername(), c.GetPassword(), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "[newClient] building client")
	}
	return client, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}
