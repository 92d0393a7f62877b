package main

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mogtools/internal/config"
	"mogtools/internal/logging"
	"mogtools/internal/mogclient"
	"mogtools/internal/upload"
)

type uploadFlags struct {
	config   string
	trackers string
	domain   string
	class    string
	key      string
	file     string
	buffer   bool
	verbose  bool
}

func newRootCommand() *cobra.Command {
	flags := &uploadFlags{}

	rootCmd := &cobra.Command{
		Use:           "mogupload",
		Short:         "Upload a file into MogileFS",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, flags)
		},
	}

	fs := rootCmd.Flags()
	fs.StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	fs.StringVar(&flags.trackers, "trackers", "", "Comma separated tracker host:port list (overrides config and MOG_TRACKERS)")
	fs.StringVar(&flags.domain, "domain", "", "Destination domain")
	fs.StringVar(&flags.class, "class", "", "Storage class (default class when empty)")
	fs.StringVar(&flags.key, "key", "", "Destination key")
	fs.StringVar(&flags.file, "file", upload.StdinPath, "Source file, or - for standard input")
	fs.BoolVar(&flags.buffer, "buffer", false, "Read the whole source before sending")
	fs.BoolVar(&flags.verbose, "verbose", false, "Log protocol steps to stderr")

	return rootCmd
}

func runUpload(cmd *cobra.Command, flags *uploadFlags) error {
	domain := strings.TrimSpace(flags.domain)
	key := strings.TrimSpace(flags.key)
	if domain == "" || key == "" {
		return errors.New("--domain and --key are required")
	}

	cfg, _, _, err := config.Load(strings.TrimSpace(flags.config))
	if err != nil {
		return err
	}
	if hosts := config.SplitHosts(flags.trackers); len(hosts) > 0 {
		cfg.Tracker.Hosts = hosts
	}
	if flags.buffer {
		cfg.Upload.Buffer = true
	}
	if err := cfg.RequireTrackers(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr(), flags.verbose)
	if err != nil {
		return err
	}
	logger, _ = logging.WithRunID(logger)

	client, err := mogclient.New(mogclient.Options{
		Hosts:   cfg.Tracker.Hosts,
		Timeout: time.Duration(cfg.Tracker.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		return err
	}

	src, size, err := upload.OpenSource(flags.file, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer src.Close()

	written, err := upload.Run(cmd.Context(), upload.ClientOpener{Client: client}, src, upload.Request{
		Domain:    domain,
		Class:     strings.TrimSpace(flags.class),
		Key:       key,
		ChunkSize: cfg.Upload.ChunkSize,
		Buffer:    cfg.Upload.Buffer,
		Size:      size,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("upload finished",
		logging.String("domain", domain),
		logging.String("key", key),
		logging.Int64("bytes", written),
	)
	return nil
}
