package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"path"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/sharesave/internal/metrics"
	"github.com/bamsammich/sharesave/internal/share"
	"github.com/bamsammich/sharesave/internal/share/cloud189"
	"github.com/bamsammich/sharesave/internal/ui"
)

func newLsCmd() *cobra.Command {
	var (
		link      string
		username  string
		password  string
		rateLimit float64
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "ls --link URL",
		Short: "List the contents of a share without saving anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if link == "" {
				return errors.New("a share link is required (--link)")
			}
			log, closeLog, err := setupLogging(verbose, false, "")
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := lsClient(ctx, username, password, rateLimit, log)
			if err != nil {
				return setupError(log, "login", err)
			}
			sh, err := client.ShareInfo(ctx, link)
			if err != nil {
				return setupError(log, "share lookup", err)
			}
			if err := printTree(ctx, cmd.OutOrStdout(), sh, sh.Root()); err != nil {
				log.Error("listing failed", "error", err)
				return &exitError{code: 1}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&link, "link", "l", "", "share link")
	addCredentialFlags(f, &username, &password)
	f.Float64Var(&rateLimit, "rate-limit", 0, "maximum API requests per second (0 = unlimited)")
	f.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	return cmd
}

// lsClient logs in when credentials are available. Public shares can be
// listed without a session.
func lsClient(
	ctx context.Context,
	username, password string,
	rateLimit float64,
	log *slog.Logger,
) (*cloud189.Client, error) {
	creds, err := resolveCredentials(username, password)
	if err != nil {
		return nil, err
	}
	if creds.Complete() {
		return login(ctx, creds.Username, creds.Password, rateLimit, cloud189.DefaultPollInterval, log)
	}
	return cloud189.New(cloud189.Options{
		RequestsPerSec: rateLimit,
		Logger:         log,
		Observer:       metrics.RecordAPIRequest,
	})
}

// printTree writes one line per share entry followed by a totals line.
// Folder lines end with a slash.
func printTree(ctx context.Context, w io.Writer, l share.Lister, root share.Folder) error {
	var files, folders int
	var size int64
	err := share.Walk(ctx, l, root, func(dir string, file *share.File, folder *share.Folder) error {
		if folder != nil {
			folders++
			_, err := fmt.Fprintf(w, "%s/\n", ui.FolderPath(path.Join(dir, folder.Name)))
			return err
		}
		files++
		size += file.Size
		_, err := fmt.Fprintf(w, "%s  %s\n", ui.FolderPath(path.Join(dir, file.Name)), ui.FormatBytes(file.Size))
		return err
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%d files  %s  %d folders\n", files, ui.FormatBytes(size), folders)
	return err
}
