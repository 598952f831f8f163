package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/claude/liftlog/internal/upload"
	"github.com/spf13/cobra"
)

func newImportCommand() *cobra.Command {
	var (
		serverURL string
		apiKey    string
		stateDir  string
		dryRun    bool
		verbose   bool
	)
	cmd := &cobra.Command{
		Use:   "import <file-or-dir>...",
		Short: "Upload Alpha Progression CSV exports to a LiftLog server",
		Long: `Uploads Alpha Progression CSV exports. Directories are searched for .csv files.
Exports whose content was already accepted are skipped, even when renamed;
re-importing a changed export replaces its sessions on the server.`,
		Example: "  liftctl import --server https://liftlog.tail1234.ts.net --api-key $KEY ~/Downloads/alpha",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL == "" && !dryRun {
				return errors.New("--server is required (or use --dry-run)")
			}
			if apiKey == "" {
				apiKey = os.Getenv("LIFTLOG_API_KEY")
			}

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			if stateDir == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("finding home directory: %w", err)
				}
				stateDir = filepath.Join(home, ".liftctl")
			}
			state, err := upload.OpenStateDB(stateDir)
			if err != nil {
				return err
			}
			defer state.Close()

			var sender upload.Sender
			if !dryRun {
				sender = upload.NewClient(serverURL, apiKey)
			}

			stats, err := upload.New(sender, state, dryRun, log).Run(cmd.Context(), args)
			printStats(cmd.OutOrStdout(), stats)
			if err != nil {
				return err
			}
			if stats.FilesErrored > 0 {
				return fmt.Errorf("%d of %d files failed", stats.FilesErrored, stats.FilesTotal)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "LiftLog server URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (default $LIFTLOG_API_KEY)")
	cmd.Flags().StringVar(&stateDir, "state-dir", "", "where upload state is kept (default ~/.liftctl)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse files but don't send them")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func printStats(w io.Writer, stats *upload.Stats) {
	if stats == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, header.Render("=== Import Summary ==="))
	fmt.Fprintf(w, "  Files total:        %d\n", stats.FilesTotal)
	fmt.Fprintf(w, "  Files uploaded:     %d\n", stats.FilesUploaded)
	fmt.Fprintf(w, "  Files skipped:      %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Fprintf(w, "  Files errored:      %d\n", stats.FilesErrored)
	fmt.Fprintf(w, "  Sessions inserted:  %d\n", stats.SessionsInserted)
	fmt.Fprintf(w, "  Sessions replaced:  %d\n", stats.SessionsReplaced)
	fmt.Fprintf(w, "  Sets inserted:      %d\n", stats.SetsInserted)
}
