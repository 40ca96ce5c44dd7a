package util

import (
	"fmt"
	"io"
	"sort"

	"github.com/ringsaturn/tzf"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// WriterFactory starts the metadata writer for a run.
type WriterFactory func(binaryPath string) (MetadataWriter, error)

func exiftoolFactory(binaryPath string) (MetadataWriter, error) {
	return NewExiftoolWriter(binaryPath)
}

// NewRootCommand builds the photomigrate command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photomigrate",
		Short: "Fix dates and locations of a photo takeout export",
		Long: `photomigrate copies the media of a cloud photo takeout export into a new tree,
grouped by album, with capture dates and GPS coordinates from the JSON sidecars
written back into the files so another photo service sorts them correctly.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newMigrateCmd(exiftoolFactory),
		newStatusCmd(),
	)
	return cmd
}

func newMigrateCmd(newWriter WriterFactory) *cobra.Command {
	cfg := DefaultConfig()
	cmd := &cobra.Command{
		Use:   "migrate <source> <destination>",
		Short: "Copy a takeout export into destination with corrected metadata",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Source, cfg.Destination = args[0], args[1]
			_, err := RunMigrate(cfg, cmd.OutOrStdout(), newWriter)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.TimeZone, "tz", cfg.TimeZone, "IANA timezone embedded dates are written in")
	flags.BoolVar(&cfg.UTC, "utc", cfg.UTC, "Write embedded dates as UTC wall-clock time")
	flags.BoolVar(&cfg.ZoneFromGPS, "tz-from-gps", cfg.ZoneFromGPS, "Use the timezone at the asset's coordinates when known")
	flags.StringSliceVar(&cfg.PhotoExts, "photo-ext", cfg.PhotoExts, "Extensions treated as photos")
	flags.StringSliceVar(&cfg.VideoExts, "video-ext", cfg.VideoExts, "Extensions treated as videos")
	flags.BoolVarP(&cfg.DryRun, "dry-run", "n", cfg.DryRun, "Show what would be done without writing anything")
	flags.BoolVar(&cfg.Resume, "resume", cfg.Resume, "Skip files the journal shows were already migrated")
	flags.BoolVar(&cfg.Journal, "journal", cfg.Journal, "Record outcomes in a journal in the destination")
	flags.BoolVar(&cfg.Progress, "progress", cfg.Progress, "Show a progress bar on stderr")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Enable debug logging")
	flags.StringVar(&cfg.ExiftoolPath, "exiftool", cfg.ExiftoolPath, "Path to the exiftool binary")
	flags.StringVar(&cfg.JournalFile, "journal-path", cfg.JournalFile, "Journal location (default <destination>/"+journalFileName+")")
	cmd.MarkFlagsMutuallyExclusive("utc", "tz-from-gps")
	return cmd
}

// RunMigrate validates cfg, starts the metadata writer and runs one
// migration. A writer that cannot be started aborts before any file is
// touched.
func RunMigrate(cfg Config, out io.Writer, newWriter WriterFactory) (Summary, error) {
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}
	if cfg.Resume && !cfg.Journal {
		return Summary{}, fmt.Errorf("--resume needs the journal")
	}

	log := NewLogger(cfg.Verbose)
	defer log.Sync()

	writer, err := newWriter(cfg.ExiftoolPath)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Warn("closing metadata writer", zap.Error(err))
		}
	}()

	deps := Deps{Writer: writer, Out: out, Log: log}

	if cfg.Journal && !cfg.DryRun {
		journal, err := OpenJournal(cfg.JournalPath(), cfg.Destination)
		if err != nil {
			return Summary{}, fmt.Errorf("opening journal: %w", err)
		}
		defer journal.Close()
		deps.Journal = journal
	}

	if cfg.ZoneFromGPS && !cfg.UTC {
		finder, err := tzf.NewDefaultFinder()
		if err != nil {
			log.Warn("timezone finder unavailable, using configured zone", zap.Error(err))
		} else {
			deps.Finder = finder
		}
	}

	m, err := NewMigrator(cfg, deps)
	if err != nil {
		return Summary{}, err
	}

	fmt.Fprintf(out, "Source:      %s\n", cfg.Source)
	fmt.Fprintf(out, "Destination: %s\n", cfg.Destination)
	if cfg.DryRun {
		fmt.Fprintln(out, "Dry run: nothing will be written")
	}
	fmt.Fprintln(out, "\nProcessing...")
	fmt.Fprintln(out)

	return m.Run()
}

func newStatusCmd() *cobra.Command {
	var journalPath string
	cmd := &cobra.Command{
		Use:   "status <destination>",
		Short: "Summarize the journal of a destination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, err := absPath(args[0])
			if err != nil {
				return err
			}
			path := DefaultJournalPath(dest)
			if journalPath != "" {
				if path, err = absPath(journalPath); err != nil {
					return err
				}
			}
			return printStatus(cmd.OutOrStdout(), path, dest)
		},
	}
	cmd.Flags().StringVar(&journalPath, "journal-path", "", "Journal location (default <destination>/"+journalFileName+")")
	return cmd
}

func printStatus(out io.Writer, journalPath, dest string) error {
	journal, err := OpenExistingJournal(journalPath, dest)
	if err != nil {
		return err
	}
	defer journal.Close()

	runs, err := journal.Runs()
	if err != nil {
		return err
	}
	counts, err := journal.Counts()
	if err != nil {
		return err
	}

	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)

	fmt.Fprintf(out, "Journal: %s\n", journalPath)
	fmt.Fprintf(out, "Runs: %d\n", runs)
	for _, s := range statuses {
		fmt.Fprintf(out, "  %-9s %d\n", s+":", counts[s])
	}
	return nil
}
