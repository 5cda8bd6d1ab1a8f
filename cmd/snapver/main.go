// Package main provides the snapver CLI for browsing, comparing, and
// restoring timestamped editor backup files (.bak).
//
// Commands:
//   - versions <file> : version table for one file's backup set
//   - groups          : files in the directory with their backup counts
//   - sync <file>     : merge audit history across a backup set
//   - meta get|set    : read or edit a backup file's meta tag
//   - history <file>  : metadata audit history, newest first
//   - open <file>     : open a backup in the external editor
//
// Configuration is resolved flags-first, then SNAPVER_* environment
// variables, then an optional config file (-config).
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"snapver/internal/basename"
	"snapver/internal/diffstat"
	"snapver/internal/editor"
	"snapver/internal/explorer"
	"snapver/internal/meta"
	"snapver/internal/sidecar"
)

var (
	cfgFile   string
	dirFlag   string
	metaRoot  string
	editorBin string
	logFile   string
	batchLog  bool
	verbose   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "snapver",
	Short: "Browse, compare, and restore timestamped backup files",
	Long: `snapver manages the timestamped backup copies a text editor writes
(<name>.<YYYY>-<MM>-<DD>_<HHMMSS>.bak). It groups backups by base name,
orders them by time, reports per-version line counts and changed-line
deltas, and keeps a per-file metadata tag with an audit history that is
merged across every version of a file.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		return viper.BindPFlags(rootCmd.PersistentFlags())
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .snapver.yaml in cwd or home)")
	pf.StringVarP(&dirFlag, "dir", "d", ".", "directory containing the backup files")
	pf.StringVar(&metaRoot, "meta-root", "", "sidecar metadata root (default: <dir>/.snapver)")
	pf.StringVar(&editorBin, "editor", "", "external editor binary for the open command")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	pf.BoolVar(&batchLog, "batch-log", false, "log to <base>_loghistory.txt inside the backup directory")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionsCmd, groupsCmd, syncCmd, metaCmd, historyCmd, openCmd, versionCmd)
	metaCmd.AddCommand(metaGetCmd, metaSetCmd)
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".snapver")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}
	viper.SetEnvPrefix("SNAPVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && (errors.As(err, &notFound) || os.IsNotExist(err)) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// buildLogger constructs the injected logger. With -batch-log, actions for
// one backup set are appended to <base>_loghistory.txt next to the backups.
func buildLogger(dir, base string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	out := viper.GetString("log-file")
	if out == "" && viper.GetBool("batch-log") && base != "" {
		out = filepath.Join(dir, base+"_loghistory.txt")
	}
	if out != "" {
		cfg.OutputPaths = []string{out}
		cfg.ErrorOutputPaths = []string{out}
	} else {
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	return cfg.Build()
}

// newExplorer wires the explorer over the OS filesystem.
func newExplorer(dir string, log *zap.Logger) *explorer.Explorer {
	fs := afero.NewOsFs()
	root := viper.GetString("meta-root")
	if root == "" {
		root = filepath.Join(dir, ".snapver")
	}
	store := sidecar.NewStore(fs, root, log)
	return explorer.New(fs, store, log)
}

// splitRef resolves a reference-file argument against the configured
// directory. An argument with a directory component overrides -dir.
func splitRef(arg string) (dir, name string) {
	dir = viper.GetString("dir")
	name = arg
	if d := filepath.Dir(arg); d != "." {
		dir = d
		name = filepath.Base(arg)
	}
	return dir, name
}

// displayTime renders a version timestamp the way the table shows it,
// e.g. "sat 05/03/2025 11:53am".
func displayTime(t time.Time) string {
	return strings.ToLower(t.Format("Mon 01/02/2006 03:04PM"))
}

var versionsCmd = &cobra.Command{
	Use:   "versions <file>",
	Short: "Show the version table for a file's backup set",
	Long: `Versions resolves every backup sharing the file's base name, merges
metadata history across the set, and prints one row per version, newest
first. The oldest version is V1; its change column is N/A.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		dir, name := splitRef(args[0])
		base := basename.Base(name)
		log, err := buildLogger(dir, base)
		if err != nil {
			return err
		}
		defer func() {
			_ = log.Sync()
		}()

		ex := newExplorer(dir, log)
		summaries, err := ex.LoadVersions(dir, name)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Printf("No backups found for %q in %s\n", base, dir)
			return nil
		}
		printVersions(summaries)
		return nil
	},
}

func printVersions(summaries []diffstat.Summary) {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("DATE/TIME", "GROUP", "VERSION", "CHANGES", "TOTAL LINES", "META TAG")
	for _, s := range summaries {
		table.AddRow(displayTime(s.Created), s.Base, s.Version, s.Changes, s.TotalLines, s.MetaTag)
	}
	fmt.Println(table)
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List files in the directory with their backup counts",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		dir := viper.GetString("dir")
		log, err := buildLogger(dir, "")
		if err != nil {
			return err
		}
		defer func() {
			_ = log.Sync()
		}()

		ex := newExplorer(dir, log)
		groups, err := ex.Groups(dir)
		if err != nil {
			return err
		}
		table := uitable.New()
		table.AddRow("FILE", "GROUP", "BACKUPS")
		for _, g := range groups {
			table.AddRow(g.Name, g.Base, fmt.Sprintf("%d", g.Backups))
		}
		fmt.Println(table)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <file>",
	Short: "Merge metadata audit history across a file's backup set",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		dir, name := splitRef(args[0])
		base := basename.Base(name)
		log, err := buildLogger(dir, base)
		if err != nil {
			return err
		}
		defer func() {
			_ = log.Sync()
		}()

		ex := newExplorer(dir, log)
		set, err := ex.Sync(dir, name)
		if err != nil {
			return err
		}
		fmt.Printf("Synchronized audit history across %d backups of %q\n", len(set), base)
		return nil
	},
}

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Read or edit the meta tag of a backup file",
}

var metaGetCmd = &cobra.Command{
	Use:   "get <file>",
	Short: "Print the current meta tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		dir, name := splitRef(args[0])
		log, err := buildLogger(dir, "")
		if err != nil {
			return err
		}
		defer func() {
			_ = log.Sync()
		}()

		ex := newExplorer(dir, log)
		fmt.Println(ex.MetaTag(filepath.Join(dir, name)))
		return nil
	},
}

var metaSetCmd = &cobra.Command{
	Use:   "set <file> <text>",
	Short: "Overwrite the meta tag and record it in the audit history",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		dir, name := splitRef(args[0])
		log, err := buildLogger(dir, "")
		if err != nil {
			return err
		}
		defer func() {
			_ = log.Sync()
		}()

		ex := newExplorer(dir, log)
		return ex.SetMetaTag(filepath.Join(dir, name), args[1])
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <file>",
	Short: "Show the metadata audit history of a backup file, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		dir, name := splitRef(args[0])
		log, err := buildLogger(dir, "")
		if err != nil {
			return err
		}
		defer func() {
			_ = log.Sync()
		}()

		ex := newExplorer(dir, log)
		entries := ex.History(filepath.Join(dir, name))
		if len(entries) == 0 {
			fmt.Println("No metadata history available.")
			return nil
		}
		for _, e := range entries {
			fmt.Println(e)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the snapver version",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println("snapver", meta.Detect())
	},
}

var openCmd = &cobra.Command{
	Use:   "open <file>",
	Short: "Open a backup file in the external editor",
	Long: `Open starts the configured editor (-editor flag, SNAPVER_EDITOR, or
the editor key of the config file) with the resolved backup path. The
editor runs detached; snapver does not wait for it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		dir, name := splitRef(args[0])
		log, err := buildLogger(dir, "")
		if err != nil {
			return err
		}
		defer func() {
			_ = log.Sync()
		}()

		launcher := editor.NewLauncher(viper.GetString("editor"), log)
		return launcher.Open(filepath.Join(dir, name))
	},
}
