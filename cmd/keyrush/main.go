// Package main provides the CLI entrypoint for keyrush.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/keyrush/internal/config"
	"github.com/verte-zerg/keyrush/internal/engine"
	"github.com/verte-zerg/keyrush/internal/generator"
	"github.com/verte-zerg/keyrush/internal/leaderboard"
	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/sink"
	"github.com/verte-zerg/keyrush/internal/store"
	"github.com/verte-zerg/keyrush/internal/tui"
	"github.com/verte-zerg/keyrush/internal/wordlist"
)

const (
	defaultMode          = "timed"
	defaultDuration      = 60
	defaultDifficulty    = "easy"
	defaultLang          = "en"
	defaultServer        = "http://localhost:8080"
	terminalWidthBackup  = 80
	defaultHistoryWindow = 5
)

var (
	practiceMode       string
	practiceDuration   int
	practiceDifficulty string
	practiceWordList   string
	practiceLang       string
	practiceSubmit     bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keyrush",
		Short:         "Terminal typing speed test",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "session mode: timed, passage, words, sudden-death, zen")
	rootCmd.Flags().IntVar(&practiceDuration, "duration", defaultDuration, "timed mode length in seconds (15, 30, 60, 120)")
	rootCmd.Flags().StringVar(&practiceDifficulty, "difficulty", defaultDifficulty, "text difficulty: easy, medium, hard")
	rootCmd.Flags().StringVar(&practiceWordList, "wordlist", "", "custom word list for words mode (one word per line)")
	rootCmd.Flags().StringVar(&practiceLang, "lang", defaultLang, "language of the custom word list")
	rootCmd.Flags().BoolVar(&practiceSubmit, "submit", false, "submit results to the leaderboard")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newRenameCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "mode", &practiceMode, fileCfg.Practice.Mode)
	applyIntConfig(cmd, "duration", &practiceDuration, fileCfg.Practice.Duration)
	applyStringConfig(cmd, "difficulty", &practiceDifficulty, fileCfg.Practice.Difficulty)
	applyStringConfig(cmd, "wordlist", &practiceWordList, fileCfg.Practice.WordList)
	applyStringConfig(cmd, "lang", &practiceLang, fileCfg.Practice.Lang)
	applyBoolConfig(cmd, "submit", &practiceSubmit, fileCfg.Leaderboard.Submit)

	sessionCfg, err := sessionConfig(practiceMode, practiceDuration, practiceDifficulty)
	if err != nil {
		return err
	}

	gen, err := generator.New()
	if err != nil {
		return fmt.Errorf("failed to load texts: %w", err)
	}
	if practiceWordList != "" {
		words, err := wordlist.LoadWords(practiceWordList, wordlist.FilterForLang(practiceLang))
		if err != nil {
			return fmt.Errorf("failed to load word list: %w", err)
		}
		gen.UseWords(words)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	history := sink.NewHistory(st)
	sinks := []sink.ResultSink{history}
	if practiceSubmit {
		board, err := leaderboardSink(fileCfg)
		if err != nil {
			return err
		}
		sinks = append(sinks, board)
	}

	eng, err := engine.New(sessionCfg, gen)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	program := tea.NewProgram(tui.NewModel(eng, sink.NewFanout(sinks...), history), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func sessionConfig(mode string, duration int, difficulty string) (model.SessionConfig, error) {
	m, err := model.ParseMode(mode, duration)
	if err != nil {
		return model.SessionConfig{}, fmt.Errorf("invalid --mode: %w", err)
	}
	d, err := model.ParseDifficulty(difficulty)
	if err != nil {
		return model.SessionConfig{}, fmt.Errorf("invalid --difficulty: %w", err)
	}
	return model.SessionConfig{Mode: m, Difficulty: d}, nil
}

func leaderboardSink(fileCfg config.FileConfig) (*sink.Leaderboard, error) {
	creds, err := config.LoadCredentials(config.DefaultCredentialsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	if creds.Token == "" {
		logErrln("not logged in; results will not reach the leaderboard. Run: keyrush login")
		return sink.NewLeaderboard(nil), nil
	}
	server := resolveServer("", fileCfg, creds)
	return sink.NewLeaderboard(leaderboard.NewClient(server, creds.Token)), nil
}

// resolveServer picks the flag value, then saved credentials, then the config file.
func resolveServer(flagValue string, fileCfg config.FileConfig, creds config.Credentials) string {
	switch {
	case flagValue != "":
		return flagValue
	case creds.Server != "":
		return creds.Server
	case fileCfg.Leaderboard.Server != nil && *fileCfg.Leaderboard.Server != "":
		return *fileCfg.Leaderboard.Server
	default:
		return defaultServer
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# keyrush configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# mode = %q           # timed, passage, words, sudden-death, zen
# duration = %d           # Timed mode length: 15, 30, 60 or 120 seconds
# difficulty = %q       # easy, medium, hard
# wordlist = ""            # Custom word list for words mode
# lang = %q               # Language of the custom word list

[leaderboard]
# server = %q
# submit = false           # Submit results after each session
`,
		defaultMode,
		defaultDuration,
		defaultDifficulty,
		defaultLang,
		defaultServer,
	)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
