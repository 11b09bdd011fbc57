package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/keyrush/internal/config"
	"github.com/verte-zerg/keyrush/internal/leaderboard"
	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/stats"
)

const requestTimeout = 15 * time.Second

var (
	boardMode       string
	boardDifficulty string
	boardMine       bool
	boardWatch      bool
	boardServer     string
	loginServer     string
	renameServer    string
)

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the shared leaderboard",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	cmd.Flags().StringVar(&boardMode, "mode", "", "filter by mode (e.g. \"timed (60s)\", passage, zen)")
	cmd.Flags().StringVar(&boardDifficulty, "difficulty", "", "filter by difficulty")
	cmd.Flags().BoolVar(&boardMine, "mine", false, "show only your own scores")
	cmd.Flags().BoolVar(&boardWatch, "watch", false, "stream new scores as they are submitted")
	cmd.Flags().StringVar(&boardServer, "server", "", "leaderboard server URL")
	return cmd
}

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Create a leaderboard identity and save its token",
		Args:  cobra.NoArgs,
		RunE:  runLoginCmd,
	}
	cmd.Flags().StringVar(&loginServer, "server", "", "leaderboard server URL")
	return cmd
}

func newRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <name>",
		Short: "Change your leaderboard display name",
		Args:  cobra.ExactArgs(1),
		RunE:  runRenameCmd,
	}
	cmd.Flags().StringVar(&renameServer, "server", "", "leaderboard server URL")
	return cmd
}

// loadClient resolves the server and token used by the leaderboard commands.
func loadClient(flagServer string) (*leaderboard.Client, config.Credentials, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, config.Credentials{}, fmt.Errorf("failed to load config: %w", err)
	}
	creds, err := config.LoadCredentials(config.DefaultCredentialsPath())
	if err != nil {
		return nil, config.Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}
	server := resolveServer(flagServer, fileCfg, creds)
	token := creds.Token
	if creds.Server != "" && creds.Server != server {
		// Tokens are only valid on the server that issued them.
		token = ""
	}
	return leaderboard.NewClient(server, token), creds, nil
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	client, _, err := loadClient(boardServer)
	if err != nil {
		return err
	}
	filter, err := boardFilter(boardMode, boardDifficulty)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(baseContext(cmd), requestTimeout)
	var scores []model.Score
	title := "Leaderboard"
	if boardMine {
		title = "Your scores"
		scores, err = client.UserScores(ctx)
	} else {
		scores, err = client.Leaderboard(ctx, filter)
	}
	cancel()
	if err != nil {
		if errors.Is(err, leaderboard.ErrNotAuthenticated) {
			return fmt.Errorf("saved token was rejected; run: keyrush login")
		}
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	if err := stats.RenderLeaderboard(os.Stdout, title, scores); err != nil {
		return err
	}
	if !boardWatch {
		return nil
	}

	watchCtx, stop := signal.NotifyContext(baseContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logErrln("watching for new scores (Ctrl+C to stop)")
	return client.Watch(watchCtx, func(s model.Score) {
		if !matchesFilter(s, filter) {
			return
		}
		if _, err := fmt.Fprintf(os.Stdout, "%s  %s  %d WPM  %d%%  %s  %s\n",
			s.CreatedAt.Local().Format("15:04:05"), s.Username, s.WPM, s.Accuracy, s.Mode, s.Difficulty); err != nil {
			logErrf("failed to print score: %v\n", err)
		}
	})
}

// boardFilter normalizes user input to the display names stored with scores.
func boardFilter(mode, difficulty string) (model.LeaderboardFilter, error) {
	var filter model.LeaderboardFilter
	if mode = strings.TrimSpace(mode); mode != "" {
		m, err := model.ParseMode(mode, 0)
		if err != nil {
			return filter, fmt.Errorf("invalid --mode: %w", err)
		}
		filter.Mode = m.String()
	}
	if difficulty = strings.TrimSpace(difficulty); difficulty != "" {
		d, err := model.ParseDifficulty(difficulty)
		if err != nil {
			return filter, fmt.Errorf("invalid --difficulty: %w", err)
		}
		filter.Difficulty = string(d)
	}
	return filter, nil
}

func matchesFilter(s model.Score, filter model.LeaderboardFilter) bool {
	if filter.Mode != "" && s.Mode != filter.Mode {
		return false
	}
	return filter.Difficulty == "" || s.Difficulty == filter.Difficulty
}

func runLoginCmd(cmd *cobra.Command, _ []string) error {
	client, creds, err := loadClient(loginServer)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(baseContext(cmd), requestTimeout)
	defer cancel()
	reg, err := client.Register(ctx)
	if err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}
	creds = config.Credentials{
		Server:   client.BaseURL(),
		Token:    reg.Token,
		Username: reg.Profile.Username,
	}
	if err := config.SaveCredentials(config.DefaultCredentialsPath(), creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	_, err = fmt.Fprintf(os.Stdout, "Logged in as %s\n", reg.Profile.Username)
	return err
}

func runRenameCmd(cmd *cobra.Command, args []string) error {
	client, creds, err := loadClient(renameServer)
	if err != nil {
		return err
	}
	if creds.Token == "" {
		return fmt.Errorf("not logged in; run: keyrush login")
	}
	ctx, cancel := context.WithTimeout(baseContext(cmd), requestTimeout)
	defer cancel()
	profile, err := client.UpdateUsername(ctx, args[0])
	switch {
	case errors.Is(err, leaderboard.ErrNameTaken):
		return fmt.Errorf("username %q is already taken", strings.TrimSpace(args[0]))
	case errors.Is(err, leaderboard.ErrValidation):
		return fmt.Errorf("invalid username: %w", err)
	case err != nil:
		return fmt.Errorf("failed to rename: %w", err)
	}
	creds.Username = profile.Username
	if err := config.SaveCredentials(config.DefaultCredentialsPath(), creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	_, err = fmt.Fprintf(os.Stdout, "Username changed to %s\n", profile.Username)
	return err
}

func baseContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
