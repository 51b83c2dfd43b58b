package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"uiscout/internal/command"
)

var (
	matchApp   string
	matchTouch bool
)

// matchCmd resolves an utterance against learned commands
var matchCmd = &cobra.Command{
	Use:   "match [text]...",
	Short: "Resolve free text to a learned voice command",
	Long: `Scores the given text against every command learned for an app and
prints the best match: the element it drives, the gesture, and the score.
A result below the match threshold reports no match rather than guessing.

Example:
  scout match "tap compose" --app com.example.mail`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

// commandsCmd lists learned commands
var commandsCmd = &cobra.Command{
	Use:   "commands [app]",
	Short: "List the voice commands learned for an app",
	Args:  cobra.ExactArgs(1),
	RunE:  listCommands,
}

func init() {
	matchCmd.Flags().StringVar(&matchApp, "app", "", "App whose commands to match against (required)")
	matchCmd.Flags().BoolVar(&matchTouch, "touch", false, "Record a use of the matched command")
	_ = matchCmd.MarkFlagRequired("app")
}

func runMatch(cmd *cobra.Command, args []string) error {
	utterance := strings.Join(args, " ")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	candidates, err := st.CommandsForApp(matchApp)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Printf("No commands learned for %s yet. Run 'scout explore %s' first.\n", matchApp, matchApp)
		return nil
	}

	matcher := command.NewMatcher(cfg.Command)
	res, err := matcher.Match(utterance, candidates)
	if errors.Is(err, command.ErrNoMatch) {
		fmt.Printf("No match for %q among %d commands.\n", utterance, len(candidates))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Debug("Utterance resolved",
		zap.String("input", utterance),
		zap.String("element", res.ElementHash),
		zap.Float64("score", res.Score))

	fmt.Printf("Matched %q (score %.2f)\n", res.Phrase, res.Score)
	fmt.Printf("  action:  %s\n", res.Action)
	fmt.Printf("  element: %s\n", res.ElementHash)
	if rec, err := st.GetElement(res.ElementHash); err == nil {
		fmt.Printf("  target:  %s\n", rec.Summary())
	}

	if matchTouch {
		if err := st.IncrementCommandUsage(res.ElementHash, res.Phrase); err != nil {
			return fmt.Errorf("failed to record usage: %w", err)
		}
	}
	return nil
}

func listCommands(cmd *cobra.Command, args []string) error {
	appID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	cmds, err := st.CommandsForApp(appID)
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		fmt.Printf("No commands learned for %s yet.\n", appID)
		return nil
	}

	fmt.Printf("Commands for %s (%d):\n\n", appID, len(cmds))
	fmt.Printf("  %-10s %-32s %5s %5s  %s\n", "ACTION", "PHRASE", "CONF", "USED", "")
	for _, c := range cmds {
		note := ""
		if c.IsFallback {
			note = "fallback"
		}
		if len(c.Synonyms) > 0 {
			if note != "" {
				note += ", "
			}
			note += "also: " + strings.Join(c.Synonyms, ", ")
		}
		fmt.Printf("  %-10s %-32s %5.2f %5d  %s\n",
			c.Action, c.Phrase, c.Confidence, c.UsageCount, note)
	}
	return nil
}
