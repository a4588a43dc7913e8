package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the download history",
	Long: `Posts that downloaded without failures are recorded in the history
and skipped by later runs. Remove an entry, or pass --force to download, to
fetch a post again.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded posts",
	RunE:  runHistoryList,
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <shortcode>...",
	Short: "Forget recorded posts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistoryRemove,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyRemoveCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(nil)
	if err != nil {
		return err
	}
	hist, err := openHistory(cfg, log)
	if err != nil {
		return err
	}

	printer.Info("History", hist.Path())
	for _, code := range hist.Shortcodes() {
		e, _ := hist.Get(code)
		printer.Plain(fmt.Sprintf("%s  %-20s %d files  %s", code, e.Owner, len(e.Files), e.CompletedAt.Format("2006-01-02 15:04")))
	}
	printer.Info("Posts", fmt.Sprint(hist.Len()))
	return nil
}

func runHistoryRemove(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(nil)
	if err != nil {
		return err
	}
	hist, err := openHistory(cfg, log)
	if err != nil {
		return err
	}
	if err := hist.Backup(); err != nil {
		log.WithError(err).Warn("Failed to back up history")
	}

	for _, code := range args {
		if !hist.Has(code) {
			printer.Warning("Not in history: " + code)
			continue
		}
		if err := hist.Remove(code); err != nil {
			return err
		}
		printer.Success("Removed " + code)
	}
	return nil
}
