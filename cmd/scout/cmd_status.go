package main

import (
	"database/sql"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"uiscout/internal/store"
)

// Styles for the status report. Semantic colors only; the report has to stay
// readable on both light and dark terminals.
var (
	statusTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	statusHeader = lipgloss.NewStyle().Bold(true)
	statusDim    = lipgloss.NewStyle().Faint(true)
	statusOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	statusWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	statusBad    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
)

// statusCmd shows what has been learned so far
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show learned apps, sessions, and database totals",
	RunE:  showStatus,
}

func showStatus(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	stats, err := st.GetStats()
	if err != nil {
		return err
	}
	apps, err := st.ListApps()
	if err != nil {
		return err
	}

	fmt.Println(statusTitle.Render("uiscout status"))
	fmt.Printf("Database: %s (%s)\n\n", st.Path(), formatBytes(stats.DBSizeBytes))

	if len(apps) == 0 {
		fmt.Println("Nothing learned yet. Run 'scout explore <app>' to start.")
		return nil
	}

	fmt.Println(statusHeader.Render("APPS"))
	fmt.Printf("  %-28s %-14s %8s %9s %9s  %s\n",
		"APP", "STATUS", "SCREENS", "ELEMENTS", "COMMANDS", "LAST EXPLORED")
	for _, app := range apps {
		cmds, _ := st.CommandsForApp(app.AppID)
		fmt.Printf("  %-28s %-14s %8d %9d %9d  %s\n",
			app.AppID,
			renderStatus(app.Status),
			app.ScreenCount,
			app.ElementCount,
			len(cmds),
			statusDim.Render(formatNullTime(app.LastExplored)))
	}

	fmt.Println()
	fmt.Println(statusHeader.Render("TOTALS"))
	fmt.Printf("  %d apps, %d screens, %d elements, %d commands\n",
		stats.Apps, stats.Screens, stats.Elements, stats.Commands)
	fmt.Printf("  %d hierarchy edges, %d navigation edges, %d sessions\n",
		stats.HierarchyEdges, stats.NavigationEdges, stats.Sessions)

	sessions, err := st.RecentSessions(5)
	if err != nil || len(sessions) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println(statusHeader.Render("RECENT SESSIONS"))
	for _, s := range sessions {
		line := fmt.Sprintf("  %-8.8s %-28s %-13s %-10s %4d screens %5d elements  %s",
			s.ID, s.AppID, s.Mode, s.Status, s.ScreensVisited, s.ElementsRegistered,
			formatNullTime(s.StartedAt))
		if s.Error != "" {
			line += "  " + statusBad.Render(s.Error)
		}
		fmt.Println(line)
	}
	return nil
}

// renderStatus colors an exploration status inside its padded cell.
func renderStatus(s store.AppStatus) string {
	cell := fmt.Sprintf("%-14s", s)
	switch s {
	case store.StatusComplete:
		return statusOK.Render(cell)
	case store.StatusPartial:
		return statusWarn.Render(cell)
	default:
		return statusDim.Render(cell)
	}
}

func formatNullTime(t sql.NullTime) string {
	if !t.Valid {
		return "never"
	}
	return t.Time.Format("2006-01-02 15:04")
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
