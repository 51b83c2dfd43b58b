package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"uiscout/internal/store"
)

var exportOut string

// exportCmd writes an app's commands in the compact interchange shape
var exportCmd = &cobra.Command{
	Use:   "export [app]",
	Short: "Export an app's commands as compact JSON",
	Long: `Writes every learned command as a compact JSON array
[action, phrase, [synonyms], description], one per line, so other tools
can consume the vocabulary without reading the database.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default: stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("no commands learned for %s", appID)
	}

	// Summaries repeat per element, one lookup each is enough.
	summaries := make(map[string]string)
	rows := make([]string, 0, len(cmds))
	for _, c := range cmds {
		summary, ok := summaries[c.ElementHash]
		if !ok {
			if rec, err := st.GetElement(c.ElementHash); err == nil {
				summary = rec.Summary()
			}
			summaries[c.ElementHash] = summary
		}
		row, err := exportRow(c, summary)
		if err != nil {
			return err
		}
		rows = append(rows, string(row))
	}

	doc := "[\n" + strings.Join(rows, ",\n") + "\n]\n"
	if exportOut == "" {
		fmt.Print(doc)
		return nil
	}
	if err := os.WriteFile(exportOut, []byte(doc), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOut, err)
	}
	fmt.Printf("Exported %d commands to %s\n", len(rows), exportOut)
	return nil
}

// exportRow renders one command as [action, phrase, [synonyms], description].
func exportRow(c store.CommandRecord, summary string) ([]byte, error) {
	synonyms := c.Synonyms
	if synonyms == nil {
		synonyms = []string{}
	}
	return json.Marshal([]interface{}{string(c.Action), c.Phrase, synonyms, summary})
}
