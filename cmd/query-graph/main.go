// query-graph is a standalone inspector for a uiscout database. It opens the
// DB read-only on the pure-Go driver, so it works on a copy pulled off a
// device without a cgo toolchain, and never contends with a running scout.
//
// Usage:
//
//	query-graph [db-path] [table]
package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

func main() {
	dbPath := defaultDBPath()
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}

	if len(os.Args) > 2 {
		inspectTable(dbPath, os.Args[2], 10)
		return
	}
	inspectDB(dbPath)
}

func defaultDBPath() string {
	dir := os.Getenv("UISCOUT_DATA")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			dir = ".uiscout"
		} else {
			dir = filepath.Join(home, ".uiscout")
		}
	}
	return filepath.Join(dir, "uiscout.db")
}

func openReadOnly(dbPath string) (*sql.DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("no database at %s", dbPath)
	}
	return sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
}

func inspectDB(dbPath string) {
	db, err := openReadOnly(dbPath)
	if err != nil {
		fmt.Printf("Error opening DB: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("=== %s ===\n", dbPath)

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		fmt.Printf("Error listing tables: %v\n", err)
		return
	}
	var tables []string
	for rows.Next() {
		var name string
		rows.Scan(&name)
		tables = append(tables, name)
	}
	rows.Close()

	fmt.Println("\nTables:")
	for _, table := range tables {
		var count int
		db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		fmt.Printf("  %-24s %6d rows\n", table, count)
	}

	// The learned graph at a glance: who owns how much of it.
	appRows, err := db.Query(`
		SELECT a.app_id, a.status,
		       (SELECT COUNT(*) FROM screen_states s WHERE s.app_id = a.app_id),
		       (SELECT COUNT(*) FROM elements e WHERE e.app_id = a.app_id),
		       (SELECT COUNT(*) FROM commands c WHERE c.app_id = a.app_id)
		FROM apps a ORDER BY a.app_id`)
	if err == nil {
		fmt.Println("\nPer app:")
		for appRows.Next() {
			var app, status string
			var screens, elements, commands int
			appRows.Scan(&app, &status, &screens, &elements, &commands)
			fmt.Printf("  %-28s %-12s %4d screens %6d elements %5d commands\n",
				app, status, screens, elements, commands)
		}
		appRows.Close()
	}

	for _, table := range tables {
		fmt.Printf("\n=== %s ===\n", table)
		inspectTable(dbPath, table, 5)
	}
}

func inspectTable(dbPath, table string, limit int) {
	db, err := openReadOnly(dbPath)
	if err != nil {
		fmt.Printf("Error opening DB: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	schemaRows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		fmt.Printf("No table %s\n", table)
		return
	}
	fmt.Println("Schema:")
	for schemaRows.Next() {
		var cid int
		var name, typ string
		var notNull, pk int
		var dflt interface{}
		schemaRows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk)
		fmt.Printf("  - %s (%s)\n", name, typ)
	}
	schemaRows.Close()

	rows, err := db.Query(fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, limit))
	if err != nil {
		fmt.Printf("Error sampling %s: %v\n", table, err)
		return
	}
	defer rows.Close()

	cols, _ := rows.Columns()
	fmt.Println("\nSample data:")
	fmt.Println("─────────────────────────────────────────────────────────────")
	i := 0
	for rows.Next() {
		values := make([]interface{}, len(cols))
		valuePtrs := make([]interface{}, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			fmt.Printf("Scan error: %v\n", err)
			continue
		}
		i++
		fmt.Printf("%d. ", i)
		for j, col := range cols {
			val := values[j]
			if s, ok := val.(string); ok && len(s) > 80 {
				val = s[:80] + "..."
			}
			fmt.Printf("%s=%v  ", col, val)
		}
		fmt.Println()
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
	fmt.Printf("\nTotal %s: %d\n", table, count)
}
