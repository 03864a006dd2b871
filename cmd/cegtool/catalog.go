package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/chazu/expgen/pkg/expgen"

	_ "modernc.org/sqlite"
)

// writeCatalogJSON writes the spawnable class catalog to path, or to
// stdout when path is "-".
func writeCatalogJSON(h *expgen.Handler, path string) error {
	data, err := json.MarshalIndent(h.ProjectileClassInfo(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// writeCatalogDB writes the spawnable class catalog into a SQLite
// database, replacing any previous rows for the same classes.
func writeCatalogDB(h *expgen.Handler, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS classes (
		name TEXT PRIMARY KEY,
		alias TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating classes table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS fields (
		class TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		PRIMARY KEY (class, name)
	)`)
	if err != nil {
		return fmt.Errorf("creating fields table: %w", err)
	}

	for _, ci := range h.ProjectileClassInfo() {
		_, err := db.Exec(
			"INSERT OR REPLACE INTO classes (name, alias) VALUES (?, ?)",
			ci.Name, ci.Alias,
		)
		if err != nil {
			return fmt.Errorf("saving class %s: %w", ci.Name, err)
		}

		for _, f := range ci.Fields {
			_, err := db.Exec(
				"INSERT OR REPLACE INTO fields (class, name, kind) VALUES (?, ?, ?)",
				ci.Name, f.Name, f.Kind,
			)
			if err != nil {
				return fmt.Errorf("saving field %s.%s: %w", ci.Name, f.Name, err)
			}
		}
	}
	return nil
}
