package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"debugtrail/internal/config"
	"debugtrail/internal/export"
)

func main() {
	dbPath := flag.String("db", "", "archive path (default: archive_path from config)")
	limit := flag.Int("n", 20, "number of exports to list")
	withEvents := flag.Bool("events", false, "include the events of each export")
	flag.Parse()

	path := *dbPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to load config:", err)
			os.Exit(1)
		}
		path = cfg.ArchivePath
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "no archive configured; pass -db")
		os.Exit(1)
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "archive not found at %s: %v\n", path, err)
		os.Exit(1)
	}

	a, err := export.OpenArchive(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open archive error:", err)
		os.Exit(1)
	}
	defer a.Close()

	snaps, err := a.List(*limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query error:", err)
		os.Exit(1)
	}
	if *withEvents {
		for i := range snaps {
			evts, err := a.Events(snaps[i].ID)
			if err != nil {
				fmt.Fprintln(os.Stderr, "events error:", err)
				continue
			}
			snaps[i].Events = evts
		}
	}
	b, _ := json.MarshalIndent(snaps, "", "  ")
	fmt.Println(string(b))
}
