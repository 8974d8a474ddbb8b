package main

import (
	"flag"
	"fmt"
	"os"

	"debugtrail/internal/broadcast"
	"debugtrail/internal/export"
	"debugtrail/internal/logging"
	"debugtrail/internal/present"
	"debugtrail/internal/trace"
	"debugtrail/internal/tracker"
)

func main() {
	yamlPath := flag.String("f", "scenario.yaml", "path to scenario YAML")
	outPath := flag.String("o", "", "write the exported log to this .txt file")
	jsonl := flag.Bool("jsonl", false, "input is a JSON-lines spool instead of YAML")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	sc, err := load(*yamlPath, *jsonl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ws := trace.NewWorkspace()
	tr := tracker.New(logging.Nop(), tracker.WithDeliver(broadcast.Inline), tracker.WithWorkspace(ws))
	defer tr.Close()

	panel := present.NewPanel(os.Stdout, !*noColor)
	if err := panel.Attach(tr); err != nil {
		fmt.Fprintln(os.Stderr, "attach:", err)
		os.Exit(1)
	}
	if err := sc.Replay(tr, ws); err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	if panel.IsEmpty() {
		panel.Render(os.Stdout)
	}

	if *outPath != "" {
		path, err := export.WriteText(*outPath, tr.ExportLog())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "exported", len(tr.ExportLog()), "events to", path)
	}
}

func load(path string, jsonl bool) (*trace.Scenario, error) {
	if !jsonl {
		return trace.LoadYAML(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open spool: %w", err)
	}
	defer f.Close()
	notes, err := trace.Decode(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "skipped malformed lines:", err)
	}
	return &trace.Scenario{Name: path, Notifications: notes}, nil
}
