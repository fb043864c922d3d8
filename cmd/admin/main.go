package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gridarena.ai/internal/persistence/indexdb"
	persistlog "gridarena.ai/internal/persistence/log"
	"gridarena.ai/internal/replay"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "results":
			resultsCmd(os.Args[2:])
			return
		case "frags":
			fragsCmd(os.Args[2:])
			return
		case "events":
			eventsCmd(os.Args[2:])
			return
		case "verify":
			verifyCmd(os.Args[2:])
			return
		case "state":
			getCmd("state", "/v1/state", os.Args[2:])
			return
		case "summary":
			getCmd("summary", "/v1/summary", os.Args[2:])
			return
		case "runs":
			runsCmd(os.Args[2:])
			return
		}
	}
	runsCmd(os.Args[1:])
}

func openIndex(fs *flag.FlagSet, args []string) (*indexdb.SQLiteIndex, *flag.FlagSet) {
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/runs.sqlite)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "runs.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "index:", err)
		os.Exit(1)
	}
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	return idx, fs
}

func runsCmd(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "result limit")
	idx, _ := openIndex(fs, args)
	defer idx.Close()

	rows, err := idx.Runs(*limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range rows {
		printJSON(r)
	}
}

func resultsCmd(args []string) {
	fs := flag.NewFlagSet("results", flag.ExitOnError)
	runID := fs.String("run", "", "run id (required)")
	idx, _ := openIndex(fs, args)
	defer idx.Close()
	if strings.TrimSpace(*runID) == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}

	rows, err := idx.Results(*runID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range rows {
		printJSON(r)
	}
}

func fragsCmd(args []string) {
	fs := flag.NewFlagSet("frags", flag.ExitOnError)
	runID := fs.String("run", "", "run id (required)")
	idx, _ := openIndex(fs, args)
	defer idx.Close()
	if strings.TrimSpace(*runID) == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}

	rows, err := idx.FragsBy(*runID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range rows {
		printJSON(r)
	}
}

func eventsCmd(args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	runID := fs.String("run", "", "run id (required)")
	kind := fs.String("kind", "", "only events of this kind, e.g. FRAGGED")
	agent := fs.String("agent", "", "only events for this agent")
	_ = fs.Parse(args)
	if strings.TrimSpace(*runID) == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}

	path := persistlog.EventLogPath(filepath.Join(*dataDir, "runs"), *runID)
	err := persistlog.ReadEvents(path, func(b persistlog.EventBatch) error {
		for _, e := range b.Events {
			if *kind != "" && !strings.EqualFold(string(e.Kind), *kind) {
				continue
			}
			if *agent != "" && e.Agent != *agent {
				continue
			}
			printJSON(e)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "events:", err)
		os.Exit(1)
	}
}

func verifyCmd(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	runID := fs.String("run", "", "run id (required)")
	_ = fs.Parse(args)
	if strings.TrimSpace(*runID) == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}

	res, err := replay.Verify(context.Background(), persistlog.RunLogPath(filepath.Join(*dataDir, "runs"), *runID), 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, "verify:", err)
		os.Exit(1)
	}
	printJSON(map[string]any{"run_id": *runID, "checked": res.Checked, "ok": true})
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
