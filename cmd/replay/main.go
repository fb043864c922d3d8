package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gridarena.ai/internal/replay"
)

func main() {
	var (
		logPath = flag.String("log", "", "path to <run>.jsonl.zst")
		toTick  = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *logPath == "" {
		fmt.Fprintln(os.Stderr, "missing -log")
		os.Exit(2)
	}

	res, err := replay.Verify(context.Background(), *logPath, *toTick)
	h := res.Header
	if h.RunID != "" {
		fmt.Printf("run=%s mode=%s map=%s seed=%d agents=%d\n", h.RunID, h.Config.Mode, h.Map.Name, h.Config.Seed, len(h.Agents))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d ticks\n", res.Checked)
	if s := res.Replayed; s != nil {
		fmt.Printf("ended at tick %d (%s) winner=%q\n", s.Tick, s.Reason, s.Winner())
	}
}
