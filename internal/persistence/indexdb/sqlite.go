package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"gridarena.ai/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index over runs. Writes are queued
// and applied by a single writer goroutine; the zstd run log stays the
// source of truth, so a full queue drops entries instead of stalling the sim.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
	runID  atomic.Value // string

	dropTick   atomic.Uint64
	dropResult atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqResult
	reqSync
)

type req struct {
	kind  reqKind
	runID string

	tick   world.TickLogEntry
	result world.Summary
	done   chan struct{}
}

type Stats struct {
	QueueDepth      int    `json:"queue_depth"`
	QueueCapacity   int    `json:"queue_capacity"`
	DropTickTotal   uint64 `json:"drop_tick_total"`
	DropResultTotal uint64 `json:"drop_result_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.runID.Store("")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			map_name TEXT NOT NULL,
			seed INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			config_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			commands INTEGER NOT NULL,
			frags INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS commands (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			agent TEXT NOT NULL,
			command_json TEXT NOT NULL,
			PRIMARY KEY (run_id, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_agent_tick ON commands(run_id, agent, tick);`,
		`CREATE TABLE IF NOT EXISTS frags (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			victim TEXT NOT NULL,
			assailant TEXT NOT NULL,
			PRIMARY KEY (run_id, tick, victim, assailant)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_frags_assailant ON frags(run_id, assailant);`,
		`CREATE TABLE IF NOT EXISTS results (
			run_id TEXT NOT NULL,
			agent TEXT NOT NULL,
			rank INTEGER NOT NULL,
			score INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			reason TEXT NOT NULL,
			end_tick INTEGER NOT NULL,
			PRIMARY KEY (run_id, agent)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`)
	return err
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// BeginRun records the run synchronously; later ticks and results are
// attributed to it.
func (s *SQLiteIndex) BeginRun(h world.RunHeader) error {
	cfg, err := json.Marshal(h.Config)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO runs(run_id,mode,map_name,seed,agents,started_at,config_json) VALUES(?,?,?,?,?,?,?)`,
		h.RunID, h.Config.Mode, h.Map.Name, h.Config.Seed, len(h.Agents), h.StartedAt.UTC().Format(time.RFC3339Nano), string(cfg),
	)
	if err != nil {
		return err
	}
	s.runID.Store(h.RunID)
	return nil
}

func (s *SQLiteIndex) currentRun() string { return s.runID.Load().(string) }

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, runID: s.currentRun(), tick: entry}:
	default:
		s.dropTick.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordResult(sum world.Summary) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	id := sum.RunID
	if id == "" {
		id = s.currentRun()
	}
	select {
	case s.ch <- req{kind: reqResult, runID: id, result: sum}:
	default:
		s.dropResult.Add(1)
	}
	return nil
}

// Sync blocks until everything queued before it is committed.
func (s *SQLiteIndex) Sync(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqSync, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:      len(s.ch),
		QueueCapacity:   cap(s.ch),
		DropTickTotal:   s.dropTick.Load(),
		DropResultTotal: s.dropResult.Load(),
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(run_id,tick,digest,commands,frags,raw_json) VALUES(?,?,?,?,?,?)`)
	insertCommand, _ := s.db.Prepare(`INSERT OR REPLACE INTO commands(run_id,tick,seq,agent,command_json) VALUES(?,?,?,?,?)`)
	insertFrag, _ := s.db.Prepare(`INSERT OR IGNORE INTO frags(run_id,tick,victim,assailant) VALUES(?,?,?,?)`)
	insertResult, _ := s.db.Prepare(`INSERT OR REPLACE INTO results(run_id,agent,rank,score,outcome,reason,end_tick) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertCommand, insertFrag, insertResult} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		if r.kind == reqSync {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			t := r.tick
			raw, _ := json.Marshal(t)
			if insertTick != nil {
				if _, err := tx.Stmt(insertTick).Exec(r.runID, int64(t.Tick), t.Digest, len(t.Commands), len(t.Frags), string(raw)); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			for i, c := range t.Commands {
				if insertCommand == nil {
					break
				}
				cj, _ := json.Marshal(c.Command)
				if _, err := tx.Stmt(insertCommand).Exec(r.runID, int64(t.Tick), i, c.Agent, string(cj)); err != nil {
					rollback()
					break
				}
				opCount++
			}
			for _, f := range t.Frags {
				if insertFrag == nil || tx == nil {
					break
				}
				assailants := f.Assailants
				if len(assailants) == 0 {
					assailants = []string{""}
				}
				for _, a := range assailants {
					if _, err := tx.Stmt(insertFrag).Exec(r.runID, int64(t.Tick), f.Victim, a); err != nil {
						rollback()
						break
					}
					opCount++
				}
			}

		case reqResult:
			sum := r.result
			for _, st := range sum.Standings {
				if insertResult == nil {
					break
				}
				if _, err := tx.Stmt(insertResult).Exec(r.runID, st.Agent, st.Rank, st.Score, st.Outcome, sum.Reason, int64(sum.Tick)); err != nil {
					rollback()
					break
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
