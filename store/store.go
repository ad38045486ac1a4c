/*
 * store.go, part of gomsd.
 *
 * Copyright 2026 Raul Mera A. (raulpuntomeraatusachpuntocl)
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package store keeps checkpoints of finished segments in a SQLite database, so an
//interrupted or partially failed run can be repeated processing only the missing segments.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rmera/gomsd/dipole"
	"github.com/rmera/gomsd/dispstat"
	"github.com/rmera/gomsd/pbc"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS runs (
    run_id      TEXT PRIMARY KEY,
    fingerprint TEXT NOT NULL,
    started_at  TEXT NOT NULL,
    finished_at TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'running',
    succeeded   INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS segments (
    fingerprint TEXT NOT NULL,
    segment     INTEGER NOT NULL,
    status      TEXT NOT NULL,
    run_id      TEXT NOT NULL,
    frames      INTEGER NOT NULL DEFAULT 0,
    attempts    INTEGER NOT NULL DEFAULT 0,
    stage       TEXT NOT NULL DEFAULT '',
    cause       TEXT NOT NULL DEFAULT '',
    stats       TEXT NOT NULL DEFAULT '',
    pbc         TEXT NOT NULL DEFAULT '',
    dipole      TEXT NOT NULL DEFAULT '',
    updated_at  TEXT NOT NULL,
    PRIMARY KEY (fingerprint, segment)
);
`

//Segment statuses
const (
	StatusDone    = "done"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

//DB is a checkpoint database. It can be used from several goroutines.
type DB struct {
	db *sql.DB
}

//Open opens (or creates) the checkpoint database in path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	//workers write concurrently; a single connection serializes them.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

//BeginRun records the start of a run.
func (d *DB) BeginRun(id uuid.UUID, fingerprint string) error {
	_, err := d.db.Exec("INSERT INTO runs (run_id, fingerprint, started_at) VALUES (?, ?, ?)", id.String(), fingerprint, now())
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

//FinishRun records the end of a run.
func (d *DB) FinishRun(id uuid.UUID, status string, succeeded, failed int) error {
	_, err := d.db.Exec("UPDATE runs SET finished_at = ?, status = ?, succeeded = ?, failed = ? WHERE run_id = ?",
		now(), status, succeeded, failed, id.String())
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

//Checkpoint is what is kept of a finished segment.
type Checkpoint struct {
	Segment int
	Status  string
	Frames  int
	Stats   *dispstat.State
	End     *pbc.State
	Dipole  *dipole.Summary
}

func encode(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	return string(b), err
}

//Save stores the checkpoint of a finished (or skipped) segment, replacing any previous record.
func (d *DB) Save(fingerprint string, run uuid.UUID, cp *Checkpoint) error {
	var st, pb, dp string
	var err error
	if cp.Stats != nil {
		if st, err = encode(cp.Stats); err != nil {
			return fmt.Errorf("encode stats: %w", err)
		}
	}
	if cp.End != nil {
		if pb, err = encode(cp.End); err != nil {
			return fmt.Errorf("encode pbc state: %w", err)
		}
	}
	if cp.Dipole != nil {
		if dp, err = encode(cp.Dipole); err != nil {
			return fmt.Errorf("encode dipole summary: %w", err)
		}
	}
	status := cp.Status
	if status == "" {
		status = StatusDone
	}
	_, err = d.db.Exec(`INSERT OR REPLACE INTO segments
        (fingerprint, segment, status, run_id, frames, stats, pbc, dipole, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fingerprint, cp.Segment, status, run.String(), cp.Frames, st, pb, dp, now())
	if err != nil {
		return fmt.Errorf("save segment %d: %w", cp.Segment, err)
	}
	return nil
}

//SaveFailure records a failed segment, so it is processed again in the next run.
func (d *DB) SaveFailure(fingerprint string, run uuid.UUID, segment int, stage, cause string, attempts int) error {
	_, err := d.db.Exec(`INSERT OR REPLACE INTO segments
        (fingerprint, segment, status, run_id, attempts, stage, cause, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fingerprint, segment, StatusFailed, run.String(), attempts, stage, cause, now())
	if err != nil {
		return fmt.Errorf("save failure of segment %d: %w", segment, err)
	}
	return nil
}

//Load returns the checkpoint of a segment finished with the same fingerprint, and true, or
//nil and false if there is none (failed segments have none).
func (d *DB) Load(fingerprint string, segment int) (*Checkpoint, bool, error) {
	var status, st, pb, dp string
	var frames int
	err := d.db.QueryRow("SELECT status, frames, stats, pbc, dipole FROM segments WHERE fingerprint = ? AND segment = ?",
		fingerprint, segment).Scan(&status, &frames, &st, &pb, &dp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load segment %d: %w", segment, err)
	}
	if status == StatusFailed {
		return nil, false, nil
	}
	cp := &Checkpoint{Segment: segment, Status: status, Frames: frames}
	if st != "" {
		cp.Stats = new(dispstat.State)
		if err := json.Unmarshal([]byte(st), cp.Stats); err != nil {
			return nil, false, fmt.Errorf("decode stats of segment %d: %w", segment, err)
		}
	}
	if pb != "" {
		cp.End = new(pbc.State)
		if err := json.Unmarshal([]byte(pb), cp.End); err != nil {
			return nil, false, fmt.Errorf("decode pbc state of segment %d: %w", segment, err)
		}
	}
	if dp != "" {
		cp.Dipole = new(dipole.Summary)
		if err := json.Unmarshal([]byte(dp), cp.Dipole); err != nil {
			return nil, false, fmt.Errorf("decode dipole summary of segment %d: %w", segment, err)
		}
	}
	return cp, true, nil
}

//Failed returns the segments whose last record for fingerprint is a failure.
func (d *DB) Failed(fingerprint string) ([]int, error) {
	rows, err := d.db.Query("SELECT segment FROM segments WHERE fingerprint = ? AND status = ? ORDER BY segment", fingerprint, StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("query failed segments: %w", err)
	}
	defer rows.Close()
	var ret []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		ret = append(ret, s)
	}
	return ret, rows.Err()
}
