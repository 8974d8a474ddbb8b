package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/host"
	_ "modernc.org/sqlite"

	"debugtrail/internal/events"
)

// Snapshot is one archived export of the event log.
type Snapshot struct {
	ID       string         `json:"id"`
	Created  time.Time      `json:"created"`
	Host     string         `json:"host"`
	Platform string         `json:"platform"`
	Count    int            `json:"count"`
	Events   []events.Event `json:"events,omitempty"`
}

// Archive stores export snapshots in sqlite. It is written to, never read
// back into a running tracker.
type Archive struct {
	db       *sql.DB
	hostInfo func() (hostname, platform string)
}

func OpenArchive(path string) (*Archive, error) {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	db, err := sql.Open("sqlite", path+"?_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive schema: %w", err)
	}
	return &Archive{db: db, hostInfo: currentHost}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS exports (
        id TEXT PRIMARY KEY,
        created TEXT NOT NULL,
        host TEXT NOT NULL,
        platform TEXT NOT NULL,
        count INTEGER NOT NULL
    );
    CREATE TABLE IF NOT EXISTS events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        export_id TEXT NOT NULL REFERENCES exports(id) ON DELETE CASCADE,
        seq INTEGER NOT NULL,
        timestamp TEXT NOT NULL,
        kind TEXT NOT NULL,
        message TEXT NOT NULL
    );`)
	return err
}

func currentHost() (string, string) {
	h, err := host.Info()
	if err != nil || h == nil {
		return "unknown", "unknown"
	}
	return h.Hostname, h.Platform + " " + h.PlatformVersion
}

// Save archives evts as a new snapshot in a single transaction.
func (a *Archive) Save(evts []events.Event) (Snapshot, error) {
	hostname, platform := a.hostInfo()
	snap := Snapshot{
		ID:       uuid.NewString(),
		Created:  time.Now().UTC(),
		Host:     hostname,
		Platform: platform,
		Count:    len(evts),
	}
	tx, err := a.db.Begin()
	if err != nil {
		return Snapshot{}, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO exports(id, created, host, platform, count) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.Created.Format(time.RFC3339Nano), snap.Host, snap.Platform, snap.Count); err != nil {
		return Snapshot{}, err
	}
	for _, e := range evts {
		if _, err := tx.Exec(`INSERT INTO events(export_id, seq, timestamp, kind, message) VALUES (?, ?, ?, ?, ?)`,
			snap.ID, e.Seq, e.Time.Format(time.RFC3339Nano), string(e.Kind), e.Message); err != nil {
			return Snapshot{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Snapshot{}, err
	}
	snap.Events = append([]events.Event(nil), evts...)
	return snap, nil
}

// List returns the newest snapshots first, without their events.
func (a *Archive) List(limit int) ([]Snapshot, error) {
	rows, err := a.db.Query(`SELECT id, created, host, platform, count FROM exports ORDER BY created DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Snapshot{}
	for rows.Next() {
		var s Snapshot
		var created string
		if err := rows.Scan(&s.ID, &created, &s.Host, &s.Platform, &s.Count); err != nil {
			return nil, err
		}
		s.Created, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Events returns the archived events of one snapshot in emission order.
func (a *Archive) Events(exportID string) ([]events.Event, error) {
	rows, err := a.db.Query(`SELECT seq, timestamp, kind, message FROM events WHERE export_id = ? ORDER BY seq ASC`, exportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []events.Event{}
	for rows.Next() {
		var e events.Event
		var ts, kind string
		if err := rows.Scan(&e.Seq, &ts, &kind, &e.Message); err != nil {
			return nil, err
		}
		e.Time, _ = time.Parse(time.RFC3339Nano, ts)
		e.Kind = events.Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (a *Archive) Close() error { return a.db.Close() }
