package fadc

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned by Catalog.GetRun for unknown run ids.
var ErrRunNotFound = errors.New("run not found")

const createRunsTable = `CREATE TABLE IF NOT EXISTS runs (
	run_id        VARCHAR(36)      NOT NULL PRIMARY KEY,
	sid           INTEGER          NOT NULL,
	output_file   VARCHAR(255)     NOT NULL,
	settings      TEXT             NOT NULL,
	started_at    BIGINT           NOT NULL,
	finished_at   BIGINT           NOT NULL DEFAULT 0,
	total_events  BIGINT           NOT NULL DEFAULT 0,
	decode_errors BIGINT           NOT NULL DEFAULT 0,
	bytes_read    BIGINT           NOT NULL DEFAULT 0,
	rate          DOUBLE PRECISION NOT NULL DEFAULT 0,
	stop_reason   VARCHAR(32)      NOT NULL DEFAULT ''
)`

// ConnectToDatabase opens the run catalog. driver is "mysql" or "sqlite".
func ConnectToDatabase(driver string, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "mysql", "sqlite":
	default:
		return nil, &ConfigError{Field: "db_driver", Reason: fmt.Sprintf("unsupported driver %q", driver)}
	}
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s database: %w", driver, err)
	}
	return db, nil
}

// RunEntry is a row of the run catalog. Times are unix nanoseconds, zero
// while the run is in progress.
type RunEntry struct {
	RunID        string  `db:"run_id"`
	SID          int     `db:"sid"`
	OutputFile   string  `db:"output_file"`
	Settings     string  `db:"settings"`
	StartedAt    int64   `db:"started_at"`
	FinishedAt   int64   `db:"finished_at"`
	TotalEvents  int64   `db:"total_events"`
	DecodeErrors int64   `db:"decode_errors"`
	BytesRead    int64   `db:"bytes_read"`
	Rate         float64 `db:"rate"`
	StopReason   string  `db:"stop_reason"`
}

func (r RunEntry) Started() time.Time {
	return time.Unix(0, r.StartedAt)
}

func (r RunEntry) Finished() bool {
	return r.FinishedAt != 0
}

// RunSettings decodes the settings stored with the run.
func (r RunEntry) RunSettings() (RunSettings, error) {
	var settings RunSettings
	if err := json.Unmarshal([]byte(r.Settings), &settings); err != nil {
		return RunSettings{}, fmt.Errorf("error decoding settings of run %s: %w", r.RunID, err)
	}
	return settings, nil
}

// Catalog keeps one row per acquisition run.
type Catalog struct {
	DB        *sqlx.DB
	Verbosity int
}

func NewCatalog(db *sqlx.DB, verbosity int) *Catalog {
	return &Catalog{DB: db, Verbosity: verbosity}
}

func (c *Catalog) Init() error {
	if _, err := c.DB.Exec(createRunsTable); err != nil {
		return fmt.Errorf("error creating runs table: %w", err)
	}
	return nil
}

// StartRun registers a new run and returns its id.
func (c *Catalog) StartRun(settings RunSettings, outputFile string, start time.Time) (string, error) {
	encoded, err := json.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("error encoding run settings: %w", err)
	}
	entry := RunEntry{
		RunID:      uuid.NewString(),
		SID:        settings.SID,
		OutputFile: outputFile,
		Settings:   string(encoded),
		StartedAt:  start.UnixNano(),
	}

	query := `INSERT INTO runs (run_id, sid, output_file, settings, started_at)
		VALUES (:run_id, :sid, :output_file, :settings, :started_at)`
	if c.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}
	if _, err := c.DB.NamedExec(query, entry); err != nil {
		return "", fmt.Errorf("error registering run: %w", err)
	}
	if c.Verbosity > 0 {
		message := fmt.Sprintf("Run %s registered", entry.RunID)
		logger.Info(message, "database")
	}
	return entry.RunID, nil
}

// FinishRun stores the summary of a finished run.
func (c *Catalog) FinishRun(runID string, summary RunSummary) error {
	query := `UPDATE runs SET finished_at = ?, total_events = ?, decode_errors = ?,
		bytes_read = ?, rate = ?, stop_reason = ? WHERE run_id = ?`
	if c.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}
	result, err := c.DB.Exec(c.DB.Rebind(query), summary.End.UnixNano(), summary.TotalEvents,
		summary.DecodeErrors, summary.BytesRead, summary.Rate, string(summary.StopReason), runID)
	if err != nil {
		return fmt.Errorf("error updating run %s: %w", runID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error updating run %s: %w", runID, err)
	}
	if rows == 0 {
		return fmt.Errorf("error updating run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

func (c *Catalog) GetRun(runID string) (RunEntry, error) {
	var entry RunEntry
	err := c.DB.Get(&entry, c.DB.Rebind("SELECT * FROM runs WHERE run_id = ?"), runID)
	if errors.Is(err, sql.ErrNoRows) {
		return RunEntry{}, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return RunEntry{}, fmt.Errorf("error querying run %s: %w", runID, err)
	}
	return entry, nil
}

// ListRuns returns the runs in start order.
func (c *Catalog) ListRuns() ([]RunEntry, error) {
	var entries []RunEntry
	if err := c.DB.Select(&entries, "SELECT * FROM runs ORDER BY started_at"); err != nil {
		return nil, fmt.Errorf("error listing runs: %w", err)
	}
	return entries, nil
}
