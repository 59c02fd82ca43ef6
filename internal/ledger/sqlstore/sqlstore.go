// Package sqlstore is the SQLite-backed ledger used when runs must survive
// process restarts.
package sqlstore

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/axiomhive/hybrid/internal/ledger"
	"github.com/axiomhive/hybrid/pkg/types"
)

type Store struct {
	db *sql.DB
}

func OpenSQLite(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ledger.Migrate(db, ledger.DBSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) AppendAttestation(rec types.AttestationRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO attestations(hash, timestamp, strategy, key_id, sig) VALUES(?,?,?,?,?)`,
		rec.Hash, rec.Timestamp, rec.Strategy, rec.KeyID, rec.Sig,
	)
	return err
}

func (s *Store) ListAttestations() ([]types.AttestationRecord, error) {
	rows, err := s.db.Query(`SELECT hash, timestamp, strategy, key_id, sig FROM attestations ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.AttestationRecord{}
	for rows.Next() {
		var rec types.AttestationRecord
		if err := rows.Scan(&rec.Hash, &rec.Timestamp, &rec.Strategy, &rec.KeyID, &rec.Sig); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) PutRun(run ledger.RunRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO runs(run_id, created_at, mode, decision, attestation_hash, body_json)
VALUES(?,?,?,?,?,?)
ON CONFLICT(run_id) DO UPDATE SET
  created_at=excluded.created_at,
  mode=excluded.mode,
  decision=excluded.decision,
  attestation_hash=excluded.attestation_hash,
  body_json=excluded.body_json`,
		run.RunID,
		run.CreatedAt,
		run.Mode,
		run.Decision,
		run.AttestationHash,
		string(run.BodyJSON),
	)
	return err
}

func (s *Store) GetRun(runID string) (ledger.RunRecord, bool) {
	var rec ledger.RunRecord
	var body string
	row := s.db.QueryRow(`SELECT run_id, created_at, mode, decision, attestation_hash, body_json FROM runs WHERE run_id = ?`, runID)
	if err := row.Scan(&rec.RunID, &rec.CreatedAt, &rec.Mode, &rec.Decision, &rec.AttestationHash, &body); err != nil {
		return ledger.RunRecord{}, false
	}
	rec.BodyJSON = []byte(body)
	return rec, true
}

func (s *Store) ListRuns(limit int) ([]ledger.RunRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT run_id, created_at, mode, decision, attestation_hash, body_json
FROM runs
ORDER BY created_at ASC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.RunRecord{}
	for rows.Next() {
		var rec ledger.RunRecord
		var body string
		if err := rows.Scan(&rec.RunID, &rec.CreatedAt, &rec.Mode, &rec.Decision, &rec.AttestationHash, &body); err != nil {
			return nil, err
		}
		rec.BodyJSON = []byte(body)
		out = append(out, rec)
	}
	return out, rows.Err()
}
