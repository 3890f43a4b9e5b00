package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// StartTransaction starts a new database transaction.
func StartTransaction(db *sql.DB) (*sql.Tx, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return tx, nil
}

// CommitTransaction commits the given transaction.
func CommitTransaction(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the given transaction.
func RollbackTransaction(tx *sql.Tx) {
	tx.Rollback()
}

// SavePreset replaces the preset called name with states.
func SavePreset(db *sql.DB, name string, states []telemetry.PointState, now time.Time) error {
	tx, err := StartTransaction(db)
	if err != nil {
		return err
	}
	if err := SavePresetWithTx(tx, name, states, now); err != nil {
		RollbackTransaction(tx)
		return err
	}
	return CommitTransaction(tx)
}

func SavePresetWithTx(tx *sql.Tx, name string, states []telemetry.PointState, now time.Time) error {
	if _, err := tx.Exec(`DELETE FROM presets WHERE name = ?`, name); err != nil {
		return fmt.Errorf("clear preset %s: %w", name, err)
	}
	savedAt := now.UTC().Format(timeLayout)
	for _, ps := range states {
		var addr telemetry.Address
		var varID string
		if ps.Kind == telemetry.KindVariable {
			varID = ps.ID
		} else {
			addr = ps.Address
		}
		_, err := tx.Exec(`INSERT INTO presets (name, kind, channel, rtu, point, var_id, is_on, unreliable, malfunction, intermediate, value, unit, saved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			name, string(ps.Kind), addr.Channel, addr.RTU, addr.Point, varID,
			ps.IsOn, ps.IsUnreliable, ps.IsMalfunction, ps.IsIntermediate, ps.Value, ps.Unit, savedAt)
		if err != nil {
			return fmt.Errorf("insert preset %s point: %w", name, err)
		}
	}
	return nil
}

// DeletePreset removes a preset and reports whether it existed.
func DeletePreset(db *sql.DB, name string) (bool, error) {
	res, err := db.Exec(`DELETE FROM presets WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete preset %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete preset %s: %w", name, err)
	}
	return n > 0, nil
}

// RecordDocument moves path to the top of the recent documents list and
// trims the list to keep entries.
func RecordDocument(db *sql.DB, path, title string, openedAt time.Time, keep int) error {
	tx, err := StartTransaction(db)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO recent_documents (path, title, opened_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET title = excluded.title, opened_at = excluded.opened_at`,
		path, title, openedAt.UTC().Format(timeLayout))
	if err != nil {
		RollbackTransaction(tx)
		return fmt.Errorf("record document %s: %w", path, err)
	}
	if keep > 0 {
		_, err = tx.Exec(`DELETE FROM recent_documents WHERE path NOT IN (
			SELECT path FROM recent_documents ORDER BY opened_at DESC, path LIMIT ?)`, keep)
		if err != nil {
			RollbackTransaction(tx)
			return fmt.Errorf("trim recent documents: %w", err)
		}
	}
	return CommitTransaction(tx)
}
