package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

// PresetSummary describes one saved preset.
type PresetSummary struct {
	Name    string    `json:"name"`
	Points  int       `json:"points"`
	SavedAt time.Time `json:"saved_at"`
}

// RecentDocument is one entry of the recently opened list.
type RecentDocument struct {
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	OpenedAt time.Time `json:"opened_at"`
}

// LoadPreset returns the point states saved under name, statuses first, then
// analogs, then variables. Indices are not stored and come back as -1.
func LoadPreset(db *sql.DB, name string) ([]telemetry.PointState, error) {
	rows, err := db.Query(`SELECT kind, channel, rtu, point, var_id, is_on, unreliable, malfunction, intermediate, value, unit
		FROM presets WHERE name = ?
		ORDER BY CASE kind WHEN 'status' THEN 0 WHEN 'analog' THEN 1 ELSE 2 END, channel, rtu, point, var_id`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query preset %s: %w", name, err)
	}
	defer rows.Close()

	var states []telemetry.PointState
	for rows.Next() {
		var ps telemetry.PointState
		var kind string
		err = rows.Scan(&kind, &ps.Address.Channel, &ps.Address.RTU, &ps.Address.Point, &ps.ID,
			&ps.IsOn, &ps.IsUnreliable, &ps.IsMalfunction, &ps.IsIntermediate, &ps.Value, &ps.Unit)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preset %s: %w", name, err)
		}
		ps.Kind = telemetry.Kind(kind)
		ps.Index = -1
		states = append(states, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read preset %s: %w", name, err)
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("failed to get preset %s: %w", name, sql.ErrNoRows)
	}
	return states, nil
}

// ListPresets returns every preset ordered by name.
func ListPresets(db *sql.DB) ([]PresetSummary, error) {
	rows, err := db.Query(`SELECT name, COUNT(*), MAX(saved_at) FROM presets GROUP BY name ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query presets: %w", err)
	}
	defer rows.Close()

	presets := []PresetSummary{}
	for rows.Next() {
		var p PresetSummary
		var savedAt string
		if err := rows.Scan(&p.Name, &p.Points, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan preset: %w", err)
		}
		p.SavedAt, _ = time.Parse(timeLayout, savedAt)
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

// RecentDocuments returns up to limit documents, most recently opened first.
func RecentDocuments(db *sql.DB, limit int) ([]RecentDocument, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Query(`SELECT path, title, opened_at FROM recent_documents ORDER BY opened_at DESC, path LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent documents: %w", err)
	}
	defer rows.Close()

	docs := []RecentDocument{}
	for rows.Next() {
		var d RecentDocument
		var openedAt string
		if err := rows.Scan(&d.Path, &d.Title, &openedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent document: %w", err)
		}
		d.OpenedAt, _ = time.Parse(timeLayout, openedAt)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
