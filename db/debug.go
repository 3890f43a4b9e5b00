package db

import (
	"fmt"
	"io"
)

func ListPresetsCLI(dbPath string, w io.Writer) error {
	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	presets, err := ListPresets(conn)
	if err != nil {
		return err
	}
	for _, p := range presets {
		fmt.Fprintf(w, "%-24s %4d points  saved %s\n", p.Name, p.Points, p.SavedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func ShowPresetCLI(dbPath, name string, w io.Writer) error {
	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	states, err := LoadPreset(conn, name)
	if err != nil {
		return err
	}
	for _, ps := range states {
		where := ps.Address.String()
		if ps.ID != "" {
			where = ps.ID
		}
		fmt.Fprintf(w, "%-8s %-16s on=%t unreliable=%t malfunction=%t intermediate=%t value=%g %s\n",
			ps.Kind, where, ps.IsOn, ps.IsUnreliable, ps.IsMalfunction, ps.IsIntermediate, ps.Value, ps.Unit)
	}
	return nil
}

func DeletePresetCLI(dbPath, name string) error {
	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	found, err := DeletePreset(conn, name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("preset %s not found", name)
	}
	return nil
}

func RecentDocumentsCLI(dbPath string, limit int, w io.Writer) error {
	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	docs, err := RecentDocuments(conn, limit)
	if err != nil {
		return err
	}
	for _, d := range docs {
		fmt.Fprintf(w, "%s  %-32s %s\n", d.OpenedAt.Local().Format("2006-01-02 15:04:05"), d.Title, d.Path)
	}
	return nil
}
