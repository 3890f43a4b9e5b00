package store

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Session is what survives a restart: the last document and how it was
// being viewed.
type Session struct {
	Path  string  `json:"path"`
	Scale float64 `json:"scale"`
}

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load() (*Session, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var session Session
	if err := json.NewDecoder(file).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Store) Save(session *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	tmpPath := s.path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(session); err != nil {
		file.Close()
		return err
	}
	file.Sync()
	file.Close()

	return os.Rename(tmpPath, s.path)
}
