// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package jobstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v2"

	"github.com/telekom/failed-job-deactivator/pkg/notification"
)

// ErrClosed is returned by record operations after the store was closed.
var ErrClosed = errors.New("job store is closed")

type recordData struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Recipients  string `yaml:"recipients,omitempty"`
}

type storeFile struct {
	Jobs []recordData `yaml:"jobs"`
}

// Store keeps every job record of one file in memory and writes the whole
// file back on each change. An advisory lock next to the file keeps two runs
// from interleaving their writes.
type Store struct {
	path string
	lock *flock.Flock

	mu      sync.Mutex
	closed  bool
	records []*Record
	byName  map[string]*Record
}

// Open loads the store and takes its lock. Call Close to release it.
func Open(path string) (*Store, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock for job store %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("job store %s is locked by another run", path)
	}

	s, err := load(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	s.lock = lock
	return s, nil
}

func load(path string) (*Store, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trying to open job store %s: %w", path, err)
	}

	var file storeFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("error unmarshaling YAML %s: %w", path, err)
	}

	s := &Store{
		path:   path,
		byName: make(map[string]*Record, len(file.Jobs)),
	}
	for i, data := range file.Jobs {
		if data.Name == "" {
			return nil, fmt.Errorf("job store %s: entry %d has no name", path, i)
		}
		if _, dup := s.byName[data.Name]; dup {
			return nil, fmt.Errorf("job store %s: duplicate job %q", path, data.Name)
		}
		r := &Record{store: s, data: data}
		s.records = append(s.records, r)
		s.byName[data.Name] = r
	}
	return s, nil
}

// Get returns the record for name, or nil if the store has no such job.
func (s *Store) Get(name string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byName[name]
}

// Names lists the jobs in file order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.records))
	for _, r := range s.records {
		names = append(names, r.data.Name)
	}
	return names
}

// Close releases the lock. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

// saveLocked writes every record to a temp file in the same directory and
// renames it over the store, so readers never see a partial file.
func (s *Store) saveLocked() error {
	file := storeFile{Jobs: make([]recordData, 0, len(s.records))}
	for _, r := range s.records {
		file.Jobs = append(file.Jobs, r.data)
	}
	content, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("error marshaling job store: %w", err)
	}

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(s.path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", s.path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replacing job store %s: %w", s.path, err)
	}
	return nil
}

// Record is one job of the store.
type Record struct {
	store *Store
	data  recordData
}

var _ notification.Job = (*Record)(nil)

func (r *Record) FullName() string {
	return r.data.Name
}

func (r *Record) Description() (string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.closed {
		return "", ErrClosed
	}
	return r.data.Description, nil
}

// SetDescription persists the new description. On a write error the record
// keeps its previous description.
func (r *Record) SetDescription(description string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.closed {
		return ErrClosed
	}

	previous := r.data.Description
	r.data.Description = description
	if err := r.store.saveLocked(); err != nil {
		r.data.Description = previous
		return err
	}
	return nil
}

func (r *Record) Recipients() string {
	return r.data.Recipients
}
