// SPDX-License-Identifier: Unlicense OR MIT

// Package storage implements a key/value store for application state.
// Changes are kept in memory and written to a YAML file by a
// background goroutine when the store is flushed.
package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"

	"loomui.org/app"
	"loomui.org/internal/log"
)

// FileName is the name of the state file inside the application
// directory.
const FileName = "app.yaml"

// FileStorage is a string to string map persisted to a file.
//
// Writes are debounced: Set only changes memory, Flush starts a save in
// the background, and at most one save runs at a time. The file is
// rewritten in place, so a crash during a save can leave it truncated.
type FileStorage struct {
	path string
	log  zerolog.Logger
	// write persists a snapshot. Tests replace it to observe saves.
	write func(path string, kv map[string]string, log zerolog.Logger) error

	mu    sync.Mutex
	kv    map[string]string
	dirty bool
	saves int

	// saveMu orders flushes and guards the fields below. It is taken
	// before mu, and never while mu is held.
	saveMu sync.Mutex
	// saving is closed when the last started save has finished.
	saving chan struct{}
	// saveErr is the result of the last finished save. It is written
	// by the save goroutine before saving is closed.
	saveErr error
}

// Option configures a FileStorage.
type Option func(s *FileStorage)

// WithLogger sets the logger of the store.
func WithLogger(l zerolog.Logger) Option {
	return func(s *FileStorage) {
		s.log = l
	}
}

// Dir returns the directory where the state of the application
// appID is stored:
//
//	Linux:   ~/.config/APP_ID
//	macOS:   ~/Library/Application Support/APP_ID
//	Windows: %AppData%\APP_ID
func Dir(appID string) (string, error) {
	base, err := app.DataDir()
	if err != nil {
		return "", fmt.Errorf("storage: data dir: %w", err)
	}
	return filepath.Join(base, appID), nil
}

// FromAppID opens the state file of the application appID, creating its
// directory. An empty appID means app.ID. It returns an error, and
// saving should be disabled, when the directory cannot be determined or
// created.
func FromAppID(appID string, opts ...Option) (*FileStorage, error) {
	if appID == "" {
		appID = app.ID
	}
	dir, err := Dir(appID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: saving disabled: create app path %s: %w", dir, err)
	}
	return New(filepath.Join(dir, FileName), opts...), nil
}

// New opens the store persisted at path. A missing file gives an empty
// store; so does a file that fails to parse, after logging a warning.
func New(path string, opts ...Option) *FileStorage {
	s := &FileStorage{
		path:  path,
		log:   log.Default(),
		write: save,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = log.Component(s.log, "storage")
	s.log.Debug().Str("path", path).Msg("loading app state")
	s.kv = read(path, s.log)
	return s
}

// Path returns the path of the state file.
func (s *FileStorage) Path() string {
	return s.path
}

// Get returns the value stored for key.
func (s *FileStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.kv[key]
	return v, ok
}

// Set stores value for key. Setting the value already stored is a no-op
// and does not make the store dirty.
func (s *FileStorage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.kv[key]; ok && old == value {
		return
	}
	s.kv[key] = value
	s.dirty = true
}

// Keys returns the stored keys in sorted order.
func (s *FileStorage) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := maps.Keys(s.kv)
	slices.Sort(keys)
	return keys
}

// Dirty reports whether there are changes that have not been handed to
// a save yet.
func (s *FileStorage) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Saves returns the number of saves started so far.
func (s *FileStorage) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Flush starts saving a snapshot of the store in the background, if it
// changed since the last flush. A save still running from a previous
// flush is waited for first. Other methods do not wait for saves.
func (s *FileStorage) Flush() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return
	}
	s.dirty = false
	kv := maps.Clone(s.kv)
	s.saves++
	s.mu.Unlock()

	s.join()
	done := make(chan struct{})
	s.saving = done
	go func() {
		defer close(done)
		s.saveErr = s.write(s.path, kv, s.log)
	}()
}

// Wait blocks until the running save, if any, has finished and returns
// its error.
func (s *FileStorage) Wait() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.join()
	return s.saveErr
}

// Close flushes the store one last time and waits for the save to
// finish. The store stays usable in memory.
func (s *FileStorage) Close() error {
	s.Flush()
	return s.Wait()
}

// join waits for the running save. s.saveMu must be held.
func (s *FileStorage) join() {
	if s.saving == nil {
		return
	}
	s.log.Trace().Msg("waiting for previous save")
	<-s.saving
	s.saving = nil
}

func save(path string, kv map[string]string, log zerolog.Logger) error {
	if dir := filepath.Dir(path); dir != "" {
		if _, err := os.Stat(dir); err != nil {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				log.Warn().Err(err).Str("dir", dir).Msg("failed to create directory")
				return err
			}
		}
	}
	f, err := os.Create(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to create file")
		return err
	}
	err = encode(f, kv)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to serialize app state")
		return err
	}
	log.Trace().Str("path", path).Int("keys", len(kv)).Msg("persisted")
	return nil
}

func encode(w io.Writer, kv map[string]string) error {
	bw := bufio.NewWriter(w)
	enc := yaml.NewEncoder(bw)
	enc.SetIndent(2)
	if err := enc.Encode(kv); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return bw.Flush()
}

func read(path string, log zerolog.Logger) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		// The file might not exist yet.
		return make(map[string]string)
	}
	defer f.Close()
	var kv map[string]string
	if err := yaml.NewDecoder(bufio.NewReader(f)).Decode(&kv); err != nil && !errors.Is(err, io.EOF) {
		log.Warn().Err(err).Str("path", path).Msg("failed to parse app state")
		return make(map[string]string)
	}
	if kv == nil {
		kv = make(map[string]string)
	}
	return kv
}
