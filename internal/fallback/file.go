package fallback

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// FileStore keeps every entry in a single JSON file that is rewritten on
// each mutation.
type FileStore struct {
	Entries map[string]json.RawMessage `json:"entries"`
	Version int64                      `json:"version"`
	path    string
	mu      sync.Mutex
}

// OpenFileStore loads the store persisted at path. A missing file yields an
// empty store.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path}
	if err := fs.Load(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return fs, nil
}

// Load replaces the in-memory state with the file contents.
func (fs *FileStore) Load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.Open(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			fs.Entries = make(map[string]json.RawMessage)
			fs.Version = 0
			return nil
		}
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(fs); err != nil {
		return err
	}
	if fs.Entries == nil {
		fs.Entries = make(map[string]json.RawMessage)
	}
	return nil
}

type fileSnapshot struct {
	Entries map[string]json.RawMessage `json:"entries"`
	Version int64                      `json:"version"`
}

// save writes entries to a temporary file and renames it over the store, so
// a failed or interrupted write leaves the previous file intact. It must be
// called with mu held; the caller swaps the in-memory state only on success.
func (fs *FileStore) save(entries map[string]json.RawMessage, version int64) error {
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(fs.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(fileSnapshot{Entries: entries, Version: version}); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fs.path)
}

func (fs *FileStore) Get(key string, dst any) (bool, error) {
	fs.mu.Lock()
	raw, ok := fs.Entries[key]
	fs.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (fs *FileStore) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	next := maps.Clone(fs.Entries)
	next[key] = raw
	if err := fs.save(next, fs.Version+1); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	fs.Entries = next
	fs.Version++
	return nil
}

func (fs *FileStore) Delete(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.Entries[key]; !ok {
		return nil
	}
	next := maps.Clone(fs.Entries)
	delete(next, key)
	if err := fs.save(next, fs.Version+1); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	fs.Entries = next
	fs.Version++
	return nil
}

func (fs *FileStore) Keys(prefix string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	keys := make([]string, 0)
	for k := range fs.Entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op; every mutation is already on disk.
func (fs *FileStore) Close() error { return nil }
