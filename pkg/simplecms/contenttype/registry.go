package contenttype

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrTypeNotFound indicates a content type is not registered
var ErrTypeNotFound = errors.New("content type not found")

// Registry holds the loaded content types. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types []ContentType
	byID  map[string]int
}

// NewRegistry creates a registry holding the given types.
func NewRegistry(types ...ContentType) (*Registry, error) {
	r := &Registry{}
	if err := r.Replace(types); err != nil {
		return nil, err
	}
	return r, nil
}

// Replace swaps the registered types. The registry is left untouched on error.
func (r *Registry) Replace(types []ContentType) error {
	byID := make(map[string]int, len(types))
	normalized := make([]ContentType, len(types))
	for i, ct := range types {
		ct.Normalize()
		if err := ct.Validate(); err != nil {
			return err
		}
		if _, exists := byID[ct.ID]; exists {
			return fmt.Errorf("duplicate content type id %s", ct.ID)
		}
		byID[ct.ID] = i
		normalized[i] = ct
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = normalized
	r.byID = byID
	return nil
}

// Get returns the content type with the given id.
func (r *Registry) Get(id string) (ContentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byID[id]
	if !ok {
		return ContentType{}, fmt.Errorf("%w: %s", ErrTypeNotFound, id)
	}
	return r.types[i], nil
}

// List returns all content types in load order.
func (r *Registry) List() []ContentType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ContentType, len(r.types))
	copy(out, r.types)
	return out
}

// Load replaces the registered types with the definitions found in dir.
func (r *Registry) Load(dir string) error {
	types, err := LoadDir(dir)
	if err != nil {
		return err
	}
	return r.Replace(types)
}

// LoadDir reads every YAML and JSON definition in dir, sorted by file name.
func LoadDir(dir string) ([]ContentType, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read content types directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !isDefinitionFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	types := make([]ContentType, 0, len(names))
	for _, name := range names {
		ct, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		types = append(types, ct)
	}
	return types, nil
}

// LoadFile reads a single content type definition.
func LoadFile(path string) (ContentType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ContentType{}, fmt.Errorf("failed to read content type: %w", err)
	}

	var ct ContentType
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &ct)
	default:
		err = yaml.Unmarshal(data, &ct)
	}
	if err != nil {
		return ContentType{}, fmt.Errorf("failed to parse content type %s: %w", filepath.Base(path), err)
	}

	ct.Normalize()
	if err := ct.Validate(); err != nil {
		return ContentType{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return ct, nil
}

func isDefinitionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml", ".json":
		return true
	}
	return false
}
