package lookupserver

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Record is one searchable row, passed through to clients as is.
type Record = map[string]any

// Dataset holds records per entity. It is safe for concurrent use so a file
// watcher can swap contents while requests are served.
type Dataset struct {
	mu       sync.RWMutex
	entities map[string][]Record
}

type datasetFile struct {
	Entities map[string][]Record `yaml:"entities"`
}

// NewDataset copies entities into a new dataset.
func NewDataset(entities map[string][]Record) *Dataset {
	ds := &Dataset{}
	ds.Replace(entities)
	return ds
}

// LoadFile reads a YAML dataset from path.
func LoadFile(path string) (*Dataset, error) {
	ds := NewDataset(nil)
	if err := ds.Reload(path); err != nil {
		return nil, err
	}
	return ds, nil
}

// Reload replaces the contents with the YAML file at path. On error the
// previous contents stay in place.
func (d *Dataset) Reload(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("lookupserver: read dataset: %w", err)
	}
	entities, err := ParseYAML(raw)
	if err != nil {
		return fmt.Errorf("lookupserver: %s: %w", path, err)
	}
	d.Replace(entities)
	return nil
}

// ParseYAML decodes a document of the form:
//
//	entities:
//	  products:
//	    - {id: 1, label: Widget, sku: W-1, unit_price: 12.5}
func ParseYAML(raw []byte) (map[string][]Record, error) {
	var file datasetFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	for entity, records := range file.Entities {
		if strings.TrimSpace(entity) == "" {
			return nil, fmt.Errorf("dataset contains an empty entity name")
		}
		for i, rec := range records {
			if _, ok := rec["id"]; !ok {
				return nil, fmt.Errorf("%s[%d]: missing id", entity, i)
			}
		}
	}
	return file.Entities, nil
}

// Replace swaps the whole dataset.
func (d *Dataset) Replace(entities map[string][]Record) {
	next := make(map[string][]Record, len(entities))
	for entity, records := range entities {
		next[strings.ToLower(strings.TrimSpace(entity))] = append([]Record{}, records...)
	}
	d.mu.Lock()
	d.entities = next
	d.mu.Unlock()
}

// Records returns the rows of entity.
func (d *Dataset) Records(entity string) ([]Record, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	records, ok := d.entities[strings.ToLower(strings.TrimSpace(entity))]
	return records, ok
}

// Entities lists entity names in order.
func (d *Dataset) Entities() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.entities))
	for name := range d.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
