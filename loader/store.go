// Package loader provides the in-memory definition store backing the type
// hierarchy and external base resolution, plus converters from R4 FHIR
// models and JSON loading utilities.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/fshc/cache"
	"github.com/gofhir/fshc/service"
)

// DefaultCacheSize is the resolution cache capacity used when none is
// configured.
const DefaultCacheSize = 512

// InMemoryDefinitionStore holds pre-converted StructureDefinitions and
// implements service.TypeResolver and service.SnapshotSource over them.
// Definitions are indexed by canonical URL, by type code (base definitions
// only), by name, and by id.
type InMemoryDefinitionStore struct {
	mu        sync.RWMutex
	byURL     map[string]*service.StructureDefinition
	byType    map[string]*service.StructureDefinition
	byName    map[string]*service.StructureDefinition
	byID      map[string]*service.StructureDefinition
	resolved  *cache.Cache[string, service.TypeRecord]
	converter *R4Converter
}

// NewInMemoryDefinitionStore creates an empty store with the given
// resolution cache capacity.
func NewInMemoryDefinitionStore(cacheSize int) *InMemoryDefinitionStore {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &InMemoryDefinitionStore{
		byURL:     make(map[string]*service.StructureDefinition),
		byType:    make(map[string]*service.StructureDefinition),
		byName:    make(map[string]*service.StructureDefinition),
		byID:      make(map[string]*service.StructureDefinition),
		resolved:  cache.New[string, service.TypeRecord](cacheSize),
		converter: NewR4Converter(),
	}
}

// ResolutionCacheCap returns the resolution cache capacity.
func (s *InMemoryDefinitionStore) ResolutionCacheCap() int {
	return s.resolved.Cap()
}

// Register indexes a pre-converted StructureDefinition.
func (s *InMemoryDefinitionStore) Register(sd *service.StructureDefinition) {
	if sd == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sd.URL != "" {
		s.byURL[sd.URL] = sd
	}
	if sd.Name != "" {
		s.byName[sd.Name] = sd
	}
	if sd.ID != "" {
		s.byID[sd.ID] = sd
	}

	// Only THE base definition for a type is indexed by type code, so that
	// profiles of Patient never shadow Patient itself.
	if sd.Type != "" && isBaseTypeDefinition(sd.URL, sd.Type) {
		s.byType[sd.Type] = sd
	}

	s.resolved.Purge()
}

// RegisterR4 converts and indexes an R4 StructureDefinition.
func (s *InMemoryDefinitionStore) RegisterR4(sd *r4.StructureDefinition) error {
	if sd == nil {
		return fmt.Errorf("structure definition is nil")
	}
	converted := s.converter.ConvertStructureDefinition(sd)
	if converted == nil {
		return fmt.Errorf("failed to convert structure definition")
	}
	s.Register(converted)
	return nil
}

// Resolve implements service.TypeResolver. The identifier may be a type
// code, a name, an id, or a canonical URL; a "|version" suffix is ignored.
func (s *InMemoryDefinitionStore) Resolve(identifier string) (service.TypeRecord, bool) {
	if identifier == "" {
		return service.TypeRecord{}, false
	}
	if i := strings.LastIndexByte(identifier, '|'); i >= 0 {
		identifier = identifier[:i]
	}

	if rec, ok := s.resolved.Get(identifier); ok {
		return rec, true
	}

	sd := s.lookup(identifier)
	if sd == nil {
		return service.TypeRecord{}, false
	}

	rec := service.TypeRecord{
		Code:       sd.Type,
		URL:        sd.URL,
		ParentURL:  sd.BaseDefinition,
		Abstract:   sd.Abstract,
		Kind:       sd.Kind,
		Derivation: sd.Derivation,
	}
	s.resolved.Set(identifier, rec)
	return rec, true
}

// Snapshot implements service.SnapshotSource.
func (s *InMemoryDefinitionStore) Snapshot(identifier string) (*service.StructureDefinition, bool) {
	if i := strings.LastIndexByte(identifier, '|'); i >= 0 {
		identifier = identifier[:i]
	}
	sd := s.lookup(identifier)
	if sd == nil || len(sd.Snapshot) == 0 {
		return nil, false
	}
	return sd, true
}

// lookup searches by URL first, then type code, then name, then id.
func (s *InMemoryDefinitionStore) lookup(identifier string) *service.StructureDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sd, ok := s.byURL[identifier]; ok {
		return sd
	}
	if sd, ok := s.byType[identifier]; ok {
		return sd
	}
	if sd, ok := s.byName[identifier]; ok {
		return sd
	}
	if sd, ok := s.byID[identifier]; ok {
		return sd
	}
	return nil
}

// Count returns the number of loaded definitions.
func (s *InMemoryDefinitionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byURL)
}

// Clear removes all definitions and empties the resolution cache.
func (s *InMemoryDefinitionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byURL = make(map[string]*service.StructureDefinition)
	s.byType = make(map[string]*service.StructureDefinition)
	s.byName = make(map[string]*service.StructureDefinition)
	s.byID = make(map[string]*service.StructureDefinition)
	s.resolved.Purge()
}

// isBaseTypeDefinition checks if a URL is THE base definition for its type.
// http://hl7.org/fhir/StructureDefinition/Patient is the base for Patient;
// a profile of Patient lives at some other URL.
func isBaseTypeDefinition(url, typeName string) bool {
	if typeName == "" {
		return false
	}
	return url == "http://hl7.org/fhir/StructureDefinition/"+typeName
}

// LoadFromJSON loads definitions from JSON data, auto-detecting Bundle vs
// single StructureDefinition format. It returns the number loaded.
func (s *InMemoryDefinitionStore) LoadFromJSON(data []byte) (int, error) {
	var probe struct {
		ResourceType string `json:"resourceType"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("invalid JSON: %w", err)
	}

	switch probe.ResourceType {
	case "Bundle":
		return s.loadFromBundle(data)
	case "StructureDefinition":
		var sd r4.StructureDefinition
		if err := json.Unmarshal(data, &sd); err != nil {
			return 0, fmt.Errorf("failed to parse StructureDefinition: %w", err)
		}
		if err := s.RegisterR4(&sd); err != nil {
			return 0, err
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("unsupported resourceType: %s", probe.ResourceType)
	}
}

// LoadFromFile loads definitions from a JSON file.
func (s *InMemoryDefinitionStore) LoadFromFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return s.LoadFromJSON(data)
}

// LoadFromDir loads every .json file in a directory (non-recursive).
func (s *InMemoryDefinitionStore) LoadFromDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	total := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		n, err := s.LoadFromFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// loadFromBundle loads definitions from a FHIR Bundle. Non-StructureDefinition
// entries are skipped.
func (s *InMemoryDefinitionStore) loadFromBundle(data []byte) (int, error) {
	var bundle struct {
		ResourceType string `json:"resourceType"`
		Entry        []struct {
			Resource json.RawMessage `json:"resource"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(data, &bundle); err != nil {
		return 0, fmt.Errorf("failed to parse Bundle: %w", err)
	}
	if bundle.ResourceType != "Bundle" {
		return 0, fmt.Errorf("expected Bundle, got %s", bundle.ResourceType)
	}

	count := 0
	for _, entry := range bundle.Entry {
		if len(entry.Resource) == 0 {
			continue
		}
		var probe struct {
			ResourceType string `json:"resourceType"`
		}
		if err := json.Unmarshal(entry.Resource, &probe); err != nil {
			continue
		}
		if probe.ResourceType != "StructureDefinition" {
			continue
		}
		var sd r4.StructureDefinition
		if err := json.Unmarshal(entry.Resource, &sd); err != nil {
			return count, fmt.Errorf("failed to parse Bundle entry: %w", err)
		}
		if err := s.RegisterR4(&sd); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
