package scope

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/simonhull/firebird-suite/plume/filesystem"
)

// Field is one attribute of an entity definition.
type Field struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// Entity is a named domain object shared by every render of a run.
type Entity struct {
	Name   string  `yaml:"name" json:"name"`
	Fields []Field `yaml:"fields" json:"fields"`

	faker *Faker
}

// NewEntity creates an entity with a faker seeded from its name.
func NewEntity(name string, fields ...Field) *Entity {
	return &Entity{
		Name:   name,
		Fields: fields,
		faker:  NewFaker(Seed(name, "", "")),
	}
}

// Faker returns the entity's deterministic fake data source.
func (e *Entity) Faker() *Faker {
	if e.faker == nil {
		e.faker = NewFaker(Seed(e.Name, "", ""))
	}
	return e.faker
}

// FakeRows produces n rows of fake values keyed by field name.
func (e *Entity) FakeRows(n int) []map[string]any {
	f := e.Faker()
	rows := make([]map[string]any, n)
	for i := range rows {
		row := make(map[string]any, len(e.Fields))
		for _, field := range e.Fields {
			row[field.Name] = f.Value(field.Type)
		}
		rows[i] = row
	}
	return rows
}

// Registry owns every entity of a run. It is the single lookup used by
// templates and by seeding.
type Registry struct {
	mu       sync.Mutex
	entities map[string]*Entity
}

// NewRegistry creates a registry holding entities.
func NewRegistry(entities ...*Entity) *Registry {
	r := &Registry{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		r.entities[e.Name] = e
	}
	return r
}

// Add registers e, replacing any entity with the same name.
func (r *Registry) Add(e *Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[e.Name] = e
}

// Get looks an entity up by name.
func (r *Registry) Get(name string) (*Entity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[name]
	return e, ok
}

// Names returns the registered entity names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reseed resets the faker of every registered entity to seed.
func (r *Registry) Reseed(seed int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reseedLocked(seed)
}

func (r *Registry) reseedLocked(seed int64) {
	for _, e := range r.entities {
		e.Faker().Reseed(seed)
	}
}

// Seed derives the faker seed for one entity render.
func Seed(entityName, templateBase, external string) int64 {
	sum := sha256.Sum256([]byte(entityName + templateBase + external))
	return int64(binary.BigEndian.Uint64(sum[:8]) >> 1)
}

// LoadEntities reads every *.yml, *.yaml and *.json file in dir. JSON is
// parsed by the YAML decoder. A missing directory yields no entities.
func LoadEntities(fsys filesystem.FS, dir string) ([]*Entity, error) {
	lister, ok := fsys.(filesystem.Lister)
	if !ok {
		return nil, fmt.Errorf("filesystem %T cannot list directories", fsys)
	}
	files, err := lister.List(dir)
	if err != nil {
		return nil, fmt.Errorf("listing entities in %s: %w", dir, err)
	}

	var entities []*Entity
	for _, name := range files {
		switch strings.ToLower(path.Ext(name)) {
		case ".yml", ".yaml", ".json":
		default:
			continue
		}

		file := path.Join(dir, name)
		data, err := fsys.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading entity %s: %w", file, err)
		}

		var e Entity
		if err := yaml.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("parsing entity %s: %w", file, err)
		}
		if e.Name == "" {
			e.Name = strings.TrimSuffix(path.Base(name), path.Ext(name))
		}
		entities = append(entities, NewEntity(e.Name, e.Fields...))
	}
	return entities, nil
}
