package scope

import (
	"errors"
	"fmt"
	"maps"
	"path"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/simonhull/firebird-suite/plume/logger"
)

// Context keys with a meaning to the engine.
const (
	EntityNameKey = "entityName" // Identifies the entity of an entity-scoped render
	EntityKey     = "entity"     // The *Entity exposed to entity-scoped templates
	FakerSeedKey  = "fakerSeed"  // Optional external seed mixed into fake data
)

// ErrMissingRequiredContext is matched by every MissingContextError.
var ErrMissingRequiredContext = errors.New("missing required context")

// MissingContextError reports an entity-scoped render without its identity.
type MissingContextError struct {
	Template string
	Key      string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("template %s is entity scoped but context has no %q", e.Template, e.Key)
}

func (e *MissingContextError) Unwrap() error {
	return ErrMissingRequiredContext
}

// Context is the data a template is rendered against.
type Context map[string]any

// Merge returns a new Context with every layer applied in order; later
// layers win. Inputs are not modified.
func Merge(layers ...Context) Context {
	size := 0
	for _, l := range layers {
		size += len(l)
	}
	out := make(Context, size)
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}

// String returns the string value stored at key, or "".
func (c Context) String(key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Request describes one render for Build.
type Request struct {
	Source       string  // Template source id, used for the seed
	Overrides    Context // Task-local values
	EntityScoped bool
}

// Builder assembles per-render contexts.
type Builder struct {
	base     Context
	registry *Registry
	log      logger.Logger
}

// NewBuilder creates a builder over the generator-wide context. A nil
// registry is replaced by an empty one.
func NewBuilder(base Context, registry *Registry, log logger.Logger) *Builder {
	if registry == nil {
		registry = NewRegistry()
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Builder{
		base:     Merge(base),
		registry: registry,
		log:      log,
	}
}

// Base returns a copy of the generator-wide context.
func (b *Builder) Base() Context {
	return Merge(b.base)
}

// Registry returns the entity registry.
func (b *Builder) Registry() *Registry {
	return b.registry
}

// With returns a builder sharing the registry whose base also carries
// overrides.
func (b *Builder) With(overrides Context) *Builder {
	return &Builder{
		base:     Merge(b.base, overrides),
		registry: b.registry,
		log:      b.log,
	}
}

// Build merges the base context with req.Overrides. For entity-scoped
// requests it reseeds the registry and returns with the registry locked;
// the caller must invoke release once the render is done. release is never
// nil.
func (b *Builder) Build(req Request) (data Context, release func(), err error) {
	data = Merge(b.base, req.Overrides)
	if !req.EntityScoped {
		return data, func() {}, nil
	}

	name := strings.TrimSpace(data.String(EntityNameKey))
	if name == "" {
		return nil, nil, &MissingContextError{Template: req.Source, Key: EntityNameKey}
	}

	seed := Seed(name, path.Base(req.Source), data.String(FakerSeedKey))

	b.registry.mu.Lock()
	b.registry.reseedLocked(seed)
	if e, ok := b.registry.entities[name]; ok {
		data[EntityKey] = e
	} else {
		b.log.Debug("entity not registered, rendering without fake data", logger.F("entity", name))
	}

	b.log.Debug("entity render seeded",
		logger.F("entity", name),
		logger.F("template", req.Source),
		logger.F("seed", seed))

	return data, b.registry.mu.Unlock, nil
}

// EvalCondition evaluates an expr-lang boolean expression against data.
// Unknown identifiers evaluate to nil, so `db == "postgres"` is simply false
// when db is unset. An empty expression is true.
func EvalCondition(expression string, data Context) (bool, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return true, nil
	}

	env := map[string]any(data)
	if env == nil {
		env = map[string]any{}
	}

	program, err := expr.Compile(expression, expr.Env(env), expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compile condition %q: %w", expression, err)
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval condition %q: %w", expression, err)
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not return bool (got %T)", expression, output)
	}
	return result, nil
}
