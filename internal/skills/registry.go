package skills

import (
	"fmt"
	"sync"
)

// Skill is one expert capability: instruction text plus the rule deciding when it applies.
type Skill struct {
	ID          string
	Label       string
	Instruction string
	// Persona skills speak as critics in the debate stage
	Persona bool
	// Activates must be pure; absent optional context means false
	Activates func(Context) bool
	// Dynamic, when set, replaces Instruction with text derived from the context
	Dynamic func(Context) string
}

// InstructionFor returns the dynamic text when the skill has one, else the static text
func (s Skill) InstructionFor(ctx Context) string {
	if s.Dynamic != nil {
		if text := s.Dynamic(ctx); text != "" {
			return text
		}
	}
	return s.Instruction
}

// Registry is an ordered, read-only list of skills
type Registry struct {
	skills []Skill
}

// NewRegistry validates skills and freezes their declaration order
func NewRegistry(skills ...Skill) (*Registry, error) {
	seen := make(map[string]bool, len(skills))
	for i, s := range skills {
		if s.ID == "" {
			return nil, fmt.Errorf("skill at position %d has no id", i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate skill id: %s", s.ID)
		}
		if s.Activates == nil {
			return nil, fmt.Errorf("skill %s has no activation predicate", s.ID)
		}
		seen[s.ID] = true
	}
	return &Registry{skills: append([]Skill(nil), skills...)}, nil
}

// All returns every registered skill in declaration order
func (r *Registry) All() []Skill {
	return append([]Skill(nil), r.skills...)
}

// Get looks a skill up by id
func (r *Registry) Get(id string) (Skill, bool) {
	for _, s := range r.skills {
		if s.ID == id {
			return s, true
		}
	}
	return Skill{}, false
}

// Activate returns the skills whose predicate holds for ctx, in declaration order.
// The result is a fresh slice on every call.
func (r *Registry) Activate(ctx Context) []Skill {
	active := make([]Skill, 0, len(r.skills))
	for _, s := range r.skills {
		if s.Activates(ctx) {
			active = append(active, s)
		}
	}
	return active
}

// Personas filters skills down to the debate personas, keeping order
func Personas(active []Skill) []Skill {
	var personas []Skill
	for _, s := range active {
		if s.Persona {
			personas = append(personas, s)
		}
	}
	return personas
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide built-in registry, created on first use
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := NewRegistry(builtin()...)
		if err != nil {
			panic(fmt.Sprintf("built-in skill registry is invalid: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}
