package profile

import (
	"fmt"
	"sync"

	"github.com/quantmind-br/bundlefile/internal/domain"
)

// AutoDetect asks the registry to pick a profile from the text itself
const AutoDetect = "auto"

// Registry holds profiles in registration order, which is also the order
// they are probed during detection
type Registry struct {
	mu       sync.RWMutex
	profiles []domain.Profile
	byName   map[string]domain.Profile
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]domain.Profile)}
}

// DefaultRegistry registers the built-in grammars, most specific first
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(NewJSONLines())
	r.MustRegister(NewMarkdownFence())
	r.MustRegister(NewPlainMarker())
	return r
}

// Register adds a profile; names must be unique
func (r *Registry) Register(p domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[p.Name()]; exists {
		return fmt.Errorf("profile %q already registered", p.Name())
	}
	r.profiles = append(r.profiles, p)
	r.byName[p.Name()] = p
	return nil
}

// MustRegister is Register that panics on a duplicate name
func (r *Registry) MustRegister(p domain.Profile) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Get returns the named profile
func (r *Registry) Get(name string) (domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[name]
	if !ok {
		return nil, &domain.ProfileNotFoundError{Name: name, Available: r.namesLocked()}
	}
	return p, nil
}

// Names returns profile names in detection order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, len(r.profiles))
	for i, p := range r.profiles {
		names[i] = p.Name()
	}
	return names
}

// Profiles returns the registered profiles in detection order
func (r *Registry) Profiles() []domain.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Detect probes each profile with the leading part of text
func (r *Registry) Detect(text string) (domain.Profile, error) {
	snippet := text
	if len(snippet) > domain.DetectSnippetSize {
		snippet = snippet[:domain.DetectSnippetSize]
	}

	for _, p := range r.Profiles() {
		if p.Detect(snippet) {
			return p, nil
		}
	}
	return nil, &domain.DetectionError{Attempted: r.Names()}
}

// Parse parses text with the named profile, detecting one when name is
// empty or "auto"
func (r *Registry) Parse(text, name string) (*domain.Manifest, domain.Profile, error) {
	var (
		p   domain.Profile
		err error
	)
	if name == "" || name == AutoDetect {
		p, err = r.Detect(text)
	} else {
		p, err = r.Get(name)
	}
	if err != nil {
		return nil, nil, err
	}

	m, err := p.Parse(text)
	if err != nil {
		return nil, p, err
	}
	return m, p, nil
}
