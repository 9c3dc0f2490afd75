package pipeline

import (
	"log"
	"sync"

	"github.com/sweeney/presence-engine/internal/logic"
)

// Profiles selects entrance profiles by name. Unknown names fall back
// to the default profile and are logged once per name.
type Profiles struct {
	def   logic.Profile
	named map[string]logic.Profile

	mu     sync.Mutex
	warned map[string]bool
}

// NewProfiles creates a selector over the given named profiles.
func NewProfiles(def logic.Profile, named map[string]logic.Profile) *Profiles {
	return &Profiles{
		def:    def,
		named:  named,
		warned: make(map[string]bool),
	}
}

// Select returns the profile for the given name. Empty selects the
// default without logging.
func (p *Profiles) Select(name string) logic.Profile {
	if name == "" || name == p.def.Name {
		return p.def
	}
	if prof, ok := p.named[name]; ok {
		return prof
	}

	p.mu.Lock()
	if !p.warned[name] {
		p.warned[name] = true
		log.Printf("pipeline: unknown profile %q, using %q", name, p.def.Name)
	}
	p.mu.Unlock()
	return p.def
}
