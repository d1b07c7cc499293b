package schema

import (
	"sort"
	"sync"
)

// Registry holds every schema known to a generation run and answers the
// reference lookups the resolver, the type oracle, and the fingerprinter
// need: is a name local to a package, which package declares a bare name,
// and what does a reference expand to.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema   // "pkg/Name" -> schema
	byName  map[string][]string // bare name -> declaring packages, sorted
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]Schema),
		byName:  make(map[string][]string),
	}
}

// Add registers a schema. Re-adding the same package-qualified name
// replaces the previous entry.
func (r *Registry) Add(s Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := s.FullName()
	if _, exists := r.schemas[key]; !exists {
		pkgs := append(r.byName[s.Name], s.Pkg)
		sort.Strings(pkgs)
		r.byName[s.Name] = pkgs
	}
	r.schemas[key] = s
}

// Get returns the schema declared as pkg/name.
func (r *Registry) Get(pkg, name string) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[pkg+"/"+name]
	return s, ok
}

// Has reports whether pkg declares a message called name.
func (r *Registry) Has(pkg, name string) bool {
	_, ok := r.Get(pkg, name)
	return ok
}

// ResolveBare returns the package declaring name when exactly one known
// package does. Ambiguous or unknown names report false.
func (r *Registry) ResolveBare(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pkgs := r.byName[name]
	if len(pkgs) != 1 {
		return "", false
	}
	return pkgs[0], true
}

// Lookup resolves a record reference as seen from fromPkg: qualified
// references are looked up directly, bare references first as siblings of
// fromPkg and then across all packages if unambiguous.
func (r *Registry) Lookup(ref, fromPkg string) (Schema, bool) {
	if pkg, name := SplitRef(ref); pkg != "" {
		return r.Get(pkg, name)
	}
	if s, ok := r.Get(fromPkg, ref); ok {
		return s, true
	}
	if pkg, ok := r.ResolveBare(ref); ok {
		return r.Get(pkg, ref)
	}
	return Schema{}, false
}

// Schemas returns every registered schema ordered by package-qualified name.
func (r *Registry) Schemas() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Schema, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.schemas[k])
	}
	return out
}

// Packages returns the distinct package names in sorted order.
func (r *Registry) Packages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, s := range r.schemas {
		seen[s.Pkg] = true
	}
	pkgs := make([]string, 0, len(seen))
	for p := range seen {
		pkgs = append(pkgs, p)
	}
	sort.Strings(pkgs)
	return pkgs
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}
