package auth

import "sort"

// Source identifies the declared origin/platform issuing a request, e.g. a
// specific client app or a backend service
type Source string

// SourceRegistry enumerates the legitimate principal sources and the
// credential schemes each one may use. It is populated at startup and
// read-only afterwards.
type SourceRegistry struct {
	sources map[Source]map[SchemeKind]struct{}
}

// NewSourceRegistry creates an empty source registry
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{sources: make(map[Source]map[SchemeKind]struct{})}
}

// Register declares a source and the schemes it may use. Registering the
// same source again extends its scheme set.
func (r *SourceRegistry) Register(source Source, schemes ...SchemeKind) {
	set, ok := r.sources[source]
	if !ok {
		set = make(map[SchemeKind]struct{})
		r.sources[source] = set
	}
	for _, s := range schemes {
		set[s] = struct{}{}
	}
}

// Known reports whether the source has been registered
func (r *SourceRegistry) Known(source Source) bool {
	_, ok := r.sources[source]
	return ok
}

// Allows reports whether the source may authenticate with the scheme
func (r *SourceRegistry) Allows(source Source, scheme SchemeKind) bool {
	set, ok := r.sources[source]
	if !ok {
		return false
	}
	_, ok = set[scheme]
	return ok
}

// Sources returns the registered sources, sorted
func (r *SourceRegistry) Sources() []Source {
	out := make([]Source, 0, len(r.sources))
	for s := range r.sources {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
