package main

import "github.com/bawdo/exprql/plugins"

type transformer = plugins.Transformer

// pluginEntry represents an enabled plugin in the registry.
type pluginEntry struct {
	name    string                      // "softdelete", "policy"
	factory func(s *Session) transformer // creates a fresh instance per statement
	status  func() string               // human-readable status for display
	color   string                      // DOT provenance color
}

// pluginRegistry holds the currently enabled plugins.
type pluginRegistry struct {
	entries []pluginEntry // plugins apply in registration order
}

// register adds or replaces a plugin by name.
func (r *pluginRegistry) register(entry pluginEntry) {
	for i, e := range r.entries {
		if e.name == entry.name {
			r.entries[i] = entry
			return
		}
	}
	r.entries = append(r.entries, entry)
}

// deregister removes a plugin by name. Returns false if not found.
func (r *pluginRegistry) deregister(name string) bool {
	for i, e := range r.entries {
		if e.name == name {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// names returns the names of all enabled plugins.
func (r *pluginRegistry) names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

// applyTo calls each plugin's factory and passes the result to use.
func (r *pluginRegistry) applyTo(s *Session, use func(transformer)) {
	for _, entry := range r.entries {
		use(entry.factory(s))
	}
}
