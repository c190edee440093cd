package keymap

import (
	"slices"
	"strings"
)

// Resolver turns key presses, as bubbletea names them, into remote actions
// and renders the help line shown under the playlist.
type Resolver struct {
	actions map[string]Action
	keys    map[Action][]string
	help    []Binding // first binding of each action, in declaration order
}

// NewResolver indexes bindings. A key bound twice resolves to its last
// binding; an action bound twice keeps its first description.
func NewResolver(bindings []Binding) *Resolver {
	r := &Resolver{
		actions: make(map[string]Action),
		keys:    make(map[Action][]string),
	}
	for _, b := range bindings {
		if _, seen := r.keys[b.Action]; !seen {
			r.help = append(r.help, b)
			r.keys[b.Action] = nil
		}
		for _, key := range b.Keys {
			r.actions[key] = b.Action
			if !slices.Contains(r.keys[b.Action], key) {
				r.keys[b.Action] = append(r.keys[b.Action], key)
			}
		}
	}
	return r
}

// Resolve returns the action bound to key.
func (r *Resolver) Resolve(key string) (Action, bool) {
	a, ok := r.actions[key]
	return a, ok
}

// KeysFor returns every key bound to action.
func (r *Resolver) KeysFor(action Action) []string {
	return r.keys[action]
}

// Help renders "space play/pause · s stop · ...", naming each action by its
// first key.
func (r *Resolver) Help() string {
	parts := make([]string, 0, len(r.help))
	for _, b := range r.help {
		keys := r.keys[b.Action]
		if len(keys) == 0 {
			continue
		}
		parts = append(parts, displayKey(keys[0])+" "+b.Description)
	}
	return strings.Join(parts, " · ")
}

func displayKey(key string) string {
	if key == " " {
		return "space"
	}
	return key
}
