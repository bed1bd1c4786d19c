// Package roster persists the contact directory used to route
// notifications.
package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/harrisonrobin/taskdispatch/pkg/model"
)

const rosterFile = "roster.json"

// Roster maps assignee names to their contact channels. Entries keep their
// insertion order.
type Roster struct {
	Entries []model.Assignee `json:"entries"`
	Path    string           `json:"-"`
	mu      sync.RWMutex
	dirty   bool
}

// Open loads the roster in dir. A missing file yields a roster seeded with
// seed names and no channels, marked dirty so the next Save creates it.
func Open(dir string, seed []string) (*Roster, error) {
	r := &Roster{Path: filepath.Join(dir, rosterFile)}
	if _, err := os.Stat(r.Path); err == nil {
		if err := r.Load(); err != nil {
			return nil, err
		}
		return r, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	for _, name := range seed {
		r.Entries = append(r.Entries, model.Assignee{Name: name})
	}
	r.dirty = len(seed) > 0
	return r, nil
}

func (r *Roster) Load() error {
	f, err := os.Open(r.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(r); err != nil {
		return fmt.Errorf("failed to decode roster %s: %w", r.Path, err)
	}
	return nil
}

func (r *Roster) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(r.Path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(r.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return err
	}
	r.dirty = false
	return nil
}

// Get returns the first entry named name.
func (r *Roster) Get(name string) (model.Assignee, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.Entries {
		if a.Name == name {
			return a, true
		}
	}
	return model.Assignee{}, false
}

// Set adds a or replaces the entry with the same name.
func (r *Roster) Set(a model.Assignee) error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return errors.New("assignee name is empty")
	}
	a.MessagingToken = strings.TrimSpace(a.MessagingToken)
	a.Email = strings.TrimSpace(a.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.Entries {
		if existing.Name == a.Name {
			if existing != a {
				r.Entries[i] = a
				r.dirty = true
			}
			return nil
		}
	}
	r.Entries = append(r.Entries, a)
	r.dirty = true
	return nil
}

// Remove deletes every entry named name and reports whether one existed.
func (r *Roster) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.Entries[:0]
	for _, a := range r.Entries {
		if a.Name != name {
			kept = append(kept, a)
		}
	}
	removed := len(kept) != len(r.Entries)
	r.Entries = kept
	if removed {
		r.dirty = true
	}
	return removed
}

// List returns a copy of the entries in roster order.
func (r *Roster) List() []model.Assignee {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Assignee, len(r.Entries))
	copy(out, r.Entries)
	return out
}

// MissingContact returns the sorted names of entries without any channel.
func (r *Roster) MissingContact() []string {
	var names []string
	for _, a := range r.List() {
		if !a.HasContact() {
			names = append(names, a.Name)
		}
	}
	sort.Strings(names)
	return names
}
