// Package resource mints and revokes the locators that let the presentation layer render
// a discovered image without holding on to the file itself.
package resource

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"croquis/internal/scan"

	"github.com/google/uuid"
)

// ErrRevoked is returned when opening a locator that was revoked or never minted.
var ErrRevoked = errors.New("locator revoked")

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// Locator is an opaque handle for one image, in the style of a blob URL.
type Locator string

const locatorScheme = "blob:"

// Item is one discovered image plus its locator. Items are shared by pointer between the
// source set and any session queue built from it.
type Item struct {
	Name    string
	Locator Locator
	File    scan.RawFile
}

// Registry is the only place that creates or revokes locators.
type Registry struct {
	mu      sync.Mutex
	store   Store
	openers map[Locator]scan.RawFile
	logger  LoggerFunc
	now     func() time.Time
}

// NewRegistry creates a Registry on top of store. A nil store means a MemoryStore.
func NewRegistry(store Store, logger LoggerFunc) *Registry {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Registry{
		store:   store,
		openers: make(map[Locator]scan.RawFile),
		logger:  logger,
		now:     time.Now,
	}
}

func (r *Registry) logMessage(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger(fmt.Sprintf(format, args...))
	} else {
		log.Printf(format, args...)
	}
}

// Acquire mints one locator per file and returns the items in the same order.
func (r *Registry) Acquire(files []scan.RawFile) ([]*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]*Item, 0, len(files))
	for _, f := range files {
		loc := Locator(locatorScheme + uuid.NewString())
		rec := Record{Name: f.Name, Path: f.Path, MintedAt: r.now()}
		if err := r.store.Put(loc, rec); err != nil {
			// undo this batch so a failed acquire leaks nothing
			for _, it := range items {
				r.revokeLocked(it.Locator)
			}
			return nil, fmt.Errorf("minting locator for %s: %w", f.Name, err)
		}
		r.openers[loc] = f
		items = append(items, &Item{Name: f.Name, Locator: loc, File: f})
	}
	return items, nil
}

// ReleaseAll revokes every locator in items. Revoking twice is harmless.
func (r *Registry) ReleaseAll(items []*Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range items {
		if it != nil {
			r.revokeLocked(it.Locator)
		}
	}
}

func (r *Registry) revokeLocked(loc Locator) {
	delete(r.openers, loc)
	if err := r.store.Delete(loc); err != nil {
		r.logMessage("Failed to revoke %s: %v", loc, err)
	}
}

// Open returns the contents behind a live locator.
func (r *Registry) Open(loc Locator) (io.ReadCloser, error) {
	r.mu.Lock()
	f, ok := r.openers[loc]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRevoked, loc)
	}
	rec, live, err := r.store.Get(loc)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", loc, err)
	}
	if !live {
		return nil, fmt.Errorf("%w: %s", ErrRevoked, loc)
	}
	if rec.Path != f.Path {
		return nil, fmt.Errorf("locator %s is recorded for %s, not %s", loc, rec.Path, f.Path)
	}
	return f.Open()
}

// Live reports how many locators are currently minted.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, err := r.store.Count()
	if err != nil {
		r.logMessage("Failed to count live locators: %v", err)
		return len(r.openers)
	}
	return n
}

// Close revokes everything still live and closes the store.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for loc := range r.openers {
		r.revokeLocked(loc)
	}
	return r.store.Close()
}
