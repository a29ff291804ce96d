package view

import (
	"slices"
	"sync"
)

// Region is the output of a display component. Fragments are HTML.
type Region interface {
	// Clear removes everything rendered so far
	Clear()
	// Append adds a fragment after the existing ones
	Append(fragment string)
	// Fail adds a fragment describing a failed fetch
	Fail(fragment string)
}

// Buffer is an in-memory Region
type Buffer struct {
	mu        sync.Mutex
	fragments []string
	failed    bool
}

var _ Region = (*Buffer)(nil)

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fragments = nil
	b.failed = false
}

func (b *Buffer) Append(fragment string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fragments = append(b.fragments, fragment)
}

func (b *Buffer) Fail(fragment string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fragments = append(b.fragments, fragment)
	b.failed = true
}

// Fragments returns a copy of the rendered fragments in order
func (b *Buffer) Fragments() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.fragments)
}

// Failed reports whether an error fragment was rendered since the last Clear
func (b *Buffer) Failed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failed
}
