//go:build !tinygo

// Package irq provides the lock that guards state shared between interrupt
// handlers and ordinary code. On TinyGo it masks interrupts for the length of
// the critical section; on hosts, where edge callbacks run on goroutines, it
// is a plain mutex.
package irq

import "sync"

// Lock must not be copied after first use. Critical sections must be short
// and must not block or allocate.
type Lock struct {
	mu sync.Mutex
}

func (l *Lock) Lock() {
	l.mu.Lock()
}

func (l *Lock) Unlock() {
	l.mu.Unlock()
}
