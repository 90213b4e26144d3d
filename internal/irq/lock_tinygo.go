//go:build tinygo

// Package irq provides the lock that guards state shared between interrupt
// handlers and ordinary code. On TinyGo it masks interrupts for the length of
// the critical section; on hosts, where edge callbacks run on goroutines, it
// is a plain mutex.
package irq

import "runtime/interrupt"

// Lock must not be copied after first use. Critical sections must be short
// and must not block or allocate. Targets are assumed single core.
type Lock struct {
	state interrupt.State
}

func (l *Lock) Lock() {
	state := interrupt.Disable()
	l.state = state
}

func (l *Lock) Unlock() {
	interrupt.Restore(l.state)
}
