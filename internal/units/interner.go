package units

import (
	"sync"
	"sync/atomic"
)

// BaseUnit is an interned unit name such as "meters". Two BaseUnits are
// the same unit exactly when they are the same pointer.
type BaseUnit struct {
	name  string
	owner uint64
	seq   int
}

// Name returns the name the base unit was interned under
func (b *BaseUnit) Name() string {
	return b.name
}

func (b *BaseUnit) String() string {
	return b.name
}

// compare orders base units by name, then by interner and interning
// sequence. Equal names from different interners are distinct units.
func compare(a, b *BaseUnit) int {
	switch {
	case a == b:
		return 0
	case a.name < b.name:
		return -1
	case a.name > b.name:
		return 1
	case a.owner < b.owner:
		return -1
	case a.owner > b.owner:
		return 1
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	}
	return 0
}

// Interner maps unit names to BaseUnit identities. It is append-only and
// safe for concurrent use.
type Interner struct {
	id    uint64
	mu    sync.RWMutex
	table map[string]*BaseUnit
}

var internerIDs atomic.Uint64

// NewInterner creates an empty interner
func NewInterner() *Interner {
	return &Interner{
		id:    internerIDs.Add(1),
		table: make(map[string]*BaseUnit),
	}
}

// Intern returns the BaseUnit for name, creating it on first use
func (in *Interner) Intern(name string) *BaseUnit {
	in.mu.RLock()
	b, ok := in.table[name]
	in.mu.RUnlock()
	if ok {
		return b
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if b, ok := in.table[name]; ok {
		return b
	}
	b = &BaseUnit{name: name, owner: in.id, seq: len(in.table)}
	in.table[name] = b
	return b
}

// Len returns the number of interned names
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.table)
}

var defaultInterner = NewInterner()

// Intern interns name in the process-wide interner
func Intern(name string) *BaseUnit {
	return defaultInterner.Intern(name)
}

// Default returns the process-wide interner
func Default() *Interner {
	return defaultInterner
}
