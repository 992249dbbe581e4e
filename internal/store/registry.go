package store

import (
	"database/sql"
	"fmt"
	"sync"
)

// Connection targets within a registry key. A key may register a replica
// alongside its primary; reads route to the replica unless IgnoreReplica
// has been called.
const (
	TargetDefault = "default"
	TargetReplica = "replica"
)

// DefaultKey is the registry key used when callers do not name one.
const DefaultKey = "default"

// registry is the process-wide named connection registry. Commands open a
// single connection and register it under DefaultKey; embedding programs
// may register several (e.g. per-site databases) and switch between them.
//
//nolint:gochecknoglobals // a process-wide active-connection registry is the point
var registry = struct {
	mu            sync.RWMutex
	conns         map[string]map[string]*sql.DB // key -> target -> conn
	active        string
	ignoreReplica bool
}{
	conns:  make(map[string]map[string]*sql.DB),
	active: DefaultKey,
}

// AddConnection registers db under (key, target). Registering over an
// existing slot replaces it without closing the old connection; callers
// own connection lifecycles.
func AddConnection(key, target string, db *sql.DB) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if registry.conns[key] == nil {
		registry.conns[key] = make(map[string]*sql.DB)
	}
	registry.conns[key][target] = db
}

// SetActive switches the active registry key and returns the previous one.
// The key does not need to be registered yet.
func SetActive(key string) string {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	prev := registry.active
	registry.active = key
	return prev
}

// ActiveKey returns the current active registry key.
func ActiveKey() string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.active
}

// Active returns the primary connection for the active key.
func Active() (*sql.DB, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return lookupLocked(registry.active, TargetDefault)
}

// Conn returns the connection registered for (key, target). An unknown
// replica target falls back to the key's primary, matching the convention
// that a replica is an optimization, never a requirement.
func Conn(key, target string) (*sql.DB, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	if target == TargetReplica && registry.ignoreReplica {
		target = TargetDefault
	}
	return lookupLocked(key, target)
}

// ReadConn returns the connection reads should use for the active key:
// the replica when one is registered and not suppressed, otherwise the
// primary.
func ReadConn() (*sql.DB, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	if !registry.ignoreReplica {
		if db, err := lookupLocked(registry.active, TargetReplica); err == nil {
			return db, nil
		}
	}
	return lookupLocked(registry.active, TargetDefault)
}

// IgnoreReplica pins all subsequent reads to primaries for the rest of the
// process. Called after a write when read-your-writes consistency matters
// more than replica offload.
func IgnoreReplica() {
	registry.mu.Lock()
	registry.ignoreReplica = true
	registry.mu.Unlock()
}

// CloseDB closes db after forgetting any registry slot pointing at it, so
// the registry never serves a closed connection.
func CloseDB(db *sql.DB) error {
	registry.mu.Lock()
	for key, targets := range registry.conns {
		for target, conn := range targets {
			if conn == db {
				delete(targets, target)
			}
		}
		if len(targets) == 0 {
			delete(registry.conns, key)
		}
	}
	registry.mu.Unlock()
	return db.Close()
}

// CloseAll closes and forgets every registered connection. Intended for
// process shutdown and tests.
func CloseAll() error {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	var firstErr error
	for _, targets := range registry.conns {
		for _, db := range targets {
			if err := db.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	registry.conns = make(map[string]map[string]*sql.DB)
	registry.active = DefaultKey
	registry.ignoreReplica = false
	return firstErr
}

func lookupLocked(key, target string) (*sql.DB, error) {
	targets, ok := registry.conns[key]
	if !ok {
		return nil, fmt.Errorf("no database connection registered for key %q", key)
	}
	db, ok := targets[target]
	if !ok {
		if target == TargetReplica {
			if primary, ok := targets[TargetDefault]; ok {
				return primary, nil
			}
		}
		return nil, fmt.Errorf("no %q target registered for connection key %q", target, key)
	}
	return db, nil
}
