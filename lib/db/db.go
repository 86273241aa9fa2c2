package db

import (
	"time"
)

// --------------------------------------------------------------------------
// Metadata
// --------------------------------------------------------------------------

// Metadata describes one database instance as read from its header file.
// Values are handed out by copy, a Metadata is never changed after it was read.
type Metadata struct {
	Name      string    `json:"name" yaml:"name"`
	Version   uint8     `json:"version" yaml:"version"`
	Created   time.Time `json:"created" yaml:"created"`
	Modified  time.Time `json:"modified" yaml:"modified"`
	Size      uint64    `json:"size_bytes" yaml:"size_bytes"`
	Resources uint32    `json:"resources" yaml:"resources"`

	// Legacy is set if the on-disk version predates the current format.
	Legacy bool `json:"legacy_format" yaml:"legacy_format"`
	// Corrupt is set if a checksum or structural self-test of the header failed.
	Corrupt bool `json:"corrupt" yaml:"corrupt"`
}

// --------------------------------------------------------------------------
// Engine Interface
// --------------------------------------------------------------------------

// Engine is the storage engine behind a Handle.
// Implementations must be safe for concurrent use, since a single engine is
// shared by all sessions that have the database open.
type Engine interface {
	// Get returns the value stored for key. The boolean reports whether the key was found.
	Get(key []byte) (value []byte, loaded bool, err error)

	// Put inserts or updates the value for key.
	Put(key, value []byte) (err error)

	// Close releases all resources held by the engine.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Handle
// --------------------------------------------------------------------------

// Handle is the live, loaded representation of one database.
type Handle struct {
	meta      Metadata
	resources *Resources
	engine    Engine
}

// NewHandle creates a handle from its parsed metadata, its resource table and
// the engine holding its data. A nil resource table is treated as empty.
func NewHandle(meta Metadata, resources *Resources, engine Engine) *Handle {
	if resources == nil {
		resources = NewResources(nil)
	}
	return &Handle{
		meta:      meta,
		resources: resources,
		engine:    engine,
	}
}

// Name returns the name of the database.
func (h *Handle) Name() string {
	return h.meta.Name
}

// Meta returns a copy of the database metadata.
func (h *Handle) Meta() Metadata {
	return h.meta
}

func (h *Handle) Resources() *Resources {
	return h.resources
}

func (h *Handle) Engine() Engine {
	return h.engine
}

// Close closes the underlying engine. It must only be called by the registry
// once the handle was evicted.
func (h *Handle) Close() error {
	if h.engine == nil {
		return nil
	}
	return h.engine.Close()
}
