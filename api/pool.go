// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract pooling API: reusable byte buffers shared across
// connections for transient allocation reuse.

package api

// BytePool provides reusable []byte buffers for all high-intensity operations.
// Implementations must be safe for concurrent use by multiple connections.
type BytePool interface {
	// Acquire returns a slice of at least n bytes, length n.
	Acquire(n int) []byte

	// Release returns a buffer to the pool.
	Release(buf []byte)
}
