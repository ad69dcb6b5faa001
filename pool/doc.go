// Package pool
// Author: momentics <momentics@gmail.com>
//
// Memory layer for wscore. Implements size-classed, channel-backed byte
// buffer pooling shared across connections for transient allocation reuse.
// Connection and extension state is never pooled here; only raw byte
// buffers cross connection boundaries.
package pool
