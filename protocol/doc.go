// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Implements the core WebSocket wire protocol logic (RFC 6455) for wscore.
//
// Includes:
//   - Incremental frame decoding that tolerates arbitrary read boundaries
//   - Frame encoding with minimal length-indicator form and masking
//   - Close status parsing and validation
//   - Extension negotiation string parsing (name; param=value)
//
// The package has no knowledge of extensions or sessions beyond the RSV
// bits a negotiated extension may claim.
package protocol
