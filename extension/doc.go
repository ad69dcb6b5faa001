// Package extension
// Author: momentics <momentics@gmail.com>
//
// Ordered, bidirectional chain of frame transforms negotiated per
// connection. Incoming frames traverse the chain in negotiated order and
// end at the message assembler; outgoing frames traverse the same declared
// order and end at the frame encoder, each stage undoing its own incoming
// transform. Composition is fixed once a session is constructed.
//
// Built-in extensions:
//   - identity: parameterized pass-through
//   - fragment: splits outgoing data frames at a negotiated maxLength
//   - permessage-deflate: RFC 7692 compression over RSV1
package extension
