// Package api
// Author: momentics <momentics@gmail.com>
//
// Dependency-free interfaces and shared types for the wscore protocol engine.
// Every other package in the module depends on api; api depends on nothing
// but the standard library. Concrete wire types live in protocol, concrete
// behavior in extension, pool, and session.
package api
