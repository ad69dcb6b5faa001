// File: protocol/extension_config.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Extension negotiation string parsing. Input syntax, as produced by the
// upgrade handshake:
//
//	name; param1=value1; param2=value2[, name2; ...]
//
// Names and parameter tokens are case-sensitive identifiers. Parameter
// order is preserved and configurations are immutable once parsed.

package protocol

import (
	"fmt"
	"strings"
)

// Param is one name=value pair of an extension configuration. An empty
// Value represents a bare parameter token (e.g. server_no_context_takeover).
type Param struct {
	Key   string
	Value string
}

// ExtensionConfig is one parsed, immutable extension negotiation entry.
type ExtensionConfig struct {
	name   string
	params []Param
}

// NewExtensionConfig builds a config programmatically, preserving the
// given parameter order.
func NewExtensionConfig(name string, params ...Param) ExtensionConfig {
	cp := make([]Param, len(params))
	copy(cp, params)
	return ExtensionConfig{name: name, params: cp}
}

// Name returns the extension's case-sensitive identifier.
func (c ExtensionConfig) Name() string { return c.name }

// Params returns a copy of the ordered parameter list.
func (c ExtensionConfig) Params() []Param {
	cp := make([]Param, len(c.params))
	copy(cp, c.params)
	return cp
}

// Param looks up a parameter value by key.
func (c ExtensionConfig) Param(key string) (string, bool) {
	for _, p := range c.params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// String renders the config back into negotiation syntax.
func (c ExtensionConfig) String() string {
	var sb strings.Builder
	sb.WriteString(c.name)
	for _, p := range c.params {
		sb.WriteString("; ")
		sb.WriteString(p.Key)
		if p.Value != "" {
			sb.WriteByte('=')
			sb.WriteString(p.Value)
		}
	}
	return sb.String()
}

// ParseExtensionConfig parses a single `name; param=value; ...` entry.
func ParseExtensionConfig(s string) (ExtensionConfig, error) {
	parts := strings.Split(s, ";")
	name := strings.TrimSpace(parts[0])
	if name == "" || !validToken(name) {
		return ExtensionConfig{}, fmt.Errorf("%w: %q", ErrBadExtensionSyntax, s)
	}
	cfg := ExtensionConfig{name: name}
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			return ExtensionConfig{}, fmt.Errorf("%w: empty parameter in %q", ErrBadExtensionSyntax, s)
		}
		key, value, hasValue := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if !validToken(key) {
			return ExtensionConfig{}, fmt.Errorf("%w: parameter %q", ErrBadExtensionSyntax, part)
		}
		if hasValue {
			value = strings.Trim(strings.TrimSpace(value), `"`)
			if value == "" {
				return ExtensionConfig{}, fmt.Errorf("%w: parameter %q", ErrBadExtensionSyntax, part)
			}
		}
		cfg.params = append(cfg.params, Param{Key: key, Value: value})
	}
	return cfg, nil
}

// ParseExtensionList parses a comma-separated negotiated extension list in
// declaration order. An empty input yields an empty list.
func ParseExtensionList(s string) ([]ExtensionConfig, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var cfgs []ExtensionConfig
	for _, entry := range strings.Split(s, ",") {
		cfg, err := ParseExtensionConfig(entry)
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

// validToken checks an HTTP token per RFC 7230, which extension names and
// parameter keys must satisfy.
func validToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}
