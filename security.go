// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import "strings"

// SecurityMechanism identifies the ZMTP security mechanism negotiated
// in the greeting. Only NULL is implemented; PLAIN and CURVE are
// recognised for error reporting only.
type SecurityMechanism string

const (
	NullSecurity  SecurityMechanism = "NULL"
	PlainSecurity SecurityMechanism = "PLAIN"
	CurveSecurity SecurityMechanism = "CURVE"
)

// parseMechanism interprets the 20-byte, zero-padded mechanism field of
// a greeting. An empty (all-zero) field is treated as NULL, matching
// peers that omit the field. Matching is ASCII case-insensitive.
func parseMechanism(raw string) SecurityMechanism {
	raw = strings.TrimRight(raw, "\x00")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NullSecurity
	}
	switch strings.ToUpper(raw) {
	case string(NullSecurity):
		return NullSecurity
	case string(PlainSecurity):
		return PlainSecurity
	case string(CurveSecurity):
		return CurveSecurity
	default:
		return SecurityMechanism(strings.ToUpper(raw))
	}
}
