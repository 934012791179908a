// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package admission

import (
	"net"
	"net/http"
	"strings"
)

// ClientAddress resolves the client address of r: X-Forwarded-For, then
// X-Real-IP, then the connection's remote address. Empty and "unknown"
// header values are skipped. When the chosen value lists several
// addresses the first one wins.
func ClientAddress(r *http.Request) string {
	addr := headerAddress(r, "X-Forwarded-For")
	if addr == "" {
		addr = headerAddress(r, "X-Real-IP")
	}
	if addr == "" {
		addr = r.RemoteAddr
		if host, _, err := net.SplitHostPort(addr); err == nil {
			addr = host
		}
	}
	if i := strings.IndexByte(addr, ','); i >= 0 {
		addr = addr[:i]
	}
	return strings.TrimSpace(addr)
}

func headerAddress(r *http.Request, name string) string {
	v := strings.TrimSpace(r.Header.Get(name))
	if v == "" || strings.EqualFold(v, "unknown") {
		return ""
	}
	return v
}
