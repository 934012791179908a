// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

// Package testinfra starts throwaway containers for integration tests.
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./...
//
// Unit tests use miniredis instead; these tests exist to check the token
// bucket script and set commands against a real Redis server.
package testinfra
