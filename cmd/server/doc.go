// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

/*
Command server runs the interview backend.

Startup order:

 1. Configuration: koanf defaults, optional YAML file, environment
 2. Logging: zerolog, JSON or console
 3. Key-value store: Redis, Badger or in-process memory
 4. DuckDB: resumes and the knowledge chunk table
 5. Resume membership filter, warmed from every stored resume ID
 6. Cache-aside resume store, admission rules, topic tracker
 7. Knowledge ingestion job and session registry
 8. Supervisor tree: ingestion, idle session sweeper, HTTP server

On SIGINT or SIGTERM the tree stops, pending delayed cache deletes are
allowed to finish, and the stores are closed.
*/
package main
