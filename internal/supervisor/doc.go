// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

/*
Package supervisor runs the long-lived services of the server under a
suture v4 tree.

	root ("interviewer")
	├── data-layer
	│   └── IngestService (one-shot knowledge load)
	├── session-layer
	│   └── SweeperService (idle session eviction)
	└── api-layer
	    └── HTTPServerService

Each layer counts failures on its own, so a crashing sweeper backs off
without taking the HTTP server with it. Supervisor events are logged
through the slog adapter of the logging package:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	tree.AddDataService(services.NewIngestService(job, cfg.Ingestion.Force))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)
*/
package supervisor
