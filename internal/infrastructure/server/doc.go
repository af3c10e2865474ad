// Package server assembles the patch service.
//
// Lifecycle:
//  1. Load configuration from environment and flags
//  2. Build the rewrite policy and the dispatcher
//  3. Connect the suggestion client when an endpoint is configured
//  4. Install middleware and routes
//  5. Serve until a signal, then drain within the shutdown timeout
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg, nil)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
