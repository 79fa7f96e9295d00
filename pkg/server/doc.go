// Package server exposes a stepflow Engine over HTTP.
//
// # Usage
//
//	srv, err := server.New(server.DefaultConfig(), eng, logger)
//	err = srv.Start()
//	err = srv.Shutdown(ctx)
package server
