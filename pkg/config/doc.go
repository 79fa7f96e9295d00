// Package config provides configuration management for the stepflow
// process engine.
//
// # Overview
//
// The config package centralizes engine-level limits that spec.md leaves
// unconstrained but which any production engine needs: instance pool
// sizing, persistence and task-completion timeouts, and the webhook task
// plugin's outbound HTTP/network policy.
//
// # Basic Usage
//
//	cfg := config.Default()
//	eng, err := engine.New(engine.Deps{Registry: reg, Collection: coll, Config: cfg})
//
// # Thread Safety
//
// Configuration objects are safe for concurrent read access.
package config
