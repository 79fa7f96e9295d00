// Package tasklib provides two example task-type plugins demonstrating
// the async Behavior contract end-to-end: TimerBehavior (self-resolving,
// no external caller needed) and WebhookBehavior (suspends until an
// external system calls back through Engine.CompleteTask). Neither is
// registered by default — callers opt in via registry.Register.
package tasklib
