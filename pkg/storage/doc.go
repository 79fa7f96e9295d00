// Package storage implements process instance persistence.
//
// # Usage
//
//	coll := storage.NewInMemoryCollection()
//
//	doc, err := coll.Insert(types.InstanceDocument{ID: 1, DefinitionRef: "def-1"})
//
//	found, err := coll.FindOne(storage.Filter{"id": 1})
//
//	err = coll.Update(storage.Filter{"persistenceId": doc.PersistenceID}, doc, storage.UpdateOptions{})
//
// # Backends
//
// InMemoryCollection is suitable for development, tests, and any deployment
// that doesn't need instance state to survive a process restart.
// FileCollection appends JSON-encoded records to a local file and replays
// them on read, giving restart-survivable persistence for the single-process
// cmd/stepflowd demo without a real document-database dependency.
package storage
