// Package storage implements the engine's persistence collection contract:
// insert/update/findOne/find over process instance documents, plus an
// in-memory and a JSON-lines file-backed implementation.
package storage

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yesoreyeram/stepflow/pkg/types"
)

// Filter selects documents by field. The engine only ever filters by
// "id" (the instance's int ID) or "persistenceId" (the collection-assigned
// identifier), but the contract is intentionally loose to allow a richer
// backend to support more.
type Filter map[string]interface{}

// UpdateOptions configures an Update call.
type UpdateOptions struct {
	// Upsert inserts the document if no existing document matches filter.
	Upsert bool
}

// Collection is the persistence contract the engine consumes. It mirrors
// a document-store driver's surface closely enough that InMemoryCollection
// and FileCollection can stand in for a real MongoDB/Postgres client
// without the engine code knowing the difference.
type Collection interface {
	// Insert assigns a PersistenceID and stores doc, returning the stored copy.
	Insert(doc types.InstanceDocument) (types.InstanceDocument, error)

	// Update updates the document matching filter. If no document matches
	// and opts.Upsert is true, doc is inserted instead.
	Update(filter Filter, doc types.InstanceDocument, opts UpdateOptions) error

	// FindOne returns the first document matching filter, or nil if none match.
	FindOne(filter Filter) (*types.InstanceDocument, error)

	// Find returns all documents matching filter.
	Find(filter Filter) ([]types.InstanceDocument, error)
}

// matches reports whether doc satisfies filter. Supported keys: "id"
// (types.InstanceDocument.ID) and "persistenceId".
func matches(doc types.InstanceDocument, filter Filter) bool {
	for k, v := range filter {
		switch k {
		case "id":
			id, ok := v.(int)
			if !ok || doc.ID != id {
				return false
			}
		case "persistenceId":
			pid, ok := v.(string)
			if !ok || doc.PersistenceID != pid {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// InMemoryCollection implements Collection with a concurrency-safe map.
// It is the default backend, suitable for single-process use and tests.
type InMemoryCollection struct {
	mu   sync.RWMutex
	docs map[string]types.InstanceDocument
}

// NewInMemoryCollection creates an empty in-memory collection.
func NewInMemoryCollection() *InMemoryCollection {
	return &InMemoryCollection{docs: make(map[string]types.InstanceDocument)}
}

func (c *InMemoryCollection) Insert(doc types.InstanceDocument) (types.InstanceDocument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc.PersistenceID = uuid.New().String()
	c.docs[doc.PersistenceID] = doc
	return doc, nil
}

func (c *InMemoryCollection) Update(filter Filter, doc types.InstanceDocument, opts UpdateOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for pid, existing := range c.docs {
		if matches(existing, filter) {
			doc.PersistenceID = pid
			c.docs[pid] = doc
			return nil
		}
	}

	if opts.Upsert {
		doc.PersistenceID = uuid.New().String()
		c.docs[doc.PersistenceID] = doc
		return nil
	}
	return ErrDocumentNotFound
}

func (c *InMemoryCollection) FindOne(filter Filter) (*types.InstanceDocument, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, doc := range c.docs {
		if matches(doc, filter) {
			found := doc
			return &found, nil
		}
	}
	return nil, nil
}

func (c *InMemoryCollection) Find(filter Filter) ([]types.InstanceDocument, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]types.InstanceDocument, 0)
	for _, doc := range c.docs {
		if matches(doc, filter) {
			result = append(result, doc)
		}
	}
	return result, nil
}
