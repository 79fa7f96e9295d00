package storage

import (
	"testing"

	"github.com/yesoreyeram/stepflow/pkg/types"
)

func TestInMemoryCollection_InsertAssignsPersistenceID(t *testing.T) {
	coll := NewInMemoryCollection()

	doc, err := coll.Insert(types.InstanceDocument{ID: 1, DefinitionRef: "def-1", Status: types.StatusNew})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if doc.PersistenceID == "" {
		t.Error("Expected non-empty PersistenceID")
	}
}

func TestInMemoryCollection_FindOne(t *testing.T) {
	coll := NewInMemoryCollection()
	doc, err := coll.Insert(types.InstanceDocument{ID: 42, DefinitionRef: "def-1", Status: types.StatusRunning})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	t.Run("by id", func(t *testing.T) {
		found, err := coll.FindOne(Filter{"id": 42})
		if err != nil {
			t.Fatalf("FindOne() error = %v", err)
		}
		if found == nil || found.ID != 42 {
			t.Errorf("Expected to find document with id 42, got %v", found)
		}
	})

	t.Run("by persistenceId", func(t *testing.T) {
		found, err := coll.FindOne(Filter{"persistenceId": doc.PersistenceID})
		if err != nil {
			t.Fatalf("FindOne() error = %v", err)
		}
		if found == nil || found.PersistenceID != doc.PersistenceID {
			t.Errorf("Expected to find document by persistenceId, got %v", found)
		}
	})

	t.Run("no match returns nil, no error", func(t *testing.T) {
		found, err := coll.FindOne(Filter{"id": 999})
		if err != nil {
			t.Fatalf("FindOne() error = %v", err)
		}
		if found != nil {
			t.Errorf("Expected nil for no match, got %v", found)
		}
	})
}

func TestInMemoryCollection_Update(t *testing.T) {
	coll := NewInMemoryCollection()
	doc, err := coll.Insert(types.InstanceDocument{ID: 1, DefinitionRef: "def-1", Status: types.StatusNew})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	doc.Status = types.StatusRunning
	if err := coll.Update(Filter{"persistenceId": doc.PersistenceID}, doc, UpdateOptions{}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := coll.FindOne(Filter{"id": 1})
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if found.Status != types.StatusRunning {
		t.Errorf("Expected status RUNNING after update, got %s", found.Status)
	}

	t.Run("no match, no upsert", func(t *testing.T) {
		err := coll.Update(Filter{"id": 999}, types.InstanceDocument{ID: 999}, UpdateOptions{})
		if err != ErrDocumentNotFound {
			t.Errorf("Expected ErrDocumentNotFound, got %v", err)
		}
	})

	t.Run("no match, upsert", func(t *testing.T) {
		err := coll.Update(Filter{"id": 999}, types.InstanceDocument{ID: 999}, UpdateOptions{Upsert: true})
		if err != nil {
			t.Fatalf("Update() with upsert error = %v", err)
		}
		found, _ := coll.FindOne(Filter{"id": 999})
		if found == nil {
			t.Error("Expected upserted document to be found")
		}
	})
}

func TestInMemoryCollection_Find(t *testing.T) {
	coll := NewInMemoryCollection()
	for i := 0; i < 3; i++ {
		if _, err := coll.Insert(types.InstanceDocument{ID: i, DefinitionRef: "def-1"}); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	docs, err := coll.Find(Filter{})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(docs) != 3 {
		t.Errorf("Expected 3 documents, got %d", len(docs))
	}
}

func TestInMemoryCollection_Concurrency(t *testing.T) {
	coll := NewInMemoryCollection()

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(n int) {
			if _, err := coll.Insert(types.InstanceDocument{ID: n, DefinitionRef: "def-1"}); err != nil {
				t.Errorf("Insert() error = %v", err)
			}
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	docs, err := coll.Find(Filter{})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(docs) != 10 {
		t.Errorf("Expected 10 documents, got %d", len(docs))
	}
}
