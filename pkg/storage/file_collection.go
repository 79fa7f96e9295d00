package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/yesoreyeram/stepflow/pkg/types"
)

// FileCollection implements Collection as an append-only JSON-lines file.
// Insert and Update both append a new record; the current state of a
// document is whichever record for its PersistenceID appears last in the
// file. This gives restart-survivable persistence for the single-process
// cmd/stepflowd demo without pulling in a real document-database driver.
type FileCollection struct {
	mu   sync.Mutex
	path string
}

// NewFileCollection opens (creating if necessary) a JSON-lines file at path.
func NewFileCollection(path string) (*FileCollection, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open collection file: %w", err)
	}
	f.Close()
	return &FileCollection{path: path}, nil
}

func (c *FileCollection) Insert(doc types.InstanceDocument) (types.InstanceDocument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc.PersistenceID = uuid.New().String()
	if err := c.append(doc); err != nil {
		return types.InstanceDocument{}, err
	}
	return doc, nil
}

func (c *FileCollection) Update(filter Filter, doc types.InstanceDocument, opts UpdateOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.readAll()
	if err != nil {
		return err
	}

	for _, existing := range all {
		if matches(existing, filter) {
			doc.PersistenceID = existing.PersistenceID
			return c.append(doc)
		}
	}

	if opts.Upsert {
		doc.PersistenceID = uuid.New().String()
		return c.append(doc)
	}
	return ErrDocumentNotFound
}

func (c *FileCollection) FindOne(filter Filter) (*types.InstanceDocument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.readAll()
	if err != nil {
		return nil, err
	}
	for _, doc := range all {
		if matches(doc, filter) {
			found := doc
			return &found, nil
		}
	}
	return nil, nil
}

func (c *FileCollection) Find(filter Filter) ([]types.InstanceDocument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.readAll()
	if err != nil {
		return nil, err
	}
	result := make([]types.InstanceDocument, 0)
	for _, doc := range all {
		if matches(doc, filter) {
			result = append(result, doc)
		}
	}
	return result, nil
}

// append writes one JSON-encoded record as a new line.
func (c *FileCollection) append(doc types.InstanceDocument) error {
	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open collection file: %w", err)
	}
	defer f.Close()

	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if _, err := f.Write(append(encoded, '\n')); err != nil {
		return fmt.Errorf("append document: %w", err)
	}
	return nil
}

// readAll replays the log, keeping only the last record per PersistenceID.
func (c *FileCollection) readAll() ([]types.InstanceDocument, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open collection file: %w", err)
	}
	defer f.Close()

	latest := make(map[string]types.InstanceDocument)
	order := make([]string, 0)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var doc types.InstanceDocument
		if err := json.Unmarshal(line, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
		if _, seen := latest[doc.PersistenceID]; !seen {
			order = append(order, doc.PersistenceID)
		}
		latest[doc.PersistenceID] = doc
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read collection file: %w", err)
	}

	result := make([]types.InstanceDocument, 0, len(order))
	for _, pid := range order {
		result = append(result, latest[pid])
	}
	return result, nil
}
