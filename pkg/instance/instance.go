// Package instance implements the Process Instance (spec §4.5): one
// execution of a ProcessDefinition, owning the live node pool, the
// variables map, the lifecycle status, and the persistence identity.
// ProcessInstance implements node.InstanceContext so that pkg/node's
// token-propagation routine can drive it without importing this package.
package instance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yesoreyeram/stepflow/pkg/definition"
	"github.com/yesoreyeram/stepflow/pkg/logging"
	"github.com/yesoreyeram/stepflow/pkg/node"
	"github.com/yesoreyeram/stepflow/pkg/observer"
	"github.com/yesoreyeram/stepflow/pkg/registry"
	"github.com/yesoreyeram/stepflow/pkg/state"
	"github.com/yesoreyeram/stepflow/pkg/storage"
	"github.com/yesoreyeram/stepflow/pkg/telemetry"
	"github.com/yesoreyeram/stepflow/pkg/types"
)

// ProcessInstance is one execution of a ProcessDefinition.
type ProcessInstance struct {
	mu sync.RWMutex

	id            int
	persistenceID string
	definition    *definition.ProcessDefinition
	status        types.Status
	lastErr       error
	metadata      map[string]string
	createdAt     time.Time

	vars     *state.Manager
	nodePool map[types.TaskID]*node.Node

	registry   *registry.TaskTypeRegistry
	collection storage.Collection
	observers  *observer.Manager
	logger     *logging.Logger
	telemetry  *telemetry.Provider

	taskStartedAt map[types.TaskID]time.Time
	instanceStart time.Time
}

// Deps bundles a ProcessInstance's collaborators. Telemetry may be nil, in
// which case instance-level metrics are skipped.
type Deps struct {
	Registry   *registry.TaskTypeRegistry
	Collection storage.Collection
	Observers  *observer.Manager
	Logger     *logging.Logger
	Telemetry  *telemetry.Provider
}

// New constructs a NEW-status instance of def, identified by id within the
// owning engine's live pool.
func New(id int, def *definition.ProcessDefinition, deps Deps) (*ProcessInstance, error) {
	if def == nil {
		return nil, ErrDefinitionNil
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	observers := deps.Observers
	if observers == nil {
		observers = observer.NewManager()
	}

	return &ProcessInstance{
		id:            id,
		definition:    def,
		status:        types.StatusNew,
		vars:          state.New(),
		nodePool:      make(map[types.TaskID]*node.Node),
		registry:      deps.Registry,
		collection:    deps.Collection,
		observers:     observers,
		logger:        logger.WithDefinitionID(def.ID).WithInstanceID(id),
		telemetry:     deps.Telemetry,
		taskStartedAt: make(map[types.TaskID]time.Time),
		createdAt:     time.Now(),
	}, nil
}

// ID returns the instance's engine-scoped id.
func (pi *ProcessInstance) ID() int { return pi.id }

// PersistenceID returns the store-assigned id, or "" if never saved.
func (pi *ProcessInstance) PersistenceID() string {
	pi.mu.RLock()
	defer pi.mu.RUnlock()
	return pi.persistenceID
}

// Status returns the instance's current lifecycle status.
func (pi *ProcessInstance) Status() types.Status {
	pi.mu.RLock()
	defer pi.mu.RUnlock()
	return pi.status
}

// DefinitionID returns the id of the definition this instance executes.
func (pi *ProcessInstance) DefinitionID() string { return pi.definition.ID }

// Error returns the error that transitioned the instance to FAILED, or nil.
func (pi *ProcessInstance) Error() error {
	pi.mu.RLock()
	defer pi.mu.RUnlock()
	return pi.lastErr
}

// SetMetadata replaces the instance's free-form operator tags.
func (pi *ProcessInstance) SetMetadata(metadata map[string]string) {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	pi.metadata = metadata
}

// Start transitions the instance NEW->RUNNING, seeds its variables, and
// executes task 0 (spec §4.5). Preconditions: status == NEW.
func (pi *ProcessInstance) Start(variables map[string]interface{}) error {
	pi.mu.Lock()
	if pi.status != types.StatusNew {
		pi.mu.Unlock()
		return ErrNotNew
	}
	pi.status = types.StatusRunning
	pi.instanceStart = time.Now()
	pi.mu.Unlock()

	if variables != nil {
		pi.vars.Replace(variables)
	} else {
		pi.vars.Replace(pi.definition.DefaultVariables)
	}

	if err := pi.Persist(); err != nil {
		return err
	}

	startTask, ok := pi.definition.Task(types.TaskID(0))
	if !ok {
		return ErrTaskNotFound
	}

	n, err := pi.GetOrCreateNode(startTask.ID)
	if err != nil {
		return err
	}

	if pi.telemetry != nil {
		pi.telemetry.RecordInstanceStart(context.Background(), pi.definition.ID)
	}
	pi.observers.Notify(context.Background(), observer.Event{
		Type: observer.EventInstanceStart, Status: observer.StatusStarted,
		Timestamp: time.Now(), InstanceID: pi.id, DefinitionID: pi.definition.ID,
	})

	n.Execute()
	return nil
}

// GetNode returns the live node for taskName, for external callers that
// want to locate a waiting node without knowing its task id.
func (pi *ProcessInstance) GetNode(taskName string) (*node.Node, bool) {
	pi.mu.RLock()
	defer pi.mu.RUnlock()
	for _, n := range pi.nodePool {
		if n.Task().Name == taskName {
			return n, true
		}
	}
	return nil, false
}

// GetNodeByTaskID returns the live node for taskID.
func (pi *ProcessInstance) GetNodeByTaskID(taskID types.TaskID) (*node.Node, bool) {
	pi.mu.RLock()
	defer pi.mu.RUnlock()
	n, ok := pi.nodePool[taskID]
	return n, ok
}

// CompleteTask drives nodePool[taskID]'s Complete continuation directly,
// as Engine.completeTask does (spec §4.6). Returns ErrNodeNotFound if
// taskID has no live node (already completed, never reached, or unknown).
func (pi *ProcessInstance) CompleteTask(taskID types.TaskID, variables map[string]interface{}) error {
	n, ok := pi.GetNodeByTaskID(taskID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, taskID)
	}
	if pi.telemetry != nil {
		pi.telemetry.RecordTaskResumed(context.Background(), n.Task().Type)
	}
	n.Complete(nil, variables)
	return nil
}

// ChangeStatus mutates status (and optionally the error), then persists.
func (pi *ProcessInstance) ChangeStatus(status types.Status, err error) error {
	pi.mu.Lock()
	pi.status = status
	if err != nil {
		pi.lastErr = err
	}
	pi.mu.Unlock()
	return pi.Persist()
}

// ============================================================================
// node.InstanceContext
// ============================================================================

func (pi *ProcessInstance) Task(id types.TaskID) (types.Task, bool) {
	return pi.definition.Task(id)
}

func (pi *ProcessInstance) Flow(id types.FlowID) (types.Flow, bool) {
	return pi.definition.Flow(id)
}

func (pi *ProcessInstance) Variables() map[string]interface{} {
	return pi.vars.Snapshot()
}

func (pi *ProcessInstance) ReplaceVariables(vars map[string]interface{}) {
	pi.vars.Replace(vars)
}

func (pi *ProcessInstance) EmitBefore(task types.Task) {
	pi.mu.Lock()
	pi.taskStartedAt[task.ID] = time.Now()
	pi.mu.Unlock()

	pi.logger.WithTaskID(task.ID).WithTaskType(task.Type).Debug("task started")
	pi.observers.Notify(context.Background(), observer.Event{
		Type: observer.EventTaskStart, Status: observer.StatusStarted,
		Timestamp: time.Now(), InstanceID: pi.id, DefinitionID: pi.definition.ID,
		TaskID: task.ID, TaskName: task.Name, TaskType: task.Type,
	})
}

func (pi *ProcessInstance) EmitAfter(task types.Task) {
	pi.mu.Lock()
	started, ok := pi.taskStartedAt[task.ID]
	delete(pi.taskStartedAt, task.ID)
	pi.mu.Unlock()

	var elapsed time.Duration
	if ok {
		elapsed = time.Since(started)
	}

	pi.logger.WithTaskID(task.ID).WithTaskType(task.Type).Debug("task completed")
	pi.observers.Notify(context.Background(), observer.Event{
		Type: observer.EventTaskSuccess, Status: observer.StatusSuccess,
		Timestamp: time.Now(), InstanceID: pi.id, DefinitionID: pi.definition.ID,
		TaskID: task.ID, TaskName: task.Name, TaskType: task.Type, ElapsedTime: elapsed,
	})
	if pi.telemetry != nil {
		pi.telemetry.RecordTaskExecution(context.Background(), task.ID, task.Type, elapsed, true)
	}
}

func (pi *ProcessInstance) EmitEnd() {
	status := pi.Status()
	errVal := pi.Error()

	var elapsed time.Duration
	pi.mu.RLock()
	if !pi.instanceStart.IsZero() {
		elapsed = time.Since(pi.instanceStart)
	}
	pi.mu.RUnlock()

	execStatus := observer.StatusCompleted
	if status == types.StatusFailed {
		execStatus = observer.StatusFailure
	}

	pi.logger.Info("instance ended")
	pi.observers.Notify(context.Background(), observer.Event{
		Type: observer.EventInstanceEnd, Status: execStatus,
		Timestamp: time.Now(), InstanceID: pi.id, DefinitionID: pi.definition.ID,
		Error: errVal,
	})
	if pi.telemetry != nil {
		pi.telemetry.RecordInstanceEnd(context.Background(), pi.definition.ID, elapsed, status)
	}
}

func (pi *ProcessInstance) Fail(err error) {
	pi.mu.Lock()
	pi.status = types.StatusFailed
	pi.lastErr = err
	pi.mu.Unlock()

	pi.logger.WithError(err).Error("instance failed")
	if saveErr := pi.Persist(); saveErr != nil {
		pi.logger.WithError(saveErr).Error("failed to persist FAILED instance")
	}
}

func (pi *ProcessInstance) Suspend(taskType types.TaskType) error {
	pi.mu.Lock()
	pi.status = types.StatusWaiting
	pi.mu.Unlock()

	if pi.telemetry != nil {
		pi.telemetry.RecordTaskSuspended(context.Background(), taskType)
	}
	return pi.Persist()
}

func (pi *ProcessInstance) Complete() {
	pi.mu.Lock()
	pi.status = types.StatusCompleted
	pi.mu.Unlock()

	if err := pi.Persist(); err != nil {
		pi.logger.WithError(err).Error("failed to persist COMPLETED instance")
	}
}

func (pi *ProcessInstance) IsWaiting() bool {
	return pi.Status() == types.StatusWaiting
}

func (pi *ProcessInstance) GetOrCreateNode(taskID types.TaskID) (*node.Node, error) {
	pi.mu.Lock()
	defer pi.mu.Unlock()

	if n, ok := pi.nodePool[taskID]; ok {
		return n, nil
	}

	task, ok := pi.definition.Task(taskID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, taskID)
	}

	var n *node.Node
	if pi.registry != nil {
		n = pi.registry.CreateNode(task, pi)
	} else {
		n = node.New(task, pi, node.BaseBehavior{})
	}
	pi.nodePool[taskID] = n
	return n, nil
}

func (pi *ProcessInstance) RemoveNode(taskID types.TaskID) {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	delete(pi.nodePool, taskID)
}

func (pi *ProcessInstance) Logger() node.Logger {
	return pi.logger
}

// Persist writes the instance's current state through the storage
// collection.
func (pi *ProcessInstance) Persist() error {
	return pi.Save()
}

// ============================================================================
// Serialization and persistence
// ============================================================================

// Serialize returns the persistable representation of the instance.
func (pi *ProcessInstance) Serialize() types.InstanceDocument {
	pi.mu.RLock()
	defer pi.mu.RUnlock()

	var errStr string
	if pi.lastErr != nil {
		errStr = pi.lastErr.Error()
	}

	nodes := make([]types.NodeEntity, 0, len(pi.nodePool))
	for _, n := range pi.nodePool {
		entity := n.Serialize()
		entity.ProcessInstanceID = pi.id
		nodes = append(nodes, entity)
	}

	return types.InstanceDocument{
		PersistenceID: pi.persistenceID,
		ID:            pi.id,
		DefinitionRef: pi.definition.ID,
		Status:        pi.status,
		Variables:     pi.vars.Snapshot(),
		Error:         errStr,
		NodePool:      nodes,
		Metadata:      pi.metadata,
		CreatedAt:     pi.createdAt,
		UpdatedAt:     time.Now(),
	}
}

// Save writes the instance through the storage collection: an Insert if
// it has never been saved, an Update by persistenceID otherwise. On
// insert, the store-assigned persistenceId is retained.
func (pi *ProcessInstance) Save() error {
	if pi.collection == nil {
		return nil
	}

	doc := pi.Serialize()
	pi.mu.RLock()
	pid := pi.persistenceID
	pi.mu.RUnlock()

	if pid == "" {
		saved, err := pi.collection.Insert(doc)
		if err != nil {
			return fmt.Errorf("insert instance: %w", err)
		}
		pi.mu.Lock()
		pi.persistenceID = saved.PersistenceID
		pi.mu.Unlock()
		return nil
	}

	if err := pi.collection.Update(storage.Filter{"persistenceId": pid}, doc, storage.UpdateOptions{}); err != nil {
		return fmt.Errorf("update instance: %w", err)
	}
	return nil
}

// Deserialize reconstructs a ProcessInstance from a persisted document:
// restores scalar fields, then rebuilds each node via the registry using
// node.Deserialize, which restores counters but does not execute the node
// (spec §4.5).
func Deserialize(doc types.InstanceDocument, def *definition.ProcessDefinition, deps Deps) (*ProcessInstance, error) {
	pi, err := New(doc.ID, def, deps)
	if err != nil {
		return nil, err
	}

	pi.persistenceID = doc.PersistenceID
	pi.status = doc.Status
	pi.createdAt = doc.CreatedAt
	pi.metadata = doc.Metadata
	if doc.Error != "" {
		pi.lastErr = fmt.Errorf("%s", doc.Error)
	}
	pi.vars.Replace(doc.Variables)

	for _, entity := range doc.NodePool {
		task, ok := def.Task(entity.TaskID)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrDeserializeTask, entity.TaskID)
		}

		var n *node.Node
		if pi.registry != nil {
			n = pi.registry.CreateNode(task, pi)
		} else {
			n = node.New(task, pi, node.BaseBehavior{})
		}
		n.Deserialize(entity)
		pi.nodePool[entity.TaskID] = n
	}

	return pi, nil
}
