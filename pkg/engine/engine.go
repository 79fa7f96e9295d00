// Package engine implements the process engine (spec §4.6): the live
// instance pool, the monotonic instance id allocator, and the operations
// that create, resume, and query process instances. It is the single
// entry point external callers (an HTTP API, a CLI, a test) use instead
// of reaching into pkg/instance directly.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/yesoreyeram/stepflow/pkg/config"
	"github.com/yesoreyeram/stepflow/pkg/definition"
	"github.com/yesoreyeram/stepflow/pkg/instance"
	"github.com/yesoreyeram/stepflow/pkg/logging"
	"github.com/yesoreyeram/stepflow/pkg/node"
	"github.com/yesoreyeram/stepflow/pkg/observer"
	"github.com/yesoreyeram/stepflow/pkg/registry"
	"github.com/yesoreyeram/stepflow/pkg/storage"
	"github.com/yesoreyeram/stepflow/pkg/telemetry"
	"github.com/yesoreyeram/stepflow/pkg/types"
)

// Deps bundles the engine's collaborators. Registry and Collection are
// required; the rest fall back to no-op/in-memory defaults.
type Deps struct {
	Registry   *registry.TaskTypeRegistry
	Collection storage.Collection
	Observers  *observer.Manager
	Logger     *logging.Logger
	Telemetry  *telemetry.Provider
	Config     *config.Config
}

// Engine owns the live instance pool and the set of known process
// definitions. Definitions are held purely in memory (spec §1 treats the
// definition builder as a frozen, externally-supplied graph; the engine
// never persists one) and are looked up by id when a persisted instance
// document needs to be rehydrated.
type Engine struct {
	mu          sync.Mutex
	nextID      int
	pool        map[int]*instance.ProcessInstance
	definitions map[string]*definition.ProcessDefinition

	registry   *registry.TaskTypeRegistry
	collection storage.Collection
	observers  *observer.Manager
	logger     *logging.Logger
	telemetry  *telemetry.Provider
	config     *config.Config
}

// New constructs an Engine. A nil Deps.Config falls back to config.Default().
func New(deps Deps) (*Engine, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("engine: Registry is required")
	}
	if deps.Collection == nil {
		return nil, fmt.Errorf("engine: Collection is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	observers := deps.Observers
	if observers == nil {
		observers = observer.NewManager()
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	return &Engine{
		pool:        make(map[int]*instance.ProcessInstance),
		definitions: make(map[string]*definition.ProcessDefinition),
		registry:    deps.Registry,
		collection:  deps.Collection,
		observers:   observers,
		logger:      logger,
		telemetry:   deps.Telemetry,
		config:      cfg,
	}, nil
}

// DefaultRegistry wires the two task types a process cannot do without:
// the implicit start and end tasks (both plain BaseBehavior pass-throughs).
// Callers add service-task, decision, and any custom plugin types on top.
func DefaultRegistry() *registry.TaskTypeRegistry {
	reg := registry.New()
	reg.MustRegister(registry.Registration{
		TaskType:    types.TaskTypeStart,
		Factory:     func(types.Task) node.Behavior { return node.BaseBehavior{} },
		Description: "implicit process entry point",
	})
	reg.MustRegister(registry.Registration{
		TaskType:    types.TaskTypeEnd,
		Factory:     func(types.Task) node.Behavior { return node.BaseBehavior{} },
		Description: "implicit process exit point",
	})
	return reg
}

// RegisterDefinition makes def resolvable by id, for CreateProcessInstance
// and for rehydrating persisted instances on LoadProcessInstance.
func (e *Engine) RegisterDefinition(def *definition.ProcessDefinition) error {
	if def == nil {
		return fmt.Errorf("engine: cannot register a nil definition")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.definitions[def.ID] = def
	return nil
}

// Registry returns the engine's task-type registry, e.g. for an HTTP
// layer building definitions through definition.NewBuilder.
func (e *Engine) Registry() *registry.TaskTypeRegistry {
	return e.registry
}

// Definition looks up a previously registered definition by id.
func (e *Engine) Definition(id string) (*definition.ProcessDefinition, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	def, ok := e.definitions[id]
	return def, ok
}

// CreateProcessInstance allocates a new id from the engine's monotonic
// counter, constructs a NEW instance of def, and inserts it into the live
// pool (spec §4.6). It does not start the instance; call instance.Start on
// the result once its caller is ready to seed variables.
func (e *Engine) CreateProcessInstance(def *definition.ProcessDefinition) (*instance.ProcessInstance, error) {
	if def == nil {
		return nil, ErrDefinitionNotFound
	}

	e.mu.Lock()
	if e.config.MaxLiveInstances > 0 && len(e.pool) >= e.config.MaxLiveInstances {
		e.mu.Unlock()
		return nil, ErrPoolFull
	}
	e.nextID++
	id := e.nextID
	if _, ok := e.definitions[def.ID]; !ok {
		e.definitions[def.ID] = def
	}
	e.mu.Unlock()

	inst, err := instance.New(id, def, instance.Deps{
		Registry:   e.registry,
		Collection: e.collection,
		Observers:  e.observers,
		Logger:     e.logger,
		Telemetry:  e.telemetry,
	})
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.pool[id] = inst
	e.mu.Unlock()

	e.logger.WithDefinitionID(def.ID).WithInstanceID(id).Info("process instance created")
	return inst, nil
}

// CompleteTask resolves processID's live node for taskID and drives its
// completion continuation (spec §4.6). If the instance isn't in the live
// pool it is first loaded from persistence. Returns ErrInstanceNotFound if
// neither the pool nor the store has it.
func (e *Engine) CompleteTask(processID int, taskID types.TaskID, variables map[string]interface{}) error {
	inst, err := e.LoadProcessInstance(processID)
	if err != nil {
		return err
	}
	if inst == nil {
		return fmt.Errorf("%w: %d", ErrInstanceNotFound, processID)
	}
	return inst.CompleteTask(taskID, variables)
}

// LoadProcessInstance returns processID's instance from the live pool if
// present; otherwise it queries the store by id, deserializes on a hit,
// inserts the result into the pool, and returns it. A miss in both
// returns (nil, nil), matching the store's own findOne contract.
func (e *Engine) LoadProcessInstance(id int) (*instance.ProcessInstance, error) {
	e.mu.Lock()
	if inst, ok := e.pool[id]; ok {
		e.mu.Unlock()
		return inst, nil
	}
	e.mu.Unlock()

	doc, err := e.collection.FindOne(storage.Filter{"id": id})
	if err != nil {
		return nil, fmt.Errorf("engine: load instance %d: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}

	def, ok := e.Definition(doc.DefinitionRef)
	if !ok {
		return nil, fmt.Errorf("engine: definition %q for instance %d is not registered", doc.DefinitionRef, id)
	}

	inst, err := instance.Deserialize(*doc, def, instance.Deps{
		Registry:   e.registry,
		Collection: e.collection,
		Observers:  e.observers,
		Logger:     e.logger,
		Telemetry:  e.telemetry,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: deserialize instance %d: %w", id, err)
	}

	e.mu.Lock()
	e.pool[id] = inst
	e.mu.Unlock()

	return inst, nil
}

// QueryProcessInstances is a pass-through to the store's find (spec §4.6).
func (e *Engine) QueryProcessInstances(filter storage.Filter) ([]types.InstanceDocument, error) {
	return e.collection.Find(filter)
}

// ClearPool evicts WAITING and COMPLETED instances from the live pool
// (spec §4.6, scenario 6). RUNNING and FAILED instances are retained:
// RUNNING because it's actively executing, FAILED so an operator can
// inspect it in place before it's swept by other means.
func (e *Engine) ClearPool() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	evicted := 0
	for id, inst := range e.pool {
		switch inst.Status() {
		case types.StatusWaiting, types.StatusCompleted:
			delete(e.pool, id)
			evicted++
		}
	}
	return evicted
}

// ListTaskTypes exposes the registry's known task types, e.g. for an
// operator API to display available plugins.
func (e *Engine) ListTaskTypes() map[types.TaskType]string {
	return e.registry.ListTaskTypes()
}

// PoolSize returns the current number of instances held in the live pool.
func (e *Engine) PoolSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pool)
}

// MaxLiveInstances returns the configured live pool ceiling (0 means
// unbounded), for wiring a health.PoolSaturationCheck.
func (e *Engine) MaxLiveInstances() int {
	return e.config.MaxLiveInstances
}

// Stats summarizes the live pool's composition by status, for health
// checks and operator dashboards.
func (e *Engine) Stats() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := map[string]int{
		string(types.StatusNew):       0,
		string(types.StatusRunning):   0,
		string(types.StatusWaiting):   0,
		string(types.StatusCompleted): 0,
		string(types.StatusFailed):    0,
	}
	for _, inst := range e.pool {
		stats[string(inst.Status())]++
	}
	stats["pool_size"] = len(e.pool)
	return stats
}

// Shutdown closes the telemetry provider, if one is configured; it does not
// wait for in-flight observer notifications. The
// storage collection is the caller's to close, since it may outlive one
// engine (e.g. a shared *storage.FileCollection).
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.telemetry != nil {
		if err := e.telemetry.Shutdown(ctx); err != nil {
			return fmt.Errorf("engine: shutdown telemetry: %w", err)
		}
	}
	e.logger.Info("engine shutdown complete")
	return nil
}
