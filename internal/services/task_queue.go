package services

import (
	"context"
	"encoding/json"

	"github.com/Dljdd/AgentHack25/internal/config"
	"github.com/Dljdd/AgentHack25/pkg/logger"
	"github.com/hibiken/asynq"
)

const (
	TaskTypeRunExecute = "run:execute"
)

// RunTask is the payload scheduling one agent-run execution. It carries
// only the run's primitive id; the processor loads everything else on
// its own DB session.
type RunTask struct {
	RunID uint `json:"run_id"`
}

// TaskQueue defines the interface for run execution scheduling.
type TaskQueue interface {
	// Enqueue schedules a run execution.
	Enqueue(task *RunTask) error
	// IsAsync returns true if the queue processes tasks via Redis.
	IsAsync() bool
	// Close gracefully shuts down the queue.
	Close() error
}

// NewTaskQueue returns the Redis-backed queue when Redis is enabled and
// reachable, falling back to in-process execution otherwise.
func NewTaskQueue(cfg *config.RedisConfig) TaskQueue {
	if cfg.Enabled {
		queue, err := NewAsyncQueue(cfg)
		if err != nil {
			logger.Infof("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
			return NewSyncQueue()
		}
		logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Addr)
		return queue
	}
	logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
	return NewSyncQueue()
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Test connection by pinging Redis
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	_, err := inspector.Queues()
	if err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue adds a run execution task to the async queue
func (q *AsyncQueue) Enqueue(task *RunTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeRunExecute, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(1),
	)
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Run task enqueued: id=%s, run_id=%d", info.ID, task.RunID)
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue without Redis: each task runs on its
// own goroutine so the triggering request is never blocked.
type SyncQueue struct {
	processor func(context.Context, *RunTask) error
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function that executes run tasks.
func (q *SyncQueue) SetProcessor(processor func(context.Context, *RunTask) error) {
	q.processor = processor
}

// Enqueue schedules the task on a fresh goroutine.
func (q *SyncQueue) Enqueue(task *RunTask) error {
	if q.processor == nil {
		logger.Infof("[SyncQueue] Warning: no processor set, run %d dropped", task.RunID)
		return nil
	}

	go func() {
		ctx := context.Background()
		if err := q.processor(ctx, task); err != nil {
			logger.Infof("[SyncQueue] Run task failed: %v", err)
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

func (q *SyncQueue) Close() error {
	return nil
}
