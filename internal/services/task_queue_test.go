package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Dljdd/AgentHack25/internal/config"
)

func TestSyncQueue_InvokesProcessor(t *testing.T) {
	q := NewSyncQueue()

	done := make(chan uint, 1)
	q.SetProcessor(func(ctx context.Context, task *RunTask) error {
		done <- task.RunID
		return nil
	})

	if err := q.Enqueue(&RunTask{RunID: 42}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	select {
	case got := <-done:
		if got != 42 {
			t.Errorf("processor received run_id %d, expected 42", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("processor was never invoked")
	}
}

func TestSyncQueue_NoProcessorDropsTask(t *testing.T) {
	q := NewSyncQueue()
	if err := q.Enqueue(&RunTask{RunID: 1}); err != nil {
		t.Fatalf("Enqueue without processor should not error, got %v", err)
	}
	if q.IsAsync() {
		t.Error("sync queue reported async")
	}
	if err := q.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestRunTaskPayloadRoundTrip(t *testing.T) {
	payload, err := json.Marshal(&RunTask{RunID: 7})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var task RunTask
	if err := json.Unmarshal(payload, &task); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if task.RunID != 7 {
		t.Errorf("run_id = %d, expected 7", task.RunID)
	}
}

func TestNewTaskQueue_RedisDisabledFallsBackToSync(t *testing.T) {
	q := NewTaskQueue(&config.RedisConfig{Enabled: false})
	defer q.Close()

	if q.IsAsync() {
		t.Error("queue should be synchronous when Redis is disabled")
	}
	if _, ok := q.(*SyncQueue); !ok {
		t.Errorf("expected *SyncQueue, got %T", q)
	}
}
