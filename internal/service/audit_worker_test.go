package service

import (
	"context"
	"testing"
	"time"
)

func TestAuditWorker_ProcessesJobs(t *testing.T) {
	auditor := &mockAuditor{}
	worker := NewAuditWorker(auditor, testLogger(), 16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	for i := 0; i < 5; i++ {
		auditAsync(worker, "property.create", "property", "prop-1", "owner@example.com", nil)
	}

	deadline := time.After(2 * time.Second)
	for auditor.count() < 5 {
		select {
		case <-deadline:
			t.Fatalf("processed %d jobs, want 5", auditor.count())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestAuditWorker_DrainsOnShutdown(t *testing.T) {
	auditor := &mockAuditor{}
	worker := NewAuditWorker(auditor, testLogger(), 16)

	// Enqueue before the worker starts, then cancel immediately; Run must
	// still drain the queued jobs before returning.
	for i := 0; i < 3; i++ {
		worker.Enqueue(&AuditJob{Action: "application.create"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	worker.Run(ctx)

	if auditor.count() != 3 {
		t.Fatalf("drained %d jobs, want 3", auditor.count())
	}
}

func TestAuditWorker_DropsWhenFull(t *testing.T) {
	auditor := &mockAuditor{}
	worker := &AuditWorker{auditor: auditor, log: testLogger(), jobs: make(chan *AuditJob, 1)}

	worker.Enqueue(&AuditJob{Action: "a"})
	worker.Enqueue(&AuditJob{Action: "b"}) // dropped, queue full

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	worker.Run(ctx)

	if auditor.count() != 1 {
		t.Fatalf("processed %d jobs, want 1", auditor.count())
	}
}

func TestAuditAsync_NilWorkerIsNoop(t *testing.T) {
	auditAsync(nil, "property.create", "property", "prop-1", "owner@example.com", nil)
}
