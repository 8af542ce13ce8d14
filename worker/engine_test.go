package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type flakyModule struct {
	failures int32
	runs     int32
}

func (m *flakyModule) RunModule(ctx context.Context) error {
	n := atomic.AddInt32(&m.runs, 1)
	if n <= m.failures {
		return errors.New("boom")
	}
	<-ctx.Done()
	return nil
}

func (m *flakyModule) Name() string { return "flaky" }

type stoppable struct {
	flakyModule
	stopped int32
}

func (s *stoppable) Shutdown() { atomic.StoreInt32(&s.stopped, 1) }

func TestEngineRestartsFailedModules(t *testing.T) {
	m := &flakyModule{failures: 2}
	s := &stoppable{}
	e := NewEngine(context.Background(), m, s)
	e.RestartDelay = 5 * time.Millisecond

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&m.runs) == 3 }, time.Second, 5*time.Millisecond)
	e.Shutdown()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&s.stopped))
	assert.Equal(t, int32(3), atomic.LoadInt32(&m.runs))
}

func TestRestartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &flakyModule{failures: 1000}
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	RunModuleWithGracefulRestart(ctx, m, time.Hour)
	assert.Equal(t, int32(1), atomic.LoadInt32(&m.runs))
}
