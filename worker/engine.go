// Package worker runs the long lived background modules of the process: the
// cron scheduler and the fact-check event consumers.
package worker

import (
	"context"
	"sync"
	"time"

	. "github.com/Luismorlan/factfeed/utils/log"
)

// Engine manages the execution lifecycle of each module. Every module runs in
// its own goroutine and shares the root context of the engine.
type Engine struct {
	Modules []Module

	ctx context.Context

	// Cancel function for root context, used for graceful shutdown
	cancel context.CancelFunc

	// RestartDelay is how long a failed module waits before running again.
	RestartDelay time.Duration
}

func NewEngine(ctx context.Context, ms ...Module) *Engine {
	ctx, cancel := context.WithCancel(ctx)
	return &Engine{
		Modules:      ms,
		ctx:          ctx,
		cancel:       cancel,
		RestartDelay: DefaultRestartDelay,
	}
}

// Run executes all modules and blocks until every one of them returned.
func (e *Engine) Run() {
	var wg sync.WaitGroup

	for idx := range e.Modules {
		wg.Add(1)
		go func(m Module) {
			defer wg.Done()
			Log.Infof("start engine module %s", m.Name())
			RunModuleWithGracefulRestart(e.ctx, m, e.RestartDelay)
			Log.Infof("module %s finished execution", m.Name())
		}(e.Modules[idx])
	}

	wg.Wait()
}

// Shutdown cancels the root context and stops the modules that hold
// resources outside of it.
func (e *Engine) Shutdown() {
	Log.Infoln("starting graceful shutdown of worker engine")
	e.cancel()

	var wg sync.WaitGroup
	for idx := range e.Modules {
		s, ok := e.Modules[idx].(Stopper)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			s.Shutdown()
			Log.Infof("module %s shut down", name)
		}(e.Modules[idx].Name())
	}

	wg.Wait()
}
