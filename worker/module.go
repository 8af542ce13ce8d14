package worker

import (
	"context"
	"time"

	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/sirupsen/logrus"
)

const DefaultRestartDelay = 3 * time.Second

// RunModuleWithGracefulRestart runs module until it returns without error or
// ctx is done, waiting delay between attempts.
func RunModuleWithGracefulRestart(ctx context.Context, module Module, delay time.Duration) {
	for {
		err := module.RunModule(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}
		Log.WithFields(logrus.Fields{"module": module.Name(), "retry_in": delay}).
			WithError(err).Warn("module exited with error")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

type Module interface {
	// RunModule contains the customized logic of the module. It takes in a
	// context object by which its lifecycle is managed. Return error if
	// encountered any error during execution.
	RunModule(ctx context.Context) error

	// Return name of the Module. Uniquely identifies the module instance.
	Name() string
}

// Stopper is implemented by modules that must release resources on shutdown
// beyond what cancelling their context does.
type Stopper interface {
	Shutdown()
}
