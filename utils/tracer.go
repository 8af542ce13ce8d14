package utils

import (
	"os"

	"github.com/Luismorlan/factfeed/utils/dotenv"
	. "github.com/Luismorlan/factfeed/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// TracingEnabled is true when a Datadog agent is reachable through env.
func TracingEnabled() bool {
	return os.Getenv("DD_AGENT_HOST") != ""
}

func ddEnv() string {
	if dotenv.IsProdEnv() {
		return "production"
	}
	return "development"
}

// StartTracer starts the Datadog tracer for service. It is a no-op when no
// agent is configured.
func StartTracer(service string) {
	if !TracingEnabled() {
		return
	}

	tracer.Start(
		tracer.WithService(service),
		tracer.WithEnv(ddEnv()),
	)

	Log.WithField("dd_env", ddEnv()).Info("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	tracer.Stop()
}
