package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Luismorlan/factfeed/server"
	"github.com/Luismorlan/factfeed/server/middlewares"
	"github.com/Luismorlan/factfeed/utils"
	"github.com/Luismorlan/factfeed/utils/dotenv"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/Luismorlan/factfeed/worker"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST api server",
		RunE: func(cmd *cobra.Command, args []string) error {
			service := serviceName + "-api"
			utils.StartTracer(service)
			utils.StartProfiler(service)
			defer utils.CloseTracer()
			defer utils.CloseProfiler()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			if dotenv.IsProdEnv() {
				gin.SetMode(gin.ReleaseMode)
			}
			router := server.NewRouter(server.Deps{
				Feed:         a.feed,
				Votes:        a.votes,
				Comments:     a.comments,
				FactChecks:   a.factChecks,
				Analytics:    a.analytics,
				JWTSecret:    []byte(cfg.Auth.JWTSecret),
				AllowOrigins: cfg.HTTP.AllowOrigins,
				RateLimiter:  middlewares.NewRateLimiter(a.redis, cfg.RateLimit.Requests, cfg.RateLimit.Window, a.metrics),
				Tracing:      utils.TracingEnabled(),
				ServiceName:  service,
				Health:       a.health,
			})
			if len(cfg.Auth.JWTSecret) == 0 {
				Log.Warn("JWT_SECRET is empty, every authenticated route will answer 401")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine := worker.NewEngine(ctx, a.eventModules()...)
			go engine.Run()
			defer engine.Shutdown()

			srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}
			errCh := make(chan error, 1)
			go func() {
				Log.WithField("addr", cfg.HTTP.Addr).Info("api server starts up")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != http.ErrServerClosed {
					return err
				}
			case <-ctx.Done():
			}

			Log.Info("api server shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
