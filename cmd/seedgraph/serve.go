package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	seedhttp "github.com/bobinette/seedgraph/http"
	"github.com/bobinette/seedgraph/metrics"
	"github.com/bobinette/seedgraph/services"
)

var (
	serveAddr  string
	serveWatch bool
)

func init() {
	ServeCommand.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides the configuration")
	ServeCommand.Flags().BoolVar(&serveWatch, "watch", false, "reload the graph when the data directory changes")

	RootCmd.AddCommand(&ServeCommand)
}

var ServeCommand = cobra.Command{
	Use:   "serve",
	Short: "Serve the seed graph viewer",
	Long:  "Serve the seed graph viewer, its JSON API and the layout stream",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		driver, index, closeStores := openStores()
		defer closeStores()

		m := metrics.New()
		fuzzers := createFuzzerService(driver, index)
		graphs := createGraphService(driver, fuzzers, m)
		defer graphs.Close()

		if err := graphs.Load(ctx); err != nil {
			logger.Fatalf("could not load seed graph: %v", err)
		}

		srv := seedhttp.NewServer(m)
		seedhttp.RegisterGraphEndpoints(srv, graphs)
		seedhttp.RegisterFuzzerEndpoints(srv, fuzzers)
		seedhttp.RegisterPage(srv, &seedhttp.PageHandler{Graphs: graphs, Fuzzers: fuzzers, Logger: logger.WithField("handler", "page")})
		seedhttp.RegisterLayoutStream(srv, &seedhttp.LayoutStream{Graphs: graphs, Metrics: m, Logger: logger.WithField("handler", "ws")})

		if conf.Data.Dir != "" {
			seedhttp.RegisterDataFiles(srv, conf.Data.Dir)

			if serveWatch {
				go func() {
					if err := graphs.Watch(ctx, conf.Data.Dir, services.DefaultDebounce); err != nil {
						logger.Errorf("watcher stopped: %v", err)
					}
				}()
			}
		} else if serveWatch {
			logger.Print("--watch needs a local data directory, ignored")
		}

		addr := conf.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		server := &http.Server{Addr: addr, Handler: srv}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()

		logger.Printf("server started, listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server stopped: %v", err)
		}
	},
}
