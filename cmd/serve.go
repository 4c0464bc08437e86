package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsboard/opsboard/gateway"
	"github.com/opsboard/opsboard/internal/server"
)

var servePort int

// serveCmd exposes the local sqlite store over HTTP so other clients
// can point their http backend at it.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the task store over HTTP",
	Long: `Serve the sqlite task store over HTTP with a websocket realtime feed.
Clients configured with the http backend connect to this server and see
each other's changes live.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	config := GetConfig()
	if config.Gateway.Backend != "sqlite" {
		return fmt.Errorf("serve requires the sqlite backend, got %q", config.Gateway.Backend)
	}

	store, err := gateway.NewSQLiteGateway(config.Gateway.Path)
	if err != nil {
		return fmt.Errorf("open sqlite store at %s: %w", config.Gateway.Path, err)
	}
	defer func() { _ = store.Close() }()

	port := servePort
	if port == 0 {
		port = config.Server.Port
	}

	srv := server.New(port, store, config.Gateway.APIKey)

	var wg sync.WaitGroup
	errChan := make(chan error, 1)
	srv.Start(&wg, errChan)
	fmt.Printf("Serving task store on :%d (store: %s)\n", port, config.Gateway.Path)

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-sigCtx.Done():
	}

	fmt.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	wg.Wait()
	return nil
}
