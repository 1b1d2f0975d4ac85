package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/kozaktomas/attendanced/internal/attendance"
	"github.com/kozaktomas/attendanced/internal/config"
	"github.com/kozaktomas/attendanced/internal/database/postgres"
	"github.com/kozaktomas/attendanced/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance web server",
	Long: `Start the attendance web server and the background jobs.

The server exposes the face check-in/check-out API for the kiosk and the
admin API for employee management, reports and the work-hour policy. The
scheduler closes dangling attendance records nightly and purges expired
admin sessions hourly.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// startScheduler runs the nightly close-out and the hourly session cleanup.
func startScheduler(svc *attendance.Service, sessions *postgres.SessionRepository) *gocron.Scheduler {
	scheduler := gocron.NewScheduler(time.Local)

	scheduler.Every(1).Day().At("00:05").Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := svc.CloseOpenRecords(ctx); err != nil {
			fmt.Printf("Warning: close-out job failed: %v\n", err)
		}
	})

	scheduler.Every(1).Hour().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if n, err := sessions.DeleteExpired(ctx); err != nil {
			fmt.Printf("Warning: session cleanup failed: %v\n", err)
		} else if n > 0 {
			fmt.Printf("Session cleanup removed %d expired session(s)\n", n)
		}
	})

	scheduler.StartAsync()
	return scheduler
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	pool, err := connect(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	stores := buildStores(pool)
	svc := buildService(cfg, stores)

	ctx := context.Background()
	if err := svc.RebuildDuplicateIndex(ctx); err != nil {
		fmt.Printf("Warning: failed to build duplicate-enrollment index: %v\n", err)
	}

	// Catch up on records left open across a downtime before the nightly
	// job gets its next chance.
	if closed, err := svc.CloseOpenRecords(ctx); err != nil {
		fmt.Printf("Warning: startup close-out failed: %v\n", err)
	} else if closed > 0 {
		fmt.Printf("Closed %d dangling attendance record(s) from previous days\n", closed)
	}

	sessionRepo := postgres.NewSessionRepository(pool)
	fmt.Printf("Session persistence enabled (PostgreSQL)\n")

	scheduler := startScheduler(svc, sessionRepo)
	defer scheduler.Stop()

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, svc, stores, sessionRepo)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting attendanced on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
