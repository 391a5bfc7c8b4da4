package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"testlab/config"
	"testlab/internal/client"
	"testlab/internal/logger"
	"testlab/internal/query"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	token     string
	timeout   time.Duration
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "testlab",
	Short: "Testing lab lead capture service",
	Long: `testlab runs the booking and contact form backend for the testing lab and
talks to a running instance for administration.

Server side:   serve, migrate, token
Remote side:   requests, contacts, users, watch`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if verbose {
			level = "debug"
		}
		logger.Init(level, "text")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server URL (default: TESTLAB_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("TESTLAB_TOKEN"), "Bearer token (or set TESTLAB_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "Request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(contactsCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

type remote struct {
	http  *client.HTTPClient
	query *query.Client
}

func connect() (remote, error) {
	url := serverURL
	if url == "" {
		cfg, err := config.InitConfig()
		if err != nil {
			return remote{}, fmt.Errorf("failed to load config: %w", err)
		}
		url = cfg.ServerURL
	}

	httpClient := client.New(url, client.WithToken(token), client.WithTimeout(timeout))
	q := query.New()
	q.Connect(httpClient)
	return remote{http: httpClient, query: q}, nil
}
