package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dncore/swi/pkg/client"
)

var (
	baseURL  string
	username string
	password string
)

var rootCmd = &cobra.Command{
	Use:   "swictl",
	Short: "swictl - manage a swi Minecraft server fleet from the command line",
	Long: `swictl is a command-line client for the swi daemon's control plane.

It logs in with a username and password, then lets you create, list, and
control servers, manage their files, and trigger backups.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", getEnvOrDefault("SWICTL_URL", "http://localhost:8443"), "swi daemon base URL")
	rootCmd.PersistentFlags().StringVar(&username, "user", os.Getenv("SWICTL_USER"), "swi username")
	rootCmd.PersistentFlags().StringVar(&password, "password", os.Getenv("SWICTL_PASSWORD"), "swi password")
}

func getEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// loggedInClient builds a client for baseURL and logs in with the
// configured username/password. Every command needs its own session since
// swictl doesn't persist cookies across invocations.
func loggedInClient(ctx context.Context) (*client.Client, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("credentials required: set --user/--password or SWICTL_USER/SWICTL_PASSWORD")
	}
	c := client.NewClient(baseURL)
	loginCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.Login(loginCtx, username, password); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return c, nil
}
