package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dncore/swi/pkg/types"
)

var serverCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"srv"},
	Short:   "Manage registered servers",
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all registered servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}

		servers, err := c.ListServers(ctx)
		if err != nil {
			return fmt.Errorf("failed to list servers: %w", err)
		}

		if len(servers) == 0 {
			fmt.Println("No servers registered")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATE\tDIRECTORY")
		for _, s := range servers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Type, s.State, s.Directory)
		}
		w.Flush()
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <server-id>",
	Short: "Get server details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}

		server, err := c.GetServer(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get server: %w", err)
		}

		data, _ := json.MarshalIndent(server, "", "  ")
		fmt.Println(string(data))
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create <server-id>",
	Short: "Register a new server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}

		jarPath, _ := cmd.Flags().GetString("jar")
		directory, _ := cmd.Flags().GetString("directory")
		javaExe, _ := cmd.Flags().GetString("java")

		sc := types.ServerConfig{
			Name: args[0],
			Type: types.ServerTypeUnknown,
			LaunchOption: types.LaunchOption{
				JarFile: jarPath,
			},
		}
		if javaExe != "" {
			sc.LaunchOption.JavaExecutable = &javaExe
		}

		server, err := c.CreateServer(ctx, args[0], directory, sc)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		fmt.Printf("Server %s registered (directory %s)\n", server.ID, server.Directory)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <server-id>",
	Aliases: []string{"rm"},
	Short:   "Unregister a server",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}

		removeFiles, _ := cmd.Flags().GetBool("remove-files")
		if err := c.DeleteServer(ctx, args[0], removeFiles); err != nil {
			return fmt.Errorf("failed to delete server: %w", err)
		}

		fmt.Printf("Server %s unregistered\n", args[0])
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start <server-id>",
	Short: "Start a server's process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}
		if err := c.StartServer(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		fmt.Printf("Server %s starting\n", args[0])
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <server-id>",
	Short: "Gracefully stop a server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}
		if err := c.StopServer(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		fmt.Printf("Server %s stopping\n", args[0])
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart <server-id>",
	Short: "Restart a server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}
		if err := c.RestartServer(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to restart server: %w", err)
		}
		fmt.Printf("Server %s restarting\n", args[0])
		return nil
	},
}

var killCmd = &cobra.Command{
	Use:   "kill <server-id>",
	Short: "Forcibly terminate a server's process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}
		if err := c.KillServer(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to kill server: %w", err)
		}
		fmt.Printf("Server %s killed\n", args[0])
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <server-id> <command...>",
	Short: "Send a command line to a running server's console",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}

		line := joinArgs(args[1:])
		if err := c.SendCommand(ctx, args[0], line); err != nil {
			return fmt.Errorf("failed to send command: %w", err)
		}
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs <server-id>",
	Short: "Print the most recent console lines retained in memory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}

		lines, err := c.ConsoleTail(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to fetch console: %w", err)
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.AddCommand(listCmd, getCmd, createCmd, deleteCmd, startCmd, stopCmd, restartCmd, killCmd, sendCmd, logsCmd)

	deleteCmd.Flags().Bool("remove-files", false, "also delete the server's files on disk")
	createCmd.Flags().String("jar", "", "jar file name to launch (relative to the server directory)")
	createCmd.Flags().String("directory", "", "directory name under the servers root (defaults to the server id)")
	createCmd.Flags().String("java", "", "java executable override")
}
