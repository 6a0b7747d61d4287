package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage a server's files",
	Long:  `List, create, and delete files under a server's virtual root.`,
}

var lsCmd = &cobra.Command{
	Use:   "ls <server-id> <path>",
	Short: "List a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}

		entries, err := c.ListFiles(ctx, args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to list files: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
		for _, e := range entries {
			kind := "f"
			if e.IsDir {
				kind = "d"
			}
			fmt.Fprintf(w, "%s %s\t%d\t%s\n", kind, e.Name, e.Size, e.ModifiedAt.Format(time.RFC3339))
		}
		w.Flush()
		return nil
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <server-id> <path>",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}
		if err := c.MakeDir(ctx, args[0], args[1]); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <server-id> <path>",
	Short: "Delete a file or directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}

		pending, err := c.DeleteFile(ctx, args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to delete: %w", err)
		}
		if pending != nil {
			fmt.Printf("delete is still running, task id %d\n", pending.TaskID)
			return nil
		}
		fmt.Println("deleted")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filesCmd)
	filesCmd.AddCommand(lsCmd, mkdirCmd, rmCmd)
}
