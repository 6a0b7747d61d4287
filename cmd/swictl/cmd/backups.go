package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage server backups",
}

var backupListCmd = &cobra.Command{
	Use:     "list <server-id>",
	Aliases: []string{"ls"},
	Short:   "List backups recorded for a server",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}

		backups, err := c.ListBackups(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to list backups: %w", err)
		}
		if len(backups) == 0 {
			fmt.Println("No backups found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tSIZE\tCREATED\tTRASHED")
		for _, b := range backups {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%v\n", b.ID, b.Kind, b.SourceSize, b.CreatedAt.Format(time.RFC3339), b.Trashed)
		}
		w.Flush()
		return nil
	},
}

var backupCreateCmd = &cobra.Command{
	Use:   "create <server-id>",
	Short: "Create a full backup of a server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		c, err := loggedInClient(ctx)
		if err != nil {
			return err
		}

		comments, _ := cmd.Flags().GetString("comments")
		backup, pending, err := c.CreateBackup(ctx, args[0], comments)
		if err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		if pending != nil {
			fmt.Printf("backup is still running, task id %d\n", pending.TaskID)
			return nil
		}
		fmt.Printf("backup %s created (%d bytes)\n", backup.ID, backup.SourceSize)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupListCmd, backupCreateCmd)
	backupCreateCmd.Flags().String("comments", "", "optional note to attach to the backup")
}
