package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"recyclebin/internal/cli/output"
	"recyclebin/internal/core/id"
	"recyclebin/internal/infrastructure/http/v1/dto"
)

func (c *cli) entitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List entities with a recycle bin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.printer.Print(output.EntityList(c.rt.Service.Entities()))
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	var page, size int
	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "Show one page of an entity's trash, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.rt.Service.ListDeleted(cmd.Context(), args[0], page, size)
			if err != nil {
				return err
			}
			return c.printer.Print(output.NewTrashPage(args[0], res))
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&size, "size", 0, "page size (0 uses the configured default)")
	return cmd
}

func (c *cli) trashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trash <entity> <id>",
		Short: "Move an active record to the trash",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordID, err := c.recordID(args)
			if err != nil {
				return err
			}
			res, err := c.rt.Service.SoftDelete(cmd.Context(), args[0], recordID, c.principal())
			if err != nil {
				return err
			}
			return c.printer.Message(res.Message)
		},
	}
}

func (c *cli) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <entity> <id>",
		Short: "Restore a trashed record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordID, err := c.recordID(args)
			if err != nil {
				return err
			}
			res, err := c.rt.Service.Restore(cmd.Context(), args[0], recordID, c.principal())
			if err != nil {
				return err
			}
			return c.printer.Message(res.Message)
		},
	}
}

func (c *cli) purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <entity> <id>",
		Short: "Permanently delete a trashed record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordID, err := c.recordID(args)
			if err != nil {
				return err
			}
			res, err := c.rt.Service.Purge(cmd.Context(), args[0], recordID, c.principal())
			if err != nil {
				return err
			}
			return c.printer.Message(res.Message)
		},
	}
}

func (c *cli) bulkRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-restore <entity> <id>...",
		Short: "Restore several trashed records; missing or active ids are skipped",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := dto.BulkIDsRequest{IDs: args[1:]}.ParseIDs()
			res, err := c.rt.Service.BulkRestore(cmd.Context(), args[0], ids, c.principal())
			if err != nil {
				return err
			}
			return c.printResult(res, res.Message)
		},
	}
}

func (c *cli) bulkPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-purge <entity> <id>...",
		Short: "Permanently delete several trashed records; active ids are never purged",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := dto.BulkIDsRequest{IDs: args[1:]}.ParseIDs()
			res, err := c.rt.Service.BulkPurge(cmd.Context(), args[0], ids, c.principal())
			if err != nil {
				return err
			}
			return c.printResult(res, res.Message)
		},
	}
}

// recordID checks the entity before parsing the id so an unknown entity is
// always reported first.
func (c *cli) recordID(args []string) (id.ID, error) {
	if err := c.rt.Service.CheckEntity(args[0]); err != nil {
		return id.ID{}, err
	}
	return dto.ParseID(args[1])
}

// printResult prints msg for tables and the full result otherwise.
func (c *cli) printResult(res any, msg string) error {
	if c.printer.Format() == output.FormatTable {
		return c.printer.Message(msg)
	}
	return c.printer.Print(res)
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <entity> <id>",
		Short: "Show the audit trail of a record (postgres with audit enabled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.rt.History == nil {
				return fmt.Errorf("audit history is not available for this storage driver")
			}
			recordID, err := dto.ParseID(args[1])
			if err != nil {
				return err
			}
			entries, err := c.rt.History.History(cmd.Context(), args[0], recordID, limit)
			if err != nil {
				return err
			}

			table := output.NewTable("At", "Action", "User")
			for _, e := range entries {
				user := e.UserEmail
				if user == "" {
					user = e.UserID
				}
				if user == "" {
					user = "-"
				}
				table.AddRow(e.CreatedAt.UTC().Format("2006-01-02 15:04:05"), string(e.Action), user)
			}
			if c.printer.Format() == output.FormatTable {
				return c.printer.Print(table)
			}
			return c.printer.Print(entries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of entries")
	return cmd
}
