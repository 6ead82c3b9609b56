package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/realm"
)

var frogsCmd = &cobra.Command{
	Use:   "frogs",
	Short: "Manage the frogs stored in a realm",
}

var frogsAddCmd = &cobra.Command{
	Use:   "add [flags] <name>",
	Short: "Add a frog",
	Long: `Add a frog to the realm. Frog names are unique.

Examples:
  realm frogs add Kermit --age 3 --species "Bufo bufo"
  realm --name pond.realm frogs add Gregory --owner Dana`,
	Args: cobra.ExactArgs(1),
	RunE: runFrogsAdd,
}

var frogsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List frogs",
	Long: `List frogs in insertion order, one page at a time.

Examples:
  realm frogs list
  realm frogs list --prefix Ker --limit 10
  realm frogs list --species "Bufo bufo" -o json`,
	Args: cobra.NoArgs,
	RunE: runFrogsList,
}

var frogsDeleteCmd = &cobra.Command{
	Use:   "delete [flags] <name> [name...]",
	Short: "Delete frogs by name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFrogsDelete,
}

var (
	frogAge     int
	frogSpecies string
	frogOwner   string

	listLimit   int
	listCursor  string
	listPrefix  string
	listSpecies string

	deleteQuiet bool
)

func init() {
	frogsAddCmd.Flags().IntVar(&frogAge, "age", 0, "age in years")
	frogsAddCmd.Flags().StringVar(&frogSpecies, "species", "", "species, if known")
	frogsAddCmd.Flags().StringVar(&frogOwner, "owner", "", "owner name")

	frogsListCmd.Flags().IntVarP(&listLimit, "limit", "l", 50, "maximum frogs per page (0 for all)")
	frogsListCmd.Flags().StringVar(&listCursor, "cursor", "", "cursor from a previous page")
	frogsListCmd.Flags().StringVarP(&listPrefix, "prefix", "p", "", "only frogs whose name starts with prefix")
	frogsListCmd.Flags().StringVar(&listSpecies, "species", "", "only frogs of this species")

	frogsDeleteCmd.Flags().BoolVarP(&deleteQuiet, "quiet", "q", false, "suppress per-frog output")

	frogsCmd.AddCommand(frogsAddCmd, frogsListCmd, frogsDeleteCmd)
	rootCmd.AddCommand(frogsCmd)
}

func runFrogsAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	frog := Frog{Name: args[0], Age: frogAge, Owner: frogOwner}
	if cmd.Flags().Changed("species") {
		frog.Species = &frogSpecies
	}

	return withRealm(cmd, func(r *realm.Realm) error {
		var id realm.ObjectID
		err := r.Write(ctx, func(tx *realm.WriteTx) error {
			var err error
			id, err = realm.Insert(ctx, tx, &frog)
			return err
		})
		if errors.Is(err, realm.ErrConflict) {
			return fmt.Errorf("frog %s already exists", frog.Name)
		}
		if err != nil {
			return err
		}

		slog.Info("frog added", "name", frog.Name, "id", id)
		return nil
	})
}

func runFrogsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	formatter, err := getFormatter(cmd)
	if err != nil {
		return err
	}

	q := realm.Query{Limit: listLimit, Cursor: listCursor}
	if listPrefix != "" {
		q.Where = append(q.Where, realm.HasPrefix("Name", listPrefix))
	}
	if listSpecies != "" {
		q.Where = append(q.Where, realm.Equal("Species", listSpecies))
	}

	return withRealm(cmd, func(r *realm.Realm) error {
		res, err := realm.Find[Frog](ctx, r, q)
		if err != nil {
			return err
		}
		return formatter.FormatFrogs(cmd.OutOrStdout(), newFrogPage(res))
	})
}

func runFrogsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withRealm(cmd, func(r *realm.Realm) error {
		deleted := 0
		notFound := 0

		err := r.Write(ctx, func(tx *realm.WriteTx) error {
			for _, name := range args {
				obj, err := realm.FindByPrimaryKey[Frog](ctx, tx, name)
				if errors.Is(err, realm.ErrNotFound) {
					notFound++
					if !deleteQuiet {
						slog.Warn("not found", "name", name)
					}
					continue
				}
				if err != nil {
					return err
				}

				if err := realm.Delete[Frog](ctx, tx, obj.ID); err != nil {
					return err
				}
				deleted++
				if !deleteQuiet {
					slog.Info("deleted", "name", name)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		slog.Info("delete complete", "deleted", deleted, "not_found", notFound)
		return nil
	})
}
