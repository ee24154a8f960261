package main

import (
	"fmt"

	"github.com/cuemby/fabricapi/pkg/log"
	"github.com/cuemby/fabricapi/pkg/model"
	"github.com/cuemby/fabricapi/pkg/storage"
	"github.com/spf13/cobra"
)

func newArchiveCmd(a *app) *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Store and retrieve validated records",
		Long: `Keep validated records in a local BoltDB archive. Records are stored
in canonical form under a key, one bucket per record type. The archive
directory comes from archive.path in the config file or
FABRICAPI_ARCHIVE_PATH.`,
	}

	putCmd := &cobra.Command{
		Use:   "put",
		Short: "Validate a record and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, data, err := readRecordInput(cmd)
			if err != nil {
				return err
			}
			key, _ := cmd.Flags().GetString("key")
			return a.withStore(func(store storage.Store) error {
				entry, err := store.Put(t.Name, key, data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored %s/%s\n", entry.Type, entry.Key)
				return nil
			})
		},
	}
	addRecordInputFlags(putCmd)
	putCmd.Flags().String("key", "", "Record key (default: a random UUID)")

	getCmd := &cobra.Command{
		Use:   "get TYPE KEY",
		Short: "Print an archived record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			indent, _ := cmd.Flags().GetBool("indent")
			return a.withStore(func(store storage.Store) error {
				entry, err := store.Get(args[0], args[1])
				if err != nil {
					return err
				}
				return printEntry(cmd, entry, indent)
			})
		},
	}
	getCmd.Flags().Bool("indent", false, "Indent the output")

	listCmd := &cobra.Command{
		Use:   "list TYPE",
		Short: "List archived records of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store storage.Store) error {
				entries, err := store.List(args[0])
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No %s records\n", args[0])
					return nil
				}
				for _, entry := range entries {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", entry.Key, entry.Payload)
				}
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete TYPE KEY",
		Short: "Remove an archived record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store storage.Store) error {
				if err := store.Delete(args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s/%s\n", args[0], args[1])
				return nil
			})
		},
	}

	archiveCmd.AddCommand(putCmd, getCmd, listCmd, deleteCmd)
	return archiveCmd
}

// withStore opens the configured archive for the duration of fn
func (a *app) withStore(fn func(storage.Store) error) error {
	store, err := storage.NewBoltStore(a.cfg.Archive.Path, model.Types)
	if err != nil {
		return err
	}
	log.Debug("archive opened at " + a.cfg.Archive.Path)
	defer func() {
		store.Close()
		log.Debug("archive closed")
	}()
	return fn(store)
}

func printEntry(cmd *cobra.Command, entry storage.Entry, indent bool) error {
	out := entry.Payload
	if indent {
		t, err := model.Types.Lookup(entry.Type)
		if err != nil {
			return err
		}
		if out, err = t.EncodeIndent(entry.Value); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
