package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/wireformat"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <document>",
	Args:  cobra.RangeArgs(0, 1),
	Short: "Prints statistics or single records of a generated device document",
	Long: `Decodes a generated device document, compressed or not, and prints its
table sizes as JSON. With --full the whole document is printed. With
--record <section>:<index> only that record is decoded, e.g. tile_types:3 or
strings:42. --schema prints the record schema and needs no document.`,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().Bool("full", false, "Print the whole document instead of statistics")
	dumpCmd.Flags().StringSlice("record", nil, "Print only the given <section>:<index> records")
	dumpCmd.Flags().Bool("schema", false, "Print the record schema")
	bindFlags(dumpCmd)
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if opts.GetBool("schema") {
		_, err := fmt.Fprint(out, wireformat.Schema)
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("dump needs a document path")
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if refs := opts.GetStringSlice("record"); len(refs) > 0 {
		r, err := wireformat.OpenReader(args[0])
		if err != nil {
			return err
		}
		for _, ref := range refs {
			section, index, err := parseRecordRef(ref)
			if err != nil {
				return err
			}
			rec, err := r.Record(section, index)
			if err != nil {
				return err
			}
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	}

	doc, err := wireformat.ReadFile(args[0])
	if err != nil {
		return err
	}
	if opts.GetBool("full") {
		return enc.Encode(doc)
	}
	return enc.Encode(doc.Stats())
}

func parseRecordRef(ref string) (wireformat.Section, int, error) {
	name, idx, ok := strings.Cut(ref, ":")
	if !ok {
		return 0, 0, fmt.Errorf("record %q: expected <section>:<index>", ref)
	}
	section, err := wireformat.ParseSection(name)
	if err != nil {
		return 0, 0, err
	}
	index, err := strconv.Atoi(idx)
	if err != nil {
		return 0, 0, fmt.Errorf("record %q: %w", ref, err)
	}
	return section, index, nil
}
