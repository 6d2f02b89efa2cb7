package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/arloliu/colbin"
	"github.com/arloliu/colbin/catalog"
	"github.com/arloliu/colbin/config"
	"github.com/arloliu/colbin/decoder"
	"github.com/arloliu/colbin/layout"
	"github.com/arloliu/colbin/projection"
	"github.com/arloliu/colbin/schema"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configFile  string
	catalogFile string
	logLevel    string
	timeout     time.Duration
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "colbin",
		Short: "Inspect and fetch catalog-described binary columnar objects",
		Long: `colbin resolves an object's column schema from the metadata catalog,
fetches its binary payload from the local cache or the data service and
prints the decoded columns.

Settings are read from an optional YAML file and COLBIN_* environment variables.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to a YAML configuration file")
	root.PersistentFlags().StringVar(&flags.catalogFile, "catalog", "", "Resolve schemas from a JSON catalog file instead of the metadata service")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", 2*time.Minute, "Overall command timeout")

	root.AddCommand(
		newVersionCmd(),
		newSchemaCmd(flags),
		newFetchCmd(flags),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "colbin v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
		},
	}
}

func newSchemaCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <object-id>",
		Short: "Show the columns, types and payload layout of an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			client, err := newClient(flags)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close(ctx) }()

			obj := client.Object(args[0])
			desc, err := obj.Schema(ctx)
			if err != nil {
				return err
			}

			return printSchema(cmd.OutOrStdout(), desc, obj.Layout())
		},
	}
}

func newFetchCmd(flags *globalFlags) *cobra.Command {
	var (
		columns []string
		indices []int
		head    int
	)

	cmd := &cobra.Command{
		Use:   "fetch <object-id>",
		Short: "Fetch and print the decoded columns of an object",
		Long: `Fetch an object's payload and print its columns as tab-separated text.

Columns are selected by name (-c, case-insensitive) and by zero-based index
(-i); names come first, then indices. Without a selection every column is printed.

Example:
  colbin fetch https://meta.icos-cp.eu/objects/xYz123 -c TIMESTAMP -c co2 --head 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			client, err := newClient(flags)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close(ctx) }()

			refs := append(projection.Names(columns...), projection.Indices(indices...)...)
			table, err := client.Object(args[0]).Data(ctx, refs...)
			if err != nil {
				return err
			}

			return printTable(cmd.OutOrStdout(), table, head)
		},
	}

	cmd.Flags().StringArrayVarP(&columns, "column", "c", nil, "Column name to fetch (repeatable)")
	cmd.Flags().IntSliceVarP(&indices, "index", "i", nil, "Column index to fetch (repeatable)")
	cmd.Flags().IntVar(&head, "head", 10, "Number of rows to print; negative prints all rows")

	return cmd
}

func newClient(flags *globalFlags) (*colbin.Client, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	var opts []colbin.Option
	if flags.catalogFile != "" {
		resolver, err := catalog.LoadFile(flags.catalogFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, colbin.WithResolver(resolver))
	}

	return colbin.NewClientFromConfig(cfg, opts...)
}

func printSchema(out io.Writer, desc *schema.Object, l layout.Layout) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "object:\t%s\n", desc.ObjectID)
	fmt.Fprintf(w, "rows:\t%d\n", desc.RowCount)
	fmt.Fprintf(w, "subfolder:\t%s\n", desc.StorageSubfolder)
	fmt.Fprintf(w, "payload size:\t%d bytes\n", l.Size())
	if desc.Citation != "" {
		fmt.Fprintf(w, "citation:\t%s\n", desc.Citation)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "#\tNAME\tTYPE\tOFFSET\tUNIT\tVALUE TYPE")
	for i, c := range desc.Columns {
		seg := l.Segment(i)
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", i, c.Name, seg.Type, l.Offset(i), c.Unit, c.ValueTypeID)
	}

	return w.Flush()
}

func printTable(out io.Writer, table *decoder.Table, head int) error {
	rows := table.RowCount
	if head >= 0 && head < rows {
		rows = head
	}

	names := table.Names()
	if _, err := fmt.Fprintln(out, strings.Join(names, "\t")); err != nil {
		return err
	}

	fields := make([]string, len(names))
	for row := range rows {
		for i, name := range names {
			fields[i] = table.Columns[name].Format(row)
		}
		if _, err := fmt.Fprintln(out, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}

	return nil
}
