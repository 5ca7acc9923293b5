package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/polydb/internal/polygon"
	"github.com/roach88/polydb/internal/store"
)

// Error codes used in CLI responses.
const (
	CodeInvalidInput = "E400"
	CodeNotFound     = "E404"
)

// PolygonOptions holds the fields shared by insert and update.
type PolygonOptions struct {
	*RootOptions
	Name         string
	Sides        int
	SidesEnglish string
}

// UpdateResult is the JSON payload of the update command.
type UpdateResult struct {
	Name string `json:"name"`
	Rows int64  `json:"rows"`
}

// build validates the flags and builds the value to store.
func (o *PolygonOptions) build() (polygon.Polygon, error) {
	p := polygon.New(o.Name, o.Sides, o.SidesEnglish)
	if err := p.Validate(); err != nil {
		return polygon.Polygon{}, err
	}
	return p, nil
}

func addPolygonFlags(cmd *cobra.Command, opts *PolygonOptions) {
	cmd.Flags().StringVar(&opts.Name, "name", "", "polygon name (required)")
	cmd.Flags().IntVar(&opts.Sides, "sides", 0, "number of sides, at least 3 (required)")
	cmd.Flags().StringVar(&opts.SidesEnglish, "sides-english", "", "side count in words")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("sides")
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the polygons table",
		Long: `Create the polygons table if it does not exist.

Running init on a database that already has the table is a no-op.

Example:
  polydb init --db ./polygoners.sqlite`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
	return cmd
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	return withSession(opts, cmd, func(ctx context.Context, s *session) error {
		if err := s.store.CreateTable(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to create table", err)
		}
		if f.Format == "json" {
			return f.Success(map[string]string{"path": s.store.Path(), "driver": s.store.Driver()})
		}
		return f.Success(fmt.Sprintf("Table polygons ready in %s", s.store.Path()))
	})
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PolygonOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert a polygon",
		Long: `Insert a polygon in its own transaction.

Names are not unique: inserting an existing name adds a second row.

Example:
  polydb insert --name triangle --sides 3 --sides-english three`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(opts, cmd)
		},
	}
	addPolygonFlags(cmd, opts)

	return cmd
}

func runInsert(opts *PolygonOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	p, err := opts.build()
	if err != nil {
		_ = f.Error(CodeInvalidInput, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "invalid polygon", Err: err, Reported: true}
	}

	return withSession(opts.RootOptions, cmd, func(ctx context.Context, s *session) error {
		var txID string
		err := s.store.Transaction(ctx, func(tx *store.Tx) error {
			txID = tx.ID()
			f.VerboseLog("transaction %s: insert %q", txID, p.Name)
			id, err := tx.Insert(ctx, p)
			p.ID = id
			return err
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to insert polygon", err)
		}

		if f.Format == "json" {
			return f.SuccessWithTrace(p, txID)
		}
		return f.Success(fmt.Sprintf("Inserted %s (id %d)", p, p.ID))
	})
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <name>",
		Short: "Look up a polygon by name",
		Long: `Look up a polygon by exact name.

If several rows share the name, the first one inserted is returned.
A missing name exits with status 1 and error code E404.

Example:
  polydb lookup triangle
  polydb lookup square --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runLookup(opts *RootOptions, name string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	return withSession(opts, cmd, func(ctx context.Context, s *session) error {
		p, ok, err := s.store.Lookup(ctx, name)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to look up polygon", err)
		}
		if !ok {
			msg := fmt.Sprintf("polygon not found: %s", name)
			_ = f.Error(CodeNotFound, msg, nil)
			return reportedExitError(ExitFailure, msg)
		}

		if f.Format == "json" {
			return f.Success(p)
		}
		return f.Success(p.String())
	})
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PolygonOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a polygon by name",
		Long: `Set sides and sides-english on every row with the given name.

The name itself is never changed. Updating a name that does not exist
changes nothing and still exits 0.

Example:
  polydb update --name square --sides 4 --sides-english squarezee`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(opts, cmd)
		},
	}
	addPolygonFlags(cmd, opts)

	return cmd
}

func runUpdate(opts *PolygonOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	p, err := opts.build()
	if err != nil {
		_ = f.Error(CodeInvalidInput, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "invalid polygon", Err: err, Reported: true}
	}

	return withSession(opts.RootOptions, cmd, func(ctx context.Context, s *session) error {
		var (
			rows int64
			txID string
		)
		err := s.store.Transaction(ctx, func(tx *store.Tx) error {
			txID = tx.ID()
			f.VerboseLog("transaction %s: update %q", txID, p.Name)
			var err error
			rows, err = tx.Update(ctx, p)
			return err
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to update polygon", err)
		}

		if f.Format == "json" {
			return f.SuccessWithTrace(UpdateResult{Name: p.Name, Rows: rows}, txID)
		}
		if rows == 0 {
			return f.Success(fmt.Sprintf("No polygon named %s; nothing updated", p.Name))
		}
		return f.Success(fmt.Sprintf("Updated %s (%d rows)", p, rows))
	})
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all polygons",
		Long: `List every stored polygon in insertion order.

Example:
  polydb list --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	return withSession(opts, cmd, func(ctx context.Context, s *session) error {
		list, err := s.store.List(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list polygons", err)
		}

		if f.Format == "json" {
			return f.Success(list)
		}
		if len(list) == 0 {
			return f.Success("No polygons.")
		}
		var b strings.Builder
		for i, p := range list {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%d\t%s", p.ID, p)
		}
		return f.Success(b.String())
	})
}
