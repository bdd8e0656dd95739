package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/pkg/activity"
	"github.com/goliatone/go-settings/pkg/config"
	"github.com/goliatone/go-settings/pkg/store"
	"github.com/goliatone/go-settings/pkg/store/sqlite"
)

type app struct {
	loadEnv func() (config.Env, error)
	env     config.Env
	file    string
	db      string
	actor   string
	verbose bool
	runtime *config.Runtime
}

func newRootCmd(loadEnv func() (config.Env, error)) *cobra.Command {
	a := &app{loadEnv: loadEnv}
	root := &cobra.Command{
		Use:           "settingsctl",
		Short:         "Inspect and edit per-record settings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure()
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.runtime.Close()
		},
	}
	root.PersistentFlags().StringVar(&a.file, "file", "", "declarations file (overrides SETTINGS_FILE)")
	root.PersistentFlags().StringVar(&a.db, "db", "", "SQLite database (overrides SETTINGS_DB)")
	root.PersistentFlags().StringVar(&a.actor, "actor", "", "actor id recorded on activity events")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every resolution")

	root.AddCommand(
		a.initCmd(),
		a.getCmd(),
		a.setCmd(),
		a.resetCmd(),
		a.exportCmd(),
		a.storedCmd(),
		a.schemaCmd(),
	)
	return root
}

func (a *app) configure() error {
	env, err := a.loadEnv()
	if err != nil {
		return err
	}
	if a.file != "" {
		env.File = a.file
	}
	if a.db != "" {
		env.DB = a.db
	}
	if a.verbose {
		env.LogLevel = "debug"
	}
	a.env = env
	return nil
}

// open builds the runtime on first use. init runs without one.
func (a *app) open(cmd *cobra.Command) (*config.Runtime, error) {
	if a.runtime != nil {
		return a.runtime, nil
	}
	logger := resolutionLogger{log: newHCLogger(cmd.ErrOrStderr(), a.env.LogLevel)}
	hook := activity.HookFunc(func(_ context.Context, event activity.Event) error {
		logger.log.Info(event.Verb, "object", event.ObjectID, "actor", event.ActorID)
		return nil
	})
	rt, err := config.Open(cmd.Context(), a.env,
		settings.WithLogger(logger),
		settings.WithActivityHooks(activity.Hooks{hook}),
	)
	if err != nil {
		return nil, err
	}
	a.runtime = rt
	return rt, nil
}

func (a *app) context(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if a.actor != "" {
		ctx = activity.ContextWithActor(ctx, activity.Actor{ActorID: a.actor})
	}
	return ctx
}

func ownerArgs(args []string) store.Owner {
	return store.Owner{Class: args[0], ID: args[1]}
}

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter settings.yml and create the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.WriteStarter(a.env.File); err != nil {
				return err
			}
			db, err := sqlite.Open(cmd.Context(), a.env.DB)
			if err != nil {
				return err
			}
			if err := db.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\ncreated %s\n", a.env.File, a.env.DB)
			return nil
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "get CLASS ID NAME",
		Short: "Resolve a setting for one record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			value, tr, err := rt.Accessors.ReadWithTrace(a.context(cmd), ownerArgs(args), args[2])
			if err != nil {
				return err
			}
			if trace {
				payload, err := tr.ToJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(payload))
				return nil
			}
			return writeYAML(cmd.OutOrStdout(), value)
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "print the layers consulted as JSON")
	return cmd
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set CLASS ID NAME VALUE",
		Short: "Store a setting value; polymorphic values are parsed as YAML",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			owner := ownerArgs(args)
			decl, _, err := rt.Registry.Declaration(settings.Class(owner.Class), args[2])
			if err != nil {
				return err
			}
			value, err := decl.Converter().Decode(args[3])
			if err != nil {
				return fmt.Errorf("set %s %s: %w", owner, args[2], err)
			}
			return rt.Accessors.Write(a.context(cmd), owner, args[2], value)
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset CLASS ID NAME",
		Short: "Delete a stored value so the default applies again",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			return rt.Accessors.Reset(a.context(cmd), ownerArgs(args), args[2])
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var opts settings.ExportOptions
	cmd := &cobra.Command{
		Use:   "export CLASS ID",
		Short: "Print the declared settings of a record as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			exported, err := rt.Accessors.Export(a.context(cmd), ownerArgs(args), opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), exported)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Only, "only", nil, "export only these settings")
	cmd.Flags().StringSliceVar(&opts.Except, "except", nil, "export everything but these settings")
	return cmd
}

func (a *app) storedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stored CLASS ID",
		Short: "Print every value persisted for a record, declared or not",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			values, err := rt.Accessors.Stored(a.context(cmd), ownerArgs(args))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), values)
		},
	}
}

func (a *app) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema CLASS",
		Short: "Describe the settings declared for a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			doc, err := rt.Registry.Schema(settings.Class(args[0]))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), doc)
		},
	}
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeYAML(out io.Writer, value any) error {
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		return err
	}
	return encoder.Close()
}
