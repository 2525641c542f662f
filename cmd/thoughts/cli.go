package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/thoughts/internal/config"
	"github.com/hpungsan/thoughts/internal/db"
	"github.com/hpungsan/thoughts/internal/errors"
	"github.com/hpungsan/thoughts/internal/lifecycle"
	"github.com/hpungsan/thoughts/internal/metrics"
	"github.com/hpungsan/thoughts/internal/ops"
	"github.com/hpungsan/thoughts/internal/thought"
	"github.com/hpungsan/thoughts/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(store *db.Store, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "thoughts",
		Usage:   "Thought records with autosaved drafts",
		Version: Version,
		Commands: []*cli.Command{
			listCmd(store),
			showCmd(store),
			recordCmd(store, cfg),
			serveCmd(store, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// listCmd creates the list command.
func listCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List thought records, most recently updated first",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "drafts", Usage: "Only drafts"},
			&cli.BoolFlag{Name: "final", Usage: "Only completed records"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max items"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("drafts") && c.Bool("final") {
				return outputError(errors.NewInvalidRequest("--drafts and --final are mutually exclusive"))
			}

			input := ops.ListInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			}
			if c.Bool("drafts") {
				v := true
				input.Drafts = &v
			}
			if c.Bool("final") {
				v := false
				input.Drafts = &v
			}

			output, err := ops.List(c.Context, store, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a thought record",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "markdown", Aliases: []string{"m"}, Usage: "Print the markdown rendering only"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("show requires exactly one record id"))
			}
			id, err := strconv.ParseInt(c.Args().First(), 10, 64)
			if err != nil || id <= 0 {
				return outputError(errors.NewInvalidRequest("record id must be a positive integer"))
			}

			output, err := ops.View(c.Context, store, id)
			if err != nil {
				return outputError(err)
			}

			if c.Bool("markdown") {
				_, err := fmt.Fprint(os.Stdout, output.Markdown)
				return err
			}
			return outputJSON(output)
		},
	}
}

// recordCmd creates the record command.
func recordCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "Create or edit a thought record in one step (saved as a draft unless --submit)",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "id", Usage: "Existing record id (default: new record)"},
			&cli.StringFlag{Name: "situation", Aliases: []string{"s"}, Usage: "What happened"},
			&cli.StringFlag{Name: "thought", Aliases: []string{"t"}, Usage: "The thought"},
			&cli.IntFlag{Name: "distress", Usage: "Distress level 0-10"},
			&cli.StringSliceFlag{Name: "emotion", Aliases: []string{"e"}, Usage: "Emotion (repeatable; replaces the selection)"},
			&cli.StringFlag{Name: "other-emotion", Usage: "Emotion not in the list"},
			&cli.StringFlag{Name: "body-sensations", Usage: "Body sensations"},
			&cli.IntFlag{Name: "values-interference", Usage: "Values interference 0-10"},
			&cli.IntFlag{Name: "belief-strength", Usage: "Belief strength 0-100"},
			&cli.IntFlag{Name: "post-values-interference", Usage: "Values interference after distancing 0-10"},
			&cli.IntFlag{Name: "post-belief-strength", Usage: "Belief strength after distancing 0-100"},
			&cli.IntFlag{Name: "post-distress", Usage: "Distress level after distancing 0-10"},
			&cli.StringFlag{Name: "what-feels-possible", Usage: "What feels possible now"},
			&cli.BoolFlag{Name: "submit", Usage: "Submit as a completed record"},
		},
		Action: func(c *cli.Context) error {
			ref := thought.NewRef
			if c.IsSet("id") {
				ref = strconv.FormatInt(c.Int64("id"), 10)
			}

			output, err := ops.Record(c.Context, store, ops.RecordInput{
				Ref:    ref,
				Patch:  patchFromFlags(c),
				Submit: c.Bool("submit"),
			}, lifecycle.Options{Interval: cfg.AutosaveInterval()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Usage: "Bind address (default from config, 127.0.0.1)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port (default from config, 8437)"},
		},
		Action: func(c *cli.Context) error {
			bind := cfg.WebBind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := cfg.WebPort
			if c.IsSet("port") {
				port = c.Int("port")
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			log := slog.Default()

			registry := lifecycle.NewRegistry(store, lifecycle.Options{
				Interval: cfg.AutosaveInterval(),
				Logger:   log,
				Metrics:  metrics.New(reg),
			})

			srv, err := web.NewServer(web.Deps{
				Store:    store,
				Registry: registry,
				Config:   cfg,
				Gatherer: reg,
				Logger:   log,
				Version:  Version,
			}, bind, port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			if err := web.Run(srv, log); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// patchFromFlags builds a patch from the flags that were given.
func patchFromFlags(c *cli.Context) thought.Patch {
	var p thought.Patch
	str := func(flag string) *string {
		if !c.IsSet(flag) {
			return nil
		}
		v := c.String(flag)
		return &v
	}
	num := func(flag string) *int {
		if !c.IsSet(flag) {
			return nil
		}
		v := c.Int(flag)
		return &v
	}

	p.Situation = str("situation")
	p.Thought = str("thought")
	p.OtherEmotion = str("other-emotion")
	p.BodySensations = str("body-sensations")
	p.WhatFeelsPossible = str("what-feels-possible")
	p.DistressLevel = num("distress")
	p.ValuesInterference = num("values-interference")
	p.BeliefStrength = num("belief-strength")
	p.PostDistancingValuesInterference = num("post-values-interference")
	p.PostDistancingBeliefStrength = num("post-belief-strength")
	p.PostDistancingDistressLevel = num("post-distress")
	if c.IsSet("emotion") {
		emotions := c.StringSlice("emotion")
		p.Emotions = &emotions
	}
	return p
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	tErr := errors.As(err)
	if tErr.Code == errors.ErrInternal || tErr.Code == errors.ErrStoreUnavailable {
		slog.Error("command failed", "code", tErr.Code, "details", tErr.Details)
	}
	return cli.Exit(fmt.Sprintf("[%s] %s", tErr.Code, tErr.Message), 1)
}
