package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hesusruiz/tracedoc/check"
	"github.com/hesusruiz/tracedoc/site"
	"github.com/hesusruiz/tracedoc/trace"
)

// Default locations, used when neither the command line nor the project
// file says otherwise.
const (
	defaultConfigName = "tracedoc.yaml"
	defaultRoot       = "docs"
	defaultOutput     = "public"
)

var debug bool

// newLogger sets up the logging system
func newLogger() *zap.SugaredLogger {

	var z *zap.Logger
	var err error

	if debug {
		z, err = zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
	} else {
		z, err = zap.NewProduction()
		if err != nil {
			panic(err)
		}
	}

	return z.Sugar()
}

// loadProject reads the project configuration and the site options,
// completing them from the command line. Flags win over the project
// file, and the first positional argument is the source directory.
func loadProject(c *cli.Context) (*trace.Config, site.Options, error) {

	configName := c.String("config")

	cfg, err := trace.LoadConfig(configName)
	if err != nil {
		return nil, site.Options{}, err
	}

	opts, err := site.LoadOptions(configName)
	if err != nil {
		return nil, site.Options{}, err
	}

	if c.Args().Present() {
		opts.Root = c.Args().First()
	} else if opts.Root == "" {
		opts.Root = defaultRoot
		fmt.Printf("no source directory provided, using %q\n", opts.Root)
	}

	if v := c.String("output"); v != "" {
		opts.Output = v
	}
	if opts.Output == "" {
		opts.Output = defaultOutput
	}
	if v := c.String("template"); v != "" {
		opts.Template = v
	}
	if v := c.String("assets"); v != "" {
		opts.Assets = v
	}
	if v := c.String("title"); v != "" {
		opts.Title = v
	}
	opts.DryRun = c.Bool("dryrun")

	return cfg, opts, nil
}

// processBuild generates the site, or keeps regenerating it when watch
// was requested
func processBuild(c *cli.Context) error {

	debug = c.Bool("debug")
	sugar := newLogger()
	defer sugar.Sync()

	cfg, opts, err := loadProject(c)
	if err != nil {
		return err
	}

	if !opts.DryRun {
		fmt.Printf("processing %v and generating %v\n", opts.Root, opts.Output)
	} else {
		fmt.Printf("dry run: processing %v without writing output\n", opts.Root)
	}

	b := site.NewBuilder(cfg, opts, sugar)

	// This is useful for development: rebuild whenever a source changes
	if c.Bool("watch") {
		return b.Watch()
	}

	_, problems, err := b.Build()
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		fmt.Printf("%v problems found while scanning, run 'tracedoc check' for details\n", len(problems))
	}

	return nil
}

// processCheck scans the sources and runs the consistency validations
// without generating any output
func processCheck(c *cli.Context) error {

	debug = c.Bool("debug")
	sugar := newLogger()
	defer sugar.Sync()

	cfg, opts, err := loadProject(c)
	if err != nil {
		return err
	}

	idx, problems, err := site.NewBuilder(cfg, opts, sugar).Scan()
	if err != nil {
		return err
	}
	for _, p := range problems {
		fmt.Println(p)
	}

	findings := check.Run(cfg, idx)
	for _, f := range findings {
		fmt.Println(f)
	}

	if len(problems)+len(findings) > 0 {
		return cli.Exit(fmt.Sprintf("%v problems, %v findings", len(problems), len(findings)), 1)
	}

	fmt.Printf("checked %v objects, no findings\n", idx.Len())
	return nil
}

// processServe builds the site and serves it over HTTP for local review
func processServe(c *cli.Context) error {

	debug = c.Bool("debug")
	sugar := newLogger()
	defer sugar.Sync()

	cfg, opts, err := loadProject(c)
	if err != nil {
		return err
	}

	b := site.NewBuilder(cfg, opts, sugar)
	if _, _, err := b.Build(); err != nil {
		return err
	}

	if c.Bool("watch") {
		go func() {
			if err := b.Watch(); err != nil {
				sugar.Errorw("watch stopped", "error", err)
			}
		}()
	}

	return site.Serve(c.String("addr"), opts.Output, sugar)
}

func buildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "write the site to `DIR` (default is public)",
		},
		&cli.StringFlag{
			Name:  "template",
			Usage: "wrap the pages in the template `FILE` instead of the built-in one",
		},
		&cli.StringFlag{
			Name:  "assets",
			Usage: "copy the static assets from `DIR`",
		},
		&cli.StringFlag{
			Name:  "title",
			Usage: "site title, used when a page has no title of its own",
		},
		&cli.BoolFlag{
			Name:    "dryrun",
			Aliases: []string{"n"},
			Usage:   "do not generate output files, just process the sources",
		},
		&cli.BoolFlag{
			Name:    "watch",
			Aliases: []string{"w"},
			Usage:   "watch the sources and rebuild on changes",
		},
	}
}

func main() {

	app := &cli.App{
		Name:     "tracedoc",
		Version:  "v0.02",
		Compiled: time.Now(),
		Authors: []*cli.Author{
			{
				Name:  "Jesus Ruiz",
				Email: "hesus.ruiz@gmail.com",
			},
		},
		Usage:     "generate traceable HTML documentation from requirement documents",
		UsageText: "tracedoc [options] [command] [SOURCE_DIR] (default source dir is docs)",
		Action:    processBuild,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfigName,
				Usage:   "read the project configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "run in debug mode",
			},
		}, buildFlags()...),
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "generate the HTML documentation set",
				UsageText: "tracedoc build [options] [SOURCE_DIR]",
				Action:    processBuild,
				Flags:     buildFlags(),
			},
			{
				Name:      "check",
				Usage:     "validate the traceability of the documentation set",
				UsageText: "tracedoc check [SOURCE_DIR]",
				Action:    processCheck,
			},
			{
				Name:      "serve",
				Usage:     "build the site and serve it over HTTP",
				UsageText: "tracedoc serve [options] [SOURCE_DIR]",
				Action:    processServe,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Aliases: []string{"a"},
						Value:   ":8080",
						Usage:   "listen on `ADDR`",
					},
				}, buildFlags()...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		panic(err)
	}

}
