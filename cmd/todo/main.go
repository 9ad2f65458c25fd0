// todo is a terminal client for a hosted GraphQL todo API. Without a
// subcommand it opens the interactive view behind a sign-in gate; the
// ls/add/edit/rm subcommands run one request each and exit.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/idilsaglam/cloudtodo/internal/cli"
)

func main() {
	var opt cli.Options

	// Root flags (apply to every subcommand)
	flagSet := pflag.NewFlagSet("todo", pflag.ContinueOnError)
	flagSet.StringVar(&opt.ConfigPath, "config", "", "path to the exports file (default: ./cloudtodo-exports.json)")
	flagSet.StringVar(&opt.Theme, "theme", "classic", "color theme: classic, neon or mono")
	flagSet.BoolVar(&opt.NoColor, "no-color", false, "disable colors")
	flagSet.StringVar(&opt.LogFile, "log-file", "", "write JSON log records to this file (default: ~/.cloudtodo/todo.log)")
	flagSet.BoolVar(&opt.Debug, "debug", false, "log requests at debug level")
	flagSet.BoolVar(&opt.ShowIDs, "ids", false, "show todo ids in ls")
	flagSet.BoolP("help", "h", false, "show help")
	// flags after the subcommand belong to it
	flagSet.SetInterspersed(false)

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			cli.PrintHelp()
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	if help, _ := flagSet.GetBool("help"); help {
		cli.PrintHelp()
		os.Exit(0)
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		opt.NoColor = true
	}

	os.Exit(cli.Run(flagSet.Args(), opt))
}
