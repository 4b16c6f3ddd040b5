package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/idilsaglam/todo/internal/cli"
)

func main() {
	// Root flags (apply to every subcommand)
	groupPending := flag.Bool("group", false, "group plain output by pending/done")
	configPath := flag.String("config", "", "config file (default $XDG_CONFIG_HOME/todo/config.yaml)")
	backend := flag.String("backend", "", "firestore, rest or rest-live")
	url := flag.String("url", "", "REST collection url, e.g. http://localhost:8080/api/todos")
	project := flag.String("project", "", "Firestore project id")
	credentials := flag.String("credentials", "", "service account key file for Firestore")
	collection := flag.String("collection", "", "Firestore collection")
	theme := flag.String("theme", "", "classic, neon or mono")
	logFile := flag.String("log", "", "write debug logs of the interactive view to this file")
	addr := flag.String("addr", "", "listen address for serve")
	flag.Parse()

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	code := cli.Run(args, cli.Options{
		Group:       *groupPending,
		ConfigPath:  *configPath,
		Backend:     *backend,
		URL:         *url,
		Project:     *project,
		Credentials: *credentials,
		Collection:  *collection,
		Theme:       *theme,
		LogFile:     *logFile,
		Addr:        *addr,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
