package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// A missing .env is fine; the process environment still applies.
	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env")
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&serveCmd{}, "")
	commander.Register(&portfolioCmd{}, "views")
	commander.Register(&stockCmd{}, "views")
	commander.Register(&patternsCmd{}, "views")
	commander.Register(&marketCmd{}, "views")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
