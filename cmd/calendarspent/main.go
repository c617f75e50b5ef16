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
	log.SetFlags(0)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warn: .env: %v", err)
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func register(c *subcommands.Commander) {
	c.Register(&addCmd{}, "transactions")
	c.Register(&editCmd{}, "transactions")
	c.Register(&listCmd{}, "transactions")
	c.Register(&deleteCmd{}, "transactions")
	c.Register(&stopCmd{}, "transactions")
	c.Register(&skipCmd{}, "transactions")
	c.Register(&skipCmd{unskip: true}, "transactions")
	c.Register(&suggestCmd{}, "transactions")

	c.Register(&categoriesCmd{}, "categories")
	c.Register(&categoryAddCmd{}, "categories")
	c.Register(&categoryDeleteCmd{}, "categories")
	c.Register(&rulesCmd{}, "categories")
	c.Register(&ruleAddCmd{}, "categories")
	c.Register(&ruleDeleteCmd{}, "categories")
	c.Register(&budgetCmd{}, "categories")

	c.Register(&summaryCmd{}, "reports")
	c.Register(&budgetsCmd{}, "reports")

	c.Register(&loginCmd{}, "cloud")
	c.Register(&logoutCmd{}, "cloud")
	c.Register(&syncCmd{}, "cloud")
	c.Register(&calendarCmd{}, "cloud")
	c.Register(&remoteMigrateCmd{}, "cloud")

	c.Register(&settingsCmd{}, "data")
	c.Register(&exportCmd{}, "data")
	c.Register(&importCmd{}, "data")
	c.Register(&importCSVCmd{}, "data")
	c.Register(&demoCmd{}, "data")
	c.Register(&resetCmd{}, "data")
}
