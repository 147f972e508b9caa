package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/trezcool/ppdb/core"
	"github.com/trezcool/ppdb/core/region"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf    *core.Config
	openDB  func() (*sql.DB, error)
	regions region.Source
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose command (up, down, status, version...) on the database")
	fmt.Fprintln(cli.out, "  token -user ID [-role user|admin] [-name NAME] [-email EMAIL] - print a signed API token")
	fmt.Fprintln(cli.out, "  regions [-province ID] - list the provinces, or the cities of a province, from the region data source")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenCmd.SetOutput(cli.out)
	tokenUser := tokenCmd.Int("user", 0, "The applicant's user id.")
	tokenRole := tokenCmd.String("role", "user", "The role granted by the token: user or admin.")
	tokenName := tokenCmd.String("name", "", "The user's name.")
	tokenEmail := tokenCmd.String("email", "", "The user's email.")

	regionsCmd := flag.NewFlagSet("regions", flag.ContinueOnError)
	regionsCmd.SetOutput(cli.out)
	regionsProvince := regionsCmd.String("province", "", "List the cities of this province id instead of the provinces.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenUser <= 0 {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenUser, *tokenRole, *tokenName, *tokenEmail)
	case "regions":
		if err := regionsCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.listRegions(region.NodeID(*regionsProvince))
	default:
		cli.printUsage()
		return errHelp
	}
}
