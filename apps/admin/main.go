package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/trezcool/ppdb/core"
	"github.com/trezcool/ppdb/core/region"
	logsvc "github.com/trezcool/ppdb/services/logger"
	"github.com/trezcool/ppdb/services/regionsrc"
	"github.com/trezcool/ppdb/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(false)

	var regions region.Source
	if conf.Regions.BaseURL != "" {
		regions = regionsrc.NewHTTPSource(conf.Regions, logger)
	} else {
		regions = regionsrc.NewMemorySource(regionsrc.Sample)
	}

	// start CLI
	cli := commandLine{
		conf:    conf,
		openDB:  func() (*sql.DB, error) { return database.Open(conf) },
		regions: regions,
		out:     os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
