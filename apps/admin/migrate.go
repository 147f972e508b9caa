package main

import (
	"github.com/pkg/errors"

	"github.com/trezcool/ppdb/storage/database"
)

var runMigrationsFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	db, err := cli.openDB()
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()
	return runMigrationsFunc(db, args[0], args[1:]...)
}
