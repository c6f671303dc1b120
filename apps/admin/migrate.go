package main

import (
	"path/filepath"

	"github.com/pressly/goose"

	"github.com/trezcool/mahudhurio/core"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	command := "up"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}
	dir := filepath.Join(core.Getwd(), "storage", "database", "migrations")
	return gooseRunFunc(command, cli.db.DB, dir, args...)
}
