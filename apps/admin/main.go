package main

import (
	"fmt"
	"os"

	"github.com/shulehub/shule/core"
	logsvc "github.com/shulehub/shule/services/logger"
	"github.com/shulehub/shule/storage/database"
	sqlxrepos "github.com/shulehub/shule/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewZerolog(os.Stderr, conf).With().Str("component", "admin").Logger()

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal().Err(err).Msg("opening database")
	}

	// start CLI
	cli := commandLine{
		usrRepo:    sqlxrepos.NewUserRepository(db),
		schoolRepo: sqlxrepos.NewSchoolRepository(db),
		runMigration: func(command string, args ...string) error {
			return database.RunMigration(db.DB, command, args...)
		},
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
