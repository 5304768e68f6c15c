package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/audit"
	"github.com/trezcool/tutorhub/core/policy"
	"github.com/trezcool/tutorhub/core/user"
	"github.com/trezcool/tutorhub/storage/database"
	sqlxrepos "github.com/trezcool/tutorhub/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())
	dbx := sqlx.NewDb(db, "postgres")

	auditSvc := audit.NewService(sqlxrepos.NewAuditRepository(dbx))

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: user.NewService(sqlxrepos.NewUserRepository(dbx), auditSvc),
		polSvc: policy.NewService(sqlxrepos.NewPolicyRepository(dbx), auditSvc),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
