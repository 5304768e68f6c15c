package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/tutorhub/apps/api/echo"
	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/assignment"
	"github.com/trezcool/tutorhub/core/audit"
	"github.com/trezcool/tutorhub/core/billing"
	"github.com/trezcool/tutorhub/core/policy"
	"github.com/trezcool/tutorhub/core/relation"
	"github.com/trezcool/tutorhub/core/report"
	"github.com/trezcool/tutorhub/core/session"
	"github.com/trezcool/tutorhub/core/user"
	"github.com/trezcool/tutorhub/core/visibility"
	emailsvc "github.com/trezcool/tutorhub/services/email"
	logsvc "github.com/trezcool/tutorhub/services/logger"
	"github.com/trezcool/tutorhub/storage/database"
	sqlxrepos "github.com/trezcool/tutorhub/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()
	dbx := sqlx.NewDb(db, "postgres")

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	auditSvc := audit.NewService(sqlxrepos.NewAuditRepository(dbx))
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(dbx), auditSvc)
	relSvc := relation.NewService(sqlxrepos.NewRelationRepository(dbx), auditSvc)
	visSvc := visibility.NewService(sqlxrepos.NewVisibilityRepository(dbx), auditSvc)
	assignSvc := assignment.NewService(sqlxrepos.NewAssignmentRepository(dbx), relSvc, visSvc, auditSvc)
	polSvc := policy.NewService(sqlxrepos.NewPolicyRepository(dbx), auditSvc)
	sessSvc := session.NewService(sqlxrepos.NewSessionRepository(dbx), relSvc, auditSvc)
	billSvc := billing.NewService(sqlxrepos.NewBillingRepository(dbx), relSvc, sessSvc, auditSvc, conf)
	repSvc := report.NewService(sqlxrepos.NewReportRepository(dbx), relSvc, usrSvc, assignSvc, sessSvc, auditSvc, mailSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			RelationSvc:   relSvc,
			VisibilitySvc: visSvc,
			AuditSvc:      auditSvc,
			AssignmentSvc: assignSvc,
			PolicySvc:     polSvc,
			BillingSvc:    billSvc,
			SessionSvc:    sessSvc,
			ReportSvc:     repSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
