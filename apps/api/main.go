package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/ppdb/apps/api/echo"
	"github.com/trezcool/ppdb/core"
	"github.com/trezcool/ppdb/core/applicant"
	"github.com/trezcool/ppdb/core/region"
	appfs "github.com/trezcool/ppdb/fs"
	emailsvc "github.com/trezcool/ppdb/services/email"
	logsvc "github.com/trezcool/ppdb/services/logger"
	"github.com/trezcool/ppdb/services/regionsrc"
	"github.com/trezcool/ppdb/storage/database"
	dummydb "github.com/trezcool/ppdb/storage/database/dummy"
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
	repo, closeDB, err := setUpRepository(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = closeDB(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(
			log.New(os.Stdout, "EMAIL : ", log.LstdFlags),
			logger,
			conf,
		)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}
	applicantSvc := applicant.NewService(repo, mailSvc, logger)

	var regions region.Source
	if conf.Regions.BaseURL != "" {
		regions = regionsrc.NewHTTPSource(conf.Regions, logger)
	} else {
		logger.Warn("regions.baseURL is not set: using the sample region hierarchy")
		regions = regionsrc.NewMemorySource(regionsrc.Sample)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	if err = core.InitValidators(validate, translator); err != nil {
		logger.Fatal(fmt.Sprintf("initializing validators: %v", err), err)
	}
	if err = applicant.RegisterValidators(validate, translator); err != nil {
		logger.Fatal(fmt.Sprintf("initializing validators: %v", err), err)
	}

	if err = core.ParseEmailTemplates(appfs.FS); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			ApplicantSvc: applicantSvc,
			Regions:      regions,
			Validate:     validate,
			Translator:   translator,
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

// setUpRepository connects to Postgres, creating and migrating the database when needed.
// In debug mode without a reachable database the in-memory repository is used instead.
func setUpRepository(conf *core.Config) (applicant.Repository, func() error, error) {
	db, err := setUpDB(conf)
	if err != nil {
		if !conf.Debug {
			return nil, nil, err
		}
		log.Printf("DB : %v; using the in-memory database", err)
		mem, err := dummydb.Open()
		if err != nil {
			return nil, nil, err
		}
		return dummydb.NewApplicantRepository(mem), func() error { return nil }, nil
	}
	return database.NewApplicantRepository(db), db.Close, nil
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
		_ = db.Close()
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
