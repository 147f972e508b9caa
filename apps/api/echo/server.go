package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/ppdb/core"
	"github.com/trezcool/ppdb/core/applicant"
	"github.com/trezcool/ppdb/core/region"
	"github.com/trezcool/ppdb/services/metrics"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		ApplicantSvc   *applicant.Service
		Regions        region.Source
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		steps    *stepStore
		errors   chan error
		shutdown chan os.Signal
		jobs     context.Context
		stopJobs context.CancelFunc
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		steps:    newStepStore(deps.Conf.Regions.StepTTL),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.jobs, s.stopJobs = context.WithCancel(context.Background())
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(jwtConfig(conf.SecretKey))

	registerRegionAPI(v1, jwt, s.deps.Regions)
	registerAddressAPI(v1, jwt, &addressApi{
		svc:            s.deps.ApplicantSvc,
		src:            s.deps.Regions,
		steps:          s.steps,
		validate:       s.deps.Validate,
		logger:         s.deps.Logger,
		resolveTimeout: conf.Regions.ResolveTimeout,
	})
	registerPriorSchoolAPI(v1, jwt, s.deps.ApplicantSvc, s.deps.Validate)
	registerRegistrantAPI(v1, jwt, s.deps.ApplicantSvc, s.deps.Validate)
}

// Start runs the address-step janitor and serves until Shutdown; failures are sent to Errors.
func (s *Server) Start() {
	go s.steps.janitor(s.jobs)

	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) stopSteps() {
	s.stopJobs()
	s.steps.closeAll()
}

func (s *Server) Shutdown(ctx context.Context) error {
	defer s.stopSteps()
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	defer s.stopSteps()
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
