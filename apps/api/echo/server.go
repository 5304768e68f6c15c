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
)

type (
	ServerDeps struct {
		Conf   *core.Config
		Logger core.Logger

		UserSvc       *user.Service
		RelationSvc   *relation.Service
		VisibilitySvc *visibility.Service
		AuditSvc      *audit.Service
		AssignmentSvc *assignment.Service
		PolicySvc     *policy.Service
		BillingSvc    *billing.Service
		SessionSvc    *session.Service
		ReportSvc     *report.Service

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf
	initAuth(conf)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.deps.UserSvc, s.deps.Validate, s.deps.Translator)
	registerRelationAPI(v1, jwt, s.deps.RelationSvc, s.deps.UserSvc, s.deps.Validate)
	registerVisibilityAPI(v1, jwt, s.deps.VisibilitySvc, s.deps.UserSvc)
	registerAuditAPI(v1, jwt, s.deps.AuditSvc)
	registerAssignmentAPI(v1, jwt, s.deps.AssignmentSvc, s.deps.UserSvc, s.deps.Validate)
	registerPolicyAPI(v1, jwt, s.deps.PolicySvc, s.deps.UserSvc, s.deps.Validate)
	registerBillingAPI(v1, jwt, s.deps.BillingSvc, s.deps.UserSvc, s.deps.Validate)
	registerSessionAPI(v1, jwt, s.deps.SessionSvc, s.deps.UserSvc, s.deps.Validate)
	registerReportAPI(v1, jwt, s.deps.ReportSvc, s.deps.UserSvc, s.deps.Validate)
}

func (s *server) Start() {
	s.errs <- s.app.Start(s.deps.Conf.Server.Addr)
}

func (s *server) Errors() <-chan error { return s.errs }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to TutorHub API!")
}
