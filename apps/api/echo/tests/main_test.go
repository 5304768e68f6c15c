package tests

import (
	"net/mail"
	"os"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/trezcool/tutorhub/apps/api/echo"
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
	dummydb "github.com/trezcool/tutorhub/storage/database/dummy"
)

var (
	app     Server
	db      *dummydb.DB
	usrSvc  *user.Service
	relSvc  *relation.Service
	polSvc  *policy.Service
	sessSvc *session.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	conf := &core.Config{
		TestMode:         true,
		Env:              "TEST",
		AppName:          "TutorHub",
		SecretKey:        "test-secret-key",
		DefaultFromEmail: mail.Address{Name: "TutorHub", Address: "noreply@test.cm"},
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: time.Hour,
		},
		Billing: core.BillingConfig{TuitionRatePerMinute: 1.2, MaterialsFee: 10},
	}

	var err error
	if db, err = dummydb.Open(); err != nil {
		os.Exit(1)
	}

	auditSvc := audit.NewService(dummydb.NewAuditRepository(db))
	usrSvc = user.NewService(dummydb.NewUserRepository(db), auditSvc)
	relSvc = relation.NewService(dummydb.NewRelationRepository(db), auditSvc)
	visSvc := visibility.NewService(dummydb.NewVisibilityRepository(db), auditSvc)
	assignSvc := assignment.NewService(dummydb.NewAssignmentRepository(db), relSvc, visSvc, auditSvc)
	polSvc = policy.NewService(dummydb.NewPolicyRepository(db), auditSvc)
	sessSvc = session.NewService(dummydb.NewSessionRepository(db), relSvc, auditSvc)
	billSvc := billing.NewService(dummydb.NewBillingRepository(db), relSvc, sessSvc, auditSvc, conf)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	repSvc := report.NewService(dummydb.NewReportRepository(db), relSvc, usrSvc, assignSvc, sessSvc, auditSvc, mailSvc)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	app = NewServer(ServerDeps{
		Conf:          conf,
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
	})

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
