package dummydb

import (
	"sync"

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
	DB struct {
		user       *userTable
		relation   *relationTable
		visibility *visibilityTable
		audit      *auditTable
		assignment *assignmentTable
		policy     *policyTable
		session    *sessionTable
		billing    *billingTable
		report     *reportTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	relationTable struct {
		sync.RWMutex
		table map[string]*relation.Relationship
	}

	visibilityTable struct {
		sync.RWMutex
		table map[string]*visibility.Setting // keyed by entity ref
	}

	auditTable struct {
		sync.RWMutex
		entries []audit.Entry // append-only
	}

	assignmentTable struct {
		sync.RWMutex
		assignments map[string]*assignment.Assignment
		submissions map[string]*assignment.Submission
	}

	policyTable struct {
		sync.RWMutex
		table map[string]*policy.Policy
	}

	sessionTable struct {
		sync.RWMutex
		events     map[string]*session.CalendarEvent
		attendance map[string]*session.AttendanceLog
		notes      map[string]*session.SessionNote
	}

	billingTable struct {
		sync.RWMutex
		table map[string]*billing.Invoice
	}

	reportTable struct {
		sync.RWMutex
		table map[string]*report.MonthlyReport
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		relation:   &relationTable{table: make(map[string]*relation.Relationship)},
		visibility: &visibilityTable{table: make(map[string]*visibility.Setting)},
		audit:      &auditTable{},
		assignment: &assignmentTable{
			assignments: make(map[string]*assignment.Assignment),
			submissions: make(map[string]*assignment.Submission),
		},
		policy: &policyTable{table: make(map[string]*policy.Policy)},
		session: &sessionTable{
			events:     make(map[string]*session.CalendarEvent),
			attendance: make(map[string]*session.AttendanceLog),
			notes:      make(map[string]*session.SessionNote),
		},
		billing: &billingTable{table: make(map[string]*billing.Invoice)},
		report:  &reportTable{table: make(map[string]*report.MonthlyReport)},
	}
	return db, nil
}
