package audit

import (
	"time"

	"github.com/trezcool/tutorhub/core"
)

var errIncompleteEntry = core.NewInvalidInputError("incomplete audit entry")

type (
	Repository interface {
		// AppendEntry appends; the trail is never updated in place.
		AppendEntry(entry Entry) (Entry, error)
		// FilterEntries applies AND operation on available QueryFilter fields,
		// newest first.
		FilterEntries(filter QueryFilter) ([]Entry, error)
	}

	Service struct {
		repo  Repository
		nowFn func() time.Time
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, nowFn: time.Now}
}

// NewServiceMock returns a Service with a caller-controlled clock. For tests.
func NewServiceMock(repo Repository, nowFn func() time.Time) *Service {
	return &Service{repo: repo, nowFn: nowFn}
}

// Record appends exactly one entry to the trail. A failed append must fail the
// surrounding operation; callers never swallow the returned error.
func (svc *Service) Record(entry Entry) (Entry, error) {
	if entry.Entity == "" || entry.EntityID == "" || entry.Action == "" {
		return Entry{}, errIncompleteEntry
	}
	entry.CreatedAt = svc.nowFn().UTC()
	return svc.repo.AppendEntry(entry)
}

func (svc *Service) Filter(filter QueryFilter) ([]Entry, error) {
	return svc.repo.FilterEntries(filter)
}
