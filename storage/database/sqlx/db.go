// Package sqlxrepos implements the core repositories on PostgreSQL via sqlx.
package sqlxrepos

import (
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// pqUniqueViolation is the Postgres error code for unique constraint violations.
const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == pqUniqueViolation
}

func isNoRows(err error) bool {
	return errors.Cause(err) == sql.ErrNoRows
}

func marshal(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	return b, errors.Wrap(err, "marshaling column")
}

func unmarshal(b []byte, dest interface{}) error {
	if len(b) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(b, dest), "unmarshaling column")
}
