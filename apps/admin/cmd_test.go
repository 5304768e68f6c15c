package main

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tutorhub/core/audit"
	"github.com/trezcool/tutorhub/core/policy"
	"github.com/trezcool/tutorhub/core/user"
	dummydb "github.com/trezcool/tutorhub/storage/database/dummy"
)

var usrSvc *user.Service

func setup(t *testing.T) *commandLine {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	auditSvc := audit.NewService(dummydb.NewAuditRepository(db))
	usrSvc = user.NewService(dummydb.NewUserRepository(db), auditSvc)

	return &commandLine{
		usrSvc: usrSvc,
		polSvc: policy.NewService(dummydb.NewPolicyRepository(db), auditSvc),
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var called bool
	migrateFunc = func(db *sql.DB) error {
		called = true
		return nil
	}

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	assert.True(t, called)
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "missing flags", args: []string{"adduser", "-name", "Jo"}, wantErr: errHelp},
		{name: "empty password", args: []string{"adduser", "-name", "Jo", "-email", "jo@test.cm", "-role", user.RoleStudent}, wantErr: errHelp},
		{name: "bad role", args: []string{"adduser", "-name", "Jo", "-email", "jo@test.cm", "-role", "Boss"}, pwd: "s3cr3t", wantErr: user.ErrUnsupportedRole},
		{name: "ok", args: []string{"adduser", "-name", "Jo", "-email", "jo@test.cm", "-role", user.RoleStudent}, pwd: "s3cr3t"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			if err != nil {
				t.Fatalf("cli.run() unexpected error = %v", err)
			}
			usr, err := usrSvc.GetByEmail("jo@test.cm")
			if err != nil {
				t.Fatalf("GetByEmail() failed: %v", err)
			}
			assert.NoError(t, usr.CheckPassword("s3cr3t"))
		})
	}
}

func Test_commandLine_seedPolicy(t *testing.T) {
	cli := setup(t)

	if err := cli.run([]string{"admin", "seedpolicy"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}

	eval, err := cli.polSvc.ApplyException("admin", policy.Exception{
		Type:    policy.ExceptionMakeUp,
		Context: map[string]interface{}{},
	})
	if err != nil {
		t.Fatalf("ApplyException() failed: %v", err)
	}
	assert.Equal(t, 7, eval.Outcome["window_days"])
	assert.Equal(t, "weekday_evenings", eval.Outcome["slots"])
}
