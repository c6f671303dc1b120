package main

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/mahudhurio/core/user"
	inmemdb "github.com/trezcool/mahudhurio/storage/database/inmem"
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	db, err := sqlx.Open("postgres", "postgres://localhost/ignored")
	if err != nil {
		t.Fatalf("sqlx.Open(): %v", err)
	}
	return &commandLine{
		db:      db,
		usrRepo: inmemdb.NewUserRepository(inmemdb.NewDB()),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_run(t *testing.T) {
	cli := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("S3cretPass!x"), nil }
	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error { return nil }

	tests := []cliTest{
		{name: "no args", args: nil, wantErr: errHelp},
		{name: "unknown command", args: []string{"frobnicate"}, wantErr: errHelp},
		{name: "adduser missing flags", args: []string{"adduser"}, wantErr: errHelp},
		{name: "adduser missing email", args: []string{"adduser", "-username", "jdoe"}, wantErr: errHelp},
		{name: "adduser", args: []string{"adduser", "-username", "jdoe", "-email", "jdoe@test.cd"}},
		{name: "adduser admin", args: []string{"adduser", "-username", "boss", "-email", "boss@test.cd", "-admin"}},
		{name: "migrate default", args: []string{"migrate"}},
		{name: "migrate status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			if err != tt.wantErr {
				if tt.wantErrStr == "" || err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("run() error = %v, wantErr %v", err, tt.wantErr)
				}
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	if err := cli.addUser("JDoe", "JDOE@Test.cd", "S3cretPass!x", false); err != nil {
		t.Fatalf("addUser() failed: %v", err)
	}

	usr, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{Username: "jdoe"})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if usr.Email != "jdoe@test.cd" {
		t.Errorf("email = %v, want lowercased jdoe@test.cd", usr.Email)
	}
	if !usr.IsActive || !usr.IsStudent() {
		t.Errorf("user = %+v, want active student", usr)
	}
	if err = usr.CheckPassword("S3cretPass!x"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}

	// duplicates are rejected
	if err = cli.addUser("jdoe", "jdoe@test.cd", "S3cretPass!x", false); err == nil {
		t.Error("addUser() should reject an existing username")
	}

	// admins get the full role set
	if err = cli.addUser("boss", "boss@test.cd", "S3cretPass!x", true); err != nil {
		t.Fatalf("addUser() admin failed: %v", err)
	}
	boss, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{Username: "boss"})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if !boss.IsAdmin() {
		t.Errorf("boss roles = %v, want admin", boss.Roles)
	}
}
