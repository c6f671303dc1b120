package tests

import (
	"os"
	"testing"
	"time"

	. "github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/discipline"
	"github.com/trezcool/mahudhurio/core/justification"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	inmemdb "github.com/trezcool/mahudhurio/storage/database/inmem"
	"github.com/trezcool/mahudhurio/storage/files"
)

var (
	app Server

	db         *inmemdb.DB
	usrRepo    user.Repository
	schoolRepo school.Repository
	attRepo    attendance.Repository
	justRepo   justification.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	// deterministic error payloads
	core.Conf.Debug = false
	core.Conf.TestMode = true

	// set up repos
	db = inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	schoolRepo = inmemdb.NewSchoolRepository(db)
	attRepo = inmemdb.NewAttendanceRepository(db)
	justRepo = inmemdb.NewJustificationRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	mediaDir, err := os.MkdirTemp("", "mahudhurio-test-media")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(mediaDir)
	fileStore, err := files.NewDiskStore(mediaDir)
	if err != nil {
		panic(err)
	}

	tokens := attendance.NewTokenService(core.Conf.SecretKey, 15*time.Minute)
	validate, translator := core.NewValidator()

	// set up server
	app = NewServer(
		&Options{
			DisableReqLogs:   true,
			Logger:           newTestLogger(),
			Validate:         validate,
			Translator:       translator,
			UserSvc:          user.NewService(usrRepo),
			SchoolSvc:        school.NewService(schoolRepo, usrRepo),
			AttendanceSvc:    attendance.NewService(attRepo, schoolRepo, usrRepo, tokens, nil, mailSvc),
			JustificationSvc: justification.NewService(justRepo, attRepo, schoolRepo, fileStore, core.Conf),
			DisciplineSvc:    discipline.NewService(inmemdb.NewDisciplineRepository(db), usrRepo, mailSvc),
		},
		nil, /* shutdown */
	)

	os.Exit(m.Run())
}
