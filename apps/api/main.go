package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/discipline"
	"github.com/trezcool/mahudhurio/core/justification"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/storage/database"
	sqlxrepos "github.com/trezcool/mahudhurio/storage/database/sqlx"
	"github.com/trezcool/mahudhurio/storage/files"
)

func main() {
	conf := core.Conf

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()
	if err = database.Ping(db); err != nil {
		logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
	}
	if err = database.Migrate(db.DB); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	fileStore, err := files.NewDiskStore(conf.MediaRoot)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file store: %v", err), err)
	}

	userRepo := sqlxrepos.NewUserRepository(db)
	schoolRepo := sqlxrepos.NewSchoolRepository(db)
	attRepo := sqlxrepos.NewAttendanceRepository(db)
	justRepo := sqlxrepos.NewJustificationRepository(db)
	discRepo := sqlxrepos.NewDisciplineRepository(db)

	usrSvc := user.NewService(userRepo)
	schoolSvc := school.NewService(schoolRepo, userRepo)
	tokenSvc := attendance.NewTokenService(conf.SecretKey, conf.AttendanceTokenTTL)
	attSvc := attendance.NewService(attRepo, schoolRepo, userRepo, tokenSvc, nil, mailSvc)
	justSvc := justification.NewService(justRepo, attRepo, schoolRepo, fileStore, conf)
	discSvc := discipline.NewService(discRepo, userRepo, mailSvc)

	validate, translator := core.NewValidator()

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Addr:             conf.Server.Address(),
			Logger:           logger,
			Validate:         validate,
			Translator:       translator,
			UserSvc:          usrSvc,
			SchoolSvc:        schoolSvc,
			AttendanceSvc:    attSvc,
			JustificationSvc: justSvc,
			DisciplineSvc:    discSvc,
		},
		shutdown,
	)

	go server.Start()

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}
