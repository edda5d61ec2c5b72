package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/shulehub/shule/apps/api/echo"
	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/attendance"
	"github.com/shulehub/shule/core/grading"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/signup"
	"github.com/shulehub/shule/core/user"
	emailsvc "github.com/shulehub/shule/services/email"
	logsvc "github.com/shulehub/shule/services/logger"
	reportsvc "github.com/shulehub/shule/services/report"
	"github.com/shulehub/shule/storage/database"
	boiledrepos "github.com/shulehub/shule/storage/database/sqlboiler"
	sqlxrepos "github.com/shulehub/shule/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	zl := logsvc.NewZerolog(os.Stdout, conf).With().Str("component", "api").Logger()
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	zl := logsvc.NewZerolog(os.Stdout, conf).With().Str("component", "db").Caller().Logger()
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newGradingRepository(db *sqlx.DB) grading.Repository {
	return boiledrepos.NewGradingRepository(db)
}

func newStudentStore(repo school.Repository) signup.StudentStore {
	return repo
}

func newDirectory(svc *school.Service) school.Directory {
	return svc
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	signup.InitValidators(validate, translator)
	return validate
}

type serverParams struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	UserSvc       user.Service
	SignupSvc     *signup.Service
	SchoolSvc     *school.Service
	AttendanceSvc *attendance.Service
	GradingSvc    *grading.Service
	ReportCards   *reportsvc.ReportCardWriter
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		SignupSvc:     p.SignupSvc,
		SchoolSvc:     p.SchoolSvc,
		AttendanceSvc: p.AttendanceSvc,
		GradingSvc:    p.GradingSvc,
		ReportCards:   p.ReportCards,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))

	// storage
	must(c.Provide(newDB))
	must(c.Provide(database.NewTransactor))
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewSchoolRepository, dig.As(new(school.Repository))))
	must(c.Provide(sqlxrepos.NewAttendanceRepository, dig.As(new(attendance.Repository))))
	must(c.Provide(newGradingRepository))
	must(c.Provide(newStudentStore))

	// services
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(school.NewService))
	must(c.Provide(newDirectory))
	must(c.Provide(signup.NewService))
	must(c.Provide(attendance.NewService))
	must(c.Provide(grading.NewService))
	must(c.Provide(reportsvc.NewReportCardWriter))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
