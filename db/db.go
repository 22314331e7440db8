package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/infieles/reportes/config"
	"github.com/infieles/reportes/logger"
	"github.com/infieles/reportes/models"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type GormDB struct {
	DB *gorm.DB
}

// GetDB opens the configured database and checks it is reachable.
func GetDB(ctx context.Context, c *config.Config, log logger.LoggerService) (*GormDB, error) {
	gormDB := &GormDB{}
	if err := gormDB.Init(ctx, c, log); err != nil {
		return nil, err
	}
	return gormDB, nil
}

func (g *GormDB) Init(ctx context.Context, c *config.Config, log logger.LoggerService) error {
	gormConfig := &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  newGormLogger(log, c.IsProduction()),
	}

	var dialector gorm.Dialector
	switch c.DBDriver {
	case config.DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(c.DatabaseURL))
	default:
		log.Info("connecting to postgres at %s/%s", c.PostgresHost, c.PostgresDB)
		dialector = postgres.New(postgres.Config{DSN: c.PostgresDSN()})
	}

	gdb, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB")
	}
	if c.DBDriver == config.DriverSQLite {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(c.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(c.DBMaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(c.DBConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(c.DBConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return errors.Wrap(err, "failed to ping database")
	}

	g.DB = gdb
	return nil
}

// Migrate creates or updates the reportes and evidencias tables.
func (g *GormDB) Migrate() error {
	return migrate(g.DB)
}

func (g *GormDB) Close() error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Report{},
		&models.Evidence{},
	)
	if err != nil {
		return fmt.Errorf("migrations error: %v", err)
	}
	return nil
}

// sqliteDSN turns on foreign keys so evidence rows cascade with their report.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_pragma=foreign_keys") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

type gormWriter struct {
	log logger.LoggerService
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Info(format, args...)
}

func newGormLogger(log logger.LoggerService, production bool) gormlogger.Interface {
	level := gormlogger.Info
	if production {
		level = gormlogger.Warn
	}
	return gormlogger.New(gormWriter{log: log.Named("gorm")}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
