package db

import (
	"context"
	"fmt"
	"photofeed/config"
	"photofeed/models"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

var ORM *gorm.DB

// QueryTimeout - дедлайн на один вызов хранилища, после него операция считается неуспешной
var QueryTimeout = 5 * time.Second

// Models - все таблицы сервиса в порядке миграции
var Models = []interface{}{
	&models.User{},
	&models.Follow{},
	&models.Post{},
	&models.PostLike{},
	&models.Comment{},
}

func dsnFromConfig(dbConf config.DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.Port, dbConf.User, dbConf.Password, dbConf.Name,
	)
}

func dialector(dbConf config.DBConfig) (gorm.Dialector, error) {
	switch dbConf.Driver {
	case "", "postgres":
		return postgres.Open(dsnFromConfig(dbConf)), nil
	case "sqlite":
		path := dbConf.Path
		if path == "" {
			path = "photofeed.db"
		}
		return sqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbConf.Driver)
	}
}

func ConnectDB() (err error) {
	if ORM != nil {
		log.Info("ORM is already initialized")
		return nil
	}

	var conf = config.AppConfig
	if conf == nil {
		return fmt.Errorf("AppConfig is not loaded")
	}
	if conf.Databases.Master.Driver != "sqlite" && conf.Databases.Master.Host == "" {
		return fmt.Errorf("master database configuration is missing")
	}

	masterDialector, err := dialector(conf.Databases.Master)
	if err != nil {
		return err
	}

	db, err := gorm.Open(masterDialector, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
			NoLowerCase:   false,
		},
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return err
	}

	// Реплики используются только для чтения ленты и списков
	replicas := make([]gorm.Dialector, 0, len(conf.Databases.Replicas))
	for _, r := range conf.Databases.Replicas {
		d, err := dialector(r)
		if err != nil {
			return err
		}
		replicas = append(replicas, d)
	}
	if len(replicas) > 0 {
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return err
		}
	}

	if conf.Databases.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		sqlDB.SetMaxOpenConns(conf.Databases.MaxOpenConns)
	}

	if err = Migrate(db); err != nil {
		return err
	}
	if conf.Databases.Master.Driver != "sqlite" {
		if err = CreateSearchIndexes(db); err != nil {
			// поиск работает и без trigram индекса, только медленнее
			log.WithError(err).Warn("failed to create trigram index for username search")
		}
	}

	QueryTimeout = conf.Databases.QueryTimeout
	ORM = db
	log.WithFields(log.Fields{
		"driver":   conf.Databases.Master.Driver,
		"replicas": len(replicas),
	}).Info("database connected")
	return nil
}

// Migrate создает таблицы, индексы и ограничения моделей
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}

// GetReadOnlyDB возвращает подключение для чтения (слейвы)
func GetReadOnlyDB(ctx context.Context) *gorm.DB {
	return ORM.WithContext(ctx).Clauses(dbresolver.Read)
}

// GetWriteDB возвращает подключение для записи (мастер)
func GetWriteDB(ctx context.Context) *gorm.DB {
	return ORM.WithContext(ctx).Clauses(dbresolver.Write)
}

// WithTimeout ограничивает вызов хранилища дедлайном QueryTimeout
func WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, QueryTimeout)
}
