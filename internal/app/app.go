package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/config"
	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/handlers"
	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/hype"
	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/models"
	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/monitor"
	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/util"
)

func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return err
	}
	util.SetLocation(loc)

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return err
	}

	notifier, err := hype.NotifierByName(cfg.Ledger.Notifier, db)
	if err != nil {
		return err
	}
	ledger := hype.New(db,
		hype.WithWelcomeGrant(cfg.Ledger.WelcomeGrant),
		hype.WithNotifier(notifier),
	)

	r := gin.Default()
	h := handlers.New(db, ledger)
	h.RegisterRoutes(r)

	go monitor.StartScheduler(context.Background(), db, ledger, cfg.Ledger.MonitorInterval)

	logrus.Infof("listening on :%s", cfg.Server.Port)
	return r.Run(":" + cfg.Server.Port)
}
