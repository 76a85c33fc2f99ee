package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/cloud"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/config"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/database"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/events"
	httpHandlers "github.com/ANIKETSHETTY47/open-energy-dashboard/internal/http"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	opts := []service.Option{
		service.WithTokenTTL(config.TokenTTL()),
		service.WithMaxLinePoints(config.MaxLinePoints()),
	}
	if broker := config.MQTTBroker(); broker != "" {
		pub, err := events.NewMQTTPublisher(broker, "oed-api", config.MQTTTopic())
		if err != nil {
			log.Fatal().Err(err).Str("broker", broker).Msg("mqtt connect failed")
		}
		defer pub.Close()
		opts = append(opts, service.WithPublisher(pub))
		log.Info().Str("broker", broker).Str("topic", config.MQTTTopic()).Msg("publishing changes")
	}
	if config.UseCloudServices() {
		archive, err := cloud.NewMapArchive(ctx, config.AWSRegion(), config.S3Bucket())
		if err != nil {
			log.Fatal().Err(err).Msg("s3 setup failed")
		}
		opts = append(opts, service.WithArchive(archive))
		log.Info().Str("bucket", config.S3Bucket()).Msg("archiving map sources")
	}

	svcs := service.New(db, opts...)
	go pruneSessions(ctx, svcs.Auth)

	app := fiber.New()

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })

	httpHandlers.Register(app, svcs, httpHandlers.Options{
		LoginRate:  rate.Limit(config.LoginRate()),
		LoginBurst: config.LoginBurst(),
	})

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Msg("api listening")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server exit")
	}
}

func pruneSessions(ctx context.Context, auth *service.AuthService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := auth.PruneSessions(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("session prune failed")
				continue
			}
			log.Debug().Int64("removed", n).Msg("sessions pruned")
		}
	}
}
