package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/config"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/dashboard"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/events"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := dashboard.NewState(config.DefaultLanguage())
	if tz := config.DashboardTZ(); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			log.Fatal().Err(err).Str("tz", tz).Msg("unknown dashboard time zone")
		}
		state.SetLocation(loc)
	}

	api := dashboard.NewClient(config.APIURL())
	s := dashboard.New(api, api.Health, state)

	if broker := config.MQTTBroker(); broker != "" {
		client, err := events.Subscribe(broker, "oed-dashboard", config.MQTTTopic(), s.HandleChange)
		if err != nil {
			log.Fatal().Err(err).Str("broker", broker).Msg("mqtt subscribe failed")
		}
		defer client.Disconnect(250)
	}

	go s.Run(ctx, time.Minute)

	srv := &http.Server{Addr: config.DashboardAddr(), Handler: s}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", srv.Addr).Str("api", config.APIURL()).Msg("dashboard listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exit")
	}
}
