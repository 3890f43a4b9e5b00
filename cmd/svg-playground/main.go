package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/svg-playground/db"
	"github.com/thatsimonsguy/svg-playground/internal/api"
	"github.com/thatsimonsguy/svg-playground/internal/binding"
	"github.com/thatsimonsguy/svg-playground/internal/config"
	"github.com/thatsimonsguy/svg-playground/internal/datadog"
	"github.com/thatsimonsguy/svg-playground/internal/env"
	"github.com/thatsimonsguy/svg-playground/internal/feed/modbus"
	"github.com/thatsimonsguy/svg-playground/internal/feed/mqtt"
	"github.com/thatsimonsguy/svg-playground/internal/logging"
	"github.com/thatsimonsguy/svg-playground/internal/notifications"
	"github.com/thatsimonsguy/svg-playground/internal/scene"
	"github.com/thatsimonsguy/svg-playground/internal/store"
	"github.com/thatsimonsguy/svg-playground/internal/surface"
	"github.com/thatsimonsguy/svg-playground/internal/svgdoc"
	"github.com/thatsimonsguy/svg-playground/system/shutdown"
)

func main() {
	cfg := config.Load()
	env.Cfg = &cfg
	logging.Init(cfg.LogLevel, cfg.LogFile)

	log.Info().
		Str("config_file", cfg.ConfigFile).
		Str("db_path", cfg.DBPath).
		Str("state_file", cfg.StateFile).
		Msg("Starting SVG playground")

	shutdown.HandleSignals()

	datadog.InitMetrics()
	shutdown.OnShutdown(datadog.Close)
	notifications.Init()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		shutdown.ShutdownWithError(err, "Failed to open database")
		return
	}
	shutdown.OnShutdown(func() { database.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	shutdown.OnShutdown(cancel)

	reporter := scene.Reporters{scene.LogReporter{}, notifications.Reporter{}}
	ctrl := scene.NewController(
		svgdoc.Loader{},
		binding.Factory{Attribute: cfg.BindingAttribute},
		nil,
		reporter,
		scene.Options{BindingAttribute: cfg.BindingAttribute, ZoomStep: cfg.ZoomStep},
	)
	loop := scene.NewLoop(ctrl, cfg.QueueDepth)
	frames := surface.NewFrames(loop)
	ctrl.SetSurface(frames)

	go loop.Run(ctx)
	go frames.Run(ctx)

	st := store.New(cfg.StateFile)
	restoreSession(ctx, st, loop, database, &cfg)
	shutdown.OnShutdown(func() { saveSession(st, loop) })

	if cfg.MQTT.Enabled {
		startMQTT(loop, cfg.MQTT)
	}
	for _, src := range cfg.Modbus {
		go modbus.NewPoller(src, loop).Run(ctx)
	}

	if cfg.APIPort == 0 {
		log.Info().Msg("API disabled, running headless")
		select {}
	}

	server := api.NewServer(database, loop, frames, &cfg)
	shutdown.OnShutdown(func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := server.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("API server did not shut down cleanly")
		}
	})

	if err := server.Start(cfg.APIPort); err != nil {
		shutdown.ShutdownWithError(err, "API server failed")
		return
	}

	select {}
}

// restoreSession opens the document given on the command line, or the one
// open at the last shutdown, at the scale it was viewed with.
func restoreSession(ctx context.Context, st *store.Store, loop *scene.Loop, database *sql.DB, cfg *config.Config) {
	session, err := st.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load previous session, starting empty")
		session = &store.Session{Scale: 1}
	}

	path := session.Path
	if cfg.SVG != "" {
		path = cfg.SVG
	}
	if path == "" {
		log.Info().Msg("No document to open at startup")
		return
	}

	var title string
	err = loop.Do(ctx, func(c *scene.Controller) error {
		if session.Scale > 0 {
			c.SetScale(session.Scale)
		}
		if err := c.Load(path); err != nil {
			return err
		}
		title = c.Title()
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Could not reopen document")
		return
	}
	if err := db.RecordDocument(database, path, title, time.Now(), cfg.RecentDocuments); err != nil {
		log.Warn().Err(err).Msg("Failed to record recent document")
	}
	log.Info().Str("path", path).Str("title", title).Msg("Session restored")
}

func saveSession(st *store.Store, loop *scene.Loop) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var session store.Session
	err := loop.Do(ctx, func(c *scene.Controller) error {
		session = store.Session{Path: c.Path(), Scale: c.Scale()}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("Could not read session from update loop")
		return
	}
	if err := st.Save(&session); err != nil {
		log.Warn().Err(err).Msg("Failed to save session")
		return
	}
	log.Info().Str("path", session.Path).Float64("scale", session.Scale).Msg("Session saved")
}

func startMQTT(loop *scene.Loop, cfg config.MQTT) {
	sub, err := mqtt.NewRealSubscriber(cfg.Broker, cfg.ClientID)
	if err != nil {
		log.Error().Err(err).Str("broker", cfg.Broker).Msg("MQTT feed disabled")
		return
	}
	shutdown.OnShutdown(func() { sub.Close() })

	feed := mqtt.NewFeed(sub, loop, mqtt.FeedConfig{
		TopicPrefix:   cfg.TopicPrefix,
		PayloadFormat: cfg.PayloadFormat,
		QoS:           cfg.QoS,
	})
	if err := feed.Start(); err != nil {
		log.Error().Err(err).Msg("MQTT feed disabled")
	}
}
