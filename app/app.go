// Package app wires the service together: configuration, adapters, the
// session manager, the HTTP server, and the two background sweeps.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/intervue/interview-service/cache"
	"github.com/intervue/interview-service/coach"
	"github.com/intervue/interview-service/config"
	"github.com/intervue/interview-service/errs"
	"github.com/intervue/interview-service/health"
	"github.com/intervue/interview-service/interfaces"
	"github.com/intervue/interview-service/llm"
	"github.com/intervue/interview-service/orchestrator"
	"github.com/intervue/interview-service/repository"
	"github.com/intervue/interview-service/server"
	"github.com/intervue/interview-service/sessions"
	"github.com/intervue/interview-service/stt"
	"github.com/intervue/interview-service/tts"
)

// App holds the assembled service.
type App struct {
	Config  *config.Config
	Manager *sessions.Manager
	Repo    *repository.Repository
	Cache   *cache.DB
	Server  *server.Server

	sttClient *stt.Client
	log       *logrus.Entry
}

// New assembles the service from configuration. The interviewer is
// mandatory; speech adapters degrade to disabled when their credentials are
// absent so text-only interviews still work.
func New(cfg *config.Config) (*App, error) {
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	log := logrus.WithField("component", "app")

	repo, err := repository.New(cfg.Session.DataDir)
	if err != nil {
		return nil, fmt.Errorf("could not initialize session store: %w", err)
	}

	audioCache, err := cache.New(cfg)
	if err != nil {
		log.WithError(err).Warn("audio cache unavailable, continuing without it")
		audioCache = nil
	}

	interviewer, err := llm.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	var transcriber interfaces.Transcriber
	var sttClient *stt.Client
	sttClient, err = stt.New(context.Background())
	if err != nil {
		log.WithError(err).Warn("transcription unavailable, audio answers will be rejected")
		transcriber = unavailableTranscriber{}
		sttClient = nil
	} else {
		transcriber = sttClient
	}

	synthesizer := tts.New(cfg)

	deps := orchestrator.Deps{
		Interviewer: interviewer,
		Transcriber: transcriber,
		Synthesizer: synthesizer,
		Repo:        repo,
		AudioCache:  audioCache,
		Thresholds: coach.Thresholds{
			VolumeRMS:      cfg.Coach.VolumeThreshold,
			WPMFast:        cfg.Coach.WPMFast,
			WPMSlow:        cfg.Coach.WPMSlow,
			FillerWarn:     cfg.Coach.FillerWarn,
			FillerCritical: cfg.Coach.FillerCritical,
		},
	}

	manager := sessions.NewManager(deps)
	checker := health.NewChecker(manager, repo, audioCache, sttClient != nil, cfg.OpenAI.APIKey != "")
	srv := server.New(cfg, manager, checker)

	return &App{
		Config:    cfg,
		Manager:   manager,
		Repo:      repo,
		Cache:     audioCache,
		Server:    srv,
		sttClient: sttClient,
		log:       log,
	}, nil
}

// Run serves HTTP and runs the sweeps until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.sweepLoop(ctx)

	httpServer := &http.Server{
		Addr:    a.Config.HTTP.Addr,
		Handler: a.Server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", a.Config.HTTP.Addr).Info("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Error("http shutdown failed")
	}
	a.Close()
	return nil
}

// sweepLoop runs the in-memory idle sweep and the on-disk retention sweep on
// the same ticker. The two cutoffs are independent: eviction from memory
// keeps the document resumable, retention deletes it for good.
func (a *App) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(a.Config.Session.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Manager.SweepIdle(a.Config.Session.IdleTimeout)
			if _, err := a.Repo.CleanupOlderThan(a.Config.Session.Retention); err != nil {
				a.log.WithError(err).Error("retention sweep failed")
			}
		}
	}
}

// Close releases adapter connections.
func (a *App) Close() {
	if a.sttClient != nil {
		a.sttClient.Close()
	}
	if err := a.Cache.Close(); err != nil {
		a.log.WithError(err).Warn("cache close failed")
	}
}

// unavailableTranscriber rejects audio answers when no speech credentials
// were provided at startup.
type unavailableTranscriber struct{}

func (unavailableTranscriber) Transcribe(ctx context.Context, audio []byte, sampleRate int) (string, error) {
	return "", errs.Transcription(errors.New("no speech credentials configured"))
}
