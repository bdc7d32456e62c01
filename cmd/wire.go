package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	tui "github.com/Smailkiller/FOXFOCUS/internal/app"
	"github.com/Smailkiller/FOXFOCUS/internal/audio/portaudio"
	"github.com/Smailkiller/FOXFOCUS/internal/clock"
	"github.com/Smailkiller/FOXFOCUS/internal/config"
	"github.com/Smailkiller/FOXFOCUS/internal/db"
	"github.com/Smailkiller/FOXFOCUS/internal/dictation"
	"github.com/Smailkiller/FOXFOCUS/internal/dictation/cloud"
	"github.com/Smailkiller/FOXFOCUS/internal/dictation/local"
	"github.com/Smailkiller/FOXFOCUS/internal/history"
	"github.com/Smailkiller/FOXFOCUS/internal/logging"
	"github.com/Smailkiller/FOXFOCUS/internal/netwatch"
	"github.com/Smailkiller/FOXFOCUS/internal/notify"
	"github.com/Smailkiller/FOXFOCUS/internal/session"
	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var errNoArchive = errors.New("no session archive")

type app struct {
	cfg     config.Config
	log     zerolog.Logger
	closers []io.Closer
}

func wireApp(configPath string) (*app, error) {
	cfg, err := config.Load(viper.New(), configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, logCloser, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	return &app{cfg: cfg, log: log, closers: []io.Closer{logCloser}}, nil
}

// Close releases everything opened while wiring, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) newModel() (tui.Model, error) {
	var sink history.Sink
	if a.cfg.History.Archive {
		store, err := db.Open(a.cfg.History.ArchivePath)
		if err != nil {
			return tui.Model{}, fmt.Errorf("wire session archive: %w", err)
		}
		a.closers = append(a.closers, store)
		sink = store
	}

	hist := history.NewStore(sink, a.log.With().Str("component", "history").Logger())
	lifecycle := session.NewLifecycle(clock.TickerScheduler{}, hist,
		session.WithLogger(a.log.With().Str("component", "session").Logger()))

	prober := netwatch.NewProber(a.cfg.Network.ProbeAddr, a.cfg.Network.ProbeTimeout)
	selector := dictation.NewSelector(prober, a.newCloud(), a.newLocal())
	controller := dictation.NewController(selector, lifecycle, a.log.With().Str("component", "dictation").Logger())

	return tui.New(tui.Config{
		Lifecycle:     lifecycle,
		History:       hist,
		Dictation:     controller,
		Network:       prober,
		ProbeInterval: a.cfg.Network.Interval,
		Notifier:      notify.New(a.cfg.Notify.Desktop, a.log),
		Copy:          clipboard.WriteAll,
		Log:           a.log.With().Str("component", "tui").Logger(),
	}), nil
}

func (a *app) newCloud() *cloud.Transcriber {
	log := a.log.With().Str("component", "cloud").Logger()
	device := &portaudio.Device{
		SampleRate: a.cfg.Audio.SampleRate,
		Channels:   a.cfg.Audio.Channels,
		Log:        log,
	}

	var service cloud.Service = cloud.Unconfigured{}
	if a.cfg.Cloud.Enabled() {
		azure, err := cloud.NewAzureService(a.cfg.Cloud.Endpoint, a.cfg.Cloud.APIKey, a.cfg.Cloud.Deployment)
		if err != nil {
			log.Warn().Err(err).Msg("cloud transcription disabled")
		} else {
			service = azure
		}
	} else {
		log.Warn().Msg("cloud transcription not configured")
	}

	return cloud.New(device, service, a.cfg.Cloud.Timeout, log,
		cloud.WithLanguage(a.cfg.Cloud.Language),
		cloud.WithInstruction(a.cfg.Cloud.Instruction))
}

func (a *app) newLocal() *local.Transcriber {
	return local.New(a.cfg.Local.Socket, a.cfg.Local.Locale, a.cfg.Local.StopTimeout,
		a.log.With().Str("component", "local").Logger())
}

// openArchive opens the configured archive for reading.
func (a *app) openArchive() (*db.Store, error) {
	path := a.cfg.History.ArchivePath
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s (set history.archive = true to start one)", errNoArchive, path)
		}
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	store, err := db.OpenReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	a.closers = append(a.closers, store)
	return store, nil
}
