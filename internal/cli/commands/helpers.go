package commands

import (
	"fmt"

	"github.com/aki/nexus/internal/adapters/tmux"
	"github.com/aki/nexus/internal/core/addressbook"
	"github.com/aki/nexus/internal/core/config"
	"github.com/aki/nexus/internal/core/logger"
	"github.com/aki/nexus/internal/core/message"
	"github.com/aki/nexus/internal/core/queue"
	"github.com/aki/nexus/internal/core/relay"
	"github.com/aki/nexus/internal/core/schedule"
	"github.com/aki/nexus/internal/core/stabilizer"
	"github.com/aki/nexus/internal/core/surface"
)

// newTmuxAdapter is replaced in tests
var newTmuxAdapter = tmux.NewAdapter

// loadSettings loads the settings file named by --config
func loadSettings() (*config.Settings, error) {
	settings, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func newStore(s *config.Settings, sched *schedule.Scheduler, log logger.Logger) *queue.Store {
	return queue.NewStore(queue.Options{
		InboxDir:     s.InboxDir,
		ProcessedDir: s.ProcessedDir,
		MaturityWait: s.MaturityWait(),
		Scheduler:    sched,
		Logger:       log,
	})
}

// addressOptions describes where the address book comes from. Discovery is
// only attached when an adapter is given and auto detection is on.
func addressOptions(s *config.Settings, adapter tmux.Adapter, log logger.Logger) addressbook.Options {
	opts := addressbook.Options{Path: s.AddressesFile, Logger: log}
	if adapter != nil && s.AutoDetectAddresses {
		opts.Discoverer = tmux.NewDiscoverer(adapter)
	}
	return opts
}

// buildDaemon wires the relay from settings over a tmux adapter. wake may be
// nil, in which case the daemon only polls.
func buildDaemon(s *config.Settings, store *queue.Store, adapter tmux.Adapter, sched *schedule.Scheduler, log logger.Logger, wake <-chan struct{}) (*relay.Daemon, error) {
	submit, err := surface.ParseSubmitMode(s.SubmitMode)
	if err != nil {
		return nil, err
	}
	method, err := surface.ParseInputMethod(s.InputMethod)
	if err != nil {
		return nil, err
	}
	legacy, err := message.LegacyEncoding(s.LegacyEncoding)
	if err != nil {
		return nil, err
	}

	var recoverer surface.Recoverer
	if s.OCREnabled() {
		r, err := surface.NewCommandRecoverer(s.OCRCommand, s.OCRTimeout())
		if err != nil {
			return nil, fmt.Errorf("invalid ocr_command: %w", err)
		}
		recoverer = r
	}

	gateway := surface.NewGateway(tmux.NewSurface(adapter, sched), surface.SendOptions{
		SubmitMode:     submit,
		InputMethod:    method,
		TypePause:      s.TypePause(),
		PreSubmitDelay: s.PreSubmitDelay(),
	}, log)
	stab := stabilizer.New(stabilizer.Config{
		MinGrowth:     s.MinGrowthChars,
		StabilityWait: s.StabilityWait(),
		PollInterval:  s.ResponsePollInterval(),
		Timeout:       s.CaptureTimeout(),
		SuffixOnly:    s.CaptureSuffixOnly,
	}, sched, log)

	daemon := relay.New(relay.Options{
		Store:             store,
		Addresses:         addressOptions(s, adapter, log),
		Gateway:           gateway,
		Stabilizer:        stab,
		Recoverer:         recoverer,
		Scheduler:         sched,
		Logger:            log,
		PollInterval:      s.PollInterval(),
		PostSendWait:      s.PostSendWait(),
		DefaultAddressKey: s.DefaultAddressKey,
		ReplyToSender:     s.ReplyToSender,
		Legacy:            legacy,
		Wake:              wake,
	})
	return daemon, nil
}
