package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/NOLA9TECH-AI/G-Bot/internal/avatar"
	"github.com/NOLA9TECH-AI/G-Bot/internal/bus"
	"github.com/NOLA9TECH-AI/G-Bot/internal/config"
	"github.com/NOLA9TECH-AI/G-Bot/internal/devices"
	"github.com/NOLA9TECH-AI/G-Bot/internal/gen"
	"github.com/NOLA9TECH-AI/G-Bot/internal/logging"
	"github.com/NOLA9TECH-AI/G-Bot/internal/playback"
	"github.com/NOLA9TECH-AI/G-Bot/internal/realtime"
	"github.com/NOLA9TECH-AI/G-Bot/internal/scene"
)

const frameRate = 60

func main() {
	modelPath := flag.String("model", "", "override the avatar model path")
	noAudio := flag.Bool("no-audio", false, "run without microphone and speaker")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(*logLevel)
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	log := logger.Component("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := bus.NewEventBus()

	path := cfg.Avatar.ModelPath
	if *modelPath != "" {
		path = *modelPath
	}
	model, err := scene.LoadModel(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Model load failed, animations disabled")
		model = nil
	} else {
		log.Info().Str("model", model.Name).Int("clips", len(model.Clips)).Msg("Model loaded")
	}

	controller := avatar.NewController(model, cfg, events, logger.Component("avatar"))
	go controller.Life().Run(ctx)

	// Audio out: scheduled PCM through the speaker, or discarded when audio
	// is off.
	clock := playback.NewSystemClock()
	var output playback.Output = discardOutput{}
	if !*noAudio {
		speaker, err := devices.NewSpeakerOutput(cfg.Audio.OutputSampleRate, clock, logger.Component("devices"))
		if err != nil {
			log.Warn().Err(err).Msg("Speaker unavailable, discarding audio")
		} else {
			defer speaker.Close()
			output = speaker
		}
	}
	scheduler := playback.NewScheduler(output, clock, playback.Config{
		SampleRate: cfg.Audio.OutputSampleRate,
		Channels:   cfg.Audio.Channels,
	}, logger.Component("playback"))

	// Live session.
	session := realtime.NewSession(realtime.Options{
		ServerURL:         cfg.Realtime.ServerURL,
		APIKey:            cfg.Realtime.APIKey,
		Model:             cfg.Realtime.Model,
		Voice:             cfg.Realtime.Voice,
		SystemInstruction: cfg.Realtime.SystemInstruction,
		HandshakeTimeout:  cfg.Realtime.HandshakeTimeout,
		VideoFrameRate:    cfg.Realtime.VideoFrameRate,
		Tools:             realtime.DefaultToolDeclarations(),
	}, events, logger.Component("realtime"))

	dispatcher := realtime.NewToolDispatcher(session, logger.Component("tools"))
	genClient := gen.NewClient(logger.Component("gen"), &gen.Config{
		BaseURL: cfg.Gen.BaseURL,
		APIKey:  cfg.Gen.APIKey,
		Timeout: cfg.Gen.Timeout,
	})
	avatar.RegisterTools(dispatcher, controller, session, genClient, genClient)

	demux := realtime.NewDemuxer(realtime.Handlers{
		OnAudio: func(pcm []byte) {
			if err := scheduler.Enqueue(pcm); err != nil {
				log.Warn().Err(err).Msg("Audio chunk dropped")
			}
		},
		OnBotTalking:   controller.OnBotTalking,
		OnTurnComplete: controller.OnTurnComplete,
		OnInterrupted: func() {
			scheduler.StopAll()
			controller.OnInterrupted()
		},
		OnToolCalls: func(calls []realtime.FunctionCall) {
			dispatcher.Dispatch(ctx, calls)
		},
		OnGoAway: cancel,
	}, events, logger.Component("demux"))

	if err := session.Connect(ctx); err != nil {
		log.Error().Err(err).Msg("Live session unavailable, running offline")
	} else {
		defer session.Close()
		controller.OnConnected()
		go demux.Run(ctx, session)

		if !*noAudio {
			mic, err := devices.NewMicSource(cfg.Audio.InputSampleRate, cfg.Audio.FrameSize, logger.Component("devices"))
			if err != nil {
				log.Warn().Err(err).Msg("Microphone unavailable")
			} else {
				defer mic.Close()
				go session.PumpAudio(ctx, mic)
			}
		}

		// The pump idles until set_visual_mode turns visual mode on.
		camera := devices.NewCameraGrabber(cfg.Realtime.CameraDevice, cfg.Realtime.VideoMaxDim, logger.Component("devices"))
		go session.PumpVideo(ctx, camera)
	}

	// Live config reload: theme edits apply without a restart.
	go func() {
		err := config.Watch(ctx, logger.Component("config"), func(updated *config.Config) {
			if err := controller.SetTheme(updated.Theme); err != nil {
				log.Warn().Err(err).Msg("Reloaded theme rejected")
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("Config watcher unavailable")
		}
	}()

	go runConsole(ctx, os.Stdin, os.Stdout, genClient, logger.Component("console"))
	go runFrameLoop(ctx, controller, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case <-ctx.Done():
		log.Info().Msg("Session ended, shutting down")
	}
	cancel()
}

// runFrameLoop drives the avatar at a fixed tick, passing real elapsed time
// so a stalled tick doesn't slow animations down.
func runFrameLoop(ctx context.Context, controller *avatar.Controller, log zerolog.Logger) {
	ticker := time.NewTicker(time.Second / frameRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			controller.Update(float32(now.Sub(last).Seconds()))
			last = now
		}
	}
}

// discardOutput drops scheduled audio when no speaker is available.
type discardOutput struct{}

type discardSource struct{}

func (discardSource) Stop() {}

func (discardOutput) Schedule([]float32, int, float64) playback.Source {
	return discardSource{}
}
