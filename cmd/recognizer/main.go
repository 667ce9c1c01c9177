package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"object-recognizer/config"
	"object-recognizer/internal/infra/recognizer"
	"object-recognizer/internal/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	listenAddr := flag.String("listen", "", "listen address (overrides recognizer.listen_addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.New(config.LogConfig{}, os.Stderr).Error("loading config", "error", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.Recognizer.ListenAddr = *listenAddr
	}

	logger := logging.New(cfg.Log, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var detector recognizer.Detector
	yoloCfg := recognizer.DefaultYOLOConfig()
	yoloCfg.ModelPath = cfg.Recognizer.ModelPath
	yoloCfg.ConfidenceThresh = cfg.Recognizer.Confidence
	yoloCfg.NMSThresh = cfg.Recognizer.NMS

	yolo, err := recognizer.NewYOLODetector(yoloCfg)
	if err != nil {
		logger.Warn("object detector unavailable, every request will be answered with cannot search", "error", err)
		detector = recognizer.UnavailableDetector{Reason: err}
	} else {
		detector = yolo
	}
	defer detector.Close()

	ln, err := net.Listen("tcp", cfg.Recognizer.ListenAddr)
	if err != nil {
		logger.Error("listening", "addr", cfg.Recognizer.ListenAddr, "error", err)
		os.Exit(1)
	}

	server := recognizer.NewServer(detector, cfg.IdleTimeout(), logger)
	if err := server.Serve(ctx, ln); err != nil {
		logger.Error("recognition server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}
