package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/director/internal/asset"
	"github.com/ivlev/director/internal/config"
	"github.com/ivlev/director/internal/export"
	"github.com/ivlev/director/internal/loader"
	"github.com/ivlev/director/internal/render"
	"github.com/ivlev/director/internal/request"
	"github.com/ivlev/director/internal/system"
)

var buildVersion = "dev"

func main() {
	system.InitResourceLimits()

	requestPtr := flag.String("request", "", "Path to the movie request YAML")
	outputPtr := flag.String("output", "", "Output video path (default: output/<request>_<timestamp>.mp4)")
	widthPtr := flag.Int("width", 0, "Override movie width")
	heightPtr := flag.Int("height", 0, "Override movie height")
	fpsPtr := flag.Int("fps", 0, "Override movie FPS")
	workersPtr := flag.Int("workers", 0, "Worker count (default: auto from CPU and memory)")
	encoderPtr := flag.String("encoder", "auto", "Video encoder: auto, libx264, h264_nvenc, h264_videotoolbox")
	qualityPtr := flag.Int("quality", 23, "Encoder quality (crf/cq, or bitrate factor for videotoolbox)")
	checkPtr := flag.Bool("check", false, "Validate the request and exit without rendering")
	statsPtr := flag.Bool("stats", false, "Print a performance report")

	flag.Parse()

	if *requestPtr == "" {
		log.Fatal("[-] -request is required")
	}

	req, err := request.Read(*requestPtr)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}

	cfg := &config.Config{
		RequestPath:  *requestPtr,
		OutputVideo:  *outputPtr,
		Width:        *widthPtr,
		Height:       *heightPtr,
		FPS:          *fpsPtr,
		Workers:      *workersPtr,
		VideoEncoder: *encoderPtr,
		Quality:      *qualityPtr,
		ShowStats:    *statsPtr,
		BuildVersion: buildVersion,
	}
	if cfg.OutputVideo == "" {
		base := strings.TrimSuffix(filepath.Base(*requestPtr), filepath.Ext(*requestPtr))
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		cfg.OutputVideo = filepath.Join("output", fmt.Sprintf("%s_%s.mp4", base, timestamp))
	}
	if cfg.VideoEncoder == "auto" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		fmt.Printf("[*] Encoder: %s\n", cfg.VideoEncoder)
	}

	// Assets resolve relative to the request file, then the declared
	// search paths.
	searchPaths := append([]string{filepath.Dir(*requestPtr)}, req.AssetSearchPaths...)
	assetLoader := &asset.DirLoader{SearchPaths: searchPaths}

	d, err := loader.Load(req, cfg, assetLoader)
	if err != nil {
		log.Fatalf("[-] Load error: %v", err)
	}

	if cfg.Workers == 0 {
		cfg.Workers = system.Workers(cfg.Width, cfg.Height)
	}

	fmt.Printf("[*] Movie: %s | Scenes: %d | Audio tracks: %d | %.2fs\n",
		*requestPtr, len(req.Scenes), d.TrackCount(), d.Duration())

	if *checkPtr {
		fmt.Println("[+++] Request is valid")
		return
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputVideo), 0755); err != nil {
		log.Fatalf("[-] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exporter := export.New(d, render.NewSoftware(), cfg)
	if err := exporter.Run(ctx); err != nil {
		log.Fatalf("[-] Export error: %v", err)
	}

	fmt.Printf("[+++] Done: %s\n", cfg.OutputVideo)
}
