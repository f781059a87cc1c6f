package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"releasedrop/audio"
	"releasedrop/soundcloud"
	"releasedrop/util"
	"releasedrop/watcher"
	"releasedrop/web"
)

func openDatabase(cfg util.Config) *util.Database {
	db, err := util.InitDatabase(cfg.DataDir)
	if err != nil {
		fmt.Printf("Error initializing database: %v\n", err)
		os.Exit(1)
	}
	return db
}

func handleWatchCommand() {
	cfg := util.LoadConfig()
	db := openDatabase(cfg)
	defer db.Close()

	if err := os.MkdirAll(cfg.WatchDir, 0755); err != nil {
		fmt.Printf("Error creating watch directory: %v\n", err)
		os.Exit(1)
	}

	pl := NewPipeline(cfg, db)
	w := watcher.New(cfg.WatchDir, cfg.PollInterval, pl.ImportProject, pl.RemoveProject)

	fmt.Printf("Watching %s for Ableton projects (every %s)\n", cfg.WatchDir, cfg.PollInterval)
	w.Run(context.Background())
}

func handleImportCommand() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: releasedrop import <project.als>")
		fmt.Println("Example: releasedrop import ~/Music/ReleaseDrop/night_drive/night_drive.als")
		os.Exit(1)
	}

	alsPath, err := filepath.Abs(os.Args[2])
	if err != nil {
		fmt.Printf("Error resolving path: %v\n", err)
		os.Exit(1)
	}
	if _, err := os.Stat(alsPath); os.IsNotExist(err) {
		fmt.Printf("Error: Project file %s does not exist\n", alsPath)
		os.Exit(1)
	}

	cfg := util.LoadConfig()
	db := openDatabase(cfg)
	defer db.Close()

	if err := NewPipeline(cfg, db).ImportProject(alsPath); err != nil {
		fmt.Printf("Error importing project: %v\n", err)
		os.Exit(1)
	}
}

func handlePreviewCommand() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: releasedrop preview <audio_file> [output_dir]")
		fmt.Println("Example: releasedrop preview bounce.wav ./out")
		os.Exit(1)
	}

	src := os.Args[2]
	if _, err := os.Stat(src); os.IsNotExist(err) {
		fmt.Printf("Error: Input file %s does not exist\n", src)
		os.Exit(1)
	}

	outDir := filepath.Dir(src)
	if len(os.Args) > 3 {
		outDir = os.Args[3]
	}

	cfg := util.LoadConfig()

	fmt.Printf("Decoding %s...\n", src)
	d, err := audio.Decode(src, audio.AnalysisRate, 0)
	if err != nil {
		fmt.Printf("Error decoding audio: %v\n", err)
		os.Exit(1)
	}

	start := audio.BestPreviewStart(d, cfg.PreviewSeconds)
	fmt.Printf("Best %.0fs window starts at %.1fs (track is %.1fs)\n",
		cfg.PreviewSeconds, start, d.Duration())

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	previewPath := filepath.Join(outDir, base+"_preview.mp3")
	coverPath := filepath.Join(outDir, base+"_waveform.png")

	if err := audio.ExtractPreview(src, previewPath, start, cfg.PreviewSeconds); err != nil {
		fmt.Printf("Error extracting preview: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", previewPath)

	opts := audio.WaveformOptions{Width: cfg.WaveformWidth, Height: cfg.WaveformHeight}
	if err := audio.WriteWaveformPNG(capDuration(d, cfg.PreviewSeconds), coverPath, opts); err != nil {
		fmt.Printf("Error rendering waveform: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", coverPath)
}

func handleLsCommand() {
	cfg := util.LoadConfig()
	db := openDatabase(cfg)
	defer db.Close()

	projects, err := db.ListProjects(util.ProjectFilter{})
	if err != nil {
		fmt.Printf("Error listing projects: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-5s %-40s %-10s %-8s %-1s %-1s\n", "ID", "Name", "Status", "BPM", "P", "S")
	fmt.Printf("%-5s %-40s %-10s %-8s %-1s %-1s\n", "--", "----", "------", "---", "-", "-")

	for _, p := range projects {
		bpm := ""
		if p.BPM != nil {
			bpm = fmt.Sprintf("%.1f", *p.BPM)
		}
		hasPreview := "N"
		if p.PreviewPath != nil {
			hasPreview = "Y"
		}
		uploaded := "N"
		if p.SoundCloudURL != nil {
			uploaded = "Y"
		}
		fmt.Printf("%-5d %-40s %-10s %-8s %-1s %-1s\n",
			p.ID, util.TruncateString(p.Name, 40), p.Status, bpm, hasPreview, uploaded)
	}
}

func handleServeCommand() {
	cfg := util.LoadConfig()
	db := openDatabase(cfg)
	defer db.Close()

	sc := soundcloud.New(cfg.SoundCloudClientID, cfg.SoundCloudClientSecret, cfg.SoundCloudRedirectURI)
	server := web.NewServer(cfg, db, sc)

	// The drop folder is watched alongside the API
	if err := os.MkdirAll(cfg.WatchDir, 0755); err != nil {
		fmt.Printf("Warning: Could not create watch directory: %v\n", err)
	} else {
		pl := NewPipeline(cfg, db)
		w := watcher.New(cfg.WatchDir, cfg.PollInterval, pl.ImportProject, pl.RemoveProject)
		server.QueueStatus = w.QueueStatus
		go w.Run(context.Background())
		fmt.Printf("Watching %s for Ableton projects (every %s)\n", cfg.WatchDir, cfg.PollInterval)
	}

	if err := server.ListenAndServe(); err != nil {
		fmt.Printf("Server error: %v\n", err)
		os.Exit(1)
	}
}

func handleUploadCommand() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: releasedrop upload <id>")
		fmt.Println("Example: releasedrop upload 3")
		os.Exit(1)
	}

	id, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		fmt.Printf("Invalid project id: %s\n", os.Args[2])
		os.Exit(1)
	}

	cfg := util.LoadConfig()
	db := openDatabase(cfg)
	defer db.Close()

	p, found := db.GetProject(id)
	if !found {
		fmt.Printf("Error: Project %d not found\n", id)
		os.Exit(1)
	}
	if p.PreviewPath == nil {
		fmt.Printf("Error: Project %d has no preview. Import it first.\n", id)
		os.Exit(1)
	}

	auth, ok := db.GetSoundCloudAuth()
	if !ok {
		fmt.Println("No SoundCloud account connected. Run 'releasedrop serve' and visit /soundcloud/connect")
		os.Exit(1)
	}

	sc := soundcloud.New(cfg.SoundCloudClientID, cfg.SoundCloudClientSecret, cfg.SoundCloudRedirectURI)

	meta := soundcloud.TrackMetadata{Title: p.Name, Sharing: "public"}
	if p.Genre != nil {
		meta.Genre = *p.Genre
	}
	if p.Tags != nil {
		meta.TagList = *p.Tags
	}
	if p.BPM != nil {
		meta.BPM = int(math.Round(*p.BPM))
	}
	if p.CoverPath != nil {
		meta.ArtworkPath = *p.CoverPath
	}

	fmt.Printf("Uploading %s to SoundCloud...\n", p.Name)
	track, err := sc.UploadTrack(context.Background(), auth.AccessToken, *p.PreviewPath, meta)
	if err != nil {
		fmt.Printf("Error uploading: %v\n", err)
		os.Exit(1)
	}

	if err := db.SetProjectSoundCloudURL(p.ID, track.PermalinkURL); err != nil {
		fmt.Printf("Warning: Could not record upload: %v\n", err)
	}
	fmt.Printf("Uploaded: %s\n", track.PermalinkURL)
}

func handleRmCommand() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: releasedrop rm <id>")
		fmt.Println("Example: releasedrop rm 3")
		os.Exit(1)
	}

	id, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		fmt.Printf("Invalid project id: %s\n", os.Args[2])
		os.Exit(1)
	}

	cfg := util.LoadConfig()
	db := openDatabase(cfg)
	defer db.Close()

	p, found := db.GetProject(id)
	if !found {
		fmt.Printf("Error: Project %d not found\n", id)
		os.Exit(1)
	}

	if err := db.DeleteProject(id); err != nil {
		fmt.Printf("Error deleting project: %v\n", err)
		os.Exit(1)
	}
	os.Remove(cfg.PreviewPath(id))
	os.Remove(cfg.CoverPath(id))
	fmt.Printf("Removed project %d: %s\n", id, p.Name)
}

func handleShellCommand() {
	cfg := util.LoadConfig()
	db := openDatabase(cfg)

	newProjectShell(cfg, db).run()
}
