package main

import (
	"fmt"
	"os"

	"releasedrop/ableton"
	"releasedrop/audio"
	"releasedrop/util"
)

// Pipeline turns a dropped .als file into a database record with a preview
// clip and waveform cover.
type Pipeline struct {
	cfg        util.Config
	db         *util.Database
	transcoder audio.Transcoder
}

func NewPipeline(cfg util.Config, db *util.Database) *Pipeline {
	return &Pipeline{cfg: cfg, db: db, transcoder: audio.FFmpegTranscoder{}}
}

// ImportProject parses an .als file, upserts its project record, and
// regenerates assets from the longest audio clip present on disk.
func (pl *Pipeline) ImportProject(alsPath string) error {
	fmt.Printf("Importing %s\n", alsPath)

	project, err := ableton.ParseProject(alsPath)
	if err != nil {
		return fmt.Errorf("failed to parse project: %v", err)
	}

	rec, found := pl.db.GetProjectByALSPath(alsPath)
	if !found {
		rec = &util.Project{ALSPath: &alsPath}
	}

	rec.Name = project.Name
	rec.AudioClipsCount = len(project.Clips)
	if project.BPM > 0 {
		bpm := project.BPM
		rec.BPM = &bpm
	}
	if project.Key != "" {
		key := project.Key
		rec.Key = &key
	}
	if clip := project.LongestClip(); clip != nil {
		path := clip.Path
		rec.LongestClipPath = &path
	}

	// The preview source is the longest clip that actually exists
	var source string
	var sourceDuration float64
	for _, clip := range project.ExistingClips() {
		if clip.Duration > sourceDuration || source == "" {
			source = clip.Path
			sourceDuration = clip.Duration
		}
	}
	if source != "" {
		rec.AudioPath = &source
	}

	if !found {
		id, err := pl.db.CreateProject(rec)
		if err != nil {
			return err
		}
		rec.ID = id
		fmt.Printf("Created project %d: %s\n", rec.ID, rec.Name)
	} else {
		if err := pl.db.SaveProject(rec); err != nil {
			return err
		}
		fmt.Printf("Updated project %d: %s\n", rec.ID, rec.Name)
	}

	if source == "" {
		fmt.Printf("Project %s references no audio on disk, skipping assets\n", rec.Name)
		return nil
	}
	return pl.GenerateAssets(rec.ID, source)
}

// RemoveProject drops the record tracking a deleted .als file and its
// generated assets.
func (pl *Pipeline) RemoveProject(alsPath string) {
	rec, found := pl.db.GetProjectByALSPath(alsPath)
	if !found {
		return
	}

	fmt.Printf("Project file removed, deleting project %d: %s\n", rec.ID, rec.Name)
	if err := pl.db.DeleteProjectByALSPath(alsPath); err != nil {
		fmt.Printf("Error deleting project: %v\n", err)
		return
	}
	os.Remove(pl.cfg.PreviewPath(rec.ID))
	os.Remove(pl.cfg.CoverPath(rec.ID))
}

// GenerateAssets decodes the source audio, picks the loudest window, and
// writes the preview clip and waveform cover. Preview and cover failures are
// independent; whichever succeeds is recorded. A decode failure is not
// fatal: the preview is still extracted from the start of the track, and
// only the waveform (which needs samples) is skipped.
func (pl *Pipeline) GenerateAssets(projectID int64, sourcePath string) error {
	if !util.EnoughSpace(pl.cfg.DataDir) {
		return fmt.Errorf("not enough free disk space under %s", pl.cfg.DataDir)
	}

	start := 0.0
	d, err := audio.Decode(sourcePath, audio.AnalysisRate, 0)
	if err != nil {
		fmt.Printf("Error decoding %s: %v\n", sourcePath, err)
		fmt.Printf("Extracting preview from the start of the track instead\n")
		d = nil
	} else {
		start = audio.BestPreviewStart(d, pl.cfg.PreviewSeconds)
		fmt.Printf("Preview window for project %d starts at %.1fs\n", projectID, start)
	}

	previewPath := pl.cfg.PreviewPath(projectID)
	if err := audio.ExtractPreviewWith(pl.transcoder, sourcePath, previewPath, start, pl.cfg.PreviewSeconds); err != nil {
		fmt.Printf("Error extracting preview: %v\n", err)
		previewPath = ""
	}

	coverPath := ""
	if d != nil {
		coverPath = pl.cfg.CoverPath(projectID)
		opts := audio.WaveformOptions{Width: pl.cfg.WaveformWidth, Height: pl.cfg.WaveformHeight}
		if err := audio.WriteWaveformPNG(capDuration(d, pl.cfg.PreviewSeconds), coverPath, opts); err != nil {
			fmt.Printf("Error rendering waveform: %v\n", err)
			coverPath = ""
		}
	}

	if previewPath == "" && coverPath == "" {
		return fmt.Errorf("asset generation failed for project %d", projectID)
	}
	return pl.db.SetProjectAssets(projectID, previewPath, coverPath)
}

// capDuration limits the decoded buffer to its first duration seconds.
// The cover always shows the head of the track, matching a decode capped
// at the preview length, without paying for a second decode.
func capDuration(d *audio.Decoded, duration float64) *audio.Decoded {
	limit := int(duration * float64(d.SampleRate))
	if limit < 0 {
		limit = 0
	}
	if limit > len(d.Samples) {
		limit = len(d.Samples)
	}
	return &audio.Decoded{Samples: d.Samples[:limit], SampleRate: d.SampleRate}
}
