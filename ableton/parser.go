// Package ableton extracts metadata from Ableton Live project files.
// An .als file is a gzipped XML document; this parser pulls out the tempo
// and the audio clips the project references.
package ableton

import (
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AudioClip is one sample reference found in a project.
type AudioClip struct {
	Path         string
	RelativePath string
	Duration     float64
	Exists       bool
}

// Project holds the metadata parsed from an .als file.
type Project struct {
	Name  string
	BPM   float64
	Key   string
	Clips []AudioClip
}

// LongestClip returns the referenced clip with the largest duration, or nil
// when the project references no audio.
func (p *Project) LongestClip() *AudioClip {
	var longest *AudioClip
	for i := range p.Clips {
		if longest == nil || p.Clips[i].Duration > longest.Duration {
			longest = &p.Clips[i]
		}
	}
	return longest
}

// ExistingClips returns only the clips whose files are present on disk.
func (p *Project) ExistingClips() []AudioClip {
	var out []AudioClip
	for _, c := range p.Clips {
		if c.Exists {
			out = append(out, c)
		}
	}
	return out
}

// ParseProject reads an .als file and extracts its metadata. The project
// name comes from the filename; clip paths are resolved relative to the
// project directory.
func ParseProject(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("project file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open project file: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s is not a valid .als file: %v", path, err)
	}
	defer gz.Close()

	project := &Project{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	if err := parseXML(gz, filepath.Dir(path), project); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", path, err)
	}

	return project, nil
}

// parseXML walks the document token by token: a full DOM of a large Live
// set is not worth holding in memory for the handful of elements we need.
func parseXML(r io.Reader, projectDir string, project *Project) error {
	dec := xml.NewDecoder(r)

	var inTempo bool
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Tempo":
				inTempo = true
			case "Manual":
				if inTempo && project.BPM == 0 {
					project.BPM = attrFloat(t, "Value")
				}
			case "SampleRef":
				clip, err := parseSampleRef(dec, projectDir)
				if err != nil {
					return err
				}
				if clip != nil {
					project.Clips = append(project.Clips, *clip)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "Tempo" {
				inTempo = false
			}
		}
	}
}

// parseSampleRef consumes tokens up to the closing SampleRef element and
// collects the relative path and default duration inside it.
func parseSampleRef(dec *xml.Decoder, projectDir string) (*AudioClip, error) {
	var relPath string
	var duration float64
	depth := 1

	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "RelativePath":
				if v := attrString(t, "Value"); v != "" {
					relPath = v
				}
			case "DefaultDuration":
				duration = attrFloat(t, "Value")
			}
		case xml.EndElement:
			depth--
		}
	}

	if relPath == "" {
		return nil, nil
	}

	// Live writes forward slashes regardless of platform
	absPath := filepath.Join(projectDir, filepath.FromSlash(relPath))
	_, statErr := os.Stat(absPath)

	return &AudioClip{
		Path:         absPath,
		RelativePath: relPath,
		Duration:     duration,
		Exists:       statErr == nil,
	}, nil
}

func attrString(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func attrFloat(e xml.StartElement, name string) float64 {
	v, err := strconv.ParseFloat(attrString(e, name), 64)
	if err != nil {
		return 0
	}
	return v
}
