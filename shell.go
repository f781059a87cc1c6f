package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"releasedrop/util"
)

// ProjectShell is an interactive console over the project catalog.
type ProjectShell struct {
	cfg util.Config
	db  *util.Database
	pl  *Pipeline
}

func newProjectShell(cfg util.Config, db *util.Database) *ProjectShell {
	return &ProjectShell{
		cfg: cfg,
		db:  db,
		pl:  NewPipeline(cfg, db),
	}
}

func (ps *ProjectShell) run() {
	defer ps.db.Close()

	fmt.Printf("=== ReleaseDrop Shell ===\n")
	ps.showHelp()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Printf("Warning: Could not get home directory: %v\n", err)
		homeDir = "."
	}
	historyFile := filepath.Join(homeDir, ".releasedrop_history")

	config := &readline.Config{
		Prompt:       "releasedrop> ",
		HistoryFile:  historyFile,
		AutoComplete: ps.completer(),
	}

	rl, err := readline.NewEx(config)
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		return
	}
	defer rl.Close()

	for {
		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Println("\nExiting shell...")
				break
			}
			fmt.Printf("Error reading input: %v\n", err)
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !ps.handleCommand(input) {
			break
		}
	}
}

func (ps *ProjectShell) completer() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("ls",
			readline.PcItem("idea"),
			readline.PcItem("exported"),
			readline.PcItem("packaged"),
			readline.PcItem("released"),
		),
		readline.PcItem("show"),
		readline.PcItem("status"),
		readline.PcItem("genre"),
		readline.PcItem("vibe"),
		readline.PcItem("tag"),
		readline.PcItem("regen"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func (ps *ProjectShell) showHelp() {
	fmt.Printf("\nCommands:\n")
	fmt.Printf("  ls [status]          List projects, optionally filtered by status\n")
	fmt.Printf("  show <id>            Show one project in detail\n")
	fmt.Printf("  status <id> <value>  Set project status (idea/exported/packaged/released)\n")
	fmt.Printf("  genre <id> <value>   Set project genre\n")
	fmt.Printf("  vibe <id> <value>    Set project vibe\n")
	fmt.Printf("  tag <id> <tags>      Set project tags\n")
	fmt.Printf("  regen <id>           Regenerate preview and waveform\n")
	fmt.Printf("  help                 Show this help\n")
	fmt.Printf("  exit                 Exit shell\n")
	fmt.Printf("\n")
}

func (ps *ProjectShell) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "exit", "quit", "q":
		fmt.Println("Exiting shell...")
		return false

	case "help", "h":
		ps.showHelp()

	case "ls":
		filter := util.ProjectFilter{}
		if len(args) > 0 {
			filter.Status = args[0]
		}
		ps.listProjects(filter)

	case "show":
		if p, ok := ps.lookup(args); ok {
			ps.showProject(p)
		}

	case "status":
		ps.setMeta(args, "status")

	case "genre":
		ps.setMeta(args, "genre")

	case "vibe":
		ps.setMeta(args, "vibe")

	case "tag", "tags":
		ps.setMeta(args, "tags")

	case "regen":
		p, ok := ps.lookup(args)
		if !ok {
			break
		}
		if p.AudioPath == nil {
			fmt.Printf("Project %d has no audio source on record\n", p.ID)
			break
		}
		if err := ps.pl.GenerateAssets(p.ID, *p.AudioPath); err != nil {
			fmt.Printf("Error regenerating assets: %v\n", err)
		} else {
			fmt.Printf("Regenerated assets for project %d\n", p.ID)
		}

	default:
		fmt.Printf("Unknown command: %s (try 'help')\n", cmd)
	}
	return true
}

func (ps *ProjectShell) lookup(args []string) (*util.Project, bool) {
	if len(args) == 0 {
		fmt.Println("A project id is required")
		return nil, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Invalid project id: %s\n", args[0])
		return nil, false
	}
	p, found := ps.db.GetProject(id)
	if !found {
		fmt.Printf("Project %d not found\n", id)
		return nil, false
	}
	return p, true
}

func (ps *ProjectShell) setMeta(args []string, field string) {
	if len(args) < 2 {
		fmt.Printf("Usage: %s <id> <value>\n", field)
		return
	}
	p, ok := ps.lookup(args[:1])
	if !ok {
		return
	}

	value := strings.Join(args[1:], " ")
	var status, genre, vibe, tags *string
	switch field {
	case "status":
		status = &value
	case "genre":
		genre = &value
	case "vibe":
		vibe = &value
	case "tags":
		tags = &value
	}

	if err := ps.db.UpdateProjectMeta(p.ID, status, genre, vibe, tags); err != nil {
		fmt.Printf("Error updating project: %v\n", err)
		return
	}
	fmt.Printf("Project %d %s set to %q\n", p.ID, field, value)
}

func (ps *ProjectShell) listProjects(filter util.ProjectFilter) {
	projects, err := ps.db.ListProjects(filter)
	if err != nil {
		fmt.Printf("Error listing projects: %v\n", err)
		return
	}
	if len(projects) == 0 {
		fmt.Println("No projects found")
		return
	}
	for _, p := range projects {
		bpm := ""
		if p.BPM != nil {
			bpm = fmt.Sprintf(" %.1f BPM", *p.BPM)
		}
		fmt.Printf("%3d  %-40s %-10s%s\n", p.ID, util.TruncateString(p.Name, 40), p.Status, bpm)
	}
}

func (ps *ProjectShell) showProject(p *util.Project) {
	fmt.Printf("Project %d: %s\n", p.ID, p.Name)
	fmt.Printf("  Status:   %s\n", p.Status)
	if p.BPM != nil {
		fmt.Printf("  BPM:      %.1f\n", *p.BPM)
	}
	if p.Key != nil {
		fmt.Printf("  Key:      %s\n", *p.Key)
	}
	fmt.Printf("  Clips:    %d\n", p.AudioClipsCount)
	if p.ALSPath != nil {
		fmt.Printf("  Source:   %s\n", *p.ALSPath)
	}
	if p.AudioPath != nil {
		fmt.Printf("  Audio:    %s\n", *p.AudioPath)
	}
	if p.PreviewPath != nil {
		fmt.Printf("  Preview:  %s\n", *p.PreviewPath)
	}
	if p.CoverPath != nil {
		fmt.Printf("  Cover:    %s\n", *p.CoverPath)
	}
	if p.Genre != nil {
		fmt.Printf("  Genre:    %s\n", *p.Genre)
	}
	if p.Vibe != nil {
		fmt.Printf("  Vibe:     %s\n", *p.Vibe)
	}
	if p.Tags != nil {
		fmt.Printf("  Tags:     %s\n", *p.Tags)
	}
	if p.SoundCloudURL != nil {
		fmt.Printf("  SoundCloud: %s\n", *p.SoundCloudURL)
	}
	fmt.Printf("  Updated:  %s\n", p.UpdatedAt.Format("2006-01-02 15:04"))
}
