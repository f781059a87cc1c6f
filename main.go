package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "watch":
		handleWatchCommand()
	case "import":
		handleImportCommand()
	case "preview":
		handlePreviewCommand()
	case "ls":
		handleLsCommand()
	case "shell":
		handleShellCommand()
	case "serve":
		handleServeCommand()
	case "upload":
		handleUploadCommand()
	case "rm":
		handleRmCommand()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: releasedrop <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  watch                 Watch the drop folder and import projects as they change")
	fmt.Println("  import <project.als>  Import one Ableton project file")
	fmt.Println("  preview <audio> [dir] Generate a preview clip and waveform for one audio file")
	fmt.Println("  ls                    List tracked projects")
	fmt.Println("  shell                 Interactive project shell")
	fmt.Println("  serve                 Start the HTTP API server")
	fmt.Println("  upload <id>           Upload a project preview to SoundCloud")
	fmt.Println("  rm <id>               Remove a project and its generated assets")
	fmt.Println("  help                  Show this help")
}
