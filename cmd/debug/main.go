package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/thatsimonsguy/svg-playground/db"
)

func main() {
	DebugCLI()
}

func DebugCLI() {
	var dbPath, command, name string
	var limit int
	flag.StringVar(&dbPath, "db", "data/playground.db", "Path to the SQLite database file")
	flag.StringVar(&command, "cmd", "", "Command to run: list-presets, show-preset, delete-preset, recent")
	flag.StringVar(&name, "name", "", "Preset name for preset commands")
	flag.IntVar(&limit, "limit", 10, "Number of recent documents to list")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || command == "" {
		fmt.Println("\nUsage of playground-debug:")
		fmt.Println("  -db string\tPath to the SQLite database file (default 'data/playground.db')")
		fmt.Println("  -cmd string\tCommand to run: list-presets, show-preset, delete-preset, recent")
		fmt.Println("  -name string\tPreset name for preset commands")
		fmt.Println("  -limit int\tNumber of recent documents to list (default 10)")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	var err error
	switch command {
	case "list-presets":
		err = db.ListPresetsCLI(dbPath, os.Stdout)
	case "show-preset":
		if name == "" {
			fmt.Println("Error: preset name is required")
			os.Exit(1)
		}
		err = db.ShowPresetCLI(dbPath, name, os.Stdout)
	case "delete-preset":
		if name == "" {
			fmt.Println("Error: preset name is required")
			os.Exit(1)
		}
		err = db.DeletePresetCLI(dbPath, name)
	case "recent":
		err = db.RecentDocumentsCLI(dbPath, limit, os.Stdout)
	default:
		fmt.Println("Invalid command")
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Command %s failed: %v\n", command, err)
		os.Exit(1)
	}
	fmt.Printf("Command %s completed successfully\n", command)
}
