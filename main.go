// main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"chatrelay/internal"
)

func main() {
	useUI := flag.Bool("ui", false, "run the operator console inside a terminal UI")
	configPath := flag.String("config", "", "optional YAML config with startup defaults")
	logPath := flag.String("log", "", "activity log path (\"none\" disables logging)")
	flag.Parse()
	if flag.NArg() > 0 {
		fmt.Println("[USAGE]: ./chatrelay [-ui] [-config file] [-log file]")
		return
	}

	cfg, err := internal.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *logPath != "" {
		cfg.LogFile = *logPath
	}

	activity, err := internal.OpenActivityLog(cfg.LogPath())
	if err != nil {
		log.Printf("activity log disabled: %v", err)
	}
	defer activity.Close()

	if *useUI {
		if err := RunWithUI(cfg, activity); err != nil {
			log.Fatal(err)
		}
		return
	}

	driver := internal.NewDriver(os.Stdin, os.Stdout, cfg, activity)
	driver.Run()
}
