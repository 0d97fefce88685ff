package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/siliconsorcerers/sonicblaster/internal/profile"
)

func main() {
	fmt.Println("SonicBlaster DB Manager")

	path := flag.String("db", "sb.sqlite3", "path to the profile database")
	createDB := flag.Bool("create-db", false, "create an empty profile database")
	createVoices := flag.Bool("create-voices", false, "create voices table")
	createDownload := flag.Bool("create-download", false, "create voice_download_queue table")
	listNicknames := flag.Bool("nicknames", false, "list nicknames")
	flag.Parse()

	if !*createDB && !*createVoices && !*createDownload && !*listNicknames {
		flag.Usage()
		os.Exit(1)
	}

	if *createDB {
		if _, err := os.Stat(*path); err == nil {
			log.Fatalf("%s already exists, remove it first", *path)
		}
		if err := profile.CreateDB(*path); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Created %s\n", *path)
	}

	if *createVoices {
		if err := profile.CreateTable(*path, "voices"); err != nil {
			log.Fatal(err)
		}
		fmt.Println("Created table 'voices'")
	}

	if *createDownload {
		if err := profile.CreateTable(*path, "voice_download_queue"); err != nil {
			log.Fatal(err)
		}
		fmt.Println("Created table 'voice_download_queue'")
	}

	if *listNicknames {
		store, err := profile.Open(*path)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close()

		fmt.Println("Nicknames:")
		for username, nickname := range store.Nicknames() {
			fmt.Printf("  %s -> %s\n", username, nickname)
		}
	}
}
