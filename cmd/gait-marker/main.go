package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/leomol/gait-marker/internal/config"
	"github.com/leomol/gait-marker/internal/project"
	"github.com/leomol/gait-marker/internal/system"
	"github.com/leomol/gait-marker/internal/video"
)

func main() {
	system.InitResourceLimits()

	home, _ := os.UserHomeDir()
	defaultSettings := filepath.Join(home, ".gait-marker.yaml")

	settingsPtr := flag.String("settings", defaultSettings, "Path to the settings file")
	folderPtr := flag.String("folder", "", "Project folder; video paths are stored relative to it")
	filePtr := flag.String("file", "", "Annotation file to open or create (default: newest in the project folder)")
	compressPtr := flag.Bool("compress", true, "Write new annotation files gzip-compressed")
	workersPtr := flag.Int("workers", 0, "Concurrent video probes while building keyframe indexes (0: from settings)")
	orphansPtr := flag.String("orphans", "", "Orphaned label policy: keep or warn (default: from settings)")
	flag.Parse()

	settings, err := config.Load(*settingsPtr)
	if err != nil {
		log.Fatalf("[-] Could not load settings: %v", err)
	}

	folder := *folderPtr
	if folder == "" {
		folder = settings.ProjectFolder
	}
	if folder == "" {
		folder, _ = os.Getwd()
	}
	if fi, err := os.Stat(folder); err != nil || !fi.IsDir() {
		log.Fatalf("[-] Project folder not found: %s", folder)
	}

	workers := *workersPtr
	if workers < 1 {
		workers = settings.Workers
	}
	orphans := project.OrphanPolicy(*orphansPtr)
	if orphans == "" {
		orphans = project.OrphanPolicy(settings.OrphanPolicy)
	}

	projectFile := *filePtr
	if projectFile == "" {
		if latest, err := system.FindLatestProject(folder); err == nil {
			projectFile = latest
			fmt.Printf("[*] Using annotation file: %s\n", projectFile)
		} else {
			name := "project.json"
			if *compressPtr {
				name += ".gz"
			}
			projectFile = filepath.Join(folder, name)
			fmt.Printf("[*] Starting new annotation file: %s\n", projectFile)
		}
	}

	var doc *project.Document
	if _, err := os.Stat(projectFile); err == nil {
		doc, err = project.Load(projectFile, folder, orphans)
		if err != nil {
			log.Fatalf("[-] Could not load %s: %v", projectFile, err)
		}
	} else {
		doc = project.New(folder, *compressPtr)
	}

	videos, err := system.ListVideos(folder, settings.VideoExtensions)
	if err != nil {
		log.Fatalf("[-] Could not scan %s: %v", folder, err)
	}
	if added := doc.MergeVideos(videos); added > 0 {
		fmt.Printf("[*] Found %d new video(s)\n", added)
	}
	if len(doc.Entries) == 0 {
		log.Fatalf("[-] No video files found in %s", folder)
	}

	fmt.Printf("[*] Building keyframe indexes (%d workers)...\n", workers)
	doc.BuildIndexes(context.Background(), &video.FFmpegDecoder{}, workers)

	fmt.Printf("[*] Project: %d label(s), %d video(s)\n", len(doc.Labels.Names()), len(doc.Entries))
	for i, e := range doc.Entries {
		status := "ok"
		if !e.Available {
			status = "unavailable"
		}
		keyframes := 0
		if e.Keyframes != nil {
			keyframes = e.Keyframes.Len()
		}
		fmt.Printf("[%d:%d] %s (%s) events:%d points:%d keyframes:%d bookmark:%d\n",
			i+1, len(doc.Entries), e.Path, status,
			e.Store.EventCount(), e.Store.PointCount(), keyframes, e.FrameID)
	}

	if doc.IsDirty() {
		if err := doc.Save(projectFile); err != nil {
			log.Fatalf("[-] Could not save %s: %v", projectFile, err)
		}
		fmt.Printf("[+++] Saved: %s\n", projectFile)
	}

	settings.ProjectFolder = folder
	settings.ProjectFile = projectFile
	if err := settings.Save(*settingsPtr); err != nil {
		log.Printf("[!] Could not save settings: %v", err)
	}
}
