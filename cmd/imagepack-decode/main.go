package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"imagepack-viewer/internal/logger"
	"imagepack-viewer/internal/output"
	"imagepack-viewer/internal/processing"
)

func main() {
	path := flag.String("path", "", "Path to a pack .cbor file or a directory of them")
	limit := flag.Int("limit", 5, "Max number of packs to describe")
	flag.Parse()

	log := logger.NewLogger("decode", logger.Options{Format: "console", Out: os.Stderr})

	if *path == "" {
		log.Fatal().Msg("missing -path")
	}

	files, err := listFiles(*path)
	if err != nil {
		log.Fatal().Err(err).Msg("list files")
	}

	var packs, images, failures int
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			log.Warn().Err(err).Str("file", file).Msg("read failed")
			failures++
			continue
		}

		doc, pack, err := output.DecodePackCBOR(data)
		if err != nil {
			log.Warn().Err(err).Str("file", file).Msg("decode failed")
			failures++
			continue
		}
		packs++
		images += len(pack)
		if packs > *limit {
			continue
		}

		sec, frac := math.Modf(doc.CapturedAt)
		captured := time.Unix(int64(sec), int64(frac*1e9)).UTC()
		fmt.Printf("pack: %s\n", file)
		fmt.Printf("  sequence: %d\n", doc.Sequence)
		fmt.Printf("  captured_at: %s\n", captured.Format(time.RFC3339Nano))
		for i, r := range pack {
			stats := processing.ViewStatsOf(r)
			fmt.Printf("  imgs[%d]: %dx%d min=%d max=%d mean=%.2f\n", i, r.Width, r.Height, stats.Min, stats.Max, stats.Mean)
		}
	}

	fmt.Printf("summary: packs=%d images=%d failures=%d\n", packs, images, failures)
}

func listFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == ".cbor" {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
