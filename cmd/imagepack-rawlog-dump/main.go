package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"imagepack-viewer/internal/imagepack"
	"imagepack-viewer/internal/logger"
	"imagepack-viewer/internal/output"
	"imagepack-viewer/internal/processing"
)

func main() {
	var (
		path         = flag.String("path", "", "Path to rawlog .bin file")
		limit        = flag.Int("limit", 10, "Number of records to dump (0 for all)")
		exportDir    = flag.String("export-dir", "", "Write each record as composite PNG, BMPs and CBOR into this directory")
		targetHeight = flag.Int("target-height", 400, "Composite height used with -export-dir")
	)
	flag.Parse()

	log := logger.NewLogger("rawlog-dump", logger.Options{Format: "console", Out: os.Stderr})

	if *path == "" {
		log.Fatal().Msg("path is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal().Err(err).Msg("open rawlog")
	}
	defer f.Close()

	reader, err := output.NewRawLogReader(f)
	if err != nil {
		log.Fatal().Err(err).Str("path", *path).Msg("read rawlog header")
	}

	runTimestamp := processing.Timestamp()
	count := 0
	for {
		if *limit > 0 && count >= *limit {
			return
		}
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			log.Fatal().Err(err).Int("record", count).Msg("read record")
		}
		count++

		pack, err := imagepack.Decode(rec.Payload)
		if err != nil {
			log.Warn().Err(err).Int("record", count).Msg("decode failed")
			continue
		}

		fmt.Printf("record %d time=%s size=%d imgs=%d\n", count, rec.Time.Format(time.RFC3339Nano), len(rec.Payload), len(pack))
		for i, r := range pack {
			stats := processing.ViewStatsOf(r)
			fmt.Printf("  imgs[%d] %dx%d min=%d max=%d mean=%.2f\n", i, r.Width, r.Height, stats.Min, stats.Max, stats.Mean)
		}

		if *exportDir == "" {
			continue
		}
		seq := uint64(count)
		if _, err := output.WritePackCBOR(*exportDir, runTimestamp, seq, rec.Time, pack); err != nil {
			log.Error().Err(err).Int("record", count).Msg("cbor export failed")
		}
		frame, err := processing.Composite(pack, *targetHeight)
		if err != nil {
			log.Warn().Err(err).Int("record", count).Msg("composite failed, skipping image export")
			continue
		}
		frame.Sequence = seq
		frame.CapturedAt = rec.Time
		if _, err := output.WriteSnapshot(*exportDir, runTimestamp, frame, pack); err != nil {
			log.Error().Err(err).Int("record", count).Msg("image export failed")
		}
	}
}
