package output

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"

	"imagepack-viewer/internal/processing"
	"imagepack-viewer/internal/types"
)

// WriteSnapshot stores the composite as PNG and every source image of pack
// as an 8-bit BMP. It returns the written paths.
func WriteSnapshot(outputDir string, runTimestamp string, frame *processing.Frame, pack types.ImagePack) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	if frame != nil {
		name := filepath.Join(outputDir, fmt.Sprintf("%s_%06d_composite.png", runTimestamp, frame.Sequence))
		if err := writeFile(name, func(f *os.File) error { return png.Encode(f, frame.Image) }); err != nil {
			return written, err
		}
		written = append(written, name)
	}

	var seq uint64
	if frame != nil {
		seq = frame.Sequence
	}
	for i, record := range pack {
		if record.Width == 0 || record.Height == 0 {
			continue
		}
		name := filepath.Join(outputDir, fmt.Sprintf("%s_%06d_image_%04d.bmp", runTimestamp, seq, i))
		gray := record.Gray()
		if err := writeFile(name, func(f *os.File) error { return bmp.Encode(f, gray) }); err != nil {
			return written, err
		}
		written = append(written, name)
	}
	return written, nil
}

func writeFile(name string, encode func(f *os.File) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return f.Close()
}
