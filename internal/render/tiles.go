package render

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/woozymasta/choromap/internal/metrics"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
)

// TileCoordinate represents a specific tile.
type TileCoordinate struct {
	Z, X, Y int
}

// Path returns the location of the tile below baseDir.
func (t TileCoordinate) Path(baseDir string) string {
	return filepath.Join(
		baseDir,
		fmt.Sprintf("%d", t.Z),
		fmt.Sprintf("%d", t.X),
		fmt.Sprintf("%d", t.Y)+".webp",
	)
}

// SliceTiles scales a square world image to every zoom level up to zoomLimit and
// writes the XYZ pyramid as webp tiles under baseDir. Existing non-empty tiles are
// kept unless force is set. It returns the number of tiles written.
func SliceTiles(src image.Image, baseDir string, zoomLimit, tileSize, concurrency int, force bool) (int, error) {
	if tileSize <= 0 {
		tileSize = 256
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return 0, err
	}

	var (
		written  atomic.Int64
		failures atomic.Int64
	)

	for z := 0; z <= zoomLimit; z++ {
		// Grid size: 2^z
		gridSize := 1 << z
		totalPixels := gridSize * tileSize

		log.Debug().
			Int("zoom", z).
			Int("grid", gridSize).
			Int("px", totalPixels).
			Msg("Processing zoom level")

		// Since we resize from the original every time, quality is preserved.
		dstImg := image.NewRGBA(image.Rect(0, 0, totalPixels, totalPixels))
		xdraw.CatmullRom.Scale(dstImg, dstImg.Bounds(), src, src.Bounds(), draw.Over, nil)

		var wg sync.WaitGroup
		// Simple semaphore to limit file I/O concurrency
		sem := make(chan struct{}, concurrency)

		for x := 0; x < gridSize; x++ {
			for y := 0; y < gridSize; y++ {
				wg.Add(1)
				sem <- struct{}{}

				go func(t TileCoordinate) {
					defer wg.Done()
					defer func() { <-sem }()

					rect := image.Rect(t.X*tileSize, t.Y*tileSize, (t.X+1)*tileSize, (t.Y+1)*tileSize)
					ok, err := writeTile(dstImg.SubImage(rect), t.Path(baseDir), force)
					if err != nil {
						failures.Add(1)
						log.Error().Err(err).Str("path", t.Path(baseDir)).Msg("Failed to write tile")
						return
					}
					if ok {
						written.Add(1)
						metrics.TilesWritten.Inc()
					}
				}(TileCoordinate{Z: z, X: x, Y: y})
			}
		}
		wg.Wait()
	}

	if n := failures.Load(); n > 0 {
		return int(written.Load()), fmt.Errorf("%d tiles failed", n)
	}

	return int(written.Load()), nil
}

func writeTile(img image.Image, outPath string, force bool) (bool, error) {
	if !force {
		if info, err := os.Stat(outPath); err == nil && info.Size() > 0 {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return false, err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	if err := webp.Encode(f, img, &webp.Options{Lossless: false, Quality: 85}); err != nil {
		return false, err
	}

	return true, nil
}
