package integrations

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// maxCoverHeight bounds covers embedded by the in-process packager
const maxCoverHeight = 2560

// CoverInfo describes a cover image
type CoverInfo struct {
	Format string
	Width  int
	Height int
}

// InspectCover decodes the header of the image at path
func InspectCover(path string) (CoverInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return CoverInfo{}, fmt.Errorf("failed to open cover: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return CoverInfo{}, fmt.Errorf("cover %s is not a readable image: %w", path, err)
	}
	return CoverInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// NormalizeCover returns a cover e-readers can display: png, jpeg and gif
// covers within maxCoverHeight are returned as is, anything else is
// re-encoded as PNG into dstDir and downscaled if needed.
func NormalizeCover(path, dstDir string) (string, error) {
	info, err := InspectCover(path)
	if err != nil {
		return "", err
	}

	switch info.Format {
	case "png", "jpeg", "gif":
		if info.Height <= maxCoverHeight {
			return path, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open cover: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode cover: %w", err)
	}

	width, height := coverDimensions(info.Width, info.Height)
	if width != info.Width || height != info.Height {
		img = resize(img, width, height)
	}

	out := filepath.Join(dstDir, "cover.png")
	dst, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("failed to create cover: %w", err)
	}
	defer dst.Close()

	if err := png.Encode(dst, img); err != nil {
		return "", fmt.Errorf("failed to encode cover: %w", err)
	}
	return out, nil
}

// coverDimensions scales height down to maxCoverHeight keeping the aspect ratio
func coverDimensions(width, height int) (int, int) {
	if height <= maxCoverHeight {
		return width, height
	}
	scale := float64(maxCoverHeight) / float64(height)
	return max(1, int(float64(width)*scale)), maxCoverHeight
}

func resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}
