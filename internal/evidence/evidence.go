// Package evidence stores frames captured for negative verdicts. The local
// directory is the store of record; an optional uploader can mirror captures
// to remote storage and supply a public URL.
package evidence

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// maxEvidenceSize bounds the longer edge of stored frames. Checkpoint cameras
// deliver anything up to 4K; evidence only needs to show a recognizable face.
const maxEvidenceSize = 1280

// Uploader mirrors an evidence file to remote storage and returns a public
// URL. Best-effort: failures fall back to the local file URL.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// Store writes evidence JPEGs under dir/<classification>/.
type Store struct {
	dir      string
	uploader Uploader
}

// NewStore creates the evidence directory tree. uploader may be nil.
func NewStore(dir string, uploader Uploader) (*Store, error) {
	for _, class := range []string{"intruder", "proxy", "spoof"} {
		if err := os.MkdirAll(filepath.Join(dir, class), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create evidence directory: %w", err)
		}
	}
	return &Store{dir: dir, uploader: uploader}, nil
}

// Capture stores one frame for the given classification and returns a URL for
// the event record. The frame is downscaled and re-encoded as JPEG when it
// decodes; otherwise the raw bytes are stored as-is rather than losing the
// evidence.
func (s *Store) Capture(ctx context.Context, frame []byte, classification string) (string, error) {
	data, err := normalizeFrame(frame)
	if err != nil {
		log.Printf("evidence frame not decodable, storing raw bytes: %v", err)
		data = frame
	}

	name := fmt.Sprintf("%s_%s_%s.jpg",
		classification, time.Now().Format("20060102_150405"), uuid.NewString()[:8])
	localPath := filepath.Join(s.dir, classification, name)

	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write evidence file: %w", err)
	}

	if s.uploader != nil {
		url, err := s.uploader.Upload(ctx, classification+"/"+name, data)
		if err == nil && url != "" {
			return url, nil
		}
		if err != nil {
			log.Printf("evidence upload failed, keeping local copy only: %v", err)
		}
	}

	return "file://" + localPath, nil
}

// normalizeFrame downscales oversized frames and re-encodes as JPEG.
func normalizeFrame(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > maxEvidenceSize || height > maxEvidenceSize {
		var newWidth, newHeight int
		if width > height {
			newWidth = maxEvidenceSize
			newHeight = int(float64(height) * float64(maxEvidenceSize) / float64(width))
		} else {
			newHeight = maxEvidenceSize
			newWidth = int(float64(width) * float64(maxEvidenceSize) / float64(height))
		}

		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		img = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
