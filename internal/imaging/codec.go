package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/image/draw"

	"github.com/adriarlol/MiniMarker/internal/fault"
	"github.com/adriarlol/MiniMarker/internal/geometry"
)

// Codec is the pixel-level capability the compressor depends on.
type Codec interface {
	Open(path string) (image.Image, error)
	Resize(img image.Image, src image.Rectangle, to geometry.Size) image.Image
	Crop(img image.Image, r image.Rectangle) image.Image
	// Save encodes img to path at quality and returns the written size.
	Save(img image.Image, path string, quality int) (int64, error)
}

// ErrNotImage is returned when a file's content is not a recognized image.
var ErrNotImage = errors.New("content is not a supported image")

// headerSize is the number of leading bytes filetype needs to match.
const headerSize = 261

// StdCodec implements Codec with the standard JPEG/PNG codecs and
// Catmull-Rom resampling.
type StdCodec struct{}

// Open sniffs the file header before decoding so that a mislabeled file
// fails with a clear reason instead of a decoder-specific message.
func (StdCodec) Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.Codec("open", path, err)
	}
	defer f.Close()

	header := make([]byte, headerSize)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fault.Codec("read", path, err)
	}
	if !filetype.IsImage(header[:n]) {
		return nil, fault.Codec("decode", path, ErrNotImage)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fault.Codec("read", path, err)
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fault.Codec("decode", path, err)
	}
	return img, nil
}

// Resize resamples the src region of img (relative to its bounds) to exactly
// to.W×to.H.
func (StdCodec) Resize(img image.Image, src image.Rectangle, to geometry.Size) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, to.W, to.H))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src.Add(img.Bounds().Min), draw.Src, nil)
	return dst
}

// Crop copies r out of img into a new image anchored at the origin.
func (StdCodec) Crop(img image.Image, r image.Rectangle) image.Image {
	r = r.Add(img.Bounds().Min)
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

// Save picks the encoder from path's extension. PNG is lossless so quality
// has no effect on it.
func (StdCodec) Save(img image.Image, path string, quality int) (int64, error) {
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		q := min(max(quality, 1), 100)
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return 0, fault.Codec("encode", path, err)
		}
	case ".png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return 0, fault.Codec("encode", path, err)
		}
	default:
		return 0, fault.Codec("encode", path, fmt.Errorf("unsupported output extension %q", filepath.Ext(path)))
	}
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return 0, fault.Codec("write", path, err)
	}
	return int64(buf.Len()), nil
}

// writeAtomic writes data to a temp file next to path and renames it into
// place, so path is either the previous trial or the new one, never partial.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Dimensions reads only the image header and returns its pixel size.
func Dimensions(path string) (geometry.Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return geometry.Size{}, fault.Codec("open", path, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return geometry.Size{}, fault.Codec("decode", path, err)
	}
	return geometry.Size{W: cfg.Width, H: cfg.Height}, nil
}
