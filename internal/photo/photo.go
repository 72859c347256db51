package photo

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"image"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	MaxSizeBytes = 50 * 1024 * 1024
	MinWidth     = 800
	MinHeight    = 600
)

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatWEBP Format = "webp"
	FormatBMP  Format = "bmp"
	FormatHEIC Format = "heic"
	FormatHEIF Format = "heif"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrNoDecoder marks formats on the allow-list that carry no Go
	// decoder; the resolution check cannot run for them.
	ErrNoDecoder = errors.New("no decoder for this format")
)

// Extensions for stored files, keyed by detected format.
var extensions = map[Format]string{
	FormatJPEG: ".jpg",
	FormatPNG:  ".png",
	FormatGIF:  ".gif",
	FormatWEBP: ".webp",
	FormatBMP:  ".bmp",
	FormatHEIC: ".heic",
	FormatHEIF: ".heif",
}

func (f Format) Extension() string {
	return extensions[f]
}

var heicBrands = map[string]Format{
	"heic": FormatHEIC,
	"heix": FormatHEIC,
	"hevc": FormatHEIC,
	"hevx": FormatHEIC,
	"mif1": FormatHEIF,
	"msf1": FormatHEIF,
	"heif": FormatHEIF,
}

// DetectFormat sniffs the photo content against the allow-listed encodings.
// Detection goes by magic bytes, never by the client-supplied filename.
func DetectFormat(data []byte) (Format, error) {
	switch {
	case len(data) >= 3 && data[0] == 0xff && data[1] == 0xd8 && data[2] == 0xff:
		return FormatJPEG, nil
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG, nil
	case bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")):
		return FormatGIF, nil
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWEBP, nil
	case bytes.HasPrefix(data, []byte("BM")):
		return FormatBMP, nil
	}
	if len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		if f, ok := heicBrands[string(data[8:12])]; ok {
			return f, nil
		}
	}
	return "", ErrUnsupportedFormat
}

// Dimensions decodes the image header and reports its pixel size. HEIC and
// HEIF carry no decoder here and return ErrNoDecoder; any other format that
// fails to decode is corrupt or mislabeled content, not a gap, and returns
// the decode error. Magic-byte sniffing alone must never vouch for a photo.
func Dimensions(data []byte, f Format) (width, height int, err error) {
	if f == FormatHEIC || f == FormatHEIF {
		return 0, 0, ErrNoDecoder
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// Hash returns the hex-encoded sha-256 digest of the photo content. The same
// bytes always produce the same digest, which is what the per-user duplicate
// check and the (user_id, photo_hash) unique constraint key on.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Meta holds the optional EXIF signals the pipeline cross-checks. A nil
// field means the photo carried no such tag; dependent checks are skipped,
// not failed.
type Meta struct {
	TakenAt   *time.Time
	Latitude  *float64
	Longitude *float64
}

// ExtractMeta parses EXIF metadata out of the photo. Photos without EXIF
// (or with unreadable EXIF) yield an empty Meta; that is not an error.
func ExtractMeta(data []byte) Meta {
	var m Meta

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return m
	}

	if taken, err := x.DateTime(); err == nil {
		m.TakenAt = &taken
	}
	if lat, lon, err := x.LatLong(); err == nil {
		m.Latitude = &lat
		m.Longitude = &lon
	}

	return m
}
