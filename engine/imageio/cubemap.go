package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Faces is the number of faces in a captured cubemap.
const Faces = 6

// MaxFaceSize is the largest supported face edge in pixels.
const MaxFaceSize = 8192

var (
	// ErrUnsafePath is returned for output paths that are absolute or leave the output directory.
	ErrUnsafePath = errors.New("imageio: output path must be relative and stay inside the output directory")

	// ErrFaceSize is returned for face sizes outside 1..MaxFaceSize.
	ErrFaceSize = errors.New("imageio: face size out of range")

	// ErrUnsupportedFormat is returned for output paths whose extension has no encoder.
	ErrUnsupportedFormat = errors.New("imageio: unsupported image format")
)

// Format is an output image format.
type Format int

const (
	FormatQOI Format = iota
	FormatPNG
	FormatBMP
	FormatTIFF
)

func (f Format) String() string {
	switch f {
	case FormatQOI:
		return "qoi"
	case FormatPNG:
		return "png"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatOf picks the format from the file extension. A path without extension is QOI.
//
// Parameters:
//   - path: the output file path
//
// Returns:
//   - Format: the format
//   - error: ErrUnsupportedFormat for unknown extensions
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case "", ".qoi":
		return FormatQOI, nil
	case ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ResolvePath joins a client supplied name onto dir after checking that it stays inside dir and
// has a supported extension.
//
// Parameters:
//   - dir: the output directory, may be empty
//   - name: the slash separated relative path given by the client
//
// Returns:
//   - string: the joined path
//   - error: ErrUnsafePath or ErrUnsupportedFormat
func ResolvePath(dir, name string) (string, error) {
	local := filepath.FromSlash(name)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	if _, err := FormatOf(local); err != nil {
		return "", err
	}
	return filepath.Join(dir, local), nil
}

// Encode writes the cubemap buffer as one image of faceSize x 6*faceSize pixels.
//
// Parameters:
//   - w: the destination
//   - format: the image format
//   - pix: 6*faceSize*faceSize*3 bytes of RGB pixels
//   - faceSize: the edge length of one face
//
// Returns:
//   - error: error if pix has the wrong length or encoding fails
func Encode(w io.Writer, format Format, pix []byte, faceSize int) error {
	if faceSize <= 0 || len(pix) != Faces*faceSize*faceSize*3 {
		return fmt.Errorf("imageio: %d bytes is not a cubemap of %d pixel faces", len(pix), faceSize)
	}
	if format == FormatQOI {
		return EncodeQOI(w, pix, faceSize, Faces*faceSize, 3, QOILinear)
	}

	img := toRGBA(pix, faceSize, Faces*faceSize)
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// toRGBA expands tightly packed RGB rows into an opaque image, keeping the row order.
func toRGBA(pix []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
		img.Pix[j] = pix[i]
		img.Pix[j+1] = pix[i+1]
		img.Pix[j+2] = pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// WriteCubemap encodes the cubemap buffer into path, choosing the format from its extension.
// Missing parent directories are created.
//
// Parameters:
//   - path: the output file
//   - pix: 6*faceSize*faceSize*3 bytes of RGB pixels
//   - faceSize: the edge length of one face
//
// Returns:
//   - error: error if the format is unsupported or the file cannot be written
func WriteCubemap(path string, pix []byte, faceSize int) (err error) {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if err := Encode(f, format, pix, faceSize); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
