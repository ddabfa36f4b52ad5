// Package imageio encodes the captured cubemap faces into image files.
//
// The captured buffer holds six square faces stacked vertically, each face read back from the GL
// framebuffer row by row from the bottom, three bytes per pixel. Every encoder keeps that layout.
package imageio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// QOI colour spaces.
const (
	QOISRGB   uint8 = 0
	QOILinear uint8 = 1
)

const (
	qoiOpIndex = 0x00
	qoiOpDiff  = 0x40
	qoiOpLuma  = 0x80
	qoiOpRun   = 0xc0
	qoiOpRGB   = 0xfe
	qoiOpRGBA  = 0xff

	qoiMaxRun = 62
)

var (
	qoiMagic   = [4]byte{'q', 'o', 'i', 'f'}
	qoiPadding = [8]byte{0, 0, 0, 0, 0, 0, 0, 1}
)

type qoiPixel [4]byte

func (p qoiPixel) hash() int {
	return (int(p[0])*3 + int(p[1])*5 + int(p[2])*7 + int(p[3])*11) % 64
}

// EncodeQOI writes pix as a QOI image.
//
// Parameters:
//   - w: the destination
//   - pix: tightly packed pixels, width*height*channels bytes
//   - width, height: the image size in pixels
//   - channels: 3 (RGB) or 4 (RGBA)
//   - colorspace: QOISRGB or QOILinear
//
// Returns:
//   - error: error if the arguments disagree with len(pix) or the write fails
func EncodeQOI(w io.Writer, pix []byte, width, height int, channels, colorspace uint8) error {
	if channels != 3 && channels != 4 {
		return fmt.Errorf("qoi: unsupported channel count %d", channels)
	}
	if colorspace > QOILinear {
		return fmt.Errorf("qoi: unsupported colour space %d", colorspace)
	}
	if width <= 0 || height <= 0 || uint64(width)*uint64(height) > 1<<32-1 {
		return fmt.Errorf("qoi: invalid size %dx%d", width, height)
	}
	n := width * height
	if len(pix) != n*int(channels) {
		return fmt.Errorf("qoi: %d bytes do not hold %dx%d pixels of %d channels", len(pix), width, height, channels)
	}

	bw := bufio.NewWriter(w)
	header := make([]byte, 14)
	copy(header, qoiMagic[:])
	binary.BigEndian.PutUint32(header[4:], uint32(width))
	binary.BigEndian.PutUint32(header[8:], uint32(height))
	header[12] = channels
	header[13] = colorspace
	if _, err := bw.Write(header); err != nil {
		return err
	}

	var index [64]qoiPixel
	prev := qoiPixel{0, 0, 0, 255}
	run := 0
	step := int(channels)
	for i := 0; i < n; i++ {
		px := qoiPixel{pix[i*step], pix[i*step+1], pix[i*step+2], 255}
		if channels == 4 {
			px[3] = pix[i*step+3]
		}

		if px == prev {
			run++
			if run == qoiMaxRun || i == n-1 {
				bw.WriteByte(qoiOpRun | byte(run-1))
				run = 0
			}
			continue
		}
		if run > 0 {
			bw.WriteByte(qoiOpRun | byte(run-1))
			run = 0
		}

		h := px.hash()
		switch {
		case index[h] == px:
			bw.WriteByte(qoiOpIndex | byte(h))
		case px[3] != prev[3]:
			index[h] = px
			bw.Write([]byte{qoiOpRGBA, px[0], px[1], px[2], px[3]})
		default:
			index[h] = px
			vr := int8(px[0] - prev[0])
			vg := int8(px[1] - prev[1])
			vb := int8(px[2] - prev[2])
			vgr := vr - vg
			vgb := vb - vg
			switch {
			case vr > -3 && vr < 2 && vg > -3 && vg < 2 && vb > -3 && vb < 2:
				bw.WriteByte(qoiOpDiff | byte(vr+2)<<4 | byte(vg+2)<<2 | byte(vb+2))
			case vgr > -9 && vgr < 8 && vg > -33 && vg < 32 && vgb > -9 && vgb < 8:
				bw.Write([]byte{qoiOpLuma | byte(vg+32), byte(vgr+8)<<4 | byte(vgb+8)})
			default:
				bw.Write([]byte{qoiOpRGB, px[0], px[1], px[2]})
			}
		}
		prev = px
	}

	bw.Write(qoiPadding[:])
	return bw.Flush()
}
