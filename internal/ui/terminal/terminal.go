package terminal

import (
	"bytes"
	"fmt"
	"image"
	"image/color/palette"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/BourgeoisBear/rasterm"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// TermImageMode represents the terminal's image display capability
type TermImageMode int

const (
	// TermModeNone indicates no image support
	TermModeNone TermImageMode = iota
	// TermModeKitty indicates Kitty graphics protocol support
	TermModeKitty
	// TermModeIterm indicates iTerm2 graphics protocol support
	TermModeIterm
	// TermModeSixel indicates Sixel graphics protocol support
	TermModeSixel
)

// PageImageID is the Kitty image ID of the page viewer image
const PageImageID uint32 = 2024

// String returns a human-readable name for the terminal mode
func (m TermImageMode) String() string {
	switch m {
	case TermModeKitty:
		return "Kitty"
	case TermModeIterm:
		return "iTerm2"
	case TermModeSixel:
		return "Sixel"
	default:
		return "None"
	}
}

// DetectTerminalMode checks which image protocol the terminal supports
func DetectTerminalMode() TermImageMode {
	if rasterm.IsKittyCapable() {
		return TermModeKitty
	}
	if rasterm.IsItermCapable() {
		return TermModeIterm
	}
	if capable, _ := rasterm.IsSixelCapable(); capable {
		return TermModeSixel
	}
	return TermModeNone
}

// DecodePage decodes PNG, JPEG, GIF or WebP page bytes
func DecodePage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return img, nil
}

// Fit scales img down, keeping its aspect ratio, so it fits in a box of
// maxW by maxH pixels. Smaller images are returned unchanged.
func Fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return img
	}

	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	dw, dh := max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// ImageToPaletted converts an image to a paletted image required for Sixel
func ImageToPaletted(img image.Image) *image.Paletted {
	bounds := img.Bounds()
	paletted := image.NewPaletted(bounds, palette.Plan9)
	draw.Draw(paletted, bounds, img, bounds.Min, draw.Src)
	return paletted
}

// RenderImageToString renders an image to a string based on the terminal mode
func RenderImageToString(img image.Image, mode TermImageMode) (string, error) {
	var buf bytes.Buffer
	var renderErr error

	switch mode {
	case TermModeKitty:
		renderErr = rasterm.KittyWriteImage(&buf, img, rasterm.KittyImgOpts{ImageId: PageImageID})
	case TermModeIterm:
		renderErr = rasterm.ItermWriteImage(&buf, img)
	case TermModeSixel:
		// Write to buffer instead of stdout for proper bubbletea integration
		renderErr = rasterm.SixelWriteImage(&buf, ImageToPaletted(img))
	default:
		return "", nil
	}

	if renderErr != nil {
		return "", renderErr
	}
	return buf.String(), nil
}

// ClearImages returns the escape sequence that removes the page image
func ClearImages(mode TermImageMode) string {
	switch mode {
	case TermModeKitty:
		return fmt.Sprintf("\x1b_Ga=d,i=%d\x1b\\", PageImageID)
	case TermModeIterm, TermModeSixel:
		// Images live in the character grid; clearing the screen removes them
		return "\x1b[2J\x1b[H"
	default:
		return ""
	}
}
