package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// BurnIn stamps the location text onto the bottom-left of the frame:
// a translucent dark box with light text, like the portal's canvas
// overlay.
func BurnIn(frame image.Image, text string) image.Image {
	img := imaging.Clone(frame)
	b := img.Bounds()

	boxHeight := 30
	boxWidth := 10 + 7*len(text)
	if boxWidth > b.Dx()-20 {
		boxWidth = b.Dx() - 20
	}
	box := image.Rect(10, b.Dy()-boxHeight-10, 10+boxWidth, b.Dy()-10)
	draw.Draw(img, box, &image.Uniform{color.NRGBA{0, 0, 0, 128}}, image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.NRGBA{255, 255, 255, 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(15, b.Dy()-20),
	}
	d.DrawString(text)
	return img
}

// Placeholder is the synthetic frame used when the camera is
// unavailable and the operator chose fallback capture.
func Placeholder() image.Image {
	img := imaging.New(640, 480, color.NRGBA{43, 43, 43, 255})
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.NRGBA{200, 200, 200, 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(250, 240),
	}
	d.DrawString("Demo capture")
	return img
}

// Thumbnail scales the frame down for list views, preserving aspect.
func Thumbnail(img image.Image) image.Image {
	return resize.Resize(200, 0, img, resize.Lanczos3)
}

// EncodeJPEG renders a frame to bytes.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Sink stores an encoded capture and hands back an opaque reference.
type Sink interface {
	Store(data []byte) (string, error)
}

// MemorySink is the mock media store: captures live in memory and the
// reference is a synthetic path.
type MemorySink struct {
	mu     sync.Mutex
	images map[string][]byte
}

func NewMemorySink() *MemorySink {
	return &MemorySink{images: make(map[string][]byte)}
}

func (s *MemorySink) Store(data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := "captures/" + uuid.New().String() + ".jpg"
	s.images[ref] = append([]byte(nil), data...)
	return ref, nil
}

// Get retrieves a stored capture by reference.
func (s *MemorySink) Get(ref string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.images[ref]
	return data, ok
}
