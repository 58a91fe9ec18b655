package tesseract

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/joseph-ayodele/contact-extractor/internal/ocr"
)

// ensureTesseractAvailable checks that tesseract is installed at all.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func renderCard(t *testing.T, line string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: img, Src: image.Black, Face: basicfont.Face7x13, Dot: fixed.P(10, 45)}
	d.DrawString(line)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEngineRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	e := New(Config{Language: "eng"})
	res, err := e.Recognize(context.Background(), ocr.Input{ID: "t", Image: renderCard(t, "ACME EXPORTS")})
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(res.Text), "ACME")
}

func TestEngineHonorsExpiredContext(t *testing.T) {
	e := New(Config{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := e.Recognize(ctx, ocr.Input{Image: []byte("x")})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAbandonedCallsHoldTheirSlot(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	e := New(Config{MaxInFlight: 1})
	e.recognize = func(ocr.Input) (ocr.Result, error) {
		calls.Add(1)
		<-release
		return ocr.Result{Text: "ACME"}, nil
	}

	short := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		_, err := e.Recognize(ctx, ocr.Input{})
		return err
	}

	// the first call times out but its library call keeps running
	assert.ErrorIs(t, short(), context.DeadlineExceeded)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	// the next call cannot start a second library call while the first holds the slot
	assert.ErrorIs(t, short(), context.DeadlineExceeded)
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	res, err := e.Recognize(context.Background(), ocr.Input{})
	require.NoError(t, err)
	assert.Equal(t, "ACME", res.Text)
	assert.Equal(t, int32(2), calls.Load())
}
