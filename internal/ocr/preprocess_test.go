package ocr

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contact-extractor/internal/common"
)

func TestMaxDimensionFor(t *testing.T) {
	p := NewPreprocessor(common.DefaultDownsizeTiers(), false)

	assert.Equal(t, 2400, p.MaxDimensionFor(10))
	assert.Equal(t, 1600, p.MaxDimensionFor(2<<20))
	assert.Equal(t, 1200, p.MaxDimensionFor(8<<20))

	// larger payloads never get a larger cap
	prev := p.MaxDimensionFor(0)
	for _, size := range []int64{1 << 10, 1 << 20, 3 << 20, 4 << 20, 64 << 20} {
		got := p.MaxDimensionFor(size)
		assert.LessOrEqual(t, got, prev)
		prev = got
	}

	none := NewPreprocessor([]common.DownsizeTier{{MinBytes: 100, MaxDimension: 50}}, false)
	assert.Zero(t, none.MaxDimensionFor(10))
}

func TestPrepareScalesLongestSide(t *testing.T) {
	p := NewPreprocessor([]common.DownsizeTier{{MinBytes: 0, MaxDimension: 100}}, true)
	out, err := p.Prepare(context.Background(), noisyPNG(t, 400, 200))
	require.NoError(t, err)

	assert.True(t, out.Scaled)
	assert.Equal(t, 100, out.Width)
	assert.Equal(t, 50, out.Height)
	assert.Equal(t, 400, out.OriginalWidth)

	img, err := png.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 50), img.Bounds())
	_, isGray := img.(*image.Gray)
	assert.True(t, isGray)
}

func TestPrepareKeepsSmallImages(t *testing.T) {
	p := NewPreprocessor([]common.DownsizeTier{{MinBytes: 0, MaxDimension: 1000}}, false)
	out, err := p.Prepare(context.Background(), noisyPNG(t, 30, 20))
	require.NoError(t, err)
	assert.False(t, out.Scaled)
	assert.Equal(t, 30, out.Width)
}

func TestPrepareRejectsGarbage(t *testing.T) {
	p := NewPreprocessor(common.DefaultDownsizeTiers(), false)
	_, err := p.Prepare(context.Background(), []byte("%PDF-1.7"))
	assert.Error(t, err)
}

// pngHeader returns a PNG that carries only a signature and an IHDR chunk declaring a
// w×h 8-bit grayscale image. Its header decodes; its pixels do not exist.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale
	chunk := append([]byte("IHDR"), ihdr...)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestPrepareRejectsHugeDimensionsBeforeDecoding(t *testing.T) {
	p := NewPreprocessor(common.DefaultDownsizeTiers(), true)
	data := pngHeader(20000, 20000)
	require.Less(t, len(data), 100)

	_, err := p.Prepare(context.Background(), data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestPrepareHonoursConfiguredPixelCap(t *testing.T) {
	p := NewPreprocessor(common.DefaultDownsizeTiers(), false).WithMaxPixels(300)

	_, err := p.Prepare(context.Background(), noisyPNG(t, 20, 20))
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = p.Prepare(context.Background(), noisyPNG(t, 15, 20))
	assert.NoError(t, err)
}

func TestPrepareStopsWhenContextEnds(t *testing.T) {
	p := NewPreprocessor(common.DefaultDownsizeTiers(), false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Prepare(ctx, noisyPNG(t, 40, 40))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFitWithin(t *testing.T) {
	w, h := fitWithin(3000, 1000, 1200)
	assert.Equal(t, 1200, w)
	assert.Equal(t, 400, h)

	w, h = fitWithin(1000, 3000, 1200)
	assert.Equal(t, 400, w)
	assert.Equal(t, 1200, h)

	w, h = fitWithin(5000, 1, 100)
	assert.Equal(t, 100, w)
	assert.Equal(t, 1, h)
}

func TestNormalize(t *testing.T) {
	in := "Jane  Doe\r\n\tExport Manager\n\n\n\n-----\njane @ acme.com   \n"
	assert.Equal(t, "Jane Doe\n Export Manager\n\njane@acme.com", Normalize(in))
	assert.Equal(t, "", Normalize(""))
}

func TestHeuristicConfidence(t *testing.T) {
	rich := heuristicConfidence("Jane Doe\nExport Manager\njane@acme.com\n+1 555 123 4567\nwww.acme.com")
	poor := heuristicConfidence("~~ ## ||| %%")
	assert.Greater(t, rich, poor)
	assert.LessOrEqual(t, rich, float32(1))
	assert.GreaterOrEqual(t, poor, float32(0))
}

type fakeRunner struct {
	calls [][]string
	stdin [][]byte
	out   map[string]string
}

func (r *fakeRunner) Run(_ context.Context, name string, stdin []byte, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	r.stdin = append(r.stdin, stdin)
	if args[len(args)-1] == "tsv" {
		return []byte(r.out["tsv"]), nil, nil
	}
	return []byte(r.out["text"]), nil, nil
}

func TestCLIEngineArgsAndTSV(t *testing.T) {
	tsv := strings.Join([]string{
		"level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext",
		"1\t1\t0\t0\t0\t0\t0\t0\t100\t20\t-1\t",
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tJane",
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\tDoe",
	}, "\n")
	r := &fakeRunner{out: map[string]string{"text": "Jane Doe\n", "tsv": tsv}}
	e := NewCLIEngine(CLIConfig{Binary: "tess", PSM: 6, OEM: 1, TSVConfidence: true}, r, common.DiscardLogger())

	res, err := e.Recognize(context.Background(), Input{Image: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\n", res.Text)
	assert.InDelta(t, 0.8, res.Confidence, 1e-6)

	require.Len(t, r.calls, 2)
	assert.Equal(t, []string{"tess", "stdin", "stdout", "-l", "eng", "--psm", "6", "--oem", "1"}, r.calls[0])
	assert.Equal(t, []byte("png"), r.stdin[0])
}
