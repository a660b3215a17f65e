package codec

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guangnotepad/guang/internal/config"
)

// stubDetector returns a fixed answer and records the prefix sizes it saw.
type stubDetector struct {
	charset    string
	confidence int
	ok         bool
	seen       []int
}

func (s *stubDetector) Detect(prefix []byte) (string, int, bool) {
	s.seen = append(s.seen, len(prefix))
	return s.charset, s.confidence, s.ok
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, fmt.Errorf("disk on fire") }

func TestDetectEncoding_Fallbacks(t *testing.T) {
	tests := []struct {
		name  string
		input io.Reader
		det   *stubDetector
	}{
		{"empty input", strings.NewReader(""), &stubDetector{charset: "UTF-8", confidence: 100, ok: true}},
		{"no answer", strings.NewReader("\x01\x02\x03"), &stubDetector{}},
		{"low confidence", strings.NewReader("abc"), &stubDetector{charset: "UTF-8", confidence: 10, ok: true}},
		{"unknown charset", strings.NewReader("abc"), &stubDetector{charset: "X-MARTIAN", confidence: 100, ok: true}},
		{"read failure", failingReader{}, &stubDetector{charset: "UTF-8", confidence: 100, ok: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectEncoding(tt.input, DetectOptions{Detector: tt.det})
			require.Equal(t, "CP1251", got)
		})
	}
}

func TestDetectEncoding_StopsWhenCertain(t *testing.T) {
	det := &stubDetector{charset: "UTF-8", confidence: 100, ok: true}
	data := bytes.Repeat([]byte("a"), 10000)

	got := DetectEncoding(bytes.NewReader(data), DetectOptions{ChunkSize: 4096, Detector: det})

	require.Equal(t, "UTF-8", got)
	require.Equal(t, []int{4096}, det.seen)
}

func TestDetectEncoding_ReadsChunksUpToLimit(t *testing.T) {
	det := &stubDetector{charset: "windows-1252", confidence: 60, ok: true}
	data := bytes.Repeat([]byte("a"), 10000)

	got := DetectEncoding(bytes.NewReader(data), DetectOptions{ChunkSize: 4096, MaxBytes: 6000, Detector: det})

	require.Equal(t, "windows-1252", got)
	require.Equal(t, []int{4096, 6000}, det.seen)
}

func TestDetectEncoding_ConfiguredFallback(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FallbackEncoding = "KOI8-R"
	opts := DetectOptionsFromConfig(cfg)
	opts.Detector = &stubDetector{}

	require.Equal(t, "KOI8-R", DetectEncoding(strings.NewReader("zz"), opts))
}

func TestDetectEncoding_RealDetectorUTF8(t *testing.T) {
	text := strings.Repeat("Привет, мир! Это текст в кодировке UTF-8. ", 20)
	got := DetectEncoding(strings.NewReader(text), DetectOptions{})
	require.Equal(t, "UTF-8", got)
}

func TestDetectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	require.Equal(t, "CP1251", DetectFile(path, DetectOptions{}))
	require.Equal(t, "CP1251", DetectFile(filepath.Join(dir, "missing.txt"), DetectOptions{}))
}
