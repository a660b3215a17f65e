package codec

import (
	"io"

	"github.com/saintfish/chardet"

	"github.com/guangnotepad/guang/internal/config"
)

// certain is the detector confidence at which feeding more input stops.
const certain = 100

// Detector guesses the charset of a byte prefix.
type Detector interface {
	// Detect returns the best charset guess and its confidence (0-100).
	// ok is false when the detector has no answer at all.
	Detect(prefix []byte) (charset string, confidence int, ok bool)
}

// chardetDetector is the default statistical detector.
type chardetDetector struct {
	d *chardet.Detector
}

// NewDetector returns the default statistical charset detector.
func NewDetector() Detector {
	return &chardetDetector{d: chardet.NewTextDetector()}
}

func (c *chardetDetector) Detect(prefix []byte) (string, int, bool) {
	res, err := c.d.DetectBest(prefix)
	if err != nil || res == nil || res.Charset == "" {
		return "", 0, false
	}
	return res.Charset, res.Confidence, true
}

// DetectOptions controls encoding detection.
type DetectOptions struct {
	ChunkSize  int
	MaxBytes   int
	Confidence int
	Fallback   string
	Detector   Detector
}

// DetectOptionsFromConfig builds detection options from configuration.
func DetectOptionsFromConfig(cfg *config.Config) DetectOptions {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return DetectOptions{
		ChunkSize:  cfg.DetectChunkSize,
		MaxBytes:   cfg.DetectMaxBytes,
		Confidence: cfg.DetectConfidence,
		Fallback:   cfg.FallbackEncoding,
	}
}

func (o DetectOptions) withDefaults() DetectOptions {
	def := config.DefaultConfig()
	if o.ChunkSize <= 0 {
		o.ChunkSize = def.DetectChunkSize
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = def.DetectMaxBytes
	}
	if o.Confidence <= 0 {
		o.Confidence = def.DetectConfidence
	}
	if o.Fallback == "" {
		o.Fallback = def.FallbackEncoding
	}
	if o.Detector == nil {
		o.Detector = NewDetector()
	}
	return o
}

// DetectEncoding feeds r to the detector chunk by chunk until it is certain,
// the input ends, or MaxBytes have been read. It returns the fallback encoding
// when the result is inconclusive or reading fails; it never returns an error.
func DetectEncoding(r io.Reader, opts DetectOptions) string {
	opts = opts.withDefaults()

	prefix := make([]byte, 0, opts.ChunkSize)
	chunk := make([]byte, opts.ChunkSize)
	best, bestConf := "", 0

	for len(prefix) < opts.MaxBytes {
		n, err := io.ReadFull(r, chunk)
		if n > 0 {
			if room := opts.MaxBytes - len(prefix); n > room {
				n = room
			}
			prefix = append(prefix, chunk[:n]...)
			if cs, conf, ok := opts.Detector.Detect(prefix); ok {
				best, bestConf = cs, conf
				if conf >= certain {
					break
				}
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return opts.Fallback
		}
	}

	if len(prefix) == 0 || best == "" || bestConf < opts.Confidence {
		return opts.Fallback
	}
	if _, err := ResolveEncoding(best); err != nil {
		return opts.Fallback
	}
	return best
}

// DetectFile runs DetectEncoding over the file at path. Open failures map to
// the fallback encoding.
func DetectFile(path string, opts DetectOptions) string {
	opts = opts.withDefaults()
	f, err := openFileRead(path)
	if err != nil {
		return opts.Fallback
	}
	defer f.Close()
	return DetectEncoding(f, opts)
}
