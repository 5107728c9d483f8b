// Package ocr extracts text from images.
package ocr

import (
	"context"
	"time"
)

const (
	stubText       = "检测到图片中的文字内容"
	stubConfidence = 0.85
)

// Result is the text found in an image.
type Result struct {
	Text       string
	Confidence float64
}

// Extractor reads the text of an image payload.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (Result, error)
}

// Stub returns a fixed text for every image. It stands in until a real OCR
// service is wired.
type Stub struct {
	text       string
	confidence float64
	delay      time.Duration
}

// StubOption configures a Stub.
type StubOption func(*Stub)

// WithText sets the text the stub returns.
func WithText(text string) StubOption {
	return func(s *Stub) { s.text = text }
}

// WithConfidence sets the reported confidence.
func WithConfidence(c float64) StubOption {
	return func(s *Stub) { s.confidence = c }
}

// WithDelay simulates processing time.
func WithDelay(d time.Duration) StubOption {
	return func(s *Stub) { s.delay = d }
}

// NewStub creates a Stub.
func NewStub(opts ...StubOption) *Stub {
	s := &Stub{text: stubText, confidence: stubConfidence}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract implements Extractor.
func (s *Stub) Extract(ctx context.Context, _ []byte) (Result, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Result{Text: s.text, Confidence: s.confidence}, nil
}
