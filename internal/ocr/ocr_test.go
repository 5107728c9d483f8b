package ocr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStub_Defaults(t *testing.T) {
	res, err := NewStub().Extract(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "检测到图片中的文字内容", res.Text)
	assert.Equal(t, 0.85, res.Confidence)
}

func TestStub_Options(t *testing.T) {
	s := NewStub(WithText("Hello"), WithConfidence(0.5))
	res, err := s.Extract(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello", res.Text)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestStub_DelayHonoursContext(t *testing.T) {
	s := NewStub(WithDelay(time.Minute))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Extract(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
