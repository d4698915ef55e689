package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotImage is returned when uploaded bytes do not sniff as an image type.
var ErrNotImage = errors.New("data is not an image")

// Source is an image whose decode may still be in flight.
//
// Decoding runs on its own goroutine and completion is signalled by closing
// an internal channel, so consumers wait on an explicit completion event
// instead of guessing how long a decode takes. A Source is safe to share
// between goroutines; every waiter observes the same image or error.
//
// # Example Usage
//
//	src := imaging.Decode(file)
//	img, err := src.Wait(ctx)
//	if err != nil {
//	    return err
//	}
type Source struct {
	done   chan struct{}
	img    image.Image
	format string
	err    error
}

// Decode starts decoding r in the background and returns immediately.
//
// The reader is fully consumed by the background goroutine; callers must not
// use it again. If r implements io.Closer it is closed once decoding ends.
func Decode(r io.Reader) *Source {
	s := &Source{done: make(chan struct{})}
	go func() {
		defer close(s.done)
		if c, ok := r.(io.Closer); ok {
			defer c.Close()
		}
		img, format, err := image.Decode(r)
		if err != nil {
			s.err = fmt.Errorf("failed to decode image: %w", err)
			return
		}
		s.img, s.format = img, format
	}()
	return s
}

// DecodeBytes sniffs data and starts decoding it when it is an image.
//
// Returns ErrNotImage (wrapped with the detected MIME type) for payloads such
// as PDFs or text that image.Decode would otherwise reject with a less useful
// message.
func DecodeBytes(data []byte) (*Source, error) {
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, mime.String())
	}
	return Decode(bytes.NewReader(data)), nil
}

// Ready wraps an already decoded image in a completed Source.
func Ready(img image.Image) *Source {
	s := &Source{done: make(chan struct{}), img: img}
	close(s.done)
	return s
}

// Done returns a channel that is closed once decoding has finished.
func (s *Source) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the decode completes or ctx is done.
func (s *Source) Wait(ctx context.Context) (image.Image, error) {
	select {
	case <-s.done:
		return s.img, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Format reports the decoder name ("png", "jpeg", ...) once decoding has
// succeeded, and an empty string before that.
func (s *Source) Format() string {
	select {
	case <-s.done:
		return s.format
	default:
		return ""
	}
}
