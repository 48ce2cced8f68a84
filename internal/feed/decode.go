package feed

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// DecodeFunc turns an encoded frame into an image.
type DecodeFunc func(frame string) (image.Image, error)

// DecodeDataURL decodes "data:image/<fmt>;base64,..." or bare base64.
func DecodeDataURL(frame string) (image.Image, error) {
	if frame == "" {
		return nil, errors.New("empty frame")
	}
	payload := frame
	if strings.HasPrefix(frame, "data:") {
		i := strings.Index(frame, ",")
		if i < 0 {
			return nil, errors.New("malformed data url")
		}
		if !strings.Contains(frame[:i], ";base64") {
			return nil, errors.New("data url is not base64")
		}
		payload = frame[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
