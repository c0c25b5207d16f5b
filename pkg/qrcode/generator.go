package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent   = errors.New("qrcode: empty content")
	ErrGenerateFailed = errors.New("qrcode: failed to generate")
)

// DefaultSize is the image edge in pixels when none is given.
const DefaultSize = 256

// PNG renders content as a PNG QR code with medium error correction.
func PNG(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	img, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrGenerateFailed, err)
	}
	return img, nil
}

// DataURI renders content as a data:image/png;base64 URI suitable for an
// <img src> attribute.
func DataURI(content string, size int) (string, error) {
	img, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(img), nil
}
