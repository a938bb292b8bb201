// screenshot.go validates uploaded payment screenshots by sniffing the actual
// file content rather than trusting the client-supplied content type.
package validation

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// ErrScreenshotNotImage is returned when the uploaded file content is not a
// recognised image format.
var ErrScreenshotNotImage = errors.New("Payment screenshot must be an image file.")

// allowedScreenshotTypes are the image MIME types accepted for payment
// screenshots. Phone cameras and screenshot tools produce these.
var allowedScreenshotTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

// ValidateScreenshot checks the size and sniffed MIME type of an uploaded
// payment screenshot. maxBytes is the configured upload ceiling.
func ValidateScreenshot(data []byte, maxBytes int64) error {
	if int64(len(data)) > maxBytes {
		return fmt.Errorf("Payment screenshot exceeds the %d MB size limit.", maxBytes/(1<<20))
	}

	mtype := mimetype.Detect(data)
	if !allowedScreenshotTypes[mtype.String()] {
		return ErrScreenshotNotImage
	}

	return nil
}

// ScreenshotExtension returns the canonical file extension (including the dot)
// for the sniffed image type, e.g. ".png".
func ScreenshotExtension(data []byte) string {
	return mimetype.Detect(data).Extension()
}
