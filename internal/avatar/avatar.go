// Package avatar validates uploaded avatar images and renders the default
// initial-letter avatar.
//
// Avatars are stored inline in the user record as data URIs:
//
//	data:image/png;base64,iVBORw0KGgo...
//
// so the whole profile, picture included, travels with the session copy.
package avatar

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sakif/maxsports/internal/apperror"
)

// MaxBytes is the largest decoded image accepted by Validate.
const MaxBytes = 2 * 1024 * 1024

// Palette is indexed by len(username) % len(Palette).
var Palette = [...]string{"#3880ff", "#3dc2ff", "#2dd36f", "#ffc409", "#eb445a", "#9f4f96"}

const svgTemplate = `<svg width="100" height="100" viewBox="0 0 100 100" fill="none" xmlns="http://www.w3.org/2000/svg">` +
	`<rect width="100" height="100" rx="50" fill="%s"/>` +
	`<text x="50" y="55" font-family="Arial" font-size="30" fill="white" text-anchor="middle">%s</text>` +
	`</svg>`

// Default renders the avatar shown when a user has not uploaded one: the
// upper-cased first letter of name on a circle whose color depends on the
// username length. The result is deterministic.
func Default(name, username string) string {
	initial := ""
	if r, _ := utf8.DecodeRuneInString(name); r != utf8.RuneError {
		initial = string(unicode.ToUpper(r))
	}
	color := Palette[utf8.RuneCountInString(username)%len(Palette)]

	svg := fmt.Sprintf(svgTemplate, color, html.EscapeString(initial))
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

// Validate checks that dataURI is a base64 data URI of an image type whose
// decoded size is at most MaxBytes.
func Validate(dataURI string) error {
	header, payload, ok := strings.Cut(dataURI, ",")
	if !ok {
		return apperror.ValidationFailed("avatar", "avatar must be a data URI")
	}

	mediaType, ok := strings.CutPrefix(header, "data:")
	if !ok {
		return apperror.ValidationFailed("avatar", "avatar must be a data URI")
	}
	mediaType, ok = strings.CutSuffix(mediaType, ";base64")
	if !ok {
		return apperror.ValidationFailed("avatar", "avatar must be base64 encoded")
	}
	if !strings.HasPrefix(mediaType, "image/") || len(mediaType) == len("image/") {
		return apperror.ValidationFailed("avatar", "please choose a valid image file")
	}

	// Reject before decoding when even the encoded form is too large.
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxBytes+2 {
		return apperror.ValidationFailed("avatar", "file size cannot exceed 2MB")
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return apperror.ValidationFailed("avatar", "avatar is not valid base64")
	}
	if len(decoded) > MaxBytes {
		return apperror.ValidationFailed("avatar", "file size cannot exceed 2MB")
	}
	return nil
}
