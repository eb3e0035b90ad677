package media

import (
	"errors"
	"io"
	"mime"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadBytes is the largest accepted upload.
const MaxUploadBytes int64 = 10 << 20

// URLPrefix is where stored media is served from.
const URLPrefix = "/uploads/"

var (
	ErrPayloadTooLarge  = errors.New("media exceeds 10 MiB limit")
	ErrUnsupportedMedia = errors.New("unsupported media content type")
)

// Upload is a file received with a post.
type Upload struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// Result describes where an upload will be stored.
type Result struct {
	Name    string
	IsVideo bool
}

// Empty reports whether no media was attached.
func (r Result) Empty() bool {
	return r.Name == ""
}

// URL is the relative address the stored file is served at.
func (r Result) URL() string {
	if r.Empty() {
		return ""
	}
	return URLPrefix + r.Name
}

// Classify derives a unique storage name from the declared content type of
// upload and tells whether it is a video. A nil upload yields an empty Result.
func Classify(upload *Upload) (Result, error) {
	if upload == nil {
		return Result{}, nil
	}
	if upload.Size > MaxUploadBytes {
		return Result{}, ErrPayloadTooLarge
	}

	mediaType, _, err := mime.ParseMediaType(upload.ContentType)
	if err != nil {
		return Result{}, ErrUnsupportedMedia
	}
	primary, subtype, ok := strings.Cut(mediaType, "/")
	if !ok || !validExtension(subtype) {
		return Result{}, ErrUnsupportedMedia
	}

	return Result{
		Name:    uuid.NewString() + "." + subtype,
		IsVideo: primary == "video",
	}, nil
}

func validExtension(ext string) bool {
	if ext == "" || ext == "*" {
		return false
	}
	for _, r := range ext {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '+', r == '-':
		default:
			return false
		}
	}
	return !strings.Contains(ext, "..")
}
