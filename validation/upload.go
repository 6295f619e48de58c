package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/masterchelly/microsites/errs"
)

const MaxUploadBytes = 25 << 20

// ImageTypes are the content types accepted for gallery images.
var ImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/avif"}

var extPattern = regexp.MustCompile(`^[a-z0-9]{1,8}$`)

// Upload describes a file that passed its checks.
type Upload struct {
	ContentType string
	Extension   string
	Size        int
}

// CheckImageUpload validates a gallery image. Both the declared type and the
// sniffed content must be one of ImageTypes; a missing or generic declared
// type is ignored.
func CheckImageUpload(name, declaredType string, data []byte) (Upload, error) {
	if err := checkSize(data); err != nil {
		return Upload{}, err
	}

	declared := normalizeType(declaredType)
	if declared != "" && !mimetype.EqualsAny(declared, ImageTypes...) {
		return Upload{}, errs.NewUnsupportedMediaTypeError(declared, ImageTypes)
	}

	detected := mimetype.Detect(data)
	if !mimetype.EqualsAny(detected.String(), ImageTypes...) {
		return Upload{}, errs.NewUnsupportedMediaTypeError(detected.String(), ImageTypes)
	}

	return Upload{
		ContentType: baseType(detected.String()),
		Extension:   extension(name, detected),
		Size:        len(data),
	}, nil
}

// CheckAssetUpload validates a file asset: pdf accepts only application/pdf,
// floorplan any image type.
func CheckAssetUpload(kind, declaredType string, data []byte) (Upload, error) {
	if err := checkSize(data); err != nil {
		return Upload{}, err
	}

	declared := normalizeType(declaredType)
	detected := mimetype.Detect(data)
	sniffed := baseType(detected.String())

	switch kind {
	case "pdf":
		if (declared != "" && declared != "application/pdf") || sniffed != "application/pdf" {
			return Upload{}, errs.NewValidationError("file", "PDF_ONLY")
		}
		return Upload{ContentType: "application/pdf", Extension: "pdf", Size: len(data)}, nil
	case "floorplan":
		if (declared != "" && !strings.HasPrefix(declared, "image/")) || !strings.HasPrefix(sniffed, "image/") {
			return Upload{}, errs.NewValidationError("file", "IMAGE_ONLY")
		}
		return Upload{ContentType: sniffed, Extension: strings.TrimPrefix(detected.Extension(), "."), Size: len(data)}, nil
	default:
		return Upload{}, errs.NewValidationError("kind", fmt.Sprintf("kind %q does not take a file", kind))
	}
}

func checkSize(data []byte) error {
	if len(data) == 0 {
		return errs.NewValidationError("file", "empty file")
	}
	if len(data) > MaxUploadBytes {
		return errs.NewMaxBodySizeExceededError(MaxUploadBytes)
	}
	return nil
}

// normalizeType drops parameters and treats application/octet-stream as absent.
func normalizeType(t string) string {
	t = baseType(t)
	if t == "application/octet-stream" {
		return ""
	}
	return t
}

func baseType(t string) string {
	t, _, _ = strings.Cut(t, ";")
	return strings.ToLower(strings.TrimSpace(t))
}

// extension prefers the uploaded file name's extension and falls back to the
// sniffed one.
func extension(name string, detected *mimetype.MIME) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if extPattern.MatchString(ext) {
		return ext
	}
	if ext = strings.TrimPrefix(detected.Extension(), "."); ext != "" {
		return ext
	}
	return "bin"
}
