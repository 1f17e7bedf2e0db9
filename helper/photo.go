package helper

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxUploadSize is the largest accepted photo upload.
const MaxUploadSize = 16 << 20

var ErrInvalidPhoto = errors.New("upload a valid photo (jpg, jpeg, png only)")

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

func AllowedFile(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	return allowedExtensions[strings.ToLower(filename[i+1:])]
}

// SecureFilename reduces name to a safe base name: path parts are dropped,
// whitespace becomes '_' and anything outside [A-Za-z0-9_.-] is removed.
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// StudentPhotoName is the stored file name for a student's uploaded photo.
func StudentPhotoName(rollNo, original string) string {
	return SecureFilename(rollNo) + "_" + SecureFilename(original)
}

// SavePhoto writes an uploaded file as dir/name, creating dir when needed.
func SavePhoto(fh *multipart.FileHeader, dir, name string) error {
	if fh == nil || !AllowedFile(fh.Filename) || SecureFilename(name) == "" {
		return ErrInvalidPhoto
	}
	if fh.Size > MaxUploadSize {
		return fmt.Errorf("%w: file larger than %d bytes", ErrInvalidPhoto, MaxUploadSize)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create photo dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("create photo: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("write photo: %w", err)
	}
	return dst.Close()
}

// RemovePhoto deletes dir/name. A missing file is not an error.
func RemovePhoto(dir, name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
