package handlers

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// allowedUploadExtensions mirrors acquire.AllowedUploadExtensions; kept
// local so handlers can reject a bad extension before touching the
// store or the pipeline.
var allowedUploadExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
}

func isAllowedUploadFile(filename string) bool {
	return allowedUploadExtensions[strings.ToLower(filepath.Ext(filename))]
}

// saveMultipartFile streams file into a fresh job-scoped path under
// dir, returning the full path it was written to.
func saveMultipartFile(dir string, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	dstPath := filepath.Join(dir, "input"+filepath.Ext(file.Filename))
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", err
	}
	return dstPath, nil
}

func newJobID() string { return uuid.New().String() }
