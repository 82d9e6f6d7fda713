package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kir-gadjello/ikoi/chat"
)

// maxAttachmentSize caps attachments at 10 MiB.
const maxAttachmentSize = 10 << 20

var allowedMimeTypes = map[string]bool{
	"image/jpeg":       true,
	"image/png":        true,
	"image/gif":        true,
	"image/webp":       true,
	"text/plain":       true,
	"text/markdown":    true,
	"application/pdf":  true,
	"application/json": true,
	"text/csv":         true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
}

// knownExtensions covers types the platform mime table may be missing.
var knownExtensions = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".txt":      "text/plain",
	".json":     "application/json",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".doc":      "application/msword",
	".xls":      "application/vnd.ms-excel",
}

// detectMimeType resolves a file's mime type from its extension. mime's
// table can return types with parameters ("text/plain; charset=utf-8"),
// those are stripped before the allow-list check.
func detectMimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := knownExtensions[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return "application/octet-stream"
	}
	if i := strings.Index(t, ";"); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// validateAttachment checks a candidate file against the size cap and the
// mime allow-list without touching its content.
func validateAttachment(path string) (chat.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return chat.Attachment{}, fmt.Errorf("cannot read file: %w", err)
	}
	if info.IsDir() {
		return chat.Attachment{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxAttachmentSize {
		return chat.Attachment{}, fmt.Errorf("file size exceeds %dMB limit", maxAttachmentSize/(1024*1024))
	}

	mimeType := detectMimeType(path)
	if !allowedMimeTypes[mimeType] {
		return chat.Attachment{}, fmt.Errorf("file type %s not supported", mimeType)
	}

	return chat.Attachment{
		Name:      filepath.Base(path),
		SizeBytes: info.Size(),
		MimeType:  mimeType,
	}, nil
}

// stageAttachment validates path and copies it under filesDir so the message
// log's contentRef stays valid after the source file moves.
func stageAttachment(filesDir, path string) (chat.Attachment, error) {
	att, err := validateAttachment(path)
	if err != nil {
		return chat.Attachment{}, err
	}

	if err := os.MkdirAll(filesDir, 0o755); err != nil {
		return chat.Attachment{}, err
	}

	dst := filepath.Join(filesDir, uuid.NewString()+"-"+att.Name)
	src, err := os.Open(path)
	if err != nil {
		return chat.Attachment{}, err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return chat.Attachment{}, err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return chat.Attachment{}, err
	}

	att.ContentRef = dst
	return att, nil
}

func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(bytes)/(1<<10))
	default:
		return fmt.Sprintf("%d Bytes", bytes)
	}
}
