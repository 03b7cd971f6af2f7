package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

var pdfHeader = []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n")

func TestFileUploaderRejectsSize(t *testing.T) {
	uploader := NewFileUploader(&storageStub{}, 1024, []string{"application/pdf"}, testLogger())

	file := buildFileHeader(t, "big.pdf", append(pdfHeader, bytes.Repeat([]byte("a"), 2048)...))
	_, err := uploader.Store(context.Background(), FolderSubmissions, file)
	require.ErrorIs(t, err, ErrUploadTooLarge)
}

func TestFileUploaderTypeValidation(t *testing.T) {
	uploader := NewFileUploader(&storageStub{}, 1<<20, []string{"application/pdf", "image/*"}, testLogger())

	_, err := uploader.Store(context.Background(), FolderSubmissions, buildFileHeader(t, "notes.txt", []byte("plain text")))
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)

	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	ref, err := uploader.Store(context.Background(), FolderMaterials, buildFileHeader(t, "Diagram 1.PNG", png))
	require.NoError(t, err)
	require.Equal(t, "image/png", ref.MimeType)
	require.Equal(t, "diagram-1.png", ref.Name)
}

func TestFileUploaderStoresSanitisedName(t *testing.T) {
	storage := &storageStub{}
	uploader := NewFileUploader(storage, 1<<20, []string{"application/pdf"}, testLogger())

	ref, err := uploader.Store(context.Background(), FolderSubmissions, buildFileHeader(t, "My Essay (final).pdf", pdfHeader))
	require.NoError(t, err)
	require.Equal(t, "my-essay--final.pdf", ref.Name)
	require.Equal(t, "https://cdn.edutrack.test/submissions/my-essay--final.pdf", ref.URL)
	require.Equal(t, FolderSubmissions, storage.folder)
	require.Equal(t, int64(len(pdfHeader)), ref.Size)
	require.Equal(t, pdfHeader, storage.uploaded.Bytes())
}

func TestFileUploaderWithoutStorage(t *testing.T) {
	uploader := NewFileUploader(nil, 0, nil, testLogger())
	_, err := uploader.Store(context.Background(), FolderMaterials, buildFileHeader(t, "a.pdf", pdfHeader))
	require.ErrorIs(t, err, ErrUploadUnavailable)
}
