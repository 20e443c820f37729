package handlers

import (
	"bytes"
	"mime/multipart"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docchat-ai/docchat/pkg/logger_i"
)

// formFileHeader builds a real in-memory multipart file header.
func formFileHeader(t *testing.T, filename string, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("document", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	return form.File["document"][0]
}

func TestStoreUploads(t *testing.T) {
	logger_i.Init()
	logRH = logger_i.NewLogger("RequestHandlerTest")
	dir := t.TempDir()

	files, err := storeUploads([]*multipart.FileHeader{
		formFileHeader(t, "a.txt", "alpha"),
		formFileHeader(t, "b.txt", "beta"),
	}, dir)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "a.txt", files[0].Name)
	assert.Equal(t, "b.txt", files[1].Name)
	for _, f := range files {
		if _, err := os.Stat(f.Path); err != nil {
			t.Errorf("stored file missing: %v", err)
		}
	}
}

func TestStoreUploads_FailureRemovesStoredFiles(t *testing.T) {
	logger_i.Init()
	logRH = logger_i.NewLogger("RequestHandlerTest")
	dir := t.TempDir()

	// A header with no backing content fails on Open.
	broken := &multipart.FileHeader{Filename: "broken.txt"}

	files, err := storeUploads([]*multipart.FileHeader{
		formFileHeader(t, "a.txt", "alpha"),
		broken,
	}, dir)
	require.Error(t, err)
	assert.Nil(t, files)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "files stored before the failure must be removed")
}
