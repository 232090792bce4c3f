package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.txt")
	require.NoError(t, saveResult(path, "Plate: KR123AB\nConfidence: 92%"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Plate: KR123AB\nConfidence: 92%\n", string(data))

	assert.Error(t, saveResult(filepath.Join(t.TempDir(), "missing", "result.txt"), "x"))
}
