package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidFileName(t *testing.T) {
	s := NewScanner("/prt", []string{"010012W"}, ".xml", nil)

	cases := []struct {
		name  string
		valid bool
	}{
		{"010012W12345.xml", true},
		{"010012W12345.XML", true},      // extension check is case-insensitive
		{"01001212345.xml", true},       // all-digit stem matching the prefix's digits
		{"99887766.xml", false},         // all-digit stem but foreign prefix
		{"99999W12345.xml", false},      // wrong prefix
		{"010012W12345.xml.xml", false}, // double extension
		{"010012W12345.txt", false},
		{"010012W12345", false},
		{".xml", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.valid, s.ValidFileName(tc.name), tc.name)
	}
}

func TestValidFileNameMultiplePrefixes(t *testing.T) {
	s := NewScanner("/prt", []string{"010012W", "020034W"}, ".xml", nil)
	assert.True(t, s.ValidFileName("020034W001.xml"))
	assert.False(t, s.ValidFileName("030056W001.xml"))
}

func TestScanSkipsRegisteredFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"010012W001.xml", "010012W002.xml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<x/>"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "010012Wsub.xml"), 0o755))

	repo := newStubInvoiceRepo()
	repo.addSourceFile("010012W001.xml")

	s := NewScanner(dir, []string{"010012W"}, ".xml", repo)
	scheduled, skipped, err := s.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	require.Len(t, scheduled, 1)
	assert.Equal(t, filepath.Join(dir, "010012W002.xml"), scheduled[0])
}
