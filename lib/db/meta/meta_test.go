package meta

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/ValentinKolb/kvbase/lib/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)

func sampleMeta(name string) db.Metadata {
	return db.Metadata{
		Name:     name,
		Created:  testTime,
		Modified: testTime.Add(time.Hour),
		Size:     4096,
	}
}

func encode(t *testing.T, m db.Metadata, resources *db.Resources) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m, resources))
	return buf.Bytes()
}

func TestReadCurrent(t *testing.T) {
	resources := db.NewResources([]string{"a/1.xml", "a/2.xml", "b.xml"})
	raw := encode(t, sampleMeta("sales"), resources)

	r := bytes.NewReader(raw)
	m, err := Read(r, "sales")
	require.NoError(t, err)

	assert.Equal(t, "sales", m.Name)
	assert.Equal(t, uint8(VersionCurrent), m.Version)
	assert.Equal(t, testTime, m.Created)
	assert.Equal(t, testTime.Add(time.Hour), m.Modified)
	assert.Equal(t, uint64(4096), m.Size)
	assert.Equal(t, uint32(3), m.Resources)
	assert.False(t, m.Legacy)
	assert.False(t, m.Corrupt)

	// the reader must stop exactly at the resource table
	got, err := ReadResources(r)
	require.NoError(t, err)
	assert.Equal(t, resources.Paths(), got.Paths())
	assert.Equal(t, 0, r.Len())
}

func TestReadLegacy(t *testing.T) {
	var buf bytes.Buffer
	resources := db.NewResources([]string{"doc.xml"})
	require.NoError(t, WriteLegacy(&buf, sampleMeta("legacy_db"), resources))

	r := bytes.NewReader(buf.Bytes())
	m, err := Read(r, "legacy_db")
	require.NoError(t, err)

	assert.True(t, m.Legacy)
	assert.False(t, m.Corrupt)
	assert.Equal(t, uint8(VersionLegacy), m.Version)
	assert.Equal(t, uint32(1), m.Resources)
	// created did not exist in v1 and falls back to modified
	assert.Equal(t, m.Modified, m.Created)

	got, err := ReadResources(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc.xml"}, got.Paths())
}

func TestReadCorrupt(t *testing.T) {
	t.Run("ChecksumMismatch", func(t *testing.T) {
		raw := encode(t, sampleMeta("sales"), nil)
		// flip a bit inside the size field (magic+version+flags+len+name+created+modified)
		raw[8+1+1+2+5+8+8] ^= 0x01

		m, err := Read(bytes.NewReader(raw), "sales")
		require.NoError(t, err)
		assert.True(t, m.Corrupt)
		assert.False(t, m.Legacy)
	})

	t.Run("PersistedFlag", func(t *testing.T) {
		in := sampleMeta("sales")
		in.Corrupt = true
		m, err := Read(bytes.NewReader(encode(t, in, nil)), "sales")
		require.NoError(t, err)
		assert.True(t, m.Corrupt)
	})

	t.Run("NameMismatch", func(t *testing.T) {
		m, err := Read(bytes.NewReader(encode(t, sampleMeta("other"), nil)), "sales")
		require.NoError(t, err)
		assert.True(t, m.Corrupt)
		assert.Equal(t, "sales", m.Name)
	})

	t.Run("LegacyEndMarker", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteLegacy(&buf, sampleMeta("old"), nil))
		raw := buf.Bytes()
		// magic+version+len+name+modified+resources
		raw[8+1+1+3+8+4] = 0x00

		m, err := Read(bytes.NewReader(raw), "old")
		require.NoError(t, err)
		assert.True(t, m.Legacy)
		assert.True(t, m.Corrupt)
	})
}

func TestReadUnparseable(t *testing.T) {
	valid := encode(t, sampleMeta("sales"), nil)

	future := append([]byte{}, valid...)
	future[8] = VersionCurrent + 1

	tests := []struct {
		name string
		raw  []byte
	}{
		{"Empty", nil},
		{"BadMagic", append([]byte("NOTADB!!"), valid[8:]...)},
		{"UnknownVersion", future},
		{"TruncatedHeader", valid[:20]},
		{"MissingChecksum", valid[:len(valid)-4-8]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.raw), "sales")
			if err == nil {
				t.Fatalf("expected an error for %s", tt.name)
			}
			if !errors.Is(err, db.ErrIOFailure) {
				t.Errorf("expected IOFailure, got %v (code %s)", err, db.CodeOf(err))
			}
		})
	}
}

func TestReadResourcesTruncated(t *testing.T) {
	raw := encode(t, sampleMeta("sales"), db.NewResources([]string{"x.xml"}))
	r := bytes.NewReader(raw[:len(raw)-2])
	_, err := Read(r, "sales")
	require.NoError(t, err)

	_, err = ReadResources(r)
	assert.Error(t, err)
}
