package output

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawLogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewRawLogWriter(dir, "replies")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(writer.Path(), "_replies.bin"))

	payloads := [][]byte{[]byte("first"), {}, bytes.Repeat([]byte{0xab}, 4096)}
	before := time.Now()
	for _, p := range payloads {
		require.NoError(t, writer.Record(p))
	}
	require.NoError(t, writer.Close())
	require.NoError(t, writer.Close())
	assert.ErrorIs(t, writer.Record([]byte("late")), ErrRawLogClosed)

	f, err := os.Open(writer.Path())
	require.NoError(t, err)
	defer f.Close()

	reader, err := NewRawLogReader(f)
	require.NoError(t, err)
	for i, want := range payloads {
		rec, err := reader.Next()
		require.NoError(t, err, "record %d", i)
		assert.Equal(t, len(want), len(rec.Payload))
		assert.True(t, bytes.Equal(want, rec.Payload))
		assert.False(t, rec.Time.Before(before.Add(-time.Second)))
	}
	_, err = reader.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRawLogRecordLayout(t *testing.T) {
	writer, err := NewRawLogWriter(t.TempDir(), "layout")
	require.NoError(t, err)
	stamp := time.Unix(1700000000, 123)
	writer.now = func() time.Time { return stamp }
	require.NoError(t, writer.Record([]byte{0x0a, 0x00}))
	require.NoError(t, writer.Close())

	data, err := os.ReadFile(writer.Path())
	require.NoError(t, err)
	require.Len(t, data, len(RawLogMagic)+recordHeaderSize+2)
	assert.Equal(t, RawLogMagic, string(data[:8]))
	assert.Equal(t, uint64(stamp.UnixNano()), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[16:20]))
	assert.Equal(t, []byte{0x0a, 0x00}, data[20:])
}

func TestRawLogReaderBadMagic(t *testing.T) {
	_, err := NewRawLogReader(strings.NewReader("NOTMAGIC"))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestRawLogReaderTruncatedHeader(t *testing.T) {
	reader, err := NewRawLogReader(strings.NewReader(RawLogMagic + "\x01\x02\x03"))
	require.NoError(t, err)

	_, err = reader.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRawLogReaderTruncatedPayload(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewRawLogWriter(dir, "replies")
	require.NoError(t, err)
	require.NoError(t, writer.Record([]byte("0123456789")))
	require.NoError(t, writer.Close())

	data, err := os.ReadFile(writer.Path())
	require.NoError(t, err)
	cut := filepath.Join(dir, "cut.bin")
	require.NoError(t, os.WriteFile(cut, data[:len(data)-3], 0o644))

	f, err := os.Open(cut)
	require.NoError(t, err)
	defer f.Close()
	reader, err := NewRawLogReader(f)
	require.NoError(t, err)

	_, err = reader.Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}
