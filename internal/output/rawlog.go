package output

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// A raw log keeps every reply payload exactly as received from the image
// server, so a session can be decoded again offline. The file starts with
// RawLogMagic; each reply follows as a 12 byte little-endian header (receive
// time in unix nanoseconds, payload length) and the serialized image pack.
const RawLogMagic = "IMGPACK1"

const recordHeaderSize = 12

var (
	ErrBadMagic     = errors.New("not an image pack raw log")
	ErrRawLogClosed = errors.New("raw log closed")
)

func putRecordHeader(dst []byte, at time.Time, size int) {
	binary.LittleEndian.PutUint64(dst[:8], uint64(at.UnixNano()))
	binary.LittleEndian.PutUint32(dst[8:recordHeaderSize], uint32(size))
}

func parseRecordHeader(src []byte) (time.Time, uint32) {
	return time.Unix(0, int64(binary.LittleEndian.Uint64(src[:8]))),
		binary.LittleEndian.Uint32(src[8:recordHeaderSize])
}

// RawLogWriter appends image pack replies to <ts>_<prefix>.bin. Each record
// is flushed before Record returns, so a crashed session loses at most the
// reply being written.
type RawLogWriter struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
	path string
	now  func() time.Time
}

func NewRawLogWriter(outputDir string, prefix string) (*RawLogWriter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(outputDir, fmt.Sprintf("%s_%s.bin", time.Now().Format("20060102_150405"), prefix))
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	rl := &RawLogWriter{
		file: file,
		buf:  bufio.NewWriterSize(file, 1<<20),
		path: path,
		now:  time.Now,
	}
	_, err = rl.buf.WriteString(RawLogMagic)
	if err == nil {
		err = rl.buf.Flush()
	}
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("write raw log header %s: %w", path, err)
	}
	return rl, nil
}

func (r *RawLogWriter) Path() string { return r.path }

// Record appends one reply payload stamped with the current time.
func (r *RawLogWriter) Record(payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("reply of %d bytes does not fit a raw log record", len(payload))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buf == nil {
		return ErrRawLogClosed
	}
	var header [recordHeaderSize]byte
	putRecordHeader(header[:], r.now(), len(payload))
	if _, err := r.buf.Write(header[:]); err != nil {
		return err
	}
	if _, err := r.buf.Write(payload); err != nil {
		return err
	}
	return r.buf.Flush()
}

// Close flushes and closes the file. Later calls are no-ops.
func (r *RawLogWriter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buf == nil {
		return nil
	}
	flushErr := r.buf.Flush()
	r.buf = nil
	return errors.Join(flushErr, r.file.Close())
}

type RawRecord struct {
	Time    time.Time
	Payload []byte
}

type RawLogReader struct {
	r io.Reader
}

// NewRawLogReader checks the magic header and positions r at the first record.
func NewRawLogReader(r io.Reader) (*RawLogReader, error) {
	header := make([]byte, len(RawLogMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(header) != RawLogMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadMagic, string(header))
	}
	return &RawLogReader{r: bufio.NewReader(r)}, nil
}

// Next returns the next record, or io.EOF after the last complete one.
func (r *RawLogReader) Next() (RawRecord, error) {
	var meta [recordHeaderSize]byte
	if _, err := io.ReadFull(r.r, meta[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return RawRecord{}, io.EOF
		}
		return RawRecord{}, err
	}
	at, size := parseRecordHeader(meta[:])
	payload := make([]byte, size)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return RawRecord{}, fmt.Errorf("read payload: %w", err)
	}
	return RawRecord{Time: at, Payload: payload}, nil
}
