package trace

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/orogen-io/sideband/types"
	"github.com/orogen-io/sideband/wire"
)

// maxRecordSize bounds one framed journal record: the largest wire
// message plus msgpack envelope overhead.
const maxRecordSize = wire.MaxMessageSize + 1024

// Writer appends records to a journal stream. Each record is framed as a
// u32 big-endian length prefix followed by its msgpack encoding, the same
// framing the exchange itself uses.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	seq uint64
	now func() time.Time
	err error
}

// NewWriter creates a journal writer. now is injectable for tests; nil
// selects time.Now.
func NewWriter(w io.Writer, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{w: w, now: now}
}

// Append frames and writes one record.
func (j *Writer) Append(rec Record) error {
	encoded, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("trace: encode record %d: %w", rec.Seq, err)
	}
	frame := make([]byte, 4+len(encoded))
	binary.BigEndian.PutUint32(frame, uint32(len(encoded)))
	copy(frame[4:], encoded)

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write(frame); err != nil {
		return fmt.Errorf("trace: write record %d: %w", rec.Seq, err)
	}
	return nil
}

// Record journals one message, assigning it the next sequence number.
func (j *Writer) Record(dir Direction, m types.Message) error {
	j.mu.Lock()
	seq := j.seq
	j.seq++
	j.mu.Unlock()

	rec, err := NewRecord(seq, j.now(), dir, m)
	if err != nil {
		return err
	}
	return j.Append(rec)
}

// Observe journals a message crossing the session boundary; outbound
// means host-to-kernel. It satisfies the session's observer hook, which
// returns nothing, so the first failure is parked on Err.
func (j *Writer) Observe(outbound bool, m types.Message) {
	dir := DirKernel
	if outbound {
		dir = DirHost
	}
	if err := j.Record(dir, m); err != nil {
		j.mu.Lock()
		if j.err == nil {
			j.err = err
		}
		j.mu.Unlock()
	}
}

// Err returns the first failure encountered through Observe.
func (j *Writer) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Reader iterates a journal stream.
type Reader struct {
	r   io.Reader
	buf []byte
}

// NewReader creates a journal reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next returns the next record, or io.EOF at a clean end of journal.
func (r *Reader) Next() (Record, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r.r, prefix[:]); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("trace: partial record prefix: %w", err)
	}
	size := binary.BigEndian.Uint32(prefix[:])
	if size > maxRecordSize {
		return Record{}, fmt.Errorf("trace: record of %d bytes exceeds maximum %d", size, maxRecordSize)
	}
	if cap(r.buf) < int(size) {
		r.buf = make([]byte, size)
	}
	r.buf = r.buf[:size]
	if _, err := io.ReadFull(r.r, r.buf); err != nil {
		return Record{}, fmt.Errorf("trace: partial record payload: %w", err)
	}
	var rec Record
	if err := msgpack.Unmarshal(r.buf, &rec); err != nil {
		return Record{}, fmt.Errorf("trace: decode record: %w", err)
	}
	return rec, nil
}

// ReadAll drains a journal stream into memory.
func ReadAll(r io.Reader) ([]Record, error) {
	jr := NewReader(r)
	var recs []Record
	for {
		rec, err := jr.Next()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
}
