package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// GenesisHash is the prev_hash for the first entry in a new event log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// queueSize bounds the in-memory append buffer. Entries beyond it spill
// to an overflow slice rather than drop; Append never fails observably.
const queueSize = 1024

// retryBackoff is the wait between persistence retries.
const retryBackoff = 250 * time.Millisecond

// Log is an append-only JSONL safety event log with SHA-256 hash chaining.
// Each entry's prev_hash is the hash of the previous entry's JSON line,
// forming a tamper-evident chain. Appends are asynchronous: a writer
// goroutine persists buffered entries and retries on failure.
type Log struct {
	path     string
	file     *os.File
	prevHash string

	queue    chan Entry
	overflow []Entry
	mu       sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

// Open opens (or creates) an event log file for appending.
// If the file already exists, it reads the last line to recover the chain
// tail, then starts the background writer.
func Open(path string) (*Log, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	prevHash := GenesisHash

	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("audit: read existing log: %w", err)
		}
		scanner := bufio.NewScanner(f)
		var lastLine []byte
		for scanner.Scan() {
			lastLine = make([]byte, len(scanner.Bytes()))
			copy(lastLine, scanner.Bytes())
		}
		f.Close()
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("audit: scan existing log: %w", err)
		}
		if len(lastLine) > 0 {
			prevHash = HashLine(lastLine)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}

	l := &Log{
		path:     path,
		file:     file,
		prevHash: prevHash,
		queue:    make(chan Entry, queueSize),
		done:     make(chan struct{}),
	}

	l.wg.Add(1)
	go l.writer()

	return l, nil
}

// Append enqueues an entry for persistence. It never blocks: when the
// buffer is full the entry spills to an overflow slice and is written
// once the writer catches up. Once spilling starts, overflow stays the
// sole buffer until the writer empties it, so entries persist in
// append order.
func (l *Log) Append(entry Entry) {
	l.mu.Lock()
	if len(l.overflow) > 0 {
		l.overflow = append(l.overflow, entry)
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	select {
	case l.queue <- entry:
	default:
		l.mu.Lock()
		l.overflow = append(l.overflow, entry)
		l.mu.Unlock()
	}
}

// writer drains the queue, persisting each entry in order. Persistence
// failures are retried with backoff; an entry is never dropped while
// buffered.
func (l *Log) writer() {
	defer l.wg.Done()
	for {
		select {
		case entry := <-l.queue:
			l.persist(entry)
			l.drainBuffers()
		case <-l.done:
			l.drainBuffers()
			return
		}
	}
}

// drainBuffers empties the queue, then the overflow slice, repeating
// until both are empty. Every entry in overflow is newer than every
// entry in the queue (Append spills only while overflow is non-empty
// or the queue is full), so queue-before-overflow preserves append
// order.
func (l *Log) drainBuffers() {
	for {
		select {
		case entry := <-l.queue:
			l.persist(entry)
			continue
		default:
		}

		l.mu.Lock()
		pending := l.overflow
		l.overflow = nil
		l.mu.Unlock()
		if len(pending) == 0 {
			return
		}
		for _, entry := range pending {
			l.persist(entry)
		}
	}
}

// persist writes one entry, retrying until it lands. Retries are bounded
// per attempt cycle but the entry is requeued to overflow when the file
// stays unwritable, so the record survives until Close.
func (l *Log) persist(entry Entry) {
	for attempt := 0; attempt < 4; attempt++ {
		if err := l.record(entry); err == nil {
			return
		}
		time.Sleep(retryBackoff << attempt)
	}
	// Still failing: keep the entry buffered rather than drop it.
	l.mu.Lock()
	l.overflow = append(l.overflow, entry)
	l.mu.Unlock()
	fmt.Fprintf(os.Stderr, "audit: persistence failing for %s, entry requeued\n", l.path)
	time.Sleep(time.Second)
}

// record appends one entry with hash chaining and syncs to disk.
func (l *Log) record(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	}
	entry.PrevHash = l.prevHash

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}

	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}

	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}

	l.prevHash = HashLine(line)
	return nil
}

// Flush blocks until every entry appended before the call has been
// offered to the writer. Intended for tests and shutdown paths.
func (l *Log) Flush() {
	for {
		l.mu.Lock()
		pending := len(l.overflow)
		l.mu.Unlock()
		if pending == 0 && len(l.queue) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Close drains buffered entries and closes the underlying file.
func (l *Log) Close() error {
	close(l.done)
	l.wg.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Path returns the log file path.
func (l *Log) Path() string { return l.path }

// HashLine returns "sha256:<hex>" of the given bytes.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}
