// Package filelog is a small durable journal: records are appended to
// a file first, then handed to a subscriber callback in batches. If
// the process dies before a batch is flushed, the records are replayed
// from the file on the next start. Used for letter headers so a failed
// delivery never loses mail.
package filelog

import (
	"bytes"
	"encoding/binary"
	"io"
	"log"
	"os"
	"time"
)

var littleEndian = binary.LittleEndian

const flushInterval = time.Second

// Config Config
type Config struct {
	File string
	// SubFunc receives flushed record batches. Only when it returns
	// nil is the journal truncated.
	SubFunc func(records []*bytes.Buffer) error
}

type writeReq struct {
	record []byte
	err    chan error
}

// FileLog FileLog
type FileLog struct {
	file    *os.File
	sub     func(records []*bytes.Buffer) error
	writes  chan writeReq
	pending []*bytes.Buffer
	quit    chan struct{}
}

// NewFileLog open (or create) the journal, replay any unflushed
// records into memory, and start the flush loop.
func NewFileLog(config *Config) (*FileLog, error) {
	f, err := os.OpenFile(config.File, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	fl := &FileLog{
		file:   f,
		sub:    config.SubFunc,
		writes: make(chan writeReq),
		quit:   make(chan struct{}),
	}
	if err := fl.replay(); err != nil {
		f.Close()
		return nil, err
	}
	go fl.loop()
	return fl, nil
}

// Write append one record. Returns once the record is in the file.
func (fl *FileLog) Write(record []byte) error {
	errchan := make(chan error, 1)
	fl.writes <- writeReq{record: record, err: errchan}
	return <-errchan
}

// Close stop the flush loop after a final flush attempt.
func (fl *FileLog) Close() {
	close(fl.quit)
}

func (fl *FileLog) replay() error {
	if _, err := fl.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	for {
		var lenbuf [4]byte
		if _, err := io.ReadFull(fl.file, lenbuf[:]); err != nil {
			break
		}
		record := make([]byte, littleEndian.Uint32(lenbuf[:]))
		if _, err := io.ReadFull(fl.file, record); err != nil {
			break
		}
		fl.pending = append(fl.pending, bytes.NewBuffer(record))
	}
	return nil
}

func (fl *FileLog) loop() {
	ticker := time.NewTicker(flushInterval)
	defer func() {
		ticker.Stop()
		fl.file.Close()
	}()
	for {
		select {
		case req := <-fl.writes:
			req.err <- fl.append(req.record)
		case <-ticker.C:
			fl.flush()
		case <-fl.quit:
			fl.flush()
			return
		}
	}
}

func (fl *FileLog) append(record []byte) error {
	var lenbuf [4]byte
	littleEndian.PutUint32(lenbuf[:], uint32(len(record)))
	if _, err := fl.file.Write(lenbuf[:]); err != nil {
		return err
	}
	if _, err := fl.file.Write(record); err != nil {
		return err
	}
	fl.pending = append(fl.pending, bytes.NewBuffer(record))
	return nil
}

func (fl *FileLog) flush() {
	if len(fl.pending) == 0 || fl.sub == nil {
		return
	}
	if err := fl.sub(fl.pending); err != nil {
		// keep the journal, retry next tick
		log.Println("filelog flush:", err)
		return
	}
	fl.pending = nil
	if err := fl.file.Truncate(0); err != nil {
		log.Println("filelog truncate:", err)
		return
	}
	if _, err := fl.file.Seek(0, io.SeekStart); err != nil {
		log.Println("filelog seek:", err)
	}
}
