// Package nlog is a small buffered logger used throughout the pipeline in
// place of the standard library's log package: severities, a caller-depth
// prefix, and batched writes of Info lines (up to flushBatch per write).
// Warning and Error lines flush the buffer immediately.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevPrefix = [...]byte{sevInfo: 'I', sevWarn: 'W', sevErr: 'E'}

const flushBatch = 64

type logger struct {
	mu      sync.Mutex
	out     io.Writer
	pending []byte
	lines   int
}

var std = &logger{out: os.Stderr}

// SetOutput redirects all subsequent log lines, e.g. to a rotating file
// opened by the (out-of-scope) driver.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	std.flushLocked()
	std.out = w
	std.mu.Unlock()
}

func Infof(format string, args ...any)    { std.logf(sevInfo, 1, format, args...) }
func Warningf(format string, args ...any) { std.logf(sevWarn, 1, format, args...) }
func Errorf(format string, args ...any)   { std.logf(sevErr, 1, format, args...) }

func Infoln(args ...any)    { std.logln(sevInfo, 1, args...) }
func Warningln(args ...any) { std.logln(sevWarn, 1, args...) }
func Errorln(args ...any)   { std.logln(sevErr, 1, args...) }

// InfoDepth/ErrorDepth let a thin wrapper (e.g. per-row recover()) report the
// caller's line instead of its own.
func InfoDepth(depth int, args ...any)  { std.logln(sevInfo, depth+1, args...) }
func ErrorDepth(depth int, args ...any) { std.logln(sevErr, depth+1, args...) }

// Flush forces any buffered lines out. Call on shard/orchestrator shutdown.
func Flush() {
	std.mu.Lock()
	std.flushLocked()
	std.mu.Unlock()
}

func (l *logger) logf(sev severity, depth int, format string, args ...any) {
	l.write(sev, depth+1, fmt.Sprintf(format, args...))
}

func (l *logger) logln(sev severity, depth int, args ...any) {
	l.write(sev, depth+1, fmt.Sprintln(args...))
}

func (l *logger) write(sev severity, depth int, msg string) {
	line := header(sev, depth+1) + strings.TrimSuffix(msg, "\n") + "\n"

	l.mu.Lock()
	l.pending = append(l.pending, line...)
	l.lines++
	if sev >= sevWarn || l.lines >= flushBatch {
		l.flushLocked()
	}
	l.mu.Unlock()
}

// under l.mu
func (l *logger) flushLocked() {
	if len(l.pending) == 0 {
		return
	}
	l.out.Write(l.pending)
	l.pending = l.pending[:0]
	l.lines = 0
}

func header(sev severity, depth int) string {
	_, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		file, line = "???", 0
	} else if i := strings.LastIndexByte(file, '/'); i >= 0 {
		file = file[i+1:]
	}
	now := time.Now()
	return fmt.Sprintf("%c %02d:%02d:%02d.%06d %s:%d] ",
		sevPrefix[sev], now.Hour(), now.Minute(), now.Second(), now.Nanosecond()/1e3, file, line)
}
