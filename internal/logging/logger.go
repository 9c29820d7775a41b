// BYZRA ⸻ internal/logging/logger.go
// line-oriented log sink backed by zap

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// append-only log file that can be rotated
type FileSink struct {
	mu      sync.Mutex
	logFile *os.File
	path    string
}

func NewFileSink(logPath string) (*FileSink, error) {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &FileSink{logFile: logFile, path: logPath}, nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logFile == nil {
		return 0, fmt.Errorf("log file closed")
	}
	return s.logFile.Write(p)
}

func (s *FileSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logFile == nil {
		return nil
	}
	return s.logFile.Sync()
}

func (s *FileSink) Path() string {
	return s.path
}

// close properly
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logFile == nil {
		return nil
	}
	err := s.logFile.Close()
	s.logFile = nil
	return err
}

// new log file, the old one is archived next to it
func (s *FileSink) Rotate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logFile != nil {
		if err := s.logFile.Close(); err != nil {
			return "", fmt.Errorf("failed to close log file: %w", err)
		}
		s.logFile = nil
	}

	timestamp := time.Now().Format("20060102-150405")
	archived := fmt.Sprintf("%s.%s", s.path, timestamp)
	if err := os.Rename(s.path, archived); err != nil {
		return "", fmt.Errorf("failed to rotate log file: %w", err)
	}

	logFile, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create new log file: %w", err)
	}
	s.logFile = logFile

	return archived, nil
}

type Options struct {
	// log file, empty disables the file sink
	Path string

	// also write to Console
	Verbose bool

	// defaults to stderr
	Console io.Writer

	// rotate the file first when it grew past this many bytes, 0 never
	MaxSize int64
}

// builds the logger the converter writes its lines to
func New(opts Options) (*zap.Logger, *FileSink, error) {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encoderCfg.EncodeCaller = nil
	encoderCfg.CallerKey = ""
	encoderCfg.StacktraceKey = ""

	var cores []zapcore.Core
	var sink *FileSink

	if opts.Path != "" {
		var err error
		sink, err = NewFileSink(opts.Path)
		if err != nil {
			return nil, nil, err
		}

		if opts.MaxSize > 0 {
			if info, err := os.Stat(opts.Path); err == nil && info.Size() > opts.MaxSize {
				if _, err := sink.Rotate(); err != nil {
					sink.Close()
					return nil, nil, err
				}
			}
		}

		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg), sink, zap.InfoLevel))
	}

	if opts.Verbose {
		console := opts.Console
		if console == nil {
			console = os.Stderr
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(console), zap.DebugLevel))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil, nil
	}

	return zap.New(zapcore.NewTee(cores...)), sink, nil
}
