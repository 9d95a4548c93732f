package logging

import (
	"fmt"
	"io"
	"os"
)

// RotateIfNeeded renames the log file to <name>.<timestamp> once it grows
// past maxSize bytes and reopens a fresh file in its place.
func (l *Logger) RotateIfNeeded(maxSize int64) (bool, error) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.logFile == nil {
		return false, nil
	}

	info, err := l.sink.logFile.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() <= maxSize {
		return false, nil
	}

	oldPath := l.sink.logFile.Name()
	backupPath := oldPath + "." + l.now().Format("20060102-150405")

	l.sink.logFile.Close()
	renameErr := os.Rename(oldPath, backupPath)

	// reopen in place even when the rename failed so logging carries on
	newFile, err := os.OpenFile(oldPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		l.sink.logFile = nil
		l.sink.output = os.Stderr
		return false, fmt.Errorf("failed to reopen %s: %w", oldPath, err)
	}

	l.sink.logFile = newFile
	l.sink.output = io.MultiWriter(newFile, os.Stderr)
	if renameErr != nil {
		return false, fmt.Errorf("failed to rotate %s: %w", oldPath, renameErr)
	}
	return true, nil
}
