package main

import (
	"io"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logOutput returns console, or console plus a size-rotated JSON file when
// file is set. The returned func closes the file.
func logOutput(console io.Writer, file string) (io.Writer, func()) {
	if file == "" {
		return console, func() {}
	}

	rotating := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	return zerolog.MultiLevelWriter(console, rotating), func() { rotating.Close() }
}
