package app

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// MemoryLog keeps the recent output for the api/log handler
var MemoryLog = newBuffer(16)

var Logger = zerolog.Nop()

// log section, module names map to their own levels
var modules = map[string]string{
	"format": "",
	"level":  "info",
	"output": "stdout",
	"time":   zerolog.TimeFormatUnixMs,
}

// GetLogger returns Logger with the level of the module from the `log` section
func GetLogger(module string) zerolog.Logger {
	s, ok := modules[module]
	if !ok {
		return Logger
	}

	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		Logger.Warn().Err(err).Str("module", module).Msg("[app] log level")
		return Logger
	}
	return Logger.Level(lvl)
}

// initLogger reads the `log` section:
//
//	output: stdout (default), stderr or empty for memory only
//	format: color, text, json or empty to detect a terminal
//	time:   UNIXMS (default), UNIXMICRO, UNIXNANO or empty to skip
//	level:  trace, debug, info (default), warn, error, disabled
func initLogger() {
	var cfg struct {
		Log map[string]string `yaml:"log"`
	}
	cfg.Log = modules

	LoadConfig(&cfg)

	Logger = newLogger(modules)
}

func newLogger(cfg map[string]string) zerolog.Logger {
	var w io.Writer = MemoryLog

	if out := outputFile(cfg["output"]); out != nil {
		if cfg["format"] == "json" {
			w = zerolog.MultiLevelWriter(out, MemoryLog)
		} else {
			w = zerolog.MultiLevelWriter(consoleWriter(out, cfg["format"], cfg["time"] != ""), MemoryLog)
		}
	}

	lvl, _ := zerolog.ParseLevel(cfg["level"])
	logger := zerolog.New(w).Level(lvl)

	if cfg["time"] == "" {
		return logger
	}

	zerolog.TimeFieldFormat = cfg["time"]
	return logger.With().Timestamp().Logger()
}

func outputFile(name string) *os.File {
	switch name {
	case "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}
	return nil
}

func consoleWriter(out *os.File, format string, withTime bool) io.Writer {
	console := zerolog.ConsoleWriter{Out: out}

	switch format {
	case "color":
	case "text":
		console.NoColor = true
	default:
		console.NoColor = !isatty.IsTerminal(out.Fd()) && !isatty.IsCygwinTerminal(out.Fd())
	}

	if withTime {
		console.TimeFormat = "15:04:05.000"
	} else {
		console.PartsOrder = []string{zerolog.LevelFieldName, zerolog.CallerFieldName, zerolog.MessageFieldName}
	}

	return console
}

const chunkSize = 1 << 16

// ringBuffer holds the last N chunks of output, the oldest chunk is
// dropped when all of them are full
type ringBuffer struct {
	chunks [][]byte
	head   int  // chunk for writing
	full   bool // head has wrapped at least once
	mu     sync.Mutex
}

func newBuffer(chunks int) *ringBuffer {
	return &ringBuffer{chunks: make([][]byte, chunks)}
}

func (b *ringBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cur := b.chunks[b.head]; len(cur) > 0 && len(cur)+len(p) > chunkSize {
		if b.head++; b.head == len(b.chunks) {
			b.head = 0
			b.full = true
		}
		b.chunks[b.head] = b.chunks[b.head][:0]
	}

	if b.chunks[b.head] == nil {
		b.chunks[b.head] = make([]byte, 0, chunkSize)
	}
	b.chunks[b.head] = append(b.chunks[b.head], p...)

	return len(p), nil
}

func (b *ringBuffer) WriteTo(w io.Writer) (n int64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order := b.chunks[:b.head+1]
	if b.full {
		order = append(b.chunks[b.head+1:len(b.chunks):len(b.chunks)], order...)
	}

	for _, chunk := range order {
		nn, err := w.Write(chunk)
		n += int64(nn)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (b *ringBuffer) Reset() {
	b.mu.Lock()
	for i := range b.chunks {
		b.chunks[i] = b.chunks[i][:0]
	}
	b.head = 0
	b.full = false
	b.mu.Unlock()
}
