package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/davecgh/go-spew/spew"
)

// Levelled printf helpers. Arguments are formatted with spew so that maps and
// nested values print readably.

type LogLevel uint8

const (
	LOG_NOTHING = LogLevel(iota)
	LOG_ERROR
	LOG_WARN
	LOG_INFO
	LOG_DEBUG
)

func Parse(text string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case __DEBUG_TEXT:
		return LOG_DEBUG, nil
	case __INFO_TEXT:
		return LOG_INFO, nil
	case "WARNING":
		fallthrough
	case __WARN_TEXT:
		return LOG_WARN, nil
	case __ERROR_TEXT:
		return LOG_ERROR, nil
	case __NOTHING_TEXT, "NONE":
		return LOG_NOTHING, nil
	}

	return LOG_DEBUG, fmt.Errorf("Unknown log level: '%s'", text)
}

func (level LogLevel) String() string {
	switch level {
	case LOG_NOTHING:
		return __NOTHING_TEXT
	case LOG_DEBUG:
		return __DEBUG_TEXT
	case LOG_WARN:
		return __WARN_TEXT
	case LOG_ERROR:
		return __ERROR_TEXT
	case LOG_INFO:
		return __INFO_TEXT
	default:
		return strconv.Itoa(int(level))
	}
}

type logState struct {
	sync.RWMutex
	level  LogLevel
	logger *log.Logger
}

var __LOG = logState{
	level:  LOG_WARN,
	logger: log.New(os.Stderr, "", log.LstdFlags),
}

func SetLevel(level LogLevel) {
	__LOG.Lock()
	__LOG.level = level
	__LOG.Unlock()
	Info("Log level set to %v", level)
}

// SetOutput redirects log lines, e.g. to a file for the console.
func SetOutput(w io.Writer) {
	__LOG.Lock()
	defer __LOG.Unlock()
	__LOG.logger.SetOutput(w)
}

func CanLog(level LogLevel) bool {
	__LOG.RLock()
	defer __LOG.RUnlock()
	return __LOG.level >= level
}

func Debug(msg string, args ...interface{}) {
	if CanLog(LOG_DEBUG) {
		logMsg(LOG_DEBUG.String(), msg, args...)
	}
}

func Info(msg string, args ...interface{}) {
	if CanLog(LOG_INFO) {
		logMsg(LOG_INFO.String(), msg, args...)
	}
}

func Warn(msg string, args ...interface{}) {
	if CanLog(LOG_WARN) {
		logMsg(LOG_WARN.String(), msg, args...)
	}
}

func Error(msg string, args ...interface{}) {
	if CanLog(LOG_ERROR) {
		logMsg(LOG_ERROR.String(), msg, args...)
	}
}

func logMsg(level, msg string, args ...interface{}) {
	format := fmt.Sprintf("%s %s", level, msg)
	spewDump := spew.Sprintf(format, args...)

	__LOG.RLock()
	logger := __LOG.logger
	__LOG.RUnlock()

	logger.Print(spewDump)
}

const __DEBUG_TEXT = "DEBUG"
const __INFO_TEXT = "INFO"
const __WARN_TEXT = "WARN"
const __ERROR_TEXT = "ERROR"
const __NOTHING_TEXT = "NOTHING"
