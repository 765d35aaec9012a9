package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestCanLog(t *testing.T) {
	table := map[LogLevel][]LogLevel{
		LOG_NOTHING: []LogLevel{},
		LOG_ERROR:   []LogLevel{LOG_ERROR},
		LOG_WARN:    []LogLevel{LOG_ERROR, LOG_WARN},
		LOG_INFO:    []LogLevel{LOG_ERROR, LOG_WARN, LOG_INFO},
		LOG_DEBUG:   []LogLevel{LOG_ERROR, LOG_WARN, LOG_INFO, LOG_DEBUG},
	}

	userLogLevels := []LogLevel{
		LOG_ERROR, LOG_WARN, LOG_INFO, LOG_DEBUG,
	}

	for current, permitted := range table {
		SetLevel(current)

		for _, level := range userLogLevels {
			loggable := CanLog(level)
			found := findLevel(level, permitted)

			if loggable != found {
				t.Errorf("Bad log permission '%v' at %v for %v", loggable, current, level)
			}
		}
	}
}

func TestParse(t *testing.T) {
	table := map[string]LogLevel{
		"debug":   LOG_DEBUG,
		"INFO":    LOG_INFO,
		"warning": LOG_WARN,
		"Warn":    LOG_WARN,
		"error":   LOG_ERROR,
		"nothing": LOG_NOTHING,
	}

	for text, expected := range table {
		actual, err := Parse(text)

		if err != nil {
			t.Errorf("Unexpected error parsing '%s': %v", text, err)
		}

		if actual != expected {
			t.Errorf("Parsed '%s' as %v, expected %v", text, actual, expected)
		}
	}

	_, err := Parse("loud")

	if err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestSetOutput(t *testing.T) {
	buff := &bytes.Buffer{}
	SetOutput(buff)
	SetLevel(LOG_WARN)

	Info("hidden %v", 1)
	Warn("shown %v", map[string]int{"a": 1})

	text := buff.String()

	if strings.Contains(text, "hidden") {
		t.Error("Info logged at warn level")
	}

	if !strings.Contains(text, "WARN shown") {
		t.Errorf("Missing warn line in: %s", text)
	}
}

func findLevel(level LogLevel, levels []LogLevel) bool {
	for _, l := range levels {
		if level == l {
			return true
		}
	}

	return false
}
