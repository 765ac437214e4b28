package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

// captureOutput redirects logger output to a buffer for testing.
// Returns the buffer and a cleanup function to restore original output.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false // Disable colors for easier testing
	mu.Unlock()

	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		reconfigure()
	}

	return buf, cleanup
}

// ============================================================================
// Level Filtering Tests
// ============================================================================

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.Contains(t, out, "DEBUG")
		assert.Contains(t, out, "INFO")
		assert.Contains(t, out, "WARN")
		assert.Contains(t, out, "ERROR")
		assert.Contains(t, out, "debug message")
		assert.Contains(t, out, "info message")
		assert.Contains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("InfoLevelFiltersDebug", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.NotContains(t, out, "DEBUG")
		assert.NotContains(t, out, "debug message")
		assert.Contains(t, out, "INFO")
		assert.Contains(t, out, "WARN")
		assert.Contains(t, out, "ERROR")
	})

	t.Run("ErrorLevelShowsOnlyErrors", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("ERROR")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.NotContains(t, out, "DEBUG")
		assert.NotContains(t, out, "INFO")
		assert.NotContains(t, out, "WARN")
		assert.Contains(t, out, "ERROR")
		assert.Contains(t, out, "error message")
	})
}

// ============================================================================
// SetLevel Tests
// ============================================================================

func TestSetLevel(t *testing.T) {
	t.Run("SetLevelChangesFilteringBehavior", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("ERROR")
		Info("should not appear")
		buf.Reset()

		SetLevel("INFO")
		Info("should appear")

		out := buf.String()
		assert.Contains(t, out, "should appear")
		assert.NotContains(t, out, "should not appear")
	})

	t.Run("SetLevelIsCaseInsensitive", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("debug")
		Debug("test message")
		assert.Contains(t, buf.String(), "test message")

		buf.Reset()
		SetLevel("DeBuG")
		Debug("test message 2")
		assert.Contains(t, buf.String(), "test message 2")
	})

	t.Run("SetLevelIgnoresInvalidValues", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		Info("info message")
		assert.Contains(t, buf.String(), "INFO")
		buf.Reset()

		SetLevel("INVALID")
		Debug("debug message")
		Info("info message 2")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.Contains(t, out, "info message 2")
	})
}

// ============================================================================
// Message Formatting Tests
// ============================================================================

func TestMessageFormatting(t *testing.T) {
	t.Run("FormatsMessagesWithTimestamp", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		Info("test message")

		assert.Regexp(t, `\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\]`, buf.String())
	})

	t.Run("FormatsMessagesWithLevel", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")

		Debug("test")
		Info("test")
		Warn("test")
		Error("test")

		out := buf.String()
		assert.Contains(t, out, "[DEBUG]")
		assert.Contains(t, out, "[INFO]")
		assert.Contains(t, out, "[WARN]")
		assert.Contains(t, out, "[ERROR]")
	})

	t.Run("FormatsMessagesWithStructuredFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		Info("resolved identifier", KeyIdentifier, "~alice", KeyTxid, "deadbeef")

		out := buf.String()
		assert.Contains(t, out, "resolved identifier")
		assert.Contains(t, out, "identifier=~alice")
		assert.Contains(t, out, "txid=deadbeef")
	})

	t.Run("HandlesEmptyMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		Info("")

		assert.Contains(t, buf.String(), "[INFO]")
	})
}

// ============================================================================
// Level String Tests
// ============================================================================

func TestLevelString(t *testing.T) {
	t.Run("LevelDebugToString", func(t *testing.T) {
		assert.Equal(t, "DEBUG", LevelDebug.String())
	})

	t.Run("LevelInfoToString", func(t *testing.T) {
		assert.Equal(t, "INFO", LevelInfo.String())
	})

	t.Run("LevelWarnToString", func(t *testing.T) {
		assert.Equal(t, "WARN", LevelWarn.String())
	})

	t.Run("LevelErrorToString", func(t *testing.T) {
		assert.Equal(t, "ERROR", LevelError.String())
	})

	t.Run("InvalidLevelToString", func(t *testing.T) {
		invalid := Level(99)
		assert.Equal(t, "UNKNOWN", invalid.String())
	})
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestConcurrentLogging(t *testing.T) {
	t.Run("ConcurrentLogsDoNotRace", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")

		const numGoroutines = 10
		const logsPerGoroutine = 100

		var wg sync.WaitGroup
		wg.Add(numGoroutines)

		for i := 0; i < numGoroutines; i++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < logsPerGoroutine; j++ {
					Info("goroutine log", "id", id, "iteration", j)
				}
			}(i)
		}

		wg.Wait()

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Equal(t, numGoroutines*logsPerGoroutine, len(lines))
	})

	t.Run("ConcurrentLevelChanges", func(t *testing.T) {
		// Use io.Discard: SetLevel reconfigures the handler, and a
		// bytes.Buffer isn't safe to share with concurrent writers here.
		InitWithWriter(io.Discard, "DEBUG", "text", false)
		defer func() {
			mu.Lock()
			output = os.Stdout
			mu.Unlock()
			reconfigure()
		}()

		const numGoroutines = 5
		const iterations = 50

		var wg sync.WaitGroup
		wg.Add(numGoroutines * 2)

		for i := 0; i < numGoroutines; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < iterations; j++ {
					if j%2 == 0 {
						SetLevel("DEBUG")
					} else {
						SetLevel("ERROR")
					}
				}
			}()
		}

		for i := 0; i < numGoroutines; i++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < iterations; j++ {
					Debug("debug", "id", id)
					Info("info", "id", id)
					Warn("warn", "id", id)
					Error("error", "id", id)
				}
			}(i)
		}

		require.NotPanics(t, func() {
			wg.Wait()
		})
	})
}

// ============================================================================
// JSON Format Tests
// ============================================================================

func TestJSONFormat(t *testing.T) {
	t.Run("JSONFormatProducesValidJSON", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("json")

		Info("resolved nametag", "nametag", "~alice", "revision", 3)

		line := strings.TrimSpace(buf.String())

		var entry map[string]any
		err := json.Unmarshal([]byte(line), &entry)
		require.NoError(t, err, "output should be valid JSON: %s", line)

		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "resolved nametag", entry["msg"])
		assert.Equal(t, "~alice", entry["nametag"])
		assert.Equal(t, float64(3), entry["revision"])
	})

	t.Run("JSONFormatIncludesTimestamp", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("json")

		Info("test message")

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
		assert.Contains(t, entry, "time")
	})
}

// ============================================================================
// Format Switching Tests
// ============================================================================

func TestFormatSwitching(t *testing.T) {
	t.Run("SwitchFromTextToJSON", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")

		SetFormat("text")
		Info("text message")
		textOutput := buf.String()
		buf.Reset()

		SetFormat("json")
		Info("json message")
		jsonOutput := strings.TrimSpace(buf.String())

		assert.Contains(t, textOutput, "[INFO]")
		assert.True(t, json.Valid([]byte(jsonOutput)), "should be valid JSON")
	})

	t.Run("InvalidFormatIgnored", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("text")
		SetFormat("xml")

		Info("test message")

		assert.Contains(t, buf.String(), "[INFO]")
	})
}

// ============================================================================
// Context Logging Tests
// ============================================================================

func TestContextLogging(t *testing.T) {
	t.Run("LogContextInjectsFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("json")

		lc := &LogContext{
			TraceID:    "abc123",
			SpanID:     "xyz789",
			Operation:  "get",
			Identifier: "~alice/readme.txt",
		}
		ctx := WithContext(context.Background(), lc)

		InfoCtx(ctx, "operation completed", "extra_field", "value")

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))

		assert.Equal(t, "abc123", entry["trace_id"])
		assert.Equal(t, "xyz789", entry["span_id"])
		assert.Equal(t, "get", entry["operation"])
		assert.Equal(t, "~alice/readme.txt", entry["identifier"])
		assert.Equal(t, "value", entry["extra_field"])
	})

	t.Run("NilContextHandled", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")

		require.NotPanics(t, func() {
			InfoCtx(nil, "test message") //nolint:staticcheck // exercising the nil-context guard
		})

		assert.Contains(t, buf.String(), "test message")
	})

	t.Run("ContextWithoutLogContextHandled", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")

		require.NotPanics(t, func() {
			InfoCtx(context.Background(), "test message")
		})

		assert.Contains(t, buf.String(), "test message")
	})

	t.Run("DebugWarnErrorCtxAlsoInjectFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")
		SetFormat("json")

		lc := &LogContext{Operation: "send", Identifier: "~bob"}
		ctx := WithContext(context.Background(), lc)

		DebugCtx(ctx, "debug line")
		WarnCtx(ctx, "warn line")
		ErrorCtx(ctx, "error line")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)

		for _, line := range lines {
			var entry map[string]any
			require.NoError(t, json.Unmarshal([]byte(line), &entry))
			assert.Equal(t, "send", entry["operation"])
			assert.Equal(t, "~bob", entry["identifier"])
		}
	})
}

// ============================================================================
// LogContext Tests
// ============================================================================

func TestLogContext(t *testing.T) {
	t.Run("NewLogContext", func(t *testing.T) {
		lc := NewLogContext("~alice")
		assert.Equal(t, "~alice", lc.Identifier)
		assert.False(t, lc.StartTime.IsZero())
	})

	t.Run("Clone", func(t *testing.T) {
		lc := &LogContext{
			TraceID:    "trace123",
			Operation:  "get",
			Identifier: "~alice",
		}

		clone := lc.Clone()
		assert.Equal(t, lc.TraceID, clone.TraceID)
		assert.Equal(t, lc.Operation, clone.Operation)
		assert.Equal(t, lc.Identifier, clone.Identifier)

		clone.Operation = "send"
		assert.Equal(t, "get", lc.Operation)
	})

	t.Run("CloneNil", func(t *testing.T) {
		var lc *LogContext
		assert.Nil(t, lc.Clone())
	})

	t.Run("WithOperation", func(t *testing.T) {
		lc := NewLogContext("~alice")
		lc2 := lc.WithOperation("resolve")

		assert.Equal(t, "resolve", lc2.Operation)
		assert.Equal(t, "", lc.Operation) // original unchanged
	})

	t.Run("WithTrace", func(t *testing.T) {
		lc := NewLogContext("~alice")
		lc2 := lc.WithTrace("trace1", "span1")

		assert.Equal(t, "trace1", lc2.TraceID)
		assert.Equal(t, "span1", lc2.SpanID)
		assert.Equal(t, "", lc.TraceID) // original unchanged
	})

	t.Run("DurationMsOnZeroValueIsZero", func(t *testing.T) {
		var lc LogContext
		assert.Equal(t, 0.0, lc.DurationMs())
	})

	t.Run("DurationMsIsNonNegative", func(t *testing.T) {
		lc := NewLogContext("~alice")
		assert.GreaterOrEqual(t, lc.DurationMs(), 0.0)
	})
}

// ============================================================================
// Field Helper Tests
// ============================================================================

func TestFieldHelpers(t *testing.T) {
	t.Run("IdentifierField", func(t *testing.T) {
		attr := Identifier("~alice")
		assert.Equal(t, KeyIdentifier, attr.Key)
		assert.Equal(t, "~alice", attr.Value.String())
	})

	t.Run("TxidField", func(t *testing.T) {
		attr := Txid("deadbeef")
		assert.Equal(t, KeyTxid, attr.Key)
		assert.Equal(t, "deadbeef", attr.Value.String())
	})

	t.Run("ErrHandlesNil", func(t *testing.T) {
		attr := Err(nil)
		assert.Equal(t, "", attr.Key) // empty attr for nil error
	})

	t.Run("ErrFormatsError", func(t *testing.T) {
		attr := Err(assert.AnError)
		assert.Equal(t, KeyError, attr.Key)
		assert.Contains(t, attr.Value.String(), "assert.AnError")
	})

	t.Run("ChainIndexAndTreeDepthFields", func(t *testing.T) {
		assert.Equal(t, KeyChainIndex, ChainIndex(2).Key)
		assert.Equal(t, KeyTreeDepth, TreeDepth(1).Key)
	})
}

// ============================================================================
// Printf-style Backward Compatibility Tests
// ============================================================================

func TestPrintfStyleLogging(t *testing.T) {
	t.Run("DebugfFormatsCorrectly", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")
		Debugf("identifier %s resolved at revision %d", "~alice", 3)

		assert.Contains(t, buf.String(), "identifier ~alice resolved at revision 3")
	})

	t.Run("InfofFormatsCorrectly", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		Infof("count: %d", 100)

		assert.Contains(t, buf.String(), "count: 100")
	})

	t.Run("WarnfFormatsCorrectly", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("WARN")
		Warnf("warning: %s", "something happened")

		assert.Contains(t, buf.String(), "warning: something happened")
	})

	t.Run("ErrorfFormatsCorrectly", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("ERROR")
		Errorf("error: %v", "test error")

		assert.Contains(t, buf.String(), "error: test error")
	})
}

// ============================================================================
// Edge Cases Tests
// ============================================================================

func TestEdgeCases(t *testing.T) {
	t.Run("LogWithNoFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		require.NotPanics(t, func() {
			Info("test")
		})

		assert.Contains(t, buf.String(), "test")
	})

	t.Run("LogWithSpecialCharacters", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		Info("test message", "key", "value with spaces", "key2", "value=with=equals")

		out := buf.String()
		assert.Contains(t, out, "value with spaces")
		assert.Contains(t, out, "value=with=equals")
	})

	t.Run("WithReturnsBoundLogger", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("text")
		bound := With(KeyIdentifier, "~alice")
		bound.Info("bound message")

		assert.Contains(t, buf.String(), "identifier=~alice")
	})
}

// ============================================================================
// Init Tests
// ============================================================================

func TestInit(t *testing.T) {
	t.Run("InitWithWriter", func(t *testing.T) {
		buf := new(bytes.Buffer)

		InitWithWriter(buf, "DEBUG", "text", false)
		Debug("test message")
		assert.Contains(t, buf.String(), "test message")

		mu.Lock()
		output = os.Stdout
		mu.Unlock()
		reconfigure()
	})

	t.Run("InitWithConfig", func(t *testing.T) {
		err := Init(Config{
			Level:  "DEBUG",
			Format: "text",
			Output: "stdout",
		})
		require.NoError(t, err)

		mu.Lock()
		output = os.Stdout
		mu.Unlock()
		reconfigure()
	})

	t.Run("InitWithEmptyConfig", func(t *testing.T) {
		require.NoError(t, Init(Config{}))
	})

	t.Run("InitWithFilePath", func(t *testing.T) {
		f, err := os.CreateTemp(t.TempDir(), "cashweb-log-*.log")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		require.NoError(t, Init(Config{Level: "INFO", Format: "json", Output: f.Name()}))
		Info("file-backed message")

		mu.Lock()
		output = os.Stdout
		mu.Unlock()
		reconfigure()

		contents, err := os.ReadFile(f.Name())
		require.NoError(t, err)
		assert.Contains(t, string(contents), "file-backed message")
	})
}

// ============================================================================
// Benchmarks
// ============================================================================

func BenchmarkLogDisabled(b *testing.B) {
	buf := new(bytes.Buffer)
	InitWithWriter(buf, "ERROR", "text", false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Debug("test message", "key", "value")
	}
}

func BenchmarkLogText(b *testing.B) {
	buf := new(bytes.Buffer)
	InitWithWriter(buf, "DEBUG", "text", false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Info("test message", "key", "value", "count", i)
	}
}

func BenchmarkLogJSON(b *testing.B) {
	buf := new(bytes.Buffer)
	InitWithWriter(buf, "DEBUG", "json", false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Info("test message", "key", "value", "count", i)
	}
}

func BenchmarkLogCtx(b *testing.B) {
	buf := new(bytes.Buffer)
	InitWithWriter(buf, "DEBUG", "json", false)

	lc := &LogContext{TraceID: "abc123", SpanID: "xyz789", Operation: "get", Identifier: "~alice"}
	ctx := WithContext(context.Background(), lc)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		InfoCtx(ctx, "test message", "count", i)
	}
}
