package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// sink is shared by a logger and every logger derived from it with With, so
// entries from any of them never interleave and SetLevel applies to all.
type sink struct {
	mu    sync.Mutex
	w     io.Writer
	level atomic.Int32
}

// JSONLogger writes one JSON object per line.
type JSONLogger struct {
	sink   *sink
	fields []Field
	now    func() time.Time
}

func NewJSONLogger(w io.Writer, level Level) *JSONLogger {
	s := &sink{w: w}
	s.level.Store(int32(level))
	return &JSONLogger{sink: s, now: time.Now}
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

func (l *JSONLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &JSONLogger{sink: l.sink, fields: merged, now: l.now}
}

// SetLevel changes the minimum level of l and of every logger sharing its
// output.
func (l *JSONLogger) SetLevel(level Level) {
	l.sink.level.Store(int32(level))
}

func (l *JSONLogger) Level() Level {
	return Level(l.sink.level.Load())
}

func (l *JSONLogger) log(level Level, msg string, fields []Field) {
	if level < l.Level() {
		return
	}
	line := l.encode(level, msg, fields)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	_, _ = l.sink.w.Write(line)
}

// encode renders the entry. A key given more than once keeps its first
// position and its last value, so call-site fields override With fields.
func (l *JSONLogger) encode(level Level, msg string, fields []Field) []byte {
	all := make([]Field, 0, len(l.fields)+len(fields))
	index := make(map[string]int, cap(all))
	for _, group := range [][]Field{l.fields, fields} {
		for _, f := range group {
			if i, ok := index[f.Key]; ok {
				all[i].Value = f.Value
				continue
			}
			index[f.Key] = len(all)
			all = append(all, f)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(`{"time":`)
	writeJSON(&buf, l.now().UTC().Format(time.RFC3339Nano))
	buf.WriteString(`,"level":`)
	writeJSON(&buf, level.String())
	buf.WriteString(`,"msg":`)
	writeJSON(&buf, msg)
	for _, f := range all {
		buf.WriteByte(',')
		writeJSON(&buf, f.Key)
		buf.WriteByte(':')
		writeJSON(&buf, f.Value)
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

func writeJSON(buf *bytes.Buffer, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprintf("!unencodable %T: %v", v, err))
	}
	buf.Write(data)
}

// TimedOperation logs one operation together with how long it took.
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}

func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{logger: logger, msg: msg, start: time.Now(), fields: fields}
}

func (t *TimedOperation) End() {
	t.logger.Info(t.msg, t.with(Latency(time.Since(t.start)))...)
}

func (t *TimedOperation) EndError(err error) {
	t.logger.Error(t.msg, t.with(Latency(time.Since(t.start)), Error(err))...)
}

func (t *TimedOperation) with(extra ...Field) []Field {
	out := make([]Field, 0, len(t.fields)+len(extra))
	return append(append(out, t.fields...), extra...)
}
