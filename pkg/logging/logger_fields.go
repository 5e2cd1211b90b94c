package logging

import (
	"time"
)

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Error records err's message, or null for a nil error.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Component(name string) Field { return String("component", name) }
func Model(id string) Field       { return String("model", id) }
func Network(id string) Field     { return String("network", id) }
func Node(id string) Field        { return String("node", id) }

// Link renders a link as "from -> to" with network-qualified endpoints.
func Link(from, to string) Field {
	return String("link", from+" -> "+to)
}

func LinkKind(kind string) Field    { return String("link_kind", kind) }
func Call(name string) Field        { return String("engine_call", name) }
func Operation(op string) Field     { return String("operation", op) }
func Latency(d time.Duration) Field { return Duration("latency", d) }
func Count(n int) Field             { return Int("count", n) }
