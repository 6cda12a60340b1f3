package stream

import (
	"fmt"
	"strings"
)

const (
	KindIntensity = "intensity"
	KindParams    = "params"
	KindSummary   = "summary"
	KindReset     = "reset"
)

// Subjects builds and parses <prefix>.<stream>.<kind> subjects.
type Subjects struct {
	Prefix string
}

func (s Subjects) Intensity(stream string) string { return s.subject(stream, KindIntensity) }
func (s Subjects) Params(stream string) string    { return s.subject(stream, KindParams) }
func (s Subjects) Summary(stream string) string   { return s.subject(stream, KindSummary) }
func (s Subjects) Reset(stream string) string     { return s.subject(stream, KindReset) }

// Wildcard matches one kind across every stream.
func (s Subjects) Wildcard(kind string) string { return s.subject("*", kind) }

// All matches every kind of every stream.
func (s Subjects) All() string { return s.subject("*", "*") }

func (s Subjects) subject(stream, kind string) string {
	return fmt.Sprintf("%s.%s.%s", s.Prefix, stream, kind)
}

// Parse splits a subject into stream name and kind.
func (s Subjects) Parse(subject string) (stream, kind string, ok bool) {
	rest, found := strings.CutPrefix(subject, s.Prefix+".")
	if !found {
		return "", "", false
	}
	stream, kind, found = strings.Cut(rest, ".")
	if !found || stream == "" || kind == "" || strings.Contains(kind, ".") {
		return "", "", false
	}
	return stream, kind, true
}
