package tracing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMaskPII(t *testing.T) {
	cases := map[string]string{
		"":            "",
		"a":           "*",
		"张三":          "张*",
		"王小明":         "王*明",
		"13812345678": "13*******78",
	}
	for in, want := range cases {
		assert.Equal(t, want, MaskPII(in), in)
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
	got := TruncateString(strings.Repeat("x", 50)+strings.Repeat("y", 50), 23)
	assert.Equal(t, strings.Repeat("x", 10)+"..."+strings.Repeat("y", 10), got)
}

func TestSafeAttributeValue(t *testing.T) {
	assert.Equal(t, "us**23", SafeAttributeValue("cv.owner_id", "user23", 100))
	assert.Equal(t, "plain", SafeAttributeValue("cv.filename", "plain", 100))
	assert.Equal(t, "one two", SafeCVContent("one\n\ttwo"))
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := tp.Tracer("test").Start(t.Context(), "op")
	RecordError(span, errors.New("boom"), ErrorTypeDB)
	RecordError(span, nil, ErrorTypeDB)
	span.End()

	spans := recorder.Ended()
	if assert.Len(t, spans, 1) {
		assert.Equal(t, codes.Error, spans[0].Status().Code)
		assert.Equal(t, "boom", spans[0].Status().Description)
		assert.Len(t, spans[0].Events(), 1)
	}
}
