package httpmsg

import (
	"strings"
	"testing"
)

func TestComposeEnvelopeInjectsContentLength(t *testing.T) {
	c := NewComposer("GET", "/", "HTTP/1.1")
	h := NewHeader()
	h.Add("Host", "example.com")

	var sb strings.Builder
	n, err := c.ComposeEnvelope(&sb, h, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "GET / HTTP/1.1\r\nContent-Length: 5\r\nHost: example.com\r\n\r\n"
	if sb.String() != want {
		t.Fatalf("got %q, want %q", sb.String(), want)
	}
	if int(n) != len(want) {
		t.Fatalf("reported length %d != actual %d", n, len(want))
	}
	if got := c.EnvelopeSize(h, 5); got != len(want) {
		t.Fatalf("EnvelopeSize = %d, want %d", got, len(want))
	}
}

// TestComposeEnvelopeScenario6HeadersComposeInNameSortedOrder reproduces
// spec.md scenario 6 verbatim: headers given as {Host, Content-Type} (in
// that insertion order) compose as Content-Length, Content-Type, Host, in
// case-insensitive name-sorted order rather than insertion order.
func TestComposeEnvelopeScenario6HeadersComposeInNameSortedOrder(t *testing.T) {
	c := NewComposer("GET", "/index.html", "HTTP/1.1")
	h := NewHeader()
	h.Add("Host", "www.example.com")
	h.Add("Content-Type", "text/plain")

	var sb strings.Builder
	if _, err := c.ComposeEnvelope(&sb, h, 25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "GET /index.html HTTP/1.1\r\nContent-Length: 25\r\nContent-Type: text/plain\r\nHost: www.example.com\r\n\r\n"
	if sb.String() != want {
		t.Fatalf("got %q, want %q", sb.String(), want)
	}
}

func TestComposeEnvelopeZeroPayloadOmitsContentLength(t *testing.T) {
	c := NewComposer("GET", "/", "HTTP/1.1")
	h := NewHeader()

	var sb strings.Builder
	if _, err := c.ComposeEnvelope(&sb, h, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(sb.String(), "Content-Length") {
		t.Fatalf("expected no Content-Length for a zero-length payload, got %q", sb.String())
	}
}

func TestComposeEnvelopeStripsExistingFramingHeaders(t *testing.T) {
	c := NewComposer("GET", "/", "HTTP/1.1")
	h := NewHeader()
	h.Add("Content-Length", "999")
	h.Add("Transfer-Encoding", "chunked")
	h.Add("Host", "example.com")

	var sb strings.Builder
	if _, err := c.ComposeEnvelope(&sb, h, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "GET / HTTP/1.1\r\nContent-Length: 3\r\nHost: example.com\r\n\r\n"
	if sb.String() != want {
		t.Fatalf("got %q, want %q", sb.String(), want)
	}
}

func TestComposeEnvelopeBufTooSmall(t *testing.T) {
	c := NewComposer("GET", "/", "HTTP/1.1")
	h := NewHeader()
	buf := make([]byte, 2)
	_, err := c.ComposeEnvelopeBuf(buf, h, 0)
	if _, ok := err.(*ErrBufferTooSmall); !ok {
		t.Fatalf("expected *ErrBufferTooSmall, got %v (%T)", err, err)
	}
}

func TestPrependEnvelopeIsRightJustifiedAndContiguous(t *testing.T) {
	c := NewComposer("GET", "/", "HTTP/1.1")
	h := NewHeader()
	payload := "hello"

	envelopeLen := c.EnvelopeSize(h, len(payload))
	headRoom := envelopeLen + 10 // extra slack before the payload
	buf := make([]byte, headRoom+len(payload))
	copy(buf[headRoom:], payload)

	offset, length, err := c.PrependEnvelope(buf, headRoom, h, len(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offset != headRoom-envelopeLen {
		t.Fatalf("offset = %d, want %d", offset, headRoom-envelopeLen)
	}
	if length != envelopeLen+len(payload) {
		t.Fatalf("length = %d, want %d", length, envelopeLen+len(payload))
	}
	packet := string(buf[offset : offset+length])
	if !strings.HasSuffix(packet, payload) {
		t.Fatalf("expected packet to end with the payload, got %q", packet)
	}
	if !strings.HasPrefix(packet, "GET / HTTP/1.1\r\n") {
		t.Fatalf("expected packet to start with the first line, got %q", packet)
	}
}

func TestPrependEnvelopeTooSmall(t *testing.T) {
	c := NewComposer("GET", "/", "HTTP/1.1")
	h := NewHeader()
	buf := make([]byte, 5)
	_, _, err := c.PrependEnvelope(buf, 2, h, 0)
	if _, ok := err.(*ErrBufferTooSmall); !ok {
		t.Fatalf("expected *ErrBufferTooSmall, got %v (%T)", err, err)
	}
}

func TestComposeFirstChunkEnvelope(t *testing.T) {
	c := NewComposer("POST", "/upload", "HTTP/1.1")
	h := NewHeader()
	h.Add("Host", "example.com")

	var sb strings.Builder
	if _, err := c.ComposeFirstChunkEnvelope(&sb, h, 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "POST /upload HTTP/1.1\r\nHost: example.com\r\nTransfer-Encoding: chunked\r\n\r\n9\r\n"
	if sb.String() != want {
		t.Fatalf("got %q, want %q", sb.String(), want)
	}
	if got := c.FirstChunkEnvelopeSize(h, 9); got != len(want) {
		t.Fatalf("FirstChunkEnvelopeSize = %d, want %d", got, len(want))
	}
}

func TestComposeFirstChunkEnvelopeRejectsEmptyPayload(t *testing.T) {
	c := NewComposer("POST", "/", "HTTP/1.1")
	h := NewHeader()
	var sb strings.Builder
	_, err := c.ComposeFirstChunkEnvelope(&sb, h, 0)
	if err != ErrEmptyChunkPayload {
		t.Fatalf("expected ErrEmptyChunkPayload, got %v", err)
	}
}

func TestComposeNextChunkEnvelopeUsesLowercaseHex(t *testing.T) {
	c := NewComposer("POST", "/", "HTTP/1.1")
	var sb strings.Builder
	if _, err := c.ComposeNextChunkEnvelope(&sb, 255); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "\r\nff\r\n"
	if sb.String() != want {
		t.Fatalf("got %q, want %q", sb.String(), want)
	}
	if got := c.NextChunkEnvelopeSize(255); got != len(want) {
		t.Fatalf("NextChunkEnvelopeSize = %d, want %d", got, len(want))
	}
}

func TestComposeLastChunkWritesTrailersVerbatim(t *testing.T) {
	c := NewComposer("POST", "/", "HTTP/1.1")
	trailers := NewHeader()
	trailers.Add("X-Checksum", "abc123")

	var sb strings.Builder
	if _, err := c.ComposeLastChunk(&sb, trailers); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "\r\n0\r\nX-Checksum: abc123\r\n\r\n"
	if sb.String() != want {
		t.Fatalf("got %q, want %q", sb.String(), want)
	}
	if got := c.LastChunkSize(trailers); got != len(want) {
		t.Fatalf("LastChunkSize = %d, want %d", got, len(want))
	}
}

func TestComposerOutputRoundTripsThroughParser(t *testing.T) {
	c := NewComposer("POST", "/upload", "HTTP/1.1")
	h := NewHeader()
	h.Add("Host", "example.com")

	var sb strings.Builder
	if _, err := c.ComposeFirstChunkEnvelope(&sb, h, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sb.WriteString("hello")
	if _, err := c.ComposeNextChunkEnvelope(&sb, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sb.WriteString("world")
	trailers := NewHeader()
	if _, err := c.ComposeLastChunk(&sb, trailers); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := NewParser(16, 256, 16)
	body, complete := parseAll(t, p, sb.String())
	if !complete {
		t.Fatal("expected the composed message to parse to completion")
	}
	if body != "helloworld" {
		t.Fatalf("body = %q, want %q", body, "helloworld")
	}
	if !p.Headers().HasValue("Host", "example.com") {
		t.Fatal("expected Host header to survive the round trip")
	}
}
