// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE_BSD.txt file in the root of the source
// tree.

package httpmsg

import (
	"io"
)

// Default caps, per the original httpxx MessageParser::Constants.
const (
	DefaultMaxHeaderNameLength  = 256
	DefaultMaxHeaderValueLength = 4096
	DefaultMaxHeadersAmount     = 256
)

// parserState is the parser's internal FSM state.
type parserState uint8

const (
	stateInitial parserState = iota
	stateLeadingSP
	stateFirstToken
	stateFirstTokenSP
	stateSecondToken
	stateSecondTokenSP
	stateThirdToken
	stateFirstLineLF
	stateHeader
	stateHeaderName
	stateHeaderValue
	stateHeaderValueLF
	stateHeaderValueLWS
	stateEndOfHeader
	stateIdentityBody
	stateChunkSize
	stateChunkSizeLF
	stateChunkExtension
	stateChunk
	stateChunkCR
	stateChunkLF
	stateTrailerHeader
	stateTrailerHeaderName
	stateTrailerHeaderValue
	stateTrailerHeaderValueLF
	stateTrailerHeaderValueLWS
	stateFinalLF
)

const (
	contentLengthHeader   = "Content-Length"
	transferEncodingHdr   = "Transfer-Encoding"
	transferEncodingValue = "chunked"
)

// Option configures a Parser at construction time.
type Option func(*Parser)

// WithMaxHeaderNameLength overrides the default header-name length cap.
func WithMaxHeaderNameLength(n int) Option {
	return func(p *Parser) { p.maxHeaderNameLength = n }
}

// WithMaxHeaderValueLength overrides the default header-value length cap.
func WithMaxHeaderValueLength(n int) Option {
	return func(p *Parser) { p.maxHeaderValueLength = n }
}

// WithMaxHeadersAmount overrides the default cap on the total number of
// headers (main section + trailer, combined).
func WithMaxHeadersAmount(n int) Option {
	return func(p *Parser) { p.maxHeadersAmount = n }
}

// WithObserver installs an Observer notified as each start-line token is
// committed.
func WithObserver(o Observer) Option {
	return func(p *Parser) {
		if o != nil {
			p.observer = o
		}
	}
}

// Parser is a deterministic, single-threaded, byte-at-a-time HTTP/1.x
// message parser. It is not safe for concurrent use by multiple
// goroutines; distinct Parser instances are fully independent.
type Parser struct {
	state parserState
	pos   int
	line  int
	col   int

	firstToken  []byte
	secondToken []byte
	thirdToken  []byte

	headerName  []byte
	headerValue []byte
	headers     Header

	contentLength           uint64
	identityBodyBytesParsed uint64

	chunkSizeStr     []byte
	chunkSize        uint64
	chunkBytesParsed uint64

	maxFirstTokenLength  int
	maxSecondTokenLength int
	maxThirdTokenLength  int
	maxHeaderNameLength  int
	maxHeaderValueLength int
	maxHeadersAmount     int

	observer Observer

	failed  bool
	lastErr error
}

// NewParser constructs a Parser. maxFirstTokenLength, maxSecondTokenLength
// and maxThirdTokenLength are mandatory hard caps on the three start-line
// tokens; the header-related caps default to DefaultMaxHeaderNameLength,
// DefaultMaxHeaderValueLength and DefaultMaxHeadersAmount and can be
// overridden with options.
func NewParser(maxFirstTokenLength, maxSecondTokenLength, maxThirdTokenLength int, opts ...Option) *Parser {
	p := &Parser{
		maxFirstTokenLength:  maxFirstTokenLength,
		maxSecondTokenLength: maxSecondTokenLength,
		maxThirdTokenLength:  maxThirdTokenLength,
		maxHeaderNameLength:  DefaultMaxHeaderNameLength,
		maxHeaderValueLength: DefaultMaxHeaderValueLength,
		maxHeadersAmount:     DefaultMaxHeadersAmount,
		observer:             noopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Reset()
	return p
}

// Reset re-initializes the parser to its initial (inter-message) state,
// discarding any partially parsed message.
func (p *Parser) Reset() {
	p.state = stateInitial
	p.pos = 0
	p.line = 1
	p.col = 1
	p.firstToken = p.firstToken[:0]
	p.secondToken = p.secondToken[:0]
	p.thirdToken = p.thirdToken[:0]
	p.headerName = p.headerName[:0]
	p.headerValue = p.headerValue[:0]
	p.headers.Reset()
	p.contentLength = 0
	p.identityBodyBytesParsed = 0
	p.chunkSizeStr = p.chunkSizeStr[:0]
	p.chunkSize = 0
	p.chunkBytesParsed = 0
	p.failed = false
	p.lastErr = nil
}

// Pos returns the parser's current zero-based byte position in the
// message being parsed.
func (p *Parser) Pos() int { return p.pos }

// Line returns the parser's current one-based line number.
func (p *Parser) Line() int { return p.line }

// Col returns the parser's current one-based column number.
func (p *Parser) Col() int { return p.col }

// FirstToken returns the first start-line token parsed so far.
func (p *Parser) FirstToken() string { return string(p.firstToken) }

// SecondToken returns the second start-line token parsed so far.
func (p *Parser) SecondToken() string { return string(p.secondToken) }

// ThirdToken returns the third start-line token parsed so far.
func (p *Parser) ThirdToken() string { return string(p.thirdToken) }

// Headers returns the headers (main section plus trailer, once parsed)
// of the message currently or most recently parsed.
func (p *Parser) Headers() *Header { return &p.headers }

// Completed returns true if the parser is at rest between messages (no
// partially parsed message pending).
func (p *Parser) Completed() bool { return p.state == stateInitial }

// BodyExpected returns true if the next byte fed to the parser is
// expected to be a body byte.
func (p *Parser) BodyExpected() bool {
	return p.state == stateIdentityBody || p.state == stateChunk
}

func (p *Parser) fail(ch byte, kind ErrorKind) error {
	err := &ParseError{Ch: ch, Pos: p.pos, Line: p.line, Col: p.col, Kind: kind}
	p.failed = true
	p.lastErr = err
	return err
}

// ParseByte feeds a single byte to the parser. It returns complete=true if
// ch was the last byte of a fully parsed message, and bodyByte=true if ch
// belongs to the message body (identity or chunk data). On error, the
// parser's internal state is left undefined until Reset is called.
func (p *Parser) ParseByte(ch byte) (complete bool, bodyByte bool, err error) {
	if p.failed {
		return false, false, p.lastErr
	}
	bodyByte = p.BodyExpected()

	switch p.state {
	case stateInitial:
		if isSpaceOrTab(ch) {
			p.Reset()
			p.state = stateLeadingSP
		} else if isChar(ch) && !isCTL(ch) {
			p.Reset()
			p.firstToken = append(p.firstToken, ch)
			p.state = stateFirstToken
		} else {
			return false, false, p.fail(ch, InvalidFirstToken)
		}
	case stateLeadingSP:
		if isSpaceOrTab(ch) {
			// ignore extra leading whitespace
		} else if isChar(ch) && !isCTL(ch) {
			p.firstToken = append(p.firstToken, ch)
			p.state = stateFirstToken
		} else {
			return false, false, p.fail(ch, InvalidFirstToken)
		}
	case stateFirstToken:
		if isSpaceOrTab(ch) {
			p.state = stateFirstTokenSP
		} else if isChar(ch) && !isCTL(ch) {
			if len(p.firstToken) >= p.maxFirstTokenLength {
				return false, false, p.fail(ch, FirstTokenIsTooLong)
			}
			p.firstToken = append(p.firstToken, ch)
		} else {
			return false, false, p.fail(ch, InvalidFirstToken)
		}
	case stateFirstTokenSP:
		if isSpaceOrTab(ch) {
			// ignore
		} else if isChar(ch) && !isCTL(ch) {
			p.observer.OnFirstToken(string(p.firstToken))
			p.secondToken = append(p.secondToken, ch)
			p.state = stateSecondToken
		} else {
			return false, false, p.fail(ch, InvalidSecondToken)
		}
	case stateSecondToken:
		if isSpaceOrTab(ch) {
			p.state = stateSecondTokenSP
		} else if isChar(ch) && !isCTL(ch) {
			if len(p.secondToken) >= p.maxSecondTokenLength {
				return false, false, p.fail(ch, SecondTokenIsTooLong)
			}
			p.secondToken = append(p.secondToken, ch)
		} else {
			return false, false, p.fail(ch, InvalidSecondToken)
		}
	case stateSecondTokenSP:
		if isSpaceOrTab(ch) {
			// ignore
		} else if isChar(ch) && !isCTL(ch) {
			p.observer.OnSecondToken(string(p.secondToken))
			p.thirdToken = append(p.thirdToken, ch)
			p.state = stateThirdToken
		} else {
			return false, false, p.fail(ch, InvalidThirdToken)
		}
	case stateThirdToken:
		if isCR(ch) {
			p.observer.OnThirdToken(string(p.thirdToken))
			p.state = stateFirstLineLF
		} else if isChar(ch) && !isCTL(ch) {
			if len(p.thirdToken) >= p.maxThirdTokenLength {
				return false, false, p.fail(ch, ThirdTokenIsTooLong)
			}
			p.thirdToken = append(p.thirdToken, ch)
		} else {
			return false, false, p.fail(ch, InvalidThirdToken)
		}
	case stateFirstLineLF:
		if isLF(ch) {
			p.state = stateHeader
		} else {
			return false, false, p.fail(ch, InvalidFirstLineLF)
		}
	case stateHeader:
		if e := p.parseHeaderStart(ch, false); e != nil {
			return false, false, e
		}
	case stateHeaderName:
		if e := p.parseHeaderName(ch, false); e != nil {
			return false, false, e
		}
	case stateHeaderValue:
		if e := p.parseHeaderValue(ch, false); e != nil {
			return false, false, e
		}
	case stateHeaderValueLF:
		if e := p.parseHeaderValueLF(ch, false); e != nil {
			return false, false, e
		}
	case stateHeaderValueLWS:
		if e := p.parseHeaderValueLWS(ch, false); e != nil {
			return false, false, e
		}
	case stateEndOfHeader:
		if !isLF(ch) {
			return false, false, p.fail(ch, InvalidHeaderLF)
		}
		if e := p.dispatchBody(ch); e != nil {
			return false, false, e
		}
	case stateIdentityBody:
		p.identityBodyBytesParsed++
		if p.identityBodyBytesParsed >= p.contentLength {
			p.state = stateInitial
		}
	case stateChunkSize:
		if e := p.parseChunkSize(ch); e != nil {
			return false, false, e
		}
	case stateChunkExtension:
		if isCR(ch) {
			p.state = stateChunkSizeLF
		}
	case stateChunkSizeLF:
		if !isLF(ch) {
			return false, false, p.fail(ch, InvalidChunkSizeLF)
		}
		if p.chunkSize > 0 {
			p.state = stateChunk
		} else {
			p.state = stateTrailerHeader
		}
	case stateChunk:
		p.chunkBytesParsed++
		if p.chunkBytesParsed >= p.chunkSize {
			p.state = stateChunkCR
		}
	case stateChunkCR:
		if isCR(ch) {
			p.state = stateChunkLF
		} else {
			return false, false, p.fail(ch, InvalidChunkDataCR)
		}
	case stateChunkLF:
		if isLF(ch) {
			p.state = stateChunkSize
		} else {
			return false, false, p.fail(ch, InvalidChunkDataLF)
		}
	case stateTrailerHeader:
		if e := p.parseHeaderStart(ch, true); e != nil {
			return false, false, e
		}
	case stateTrailerHeaderName:
		if e := p.parseHeaderName(ch, true); e != nil {
			return false, false, e
		}
	case stateTrailerHeaderValue:
		if e := p.parseHeaderValue(ch, true); e != nil {
			return false, false, e
		}
	case stateTrailerHeaderValueLF:
		if e := p.parseHeaderValueLF(ch, true); e != nil {
			return false, false, e
		}
	case stateTrailerHeaderValueLWS:
		if e := p.parseHeaderValueLWS(ch, true); e != nil {
			return false, false, e
		}
	case stateFinalLF:
		if isLF(ch) {
			p.state = stateInitial
		} else {
			return false, false, p.fail(ch, InvalidFinalLF)
		}
	default:
		return false, false, p.fail(ch, InvalidState)
	}

	p.pos++
	if isLF(ch) {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return p.state == stateInitial, bodyByte, nil
}

// parseHeaderStart handles the first byte of a (possibly empty) header
// line: CR means end of the header block, ':' with nothing accumulated
// is an empty-name error, a token byte starts a new header name.
func (p *Parser) parseHeaderStart(ch byte, isTrailer bool) error {
	p.headerName = p.headerName[:0]
	p.headerValue = p.headerValue[:0]
	switch {
	case isCR(ch):
		if isTrailer {
			p.state = stateFinalLF
		} else {
			p.state = stateEndOfHeader
		}
		return nil
	case ch == ':':
		return p.fail(ch, EmptyHeaderName)
	case isToken(ch):
		p.headerName = append(p.headerName, ch)
		if isTrailer {
			p.state = stateTrailerHeaderName
		} else {
			p.state = stateHeaderName
		}
		return nil
	default:
		return p.fail(ch, InvalidHeaderName)
	}
}

func (p *Parser) parseHeaderName(ch byte, isTrailer bool) error {
	switch {
	case isCR(ch):
		return p.fail(ch, HeaderIsMissingColon)
	case ch == ':':
		if isTrailer {
			p.state = stateTrailerHeaderValue
		} else {
			p.state = stateHeaderValue
		}
		return nil
	case isToken(ch):
		if len(p.headerName) >= p.maxHeaderNameLength {
			return p.fail(ch, HeaderNameIsTooLong)
		}
		p.headerName = append(p.headerName, ch)
		return nil
	default:
		return p.fail(ch, InvalidHeaderName)
	}
}

func (p *Parser) parseHeaderValue(ch byte, isTrailer bool) error {
	switch {
	case isCR(ch):
		if isTrailer {
			p.state = stateTrailerHeaderValueLF
		} else {
			p.state = stateHeaderValueLF
		}
		return nil
	case !isCTL(ch):
		if len(p.headerValue) >= p.maxHeaderValueLength {
			return p.fail(ch, HeaderValueIsTooLong)
		}
		p.headerValue = append(p.headerValue, ch)
		return nil
	default:
		return p.fail(ch, InvalidHeaderValue)
	}
}

func (p *Parser) parseHeaderValueLF(ch byte, isTrailer bool) error {
	if !isLF(ch) {
		return p.fail(ch, InvalidHeaderLF)
	}
	if isTrailer {
		p.state = stateTrailerHeaderValueLWS
	} else {
		p.state = stateHeaderValueLWS
	}
	return nil
}

// parseHeaderValueLWS is reached immediately after a header value's CRLF;
// it decides whether the value continues (LWS fold) or the header is
// complete, requiring exactly one byte of lookahead.
func (p *Parser) parseHeaderValueLWS(ch byte, isTrailer bool) error {
	switch {
	case isCR(ch):
		if err := p.commitHeader(ch); err != nil {
			return err
		}
		if isTrailer {
			p.state = stateFinalLF
		} else {
			p.state = stateEndOfHeader
		}
		return nil
	case ch == ':':
		return p.fail(ch, EmptyHeaderName)
	case isSpaceOrTab(ch):
		if len(p.headerValue) >= p.maxHeaderValueLength {
			return p.fail(ch, HeaderValueIsTooLong)
		}
		p.headerValue = append(p.headerValue, ' ')
		if isTrailer {
			p.state = stateTrailerHeaderValue
		} else {
			p.state = stateHeaderValue
		}
		return nil
	case isToken(ch):
		if err := p.commitHeader(ch); err != nil {
			return err
		}
		p.headerName = append(p.headerName[:0], ch)
		if isTrailer {
			p.state = stateTrailerHeaderName
		} else {
			p.state = stateHeaderName
		}
		return nil
	default:
		return p.fail(ch, InvalidHeaderName)
	}
}

// commitHeader trims the accumulated name/value and appends them to the
// header container, enforcing the combined headers-amount cap.
func (p *Parser) commitHeader(ch byte) error {
	if p.headers.Len() >= p.maxHeadersAmount {
		return p.fail(ch, TooManyHeaders)
	}
	name := trimSpaceBytes(string(p.headerName))
	value := trimSpaceBytes(string(p.headerValue))
	p.headers.Add(name, value)
	p.headerName = p.headerName[:0]
	p.headerValue = p.headerValue[:0]
	return nil
}

// dispatchBody selects the body framing once the header block's
// terminating CRLFCRLF has been seen.
func (p *Parser) dispatchBody(ch byte) error {
	if p.headers.HasValue(transferEncodingHdr, transferEncodingValue) {
		p.state = stateChunkSize
		return nil
	}
	if p.headers.Has(contentLengthHeader) {
		n, ok := ParseUnsignedDecimal(p.headers.Value(contentLengthHeader))
		if !ok {
			return p.fail(ch, InvalidContentLength)
		}
		p.contentLength = n
		p.identityBodyBytesParsed = 0
		if n == 0 {
			p.state = stateInitial
		} else {
			p.state = stateIdentityBody
		}
		return nil
	}
	p.state = stateInitial
	return nil
}

func (p *Parser) parseChunkSize(ch byte) error {
	if isHexDigit(ch) {
		p.chunkSizeStr = append(p.chunkSizeStr, ch)
		return nil
	}
	if len(p.chunkSizeStr) == 0 {
		return p.fail(ch, EmptyChunkSize)
	}
	size, ok := ParseUnsignedHex(string(p.chunkSizeStr))
	if !ok {
		return p.fail(ch, InvalidChunkSize)
	}
	p.chunkSize = size
	p.chunkBytesParsed = 0
	p.chunkSizeStr = p.chunkSizeStr[:0]
	if isCR(ch) {
		p.state = stateChunkSizeLF
	} else {
		p.state = stateChunkExtension
	}
	return nil
}

// ParseBytes feeds data to the parser, writing every recognized body byte
// to body (if non-nil) in order. It stops at the end of the first
// complete message, returning the number of bytes consumed so the caller
// can re-enter for the next message held in the same buffer.
func (p *Parser) ParseBytes(data []byte, body io.Writer) (consumed int, complete bool, err error) {
	for i := 0; i < len(data); i++ {
		ch := data[i]
		var isBody bool
		complete, isBody, err = p.ParseByte(ch)
		consumed = i + 1
		if err != nil {
			return consumed, false, err
		}
		if isBody && body != nil {
			if _, werr := body.Write([]byte{ch}); werr != nil {
				return consumed, false, werr
			}
		}
		if complete {
			return consumed, true, nil
		}
	}
	return consumed, false, nil
}
