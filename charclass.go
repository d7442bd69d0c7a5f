// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE_BSD.txt file in the root of the source
// tree.

package httpmsg

// Byte-class predicates per RFC 2616, used by the parser, the percent
// codec and the integer parsers. Kept as small inlinable one-liners, mirroring the original
// httpxx char_utils.h layout.

// isChar returns true if ch is a CHAR (byte <= 0x7F).
func isChar(ch byte) bool {
	return ch <= 0x7F
}

// isCTL returns true if ch is a control byte (<=0x1F or ==0x7F).
func isCTL(ch byte) bool {
	return ch <= 0x1F || ch == 0x7F
}

func isSpace(ch byte) bool {
	return ch == ' '
}

func isTab(ch byte) bool {
	return ch == '\t'
}

// isSpaceOrTab returns true for SP or HT.
func isSpaceOrTab(ch byte) bool {
	return isSpace(ch) || isTab(ch)
}

func isCR(ch byte) bool {
	return ch == '\r'
}

func isLF(ch byte) bool {
	return ch == '\n'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// isURLSafe returns true for the pass-through set of the percent codec:
// letters, digits and underscore.
func isURLSafe(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || isDigit(ch) || ch == '_'
}

// isSeparator returns true for the RFC 2616 "separators" excluded from token.
func isSeparator(ch byte) bool {
	switch ch {
	case '(', ')', '<', '>', '@', ',', ';', ':', '\\', '"', '/', '[', ']',
		'?', '=', '{', '}':
		return true
	}
	return isSpaceOrTab(ch)
}

// isToken returns true if ch can appear inside an RFC 2616 token: a CHAR,
// not a CTL, not a separator.
func isToken(ch byte) bool {
	return isChar(ch) && !isCTL(ch) && !isSeparator(ch)
}

// hexDigitValue returns the numeric value of a hex digit byte. The caller
// must have already validated ch with isHexDigit.
func hexDigitValue(ch byte) byte {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - '0'
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10
	default: // 'A'-'F'
		return ch - 'A' + 10
	}
}
