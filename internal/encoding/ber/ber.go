// Copyright The CMS Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ber re-encodes BER-encoded ASN.1 data structures in DER.
//
// Definite and indefinite length encodings are accepted. The total length of
// the encoded data must fit in an int32.
//
// Reference:
// - ISO/IEC 8825-1:2021
// - http://luca.ntop.org/Teaching/Appunti/asn1.html
package ber

import (
	"bytes"
	"encoding/asn1"
	"fmt"
)

// maxDepth bounds the nesting of parsed values to keep malicious input from
// exhausting the stack.
const maxDepth = 64

// ConvertToDER converts BER-encoded ASN.1 data structures to DER-encoded.
func ConvertToDER(ber []byte) ([]byte, error) {
	if len(ber) == 0 {
		return nil, asn1.SyntaxError{Msg: "BER-encoded ASN.1 data structures is empty"}
	}
	root, rest, err := parseValue(ber, 1)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, asn1.SyntaxError{Msg: fmt.Sprintf("decoding BER: %d unexpected trailing bytes after the top-level value", len(rest))}
	}

	buf := bytes.NewBuffer(make([]byte, 0, root.encodedLen()))
	if err := root.encode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// node is a parsed ASN.1 value. Exactly one of content and children is
// meaningful, depending on whether the identifier marks the value as
// primitive or constructed.
type node struct {
	identifier []byte
	content    []byte
	children   []*node
	contentLen int // length in bytes of the content octets when encoded in DER
}

// parseValue parses a single BER value at the start of r and returns the
// remaining bytes.
//
// Reference: ISO/IEC 8825-1: 8.1.1
func parseValue(r []byte, depth int) (*node, []byte, error) {
	if depth > maxDepth {
		return nil, nil, asn1.StructuralError{Msg: fmt.Sprintf("decoding BER: nesting depth exceeds %d", maxDepth)}
	}

	identifier, r, err := parseIdentifier(r)
	if err != nil {
		return nil, nil, err
	}
	length, indefinite, r, err := parseLength(r)
	if err != nil {
		return nil, nil, err
	}

	// Reference: ISO/IEC 8825-1: 8.1.2.5
	constructedForm := identifier[0]&0x20 != 0
	if !constructedForm {
		if indefinite {
			return nil, nil, asn1.SyntaxError{Msg: "decoding BER: primitive value with indefinite length"}
		}
		if length > len(r) {
			return nil, nil, asn1.SyntaxError{Msg: fmt.Sprintf("decoding BER: length octets value %d exceeds the %d remaining bytes", length, len(r))}
		}
		return &node{
			identifier: identifier,
			content:    r[:length],
			contentLen: length,
		}, r[length:], nil
	}

	n := &node{identifier: identifier}
	if indefinite {
		// members run until the end-of-contents octets
		// Reference: ISO/IEC 8825-1: 8.1.3.6
		for {
			if len(r) >= 2 && r[0] == 0x00 && r[1] == 0x00 {
				r = r[2:]
				break
			}
			if len(r) == 0 {
				return nil, nil, asn1.SyntaxError{Msg: "decoding BER: indefinite length value without end-of-contents octets"}
			}
			var child *node
			child, r, err = parseValue(r, depth+1)
			if err != nil {
				return nil, nil, err
			}
			n.children = append(n.children, child)
		}
	} else {
		if length > len(r) {
			return nil, nil, asn1.SyntaxError{Msg: fmt.Sprintf("decoding BER: length octets value %d exceeds the %d remaining bytes", length, len(r))}
		}
		content := r[:length]
		r = r[length:]
		for len(content) > 0 {
			var child *node
			child, content, err = parseValue(content, depth+1)
			if err != nil {
				return nil, nil, err
			}
			n.children = append(n.children, child)
		}
	}

	// DER requires the primitive form of string types, while BER streaming
	// encoders emit them constructed in segments.
	// Reference: ISO/IEC 8825-1: 10.2
	if tag, ok := stringTypeTag(identifier); ok {
		content, err := joinSegments(n.children, tag)
		if err != nil {
			return nil, nil, err
		}
		return &node{
			identifier: []byte{identifier[0] &^ 0x20},
			content:    content,
			contentLen: len(content),
		}, r, nil
	}

	for _, child := range n.children {
		n.contentLen += child.encodedLen()
	}
	return n, r, nil
}

// stringTypeTag reports whether the identifier octets mark a universal
// string type. DER only allows the primitive form for these.
//
// Reference: ISO/IEC 8825-1: 10.2
func stringTypeTag(identifier []byte) (int, bool) {
	if len(identifier) != 1 || identifier[0]&0xc0 != 0 {
		return 0, false
	}
	tag := int(identifier[0] & 0x1f)
	switch tag {
	case asn1.TagBitString, asn1.TagOctetString, asn1.TagUTF8String,
		asn1.TagNumericString, asn1.TagPrintableString, asn1.TagT61String,
		21, // VideotexString
		asn1.TagIA5String,
		25, // GraphicString
		26, // VisibleString
		asn1.TagGeneralString,
		28, // UniversalString
		asn1.TagBMPString:
		return tag, true
	}
	return 0, false
}

// joinSegments concatenates the contents of the segments of a constructed
// string value into the single primitive value DER requires. Nested
// constructed segments have already been joined by parseValue.
func joinSegments(segments []*node, tag int) ([]byte, error) {
	if tag == asn1.TagBitString {
		return joinBitStringSegments(segments)
	}
	var content []byte
	for _, segment := range segments {
		if len(segment.identifier) != 1 || int(segment.identifier[0]) != tag {
			return nil, asn1.SyntaxError{Msg: "decoding BER: constructed string value with mismatched segment tag"}
		}
		content = append(content, segment.content...)
	}
	return content, nil
}

// joinBitStringSegments joins bit string segments. Every segment except the
// last must use all bits of its final octet.
//
// Reference: ISO/IEC 8825-1: 8.6.4
func joinBitStringSegments(segments []*node) ([]byte, error) {
	content := []byte{0x00}
	for i, segment := range segments {
		if len(segment.identifier) != 1 || int(segment.identifier[0]) != asn1.TagBitString {
			return nil, asn1.SyntaxError{Msg: "decoding BER: constructed string value with mismatched segment tag"}
		}
		if len(segment.content) == 0 {
			return nil, asn1.SyntaxError{Msg: "decoding BER: bit string segment without the initial octet"}
		}
		if segment.content[0] != 0 && i != len(segments)-1 {
			return nil, asn1.SyntaxError{Msg: "decoding BER: non-final bit string segment with unused bits"}
		}
		content[0] = segment.content[0]
		content = append(content, segment.content[1:]...)
	}
	return content, nil
}

// parseIdentifier splits the identifier octets off the front of r.
//
// Reference: ISO/IEC 8825-1: 8.1.2
func parseIdentifier(r []byte) ([]byte, []byte, error) {
	if len(r) < 1 {
		return nil, nil, asn1.SyntaxError{Msg: "decoding BER identifier octets: identifier octets is empty"}
	}
	offset := 1

	// high-tag-number form
	// Reference: ISO/IEC 8825-1: 8.1.2.4
	if r[0]&0x1f == 0x1f {
		for offset < len(r) && r[offset]&0x80 == 0x80 {
			offset++
		}
		if offset >= len(r) {
			return nil, nil, asn1.SyntaxError{Msg: "decoding BER identifier octets: high-tag-number form with early EOF"}
		}
		offset++
	}

	if offset >= len(r) {
		return nil, nil, asn1.SyntaxError{Msg: "decoding BER identifier octets: early EOF due to missing length and content octets"}
	}
	return r[:offset], r[offset:], nil
}

// parseLength splits the length octets off the front of r. The boolean result
// reports the indefinite form.
//
// Reference: ISO/IEC 8825-1: 8.1.3
func parseLength(r []byte) (int, bool, []byte, error) {
	if len(r) < 1 {
		return 0, false, nil, asn1.SyntaxError{Msg: "decoding BER length octets: length octets is empty"}
	}
	b := r[0]
	r = r[1:]

	switch {
	case b < 0x80:
		// short form
		// Reference: ISO/IEC 8825-1: 8.1.3.4
		return int(b), false, r, nil
	case b == 0x80:
		// indefinite form
		// Reference: ISO/IEC 8825-1: 8.1.3.6
		return 0, true, r, nil
	}

	// long form
	// Reference: ISO/IEC 8825-1: 8.1.3.5
	n := int(b & 0x7f)
	if n > 4 {
		return 0, false, nil, asn1.StructuralError{Msg: fmt.Sprintf("decoding BER length octets: length encoded in %d bytes cannot exceed 4 bytes", n)}
	}
	if n > len(r) {
		return 0, false, nil, asn1.SyntaxError{Msg: "decoding BER length octets: long form length octets with early EOF"}
	}
	var length uint64
	for i := 0; i < n; i++ {
		length = length<<8 | uint64(r[i])
	}
	if length>>31 > 0 {
		return 0, false, nil, asn1.StructuralError{Msg: fmt.Sprintf("decoding BER length octets: length %d does not fit the memory space of int32", length)}
	}
	return int(length), false, r[n:], nil
}
