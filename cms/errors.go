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

package cms

import "errors"

// Kind classifies verification failures.
type Kind int

// Verification failure kinds.
const (
	KindUnknown Kind = iota

	// KindWrongType indicates that the envelope does not carry the
	// SignedData content type.
	KindWrongType

	// KindNoSigners indicates an empty signer collection.
	KindNoSigners

	// KindMissingDetachedContent indicates a detached envelope verified
	// without external content.
	KindMissingDetachedContent

	// KindSignerNotFound indicates that no candidate certificate matched a
	// signer identifier.
	KindSignerNotFound

	// KindChainInvalid indicates that a signer certificate could not be
	// chained to a trust anchor, or that the chain failed validation.
	KindChainInvalid

	// KindSignatureInvalid indicates a cryptographic signature mismatch or a
	// malformed signed attribute collection.
	KindSignatureInvalid

	// KindContentDigestMismatch indicates that the message digest attribute
	// does not match the digest of the content.
	KindContentDigestMismatch

	// KindUnexpectedContentType indicates that text-mode verification found
	// content that is not plain text.
	KindUnexpectedContentType

	// KindBindingMismatch indicates a missing or non-matching signing
	// certificate attribute.
	KindBindingMismatch

	// KindMalformedEnvelope indicates a structural decode failure.
	KindMalformedEnvelope

	// KindTimestampInvalid indicates a timestamp countersignature that could
	// not be verified.
	KindTimestampInvalid
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindWrongType:
		return "WrongType"
	case KindNoSigners:
		return "NoSigners"
	case KindMissingDetachedContent:
		return "MissingDetachedContent"
	case KindSignerNotFound:
		return "SignerNotFound"
	case KindChainInvalid:
		return "ChainInvalid"
	case KindSignatureInvalid:
		return "SignatureInvalid"
	case KindContentDigestMismatch:
		return "ContentDigestMismatch"
	case KindUnexpectedContentType:
		return "UnexpectedContentType"
	case KindBindingMismatch:
		return "BindingMismatch"
	case KindMalformedEnvelope:
		return "MalformedEnvelope"
	case KindTimestampInvalid:
		return "TimestampInvalid"
	}
	return "Unknown"
}

// VerificationError is any error that occurs while verifying an envelope
// against its verification options.
type VerificationError struct {
	// Kind classifies the failure.
	Kind Kind

	// Signer is the zero-based index of the signer the failure belongs to,
	// or -1 when the failure is not tied to a single signer.
	Signer int

	// Message is the description of the failure.
	Message string

	// Detail is the underlying error, if any.
	Detail error
}

// Error returns the error message.
func (e *VerificationError) Error() string {
	msg := "verification failure"
	if e.Message != "" {
		msg = e.Message
	}
	if e.Detail != nil {
		msg += ": " + e.Detail.Error()
	}
	return msg
}

// Unwrap returns the internal error.
func (e *VerificationError) Unwrap() error {
	return e.Detail
}

// MalformedEnvelopeError is returned when an envelope cannot be decoded.
type MalformedEnvelopeError struct {
	Message string
	Detail  error
}

// Error returns the error message.
func (e *MalformedEnvelopeError) Error() string {
	msg := "malformed envelope"
	if e.Message != "" {
		msg = e.Message
	}
	if e.Detail != nil {
		msg += ": " + e.Detail.Error()
	}
	return msg
}

// Unwrap returns the internal error.
func (e *MalformedEnvelopeError) Unwrap() error {
	return e.Detail
}

var (
	// ErrAttributeNotFound is returned when an attribute is missing from an
	// attribute collection.
	ErrAttributeNotFound = errors.New("attribute not found")

	// ErrNotVerified is returned by Signers before a successful verification.
	ErrNotVerified = errors.New("envelope not verified")
)

// ErrorKind reports the failure kind of err. Structural decode failures map
// to KindMalformedEnvelope; errors produced outside this package map to
// KindUnknown.
func ErrorKind(err error) Kind {
	var ve *VerificationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	var me *MalformedEnvelopeError
	if errors.As(err, &me) {
		return KindMalformedEnvelope
	}
	return KindUnknown
}
