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

import (
	"crypto/x509"
	"io"
	"net/http"
	"time"
)

// Flags toggle individual verification steps.
type Flags struct {
	// ExcludeEmbeddedCerts resolves signer certificates from
	// VerifyOptions.ExtraCerts only, ignoring certificates embedded in the
	// envelope.
	ExcludeEmbeddedCerts bool

	// IgnoreEmbeddedRevocationData ignores CRLs embedded in the envelope
	// during chain validation.
	IgnoreEmbeddedRevocationData bool

	// TextContent requires the content to carry a text/plain MIME header and
	// strips the header block from extracted content.
	TextContent bool

	// SkipChainVerification trusts signer certificates without building a
	// chain to the configured roots.
	SkipChainVerification bool

	// SkipAttributeVerification skips validation of the signed attribute
	// collection.
	SkipAttributeVerification bool

	// RequireBindingCheck requires a signing certificate attribute on every
	// signer and checks it against the resolved certificate. Setting it
	// forces chain and attribute verification on, overriding
	// SkipChainVerification and SkipAttributeVerification.
	RequireBindingCheck bool

	// SkipContentVerification skips the comparison of the message digest
	// attribute against the content digest.
	SkipContentVerification bool

	// VerifyTimestampTokens verifies timestamp countersignatures found in
	// unsigned attributes against VerifyOptions.TimestampRoots.
	VerifyTimestampTokens bool
}

// effective applies the flag precedence rules.
func (f Flags) effective() Flags {
	if f.RequireBindingCheck {
		f.SkipChainVerification = false
		f.SkipAttributeVerification = false
	}
	return f
}

// VerifyOptions is the complete verification context of an envelope.
type VerifyOptions struct {
	// Roots is the trust anchor set for chain validation. Required unless
	// chain verification is skipped or a custom ChainValidator ignores it.
	Roots *x509.CertPool

	// ExtraCerts are candidate signer certificates and chain intermediates
	// supplied out of band.
	ExtraCerts []*x509.Certificate

	// ExtraCRLs are revocation lists supplied out of band.
	ExtraCRLs []*x509.RevocationList

	// DetachedContent supplies the signed content of a detached envelope.
	// Required exactly when the envelope carries no embedded content.
	DetachedContent io.Reader

	// CurrentTime is the reference time for chain validation. The zero value
	// means the current time.
	CurrentTime time.Time

	// CheckRevocation enables revocation checking during chain validation.
	CheckRevocation bool

	// HTTPClient performs CRL and OCSP fetches during revocation checking.
	// Nil means http.DefaultClient.
	HTTPClient *http.Client

	// TimestampRoots is the trust anchor set for timestamp countersignature
	// verification. Nil means Roots.
	TimestampRoots *x509.CertPool

	// ChainValidator overrides how signer certificate chains are validated.
	// Nil means the built-in validator.
	ChainValidator ChainValidator

	// Flags toggle individual verification steps.
	Flags Flags
}

// currentTime resolves the reference time.
func (o *VerifyOptions) currentTime() time.Time {
	if o.CurrentTime.IsZero() {
		return time.Now()
	}
	return o.CurrentTime
}
