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
	"bytes"
	"context"
	"crypto"
	"crypto/x509"
	"encoding/asn1"
	"hash"
	"io"
	"time"

	"github.com/cmsproject/cms-core-go/internal/hashutil"
	"github.com/cmsproject/cms-core-go/internal/oid"
)

// VerifiedContent is the result of a successful VerifyAndExtract.
type VerifiedContent struct {
	// Content is the verified content. In text mode the MIME header block is
	// stripped.
	Content []byte

	// ContentType is the encapsulated content type of the envelope.
	ContentType asn1.ObjectIdentifier

	// Signers are the certificates of the verified signers in envelope
	// order, without duplicates.
	Signers []*x509.Certificate
}

// Verify attempts to verify the content in the parsed signed data against the
// verification options. All signers must verify.
//
// References: RFC 5652 5.4 Message Digest Calculation Process,
// 5.6 Signature Verification Process.
func (d *ParsedSignedData) Verify(ctx context.Context, opts VerifyOptions) error {
	_, err := d.verify(ctx, opts, false)
	return err
}

// VerifyAndExtract verifies like Verify and additionally returns the
// verified content.
func (d *ParsedSignedData) VerifyAndExtract(ctx context.Context, opts VerifyOptions) (*VerifiedContent, error) {
	return d.verify(ctx, opts, true)
}

// Signers returns the certificates of the verified signers. It fails with
// ErrNotVerified until a verification has succeeded.
func (d *ParsedSignedData) Signers() ([]*x509.Certificate, error) {
	if d.verifiedSigners == nil {
		return nil, ErrNotVerified
	}
	return d.verifiedSigners, nil
}

// verify drives the verification steps in order: sanity checks, signer
// resolution, chain validation, signed attribute verification, content
// verification, binding checks, and timestamp countersignatures. The first
// failing signer, in envelope order, aborts the run.
func (d *ParsedSignedData) verify(ctx context.Context, opts VerifyOptions, extract bool) (*VerifiedContent, error) {
	flags := opts.Flags.effective()

	if len(d.SignerInfos) == 0 {
		return nil, &VerificationError{Kind: KindNoSigners, Signer: -1, Message: "envelope has no signers"}
	}
	if d.Detached && opts.DetachedContent == nil {
		return nil, &VerificationError{Kind: KindMissingDetachedContent, Signer: -1, Message: "detached envelope verified without detached content"}
	}
	if !d.Detached && opts.DetachedContent != nil {
		return nil, &VerificationError{Kind: KindMalformedEnvelope, Signer: -1, Message: "detached content supplied for an envelope with embedded content"}
	}

	signers, err := d.resolveSigners(opts, flags)
	if err != nil {
		return nil, err
	}

	content, digests, err := d.contentAndDigests(opts, flags, extract)
	if err != nil {
		return nil, err
	}

	if !flags.SkipChainVerification {
		if err := d.verifyChains(ctx, signers, opts, flags); err != nil {
			return nil, err
		}
	}

	if !flags.SkipAttributeVerification {
		for i := range d.SignerInfos {
			if err := d.verifyAttributes(&d.SignerInfos[i], signers[i], i); err != nil {
				return nil, err
			}
		}
	}

	extracted := content
	if !flags.SkipContentVerification || (flags.TextContent && extract) {
		if flags.TextContent {
			body, err := textBody(content)
			if err != nil {
				return nil, err
			}
			extracted = body
		}
	}
	if !flags.SkipContentVerification {
		for i := range d.SignerInfos {
			if err := d.verifyContent(&d.SignerInfos[i], signers[i], content, digests, i); err != nil {
				return nil, err
			}
		}
	}

	if flags.RequireBindingCheck {
		for i := range d.SignerInfos {
			if err := verifySigningCertificate(&d.SignerInfos[i], signers[i], i); err != nil {
				return nil, err
			}
		}
	}

	if flags.VerifyTimestampTokens {
		for i := range d.SignerInfos {
			if err := verifyTimestampToken(ctx, &d.SignerInfos[i], opts, i); err != nil {
				return nil, err
			}
		}
	}

	d.verifiedSigners = uniqueCertificates(signers)
	if !extract {
		return nil, nil
	}
	return &VerifiedContent{
		Content:     extracted,
		ContentType: d.ContentType,
		Signers:     d.verifiedSigners,
	}, nil
}

// resolveSigners maps every signer info to a candidate certificate.
func (d *ParsedSignedData) resolveSigners(opts VerifyOptions, flags Flags) ([]*x509.Certificate, error) {
	candidates := make([]*x509.Certificate, 0, len(opts.ExtraCerts)+len(d.Certificates))
	candidates = append(candidates, opts.ExtraCerts...)
	if !flags.ExcludeEmbeddedCerts {
		candidates = append(candidates, d.Certificates...)
	}

	signers := make([]*x509.Certificate, len(d.SignerInfos))
	for i := range d.SignerInfos {
		cert, err := findSignerCertificate(&d.SignerInfos[i], candidates)
		if err != nil {
			return nil, err
		}
		if cert == nil {
			return nil, &VerificationError{Kind: KindSignerNotFound, Signer: i, Message: "no certificate found for signer"}
		}
		signers[i] = cert
	}
	return signers, nil
}

// findSignerCertificate finds the certificate matching the signer identifier
// among the candidates.
func findSignerCertificate(si *SignerInfo, candidates []*x509.Certificate) (*x509.Certificate, error) {
	ias, ski, err := si.SignerIdentifier()
	if err != nil {
		return nil, &MalformedEnvelopeError{Message: "invalid signer identifier", Detail: err}
	}
	for _, cert := range candidates {
		if ias != nil {
			if bytes.Equal(cert.RawIssuer, ias.Issuer.FullBytes) && cert.SerialNumber.Cmp(ias.SerialNumber) == 0 {
				return cert, nil
			}
		} else if len(ski) > 0 && bytes.Equal(cert.SubjectKeyId, ski) {
			return cert, nil
		}
	}
	return nil, nil
}

// contentAndDigests reads the signed content and computes the digests the
// content verification step needs, one digest per distinct algorithm.
//
// Detached content is consumed in a single streaming pass. It is buffered
// only when the content bytes themselves are needed later: for extraction,
// for text mode, or for signers that sign the content directly.
func (d *ParsedSignedData) contentAndDigests(opts VerifyOptions, flags Flags, extract bool) ([]byte, map[crypto.Hash][]byte, error) {
	var hashes []crypto.Hash
	needContent := extract || flags.TextContent
	if !flags.SkipContentVerification {
		seen := make(map[crypto.Hash]bool)
		for i := range d.SignerInfos {
			si := &d.SignerInfos[i]
			if len(si.SignedAttributes) == 0 {
				// the signature over the content is the content check
				needContent = true
				continue
			}
			h, ok := oid.ToHash(si.DigestAlgorithm.Algorithm)
			if !ok {
				// reported from the content phase, after chain validation
				continue
			}
			if !seen[h] {
				seen[h] = true
				hashes = append(hashes, h)
			}
		}
	}
	if !flags.SkipAttributeVerification {
		for i := range d.SignerInfos {
			if len(d.SignerInfos[i].SignedAttributes) == 0 {
				needContent = true
			}
		}
	}

	digests := make(map[crypto.Hash][]byte)
	if !d.Detached {
		for _, h := range hashes {
			digest, err := hashutil.ComputeHash(h, d.Content)
			if err != nil {
				return nil, nil, err
			}
			digests[h] = digest
		}
		return d.Content, digests, nil
	}

	var writers []io.Writer
	hashers := make(map[crypto.Hash]hash.Hash, len(hashes))
	for _, h := range hashes {
		hasher := h.New()
		hashers[h] = hasher
		writers = append(writers, hasher)
	}
	var buf bytes.Buffer
	if needContent {
		writers = append(writers, &buf)
	}
	if len(writers) == 0 {
		return nil, digests, nil
	}
	if _, err := io.Copy(io.MultiWriter(writers...), opts.DetachedContent); err != nil {
		return nil, nil, &VerificationError{Kind: KindMissingDetachedContent, Signer: -1, Message: "failed to read detached content", Detail: err}
	}
	for h, hasher := range hashers {
		digests[h] = hasher.Sum(nil)
	}
	if needContent {
		return buf.Bytes(), digests, nil
	}
	return nil, digests, nil
}

// verifyChains validates the certificate chain of every signer.
func (d *ParsedSignedData) verifyChains(ctx context.Context, signers []*x509.Certificate, opts VerifyOptions, flags Flags) error {
	validator := opts.ChainValidator
	if validator == nil {
		validator = chainValidator{}
	}

	intermediates := make([]*x509.Certificate, 0, len(d.Certificates)+len(opts.ExtraCerts))
	intermediates = append(intermediates, d.Certificates...)
	intermediates = append(intermediates, opts.ExtraCerts...)

	crls := make([]*x509.RevocationList, 0, len(d.CRLs)+len(opts.ExtraCRLs))
	if !flags.IgnoreEmbeddedRevocationData {
		crls = append(crls, d.CRLs...)
	}
	crls = append(crls, opts.ExtraCRLs...)

	for i, cert := range signers {
		req := &ChainValidationRequest{
			SignerCertificate: cert,
			Roots:             opts.Roots,
			Intermediates:     intermediates,
			CRLs:              crls,
			CurrentTime:       opts.currentTime(),
			CheckRevocation:   opts.CheckRevocation,
			HTTPClient:        opts.HTTPClient,
		}
		if _, err := validator.ValidateChain(ctx, req); err != nil {
			return &VerificationError{Kind: KindChainInvalid, Signer: i, Message: "certificate chain validation failed", Detail: err}
		}
	}
	return nil
}

// verifyAttributes validates the signed attribute collection of one signer
// and checks the signature over it.
func (d *ParsedSignedData) verifyAttributes(si *SignerInfo, cert *x509.Certificate, index int) error {
	if len(si.SignedAttributes) == 0 {
		// signed attributes are required unless the content type is id-data
		// References: RFC 5652 5.3
		if !oid.Data.Equal(d.ContentType) {
			return &VerificationError{Kind: KindSignatureInvalid, Signer: index, Message: "missing signed attributes for non-data content type"}
		}
		return nil
	}

	var contentType asn1.ObjectIdentifier
	if err := si.SignedAttributes.TryGet(oid.ContentType, &contentType); err != nil {
		return &VerificationError{Kind: KindSignatureInvalid, Signer: index, Message: "invalid content type attribute", Detail: err}
	}
	if !d.ContentType.Equal(contentType) {
		return &VerificationError{Kind: KindSignatureInvalid, Signer: index, Message: "mismatch between signed attribute content type and encapsulated content type"}
	}

	var signingTime time.Time
	switch err := si.SignedAttributes.TryGet(oid.SigningTime, &signingTime); err {
	case nil:
		if signingTime.Before(cert.NotBefore) || signingTime.After(cert.NotAfter) {
			return &VerificationError{Kind: KindSignatureInvalid, Signer: index, Message: "signing time is outside the validity period of the signing certificate"}
		}
	case ErrAttributeNotFound:
	default:
		return &VerificationError{Kind: KindSignatureInvalid, Signer: index, Message: "invalid signing time attribute", Detail: err}
	}

	// the signature covers the signed attributes re-encoded as an explicit
	// SET OF
	// References: RFC 5652 5.4
	signed, err := asn1.MarshalWithParams(si.SignedAttributes, "set")
	if err != nil {
		return &MalformedEnvelopeError{Message: "invalid signed attributes", Detail: err}
	}
	if err := verifySignature(si, cert, signed); err != nil {
		return &VerificationError{Kind: KindSignatureInvalid, Signer: index, Message: "signature verification failed", Detail: err}
	}
	return nil
}

// verifyContent checks the content against one signer. Signers with signed
// attributes committed to a content digest; signers without signed
// attributes signed the content directly.
func (d *ParsedSignedData) verifyContent(si *SignerInfo, cert *x509.Certificate, content []byte, digests map[crypto.Hash][]byte, index int) error {
	if len(si.SignedAttributes) == 0 {
		if err := verifySignature(si, cert, content); err != nil {
			return &VerificationError{Kind: KindSignatureInvalid, Signer: index, Message: "signature verification failed", Detail: err}
		}
		return nil
	}

	var expectedDigest []byte
	if err := si.SignedAttributes.TryGet(oid.MessageDigest, &expectedDigest); err != nil {
		return &VerificationError{Kind: KindContentDigestMismatch, Signer: index, Message: "invalid message digest attribute", Detail: err}
	}
	h, ok := oid.ToHash(si.DigestAlgorithm.Algorithm)
	if !ok {
		return &VerificationError{Kind: KindSignatureInvalid, Signer: index, Message: "unsupported digest algorithm"}
	}
	if !bytes.Equal(digests[h], expectedDigest) {
		return &VerificationError{Kind: KindContentDigestMismatch, Signer: index, Message: "mismatch between message digest attribute and computed content digest"}
	}
	return nil
}

// uniqueCertificates drops duplicates while keeping order.
func uniqueCertificates(certs []*x509.Certificate) []*x509.Certificate {
	unique := make([]*x509.Certificate, 0, len(certs))
	seen := make(map[string]bool, len(certs))
	for _, cert := range certs {
		key := string(cert.Raw)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, cert)
		}
	}
	return unique
}
