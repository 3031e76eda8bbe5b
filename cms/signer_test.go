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
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"testing"
	"time"

	"github.com/cmsproject/cms-core-go/internal/oid"
)

// testSignerConfig describes one signer of a test envelope.
type testSignerConfig struct {
	Cert *x509.Certificate
	Key  crypto.Signer

	// SigAlg overrides the signature algorithm identifier derived from the
	// key type.
	SigAlg asn1.ObjectIdentifier

	// DigestAlg overrides the digest algorithm identifier. The digest
	// actually produced stays SHA-256.
	DigestAlg asn1.ObjectIdentifier

	// RawMessageSigner passes the message instead of its digest to the key,
	// for algorithms that hash internally.
	RawMessageSigner bool

	// NoAttrs signs the content directly without signed attributes.
	NoAttrs bool

	// UseSKI identifies the signer by subject key identifier instead of
	// issuer and serial number.
	UseSKI bool

	SigningTime          *time.Time
	BindingV2            bool
	BindingV1            bool
	BadBindingHash       bool
	WrongContentTypeAttr bool
	TamperDigest         bool

	// TimestampToken adds a timestamp token unsigned attribute with the
	// given value.
	TimestampToken []byte
}

// testEnvelopeConfig describes a test envelope.
type testEnvelopeConfig struct {
	Content     []byte
	ContentType asn1.ObjectIdentifier // defaults to id-data
	Detached    bool
	EmbedCerts  []*x509.Certificate
	EmbedCRLs   []*x509.RevocationList
	Signers     []testSignerConfig

	// ConstructedContent encodes the embedded content as an
	// indefinite-length constructed OCTET STRING, the form streaming BER
	// encoders emit.
	ConstructedContent bool
}

// buildEnvelope assembles and signs a SignedData envelope in DER.
func buildEnvelope(t *testing.T, cfg testEnvelopeConfig) []byte {
	t.Helper()

	contentType := cfg.ContentType
	if contentType == nil {
		contentType = oid.Data
	}
	contentDigest := sha256.Sum256(cfg.Content)

	signerInfos := make([]SignerInfo, 0, len(cfg.Signers))
	for _, sc := range cfg.Signers {
		si := SignerInfo{
			Version:         1,
			DigestAlgorithm: AlgorithmIdentifier{Algorithm: oid.SHA256},
		}
		if sc.DigestAlg != nil {
			si.DigestAlgorithm = AlgorithmIdentifier{Algorithm: sc.DigestAlg}
		}

		if sc.UseSKI {
			si.Version = 3
			si.SID = asn1.RawValue{FullBytes: wrapASN1(asn1.ClassContextSpecific, 0, false, sc.Cert.SubjectKeyId)}
		} else {
			ias, err := asn1.Marshal(IssuerAndSerialNumber{
				Issuer:       asn1.RawValue{FullBytes: sc.Cert.RawIssuer},
				SerialNumber: sc.Cert.SerialNumber,
			})
			if err != nil {
				t.Fatalf("failed to marshal issuer and serial number: %v", err)
			}
			si.SID = asn1.RawValue{FullBytes: ias}
		}

		switch {
		case sc.SigAlg != nil:
			si.SignatureAlgorithm = AlgorithmIdentifier{Algorithm: sc.SigAlg}
		default:
			switch sc.Key.Public().(type) {
			case *rsa.PublicKey:
				si.SignatureAlgorithm = AlgorithmIdentifier{Algorithm: oid.RSA}
			case *ecdsa.PublicKey:
				si.SignatureAlgorithm = AlgorithmIdentifier{Algorithm: oid.ECDSAWithSHA256}
			default:
				t.Fatalf("unsupported test signer key type %T", sc.Key.Public())
			}
		}

		var toSign []byte
		if sc.NoAttrs {
			toSign = cfg.Content
		} else {
			attrContentType := contentType
			if sc.WrongContentTypeAttr {
				attrContentType = oid.SignedData
			}
			messageDigest := make([]byte, len(contentDigest))
			copy(messageDigest, contentDigest[:])
			if sc.TamperDigest {
				messageDigest[0] ^= 0xff
			}
			attrs := Attributes{
				makeAttribute(t, oid.ContentType, attrContentType),
				makeAttribute(t, oid.MessageDigest, messageDigest),
			}
			if sc.SigningTime != nil {
				attrs = append(attrs, makeAttribute(t, oid.SigningTime, sc.SigningTime.UTC()))
			}
			if sc.BindingV2 {
				attrs = append(attrs, makeSigningCertificateV2Attribute(t, sc.Cert, sc.BadBindingHash))
			}
			if sc.BindingV1 {
				attrs = append(attrs, makeSigningCertificateAttribute(t, sc.Cert))
			}
			si.SignedAttributes = attrs

			signed, err := asn1.MarshalWithParams(attrs, "set")
			if err != nil {
				t.Fatalf("failed to marshal signed attributes: %v", err)
			}
			toSign = signed
		}

		var signature []byte
		var err error
		if sc.RawMessageSigner {
			signature, err = sc.Key.Sign(rand.Reader, toSign, crypto.Hash(0))
		} else {
			digest := sha256.Sum256(toSign)
			signature, err = sc.Key.Sign(rand.Reader, digest[:], crypto.SHA256)
		}
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}
		si.Signature = signature

		if sc.TimestampToken != nil {
			si.UnsignedAttributes = Attributes{makeAttribute(t, oid.TimeStampToken, sc.TimestampToken)}
		}

		signerInfos = append(signerInfos, si)
	}

	signedData := SignedData{
		Version:                    1,
		DigestAlgorithmIdentifiers: []AlgorithmIdentifier{{Algorithm: oid.SHA256}},
		EncapsulatedContentInfo:    EncapsulatedContentInfo{ContentType: contentType},
		SignerInfos:                signerInfos,
	}
	if !cfg.Detached {
		octets, err := asn1.Marshal(cfg.Content)
		if err != nil {
			t.Fatalf("failed to marshal content: %v", err)
		}
		if cfg.ConstructedContent {
			octets = constructedOctetString(t, cfg.Content)
		}
		signedData.EncapsulatedContentInfo.Content = asn1.RawValue{FullBytes: wrapASN1(asn1.ClassContextSpecific, 0, true, octets)}
	}
	for _, cert := range cfg.EmbedCerts {
		signedData.Certificates = append(signedData.Certificates, asn1.RawValue{FullBytes: cert.Raw})
	}
	for _, crl := range cfg.EmbedCRLs {
		signedData.CRLs = append(signedData.CRLs, asn1.RawValue{FullBytes: crl.Raw})
	}

	signedDataDER, err := asn1.Marshal(signedData)
	if err != nil {
		t.Fatalf("failed to marshal signed data: %v", err)
	}
	envelope, err := asn1.Marshal(ContentInfo{
		ContentType: oid.SignedData,
		Content:     asn1.RawValue{FullBytes: wrapASN1(asn1.ClassContextSpecific, 0, true, signedDataDER)},
	})
	if err != nil {
		t.Fatalf("failed to marshal content info: %v", err)
	}
	return envelope
}

// makeAttribute builds an attribute with a single value.
func makeAttribute(t *testing.T, attrType asn1.ObjectIdentifier, value any) Attribute {
	t.Helper()
	der, err := asn1.Marshal(value)
	if err != nil {
		t.Fatalf("failed to marshal attribute value: %v", err)
	}
	set, err := asn1.MarshalWithParams([]asn1.RawValue{{FullBytes: der}}, "set")
	if err != nil {
		t.Fatalf("failed to marshal attribute value set: %v", err)
	}
	var values asn1.RawValue
	if _, err := asn1.Unmarshal(set, &values); err != nil {
		t.Fatalf("failed to unmarshal attribute value set: %v", err)
	}
	return Attribute{Type: attrType, Values: values}
}

func makeSigningCertificateV2Attribute(t *testing.T, cert *x509.Certificate, badHash bool) Attribute {
	t.Helper()
	certHash := sha256.Sum256(cert.Raw)
	if badHash {
		certHash[0] ^= 0xff
	}
	return makeAttribute(t, oid.SigningCertificateV2, signingCertificateV2{
		Certificates: []essCertIDv2{{
			CertHash:     certHash[:],
			IssuerSerial: makeIssuerSerial(cert),
		}},
	})
}

func makeSigningCertificateAttribute(t *testing.T, cert *x509.Certificate) Attribute {
	t.Helper()
	certHash := sha1.Sum(cert.Raw)
	return makeAttribute(t, oid.SigningCertificate, signingCertificate{
		Certificates: []essCertID{{
			CertHash:     certHash[:],
			IssuerSerial: makeIssuerSerial(cert),
		}},
	})
}

// makeIssuerSerial wraps the issuer of cert as a directoryName GeneralName.
func makeIssuerSerial(cert *x509.Certificate) issuerSerial {
	generalNames := wrapASN1(asn1.ClassUniversal, asn1.TagSequence, true,
		wrapASN1(asn1.ClassContextSpecific, 4, true, cert.RawIssuer))
	return issuerSerial{
		Issuer:       asn1.RawValue{FullBytes: generalNames},
		SerialNumber: cert.SerialNumber,
	}
}

// constructedOctetString encodes value as an indefinite-length constructed
// OCTET STRING split in two segments.
func constructedOctetString(t *testing.T, value []byte) []byte {
	t.Helper()
	out := []byte{0x24, 0x80}
	for _, segment := range [][]byte{value[:len(value)/2], value[len(value)/2:]} {
		der, err := asn1.Marshal(segment)
		if err != nil {
			t.Fatalf("failed to marshal content segment: %v", err)
		}
		out = append(out, der...)
	}
	return append(out, 0x00, 0x00)
}

// wrapASN1 encodes a TLV with the given identifier around content.
func wrapASN1(class, tag int, constructed bool, content []byte) []byte {
	identifier := byte(class<<6) | byte(tag)
	if constructed {
		identifier |= 0x20
	}
	out := []byte{identifier}
	length := len(content)
	if length < 0x80 {
		out = append(out, byte(length))
	} else {
		var lengthOctets []byte
		for l := length; l > 0; l >>= 8 {
			lengthOctets = append([]byte{byte(l)}, lengthOctets...)
		}
		out = append(out, 0x80|byte(len(lengthOctets)))
		out = append(out, lengthOctets...)
	}
	return append(out, content...)
}
