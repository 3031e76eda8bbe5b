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
	"crypto"
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"math/big"

	"github.com/cmsproject/cms-core-go/internal/hashutil"
	"github.com/cmsproject/cms-core-go/internal/oid"
)

// signingCertificateV2 contains certificate hash with identifiers.
//
// References: RFC 5035 3
//
//	SigningCertificateV2 ::= SEQUENCE {
//	  certs SEQUENCE OF ESSCertIDv2,
//	  policies SEQUENCE OF PolicyInformation OPTIONAL }
type signingCertificateV2 struct {
	Certificates []essCertIDv2
	Policies     asn1.RawValue `asn1:"optional"`
}

// essCertIDv2 identifies a certificate by hash.
//
// References: RFC 5035 4
//
//	ESSCertIDv2 ::= SEQUENCE {
//	  hashAlgorithm AlgorithmIdentifier DEFAULT {algorithm id-sha256},
//	  certHash Hash,
//	  issuerSerial IssuerSerial OPTIONAL }
type essCertIDv2 struct {
	HashAlgorithm AlgorithmIdentifier `asn1:"optional"`
	CertHash      []byte
	IssuerSerial  issuerSerial `asn1:"optional"`
}

// signingCertificate is the SHA-1 predecessor of signingCertificateV2.
//
// References: RFC 5035 5
type signingCertificate struct {
	Certificates []essCertID
	Policies     asn1.RawValue `asn1:"optional"`
}

// essCertID identifies a certificate by SHA-1 hash.
//
// References: RFC 5035 6
type essCertID struct {
	CertHash     []byte
	IssuerSerial issuerSerial `asn1:"optional"`
}

// issuerSerial names the issuing CA and the certificate serial number.
//
//	IssuerSerial ::= SEQUENCE {
//	  issuer GeneralNames,
//	  serialNumber CertificateSerialNumber }
type issuerSerial struct {
	Issuer       asn1.RawValue
	SerialNumber *big.Int
}

// verifySigningCertificate checks that the signing certificate attribute of
// the signer identifies exactly the certificate the signature verified
// against. Either the v2 attribute or its SHA-1 predecessor satisfies the
// check; a signer carrying neither fails.
//
// References: RFC 5035, RFC 5126 5.7.3 signing-certificate-v2
func verifySigningCertificate(si *SignerInfo, cert *x509.Certificate, index int) error {
	var v2 signingCertificateV2
	switch err := si.SignedAttributes.TryGet(oid.SigningCertificateV2, &v2); err {
	case nil:
		if len(v2.Certificates) == 0 {
			return &VerificationError{Kind: KindBindingMismatch, Signer: index, Message: "signing certificate v2 attribute has no certificate entries"}
		}
		// the first entry identifies the signing certificate
		entry := v2.Certificates[0]
		hash := crypto.SHA256
		if entry.HashAlgorithm.Algorithm != nil {
			var ok bool
			hash, ok = oid.ToHash(entry.HashAlgorithm.Algorithm)
			if !ok {
				return &VerificationError{Kind: KindBindingMismatch, Signer: index, Message: "unsupported hash algorithm in signing certificate v2 attribute"}
			}
		}
		return checkCertificateBinding(cert, hash, entry.CertHash, entry.IssuerSerial, index)
	case ErrAttributeNotFound:
	default:
		return &VerificationError{Kind: KindBindingMismatch, Signer: index, Message: "invalid signing certificate v2 attribute", Detail: err}
	}

	var v1 signingCertificate
	switch err := si.SignedAttributes.TryGet(oid.SigningCertificate, &v1); err {
	case nil:
		if len(v1.Certificates) == 0 {
			return &VerificationError{Kind: KindBindingMismatch, Signer: index, Message: "signing certificate attribute has no certificate entries"}
		}
		entry := v1.Certificates[0]
		return checkCertificateBinding(cert, crypto.SHA1, entry.CertHash, entry.IssuerSerial, index)
	case ErrAttributeNotFound:
		return &VerificationError{Kind: KindBindingMismatch, Signer: index, Message: "no signing certificate attribute"}
	default:
		return &VerificationError{Kind: KindBindingMismatch, Signer: index, Message: "invalid signing certificate attribute", Detail: err}
	}
}

// checkCertificateBinding compares the attribute entry against the resolved
// certificate by hash and, when present, by issuer and serial number.
func checkCertificateBinding(cert *x509.Certificate, hash crypto.Hash, certHash []byte, is issuerSerial, index int) error {
	computed, err := hashutil.ComputeHash(hash, cert.Raw)
	if err != nil {
		return err
	}
	if !bytes.Equal(computed, certHash) {
		return &VerificationError{Kind: KindBindingMismatch, Signer: index, Message: "signing certificate attribute does not match the signing certificate"}
	}
	if is.SerialNumber == nil {
		return nil
	}
	if cert.SerialNumber.Cmp(is.SerialNumber) != 0 {
		return &VerificationError{Kind: KindBindingMismatch, Signer: index, Message: "serial number in signing certificate attribute does not match the signing certificate"}
	}
	directoryName, err := generalNamesDirectoryName(is.Issuer)
	if err != nil {
		return &VerificationError{Kind: KindBindingMismatch, Signer: index, Message: "invalid issuer in signing certificate attribute", Detail: err}
	}
	if !bytes.Equal(directoryName, cert.RawIssuer) {
		return &VerificationError{Kind: KindBindingMismatch, Signer: index, Message: "issuer in signing certificate attribute does not match the signing certificate"}
	}
	return nil
}

// generalNamesDirectoryName extracts the directoryName choice from a
// GeneralNames value.
//
// References: RFC 5280 4.2.1.6
func generalNamesDirectoryName(generalNames asn1.RawValue) ([]byte, error) {
	rest := generalNames.Bytes
	for len(rest) > 0 {
		var name asn1.RawValue
		var err error
		rest, err = asn1.Unmarshal(rest, &name)
		if err != nil {
			return nil, err
		}
		// directoryName [4] EXPLICIT Name
		if name.Class == asn1.ClassContextSpecific && name.Tag == 4 {
			var dn asn1.RawValue
			if _, err := asn1.Unmarshal(name.Bytes, &dn); err != nil {
				return nil, err
			}
			return dn.FullBytes, nil
		}
	}
	return nil, errors.New("no directory name in general names")
}
