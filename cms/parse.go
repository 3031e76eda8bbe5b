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
	"encoding/asn1"

	"github.com/cmsproject/cms-core-go/internal/encoding/ber"
	"github.com/cmsproject/cms-core-go/internal/oid"
)

// ErrNotSignedData is returned when parsing an envelope whose outer content
// type is not SignedData.
var ErrNotSignedData = &VerificationError{
	Kind:    KindWrongType,
	Signer:  -1,
	Message: "unsupported content type: not signed data",
}

// ParsedSignedData is a parsed SignedData structure for golang friendly types.
type ParsedSignedData struct {
	// Content is the embedded content of the envelope, nil when the envelope
	// is detached.
	Content []byte

	// ContentType is the encapsulated content type.
	ContentType asn1.ObjectIdentifier

	// Detached reports whether the envelope carries no embedded content.
	Detached bool

	// Certificates is the parsed form of the embedded certificate set.
	Certificates []*x509.Certificate

	// CRLs is the parsed form of the embedded revocation list set.
	CRLs []*x509.RevocationList

	// SignerInfos are the signers of the envelope in envelope order.
	SignerInfos []SignerInfo

	verifiedSigners []*x509.Certificate
}

// ParseSignedData parses envelope in BER or DER to a ParsedSignedData
// instance. Both attached and detached signatures are supported.
func ParseSignedData(envelope []byte) (*ParsedSignedData, error) {
	der, err := ber.ConvertToDER(envelope)
	if err != nil {
		return nil, &MalformedEnvelopeError{Message: "invalid envelope encoding", Detail: err}
	}

	var contentInfo ContentInfo
	if _, err := asn1.Unmarshal(der, &contentInfo); err != nil {
		return nil, &MalformedEnvelopeError{Message: "invalid content info", Detail: err}
	}
	if !oid.SignedData.Equal(contentInfo.ContentType) {
		return nil, ErrNotSignedData
	}

	var signedData SignedData
	if _, err := asn1.Unmarshal(contentInfo.Content.Bytes, &signedData); err != nil {
		return nil, &MalformedEnvelopeError{Message: "invalid signed data", Detail: err}
	}

	content, detached, err := encapsulatedContent(&signedData.EncapsulatedContentInfo)
	if err != nil {
		return nil, err
	}
	certificates, err := parseCertificates(signedData.Certificates)
	if err != nil {
		return nil, err
	}
	crls, err := parseCRLs(signedData.CRLs)
	if err != nil {
		return nil, err
	}

	return &ParsedSignedData{
		Content:      content,
		ContentType:  signedData.EncapsulatedContentInfo.ContentType,
		Detached:     detached,
		Certificates: certificates,
		CRLs:         crls,
		SignerInfos:  signedData.SignerInfos,
	}, nil
}

// encapsulatedContent unpacks the optional eContent octet string.
func encapsulatedContent(info *EncapsulatedContentInfo) ([]byte, bool, error) {
	if len(info.Content.FullBytes) == 0 {
		return nil, true, nil
	}
	var content []byte
	if _, err := asn1.Unmarshal(info.Content.Bytes, &content); err != nil {
		return nil, false, &MalformedEnvelopeError{Message: "invalid encapsulated content", Detail: err}
	}
	return content, false, nil
}

// parseCertificates parses the embedded CertificateSet. Entries that are not
// plain certificates, such as attribute certificates, are skipped.
func parseCertificates(raw []asn1.RawValue) ([]*x509.Certificate, error) {
	var certificates []*x509.Certificate
	for _, rawCert := range raw {
		if rawCert.Class != asn1.ClassUniversal || rawCert.Tag != asn1.TagSequence {
			continue
		}
		cert, err := x509.ParseCertificate(rawCert.FullBytes)
		if err != nil {
			return nil, &MalformedEnvelopeError{Message: "invalid certificate", Detail: err}
		}
		certificates = append(certificates, cert)
	}
	return certificates, nil
}

// parseCRLs parses the embedded RevocationInfoChoices. Other revocation info
// formats are skipped.
func parseCRLs(raw []asn1.RawValue) ([]*x509.RevocationList, error) {
	var crls []*x509.RevocationList
	for _, rawCRL := range raw {
		if rawCRL.Class != asn1.ClassUniversal || rawCRL.Tag != asn1.TagSequence {
			continue
		}
		crl, err := x509.ParseRevocationList(rawCRL.FullBytes)
		if err != nil {
			return nil, &MalformedEnvelopeError{Message: "invalid certificate revocation list", Detail: err}
		}
		crls = append(crls, crl)
	}
	return crls, nil
}
