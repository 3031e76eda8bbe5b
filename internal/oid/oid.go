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

// Package oid collects object identifiers for crypto algorithms
// and CMS structures.
package oid

import "encoding/asn1"

// OIDs for hash algorithms.
var (
	// SHA1 (id-sha1) is defined in RFC 8017 B.1 SHA-1.
	SHA1 = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}

	// SHA256 (id-sha256) is defined in RFC 8017 B.1 SHA-256.
	SHA256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}

	// SHA384 (id-sha384) is defined in RFC 8017 B.1 SHA-384.
	SHA384 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}

	// SHA512 (id-sha512) is defined in RFC 8017 B.1 SHA-512.
	SHA512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}
)

// OIDs for signature algorithms.
var (
	// RSA is defined in RFC 8017 C ASN.1 Module.
	RSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}

	// SHA256WithRSA is defined in RFC 8017 C ASN.1 Module.
	SHA256WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}

	// SHA384WithRSA is defined in RFC 8017 C ASN.1 Module.
	SHA384WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}

	// SHA512WithRSA is defined in RFC 8017 C ASN.1 Module.
	SHA512WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}

	// RSAPSS (id-RSASSA-PSS) is defined in RFC 8017 C ASN.1 Module.
	RSAPSS = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}

	// EcPublicKey (id-ecPublicKey) is defined in RFC 5480 2.1.1 Unrestricted
	// Algorithm Identifier and Parameters.
	EcPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}

	// ECDSAWithSHA256 is defined in RFC 5758 3.2 ECDSA Signature Algorithm.
	ECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}

	// ECDSAWithSHA384 is defined in RFC 5758 3.2 ECDSA Signature Algorithm.
	ECDSAWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}

	// ECDSAWithSHA512 is defined in RFC 5758 3.2 ECDSA Signature Algorithm.
	ECDSAWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}

	// Ed25519 (id-Ed25519) is defined in RFC 8410 3 Curve25519 and Curve448
	// Algorithm Identifiers.
	Ed25519 = asn1.ObjectIdentifier{1, 3, 101, 112}

	// MLDSA44 (id-ml-dsa-44) is defined in the NIST CSOR.
	MLDSA44 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 17}

	// MLDSA65 (id-ml-dsa-65) is defined in the NIST CSOR.
	MLDSA65 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 18}

	// MLDSA87 (id-ml-dsa-87) is defined in the NIST CSOR.
	MLDSA87 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 19}
)

// OIDs for CMS content types.
var (
	// Data (id-data) is defined in RFC 5652 4 Data Content Type.
	Data = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}

	// SignedData (id-signedData) is defined in RFC 5652 5.1 SignedData Type.
	SignedData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}

	// TSTInfo (id-ct-TSTInfo) is defined in RFC 3161 2.4.2 Response Format.
	TSTInfo = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 1, 4}
)

// OIDs for X.509 certificate extensions.
var (
	// KeyUsage (id-ce-keyUsage) is defined in RFC 5280 4.2.1.3.
	KeyUsage = asn1.ObjectIdentifier{2, 5, 29, 15}
)

// OIDs for CMS attributes.
var (
	// ContentType (id-contentType) is defined in RFC 5652 11.1 Content Type.
	ContentType = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 3}

	// MessageDigest (id-messageDigest) is defined in RFC 5652 11.2 Message
	// Digest.
	MessageDigest = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 4}

	// SigningTime (id-signingTime) is defined in RFC 5652 11.3 Signing Time.
	SigningTime = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 5}

	// SigningCertificate (id-aa-signingCertificate) is defined in RFC 5035 5.
	SigningCertificate = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 2, 12}

	// SigningCertificateV2 (id-aa-signingCertificateV2) is defined in
	// RFC 5035 3.
	SigningCertificateV2 = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 2, 47}

	// TimeStampToken (id-aa-timeStampToken) is defined in RFC 3161 APPENDIX A.
	TimeStampToken = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 2, 14}
)
