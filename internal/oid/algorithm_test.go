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

package oid

import (
	"crypto/x509"
	"encoding/asn1"
	"testing"
)

func TestToSignatureAlgorithm(t *testing.T) {
	tests := []struct {
		name      string
		digestAlg asn1.ObjectIdentifier
		sigAlg    asn1.ObjectIdentifier
		want      x509.SignatureAlgorithm
	}{
		{"sha256 with rsa key oid", SHA256, RSA, x509.SHA256WithRSA},
		{"sha384 with rsa key oid", SHA384, RSA, x509.SHA384WithRSA},
		{"sha512 with rsa key oid", SHA512, RSA, x509.SHA512WithRSA},
		{"rsa-pss", SHA256, RSAPSS, x509.SHA256WithRSAPSS},
		{"full rsa scheme", SHA256, SHA256WithRSA, x509.SHA256WithRSA},
		{"ecdsa scheme", SHA256, ECDSAWithSHA256, x509.ECDSAWithSHA256},
		{"ecdsa key oid", SHA384, EcPublicKey, x509.ECDSAWithSHA384},
		{"ed25519", nil, Ed25519, x509.PureEd25519},
		{"unknown", SHA256, asn1.ObjectIdentifier{1, 2, 3}, x509.UnknownSignatureAlgorithm},
		{"mldsa is not an x509 algorithm", SHA512, MLDSA44, x509.UnknownSignatureAlgorithm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToSignatureAlgorithm(tt.digestAlg, tt.sigAlg); got != tt.want {
				t.Errorf("ToSignatureAlgorithm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToMLDSAAlgorithm(t *testing.T) {
	if got := ToMLDSAAlgorithm(MLDSA44); got != "ML-DSA-44" {
		t.Errorf("ToMLDSAAlgorithm(MLDSA44) = %q", got)
	}
	if got := ToMLDSAAlgorithm(MLDSA65); got != "ML-DSA-65" {
		t.Errorf("ToMLDSAAlgorithm(MLDSA65) = %q", got)
	}
	if got := ToMLDSAAlgorithm(MLDSA87); got != "ML-DSA-87" {
		t.Errorf("ToMLDSAAlgorithm(MLDSA87) = %q", got)
	}
	if got := ToMLDSAAlgorithm(RSA); got != "" {
		t.Errorf("ToMLDSAAlgorithm(RSA) = %q, want empty", got)
	}
}
