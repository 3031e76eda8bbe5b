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

package x509

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/cmsproject/cms-core-go/testhelper"
)

// newSelfSignedCert creates a self-signed certificate after applying mutate
// to a plain signing certificate template.
func newSelfSignedCert(t *testing.T, mutate func(*x509.Certificate)) *x509.Certificate {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "CMS Validation Test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageEmailProtection},
	}
	if mutate != nil {
		mutate(template)
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	return cert
}

func TestValidRSAChain(t *testing.T) {
	leaf := testhelper.GetRSALeafCertificate().Cert
	root := testhelper.GetRSARootCertificate().Cert
	if err := ValidateMessageSigningCertChain([]*x509.Certificate{leaf, root}, time.Now()); err != nil {
		t.Fatalf("ValidateMessageSigningCertChain() error = %v", err)
	}
}

func TestValidECChain(t *testing.T) {
	leaf := testhelper.GetECLeafCertificate().Cert
	root := testhelper.GetECRootCertificate().Cert
	if err := ValidateMessageSigningCertChain([]*x509.Certificate{leaf, root}, time.Now()); err != nil {
		t.Fatalf("ValidateMessageSigningCertChain() error = %v", err)
	}
}

func TestValidSelfSignedSigningCertificate(t *testing.T) {
	cert := testhelper.GetRSASelfSignedSigningCertificate().Cert
	if err := ValidateMessageSigningCertChain([]*x509.Certificate{cert}, time.Now()); err != nil {
		t.Fatalf("ValidateMessageSigningCertChain() error = %v", err)
	}
}

func TestEmptyChain(t *testing.T) {
	if err := ValidateMessageSigningCertChain(nil, time.Now()); err == nil {
		t.Fatal("expected error for empty chain")
	}
}

func TestReversedChain(t *testing.T) {
	leaf := testhelper.GetRSALeafCertificate().Cert
	root := testhelper.GetRSARootCertificate().Cert
	if err := ValidateMessageSigningCertChain([]*x509.Certificate{root, leaf}, time.Now()); err == nil {
		t.Fatal("expected error for reversed chain")
	}
}

func TestChainNotEndingWithRoot(t *testing.T) {
	leaf := testhelper.GetRSALeafCertificate().Cert
	otherLeaf := testhelper.GetRSALeafCertificateWithoutEKU().Cert
	err := ValidateMessageSigningCertChain([]*x509.Certificate{leaf, otherLeaf}, time.Now())
	if err == nil {
		t.Fatal("expected error for chain without a root")
	}
}

func TestSigningTimeOutsideValidity(t *testing.T) {
	leaf := testhelper.GetRSALeafCertificate().Cert
	root := testhelper.GetRSARootCertificate().Cert
	chain := []*x509.Certificate{leaf, root}

	err := ValidateMessageSigningCertChain(chain, leaf.NotAfter.Add(time.Hour))
	if err == nil || !strings.Contains(err.Error(), "invalid at signing time") {
		t.Fatalf("expected signing time error, got %v", err)
	}

	// the zero time means no signing time is asserted
	if err := ValidateMessageSigningCertChain(chain, time.Time{}); err != nil {
		t.Fatalf("ValidateMessageSigningCertChain() error = %v", err)
	}
}

func TestLeafValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*x509.Certificate)
		wantErr string
	}{
		{
			name:    "missing key usage extension",
			mutate:  func(c *x509.Certificate) { c.KeyUsage = 0 },
			wantErr: "key usage extension must be present",
		},
		{
			name: "no signing bit",
			mutate: func(c *x509.Certificate) {
				c.KeyUsage = x509.KeyUsageKeyEncipherment
			},
			wantErr: "Digital Signature",
		},
		{
			name: "cert sign bit on leaf",
			mutate: func(c *x509.Certificate) {
				c.KeyUsage = x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign
			},
			wantErr: `"CertSign"`,
		},
		{
			name: "server auth eku",
			mutate: func(c *x509.Certificate) {
				c.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageEmailProtection, x509.ExtKeyUsageServerAuth}
			},
			wantErr: "must not contain ServerAuth",
		},
		{
			name: "code signing only eku",
			mutate: func(c *x509.Certificate) {
				c.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageCodeSigning}
			},
			wantErr: "must permit message signing",
		},
		{
			name: "ca leaf",
			mutate: func(c *x509.Certificate) {
				c.BasicConstraintsValid = true
				c.IsCA = true
				c.KeyUsage = x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign
			},
			wantErr: "ca field must be set to false",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cert := newSelfSignedCert(t, tt.mutate)
			err := ValidateMessageSigningCertChain([]*x509.Certificate{cert}, time.Now())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUnsupportedRSAKeySize(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "CMS Small Key Test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageEmailProtection},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	err = ValidateMessageSigningCertChain([]*x509.Certificate{cert}, time.Now())
	if err == nil || !strings.Contains(err.Error(), "rsa key size 1024 bits is not supported") {
		t.Fatalf("expected key size error, got %v", err)
	}
}
