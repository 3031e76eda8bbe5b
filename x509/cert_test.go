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
	"bytes"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmsproject/cms-core-go/testhelper"
)

func TestParseCertificatesDER(t *testing.T) {
	leaf := testhelper.GetRSALeafCertificate().Cert
	certs, err := ParseCertificates(leaf.Raw)
	if err != nil {
		t.Fatalf("ParseCertificates() error = %v", err)
	}
	if len(certs) != 1 || !certs[0].Equal(leaf) {
		t.Fatal("parsed DER certificate mismatch")
	}
}

func TestParseCertificatesPEM(t *testing.T) {
	leaf := testhelper.GetRSALeafCertificate().Cert
	root := testhelper.GetRSARootCertificate().Cert

	var buf bytes.Buffer
	for _, raw := range [][]byte{leaf.Raw, root.Raw} {
		if err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: raw}); err != nil {
			t.Fatalf("failed to encode PEM: %v", err)
		}
	}
	certs, err := ParseCertificates(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseCertificates() error = %v", err)
	}
	if len(certs) != 2 || !certs[0].Equal(leaf) || !certs[1].Equal(root) {
		t.Fatal("parsed PEM certificates mismatch")
	}
}

func TestParseCertificatesInvalid(t *testing.T) {
	if _, err := ParseCertificates([]byte("not a certificate")); err == nil {
		t.Fatal("expected error for invalid data")
	}
}

func TestReadCertificateFile(t *testing.T) {
	leaf := testhelper.GetRSALeafCertificate().Cert
	path := filepath.Join(t.TempDir(), "cert.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: leaf.Raw})
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	certs, err := ReadCertificateFile(path)
	if err != nil {
		t.Fatalf("ReadCertificateFile() error = %v", err)
	}
	if len(certs) != 1 || !certs[0].Equal(leaf) {
		t.Fatal("certificate from file mismatch")
	}

	if _, err := ReadCertificateFile(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
