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
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa44"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"

	"github.com/cmsproject/cms-core-go/internal/oid"
)

// verifySignature checks the signature of one signer over the signed bytes
// with the public key of cert.
func verifySignature(si *SignerInfo, cert *x509.Certificate, signed []byte) error {
	sigAlg := si.SignatureAlgorithm.Algorithm
	if name := oid.ToMLDSAAlgorithm(sigAlg); name != "" {
		return verifyMLDSASignature(cert, name, signed, si.Signature)
	}

	algorithm := oid.ToSignatureAlgorithm(si.DigestAlgorithm.Algorithm, sigAlg)
	if algorithm == x509.UnknownSignatureAlgorithm {
		return fmt.Errorf("unsupported signature algorithm %v", sigAlg)
	}
	return cert.CheckSignature(algorithm, signed, si.Signature)
}

// verifyMLDSASignature checks an ML-DSA signature. crypto/x509 leaves the
// public key of an ML-DSA certificate unparsed, so the key is taken from the
// raw subject public key info.
func verifyMLDSASignature(cert *x509.Certificate, name string, signed, signature []byte) error {
	var spki struct {
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(cert.RawSubjectPublicKeyInfo, &spki); err != nil {
		return fmt.Errorf("invalid subject public key info: %w", err)
	}
	if spki.PublicKey.BitLength%8 != 0 {
		return errors.New("invalid subject public key: not an octet sequence")
	}
	keyBytes := spki.PublicKey.Bytes

	var ok bool
	switch name {
	case "ML-DSA-44":
		key := new(mldsa44.PublicKey)
		if err := key.UnmarshalBinary(keyBytes); err != nil {
			return fmt.Errorf("invalid %s public key: %w", name, err)
		}
		ok = mldsa44.Verify(key, signed, nil, signature)
	case "ML-DSA-65":
		key := new(mldsa65.PublicKey)
		if err := key.UnmarshalBinary(keyBytes); err != nil {
			return fmt.Errorf("invalid %s public key: %w", name, err)
		}
		ok = mldsa65.Verify(key, signed, nil, signature)
	case "ML-DSA-87":
		key := new(mldsa87.PublicKey)
		if err := key.UnmarshalBinary(keyBytes); err != nil {
			return fmt.Errorf("invalid %s public key: %w", name, err)
		}
		ok = mldsa87.Verify(key, signed, nil, signature)
	default:
		return fmt.Errorf("unsupported signature algorithm %s", name)
	}
	if !ok {
		return fmt.Errorf("%s signature verification failed", name)
	}
	return nil
}
