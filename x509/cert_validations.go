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

// Package x509 validates certificate chains for the message signing purpose.
package x509

import (
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/cmsproject/cms-core-go/internal/oid"
)

// ValidateMessageSigningCertChain takes an ordered message signing
// certificate chain and validates issuance from leaf to root.
func ValidateMessageSigningCertChain(certChain []*x509.Certificate, signingTime time.Time) error {
	if len(certChain) < 1 {
		return errors.New("certificate chain must contain at least one certificate")
	}

	// self-signed signing certificate (not a CA)
	if len(certChain) == 1 {
		cert := certChain[0]
		if err := validateSelfSignedLeaf(cert); err != nil {
			return fmt.Errorf("certificate with subject %q is not a valid self-signed certificate: %w", cert.Subject, err)
		}
		if err := validateSigningTime(cert, signingTime); err != nil {
			return err
		}
		if err := validateLeafCertificate(cert); err != nil {
			return fmt.Errorf("invalid self-signed certificate: %w", err)
		}
		return nil
	}

	for i, cert := range certChain {
		if err := validateSigningTime(cert, signingTime); err != nil {
			return err
		}
		if i == len(certChain)-1 {
			selfSigned, selfSignedError := isSelfSigned(cert)
			if selfSignedError != nil {
				return fmt.Errorf("root certificate with subject %q is invalid or not self-signed. Certificate chain must end with a valid self-signed root certificate. Error: %v", cert.Subject, selfSignedError)
			}
			if !selfSigned {
				return fmt.Errorf("root certificate with subject %q is not self-signed. Certificate chain must end with a valid self-signed root certificate", cert.Subject)
			}
		} else {
			// a self-signed certificate before the end of the chain is a
			// stray root
			selfSigned, selfSignedError := isSelfSigned(cert)
			if selfSignedError == nil && selfSigned {
				if i == 0 {
					return fmt.Errorf("leaf certificate with subject %q is self-signed. Certificate chain must not contain self-signed leaf certificate", cert.Subject)
				}
				return fmt.Errorf("intermediate certificate with subject %q is self-signed. Certificate chain must not contain self-signed intermediate certificate", cert.Subject)
			}
			parentCert := certChain[i+1]
			issuedBy, issuedByError := isIssuedBy(cert, parentCert)
			if issuedByError != nil {
				return fmt.Errorf("invalid certificates or certificate with subject %q is not issued by %q. Error: %v", cert.Subject, parentCert.Subject, issuedByError)
			}
			if !issuedBy {
				return fmt.Errorf("certificate with subject %q is not issued by %q", cert.Subject, parentCert.Subject)
			}
		}

		if i == 0 {
			if err := validateLeafCertificate(cert); err != nil {
				return err
			}
		} else {
			if err := validateCACertificate(cert, i-1); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateCACertificate(cert *x509.Certificate, expectedPathLen int) error {
	if err := validateCABasicConstraints(cert, expectedPathLen); err != nil {
		return err
	}
	if err := validateKeyUsagePresent(cert); err != nil {
		return err
	}
	if cert.KeyUsage&x509.KeyUsageCertSign == 0 {
		return fmt.Errorf("certificate with subject %q: key usage must have the bit positions for key cert sign set", cert.Subject)
	}
	return nil
}

func validateLeafCertificate(cert *x509.Certificate) error {
	if err := validateLeafBasicConstraints(cert); err != nil {
		return err
	}
	if err := validateKeyUsagePresent(cert); err != nil {
		return err
	}
	if err := validateLeafKeyUsage(cert); err != nil {
		return err
	}
	if err := validateLeafExtendedKeyUsage(cert); err != nil {
		return err
	}
	return validatePublicKey(cert)
}

func validateKeyUsagePresent(cert *x509.Certificate) error {
	var hasKeyUsageExtension bool
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oid.KeyUsage) {
			if !ext.Critical {
				return fmt.Errorf("certificate with subject %q: key usage extension must be marked critical", cert.Subject)
			}
			hasKeyUsageExtension = true
			break
		}
	}
	if !hasKeyUsageExtension {
		return fmt.Errorf("certificate with subject %q: key usage extension must be present", cert.Subject)
	}
	return nil
}

// validateLeafExtendedKeyUsage requires the extended key usage, when present,
// to permit message signing and to stay clear of server and infrastructure
// usages.
func validateLeafExtendedKeyUsage(cert *x509.Certificate) error {
	if len(cert.ExtKeyUsage) == 0 {
		return nil
	}

	excludedEKUs := []x509.ExtKeyUsage{
		x509.ExtKeyUsageServerAuth,
		x509.ExtKeyUsageClientAuth,
		x509.ExtKeyUsageTimeStamping,
		x509.ExtKeyUsageOCSPSigning,
	}
	var permitted bool
	for _, certEKU := range cert.ExtKeyUsage {
		for _, excludedEKU := range excludedEKUs {
			if certEKU == excludedEKU {
				return fmt.Errorf("certificate with subject %q: extended key usage must not contain %s eku", cert.Subject, ekuToString(excludedEKU))
			}
		}
		if certEKU == x509.ExtKeyUsageEmailProtection || certEKU == x509.ExtKeyUsageAny {
			permitted = true
		}
	}
	if !permitted {
		return fmt.Errorf("certificate with subject %q: extended key usage must permit message signing", cert.Subject)
	}
	return nil
}
