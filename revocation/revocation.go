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

// Package revocation checks the revocation status of certificate chains.
//
// Revocation lists supplied out of band take precedence over network
// lookups. When a certificate carries neither usable revocation data nor
// revocation endpoints it is considered non-revokable and passes.
package revocation

import (
	"context"
	"crypto/x509"
	"net/http"
	"time"
)

// Options configures a revocation check.
type Options struct {
	// CRLs are revocation lists supplied out of band, consulted before any
	// network lookup.
	CRLs []*x509.RevocationList

	// HTTPClient performs CRL and OCSP fetches. Nil means
	// http.DefaultClient.
	HTTPClient *http.Client

	// SigningTime is compared against invalidity dates of revocation
	// entries. The zero value disables the comparison.
	SigningTime time.Time
}

// Validator checks the revocation status of certificate chains.
type Validator interface {
	// Validate checks the revocation status of the given chain, leaf first.
	// It returns nil if no certificate in the chain is revoked.
	Validate(ctx context.Context, chain []*x509.Certificate, opts Options) error
}

// New returns a Validator that consults supplied CRLs first and falls back
// to OCSP, then to CRL distribution points.
func New() Validator {
	return &validator{}
}

type validator struct{}

// Validate checks certificates sequentially from leaf to root so that the
// reported failure is the one closest to the leaf. The root is skipped; it
// is trusted directly.
func (v *validator) Validate(ctx context.Context, chain []*x509.Certificate, opts Options) error {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	for i := 0; i < len(chain)-1; i++ {
		if err := certCheckStatus(ctx, chain[i], chain[i+1], opts); err != nil {
			return err
		}
	}
	return nil
}

// certCheckStatus checks the revocation status of a single certificate
// against its issuer.
func certCheckStatus(ctx context.Context, cert, issuer *x509.Certificate, opts Options) error {
	found, err := checkAgainstCRLs(cert, issuer, opts.CRLs, opts.SigningTime)
	if found {
		return err
	}
	if len(cert.OCSPServer) > 0 {
		return ocspCheckStatus(ctx, cert, issuer, opts)
	}
	if len(cert.CRLDistributionPoints) > 0 {
		return crlCheckStatus(ctx, cert, issuer, opts)
	}
	// non-revokable
	return nil
}
