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
	"context"
	"crypto/x509"
	"errors"
	"net/http"
	"time"

	"github.com/cmsproject/cms-core-go/revocation"
	corex509 "github.com/cmsproject/cms-core-go/x509"
)

// ChainValidationRequest carries everything the validator needs to validate
// the chain of one signer.
type ChainValidationRequest struct {
	// SignerCertificate is the resolved certificate of the signer.
	SignerCertificate *x509.Certificate

	// Roots is the trust anchor set.
	Roots *x509.CertPool

	// Intermediates are the candidate intermediate certificates, combined
	// from the envelope and the verification options.
	Intermediates []*x509.Certificate

	// CRLs are the candidate revocation lists, combined from the envelope
	// and the verification options.
	CRLs []*x509.RevocationList

	// CurrentTime is the reference time for validity checks.
	CurrentTime time.Time

	// CheckRevocation enables revocation checking on the validated chain.
	CheckRevocation bool

	// HTTPClient performs CRL and OCSP fetches. Nil means
	// http.DefaultClient.
	HTTPClient *http.Client
}

// ChainValidator validates the certificate chain of a signer.
type ChainValidator interface {
	// ValidateChain builds and validates a chain from the signer certificate
	// to a trust anchor and returns it, leaf first.
	ValidateChain(ctx context.Context, req *ChainValidationRequest) ([]*x509.Certificate, error)
}

// chainValidator is the built-in ChainValidator. It requires chains valid
// for message signing and checks revocation with embedded and provided CRLs
// before going online.
type chainValidator struct{}

// ValidateChain implements ChainValidator.
func (chainValidator) ValidateChain(ctx context.Context, req *ChainValidationRequest) ([]*x509.Certificate, error) {
	if req.Roots == nil {
		return nil, errors.New("no trust anchors configured")
	}

	intermediates := x509.NewCertPool()
	for _, cert := range req.Intermediates {
		intermediates.AddCert(cert)
	}
	chains, err := req.SignerCertificate.Verify(x509.VerifyOptions{
		Roots:         req.Roots,
		Intermediates: intermediates,
		CurrentTime:   req.CurrentTime,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageEmailProtection},
	})
	if err != nil {
		return nil, err
	}
	chain := chains[0]

	if err := corex509.ValidateMessageSigningCertChain(chain, req.CurrentTime); err != nil {
		return nil, err
	}

	if req.CheckRevocation {
		err := revocation.New().Validate(ctx, chain, revocation.Options{
			CRLs:        req.CRLs,
			HTTPClient:  req.HTTPClient,
			SigningTime: req.CurrentTime,
		})
		if err != nil {
			return nil, err
		}
	}
	return chain, nil
}
