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

package revocation

import (
	"bytes"
	"context"
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// crlMaxResponseSize is the maximum size of a fetched CRL. Typical CRLs
	// are well under 10 MiB.
	crlMaxResponseSize int64 = 10 << 20

	// reason codes defined in RFC 5280 5.3.1
	reasonCodeCertificateHold = 6
	reasonCodeRemoveFromCRL   = 8
)

// oidInvalidityDate is the object identifier for the invalidity date CRL
// entry extension. (See RFC 5280, Section 5.3.2)
var oidInvalidityDate = asn1.ObjectIdentifier{2, 5, 29, 24}

// checkAgainstCRLs looks for an applicable revocation list among the supplied
// ones. The boolean result reports whether one was found; the error is the
// revocation verdict for cert when it was.
func checkAgainstCRLs(cert, issuer *x509.Certificate, crls []*x509.RevocationList, signingTime time.Time) (bool, error) {
	for _, crl := range crls {
		if !bytes.Equal(crl.RawIssuer, cert.RawIssuer) {
			continue
		}
		if err := validateCRL(crl, issuer); err != nil {
			continue
		}
		return true, checkRevocationEntries(cert, crl, signingTime, "")
	}
	return false, nil
}

// crlCheckStatus downloads revocation lists from the CRL distribution points
// of cert and checks them. The first usable list decides.
func crlCheckStatus(ctx context.Context, cert, issuer *x509.Certificate, opts Options) error {
	var lastErr error
	for _, crlURL := range cert.CRLDistributionPoints {
		crl, err := fetchCRL(ctx, crlURL, opts.HTTPClient)
		if err != nil {
			lastErr = fmt.Errorf("failed to download CRL from %s: %w", crlURL, err)
			continue
		}
		if err := validateCRL(crl, issuer); err != nil {
			lastErr = fmt.Errorf("failed to validate CRL from %s: %w", crlURL, err)
			continue
		}
		return checkRevocationEntries(cert, crl, opts.SigningTime, crlURL)
	}
	return UnknownStatusError{Subject: cert.Subject.String(), Detail: lastErr}
}

func fetchCRL(ctx context.Context, crlURL string, client *http.Client) (*x509.RevocationList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crlURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("response had status code %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, crlMaxResponseSize))
	if err != nil {
		return nil, err
	}
	return x509.ParseRevocationList(data)
}

func validateCRL(crl *x509.RevocationList, issuer *x509.Certificate) error {
	if err := crl.CheckSignatureFrom(issuer); err != nil {
		return fmt.Errorf("CRL is not signed by CA %s: %w", issuer.Subject, err)
	}
	if crl.NextUpdate.IsZero() {
		return errors.New("CRL NextUpdate is not set")
	}
	if now := time.Now(); now.After(crl.NextUpdate) {
		return fmt.Errorf("expired CRL. Current time %v is after CRL NextUpdate %v", now, crl.NextUpdate)
	}
	for _, ext := range crl.Extensions {
		if ext.Critical {
			// unsupported critical extensions is not allowed
			// (See RFC 5280, Section 5.2)
			return fmt.Errorf("unsupported critical extension found in CRL: %v", ext.Id)
		}
	}
	return nil
}

// checkRevocationEntries scans the revocation list for cert.
//
// If the invalidity date entry extension is present and SigningTime is known,
// an entry whose invalidity date is after the signing time does not revoke
// the certificate. A CertificateHold entry revokes it unless a more recent
// RemoveFromCRL entry lifts the hold. (See RFC 5280, Section 5.3)
func checkRevocationEntries(cert *x509.Certificate, crl *x509.RevocationList, signingTime time.Time, server string) error {
	var latestTempRevokedEntry *x509.RevocationListEntry
	for i, entry := range crl.RevokedCertificateEntries {
		if entry.SerialNumber.Cmp(cert.SerialNumber) != 0 {
			continue
		}
		invalidityDate, err := parseInvalidityDate(entry)
		if err != nil {
			return UnknownStatusError{Subject: cert.Subject.String(), Detail: err}
		}
		if !signingTime.IsZero() && !invalidityDate.IsZero() && signingTime.Before(invalidityDate) {
			// not yet revoked at the time of signing
			continue
		}

		switch entry.ReasonCode {
		case reasonCodeCertificateHold, reasonCodeRemoveFromCRL:
			// temporarily revoked or unrevoked, the most recent entry decides
			if latestTempRevokedEntry == nil || latestTempRevokedEntry.RevocationTime.Before(entry.RevocationTime) {
				latestTempRevokedEntry = &crl.RevokedCertificateEntries[i]
			}
		default:
			// permanently revoked
			return RevokedError{Subject: cert.Subject.String(), Server: server}
		}
	}
	if latestTempRevokedEntry != nil && latestTempRevokedEntry.ReasonCode == reasonCodeCertificateHold {
		return RevokedError{Subject: cert.Subject.String(), Server: server}
	}
	return nil
}

func parseInvalidityDate(entry x509.RevocationListEntry) (time.Time, error) {
	for _, ext := range entry.Extensions {
		if ext.Id.Equal(oidInvalidityDate) {
			var invalidityDate time.Time
			rest, err := asn1.UnmarshalWithParams(ext.Value, &invalidityDate, "generalized")
			if err != nil {
				return time.Time{}, fmt.Errorf("failed to parse invalidity date: %w", err)
			}
			if len(rest) > 0 {
				return time.Time{}, errors.New("invalid invalidity date extension: trailing data")
			}
			return invalidityDate, nil
		}
	}
	return time.Time{}, nil
}
