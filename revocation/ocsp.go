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
	"crypto"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/ocsp"
)

// ocspMaxResponseSize is the maximum size of an OCSP response. Typical size
// is ~4 KB.
const ocspMaxResponseSize int64 = 20480

// ocspCheckStatus checks the revocation status of a certificate against the
// OCSP servers listed in it. The first conclusive answer decides.
func ocspCheckStatus(ctx context.Context, cert, issuer *x509.Certificate, opts Options) error {
	var lastErr error
	for _, server := range cert.OCSPServer {
		if serverURL, err := url.Parse(server); err != nil || !strings.EqualFold(serverURL.Scheme, "http") {
			lastErr = fmt.Errorf("OCSP server %s is not accessible via http", server)
			continue
		}
		resp, err := executeOCSPCheck(ctx, cert, issuer, server, opts.HTTPClient)
		if err != nil {
			lastErr = err
			continue
		}
		if time.Now().After(resp.NextUpdate) {
			lastErr = errors.New("expired OCSP response")
			continue
		}
		switch resp.Status {
		case ocsp.Good:
			return nil
		case ocsp.Revoked:
			if !opts.SigningTime.IsZero() && !resp.RevokedAt.IsZero() && opts.SigningTime.Before(resp.RevokedAt) {
				// not yet revoked at the time of signing
				return nil
			}
			return RevokedError{Subject: cert.Subject.String(), Server: server}
		default:
			return UnknownStatusError{Subject: cert.Subject.String()}
		}
	}
	return UnknownStatusError{Subject: cert.Subject.String(), Detail: lastErr}
}

func executeOCSPCheck(ctx context.Context, cert, issuer *x509.Certificate, server string, client *http.Client) (*ocsp.Response, error) {
	// SHA1 is the only hash algorithm supported across the large public CAs.
	ocspRequest, err := ocsp.CreateRequest(cert, issuer, &ocsp.RequestOptions{Hash: crypto.SHA1})
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	encodedReq := url.QueryEscape(base64.StdEncoding.EncodeToString(ocspRequest))
	if len(encodedReq) < 255 {
		reqURL, err := url.JoinPath(server, encodedReq)
		if err != nil {
			return nil, err
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err = client.Do(httpReq)
		if err != nil {
			return nil, err
		}
	} else {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, server, bytes.NewReader(ocspRequest))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/ocsp-request")
		resp, err = client.Do(httpReq)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to retrieve OCSP: response had status code %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, ocspMaxResponseSize))
	if err != nil {
		return nil, err
	}

	switch {
	case bytes.Equal(body, ocsp.UnauthorizedErrorResponse):
		return nil, errors.New("OCSP unauthorized")
	case bytes.Equal(body, ocsp.MalformedRequestErrorResponse):
		return nil, errors.New("OCSP malformed")
	case bytes.Equal(body, ocsp.InternalErrorErrorResponse):
		return nil, errors.New("OCSP internal error")
	case bytes.Equal(body, ocsp.TryLaterErrorResponse):
		return nil, errors.New("OCSP try later")
	case bytes.Equal(body, ocsp.SigRequredErrorResponse):
		return nil, errors.New("OCSP signature required")
	}

	return ocsp.ParseResponseForCert(body, cert, issuer)
}
