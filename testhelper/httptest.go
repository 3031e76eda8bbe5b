// Package testhelper implements utility routines required for writing unit tests.
// The testhelper should only be used in unit tests.
package testhelper

import (
	"crypto/rand"
	"crypto/x509"
	"math/big"
	"net/http"
	"time"

	"golang.org/x/crypto/ocsp"
)

// OCSPHandler returns an HTTP handler answering every OCSP request for the
// certificate of tuple with the given status, signed by issuer.
func OCSPHandler(status int, tuple, issuer RSACertTuple, revokedAt time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		template := ocsp.Response{
			Status:       status,
			SerialNumber: tuple.Cert.SerialNumber,
			ThisUpdate:   time.Now(),
			NextUpdate:   time.Now().Add(time.Hour),
		}
		if status == ocsp.Revoked {
			template.RevokedAt = revokedAt
			template.RevocationReason = ocsp.Unspecified
		}
		response, err := ocsp.CreateResponse(issuer.Cert, issuer.Cert, template, issuer.PrivateKey)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/ocsp-response")
		w.Write(response)
	})
}

// NewCRL returns a revocation list signed by issuer that revokes the given
// serial numbers.
func NewCRL(issuer RSACertTuple, revokedSerials ...*big.Int) (*x509.RevocationList, error) {
	now := time.Now()
	template := &x509.RevocationList{
		Number:     big.NewInt(1),
		ThisUpdate: now,
		NextUpdate: now.Add(time.Hour),
	}
	for _, serial := range revokedSerials {
		template.RevokedCertificateEntries = append(template.RevokedCertificateEntries, x509.RevocationListEntry{
			SerialNumber:   serial,
			RevocationTime: now,
		})
	}
	der, err := x509.CreateRevocationList(rand.Reader, template, issuer.Cert, issuer.PrivateKey)
	if err != nil {
		return nil, err
	}
	return x509.ParseRevocationList(der)
}

// CRLHandler returns an HTTP handler serving a revocation list signed by
// issuer that revokes the given serial numbers.
func CRLHandler(issuer RSACertTuple, revokedSerials ...*big.Int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		crl, err := NewCRL(issuer, revokedSerials...)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pkix-crl")
		w.Write(crl.Raw)
	})
}
