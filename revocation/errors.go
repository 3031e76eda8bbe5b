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

import "fmt"

// RevokedError is returned when a certificate in the chain is revoked.
type RevokedError struct {
	// Subject is the subject of the revoked certificate.
	Subject string

	// Server is the CRL or OCSP server that reported the revocation, empty
	// for revocation data supplied out of band.
	Server string
}

// Error returns the error message.
func (e RevokedError) Error() string {
	if e.Server != "" {
		return fmt.Sprintf("certificate with subject %q is revoked according to %s", e.Subject, e.Server)
	}
	return fmt.Sprintf("certificate with subject %q is revoked", e.Subject)
}

// UnknownStatusError is returned when the revocation status of a certificate
// cannot be determined.
type UnknownStatusError struct {
	// Subject is the subject of the certificate with unknown status.
	Subject string

	// Detail is the underlying error, if any.
	Detail error
}

// Error returns the error message.
func (e UnknownStatusError) Error() string {
	msg := fmt.Sprintf("revocation status of certificate with subject %q is unknown", e.Subject)
	if e.Detail != nil {
		msg += ": " + e.Detail.Error()
	}
	return msg
}

// Unwrap returns the internal error.
func (e UnknownStatusError) Unwrap() error {
	return e.Detail
}
