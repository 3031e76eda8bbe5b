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
	"encoding/asn1"

	"github.com/notaryproject/tspclient-go"

	"github.com/cmsproject/cms-core-go/internal/oid"
)

// verifyTimestampToken verifies the timestamp countersignature of one
// signer, if it carries one. The timestamp message imprint must match the
// signature value, and the timestamping authority must chain to the
// configured timestamp roots.
//
// References: RFC 3161 APPENDIX A Signature Timestamp Attribute
func verifyTimestampToken(ctx context.Context, si *SignerInfo, opts VerifyOptions, index int) error {
	var tokenValue asn1.RawValue
	switch err := si.UnsignedAttributes.TryGet(oid.TimeStampToken, &tokenValue); err {
	case nil:
	case ErrAttributeNotFound:
		return nil
	default:
		return &VerificationError{Kind: KindTimestampInvalid, Signer: index, Message: "invalid timestamp token attribute", Detail: err}
	}

	token, err := tspclient.ParseSignedToken(tokenValue.FullBytes)
	if err != nil {
		return &VerificationError{Kind: KindTimestampInvalid, Signer: index, Message: "invalid timestamp token", Detail: err}
	}
	info, err := token.Info()
	if err != nil {
		return &VerificationError{Kind: KindTimestampInvalid, Signer: index, Message: "invalid timestamp token info", Detail: err}
	}
	timestamp, err := info.Validate(si.Signature)
	if err != nil {
		return &VerificationError{Kind: KindTimestampInvalid, Signer: index, Message: "timestamp does not cover the signature", Detail: err}
	}

	roots := opts.TimestampRoots
	if roots == nil {
		roots = opts.Roots
	}
	if _, err := token.Verify(ctx, x509.VerifyOptions{
		Roots:       roots,
		CurrentTime: timestamp.Value,
	}); err != nil {
		return &VerificationError{Kind: KindTimestampInvalid, Signer: index, Message: "timestamp token verification failed", Detail: err}
	}
	return nil
}
