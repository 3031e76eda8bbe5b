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
	"bufio"
	"bytes"
	"io"
	"mime"
	"net/textproto"
)

// textBody checks that the content is a text/plain MIME entity and returns
// the body with the header block stripped. The signature still covers the
// full content including the headers.
//
// References: RFC 8551 3.1 Preparing the MIME Entity for Signing
func textBody(content []byte) ([]byte, error) {
	reader := bufio.NewReader(bytes.NewReader(content))
	header, err := textproto.NewReader(reader).ReadMIMEHeader()
	if err != nil {
		return nil, &VerificationError{Kind: KindUnexpectedContentType, Signer: -1, Message: "content has no MIME header", Detail: err}
	}
	contentType := header.Get("Content-Type")
	if contentType == "" {
		return nil, &VerificationError{Kind: KindUnexpectedContentType, Signer: -1, Message: "content has no MIME content type"}
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, &VerificationError{Kind: KindUnexpectedContentType, Signer: -1, Message: "invalid MIME content type", Detail: err}
	}
	if mediaType != "text/plain" {
		return nil, &VerificationError{Kind: KindUnexpectedContentType, Signer: -1, Message: "content type is " + mediaType + ", expected text/plain"}
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &VerificationError{Kind: KindUnexpectedContentType, Signer: -1, Message: "failed to read MIME body", Detail: err}
	}
	return body, nil
}
