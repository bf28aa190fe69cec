package ports

import (
	"io"

	"github.com/mrenfro/conduit/internal/core/domain"
)

// MessageCodec is the external interface contract of spec.md §4.4: writing
// an outbound request and reading a full inbound response against a raw
// byte stream. The core never parses HTTP/1.1 framing itself; it depends
// only on this contract.
type MessageCodec interface {
	// WriteRequest serializes req onto w, returning the number of bytes
	// written.
	WriteRequest(w io.Writer, req domain.Request) (int, error)

	// ReadResponse reads one full HTTP/1.1 response from r into resp,
	// returning the number of bytes consumed.
	ReadResponse(r io.Reader, resp *domain.Response) (int, error)
}
