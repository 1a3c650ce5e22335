package stream

import (
	"io"
)

// Mirror is the run body as seen by the decoder. Every byte the decoder
// reads is also written to a pipe drained by a second consumer, which gets
// EOF (or the read error) once the decoder is done with the body.
type Mirror struct {
	src  io.Reader
	body io.ReadCloser
	pw   *io.PipeWriter
}

// NewMirror wraps body. The returned pipe reader must be drained until EOF,
// otherwise reads from the Mirror block.
func NewMirror(body io.ReadCloser) (*Mirror, *io.PipeReader) {
	pr, pw := io.Pipe()
	return &Mirror{
		src:  io.TeeReader(body, pw),
		body: body,
		pw:   pw,
	}, pr
}

func (m *Mirror) Read(p []byte) (int, error) {
	n, err := m.src.Read(p)
	if err != nil {
		m.pw.CloseWithError(err)
	}
	return n, err
}

// Close ends the mirrored copy and closes the underlying body.
func (m *Mirror) Close() error {
	m.pw.Close()
	return m.body.Close()
}
