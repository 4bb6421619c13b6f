package export

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// NewCharsetWriter wraps w so that UTF-8 input comes out in the requested
// charset. The returned writer must be closed to flush the transformer.
func NewCharsetWriter(w io.Writer, charset string) (io.WriteCloser, error) {
	switch charset {
	case "", "utf-8", "utf8":
		return nopCloser{w}, nil
	case "latin1", "iso-8859-1":
		return transform.NewWriter(w, charmap.ISO8859_1.NewEncoder()), nil
	default:
		return nil, fmt.Errorf("unsupported output charset %q", charset)
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
