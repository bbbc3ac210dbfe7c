package progrock

import (
	"io"

	"github.com/vito/progrock"
)

// Vertex implements ports.Vertex wrapping *progrock.VertexRecorder.
type Vertex struct {
	vertex  *progrock.VertexRecorder
	console io.Writer
}

// Stdout returns a writer for progress output. Output is mirrored to the console
// when the recorder has one.
func (v *Vertex) Stdout() io.Writer {
	if v.console == nil {
		return v.vertex.Stdout()
	}
	return io.MultiWriter(v.vertex.Stdout(), v.console)
}

// Complete marks the vertex as finished.
func (v *Vertex) Complete(err error) {
	v.vertex.Done(err)
}
