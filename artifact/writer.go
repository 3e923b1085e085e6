package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/kbdebugger/graphsim/codec"
)

// Artifact file layout:
// [magic "GSR1"][codec name length uint8][codec name][compression frame]
// The codec name makes the file self-describing; the frame carries its own
// compression header.
var magic = []byte("GSR1")

// WriterOptions contains configuration options for the report writer.
type WriterOptions struct {
	// Codec encodes the report payload. Defaults to codec.Default.
	Codec codec.Codec

	// Compression frames the encoded payload. Defaults to none.
	Compression Compression

	// Prefix is prepended to all artifact keys.
	Prefix string
}

// Writer persists reports to a Store.
type Writer struct {
	store Store
	opts  WriterOptions
}

// NewWriter creates a report writer over the given store.
func NewWriter(store Store, optFns ...func(o *WriterOptions)) *Writer {
	opts := WriterOptions{
		Codec: codec.Default,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	return &Writer{
		store: store,
		opts:  opts,
	}
}

// Key returns the store key a report is written under.
func (w *Writer) Key(report Report) string {
	return path.Join(w.opts.Prefix, fmt.Sprintf("similarity_%s_%s.gsr",
		report.CreatedAt.Format("20060102T150405Z"), report.RunID))
}

// Write encodes, compresses, and stores the report, returning its key.
func (w *Writer) Write(ctx context.Context, report Report) (string, error) {
	payload, err := w.opts.Codec.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	framed, err := Compress(payload, w.opts.Compression)
	if err != nil {
		return "", fmt.Errorf("compress report: %w", err)
	}

	name := w.opts.Codec.Name()
	data := make([]byte, 0, len(magic)+1+len(name)+len(framed))
	data = append(data, magic...)
	data = append(data, byte(len(name)))
	data = append(data, name...)
	data = append(data, framed...)

	key := w.Key(report)
	if err := w.store.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("store report: %w", err)
	}

	return key, nil
}

// Read loads and decodes the report under key. The codec is selected from
// the file header, not from the writer configuration.
func Read(ctx context.Context, store Store, key string) (Report, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return Report{}, err
	}

	payload, name, err := unwrap(data)
	if err != nil {
		return Report{}, err
	}

	c, ok := codec.ByName(name)
	if !ok {
		return Report{}, fmt.Errorf("unknown codec %q", name)
	}

	var report Report
	if err := c.Unmarshal(payload, &report); err != nil {
		return Report{}, fmt.Errorf("unmarshal report: %w", err)
	}

	return report, nil
}

func unwrap(data []byte) (payload []byte, codecName string, err error) {
	if len(data) < len(magic)+1 {
		return nil, "", errors.New("artifact too small for header")
	}
	if string(data[:len(magic)]) != string(magic) {
		return nil, "", errors.New("bad artifact magic")
	}

	nameLen := int(data[len(magic)])
	rest := data[len(magic)+1:]
	if len(rest) < nameLen {
		return nil, "", errors.New("artifact too small for codec name")
	}

	name := string(rest[:nameLen])
	framed := rest[nameLen:]

	payload, err = Decompress(framed)
	if err != nil {
		return nil, "", err
	}

	return payload, name, nil
}
