// Package archive reads and writes .stz files: a dashboard view frozen to
// disk as an lz4 block with a small header, so a session can be reviewed
// offline later.
package archive

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lotas/stimmung/internal/types"
	"github.com/pierrec/lz4/v4"
)

// Header: 8-byte magic + 4-byte LE uint32 uncompressed size + lz4 block data.
var magic = []byte("stmLz41\x00")

const headerSize = 12

// Document is the serialized form of one dashboard view.
type Document struct {
	SavedAt     time.Time          `json:"saved_at"`
	Backend     string             `json:"backend"`
	Metrics     types.Metrics      `json:"metrics"`
	TopEmotions map[string]int     `json:"top_emotions,omitempty"`
	Trend       []types.TrendPoint `json:"trend,omitempty"`
	Posts       []types.Post       `json:"posts,omitempty"`
}

// Encode serializes the document and compresses it into the archive format.
func Encode(doc *Document) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("archive: marshal document: %w", err)
	}

	dst := make([]byte, lz4.CompressBlockBound(len(raw)))
	var c lz4.Compressor
	n, err := c.CompressBlock(raw, dst)
	if err != nil {
		return nil, fmt.Errorf("archive: compress: %w", err)
	}

	out := make([]byte, 0, headerSize+n)
	out = append(out, magic...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(raw)))
	out = append(out, dst[:n]...)
	return out, nil
}

// Decode decompresses and parses archive data.
func Decode(data []byte) (*Document, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("archive: data too short (%d bytes)", len(data))
	}
	for i := range magic {
		if data[i] != magic[i] {
			return nil, fmt.Errorf("archive: invalid header magic")
		}
	}

	uncompressedSize := binary.LittleEndian.Uint32(data[8:headerSize])
	raw := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(data[headerSize:], raw)
	if err != nil {
		return nil, fmt.Errorf("archive: decompress failed: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw[:n], &doc); err != nil {
		return nil, fmt.Errorf("archive: parse document: %w", err)
	}
	return &doc, nil
}

// WriteFile encodes the document and writes it to path.
func WriteFile(path string, doc *Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("archive: write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads and decodes the archive at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("archive: read %s: %w", path, err)
	}
	return Decode(data)
}
