package assets

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
)

const bundleSignature = "UnityFS"

// Bundle archive flags.
const (
	bundleCompressionMask  = 0x3F
	bundleBlocksInfoAtEnd  = 0x80
	bundleBlockInfoPadding = 0x200
)

// Block compression kinds.
const (
	compressionNone  = 0
	compressionLZMA  = 1
	compressionLZ4   = 2
	compressionLZ4HC = 3
)

// nodeFlagSerialized marks bundle entries that are serialized files.
const nodeFlagSerialized = 0x4

// BundleEntry is one file stored in a UnityFS bundle.
type BundleEntry struct {
	Path  string
	Flags uint32
	Data  []byte
}

// Serialized reports whether the entry is flagged as a serialized file.
func (e BundleEntry) Serialized() bool { return e.Flags&nodeFlagSerialized != 0 }

// IsBundle reports whether data starts with the UnityFS signature.
func IsBundle(data []byte) bool {
	return bytes.HasPrefix(data, []byte(bundleSignature+"\x00"))
}

type bundleBlock struct {
	uncompressed uint32
	compressed   uint32
	flags        uint16
}

// ReadBundle unpacks every entry of a UnityFS bundle.
func ReadBundle(data []byte) ([]BundleEntry, error) {
	r := newReader(data, binary.BigEndian)
	if sig := r.CString(); sig != bundleSignature {
		return nil, fmt.Errorf("bundle signature %q: %w", sig, ErrUnsupported)
	}
	version := r.U32()
	r.CString() // player version
	r.CString() // engine revision
	r.I64()     // total size
	compressedInfo := r.U32()
	uncompressedInfo := r.U32()
	flags := r.U32()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("bundle header: %w", err)
	}
	if version >= 7 {
		r.Align(16)
	}

	var infoBytes []byte
	if flags&bundleBlocksInfoAtEnd != 0 {
		if int(compressedInfo) > len(data) {
			return nil, errors.New("bundle block info larger than file")
		}
		infoBytes = data[len(data)-int(compressedInfo):]
	} else {
		infoBytes = r.Bytes(int(compressedInfo))
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("bundle block info: %w", err)
		}
	}
	info, err := decompress(infoBytes, int(uncompressedInfo), flags&bundleCompressionMask)
	if err != nil {
		return nil, fmt.Errorf("bundle block info: %w", err)
	}
	if flags&bundleBlockInfoPadding != 0 {
		r.Align(16)
	}

	blocks, nodes, err := parseBlocksInfo(info)
	if err != nil {
		return nil, err
	}

	var payload bytes.Buffer
	for i, b := range blocks {
		raw := r.Bytes(int(b.compressed))
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("bundle block %d: %w", i, err)
		}
		out, err := decompress(raw, int(b.uncompressed), uint32(b.flags)&bundleCompressionMask)
		if err != nil {
			return nil, fmt.Errorf("bundle block %d: %w", i, err)
		}
		payload.Write(out)
	}

	all := payload.Bytes()
	entries := make([]BundleEntry, 0, len(nodes))
	for _, n := range nodes {
		if n.offset < 0 || n.size < 0 || n.offset+n.size > int64(len(all)) {
			return nil, fmt.Errorf("bundle entry %s outside decompressed data", n.path)
		}
		entries = append(entries, BundleEntry{
			Path:  n.path,
			Flags: n.flags,
			Data:  all[n.offset : n.offset+n.size],
		})
	}
	return entries, nil
}

type bundleNode struct {
	offset int64
	size   int64
	flags  uint32
	path   string
}

func parseBlocksInfo(info []byte) ([]bundleBlock, []bundleNode, error) {
	r := newReader(info, binary.BigEndian)
	r.Skip(16) // uncompressed data hash
	blockCount := r.I32()
	if err := r.Err(); err != nil {
		return nil, nil, fmt.Errorf("bundle block table: %w", err)
	}
	if blockCount < 0 || int(blockCount)*10 > r.Remaining() {
		return nil, nil, fmt.Errorf("implausible bundle block count %d", blockCount)
	}
	blocks := make([]bundleBlock, 0, blockCount)
	for i := 0; i < int(blockCount); i++ {
		blocks = append(blocks, bundleBlock{
			uncompressed: r.U32(),
			compressed:   r.U32(),
			flags:        r.U16(),
		})
	}
	nodeCount := r.I32()
	if err := r.Err(); err != nil {
		return nil, nil, fmt.Errorf("bundle node table: %w", err)
	}
	if nodeCount < 0 || int(nodeCount)*21 > r.Remaining() {
		return nil, nil, fmt.Errorf("implausible bundle node count %d", nodeCount)
	}
	nodes := make([]bundleNode, 0, nodeCount)
	for i := 0; i < int(nodeCount); i++ {
		nodes = append(nodes, bundleNode{
			offset: r.I64(),
			size:   r.I64(),
			flags:  r.U32(),
			path:   r.CString(),
		})
	}
	if err := r.Err(); err != nil {
		return nil, nil, fmt.Errorf("bundle node table: %w", err)
	}
	return blocks, nodes, nil
}

func decompress(src []byte, size int, kind uint32) ([]byte, error) {
	switch kind {
	case compressionNone:
		if len(src) != size {
			return nil, fmt.Errorf("stored block is %d bytes, expected %d", len(src), size)
		}
		return src, nil
	case compressionLZ4, compressionLZ4HC:
		dst := make([]byte, size)
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		if n != size {
			return nil, fmt.Errorf("lz4 produced %d bytes, expected %d", n, size)
		}
		return dst, nil
	case compressionLZMA:
		return nil, fmt.Errorf("lzma blocks: %w", ErrUnsupported)
	default:
		return nil, fmt.Errorf("compression type %d: %w", kind, ErrUnsupported)
	}
}
