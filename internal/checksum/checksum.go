// Package checksum derives content identity tokens for snapshot file nodes.
//
// A token is a CIDv1 (raw codec, SHA2-256 multihash) rendered with multibase
// base32, so it is self-describing and stable across platforms.
package checksum

import (
	"bytes"
	"fmt"
	"io"

	gocid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

// ContentID streams r and returns its content identity token.
func ContentID(r io.Reader) (string, error) {
	mh, err := multihash.SumStream(r, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("checksum: multihash: %w", err)
	}
	return encode(gocid.NewCidV1(gocid.Raw, mh))
}

// Sum returns the content identity token of data.
func Sum(data []byte) string {
	id, err := ContentID(bytes.NewReader(data))
	if err != nil {
		// SHA2-256 over an in-memory reader cannot fail.
		panic(err)
	}
	return id
}

// Valid reports whether id is a well-formed content identity token.
func Valid(id string) bool {
	enc, raw, err := multibase.Decode(id)
	if err != nil || enc != multibase.Base32 {
		return false
	}
	c, err := gocid.Cast(raw)
	if err != nil {
		return false
	}
	return c.Prefix().Codec == gocid.Raw && c.Prefix().MhType == multihash.SHA2_256
}

func encode(c gocid.Cid) (string, error) {
	s, err := multibase.Encode(multibase.Base32, c.Bytes())
	if err != nil {
		return "", fmt.Errorf("checksum: multibase: %w", err)
	}
	return s, nil
}
