// Package retrieve implements the top-level read path (spec §2): an
// identifier string comes in, is classified, and the file behind it is
// reconstructed into the caller's sink — recursing through directory
// indexes when the identifier carries a path.
package retrieve

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/kentjhall/cashweb-sub000/internal/logger"
	"github.com/kentjhall/cashweb-sub000/pkg/chain"
	"github.com/kentjhall/cashweb-sub000/pkg/dirindex"
	"github.com/kentjhall/cashweb-sub000/pkg/fetch"
	"github.com/kentjhall/cashweb-sub000/pkg/identifier"
	"github.com/kentjhall/cashweb-sub000/pkg/metadata"
	"github.com/kentjhall/cashweb-sub000/pkg/nametag"
	"github.com/kentjhall/cashweb-sub000/pkg/script"
	"github.com/kentjhall/cashweb-sub000/pkg/status"
)

// maxAliasHops bounds how many same-index "." aliases a single lookup may
// chase before the chain is declared circular.
const maxAliasHops = 16

// Client drives retrievals against one fetch adapter. Callers running many
// retrievals in parallel give each its own Client (spec §5: no shared
// mutable state between concurrent retrievals).
type Client struct {
	adapter  fetch.Adapter
	resolver *nametag.Resolver
}

// New returns a Client backed by adapter, with batch metrics recorded when
// pkg/metrics is enabled.
func New(adapter fetch.Adapter) *Client {
	instrumented := fetch.WithMetrics(adapter)
	return &Client{adapter: instrumented, resolver: nametag.New(instrumented)}
}

// Get writes the bytes identified by rawID — a txid, nametag-id, or
// path-id — to sink.
func (c *Client) Get(ctx context.Context, rawID string, sink io.Writer) error {
	id := identifier.Classify(rawID)
	switch id.Kind {
	case identifier.Txid:
		_, err := chain.Walk(ctx, c.adapter, id.Txid, sink)
		return err
	case identifier.Nametag:
		return c.resolver.Resolve(ctx, id.Name, id.Revision, sink)
	case identifier.Path:
		return c.getPath(ctx, id, sink)
	default:
		return status.Newf(status.BadCall, "not a recognized identifier: %q", rawID)
	}
}

// Describe reports the names and txids a nametag's script would use,
// without downloading any referenced content (spec §4.G: "info-only mode").
func (c *Client) Describe(ctx context.Context, name string, revision int) (*script.Info, error) {
	return c.resolver.Info(ctx, name, revision)
}

// getPath resolves a path identifier: the inner identifier must name a
// directory index, whose entries steer the remaining path — possibly into
// another identifier carrying its own sub-path, which re-enters Get.
func (c *Client) getPath(ctx context.Context, id identifier.Identifier, sink io.Writer) error {
	var index bytes.Buffer
	inner := identifier.Classify(id.Inner)
	switch inner.Kind {
	case identifier.Txid:
		meta, err := chain.Walk(ctx, c.adapter, inner.Txid, &index)
		if err != nil {
			return err
		}
		if meta.Type != metadata.TypeDirectory {
			return status.New(status.NotADir, "path lookup into a file that is not a directory index").WithIdentifier(id.Inner)
		}
	case identifier.Nametag:
		// A nametag's resolved output carries no trailer to check a type
		// against; the index parse below is what rejects non-directories.
		if err := c.resolver.Resolve(ctx, inner.Name, inner.Revision, &index); err != nil {
			return err
		}
	default:
		return status.Newf(status.BadCall, "path identifier has an invalid inner id: %q", id.Inner)
	}

	return c.lookup(ctx, index.Bytes(), "/"+id.SubPath, sink)
}

// lookup walks one directory index, chasing same-index "." aliases in
// place and re-entering Get for anything that resolves outside it.
func (c *Client) lookup(ctx context.Context, raw []byte, path string, sink io.Writer) error {
	for hop := 0; hop < maxAliasHops; hop++ {
		sub, target, hasSub, err := dirindex.Lookup(raw, path)
		if err != nil {
			return err
		}

		if strings.HasPrefix(target, dirindex.SelfReference) {
			path = target[len(dirindex.SelfReference):]
			if hasSub {
				path = joinIndexPath(path, sub)
			}
			logger.DebugCtx(ctx, "directory index self-reference", logger.Path(path))
			continue
		}

		next := target
		if hasSub {
			next = target + "/" + sub
		}
		return c.Get(ctx, next, sink)
	}
	return status.New(status.CircularRef, "directory index alias chain never leaves the index")
}

// joinIndexPath appends a remaining sub-path to an alias target, which may
// or may not already end in the "/" that made it a prefix entry.
func joinIndexPath(base, sub string) string {
	if strings.HasSuffix(base, "/") {
		return base + sub
	}
	return base + "/" + sub
}
