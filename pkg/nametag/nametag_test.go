package nametag_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kentjhall/cashweb-sub000/pkg/fetch/memadapter"
	"github.com/kentjhall/cashweb-sub000/pkg/metadata"
	"github.com/kentjhall/cashweb-sub000/pkg/nametag"
	"github.com/kentjhall/cashweb-sub000/pkg/script"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

func flatFilePayload(t *testing.T, content []byte) string {
	t.Helper()
	meta := metadata.Metadata{Protocol: wire.ProtocolV0.Version}
	return wire.BytesToHex(metadata.WriteTrailer(meta, content))
}

func pushStr(s string) []byte {
	return append([]byte{byte(len(s))}, []byte(s)...)
}

func TestResolver_Resolve_RunsOriginScript(t *testing.T) {
	t.Parallel()

	a := memadapter.New()
	a.PutPayload("target", flatFilePayload(t, []byte("target content")))

	origin := append(pushStr("target"), byte(script.OpWriteFromTxid), byte(script.OpTerm))
	a.PutPayload("origin", flatFilePayload(t, origin))
	a.Claim("alice", "origin")

	r := nametag.New(a)
	var out bytes.Buffer
	err := r.Resolve(context.Background(), "alice", nametag.LatestRevision, &out)
	require.NoError(t, err)
	assert.Equal(t, "target content", out.String())
}

func TestResolver_Resolve_SkipsUnparsableClaims(t *testing.T) {
	t.Parallel()

	a := memadapter.New()
	a.Claim("alice", "bad") // bad's payload never registered -> fetch fails -> skip

	a.PutPayload("target", flatFilePayload(t, []byte("good content")))
	good := append(pushStr("target"), byte(script.OpWriteFromTxid), byte(script.OpTerm))
	a.PutPayload("good", flatFilePayload(t, good))
	a.Claim("alice", "good")

	r := nametag.New(a)
	var out bytes.Buffer
	err := r.Resolve(context.Background(), "alice", nametag.LatestRevision, &out)
	require.NoError(t, err)
	assert.Equal(t, "good content", out.String())
}

func TestResolver_Resolve_FollowsNextRevision(t *testing.T) {
	t.Parallel()

	a := memadapter.New()
	a.PutPayload("v1target", flatFilePayload(t, []byte("v1")))
	v0 := []byte{byte(script.OpNextRev)}
	a.PutPayload("origin", flatFilePayload(t, v0))
	a.Claim("alice", "origin")

	v1 := append(pushStr("v1target"), byte(script.OpWriteFromTxid), byte(script.OpTerm))
	a.PutPayload("rev1", flatFilePayload(t, v1))
	a.LinkRevision("origin", "rev1")

	r := nametag.New(a)
	var out bytes.Buffer
	err := r.Resolve(context.Background(), "alice", nametag.LatestRevision, &out)
	require.NoError(t, err)
	assert.Equal(t, "v1", out.String())
}
