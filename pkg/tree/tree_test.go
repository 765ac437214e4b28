package tree_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kentjhall/cashweb-sub000/pkg/fetch/memadapter"
	"github.com/kentjhall/cashweb-sub000/pkg/status"
	"github.com/kentjhall/cashweb-sub000/pkg/tree"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

func TestTraverse_DepthZero_WritesRootPayloadVerbatim(t *testing.T) {
	t.Parallel()

	a := memadapter.New()
	var out bytes.Buffer

	err := tree.Traverse(context.Background(), a, []byte("leaf payload"), 0, &out)
	require.NoError(t, err)
	assert.Equal(t, "leaf payload", out.String())
}

func TestTraverse_DepthOne_FiveLeavesConcatenatedInOrder(t *testing.T) {
	t.Parallel()

	a := memadapter.New()
	leaves := []string{"aaaa", "bbbb", "cccc", "dddd", "eeee"}
	var root []byte
	for i, leaf := range leaves {
		txid := bytes.Repeat([]byte{byte(i + 1)}, wire.TxidBytes)
		a.PutPayload(wire.BytesToHex(txid), wire.BytesToHex([]byte(leaf)))
		root = append(root, txid...)
	}

	var out bytes.Buffer
	err := tree.Traverse(context.Background(), a, root, 1, &out)
	require.NoError(t, err)
	assert.Equal(t, "aaaabbbbccccddddeeee", out.String())
}

func TestTraverse_DepthTwo_NestedLevels(t *testing.T) {
	t.Parallel()

	a := memadapter.New()

	leafTxid := bytes.Repeat([]byte{0x01}, wire.TxidBytes)
	a.PutPayload(wire.BytesToHex(leafTxid), wire.BytesToHex([]byte("inner")))

	midTxid := bytes.Repeat([]byte{0x02}, wire.TxidBytes)
	a.PutPayload(wire.BytesToHex(midTxid), wire.BytesToHex(leafTxid))

	var out bytes.Buffer
	err := tree.Traverse(context.Background(), a, midTxid, 2, &out)
	require.NoError(t, err)
	assert.Equal(t, "inner", out.String())
}

func TestTraverse_MalformedNodePayload_FileStructure(t *testing.T) {
	t.Parallel()

	a := memadapter.New()
	var out bytes.Buffer

	err := tree.Traverse(context.Background(), a, []byte{0x01, 0x02, 0x03}, 1, &out)
	require.Error(t, err)
	assert.Equal(t, status.FileStructure, status.CodeOf(err))
}

func TestTraverse_MissingChild_FileDepth(t *testing.T) {
	t.Parallel()

	a := memadapter.New()
	missing := bytes.Repeat([]byte{0x09}, wire.TxidBytes)

	var out bytes.Buffer
	err := tree.Traverse(context.Background(), a, missing, 1, &out)
	require.Error(t, err)
	assert.Equal(t, status.FileDepth, status.CodeOf(err))
}
