package identifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Txid(t *testing.T) {
	t.Parallel()

	txid := strings.Repeat("ab", 32)
	id := Classify(txid)
	assert.Equal(t, Txid, id.Kind)
	assert.Equal(t, txid, id.Txid)
}

func TestClassify_TxidUppercaseLowercased(t *testing.T) {
	t.Parallel()

	txid := strings.Repeat("AB", 32)
	id := Classify(txid)
	assert.Equal(t, Txid, id.Kind)
	assert.Equal(t, strings.ToLower(txid), id.Txid)
}

func TestClassify_NametagNoRevision(t *testing.T) {
	t.Parallel()

	id := Classify("~alice")
	assert.Equal(t, Nametag, id.Kind)
	assert.Equal(t, LatestRevision, id.Revision)
	assert.Equal(t, "alice", id.Name)
}

func TestClassify_NametagWithRevision(t *testing.T) {
	t.Parallel()

	id := Classify("3~alice")
	assert.Equal(t, Nametag, id.Kind)
	assert.Equal(t, 3, id.Revision)
	assert.Equal(t, "alice", id.Name)
}

func TestClassify_PathOverTxid(t *testing.T) {
	t.Parallel()

	txid := strings.Repeat("cd", 32)
	id := Classify(txid + "/dir/inner.html")
	assert.Equal(t, Path, id.Kind)
	assert.Equal(t, txid, id.Inner)
	assert.Equal(t, "dir/inner.html", id.SubPath)
}

func TestClassify_PathOverNametag(t *testing.T) {
	t.Parallel()

	id := Classify("~alice/dir/inner.html")
	assert.Equal(t, Path, id.Kind)
	assert.Equal(t, "~alice", id.Inner)
	assert.Equal(t, "dir/inner.html", id.SubPath)
}

func TestClassify_PathOverRevisionedNametag(t *testing.T) {
	t.Parallel()

	id := Classify("2~alice/dir/inner.html")
	assert.Equal(t, Path, id.Kind)
	assert.Equal(t, "2~alice", id.Inner)
	assert.Equal(t, "dir/inner.html", id.SubPath)
}

func TestClassify_Invalid(t *testing.T) {
	t.Parallel()

	cases := []string{"", "nothex", strings.Repeat("zz", 32), "~"}
	for _, c := range cases {
		assert.Equal(t, Invalid, Classify(c).Kind, "input %q", c)
	}
}

func TestClassify_NameTooLong(t *testing.T) {
	t.Parallel()

	id := Classify("~" + strings.Repeat("x", MaxNameLength+1))
	assert.Equal(t, Invalid, id.Kind)
}

func TestString_RoundTrip(t *testing.T) {
	t.Parallel()

	txid := strings.Repeat("11", 32)
	cases := []string{txid, "~alice", "3~alice"}
	for _, c := range cases {
		id := Classify(c)
		assert.Equal(t, c, id.String())
	}
}
