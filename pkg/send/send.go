package send

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/kentjhall/cashweb-sub000/internal/logger"
	"github.com/kentjhall/cashweb-sub000/pkg/metadata"
	"github.com/kentjhall/cashweb-sub000/pkg/metrics"
	"github.com/kentjhall/cashweb-sub000/pkg/recovery"
	"github.com/kentjhall/cashweb-sub000/pkg/revisionlock"
	"github.com/kentjhall/cashweb-sub000/pkg/status"
	"github.com/kentjhall/cashweb-sub000/pkg/wire"
)

// Max0confChainDefault is the network policy §4.J calls out by example:
// "e.g. 25" unconfirmed ancestors before a chain of single-input
// transactions risks violating the mempool policy limit.
const Max0confChainDefault = 25

// Options configures one Pipeline.Send call (spec §4.J, §6: "Send adapter").
type Options struct {
	// Protocol selects the wire sizing (TX_DATA_BYTES) to encode with.
	// Defaults to wire.Newest() if the zero value is passed.
	Protocol wire.Protocol
	// MaxTreeDepth is the uniform tree depth under each chain element.
	MaxTreeDepth uint32
	// Type is the file's declared metadata type (spec §3).
	Type metadata.Type
	// Max0confChain is the unconfirmed-ancestor-chain policy limit that
	// triggers UTXO distribution before the heavy path (spec §4.J).
	// Defaults to Max0confChainDefault.
	Max0confChain int
	// RetryInterval overrides the backoff used by the unbounded branches of
	// the retry table (spec §4.J). Defaults to defaultRetryInterval.
	RetryInterval time.Duration

	// ForceInput pins a specific UTXO as the root transaction's input,
	// used by nametag revision sends to consume the previous revision's
	// designated output (spec §4.J: "Forced input/output"). Its Amount
	// must be accurate — unlike pool-selected UTXOs, a forced input is not
	// independently verified against the signer's utxo set.
	ForceInput *UTXO
	// ForceOutputAddress pins a specific destination address for the root
	// transaction's primary output, used on nametag ownership transfer.
	ForceOutputAddress string
	// ForceTinyChange appends a TinyChangeAmount output to the root
	// transaction so a future nametag revision has something to spend.
	ForceTinyChange bool

	// Resume re-enters the encoding algorithm at a previously saved
	// recovery.Stream instead of starting from scratch (spec §4.J:
	// "Recovery stream").
	Resume *recovery.Stream
	// RecoveryDir, when set, makes SendResumable self-persisting: a fatal
	// failure writes its checkpoint to this directory via
	// recovery.SaveToFile (instead of leaving only the in-memory Stream for
	// the caller to handle), so a later call can resume with Resume left
	// nil and this same RecoveryDir set.
	RecoveryDir string

	// RevisionLocks, when set together with NametagName, ties this send to
	// a nametag revision: every entry in the store is asserted locked on
	// the signer's side before the send starts (spec §4.K: "On every send
	// that starts, the file is loaded and every entry is asserted locked
	// on the signer's side"), and on success NametagName's lock is moved
	// to the new root transaction's RevisionVout output.
	RevisionLocks *revisionlock.Store
	NametagName   string
}

// Result is the outcome of a send: the file's identifier plus the shape of
// the transactions it took to encode it.
type Result struct {
	// RootTxid is the file's identifier: the txid of the first chain
	// element (the one a reader starts from).
	RootTxid string
	// TxCount is the total number of transactions submitted (or, in
	// counting-only mode, that would have been submitted).
	TxCount int
	// CostEstimate is the total fee, in satoshis, paid (or estimated).
	CostEstimate int64
}

// Pipeline drives the encoding algorithm against a Signer (spec §4.J).
type Pipeline struct {
	Signer Signer

	fetchMetrics metrics.FetchMetrics
	sendMetrics  metrics.SendMetrics
}

// New returns a Pipeline backed by signer, wiring in whatever metrics
// implementation pkg/metrics currently has registered (nil-safe either way).
func New(signer Signer) *Pipeline {
	return &Pipeline{
		Signer:       signer,
		fetchMetrics: metrics.NewFetchMetrics(),
		sendMetrics:  metrics.NewSendMetrics(),
	}
}

// Send encodes r's bytes into a chain of transactions and submits them
// through p.Signer (spec §4.J's "Encoding algorithm"). Callers needing
// resumability after a mid-send failure should use SendResumable.
func (p *Pipeline) Send(ctx context.Context, r io.Reader, opts Options) (Result, error) {
	res, _, err := p.send(ctx, r, opts)
	return res, err
}

// SendResumable behaves like Send but, on a fatal (non-resolution) failure
// partway through, also returns a *recovery.Stream checkpoint the caller
// can persist and later resume via Options.Resume (spec §4.J: "Recovery
// stream").
func (p *Pipeline) SendResumable(ctx context.Context, r io.Reader, opts Options) (Result, *recovery.Stream, error) {
	if opts.Resume == nil && opts.RecoveryDir != "" {
		if loaded, lerr := recovery.LoadFromFile(checkpointPath(opts.RecoveryDir)); lerr == nil {
			opts.Resume = &loaded
		}
	}

	res, stream, err := p.send(ctx, r, opts)
	if stream != nil && opts.RecoveryDir != "" {
		if _, serr := recovery.SaveToFile(opts.RecoveryDir, *stream); serr != nil {
			logger.Errorf("send: failed to persist recovery checkpoint to %s: %v", opts.RecoveryDir, serr)
		}
	}
	return res, stream, err
}

func checkpointPath(dir string) string {
	return filepath.Join(dir, "recovery.checkpoint")
}

func (p *Pipeline) send(ctx context.Context, r io.Reader, opts Options) (Result, *recovery.Stream, error) {
	start := time.Now()
	opts = applyDefaults(opts)

	// Chain elements are broadcast tail-first: an element must exist before
	// its predecessor can embed its txid. A checkpoint therefore records how
	// many elements already made it out and the txid the resumed portion
	// must link to, alongside the untransmitted head of the file.
	resumeSent := 0
	resumeLink := ""

	var data []byte
	if opts.Resume != nil {
		sent, link, body, derr := decodeCheckpointBody(opts.Resume.Body)
		if derr != nil {
			return Result{}, nil, derr
		}
		resumeSent, resumeLink = int(sent), link
		data = body
		opts.MaxTreeDepth = opts.Resume.SavedTreeDepth
		opts.Type = metadata.Type(opts.Resume.Type)
		rest, rerr := io.ReadAll(r)
		if rerr != nil {
			return Result{}, nil, status.Newf(status.SysError, "send: reading resumed stream: %v", rerr)
		}
		data = append(data, rest...)
	} else {
		var err error
		data, err = io.ReadAll(r)
		if err != nil {
			return Result{}, nil, status.Newf(status.SysError, "send: reading input stream: %v", err)
		}
	}

	if opts.RevisionLocks != nil {
		locks, lerr := opts.RevisionLocks.Load()
		if lerr != nil {
			return Result{}, nil, lerr
		}
		reserved := make([]UTXO, 0, len(locks))
		for _, l := range locks {
			reserved = append(reserved, UTXO{Txid: l.Txid, Vout: l.Vout})
		}
		if len(reserved) > 0 {
			if lerr := p.Signer.LockUnspent(ctx, reserved); lerr != nil {
				return Result{}, nil, status.Newf(status.RpcError, "lock_unspent failed while asserting revision locks: %v", lerr)
			}
		}
	}

	pool, err := refreshUnspent(ctx, p.Signer, false)
	if err != nil {
		return Result{}, nil, err
	}
	satPerByte, err := p.Signer.EstimateFee(ctx)
	if err != nil {
		return Result{}, nil, status.Newf(status.RpcError, "estimate_fee failed: %v", err)
	}

	caps := segmentCapacities(opts.Protocol, opts.MaxTreeDepth)
	segments := chunkSegments(data, caps, resumeLink != "")

	estimatedTxCount := estimateTxCount(segments, opts.Protocol, opts.MaxTreeDepth)
	if estimatedTxCount > opts.Max0confChain {
		if derr := p.distribute(ctx, pool, &satPerByte, estimatedTxCount); derr != nil {
			return Result{}, nil, derr
		}
	}

	st := &sendState{
		pipeline:      p,
		pool:          pool,
		satPerByte:    &satPerByte,
		protocol:      opts.Protocol,
		retryInterval: opts.RetryInterval,
	}

	// nextTxid is the id the element being built must suffix with: the
	// previously submitted element's, or the resume link, or empty for the
	// chain's true tail.
	nextTxid := resumeLink
	for i := len(segments) - 1; i >= 0; i-- {
		isFirst := i == 0

		rootPayload, berr := st.buildSegment(ctx, segments[i], opts.MaxTreeDepth)
		if berr != nil {
			return Result{}, p.checkpoint(opts, segments, i, nextTxid, resumeSent), berr
		}

		payload := append([]byte(nil), rootPayload...)
		if nextTxid != "" {
			suffix, serr := wire.HexToBytes(nextTxid)
			if serr != nil {
				return Result{}, nil, status.Newf(status.SysError, "send: signer returned a non-hex txid %q", nextTxid)
			}
			payload = append(payload, suffix...)
		}
		if isFirst {
			payload = metadata.WriteTrailer(metadata.Metadata{
				Length:   uint32(len(segments) - 1 + resumeSent),
				Depth:    opts.MaxTreeDepth,
				Type:     opts.Type,
				Protocol: opts.Protocol.Version,
			}, payload)
		}

		var forcedIn *UTXO
		var extra []Output
		destAddr := ""
		if isFirst {
			forcedIn = opts.ForceInput
			destAddr = opts.ForceOutputAddress
			if opts.ForceTinyChange {
				extra = append(extra, Output{Amount: TinyChangeAmount})
			}
		}

		txid, ferr := st.submitRootTx(ctx, payload, forcedIn, destAddr, extra)
		if ferr != nil {
			return Result{}, p.checkpoint(opts, segments, i, nextTxid, resumeSent), ferr
		}
		metrics.ObserveTransaction(p.sendMetrics, elementKind(isFirst), len(payload))

		nextTxid = txid
		if isFirst {
			result := Result{RootTxid: txid, TxCount: st.txCount, CostEstimate: st.totalFee}
			if opts.RevisionLocks != nil && opts.NametagName != "" {
				lockErr := opts.RevisionLocks.SetLock(opts.NametagName, revisionlock.Lock{Txid: txid, Vout: revisionlock.RevisionVout})
				if lockErr != nil {
					return result, nil, lockErr
				}
			}
			metrics.ObserveSend(p.sendMetrics, result.TxCount, result.CostEstimate, time.Since(start))
			logger.InfoCtx(ctx, "send complete",
				logger.Identifier(result.RootTxid), logger.TxCount(result.TxCount), logger.FeeRate(result.CostEstimate))
			return result, nil, nil
		}
	}
	// unreachable: segments always has at least one element
	return Result{}, nil, status.New(status.BadCall, "send: no segments produced")
}

func elementKind(isFirst bool) string {
	if isFirst {
		return "root"
	}
	return "chain"
}

// checkpoint builds a recovery.Stream capturing everything still unsent
// after a fatal failure at segment index: the untransmitted head of the
// file, plus the count of elements already broadcast and the link txid the
// resumed portion must chain to (spec §4.L: the body "is opaque to the
// store; only the pipeline interprets it").
func (p *Pipeline) checkpoint(opts Options, segments [][]byte, index int, link string, resumeSent int) *recovery.Stream {
	var unsent bytes.Buffer
	for _, seg := range segments[:index+1] {
		unsent.Write(seg)
	}
	sent := uint32(resumeSent + len(segments) - 1 - index)
	return &recovery.Stream{
		Type:           uint16(opts.Type),
		MaxTreeDepth:   opts.MaxTreeDepth,
		SavedTreeDepth: opts.MaxTreeDepth,
		Body:           encodeCheckpointBody(sent, link, unsent.Bytes()),
	}
}

// encodeCheckpointBody lays out a checkpoint's opaque body: a 4-byte
// big-endian count of chain elements already broadcast, the link txid (raw
// bytes, present only when the count is non-zero), then the untransmitted
// data.
func encodeCheckpointBody(sent uint32, link string, data []byte) []byte {
	body := make([]byte, 4, 4+wire.TxidBytes+len(data))
	wire.PutUint32(body, sent)
	if sent > 0 {
		raw, err := wire.HexToBytes(link)
		if err != nil || len(raw) != wire.TxidBytes {
			// A sent count without a usable link cannot be resumed into a
			// valid chain; degrade to a from-scratch checkpoint.
			wire.PutUint32(body, 0)
			return append(body, data...)
		}
		body = append(body, raw...)
	}
	return append(body, data...)
}

func decodeCheckpointBody(body []byte) (sent uint32, link string, data []byte, err error) {
	if len(body) < 4 {
		return 0, "", nil, status.New(status.FileStructure, "recovery checkpoint body shorter than its header")
	}
	sent = wire.Uint32(body)
	rest := body[4:]
	if sent > 0 {
		if len(rest) < wire.TxidBytes {
			return 0, "", nil, status.New(status.FileStructure, "recovery checkpoint body missing its link txid")
		}
		link = wire.BytesToHex(rest[:wire.TxidBytes])
		rest = rest[wire.TxidBytes:]
	}
	return sent, link, rest, nil
}

func applyDefaults(opts Options) Options {
	if opts.Protocol.TxDataBytes == 0 {
		opts.Protocol = wire.Newest()
	}
	if opts.Max0confChain == 0 {
		opts.Max0confChain = Max0confChainDefault
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	return opts
}

// segmentCaps holds the raw-byte capacity of a chain element's full-depth
// subtree, by the element's position in the chain. The root (broadcast
// last, fetched first) gives up trailer room, and also chain-link room
// when more elements follow; interior elements give up chain-link room
// only; the tail element's payload is all content (spec §4.F's
// suffix-length table: METADATA_CHARS+TXID_CHARS / TXID_CHARS / 0).
type segmentCaps struct {
	rootSingle  int // the only element: trailer, no chain link
	rootChained int // first element of a longer chain: chain link + trailer
	middle      int // interior element: chain link only
	tail        int // final element: full payload
}

func segmentCapacities(proto wire.Protocol, depth uint32) segmentCaps {
	if depth == 0 {
		return segmentCaps{
			rootSingle:  proto.TxDataBytes - wire.MetadataBytes,
			rootChained: proto.TxDataBytes - wire.MetadataBytes - wire.TxidBytes,
			middle:      proto.TxDataBytes - wire.TxidBytes,
			tail:        proto.TxDataBytes,
		}
	}

	nodeFanout := proto.TxDataBytes / wire.TxidBytes
	leafBytes := func(idBudget int) int {
		n := idBudget / wire.TxidBytes
		for l := uint32(1); l < depth; l++ {
			n *= nodeFanout
		}
		return n * proto.TxDataBytes
	}
	return segmentCaps{
		rootSingle:  leafBytes(proto.TxDataBytes - wire.MetadataBytes),
		rootChained: leafBytes(proto.TxDataBytes - wire.MetadataBytes - wire.TxidBytes),
		middle:      leafBytes(proto.TxDataBytes - wire.TxidBytes),
		tail:        leafBytes(proto.TxDataBytes),
	}
}

// chunkSegments splits data into chain-element segments in file order:
// segment 0 is the root. The tail absorbs whatever remains once every
// earlier segment is cut at its positional capacity, so a file of exactly
// rootSingle bytes is a single transaction and a segment is never empty
// (spec §8's boundary properties). chainedTail is set when resuming a
// partially-broadcast chain: the final segment will carry a link to the
// already-sent portion, so it gets interior-element capacity instead of
// the tail's full payload.
func chunkSegments(data []byte, caps segmentCaps, chainedTail bool) [][]byte {
	rootCap, tailCap := caps.rootSingle, caps.tail
	if chainedTail {
		rootCap, tailCap = caps.rootChained, caps.middle
	}
	if len(data) <= rootCap {
		return [][]byte{data}
	}
	segments := [][]byte{data[:caps.rootChained]}
	remaining := data[caps.rootChained:]
	for len(remaining) > tailCap {
		segments = append(segments, remaining[:caps.middle])
		remaining = remaining[caps.middle:]
	}
	return append(segments, remaining)
}

// estimateTxCount predicts the total transaction count a send will take,
// used to decide whether UTXO distribution is needed before the heavy path
// (spec §4.J: "Before the heavy path, if the estimated number of
// transactions exceeds max_0conf_chain ...").
func estimateTxCount(segments [][]byte, proto wire.Protocol, depth uint32) int {
	nodeFanout := proto.TxDataBytes / wire.TxidBytes
	total := 0
	for _, seg := range segments {
		if depth == 0 {
			total++
			continue
		}
		leafCount := (len(seg) + proto.TxDataBytes - 1) / proto.TxDataBytes
		if leafCount == 0 {
			leafCount = 1
		}
		n := leafCount
		total += n // leaves
		for l := uint32(1); l < depth; l++ {
			n = (n + nodeFanout - 1) / nodeFanout
			total += n // intermediate nodes
		}
		total++ // this segment's own chain-element transaction
	}
	return total
}
