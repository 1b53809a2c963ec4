package prepl

import (
	"fmt"

	"olympos.io/encoding/edn"
)

// ResponseKind identifies the variant of a prepl response.
type ResponseKind int

const (
	// KindRet is an evaluation result.
	KindRet ResponseKind = iota
	// KindTap is an out-of-band tapped value.
	KindTap
	// KindOut is captured stdout.
	KindOut
	// KindErr is runtime-side error text.
	KindErr
)

// String returns a human-readable kind name.
func (k ResponseKind) String() string {
	switch k {
	case KindRet:
		return "ret"
	case KindTap:
		return "tap"
	case KindOut:
		return "out"
	case KindErr:
		return "err"
	default:
		return "unknown"
	}
}

// Response is a single message received from a prepl server.
type Response struct {
	Kind ResponseKind

	// Text is the printed payload (:val in the wire map).
	Text string

	// ElapsedMS is the evaluation time reported by the server.
	// Only meaningful for KindRet and KindTap.
	ElapsedMS int64
}

// Result is one element of a client's response stream: either a decoded
// Response or a transport-level error. A transport error does not imply
// the stream has ended; the channel closing signals that.
type Result struct {
	Response Response
	Err      error
}

// wireResponse mirrors the EDN map a prepl emits per message.
type wireResponse struct {
	Tag       edn.Keyword `edn:"tag"`
	Val       string      `edn:"val"`
	NS        string      `edn:"ns"`
	MS        int64       `edn:"ms"`
	Form      string      `edn:"form"`
	Exception bool        `edn:"exception"`
}

// decodeResponse parses one newline-delimited EDN message.
func decodeResponse(line []byte) (Response, error) {
	var w wireResponse
	if err := edn.Unmarshal(line, &w); err != nil {
		return Response{}, fmt.Errorf("decoding response: %w", err)
	}

	switch w.Tag {
	case edn.Keyword("ret"):
		if w.Exception {
			return Response{Kind: KindErr, Text: w.Val}, nil
		}
		return Response{Kind: KindRet, Text: w.Val, ElapsedMS: w.MS}, nil
	case edn.Keyword("tap"):
		return Response{Kind: KindTap, Text: w.Val, ElapsedMS: w.MS}, nil
	case edn.Keyword("out"):
		return Response{Kind: KindOut, Text: w.Val}, nil
	case edn.Keyword("err"):
		return Response{Kind: KindErr, Text: w.Val}, nil
	default:
		return Response{}, fmt.Errorf("unknown response tag: %s", w.Tag)
	}
}
