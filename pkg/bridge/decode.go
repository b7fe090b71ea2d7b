package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/turboflakes/onet-cache/pkg/onet"
	"github.com/turboflakes/onet-cache/pkg/reconcile"
	"github.com/turboflakes/onet-cache/pkg/store"
)

// Outbound subscription methods.
const (
	SubscribeSession    = "subscribe_session"
	SubscribeParachains = "subscribe_parachains"
	SubscribeParaAuths  = "subscribe_para_authorities"
	SubscribeBlock      = "subscribe_block"
)

// envelope is the inbound `{"method": ..., "result": ...}` shape. Result
// payloads match the HTTP response shapes for the same entity.
type envelope struct {
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
}

// Decode turns a raw push message into the equivalent received-event.
// Returns (nil, nil) for methods this cache does not track.
func Decode(raw []byte) (reconcile.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Method {
	case "session":
		var s onet.Session
		if err := json.Unmarshal(env.Result, &s); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		return reconcile.SessionReceived{Session: s}, nil

	case "sessions":
		var list onet.ListEnvelope[onet.Session]
		if err := json.Unmarshal(env.Result, &list); err != nil {
			return nil, fmt.Errorf("decode sessions: %w", err)
		}
		return reconcile.SessionsReceived{Sessions: list.Data}, nil

	case "validators":
		var list onet.ListEnvelope[onet.Validator]
		if err := json.Unmarshal(env.Result, &list); err != nil {
			return nil, fmt.Errorf("decode validators: %w", err)
		}
		// Push updates always track the live session.
		return reconcile.ValidatorsReceived{Validators: list.Data, Session: list.Session, Scope: store.ScopeLive}, nil

	case "parachains":
		var list onet.ListEnvelope[onet.Parachain]
		if err := json.Unmarshal(env.Result, &list); err != nil {
			return nil, fmt.Errorf("decode parachains: %w", err)
		}
		return reconcile.ParachainsReceived{Parachains: list.Data, Session: list.Session}, nil

	case "pools":
		var list onet.ListEnvelope[onet.Pool]
		if err := json.Unmarshal(env.Result, &list); err != nil {
			return nil, fmt.Errorf("decode pools: %w", err)
		}
		return reconcile.PoolsReceived{Pools: list.Data, Session: list.Session}, nil

	case "best_block", "finalized_block":
		var b onet.Block
		if err := json.Unmarshal(env.Result, &b); err != nil {
			return nil, fmt.Errorf("decode block: %w", err)
		}
		return reconcile.BlockReceived{Block: b}, nil
	}

	return nil, nil
}
