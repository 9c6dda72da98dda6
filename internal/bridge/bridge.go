// Package bridge implements the command/response protocol that external
// language bindings use to invoke engine operations. A command names a
// method and carries a single JSON argument object; the bridge decodes
// the arguments into typed engine inputs, invokes the operation and wraps
// the result or error into a response envelope. Every call is
// request/response; there are no partial or streaming results.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/anyong/tangleclient/internal/log"
	"github.com/anyong/tangleclient/internal/nodeclient"
	"github.com/anyong/tangleclient/internal/wallet"
	"github.com/anyong/tangleclient/pkg/output"
	"github.com/anyong/tangleclient/pkg/tx"
)

// Command is the wire form of a bridge call.
type Command struct {
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args"`
}

// Response envelope discriminants.
const (
	TypeSuccess = "success"
	TypeError   = "error"
)

// Response is the wire form of a bridge result. This envelope is the only
// contract bindings rely on; it stays stable across engine refactors.
type Response struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorPayload is the payload of an error response. Code distinguishes
// protocol-level failures from domain errors so bindings can present
// actionable messages.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Protocol-level error codes.
const (
	CodeUnknownCommand   = "unknownCommand"
	CodeInvalidArguments = "invalidArguments"
	CodeInternalError    = "internalError"
)

// Bridge errors.
var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrNoNodeClient     = errors.New("bridge has no node client")
)

// Handler executes one bridge method over decoded raw arguments.
type Handler func(ctx context.Context, args json.RawMessage) (interface{}, error)

// Bridge dispatches commands to a closed registry of typed handlers.
// The registry is fixed at construction; serialization happens only at
// this boundary, never inside the engine core.
type Bridge struct {
	handlers map[string]Handler
	node     *nodeclient.Client
	scanConc int
	logger   zerolog.Logger
}

// New creates a bridge. The node client is optional: without one, node
// passthrough methods fail with a typed error while all pure engine
// methods keep working (offline signing).
func New(node *nodeclient.Client, scanConcurrency int) *Bridge {
	b := &Bridge{
		handlers: make(map[string]Handler),
		node:     node,
		scanConc: scanConcurrency,
		logger:   log.Bridge,
	}
	b.registerEngineMethods()
	b.registerNodeMethods()
	return b
}

// Methods returns the sorted-insensitive registry contents, mainly for
// binding generators and diagnostics.
func (b *Bridge) Methods() []string {
	methods := make([]string, 0, len(b.handlers))
	for m := range b.handlers {
		methods = append(methods, m)
	}
	return methods
}

// Dispatch decodes a raw command, invokes its handler and returns the
// response envelope. Dispatch never returns a Go error: every failure is
// materialized as an error response.
func (b *Bridge) Dispatch(ctx context.Context, raw []byte) Response {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return errorResponse(CodeInvalidArguments, "invalid command JSON: "+err.Error())
	}
	return b.Call(ctx, cmd.Method, cmd.Args)
}

// Call invokes a method by name with raw JSON arguments. A handler panic
// is converted into an internalError response so one bad command cannot
// take down the binding loop.
func (b *Bridge) Call(ctx context.Context, method string, args json.RawMessage) (resp Response) {
	handler, ok := b.handlers[method]
	if !ok {
		b.logger.Debug().Str("method", method).Msg("unknown command")
		return errorResponse(CodeUnknownCommand, "unknown method "+method)
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Str("method", method).Interface("panic", r).Msg("handler panicked")
			resp = errorResponse(CodeInternalError, fmt.Sprintf("%s: internal failure: %v", method, r))
		}
	}()

	result, err := handler(ctx, args)
	if err != nil {
		b.logger.Debug().Str("method", method).Err(err).Msg("command failed")
		return errorResponse(errorCode(err), err.Error())
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return errorResponse(CodeInternalError, "encode result: "+err.Error())
	}
	b.logger.Debug().Str("method", method).Msg("command completed")
	return Response{Type: TypeSuccess, Payload: payload}
}

// register adds a handler to the registry.
func (b *Bridge) register(method string, h Handler) {
	b.handlers[method] = h
}

func errorResponse(code, message string) Response {
	payload, _ := json.Marshal(ErrorPayload{Code: code, Message: message})
	return Response{Type: TypeError, Payload: payload}
}

// errorCode maps engine errors to stable bridge error codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArguments):
		return CodeInvalidArguments
	case errors.Is(err, ErrUnknownCommand):
		return CodeUnknownCommand
	case errors.Is(err, ErrNoNodeClient):
		return "noNodeClient"
	case errors.Is(err, wallet.ErrInvalidPath):
		return "invalidPath"
	case errors.Is(err, wallet.ErrInvalidGapLimit):
		return "invalidGapLimit"
	case errors.Is(err, output.ErrInvalidOutput):
		return "invalidOutput"
	case errors.Is(err, tx.ErrDustProtection):
		return "dustProtectionViolation"
	case errors.Is(err, tx.ErrInsufficientFundsForChange):
		return "insufficientFundsForChange"
	case errors.Is(err, tx.ErrInsufficientFunds):
		return "insufficientFunds"
	case errors.Is(err, tx.ErrTooManyInputs):
		return "tooManyInputs"
	case errors.Is(err, tx.ErrTooManyOutputs):
		return "tooManyOutputs"
	case errors.Is(err, tx.ErrDuplicateInput):
		return "duplicateInput"
	case errors.Is(err, tx.ErrMissingKey):
		return "missingKey"
	case errors.Is(err, nodeclient.ErrTimeout):
		return "nodeTimeout"
	case errors.Is(err, nodeclient.ErrUnreachable):
		return "nodeUnreachable"
	case errors.Is(err, nodeclient.ErrMalformedResponse):
		return "nodeMalformedResponse"
	case errors.Is(err, nodeclient.ErrNotFound):
		return "notFound"
	default:
		return CodeInternalError
	}
}
