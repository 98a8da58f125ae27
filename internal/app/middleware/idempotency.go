package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rentacar/internal/app/access"
	"rentacar/internal/app/commands"
	"rentacar/internal/app/uow"
)

// IdempotentCommand is implemented by commands a client may retry with the
// same key (the Idempotency-Key header on checkout).
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	// ResultPrototype returns a pointer of the handler's result type.
	ResultPrototype() any
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	Error      string
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency replays the stored outcome of a command already handled under
// the same caller and key. Outcomes that a retry could change (version
// conflicts, cancelled contexts) are not stored.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := ScopedKey(cmd.Key(), access.Actor(ctx), idCmd.IdempotencyKey())
			if res, found, err := replay(ctx, store, codec, key, idCmd); found {
				return res, err
			}

			result, err := next.Dispatch(ctx, cmd)
			if err != nil {
				if retryable(err) {
					return nil, err
				}
				rec := IdempotencyRecord{Key: key, Error: err.Error(), OccurredAt: time.Now().UTC()}
				if saveErr := store.Save(ctx, rec); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			rec := IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
			if result != nil {
				if rec.Payload, err = codec.Encode(result); err != nil {
					return nil, err
				}
			}
			if err := store.Save(ctx, rec); err != nil {
				return nil, err
			}
			return result, nil
		})
	}
}

func replay(ctx context.Context, store IdempotencyStore, codec ResultCodec, key string, cmd IdempotentCommand) (any, bool, error) {
	rec, found, err := store.Get(ctx, key)
	if err != nil {
		return nil, true, err
	}
	if !found {
		return nil, false, nil
	}
	if rec.Error != "" {
		return nil, true, &ReplayedError{Key: key, Message: rec.Error}
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, true, errMissingPrototype
	}
	if len(rec.Payload) > 0 {
		if err := codec.Decode(rec.Payload, proto); err != nil {
			return nil, true, err
		}
	}
	return proto, true, nil
}

func retryable(err error) bool {
	return errors.Is(err, uow.ErrConcurrentUpdate) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// ScopedKey namespaces a client key by command and caller, so two renters
// sending the same key never share an outcome.
func ScopedKey(commandKey, actor, clientKey string) string {
	if actor == "" {
		actor = "anonymous"
	}
	return commandKey + ":" + actor + ":" + clientKey
}

// ReplayedError is returned when a stored failure is replayed for a retried
// key. Only the message survives the store.
type ReplayedError struct {
	Key     string
	Message string
}

func (e *ReplayedError) Error() string { return e.Message }
