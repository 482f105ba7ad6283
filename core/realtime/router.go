package realtime

import (
	"context"
	"time"

	"github.com/artpar/socketgate/adapters/metrics"
	"github.com/artpar/socketgate/core/events"
	"github.com/artpar/socketgate/core/items"
	"github.com/artpar/socketgate/core/schema"
	"github.com/rs/zerolog"
)

// invalidCollectionMessage is sent verbatim when the target collection is
// absent from the caller's schema snapshot.
const invalidCollectionMessage = "The provided collection does not exists or is not accessible."

// SchemaOracle answers which collections are visible to a caller. Absence of
// a name from the snapshot is the only fact the router relies on.
type SchemaOracle interface {
	Collections(acct schema.Accountability) map[string]schema.Collection
}

// ItemsService is the per-collection data service contract. Mutating calls
// return the server-assigned identifiers used for the read-back step.
type ItemsService interface {
	CreateOne(ctx context.Context, data map[string]any) (string, error)
	CreateMany(ctx context.Context, data []map[string]any) ([]string, error)
	ReadOne(ctx context.Context, id string) (map[string]any, error)
	ReadMany(ctx context.Context, ids []any) ([]map[string]any, error)
	ReadByQuery(ctx context.Context, q items.Query) ([]map[string]any, error)
	UpdateOne(ctx context.Context, id string, data map[string]any) (string, error)
	UpdateMany(ctx context.Context, ids []any, data map[string]any) ([]string, error)
	DeleteOne(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []any) error
	DeleteByQuery(ctx context.Context, q items.Query) error
	MetaForQuery(ctx context.Context, q items.Query) (items.Meta, error)
}

// ServiceFactory constructs the data service for one collection with the
// caller's accountability. A fresh service is built per handled message.
type ServiceFactory func(col schema.Collection, acct schema.Accountability) ItemsService

// Router turns one inbound notification into exactly one outbound reply,
// enforcing collection visibility and operation-shape dispatch. It owns no
// durable state; everything it touches is constructed per message.
type Router struct {
	oracle    SchemaOracle
	services  ServiceFactory
	logger    zerolog.Logger
	collector *metrics.Collector
}

// NewRouter creates a router. The collector may be nil.
func NewRouter(oracle SchemaOracle, services ServiceFactory, logger zerolog.Logger, collector *metrics.Collector) *Router {
	return &Router{
		oracle:    oracle,
		services:  services,
		logger:    logger.With().Str("component", "realtime").Logger(),
		collector: collector,
	}
}

// Attach subscribes the router to inbound message events on the bus and
// returns the subscription so the host can tear it down.
func (r *Router) Attach(bus *events.Bus) events.Subscription {
	return bus.Subscribe(events.EventMessage, r.HandleMessage)
}

// HandleMessage processes one inbound notification. Messages whose type
// discriminant is not MessageType are ignored with zero side effects.
// Every other message results in exactly one send on the client transport,
// success or error. Failures never propagate back to the bus.
func (r *Router) HandleMessage(ctx context.Context, ev events.Event) error {
	typ, _ := ev.Message["type"].(string)
	if typ != MessageType {
		if r.collector != nil {
			r.collector.MessagesIgnored.Inc()
		}
		return nil
	}

	start := time.Now()
	action, _ := ev.Message["action"].(string)

	reply := r.process(ctx, ev)

	text, err := reply.Encode()
	if err != nil {
		r.logger.Error().Err(err).Msg("reply encoding failed")
		reply = Err(items.CodeServiceError, "reply could not be encoded")
		text, _ = reply.Encode()
	}

	if err := ev.Client.Send(text); err != nil {
		r.logger.Warn().Err(err).Msg("reply send failed")
		if r.collector != nil {
			r.collector.SendErrors.Inc()
		}
	}

	if r.collector != nil {
		r.collector.MessagesTotal.WithLabelValues(action, reply.Status).Inc()
		r.collector.MessageDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	}

	r.logger.Debug().
		Str("action", action).
		Str("status", reply.Status).
		Dur("took", time.Since(start)).
		Msg("message handled")

	return nil
}

// process validates the message and runs the requested operation, returning
// the reply to send. It never returns without a reply.
func (r *Router) process(ctx context.Context, ev events.Event) Reply {
	collection, _ := ev.Message["collection"].(string)

	visible := r.oracle.Collections(ev.Accountability)
	col, ok := visible[collection]
	if !ok {
		return Err(items.CodeInvalidCollection, invalidCollectionMessage)
	}

	op, err := ParseOperation(ev.Message)
	if err != nil {
		return errReply(err)
	}

	svc := r.services(col, ev.Accountability)
	return r.dispatch(ctx, svc, op)
}

// dispatch branches on (action, shape) and runs the service calls in the
// required order: mutate first, then read back the persisted state using the
// identifiers the mutating call returned. Deletes have no read-back.
func (r *Router) dispatch(ctx context.Context, svc ItemsService, op Operation) Reply {
	switch op.Action {
	case ActionCreate:
		if op.Many {
			ids, err := svc.CreateMany(ctx, op.Records)
			if err != nil {
				return errReply(err)
			}
			records, err := svc.ReadMany(ctx, anyIDs(ids))
			if err != nil {
				return errReply(err)
			}
			return OK(normalizeRecords(records))
		}

		id, err := svc.CreateOne(ctx, op.Data)
		if err != nil {
			return errReply(err)
		}
		record, err := svc.ReadOne(ctx, id)
		if err != nil {
			return errReply(err)
		}
		return OK(record)

	case ActionRead:
		records, err := svc.ReadByQuery(ctx, op.Query)
		if err != nil {
			return errReply(err)
		}
		meta, err := svc.MetaForQuery(ctx, op.Query)
		if err != nil {
			return errReply(err)
		}
		return OKWithMeta(normalizeRecords(records), meta)

	case ActionUpdate:
		if op.Shape == ShapeBatch {
			ids, err := svc.UpdateMany(ctx, op.IDs, op.Data)
			if err != nil {
				return errReply(err)
			}
			meta, err := svc.MetaForQuery(ctx, items.Query{
				Filter: map[string]any{"id": anyIDs(ids)},
			})
			if err != nil {
				return errReply(err)
			}
			records, err := svc.ReadMany(ctx, anyIDs(ids))
			if err != nil {
				return errReply(err)
			}
			return OKWithMeta(normalizeRecords(records), meta)
		}

		id, err := svc.UpdateOne(ctx, op.ID, op.Data)
		if err != nil {
			return errReply(err)
		}
		record, err := svc.ReadOne(ctx, id)
		if err != nil {
			return errReply(err)
		}
		return OK(record)

	case ActionDelete:
		switch op.Shape {
		case ShapeSingle:
			if err := svc.DeleteOne(ctx, op.ID); err != nil {
				return errReply(err)
			}
			return OK(op.RawID)
		case ShapeBatch:
			if err := svc.DeleteMany(ctx, op.IDs); err != nil {
				return errReply(err)
			}
			return OK(op.IDs)
		default:
			if err := svc.DeleteByQuery(ctx, op.Query); err != nil {
				return errReply(err)
			}
			return OK(nil)
		}
	}

	return Err(items.CodeInvalidPayload, "unknown action")
}

// errReply maps a service failure to an error reply, preserving stable codes.
func errReply(err error) Reply {
	if serviceErr, ok := err.(*items.Error); ok {
		return Err(serviceErr.Code, serviceErr.Message)
	}
	return Err(items.CodeServiceError, err.Error())
}

// anyIDs widens a string ID slice for the read-many contract.
func anyIDs(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// normalizeRecords makes an empty result encode as an empty sequence.
func normalizeRecords(records []map[string]any) []map[string]any {
	if records == nil {
		return []map[string]any{}
	}
	return records
}
