package mq

import (
	"context"
	"encoding/json"

	"github.com/addisride/identity/internal/identity/usecase"
	"github.com/addisride/identity/internal/pkg/instrument"
	"github.com/addisride/identity/internal/pkg/messaging"
	"github.com/addisride/identity/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishAccountActivated(ctx context.Context, msg usecase.AccountActivatedEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishAccountActivated")
	defer span.End()

	body, err := json.Marshal(event.AccountActivatedMessage{
		AccountID:   msg.AccountID,
		Phone:       msg.Phone,
		ActivatedAt: msg.ActivatedAt.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.AccountActivatedDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
