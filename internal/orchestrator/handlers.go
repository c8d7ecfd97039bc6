package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/mq"
)

// handlePostDue запускает выполнение для поста из сообщения post.due.
func (o *Orchestrator) handlePostDue(ctx context.Context, delivery *mq.Delivery) error {
	if o.IsStopped() {
		return ErrOrchestratorStopped
	}

	payload, err := mq.ParsePayload[mq.PostDuePayload](&delivery.Message)
	if err != nil {
		o.logger.Error("failed to parse post.due payload", "error", err)
		return fmt.Errorf("%w: %v", mq.ErrPermanent, err)
	}

	o.logger.Debug("received post.due event",
		"post_id", payload.PostID,
		"provider", payload.Provider,
		"redelivered", delivery.Redelivered,
	)

	req := domain.PublicationRequest{
		TaskRoute:      payload.Provider,
		PostID:         payload.PostID,
		OrganizationID: payload.OrganizationID,
	}

	if _, err := o.starter.Start(ctx, req, SourceScheduler); err != nil {
		o.logger.Error("failed to start post workflow", "post_id", payload.PostID, "error", err)
		if errors.Is(err, ErrInvalidRequest) {
			return fmt.Errorf("%w: %v", mq.ErrPermanent, err)
		}
		return err
	}

	return nil
}
