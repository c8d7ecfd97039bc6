package publication

import (
	"errors"

	"github.com/shaiso/postflow/internal/domain"
	"go.temporal.io/sdk/workflow"
)

// errNoResult — провайдер принял запрос, но не вернул ни одного результата.
var errNoResult = errors.New("provider returned no publish result")

// publishAll публикует основной пост и комментарии по порядку.
//
// Возвращает результат основного поста. ok=false — публикация прервана
// (BadBody, неудачный refresh) или основной пост так и не опубликован.
func (p *publication) publishAll(ctx workflow.Context, commentable bool) (domain.PublishResult, bool, error) {
	logger := workflow.GetLogger(ctx)

	var anchor domain.PublishResult
	var parentID string

	for i, item := range p.posts {
		if i > 0 && !commentable {
			break
		}

		result, outcome, err := p.publishItem(ctx, i, item, anchor.ExternalID, parentID)
		if err != nil {
			return anchor, false, err
		}

		switch outcome {
		case stepAborted:
			return anchor, false, nil
		case stepExhausted:
			// Элемент остаётся неопубликованным, цепочка продолжается.
			logger.Warn("publish attempts exhausted", "post_id", p.req.PostID, "item_id", item.ID, "index", i)
			if i == 0 {
				return anchor, false, nil
			}
			continue
		}

		if err := workflow.ExecuteActivity(p.store, acts.UpdatePost, item.ID, result.ExternalID, result.ReleaseURL).Get(ctx, nil); err != nil {
			return anchor, false, err
		}
		p.progress.Published = append(p.progress.Published, result)

		if i == 0 {
			anchor = result
			if err := p.notify(ctx, publishedNotification(item.OrganizationID, p.integration, result.ReleaseURL)); err != nil {
				return anchor, false, err
			}
		} else {
			parentID = result.ExternalID
		}
	}

	return anchor, true, nil
}

// publishItem публикует одну запись с бюджетом попыток publishAttempts.
func (p *publication) publishItem(ctx workflow.Context, index int, item domain.PostItem, anchorID, parentID string) (domain.PublishResult, stepOutcome, error) {
	logger := workflow.GetLogger(ctx)
	main := p.posts[0]

	var result domain.PublishResult

	// Попытка комментария, включая повторы, начинается с ожидания Delay.
	step := func(attempt int) error {
		if index > 0 {
			if err := sleep(ctx, item.CommentDelay()); err != nil {
				return err
			}
		}

		var results []domain.PublishResult
		var err error
		if index == 0 {
			err = workflow.ExecuteActivity(p.social, acts.PostSocial, p.integration, []domain.PostItem{item}).Get(ctx, &results)
		} else {
			err = workflow.ExecuteActivity(p.social, acts.PostComment, anchorID, parentID, p.integration, []domain.PostItem{item}).Get(ctx, &results)
		}
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return errNoResult
		}
		// Публикуется одна запись; дополнительные сегменты провайдера
		// (например, тред) не сохраняются, якорем служит первый.
		if len(results) > 1 {
			logger.Debug("extra provider results ignored", "post_id", p.req.PostID, "item_id", item.ID, "results", len(results))
		}
		result = results[0]
		return nil
	}

	onFailure := func(attempt int, f Failure) (verdict, error) {
		logger.Warn("publish attempt failed",
			"post_id", p.req.PostID,
			"item_id", item.ID,
			"attempt", attemptLabel(attempt),
			"kind", failureKind(f),
			"error", f.Error(),
		)

		switch f := f.(type) {
		case RefreshTokenNeeded:
			token := p.refreshToken(ctx, p.integration)
			if token.IsEmpty() {
				return abortStep, p.markError(ctx, f)
			}
			p.integration.Token = token.AccessToken
			return retryAttempt, nil

		case BadBody:
			if err := p.markError(ctx, f); err != nil {
				return abortStep, err
			}
			return abortStep, p.notify(ctx, badBodyNotification(main.OrganizationID, p.integration, index > 0, f.Message))

		default:
			return retryAttempt, p.markError(ctx, f)
		}
	}

	outcome, err := retryStep(publishAttempts, step, onFailure)
	return result, outcome, err
}

// refreshToken обновляет токен интеграции. Ошибка activity считается
// неудачным обновлением и даёт пустой токен.
func (p *publication) refreshToken(ctx workflow.Context, integ domain.Integration) domain.Token {
	var token domain.Token
	if err := workflow.ExecuteActivity(p.social, acts.RefreshToken, integ).Get(ctx, &token); err != nil {
		workflow.GetLogger(ctx).Warn("token refresh failed", "integration_id", integ.ID, "error", err)
		return domain.Token{}
	}
	return token
}

// markError переводит пост и все записи цепочки в ERROR.
func (p *publication) markError(ctx workflow.Context, cause error) error {
	return workflow.ExecuteActivity(p.store, acts.ChangeState, p.posts[0].ID, domain.PostStateError, cause.Error(), p.posts).Get(ctx, nil)
}
