package publication

import (
	"go.temporal.io/sdk/temporal"
)

// attemptLabels — попытки одного шага: первая, после refresh токена и три повтора.
var attemptLabels = []string{"post", "afterRefresh", "retry1", "retry2", "retry3"}

// publishAttempts — общий бюджет попыток шага для всех видов ошибок.
var publishAttempts = len(attemptLabels)

// verdict — решение после неудачной попытки.
type verdict int

const (
	// retryAttempt — потратить следующую попытку.
	retryAttempt verdict = iota

	// abortStep — прекратить шаг без повторов.
	abortStep
)

// stepOutcome — итог retryStep.
type stepOutcome int

const (
	stepDone stepOutcome = iota
	stepAborted
	stepExhausted
)

func (o stepOutcome) String() string {
	switch o {
	case stepDone:
		return "done"
	case stepAborted:
		return "aborted"
	default:
		return "exhausted"
	}
}

// attemptLabel возвращает метку попытки для логов.
func attemptLabel(attempt int) string {
	if attempt >= 0 && attempt < len(attemptLabels) {
		return attemptLabels[attempt]
	}
	return "extra"
}

// retryStep выполняет step не более budget раз.
//
// После каждой ошибки onFailure получает классифицированную Failure
// и решает, повторять ли шаг. Ошибка самого onFailure и отмена workflow
// прерывают выполнение и возвращаются вызывающему.
func retryStep(budget int, step func(attempt int) error, onFailure func(attempt int, f Failure) (verdict, error)) (stepOutcome, error) {
	for attempt := 0; attempt < budget; attempt++ {
		err := step(attempt)
		if err == nil {
			return stepDone, nil
		}
		if temporal.IsCanceledError(err) {
			return stepAborted, err
		}

		v, handlerErr := onFailure(attempt, classify(err))
		if handlerErr != nil {
			return stepAborted, handlerErr
		}
		if v == abortStep {
			return stepAborted, nil
		}
	}
	return stepExhausted, nil
}
