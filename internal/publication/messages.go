package publication

import (
	"fmt"
	"strings"

	"github.com/shaiso/postflow/internal/domain"
)

// reconnectNotification — интеграция требует переподключения.
func reconnectNotification(orgID string, integ domain.Integration) domain.Notification {
	title := couldNotPostTitle(integ)
	return domain.Notification{
		OrganizationID: orgID,
		Title:          title,
		Body:           title + " because you need to reconnect it. Please enable it and try again.",
		Popup:          true,
		Severity:       domain.SeverityInfo,
	}
}

// disabledNotification — интеграция отключена.
func disabledNotification(orgID string, integ domain.Integration) domain.Notification {
	title := couldNotPostTitle(integ)
	return domain.Notification{
		OrganizationID: orgID,
		Title:          title,
		Body:           title + " because it's disabled. Please enable it and try again.",
		Popup:          true,
		Severity:       domain.SeverityInfo,
	}
}

func couldNotPostTitle(integ domain.Integration) string {
	return fmt.Sprintf("We couldn't post to %s for %s", integ.ProviderIdentifier, integ.Name)
}

// publishedNotification — основной пост опубликован.
func publishedNotification(orgID string, integ domain.Integration, releaseURL string) domain.Notification {
	title := "Your post has been published on " + capitalize(integ.ProviderIdentifier)
	return domain.Notification{
		OrganizationID: orgID,
		Title:          title,
		Body:           title + " at " + releaseURL,
		Popup:          true,
		IsSuccess:      true,
		Severity:       domain.SeveritySuccess,
	}
}

// badBodyNotification — провайдер отклонил пост или комментарий.
func badBodyNotification(orgID string, integ domain.Integration, comment bool, message string) domain.Notification {
	what := " "
	if comment {
		what = " comments "
	}

	body := fmt.Sprintf("An error occurred while posting%son %s", what, integ.ProviderIdentifier)
	if message != "" {
		body += ": " + message
	}

	return domain.Notification{
		OrganizationID: orgID,
		Title:          fmt.Sprintf("Error posting%son %s for %s", what, integ.ProviderIdentifier, integ.Name),
		Body:           body,
		Popup:          true,
		Severity:       domain.SeverityFail,
	}
}

// capitalize: первая буква заглавная, остальные строчные.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	r := []rune(lower)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
