package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/operatorservice/v1"

	"github.com/shaiso/postflow/internal/publication"
)

// searchAttributes — атрибуты, по которым ищутся выполнения постов.
var searchAttributes = []string{
	publication.SearchAttrOrganizationID.GetName(),
	publication.SearchAttrPostID.GetName(),
}

// RegisterSearchAttributes добавляет в namespace недостающие keyword-атрибуты.
// Возвращает имена добавленных атрибутов.
func RegisterSearchAttributes(ctx context.Context, operator operatorservice.OperatorServiceClient, namespace string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	resp, err := operator.ListSearchAttributes(ctx, &operatorservice.ListSearchAttributesRequest{
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("list search attributes: %w", err)
	}

	missing := make(map[string]enumspb.IndexedValueType)
	var added []string
	for _, name := range searchAttributes {
		if _, ok := resp.GetCustomAttributes()[name]; ok {
			continue
		}
		missing[name] = enumspb.INDEXED_VALUE_TYPE_KEYWORD
		added = append(added, name)
	}

	if len(missing) == 0 {
		logger.Debug("search attributes already registered", "namespace", namespace)
		return nil, nil
	}

	if _, err := operator.AddSearchAttributes(ctx, &operatorservice.AddSearchAttributesRequest{
		SearchAttributes: missing,
		Namespace:        namespace,
	}); err != nil {
		return nil, fmt.Errorf("add search attributes: %w", err)
	}

	logger.Info("search attributes registered", "namespace", namespace, "attributes", added)
	return added, nil
}
