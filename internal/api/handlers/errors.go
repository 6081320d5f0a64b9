package handlers

import (
	"fmt"

	"weatherdash/internal/types"
)

func invalidCityIDError(raw string, err error) *types.AppError {
	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationInvalidField,
		fmt.Sprintf("city id %q is not a valid integer", raw),
		err,
		map[string]any{"cityID": "must be an integer"},
	)
}
