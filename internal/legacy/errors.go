package legacy

import (
	"fmt"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

func newParamsMismatch(name string, stored, supplied map[string]string) error {
	return werrors.Newf(werrors.ErrCodeConfigInvalid, nil,
		"legacy index %q exists with params %v, not %v", name, stored, supplied).
		WithSuggestion("Drop the legacy index or restore its original route parameters")
}

func unsupportedValue(err error) error {
	return werrors.New(werrors.ErrCodeUnsupportedValue, err.Error(), err)
}

func negativeEntity(id int64) error {
	return werrors.New(werrors.ErrCodeInvalidInput,
		fmt.Sprintf("entity id %d is negative", id), index.ErrUnsupportedValue)
}

func storeFailed(op string, err error) error {
	return werrors.New(werrors.ErrCodeStoreFailed, op+": "+err.Error(), err)
}
