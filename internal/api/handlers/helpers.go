package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/pkg/utils"
	"github.com/lakespend/lakespend/internal/pkg/validator"
)

// decodeJSON decodes and validates a request body
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.BadRequest("invalid JSON body")
	}
	if verrs := validator.Validate(dst); len(verrs) > 0 {
		return errors.Validation("invalid request", verrs)
	}
	return nil
}

// respondError writes an error using the shared envelope, wrapping unknown
// errors as internal
func respondError(w http.ResponseWriter, err error) {
	utils.WriteError(w, errors.AsAppError(err))
}
