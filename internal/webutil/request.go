package webutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go_4_review_keep/internal/model"
)

// maxBodyBytes はリクエストボディの上限です。
const maxBodyBytes = 1 << 20

// DecodeJSONBody はリクエストボディを dst にデコードします。
// 未知のフィールドは無視します (フロントエンドが余分な項目を送ってくるため)。
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("%w: empty request body", model.ErrInvalidInput)
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", model.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	// JSON 値の後ろに余分な内容があれば不正
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: request body must contain a single JSON value", model.ErrInvalidInput)
	}
	return nil
}
