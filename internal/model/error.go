// internal/model/error.go
package model

import (
	"errors"
	"fmt"
	"strings"
)

// アプリケーション固有のエラー
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternalServer = errors.New("internal server error")
	ErrStoreFailure   = errors.New("document store failure")
	ErrConflict       = errors.New("resource conflict") // 楽観的排他の書き込み競合
)

// ErrorDetail はクライアントへ返すエラー情報
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// APIErrorResponse はAPIエラーレスポンスの構造体
type APIErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// AppError はクライアント向けの詳細と、根本原因のエラーを保持します。
// HTTPステータスは Err (センチネルエラー) から決まります。
type AppError struct {
	Detail ErrorDetail
	Err    error
}

func NewAppError(code, message, field string, err error) *AppError {
	return &AppError{
		Detail: ErrorDetail{Code: code, Message: message, Field: field},
		Err:    err,
	}
}

// Error は Message が根本原因の文言を含んでいる場合、それを繰り返しません。
func (e *AppError) Error() string {
	if e.Err == nil || strings.Contains(e.Detail.Message, e.Err.Error()) {
		return fmt.Sprintf("%s: %s", e.Detail.Code, e.Detail.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Detail.Code, e.Detail.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
