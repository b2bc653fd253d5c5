// internal/model/review.go
package model

import (
	"bytes"
	"encoding/json"
)

// ReviewRecord は1問分の回答結果です。review_id で一意に識別されます。
type ReviewRecord struct {
	ReviewID      string `json:"review_id"`
	QuestionID    string `json:"question_id"`
	QuestionSet   string `json:"question_set"`
	QuestionIndex int    `json:"question_index"`
	Keyword       string `json:"keyword"`
	Category      string `json:"category"`
	QuestionText  string `json:"question_text"`
	ReviewerName  string `json:"reviewer_name"`
	Answer        string `json:"answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Timestamp     string `json:"timestamp"` // クライアントが付与した値をそのまま保存
	Comment       string `json:"comment"`
}

// ReviewEntry は review.json に保存されている1件分の JSON です。
// 保存済みの内容は Raw のまま保持し、台帳を書き戻すときもそのまま出力します。
// ReviewID は review_id が文字列の場合のみ設定されます。
type ReviewEntry struct {
	ReviewID string
	Raw      json.RawMessage

	noID bool // review_id が無いか文字列ではない
}

// NewReviewEntry は ReviewRecord を JSON にして台帳の1件にします。
func NewReviewEntry(rec ReviewRecord) (ReviewEntry, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return ReviewEntry{}, err
	}
	return ReviewEntry{ReviewID: rec.ReviewID, Raw: raw}, nil
}

// Record は Raw を ReviewRecord としてデコードします。
func (e ReviewEntry) Record() (ReviewRecord, error) {
	var rec ReviewRecord
	if len(e.Raw) == 0 {
		rec.ReviewID = e.ReviewID
		return rec, nil
	}
	err := json.Unmarshal(e.Raw, &rec)
	return rec, err
}

func (e ReviewEntry) MarshalJSON() ([]byte, error) {
	if len(e.Raw) == 0 {
		return json.Marshal(map[string]string{"review_id": e.ReviewID})
	}
	return e.Raw, nil
}

// UnmarshalJSON は要素の形を問わず受け入れます。
// オブジェクトでない要素や review_id が文字列でない要素は、どの review_id とも一致しません。
func (e *ReviewEntry) UnmarshalJSON(data []byte) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	e.Raw = buf.Bytes()
	e.ReviewID = ""
	e.noID = true

	var fields map[string]json.RawMessage
	if json.Unmarshal(e.Raw, &fields) != nil {
		return nil
	}
	if id, ok := fields["review_id"]; ok {
		var s string
		if json.Unmarshal(id, &s) == nil {
			e.ReviewID = s
			e.noID = false
		}
	}
	return nil
}

// ReviewLedger は review.json の中身。登録順を保持します。
type ReviewLedger []ReviewEntry

// Find は review_id に一致するレコードの位置を返します。見つからなければ -1。
func (l ReviewLedger) Find(reviewID string) int {
	for i := range l {
		if !l[i].noID && l[i].ReviewID == reviewID {
			return i
		}
	}
	return -1
}

// Upsert は同じ review_id があればその位置で置き換え、なければ末尾に追加します。
// フィールド単位のマージは行わず、他の要素には触れません。
func (l *ReviewLedger) Upsert(entry ReviewEntry) (index int, replaced bool) {
	if i := l.Find(entry.ReviewID); i >= 0 {
		(*l)[i] = entry
		return i, true
	}
	*l = append(*l, entry)
	return len(*l) - 1, false
}

// SubmitReviewRequest は回答結果送信リクエストのDTO
// 必須項目はポインタで受け取り、「未指定」と「ゼロ値」(false, 0, "") を区別します。
type SubmitReviewRequest struct {
	ReviewID      *string `json:"review_id" validate:"required"`
	QuestionID    *string `json:"question_id" validate:"required"`
	QuestionSet   *string `json:"question_set" validate:"required"`
	QuestionIndex *int    `json:"question_index" validate:"required"`
	Keyword       *string `json:"keyword,omitempty"`
	Category      *string `json:"category" validate:"required"`
	QuestionText  *string `json:"question_text" validate:"required"`
	ReviewerName  *string `json:"reviewer_name" validate:"required"`
	Answer        *string `json:"answer" validate:"required"`
	CorrectAnswer *string `json:"correct_answer" validate:"required"`
	IsCorrect     *bool   `json:"is_correct" validate:"required"`
	Timestamp     *string `json:"timestamp" validate:"required"`
	Comment       *string `json:"comment,omitempty"`
}

// MissingField は最初に見つかった未指定の必須項目名 (jsonタグ名) を返します。
// すべて揃っていれば空文字。
func (r *SubmitReviewRequest) MissingField() string {
	switch {
	case r.ReviewID == nil:
		return "review_id"
	case r.QuestionID == nil:
		return "question_id"
	case r.QuestionSet == nil:
		return "question_set"
	case r.QuestionIndex == nil:
		return "question_index"
	case r.Category == nil:
		return "category"
	case r.QuestionText == nil:
		return "question_text"
	case r.ReviewerName == nil:
		return "reviewer_name"
	case r.Answer == nil:
		return "answer"
	case r.CorrectAnswer == nil:
		return "correct_answer"
	case r.IsCorrect == nil:
		return "is_correct"
	case r.Timestamp == nil:
		return "timestamp"
	}
	return ""
}

// ToRecord は省略可能な項目 (keyword, comment) を空文字で補完して ReviewRecord を組み立てます。
// 必須項目が欠けている場合は ErrInvalidInput を返します。
func (r *SubmitReviewRequest) ToRecord() (ReviewRecord, error) {
	if field := r.MissingField(); field != "" {
		return ReviewRecord{}, NewAppError("VALIDATION_ERROR", field+"は必須項目です。", field, ErrInvalidInput)
	}
	return ReviewRecord{
		ReviewID:      *r.ReviewID,
		QuestionID:    *r.QuestionID,
		QuestionSet:   *r.QuestionSet,
		QuestionIndex: *r.QuestionIndex,
		Keyword:       stringOrEmpty(r.Keyword),
		Category:      *r.Category,
		QuestionText:  *r.QuestionText,
		ReviewerName:  *r.ReviewerName,
		Answer:        *r.Answer,
		CorrectAnswer: *r.CorrectAnswer,
		IsCorrect:     *r.IsCorrect,
		Timestamp:     *r.Timestamp,
		Comment:       stringOrEmpty(r.Comment),
	}, nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ReviewListResponse はレビュー一覧取得のレスポンス
type ReviewListResponse struct {
	Success bool         `json:"success"`
	Reviews ReviewLedger `json:"reviews"`
	Total   int          `json:"total"`
}

// SubmitReviewResponse は回答結果保存のレスポンス
type SubmitReviewResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	ReviewID     string `json:"review_id"`
	TotalReviews int    `json:"total_reviews"`
}
