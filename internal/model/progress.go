// internal/model/progress.go
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// ProgressKeySeparator は progress.json のキーで回答者名とカテゴリを連結する区切り文字です。
// 回答者名・カテゴリにこの文字列を含めることはできません (入力時に検証)。
const ProgressKeySeparator = "__"

// TimestampLayout はサーバーが付与するタイムスタンプの形式 (ISO-8601, UTC, ミリ秒)
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp は時刻を TimestampLayout で整形します。
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ProgressKey は (回答者, カテゴリ) の複合キー
type ProgressKey struct {
	Reviewer string
	Category string
}

// String は永続化用のキー "<reviewer>__<category>" を返します。
func (k ProgressKey) String() string {
	return k.Reviewer + ProgressKeySeparator + k.Category
}

// ProgressRecord は回答者がカテゴリ内で到達した問題位置です。
type ProgressRecord struct {
	ReviewerName  string `json:"reviewerName"`
	Category      string `json:"category"`
	QuestionIndex int    `json:"questionIndex"`
	Timestamp     string `json:"timestamp"`
}

// Key はレコード自身のフィールドから複合キーを組み立てます。
func (p ProgressRecord) Key() ProgressKey {
	return ProgressKey{Reviewer: p.ReviewerName, Category: p.Category}
}

// ProgressTable は progress.json の中身。1キーにつき最新の1件だけを保持します。
type ProgressTable struct {
	entries map[ProgressKey]ProgressRecord
}

func NewProgressTable() *ProgressTable {
	return &ProgressTable{entries: make(map[ProgressKey]ProgressRecord)}
}

func (t *ProgressTable) Get(key ProgressKey) (ProgressRecord, bool) {
	if t == nil || t.entries == nil {
		return ProgressRecord{}, false
	}
	rec, ok := t.entries[key]
	return rec, ok
}

// Put はキーの値を丸ごと置き換えます (後勝ち。questionIndex のマージはしない)。
func (t *ProgressTable) Put(rec ProgressRecord) {
	if t.entries == nil {
		t.entries = make(map[ProgressKey]ProgressRecord)
	}
	t.entries[rec.Key()] = rec
}

func (t *ProgressTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// MarshalJSON は "<reviewer>__<category>" をキーとするオブジェクトとして出力します。
// encoding/json はマップのキーをソートするため、出力は安定します。
func (t *ProgressTable) MarshalJSON() ([]byte, error) {
	out := make(map[string]ProgressRecord, t.Len())
	if t != nil {
		for k, rec := range t.entries {
			out[k.String()] = rec
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON はキー文字列を分解せず、各レコードの reviewerName / category から複合キーを復元します。
// 両方が欠けている古いデータに限り、キー文字列を最初の区切り文字で分割します。
func (t *ProgressTable) UnmarshalJSON(data []byte) error {
	var raw map[string]ProgressRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.entries = make(map[ProgressKey]ProgressRecord, len(raw))
	for s, rec := range raw {
		if rec.ReviewerName == "" && rec.Category == "" {
			if reviewer, category, ok := strings.Cut(s, ProgressKeySeparator); ok {
				rec.ReviewerName, rec.Category = reviewer, category
			}
		}
		t.entries[rec.Key()] = rec
	}
	return nil
}

// SaveProgressRequest は進捗保存リクエストのDTO
// questionIndex は 0 を許容するため、ポインタで「未指定」を判定します。
type SaveProgressRequest struct {
	ReviewerName  string `json:"reviewerName" validate:"required,excludes=__"`
	Category      string `json:"category" validate:"required,excludes=__"`
	QuestionIndex *int   `json:"questionIndex" validate:"required"`
}

// GetProgressQuery は進捗取得のクエリパラメータ
type GetProgressQuery struct {
	Reviewer string `json:"reviewer" validate:"required,excludes=__"`
	Category string `json:"category" validate:"required,excludes=__"`
}

// ProgressResponse は進捗取得のレスポンス。未保存の場合 progress は null。
type ProgressResponse struct {
	Success  bool            `json:"success"`
	Progress *ProgressRecord `json:"progress"`
}

// MessageResponse は処理結果メッセージだけを返すレスポンス
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
