// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は利用者が入力した書籍情報からHTMLマークアップを除去する。
// 保存されるテキストはテンプレートでエスケープされるが、
// JSON APIの利用者にもマークアップを含まない値を返すため保存前に除去する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト化のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize はすべてのHTMLタグを除去し、前後の空白を取り除いたテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 出力を再度渡しても結果は変わらない（冪等）。
	// タグとして解釈される表記（例: "<Templates>"）はテキストとして残らない。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses はエスケープされたマークアップを剥がす最大回数。
const maxSanitizePasses = 8

// Sanitize はHTMLタグを除去したテキストを返す。
// bluemondayはテキストをHTMLエスケープして返すため、元の文字へ戻してから保存する。
// 戻した結果が新たなタグを含む場合（"&lt;b&gt;" など）は変化しなくなるまで繰り返す。
func (s *textSanitizer) Sanitize(raw string) string {
	text := strings.TrimSpace(raw)
	for i := 0; i < maxSanitizePasses && text != ""; i++ {
		next := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
		if next == text {
			break
		}
		text = next
	}
	return text
}
