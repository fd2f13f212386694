package model

import "time"

// Category は書籍カテゴリ。固定の列挙値のみ許可する。
type Category string

const (
	CategoryRomantic    Category = "Romantic"
	CategoryScience     Category = "Science"
	CategoryProgramming Category = "Programming"
	CategoryNovel       Category = "Novel"
)

// Categories は許可されたカテゴリの一覧を定義順で返す。
func Categories() []Category {
	return []Category{CategoryRomantic, CategoryScience, CategoryProgramming, CategoryNovel}
}

// IsValid はカテゴリが列挙値に含まれるかを判定する。
func (c Category) IsValid() bool {
	switch c {
	case CategoryRomantic, CategoryScience, CategoryProgramming, CategoryNovel:
		return true
	default:
		return false
	}
}

// Book は蔵書レコードを表す。
// CreatedBy は所有ユーザーのIDで、所有者のセッションから変更可能であることを示す。
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn"`
	Desc      string    `json:"desc"`
	Category  Category  `json:"category"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot は書籍の現時点のスナップショットを返す。
func (b *Book) Snapshot() BookSnapshot {
	return BookSnapshot{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		ISBN:      b.ISBN,
		Desc:      b.Desc,
		Category:  b.Category,
		CreatedBy: b.CreatedBy,
		CreatedAt: b.CreatedAt,
	}
}

// BookSnapshot はユーザーのbooks列に追記される書籍のコピー。
type BookSnapshot struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn"`
	Desc      string    `json:"desc"`
	Category  Category  `json:"category"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// BookWithOwner は作成者情報を解決済みの書籍。
// 作成者が存在しない場合 CreatedBy は nil になる。
type BookWithOwner struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Author    string       `json:"author"`
	ISBN      string       `json:"isbn"`
	Desc      string       `json:"desc"`
	Category  Category     `json:"category"`
	CreatedBy *UserSummary `json:"createdBy"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
