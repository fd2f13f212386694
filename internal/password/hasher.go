// Package password はbcryptによるパスワードの一方向ハッシュと照合を提供する。
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinCost は許容する最小のbcryptコスト。
const MinCost = 10

// Hasher はbcryptでパスワードをハッシュ化する。
// ハッシュにはソルトとコストが埋め込まれるため、照合時に別途保持する必要はない。
type Hasher struct {
	cost int
}

// NewHasher はHasherを生成する。
// MinCost未満のコストはMinCostに、bcrypt.MaxCostを超えるコストはMaxCostに丸める。
func NewHasher(cost int) *Hasher {
	if cost < MinCost {
		cost = MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Cost は使用するbcryptコストを返す。
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash は平文パスワードから新しいソルト付きハッシュを生成する。
func (h *Hasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify は平文パスワードがハッシュと一致するかを定数時間で照合する。
// 不一致や不正なハッシュの場合はfalseを返す。
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
