package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const tokenBytes = 32

// NewToken выдаёт непрозрачный токен: 32 случайных байта в hex.
func NewToken() string {
	b := make([]byte, tokenBytes)
	// с Go 1.24 rand.Read не возвращает ошибку
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// HashToken возвращает hex(SHA-256(token)) для хранения в БД.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
