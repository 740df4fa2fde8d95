package service

import (
	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength 비밀번호 최소 길이
const MinPasswordLength = 6

func hashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkSecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

func hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", common.ErrWeakPassword
	}
	return hashSecret(password)
}
