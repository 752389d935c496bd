package utils

import (
	"crypto/rand"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/howufeel/howufeel/internal/policy"
)

// HashPassword 使用 bcrypt 对密码进行哈希
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassword 验证密码
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// ValidateUserName 验证用户名格式：长度规则在 policy 统一维护，
// 这里只追加字符集约束（字母数字下划线）
func ValidateUserName(username string) bool {
	if !policy.ValidUserName(username) {
		return false
	}
	pattern := `^[a-zA-Z0-9_]+$`
	re := regexp.MustCompile(pattern)
	return re.MatchString(username)
}

// ValidatePassword 验证密码强度（至少8个字符）
func ValidatePassword(password string) bool {
	return len(password) >= 8
}

// ValidateEmail 验证邮箱格式
func ValidateEmail(email string) bool {
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	re := regexp.MustCompile(pattern)
	return re.MatchString(email)
}

// joinCodeAlphabet 去掉了易混淆的 0/O/1/I
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// JoinCodeLen 邀请码长度
const JoinCodeLen = 6

// GenerateJoinCode 生成6位随机邀请码，全局唯一性由调用方查重重试保证
func GenerateJoinCode() (string, error) {
	buf := make([]byte, JoinCodeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf), nil
}
