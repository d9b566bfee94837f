package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/BerniceZTT/territory_end/config"
	"github.com/BerniceZTT/territory_end/models"
)

var jwtSecret = []byte(config.LoadConfig().JWTKey)

// tokenTTL 令牌有效期
const tokenTTL = 30 * 24 * time.Hour

// SetJWTSecret 替换签名密钥
func SetJWTSecret(key string) {
	jwtSecret = []byte(key)
}

// HashPassword 哈希密码
func HashPassword(password string) string {
	hash := sha256.Sum256([]byte(password))
	return hex.EncodeToString(hash[:])
}

// SimpleHash 简单哈希 (sha256 + 盐值)
func SimpleHash(password string, salt string) string {
	if salt == "" {
		salt = "69dc6ee0"
	}
	hash := sha256.Sum256([]byte(password + salt))
	return fmt.Sprintf("sha256$%s$%s", salt, hex.EncodeToString(hash[:]))
}

// VerifyPassword 验证密码，支持标准SHA-256和 sha256$salt$hash 两种格式
func VerifyPassword(password string, hashedPassword string) bool {
	if HashPassword(password) == hashedPassword {
		return true
	}

	parts := strings.Split(hashedPassword, "$")
	if len(parts) == 3 && parts[0] == "sha256" {
		return SimpleHash(password, parts[1]) == hashedPassword
	}

	Logger.Debug().Msg("密码验证失败")
	return false
}

// GenerateToken 生成JWT令牌
func GenerateToken(user models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":       user.ID.Hex(),
		"username": user.Username,
		"role":     string(user.Role),
		"ownerId":  user.OwnerID,
		"exp":      now.Add(tokenTTL).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		Logger.Error().Err(err).Msg("生成token失败")
		return "", fmt.Errorf("签名token失败: %w", err)
	}

	Logger.Info().
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Msg("Token生成成功")

	return tokenString, nil
}

// ParseToken 解析和验证JWT令牌
func ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 验证签名方法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("无效的token")
}

// HasPermission 检查用户是否有权限
func HasPermission(role models.UserRole, resource string, action string) bool {
	// 超级管理员拥有所有权限
	if role == models.UserRoleSUPER_ADMIN {
		return true
	}

	// 定义各角色权限
	permissions := map[models.UserRole]map[string][]string{
		models.UserRoleANALYST: {
			"analytics": {"read", "export"},
			"snapshots": {"read", "import"},
			"settings":  {"read", "update"},
			"tasks":     {"read", "create"},
		},
		models.UserRoleREGIONAL_MANAGER: {
			"analytics": {"read", "export"},
			"snapshots": {"read"},
			"settings":  {"read"},
			"tasks":     {"read", "create"},
		},
	}

	for _, a := range permissions[role][resource] {
		if a == action {
			return true
		}
	}
	return false
}
