package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/wfunc/tower-game/internal/config"
	"github.com/wfunc/tower-game/internal/game/tower"
)

// SessionClaims JWT声明
//
// 三元组声明与余额、哈希链、游戏的作用域一一对应，由宿主
// 平台签发，本服务只验签不签发。
type SessionClaims struct {
	UserID       string `json:"user_id"`
	CasinoID     string `json:"casino_id"`
	ExperienceID string `json:"experience_id"`
	jwt.RegisteredClaims
}

// AuthMiddleware JWT认证中间件
type AuthMiddleware struct {
	secret []byte
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(cfg *config.JWTConfig) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(cfg.Secret),
	}
}

// RequireSession 需要会话的中间件
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    "NO_TOKEN",
				"message": "缺少认证令牌",
			})
			c.Abort()
			return
		}

		claims, err := m.parseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    "INVALID_TOKEN",
				"message": "无效的令牌",
				"details": err.Error(),
			})
			c.Abort()
			return
		}

		if claims.UserID == "" || claims.CasinoID == "" || claims.ExperienceID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    "INVALID_TOKEN",
				"message": "令牌缺少会话作用域",
			})
			c.Abort()
			return
		}

		// 将会话信息存入上下文
		c.Set("userID", claims.UserID)
		c.Set("casinoID", claims.CasinoID)
		c.Set("experienceID", claims.ExperienceID)

		c.Next()
	}
}

// parseToken 验签并解析令牌
func (m *AuthMiddleware) parseToken(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// extractToken 从请求中提取令牌
func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	// 1. 从Authorization Header获取 (Bearer Token)
	bearerToken := c.GetHeader("Authorization")
	if bearerToken != "" {
		parts := strings.Split(bearerToken, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// 2. 从X-Access-Token Header获取
	if token := c.GetHeader("X-Access-Token"); token != "" {
		return token
	}

	// 3. 从Cookie获取
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}

	return ""
}

// GetSession 从上下文获取游戏会话
func GetSession(c *gin.Context) (tower.Session, bool) {
	userID, ok1 := c.Get("userID")
	casinoID, ok2 := c.Get("casinoID")
	experienceID, ok3 := c.Get("experienceID")
	if !ok1 || !ok2 || !ok3 {
		return tower.Session{}, false
	}

	session := tower.Session{
		UserID:       userID.(string),
		CasinoID:     casinoID.(string),
		ExperienceID: experienceID.(string),
	}
	return session, true
}

// IsAuthenticated 检查是否已认证
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get("userID")
	return exists
}
