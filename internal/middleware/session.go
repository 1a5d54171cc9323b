package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const userIDKey = "user_id"

// SessionOptions 会话 Cookie 配置
type SessionOptions struct {
	CookieName string
	Secret     []byte
	TTL        time.Duration
	Secure     bool
	Now        func() time.Time
}

// SessionIssuer 签发与校验会话令牌
// 令牌为 HS256 JWT，subject 为随机 UUID，作为用户ID使用
type SessionIssuer struct {
	opts SessionOptions
}

// NewSessionIssuer 创建会话签发器
func NewSessionIssuer(opts SessionOptions) *SessionIssuer {
	if opts.CookieName == "" {
		opts.CookieName = "assessly_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	// 未配置密钥时使用进程内随机密钥，重启后旧令牌失效
	if len(opts.Secret) == 0 {
		opts.Secret = []byte(uuid.New().String())
	}
	return &SessionIssuer{opts: opts}
}

// Issue 为新用户签发令牌
func (s *SessionIssuer) Issue() (userID, token string, err error) {
	userID = uuid.New().String()
	now := s.opts.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TTL)),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return userID, token, nil
}

// Parse 校验令牌并返回用户ID
func (s *SessionIssuer) Parse(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.opts.Secret, nil
	}, jwt.WithTimeFunc(s.opts.Now))
	if err != nil {
		return "", err
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", errors.New("invalid session subject")
	}
	return claims.Subject, nil
}

// SessionMiddleware 会话中间件
// Cookie 缺失、过期或签名无效时签发新令牌
func SessionMiddleware(s *SessionIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(s.opts.CookieName); err == nil && raw != "" {
			if userID, err := s.Parse(raw); err == nil {
				c.Set(userIDKey, userID)
				c.Next()
				return
			}
		}

		userID, token, err := s.Issue()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    -1,
				"message": "failed to start session",
			})
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(s.opts.CookieName, token, int(s.opts.TTL.Seconds()), "/", "", s.opts.Secure, true)
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// GetUserID 从上下文获取当前用户ID
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}
