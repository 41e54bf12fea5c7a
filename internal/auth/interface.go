package auth

import "maimai/internal/domain/models"

// JWTVerifier validates access tokens issued by Supabase Auth.
type JWTVerifier interface {
	// VerifyToken returns the parsed claims or domain.ErrUnauthorized
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	Close() error
}
