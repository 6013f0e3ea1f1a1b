package qrtoken

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/repair-service/internal/domain"
	apperrors "github.com/spec-kit/repair-service/pkg/util"
)

// TTL is the fixed lifetime of every QR token: 365 days. Not configurable per
// call; validity is purely exp vs. now plus signature integrity.
const TTL = 365 * 24 * time.Hour

// Service issues and verifies signed QR hand-off tokens. Stateless and safe
// for concurrent use.
type Service struct {
	secret  []byte
	baseURL string
	now     func() time.Time
}

// NewService builds a token service. The secret must be dedicated to QR
// tokens; session tokens sign with a different key.
func NewService(secret, baseURL string) *Service {
	return &Service{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// claims wraps the QR wire payload as JWT claims. The embedded registered
// claims contribute only iat and exp; everything else stays empty so the
// signed JSON carries exactly the wire fields.
type claims struct {
	RepairID     string        `json:"repairId"`
	Type         domain.QRType `json:"type"`
	ShopID       string        `json:"shopId,omitempty"`
	ProductType  string        `json:"productType,omitempty"`
	ProductBrand string        `json:"productBrand,omitempty"`
	ProductModel string        `json:"productModel,omitempty"`
	SerialNumber string        `json:"serialNumber,omitempty"`
	CustomerID   string        `json:"customerId,omitempty"`
	CustomerName string        `json:"customerName,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs payload into a compact token. RepairID and Type are required;
// iat and exp are set here and any caller-provided values are overwritten.
// The second return value is the scannable URL for the token's type.
func (s *Service) Issue(payload domain.QRData) (string, string, error) {
	if strings.TrimSpace(payload.RepairID) == "" {
		return "", "", apperrors.NewValidationError("repairId required", nil)
	}
	if !payload.Type.IsValid() {
		return "", "", apperrors.NewValidationError("type must be product or customer", nil)
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(TTL)
	tokenClaims := &claims{
		RepairID:     payload.RepairID,
		Type:         payload.Type,
		ShopID:       payload.ShopID,
		ProductType:  payload.ProductType,
		ProductBrand: payload.ProductBrand,
		ProductModel: payload.ProductModel,
		SerialNumber: payload.SerialNumber,
		CustomerID:   payload.CustomerID,
		CustomerName: payload.CustomerName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims).SignedString(s.secret)
	if err != nil {
		return "", "", apperrors.NewInternalError(err)
	}
	return token, s.scanURL(payload.Type, token), nil
}

// Verify checks a raw token or a scan URL containing one and returns the
// decoded payload. Pure read-side check: repeated scans of the same token all
// succeed until exp; single-use semantics are the caller's to layer on top via
// the repair status.
func (s *Service) Verify(tokenOrURL string) (*domain.QRData, error) {
	token, err := extractToken(tokenOrURL)
	if err != nil {
		return nil, err
	}

	parsedClaims := &claims{}
	parsed, err := jwt.ParseWithClaims(token, parsedClaims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, apperrors.NewExpired()
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, apperrors.NewInvalidSignature()
		default:
			return nil, apperrors.NewMalformedInput("token is not parseable")
		}
	}
	if !parsed.Valid {
		return nil, apperrors.NewInvalidSignature()
	}
	if !parsedClaims.Type.IsValid() || parsedClaims.RepairID == "" {
		return nil, apperrors.NewMalformedInput("token payload incomplete")
	}

	data := &domain.QRData{
		RepairID:     parsedClaims.RepairID,
		Type:         parsedClaims.Type,
		ShopID:       parsedClaims.ShopID,
		ProductType:  parsedClaims.ProductType,
		ProductBrand: parsedClaims.ProductBrand,
		ProductModel: parsedClaims.ProductModel,
		SerialNumber: parsedClaims.SerialNumber,
		CustomerID:   parsedClaims.CustomerID,
		CustomerName: parsedClaims.CustomerName,
	}
	if parsedClaims.IssuedAt != nil {
		data.IssuedAt = parsedClaims.IssuedAt.Unix()
	}
	if parsedClaims.ExpiresAt != nil {
		data.ExpiresAt = parsedClaims.ExpiresAt.Unix()
	}
	return data, nil
}

func (s *Service) scanURL(qrType domain.QRType, token string) string {
	path := "/scan/product"
	if qrType == domain.QRTypeCustomer {
		path = "/customer/track"
	}
	return fmt.Sprintf("%s%s?data=%s", s.baseURL, path, url.QueryEscape(token))
}

// extractToken accepts either a bare token or a URL whose data/token query
// parameter carries one.
func extractToken(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", apperrors.NewMalformedInput("token missing")
	}
	if !strings.Contains(input, "://") && !strings.Contains(input, "?") {
		return input, nil
	}

	parsed, err := url.Parse(input)
	if err != nil {
		return "", apperrors.NewMalformedInput("url is not parseable")
	}
	query := parsed.Query()
	for _, key := range []string{"data", "token"} {
		if val := query.Get(key); val != "" {
			return val, nil
		}
	}
	return "", apperrors.NewMalformedInput("url carries no token parameter")
}
