package qrtoken

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/repair-service/internal/domain"
	apperrors "github.com/spec-kit/repair-service/pkg/util"
)

const testSecret = "test-qr-secret"
const testBase = "https://shop.example.com"

func newTestService() *Service {
	return NewService(testSecret, testBase)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := newTestService()

	payload := domain.QRData{
		RepairID:     "REP42",
		Type:         domain.QRTypeProduct,
		ShopID:       "shop-1",
		ProductType:  "ring",
		ProductBrand: "Cartier",
		ProductModel: "Love",
		SerialNumber: "SN-001",
	}
	token, _, err := svc.Issue(payload)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	decoded, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if decoded.RepairID != "REP42" {
		t.Errorf("expected repairId REP42, got %q", decoded.RepairID)
	}
	if decoded.Type != domain.QRTypeProduct {
		t.Errorf("expected type product, got %q", decoded.Type)
	}
	if decoded.ProductBrand != "Cartier" || decoded.SerialNumber != "SN-001" {
		t.Errorf("product fields not preserved: %+v", decoded)
	}
	if decoded.ExpiresAt-decoded.IssuedAt != 31536000 {
		t.Errorf("expected exp - iat == 31536000, got %d", decoded.ExpiresAt-decoded.IssuedAt)
	}
}

func TestIssueBuildsScanURLByType(t *testing.T) {
	svc := newTestService()

	_, productURL, err := svc.Issue(domain.QRData{RepairID: "r1", Type: domain.QRTypeProduct})
	if err != nil {
		t.Fatalf("Issue product: %v", err)
	}
	if !strings.HasPrefix(productURL, testBase+"/scan/product?data=") {
		t.Errorf("unexpected product URL %q", productURL)
	}

	_, customerURL, err := svc.Issue(domain.QRData{RepairID: "r1", Type: domain.QRTypeCustomer, CustomerID: "c1", CustomerName: "Dana"})
	if err != nil {
		t.Fatalf("Issue customer: %v", err)
	}
	if !strings.HasPrefix(customerURL, testBase+"/customer/track?data=") {
		t.Errorf("unexpected customer URL %q", customerURL)
	}
}

func TestVerifyAcceptsScanURL(t *testing.T) {
	svc := newTestService()

	_, url, err := svc.Issue(domain.QRData{RepairID: "REP7", Type: domain.QRTypeCustomer, CustomerID: "c9"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	decoded, err := svc.Verify(url)
	if err != nil {
		t.Fatalf("Verify(url): %v", err)
	}
	if decoded.RepairID != "REP7" || decoded.CustomerID != "c9" {
		t.Errorf("unexpected payload %+v", decoded)
	}
}

func TestVerifyMissingToken(t *testing.T) {
	svc := newTestService()

	cases := []string{"", "   ", testBase + "/scan/product", testBase + "/scan/product?other=1"}
	for _, input := range cases {
		_, err := svc.Verify(input)
		if !apperrors.HasCode(err, apperrors.CodeMalformedInput) {
			t.Errorf("Verify(%q): expected MALFORMED_INPUT, got %v", input, err)
		}
	}
}

func TestVerifyGarbageToken(t *testing.T) {
	svc := newTestService()

	_, err := svc.Verify("not-a-token")
	if !apperrors.HasCode(err, apperrors.CodeMalformedInput) {
		t.Errorf("expected MALFORMED_INPUT, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	svc := newTestService()

	token, _, err := svc.Issue(domain.QRData{RepairID: "REP1", Type: domain.QRTypeProduct})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Signature stays valid; only the clock moves past exp.
	svc.now = func() time.Time { return time.Now().Add(366 * 24 * time.Hour) }
	_, err = svc.Verify(token)
	if !apperrors.HasCode(err, apperrors.CodeExpired) {
		t.Errorf("expected EXPIRED, got %v", err)
	}
}

func TestVerifyTamperedPayload(t *testing.T) {
	svc := newTestService()

	token, _, err := svc.Issue(domain.QRData{RepairID: "REP1", Type: domain.QRTypeProduct})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	tampered := strings.Replace(string(payload), "REP1", "REP2", 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(tampered))

	_, err = svc.Verify(strings.Join(parts, "."))
	if !apperrors.HasCode(err, apperrors.CodeInvalidSignature) {
		t.Errorf("expected INVALID_SIGNATURE, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := newTestService().Issue(domain.QRData{RepairID: "REP1", Type: domain.QRTypeProduct})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := NewService("another-secret", testBase)
	_, err = other.Verify(token)
	if !apperrors.HasCode(err, apperrors.CodeInvalidSignature) {
		t.Errorf("expected INVALID_SIGNATURE, got %v", err)
	}
}

func TestIssueRequiresRepairAndType(t *testing.T) {
	svc := newTestService()

	if _, _, err := svc.Issue(domain.QRData{Type: domain.QRTypeProduct}); err == nil {
		t.Error("expected error for missing repairId")
	}
	if _, _, err := svc.Issue(domain.QRData{RepairID: "r1", Type: "other"}); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestVerifyIsRepeatable(t *testing.T) {
	svc := newTestService()

	token, _, err := svc.Issue(domain.QRData{RepairID: "REP1", Type: domain.QRTypeCustomer, CustomerID: "c1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.Verify(token); err != nil {
			t.Fatalf("Verify attempt %d: %v", i+1, err)
		}
	}
}
