package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSigningSecret = "test-signing-secret-at-least-32-bytes"

func mustHash(t *testing.T, secret string) string {
	t.Helper()
	h, err := HashSecret(secret)
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	return h
}

func TestHashSecret_RoundTrip(t *testing.T) {
	hash := mustHash(t, "correct-horse-battery-staple")

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=1$") {
		t.Errorf("hash = %q, want PHC argon2id prefix", hash)
	}

	tests := []struct {
		secret string
		want   bool
	}{
		{"correct-horse-battery-staple", true},
		{"wrong-secret", false},
		{"", false},
	}
	for _, tt := range tests {
		ok, err := VerifySecret(tt.secret, hash)
		if err != nil {
			t.Fatalf("VerifySecret(%q) error = %v", tt.secret, err)
		}
		if ok != tt.want {
			t.Errorf("VerifySecret(%q) = %v, want %v", tt.secret, ok, tt.want)
		}
	}
}

func TestHashSecret_UniqueSalts(t *testing.T) {
	if mustHash(t, "same") == mustHash(t, "same") {
		t.Error("two hashes of the same secret should have different salts")
	}
}

func TestHashSecret_Empty(t *testing.T) {
	if _, err := HashSecret(""); !errors.Is(err, ErrInvalidClient) {
		t.Errorf("HashSecret(\"\") error = %v, want ErrInvalidClient", err)
	}
}

func TestVerifySecret_MalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not phc", "plaintext"},
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA"},
		{"wrong version", "$argon2id$v=16$m=65536,t=3,p=1$c2FsdA$aGFzaA"},
		{"bad params", "$argon2id$v=19$m=x$c2FsdA$aGFzaA"},
		{"bad salt", "$argon2id$v=19$m=65536,t=3,p=1$!!!$aGFzaA"},
		{"empty hash", "$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifySecret("secret", tt.hash); err == nil {
				t.Error("VerifySecret() should fail on malformed hash")
			}
		})
	}
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	client := Client{ID: "wall-panel", Role: RoleOperator}

	token, expires, err := GenerateAccessToken(client, testSigningSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if until := time.Until(expires); until <= 0 || until > time.Minute {
		t.Errorf("expiry in %v, want within one minute", until)
	}

	claims, err := ParseToken(token, testSigningSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "wall-panel" || claims.Role != RoleOperator {
		t.Errorf("claims = %s/%s, want wall-panel/operator", claims.Subject, claims.Role)
	}
	if claims.Issuer != Issuer || claims.ID == "" {
		t.Errorf("issuer = %q id = %q", claims.Issuer, claims.ID)
	}
}

func TestGenerateAccessToken_DefaultTTL(t *testing.T) {
	_, expires, err := GenerateAccessToken(Client{ID: "c", Role: RoleViewer}, testSigningSecret, 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if until := time.Until(expires); until < DefaultTokenTTL-time.Minute || until > DefaultTokenTTL {
		t.Errorf("expiry in %v, want about %v", until, DefaultTokenTTL)
	}
}

func signClaims(t *testing.T, claims jwt.Claims, method jwt.SigningMethod, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return s
}

func TestParseToken_Rejects(t *testing.T) {
	now := time.Now()
	valid := func() Claims {
		return Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    Issuer,
				Subject:   "c1",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			},
			Role: RoleAdmin,
		}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	noExpiry := valid()
	noExpiry.ExpiresAt = nil
	otherIssuer := valid()
	otherIssuer.Issuer = "someone-else"
	noSubject := valid()
	noSubject.Subject = ""
	badRole := valid()
	badRole.Role = "owner"

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", signClaims(t, valid(), jwt.SigningMethodHS256, []byte("another-secret")), testSigningSecret},
		{"expired", signClaims(t, expired, jwt.SigningMethodHS256, []byte(testSigningSecret)), testSigningSecret},
		{"no expiry", signClaims(t, noExpiry, jwt.SigningMethodHS256, []byte(testSigningSecret)), testSigningSecret},
		{"other issuer", signClaims(t, otherIssuer, jwt.SigningMethodHS256, []byte(testSigningSecret)), testSigningSecret},
		{"no subject", signClaims(t, noSubject, jwt.SigningMethodHS256, []byte(testSigningSecret)), testSigningSecret},
		{"unknown role", signClaims(t, badRole, jwt.SigningMethodHS256, []byte(testSigningSecret)), testSigningSecret},
		{"wrong algorithm", signClaims(t, valid(), jwt.SigningMethodHS512, []byte(testSigningSecret)), testSigningSecret},
		{"unsigned", signClaims(t, valid(), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType), testSigningSecret},
		{"garbage", "not.a.token", testSigningSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.token, tt.secret); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleViewer, PermShadeRead, true},
		{RoleViewer, PermShadeOperate, false},
		{RoleViewer, PermAuditRead, false},
		{RoleOperator, PermShadeOperate, true},
		{RoleOperator, PermDiagnosticsRead, false},
		{RoleAdmin, PermDiagnosticsRead, true},
		{RoleAdmin, PermAuditRead, true},
		{"owner", PermShadeRead, false},
	}
	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.perm); got != tt.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestPermissionsForRole(t *testing.T) {
	if PermissionsForRole("unknown") != nil {
		t.Error("unknown role should have no permissions")
	}
	perms := PermissionsForRole(RoleOperator)
	perms[0] = PermAuditRead
	if HasPermission(RoleOperator, PermAuditRead) {
		t.Error("PermissionsForRole() must return a copy")
	}
	for _, r := range ValidRoles {
		if !IsValidRole(r) || len(PermissionsForRole(r)) == 0 {
			t.Errorf("role %q should be valid with permissions", r)
		}
	}
}

func TestNewClientStore_Validation(t *testing.T) {
	hash := mustHash(t, "s3cret")

	tests := []struct {
		name    string
		clients []Client
		wantErr bool
	}{
		{"empty", nil, false},
		{"valid", []Client{{ID: "a", Role: RoleViewer, SecretHash: hash}, {ID: "b", Role: RoleAdmin, SecretHash: hash}}, false},
		{"empty id", []Client{{Role: RoleViewer, SecretHash: hash}}, true},
		{"duplicate", []Client{{ID: "a", Role: RoleViewer, SecretHash: hash}, {ID: "a", Role: RoleAdmin, SecretHash: hash}}, true},
		{"bad role", []Client{{ID: "a", Role: "root", SecretHash: hash}}, true},
		{"bad hash", []Client{{ID: "a", Role: RoleViewer, SecretHash: "plaintext"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewClientStore(tt.clients)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidClient) {
					t.Errorf("NewClientStore() error = %v, want ErrInvalidClient", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClientStore() error = %v", err)
			}
			if store.Len() != len(tt.clients) {
				t.Errorf("Len() = %d, want %d", store.Len(), len(tt.clients))
			}
		})
	}
}

func TestClientStore_Authenticate(t *testing.T) {
	store, err := NewClientStore([]Client{{ID: "panel", Role: RoleOperator, SecretHash: mustHash(t, "s3cret")}})
	if err != nil {
		t.Fatalf("NewClientStore() error = %v", err)
	}

	c, err := store.Authenticate("panel", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if c.ID != "panel" || c.Role != RoleOperator {
		t.Errorf("client = %+v", c)
	}

	if _, err := store.Authenticate("panel", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong secret error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := store.Authenticate("nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown client error = %v, want ErrInvalidCredentials", err)
	}
}
