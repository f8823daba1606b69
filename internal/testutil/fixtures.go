package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/noit/research-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	email    string
	password string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		email:    fmt.Sprintf("user_%s@example.com", uuid.New().String()[:8]),
		password: "testpassword123",
	}
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		Email:        b.email,
		PasswordHash: string(hashedPassword),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// TokenResponse matches the API auth response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// BuildAndAuthenticate signs the user up via the API and returns the stored
// user and its access token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"email":    b.email,
		"password": b.password,
	})

	resp, err := http.Post(ts.URL("/signup"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to sign up user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	user, err := ts.Repos.User.GetByEmail(context.Background(), b.email)
	if err != nil {
		t.Fatalf("failed to load signed up user: %v", err)
	}

	return user, tokenResp.AccessToken
}

// QueryBuilder creates query records directly in the database
type QueryBuilder struct {
	user      *domain.User
	question  string
	answer    *string
	createdAt time.Time
}

// NewQueryBuilder creates a new QueryBuilder owned by user
func NewQueryBuilder(user *domain.User) *QueryBuilder {
	answer := "an answer"
	return &QueryBuilder{
		user:     user,
		question: fmt.Sprintf("question %s", uuid.New().String()[:8]),
		answer:   &answer,
	}
}

// WithQuestion sets the question text
func (b *QueryBuilder) WithQuestion(question string) *QueryBuilder {
	b.question = question
	return b
}

// WithoutAnswer stores the record with a nil answer
func (b *QueryBuilder) WithoutAnswer() *QueryBuilder {
	b.answer = nil
	return b
}

// WithCreatedAt pins the creation timestamp
func (b *QueryBuilder) WithCreatedAt(at time.Time) *QueryBuilder {
	b.createdAt = at
	return b
}

// Build creates the query in the database
func (b *QueryBuilder) Build(t *testing.T, db *gorm.DB) *domain.Query {
	t.Helper()

	query := &domain.Query{
		UserID:    b.user.ID,
		Question:  b.question,
		Answer:    b.answer,
		Meta:      datatypes.NewJSONType(domain.QueryMeta{Model: "test-model", Orchestrator: "echo"}),
		CreatedAt: b.createdAt,
	}

	if err := db.Create(query).Error; err != nil {
		t.Fatalf("failed to create query: %v", err)
	}

	return query
}

// SeedQueries creates count queries for user, one second apart, oldest first
func SeedQueries(t *testing.T, db *gorm.DB, user *domain.User, count int) []*domain.Query {
	t.Helper()

	base := time.Now().Add(-time.Duration(count) * time.Second).UTC()
	queries := make([]*domain.Query, 0, count)
	for i := 0; i < count; i++ {
		q := NewQueryBuilder(user).
			WithQuestion(fmt.Sprintf("question %d", i)).
			WithCreatedAt(base.Add(time.Duration(i)*time.Second)).
			Build(t, db)
		queries = append(queries, q)
	}
	return queries
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}
