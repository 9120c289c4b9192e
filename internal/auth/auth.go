package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/cardshop/internal/event"
	apperrors "github.com/utafrali/cardshop/pkg/errors"
	"github.com/utafrali/cardshop/pkg/logger"
)

// DefaultCurrency is applied when a user's settings carry no currency at all.
// An empty currency is a value and is applied as is.
// TODO: confirm the intended fallback with the product owner; "TBH" is kept as shipped.
const DefaultCurrency = "TBH"

var (
	ErrInvalidUser     = errors.New("invalid user")
	ErrInvalidPassword = errors.New("invalid password")
)

// Credentials identify a user at login.
type Credentials struct {
	Login    string `json:"login" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

// Settings are the per-user preferences returned by a successful login.
// A nil Currency means the user has none configured.
type Settings struct {
	Currency *string `json:"currency,omitempty"`
	Password string  `json:"-"`
}

func currencyOf(code string) *string {
	return &code
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Settings Settings `json:"settings"`
}

// DefaultUsers returns the built-in user directory keyed by login.
func DefaultUsers() map[string]Settings {
	return map[string]Settings{
		"user_1@example.com": {Currency: currencyOf("CHF"), Password: "pwd1"},
		"user_2@example.com": {Currency: currencyOf("EURO"), Password: "pwd2"},
	}
}

// Currency holds the session's active currency. It starts empty.
type Currency struct {
	mu    sync.RWMutex
	value string
}

// NewCurrency creates an empty currency store.
func NewCurrency() *Currency {
	return &Currency{}
}

// Get returns the current currency.
func (c *Currency) Get() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Change replaces the current currency.
func (c *Currency) Change(currency string) {
	c.mu.Lock()
	c.value = currency
	c.mu.Unlock()
}

// CurrencyPublisher receives currency changes. *event.Producer satisfies it.
type CurrencyPublisher interface {
	PublishCurrencyChanged(ctx context.Context, data event.CurrencyChangedData) error
}

// Service authenticates users against a fixed directory and applies their
// currency on success.
type Service struct {
	users     map[string]Settings
	currency  *Currency
	delay     time.Duration
	publisher CurrencyPublisher
	logger    *slog.Logger
}

// NewService creates a login service. A nil users map selects DefaultUsers.
func NewService(users map[string]Settings, currency *Currency, delay time.Duration, publisher CurrencyPublisher, logger *slog.Logger) *Service {
	if users == nil {
		users = DefaultUsers()
	}
	return &Service{
		users:     users,
		currency:  currency,
		delay:     delay,
		publisher: publisher,
		logger:    logger,
	}
}

// Login checks creds after the configured delay. On success the user's
// currency, or DefaultCurrency when unset, becomes the active currency.
func (s *Service) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("login: %w", ctx.Err())
		}
	}

	ctx = logger.WithLogin(ctx, creds.Login)
	log := logger.WithContext(ctx, s.logger)

	settings, ok := s.users[creds.Login]
	if !ok {
		log.WarnContext(ctx, "login rejected", slog.String("reason", "unknown user"))
		return nil, apperrors.Unauthorized("INVALID_USER", "invalid user", ErrInvalidUser)
	}
	if subtle.ConstantTimeCompare([]byte(settings.Password), []byte(creds.Password)) != 1 {
		log.WarnContext(ctx, "login rejected", slog.String("reason", "wrong password"))
		return nil, apperrors.Unauthorized("INVALID_PASSWORD", "invalid password", ErrInvalidPassword)
	}

	currency := DefaultCurrency
	if settings.Currency != nil {
		currency = *settings.Currency
	}
	s.currency.Change(currency)

	log.InfoContext(ctx, "user logged in", slog.String("currency", currency))

	if err := s.publisher.PublishCurrencyChanged(ctx, event.CurrencyChangedData{
		Login:    creds.Login,
		Currency: currency,
	}); err != nil {
		log.ErrorContext(ctx, "failed to publish currency.changed event",
			slog.String("error", err.Error()),
		)
	}

	return &LoginResult{Settings: settings}, nil
}

// Currency returns the active currency.
func (s *Service) Currency() string {
	return s.currency.Get()
}
