// Package mock is an in-process implementation of the backoffice API backed
// by seeded random data. It is selected with API_MODE=mock and used by the
// handler end-to-end tests.
package mock

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

// DefaultCompanyID is the company of every seeded record.
const DefaultCompanyID = "acme"

// Options configures the generated data set.
type Options struct {
	Seed             int64
	TransactionCount int
	// Now anchors generated dates; transactions span the 60 days before it.
	Now time.Time
	// Latency is added to every call.
	Latency time.Duration
}

// SeedAccount is a seeded backoffice login.
type SeedAccount struct {
	Email    string
	Password string
	Roles    []string
}

// SeedAccounts are the backoffice users created by New, one per role.
var SeedAccounts = []SeedAccount{
	{"admin@backoffice.test", "admin-pass", []string{"admin"}},
	{"configurador@backoffice.test", "config-pass", []string{"configurador"}},
	{"compensador@backoffice.test", "comp-pass", []string{"compensador"}},
	{"operador@backoffice.test", "oper-pass", []string{"operador"}},
	{"analista@backoffice.test", "analyst-pass", []string{"analista"}},
}

type backofficeAccount struct {
	user         domain.BackofficeUser
	passwordHash []byte
}

// Service implements port.BackofficeAPI in memory.
type Service struct {
	mu       sync.Mutex
	rng      *rand.Rand
	latency  time.Duration
	logger   *zap.Logger
	users    []domain.CustomerUser
	wallets  map[string][]domain.Wallet
	txs      []domain.RawTransaction
	accounts []*backofficeAccount
	rules    []domain.AntiFraudRule
	calls    map[string]int
	failures map[string]error
}

// New generates a data set from opts.
func New(opts Options, logger *zap.Logger) *Service {
	if opts.TransactionCount <= 0 {
		opts.TransactionCount = 200
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		rng:      rand.New(rand.NewSource(opts.Seed)),
		latency:  opts.Latency,
		logger:   logger,
		wallets:  make(map[string][]domain.Wallet),
		calls:    make(map[string]int),
		failures: make(map[string]error),
	}
	s.seedUsers(opts.Now)
	s.seedTransactions(opts.TransactionCount, opts.Now)
	s.seedAccounts(opts.Now)
	s.seedRules(opts.Now)

	logger.Info("mock backoffice API seeded",
		zap.Int64("seed", opts.Seed),
		zap.Int("users", len(s.users)),
		zap.Int("transactions", len(s.txs)),
	)
	return s
}

// Calls returns how many times op was invoked.
func (s *Service) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (s *Service) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// FailNext makes the next call of op return err.
func (s *Service) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// Ping always succeeds.
func (s *Service) Ping(ctx context.Context) error {
	return ctx.Err()
}

// enter records a call and applies latency and injected failures. It must be
// called without holding mu.
func (s *Service) enter(ctx context.Context, op string) error {
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return &domain.ErrTimeout{Operation: op}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

// ============================================================
// Seeding
// ============================================================

var (
	firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Elena", "Facundo", "Gabriela", "Hugo", "Inés", "Julián"}
	lastNames  = []string{"García", "Pereira", "López", "Martínez", "Silva", "Romero", "Fernández", "Sosa"}
	cities     = []string{"Buenos Aires", "Montevideo", "São Paulo", "Santiago", "Lima"}
	currencies = []string{"USD", "ARS", "BRL"}
	statuses   = []string{
		domain.StatusCompleted, domain.StatusCompleted, domain.StatusCompleted,
		domain.StatusPending, domain.StatusFailed, domain.StatusCancelled,
		domain.StatusConfirmed, domain.StatusApproved, domain.StatusRejected,
	}
	txTypes    = []string{domain.TypeDeposit, domain.TypeWithdrawal, domain.TypeTransfer, domain.TypePayment, domain.TypeRefund}
	merchants  = []string{"Kiosko Sol", "Farmacia Central", "Super 24", "Nube Store"}
	categories = []string{"food", "health", "retail", "services"}
)

func (s *Service) seedUsers(now time.Time) {
	for i := 0; i < 30; i++ {
		first := firstNames[s.rng.Intn(len(firstNames))]
		last := lastNames[s.rng.Intn(len(lastNames))]
		id := fmt.Sprintf("u%03d", i+1)
		userType := "personal"
		docType := "DNI"
		if i%4 == 0 {
			userType, docType = "business", "CUIT"
		}
		u := domain.CustomerUser{
			ID:           id,
			Name:         first,
			Surname:      last,
			Email:        fmt.Sprintf("%s.%s%d@mail.test", strings.ToLower(asciiFold(first)), strings.ToLower(asciiFold(last)), i+1),
			Phone:        fmt.Sprintf("+54 11 4%03d-%04d", s.rng.Intn(1000), s.rng.Intn(10000)),
			CellPhone:    fmt.Sprintf("+54 9 11 5%03d-%04d", s.rng.Intn(1000), s.rng.Intn(10000)),
			Document:     fmt.Sprintf("%08d", 20000000+s.rng.Intn(30000000)),
			DocumentType: docType,
			BirthDate:    now.AddDate(-20-s.rng.Intn(40), -s.rng.Intn(12), 0).Format("2006-01-02"),
			Address:      fmt.Sprintf("Calle %d", 100+s.rng.Intn(9000)),
			City:         cities[s.rng.Intn(len(cities))],
			Country:      "AR",
			UserType:     userType,
			Status:       domain.UserActive,
			CreatedAt:    now.AddDate(0, -s.rng.Intn(24), -s.rng.Intn(28)),
		}
		s.users = append(s.users, u)

		n := 1 + s.rng.Intn(2)
		for j := 0; j < n; j++ {
			s.wallets[id] = append(s.wallets[id], domain.Wallet{
				ID:        fmt.Sprintf("w%03d-%d", i+1, j+1),
				UserID:    id,
				Currency:  currencies[j%len(currencies)],
				Balance:   decimal.NewFromInt(int64(s.rng.Intn(500000))).Shift(-2).StringFixed(2),
				Status:    "active",
				CardID:    fmt.Sprintf("c%03d-%d", i+1, j+1),
				CompanyID: DefaultCompanyID,
			})
		}
	}
}

// seedTransactions spreads n transactions over the wallets, alternating the
// legacy payload shapes so the normalizer is exercised.
func (s *Service) seedTransactions(n int, now time.Time) {
	var all []domain.Wallet
	for _, u := range s.users {
		all = append(all, s.wallets[u.ID]...)
	}
	for i := 0; i < n; i++ {
		w := all[s.rng.Intn(len(all))]
		when := now.Add(-time.Duration(s.rng.Int63n(int64(60 * 24 * time.Hour))))
		amount := decimal.NewFromInt(int64(100 + s.rng.Intn(200000))).Shift(-2)
		typ := txTypes[s.rng.Intn(len(txTypes))]

		raw := domain.RawTransaction{
			ID:         int64(1000 + i),
			Amount:     &amount,
			Currency:   w.Currency,
			Status:     statuses[s.rng.Intn(len(statuses))],
			WalletID:   w.ID,
			CustomerID: w.UserID,
			AdditionalInfo: map[string]any{
				domain.InfoMerchant: merchants[s.rng.Intn(len(merchants))],
				domain.InfoCategory: categories[s.rng.Intn(len(categories))],
				domain.InfoUserType: s.userType(w.UserID),
			},
		}
		if i%3 != 0 {
			raw.TransactionID = fmt.Sprintf("TX-%06d", 1000+i)
		}

		switch i % 5 {
		case 0:
			raw.TransactionType = typ
			raw.Date = when.Format(time.RFC3339)
		case 1:
			raw.TransactionTypeSnake = typ
			raw.CreatedAt = when.Format("2006-01-02 15:04:05")
		case 2:
			raw.Type = typ
			raw.Date = when.Format("2006-01-02T15:04:05")
		case 3:
			raw.AdditionalInfo[domain.InfoPaymentType] = typ
			raw.CreatedAt = when.Format(time.RFC3339Nano)
		case 4:
			raw.TransactionType = typ
			if i%20 == 4 {
				// a few undated records, as seen upstream
				break
			}
			raw.Date = when.Format("2006-01-02")
		}
		s.txs = append(s.txs, raw)
	}
}

func (s *Service) seedAccounts(now time.Time) {
	for i, a := range SeedAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.MinCost)
		if err != nil {
			s.logger.Error("hash seed password", zap.Error(err))
			continue
		}
		local := strings.SplitN(a.Email, "@", 2)[0]
		s.accounts = append(s.accounts, &backofficeAccount{
			user: domain.BackofficeUser{
				ID:        fmt.Sprintf("bo-%d", i+1),
				Name:      strings.ToUpper(local[:1]) + local[1:],
				Surname:   "Backoffice",
				Email:     a.Email,
				Roles:     append([]string(nil), a.Roles...),
				CompanyID: DefaultCompanyID,
				Active:    true,
				CreatedAt: now.AddDate(0, -6, 0),
			},
			passwordHash: hash,
		})
	}
}

func (s *Service) seedRules(now time.Time) {
	s.rules = []domain.AntiFraudRule{
		{ID: "r1", Name: "Max single amount", Type: "max_amount", Threshold: "5000", Currency: "USD", Enabled: true, UpdatedAt: now},
		{ID: "r2", Name: "Max daily transactions", Type: "max_daily_count", Threshold: "50", Enabled: true, UpdatedAt: now},
		{ID: "r3", Name: "Max single amount ARS", Type: "max_amount", Threshold: "4000000", Currency: "ARS", Enabled: false, UpdatedAt: now},
	}
}

func (s *Service) userType(userID string) string {
	for _, u := range s.users {
		if u.ID == userID {
			return u.UserType
		}
	}
	return ""
}

func asciiFold(s string) string {
	r := strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ã", "a", "ñ", "n", "Í", "I", "É", "E")
	return r.Replace(s)
}

func newID() string {
	return uuid.NewString()
}
