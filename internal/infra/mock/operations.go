package mock

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

// ============================================================
// Customers & wallets
// ============================================================

// SearchUsers returns customers matching every parameter. Free-text fields
// match case-insensitive substrings; enum fields match exactly.
func (s *Service) SearchUsers(ctx context.Context, params domain.UserSearchParams) ([]domain.CustomerUser, error) {
	if err := s.enter(ctx, "SearchUsers"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.CustomerUser{}
	for _, u := range s.users {
		if matchesUser(u, params) {
			out = append(out, u)
		}
	}
	return out, nil
}

func matchesUser(u domain.CustomerUser, params domain.UserSearchParams) bool {
	for k, v := range params {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		var field string
		exact := false
		switch k {
		case "id":
			field = u.ID
		case "name":
			field = u.Name
		case "surname":
			field = u.Surname
		case "email":
			field = u.Email
		case "phone":
			field = u.Phone
		case "cellPhone":
			field = u.CellPhone
		case "document":
			field = u.Document
		case "documentType":
			field, exact = u.DocumentType, true
		case "userType":
			field, exact = u.UserType, true
		case "status":
			field, exact = u.Status, true
		default:
			continue
		}
		if exact {
			if field != v {
				return false
			}
			continue
		}
		if !strings.Contains(strings.ToLower(field), strings.ToLower(v)) {
			return false
		}
	}
	return true
}

func (s *Service) ListUserWallets(ctx context.Context, userID string) ([]domain.Wallet, error) {
	if err := s.enter(ctx, "ListUserWallets"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findUser(userID) < 0 {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return append([]domain.Wallet{}, s.wallets[userID]...), nil
}

func (s *Service) BlockUser(ctx context.Context, userID, reason string) error {
	if err := s.enter(ctx, "BlockUser"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findUser(userID)
	if i < 0 {
		return &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	s.users[i].Status = domain.UserBlocked
	s.users[i].BlockReason = reason
	return nil
}

func (s *Service) UnblockUser(ctx context.Context, userID string) error {
	if err := s.enter(ctx, "UnblockUser"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findUser(userID)
	if i < 0 {
		return &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	s.users[i].Status = domain.UserActive
	s.users[i].BlockReason = ""
	return nil
}

func (s *Service) findUser(id string) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// ============================================================
// Transactions
// ============================================================

func (s *Service) GetAllTransactions(ctx context.Context) ([]domain.RawTransaction, error) {
	if err := s.enter(ctx, "GetAllTransactions"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.RawTransaction{}, s.txs...), nil
}

func (s *Service) GetWalletTransactions(ctx context.Context, userID, walletID string) ([]domain.RawTransaction, error) {
	if err := s.enter(ctx, "GetWalletTransactions"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wallet(userID, walletID); !ok {
		return nil, &domain.ErrNotFound{Resource: "wallet", ID: walletID}
	}
	out := []domain.RawTransaction{}
	for _, t := range s.txs {
		if t.WalletID == walletID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Service) GetCardTransactions(ctx context.Context, cardID, userID string) ([]domain.RawTransaction, error) {
	if err := s.enter(ctx, "GetCardTransactions"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	walletID := ""
	for _, w := range s.wallets[userID] {
		if w.CardID == cardID {
			walletID = w.ID
		}
	}
	if walletID == "" {
		return nil, &domain.ErrNotFound{Resource: "card", ID: cardID}
	}
	out := []domain.RawTransaction{}
	for _, t := range s.txs {
		if t.WalletID == walletID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Service) ChangeTransactionStatus(ctx context.Context, walletID, transactionID string, req domain.StatusChangeRequest) error {
	if err := s.enter(ctx, "ChangeTransactionStatus"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.txs {
		if t.WalletID == walletID && transactionKey(t) == transactionID {
			s.txs[i].Status = req.NewStatus
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
}

func (s *Service) CompensateCustomer(ctx context.Context, companyID, userID, walletID string, req domain.CompensationRequest) (*domain.RawTransaction, error) {
	if err := s.enter(ctx, "CompensateCustomer"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallet(userID, walletID)
	if !ok || (companyID != "" && w.CompanyID != companyID) {
		return nil, &domain.ErrNotFound{Resource: "wallet", ID: walletID}
	}
	amount := req.Amount
	tx := domain.RawTransaction{
		ID:              int64(1000 + len(s.txs)),
		TransactionID:   "CMP-" + newID()[:8],
		Date:            time.Now().UTC().Format(time.RFC3339),
		Amount:          &amount,
		Currency:        req.Currency,
		Status:          domain.StatusCompleted,
		TransactionType: domain.TypeCompensation,
		WalletID:        walletID,
		CustomerID:      userID,
		AdditionalInfo: map[string]any{
			"origin_wallet_id": req.OriginWalletID,
			"reason":           req.Reason,
		},
	}
	s.txs = append(s.txs, tx)
	return &tx, nil
}

func (s *Service) wallet(userID, walletID string) (domain.Wallet, bool) {
	for _, w := range s.wallets[userID] {
		if w.ID == walletID {
			return w, true
		}
	}
	return domain.Wallet{}, false
}

// transactionKey is the identifier clients use to address a transaction:
// the string id when present, else the numeric one.
func transactionKey(t domain.RawTransaction) string {
	if t.TransactionID != "" {
		return t.TransactionID
	}
	return strconv.FormatInt(t.ID, 10)
}

// ============================================================
// Backoffice users
// ============================================================

func (s *Service) ListBackofficeUsers(ctx context.Context) ([]domain.BackofficeUser, error) {
	if err := s.enter(ctx, "ListBackofficeUsers"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.BackofficeUser, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.user)
	}
	return out, nil
}

func (s *Service) CreateBackofficeUser(ctx context.Context, req domain.CreateBackofficeUserRequest) (*domain.BackofficeUser, error) {
	if err := s.enter(ctx, "CreateBackofficeUser"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Email, req.Email) {
			return nil, &domain.ErrConflict{Message: "Bad Request: email already registered"}
		}
	}
	password := req.Password
	if password == "" {
		password = newID()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	u := domain.BackofficeUser{
		ID:        "bo-" + newID()[:8],
		Name:      req.Name,
		Surname:   req.Surname,
		Email:     req.Email,
		Roles:     append([]string(nil), req.Roles...),
		CompanyID: DefaultCompanyID,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	s.accounts = append(s.accounts, &backofficeAccount{user: u, passwordHash: hash})
	return &u, nil
}

func (s *Service) ModifyUserRoles(ctx context.Context, userID string, roles []string) (*domain.BackofficeUser, error) {
	if err := s.enter(ctx, "ModifyUserRoles"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.user.ID == userID {
			a.user.Roles = append([]string(nil), roles...)
			u := a.user
			return &u, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "backoffice user", ID: userID}
}

// Authenticate checks the bcrypt hash of a seeded or created account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.BackofficeUser, error) {
	if err := s.enter(ctx, "Authenticate"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if !strings.EqualFold(a.user.Email, email) {
			continue
		}
		if bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) != nil || !a.user.Active || a.user.Blocked {
			break
		}
		u := a.user
		return &u, nil
	}
	return nil, &domain.ErrUnauthorized{Message: "Unauthorized: invalid credentials"}
}

// ============================================================
// Anti-fraud
// ============================================================

func (s *Service) ListAntiFraudRules(ctx context.Context) ([]domain.AntiFraudRule, error) {
	if err := s.enter(ctx, "ListAntiFraudRules"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AntiFraudRule{}, s.rules...), nil
}

func (s *Service) UpdateAntiFraudRule(ctx context.Context, ruleID string, upd domain.AntiFraudRuleUpdate, updatedBy string) (*domain.AntiFraudRule, error) {
	if err := s.enter(ctx, "UpdateAntiFraudRule"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rules {
		if s.rules[i].ID != ruleID {
			continue
		}
		s.rules[i].Threshold = upd.Threshold
		if upd.Enabled != nil {
			s.rules[i].Enabled = *upd.Enabled
		}
		s.rules[i].UpdatedBy = updatedBy
		s.rules[i].UpdatedAt = time.Now().UTC()
		r := s.rules[i]
		return &r, nil
	}
	return nil, &domain.ErrNotFound{Resource: "anti-fraud rule", ID: ruleID}
}
