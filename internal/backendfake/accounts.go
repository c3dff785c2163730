package backendfake

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	ID               string
	Email            string
	Nickname         string
	Name             string
	PasswordHash     string
	Activated        bool
	VerificationCode string

	TotalAPIUsage       int
	AverageSuccessRate  float64
	AverageErrorRate    float64
	AverageResponseTime float64

	Keys []*apiKey
}

type apiKey struct {
	Identifier string
	Secret     string
	Title      string
	Detail     string
	CreatedAt  time.Time
	Logs       []keyLog
}

type keyLog struct {
	Endpoint     string
	Method       string
	StatusCode   int
	ResponseTime float64
	Timestamp    time.Time
}

// accountRepo is the fake's in-memory account table
type accountRepo struct {
	accounts map[string]*account
	emailIDs map[string]string
	keyIDs   map[string]string // api key secret to account id
	lock     sync.RWMutex
}

func newAccountRepo() *accountRepo {
	return &accountRepo{
		accounts: make(map[string]*account),
		emailIDs: make(map[string]string),
		keyIDs:   make(map[string]string),
	}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (ar *accountRepo) create(email, nickname, name, password string) (*account, error) {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := ar.emailIDs[email]; ok {
		return nil, errors.New("email already registered")
	}
	for _, a := range ar.accounts {
		if strings.EqualFold(a.Nickname, nickname) {
			return nil, errors.New("nickname already taken")
		}
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "create hashPassword")
	}

	a := &account{
		ID:               uuid.New().String(),
		Email:            email,
		Nickname:         nickname,
		Name:             name,
		PasswordHash:     hash,
		VerificationCode: strings.ToUpper(uuid.New().String()[:6]),
	}
	ar.accounts[a.ID] = a
	ar.emailIDs[email] = a.ID
	return a, nil
}

// byIdentification resolves an email or nickname
func (ar *accountRepo) byIdentification(identification string) (*account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	identification = strings.TrimSpace(identification)
	if id, ok := ar.emailIDs[strings.ToLower(identification)]; ok {
		return ar.accounts[id], nil
	}
	for _, a := range ar.accounts {
		if strings.EqualFold(a.Nickname, identification) {
			return a, nil
		}
	}
	return nil, errors.New("not found")
}

func (ar *accountRepo) get(id string) (*account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	a, ok := ar.accounts[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return a, nil
}

func (ar *accountRepo) byKey(secret string) (*account, *apiKey, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	id, ok := ar.keyIDs[secret]
	if !ok {
		return nil, nil, errors.New("not found")
	}
	a := ar.accounts[id]
	for _, k := range a.Keys {
		if k.Secret == secret {
			return a, k, nil
		}
	}
	return nil, nil, errors.New("not found")
}

// read runs fn under the read lock so views of the account are consistent
func (ar *accountRepo) read(id string, fn func(a *account)) error {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	a, ok := ar.accounts[id]
	if !ok {
		return errors.New("not found")
	}
	fn(a)
	return nil
}

func (ar *accountRepo) update(id string, fn func(a *account) error) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	a, ok := ar.accounts[id]
	if !ok {
		return errors.New("not found")
	}
	return fn(a)
}

func (ar *accountRepo) delete(id string) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	a, ok := ar.accounts[id]
	if !ok {
		return errors.New("not found")
	}
	for _, k := range a.Keys {
		delete(ar.keyIDs, k.Secret)
	}
	delete(ar.emailIDs, a.Email)
	delete(ar.accounts, id)
	return nil
}

func (ar *accountRepo) addKey(id, title, detail string) (*apiKey, error) {
	key := &apiKey{
		Identifier: uuid.New().String(),
		Secret:     "sso_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		Title:      title,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}
	err := ar.update(id, func(a *account) error {
		a.Keys = append(a.Keys, key)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "addKey")
	}

	ar.lock.Lock()
	ar.keyIDs[key.Secret] = id
	ar.lock.Unlock()
	return key, nil
}

func (ar *accountRepo) deleteKey(id, identifier string) error {
	var secret string
	err := ar.update(id, func(a *account) error {
		for i, k := range a.Keys {
			if k.Identifier == identifier {
				secret = k.Secret
				a.Keys = append(a.Keys[:i], a.Keys[i+1:]...)
				return nil
			}
		}
		return errors.New("api key not found")
	})
	if err != nil {
		return err
	}

	ar.lock.Lock()
	delete(ar.keyIDs, secret)
	ar.lock.Unlock()
	return nil
}

// record meters one service call against the key and the owning account
func (ar *accountRepo) record(id string, key *apiKey, entry keyLog) {
	_ = ar.update(id, func(a *account) error {
		key.Logs = append(key.Logs, entry)

		success := 0.0
		if entry.StatusCode < 400 {
			success = 100
		}
		n := float64(a.TotalAPIUsage)
		a.TotalAPIUsage++
		a.AverageSuccessRate = (a.AverageSuccessRate*n + success) / (n + 1)
		a.AverageErrorRate = 100 - a.AverageSuccessRate
		a.AverageResponseTime = (a.AverageResponseTime*n + entry.ResponseTime) / (n + 1)
		return nil
	})
}
