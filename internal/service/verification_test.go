package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlecture/vlecture-api/internal/repository"
)

type fakeOTPStore struct {
	mu    sync.Mutex
	codes map[string]string
	sends map[string]int64
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{codes: map[string]string{}, sends: map[string]int64{}}
}

func (f *fakeOTPStore) Put(_ context.Context, email, code string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[email] = code
	return nil
}

func (f *fakeOTPStore) Get(_ context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.codes[email]
	if !ok {
		return "", repository.ErrNotFound
	}
	return code, nil
}

func (f *fakeOTPStore) Delete(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.codes, email)
	return nil
}

func (f *fakeOTPStore) IncrSends(_ context.Context, email string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends[email]++
	return f.sends[email], nil
}

type verificationFixture struct {
	svc    *VerificationService
	users  *fakeUserStore
	ledger *fakeOTPStore
	mailer *fakeMailer
}

func newVerificationFixture(t *testing.T) *verificationFixture {
	t.Helper()
	f := &verificationFixture{
		users:  newFakeUserStore(),
		ledger: newFakeOTPStore(),
		mailer: &fakeMailer{},
	}
	f.svc = NewVerificationService(testConfig(), f.users, f.ledger, f.mailer)
	return f
}

func TestIssueStoresAndMailsCode(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Issue(ctx, "a@x.com"))

	code, ok := f.ledger.codes["a@x.com"]
	require.True(t, ok)
	assert.Len(t, code, otpLength)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9', "code must be numeric")
	}
	require.Len(t, f.mailer.sent, 1)
	assert.Contains(t, f.mailer.sent[0].body, code)
}

func TestIssueMalformedEmail(t *testing.T) {
	f := newVerificationFixture(t)
	err := f.svc.Issue(context.Background(), "notanemail")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, f.mailer.sent)
}

func TestIssueForRegisteredUserConflicts(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()
	_, err := f.users.Create(ctx, "a@x.com", "A", "", "B", "hash")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Issue(ctx, "a@x.com"), ErrConflict)
}

func TestIssueReplacesPriorCode(t *testing.T) {
	// Re-issuing invalidates the previous code: only one code per email is
	// valid at a time.
	f := newVerificationFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Issue(ctx, "a@x.com"))
	first := f.ledger.codes["a@x.com"]
	require.NoError(t, f.svc.Issue(ctx, "a@x.com"))
	second := f.ledger.codes["a@x.com"]

	if first != second { // 1-in-10^6 collision would make them equal
		assert.ErrorIs(t, f.svc.Check(ctx, "a@x.com", first), ErrInvalidToken)
	}
	assert.NoError(t, f.svc.Check(ctx, "a@x.com", second))
}

func TestIssueDeliveryFailureRollsBackCode(t *testing.T) {
	f := newVerificationFixture(t)
	f.mailer.err = assert.AnError

	err := f.svc.Issue(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, ErrDelivery)
	_, ok := f.ledger.codes["a@x.com"]
	assert.False(t, ok, "no half-committed code may remain after a failed send")
}

func TestIssueRateLimited(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()

	for i := 0; i < otpSendLimit; i++ {
		require.NoError(t, f.svc.Issue(ctx, "a@x.com"))
	}
	assert.ErrorIs(t, f.svc.Issue(ctx, "a@x.com"), ErrConflict)
}

func TestCheckWrongCodeKeepsRecord(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Issue(ctx, "a@x.com"))
	code := f.ledger.codes["a@x.com"]

	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}
	assert.ErrorIs(t, f.svc.Check(ctx, "a@x.com", wrong), ErrInvalidToken)

	// The record survives a failed attempt, so the right code still works.
	assert.NoError(t, f.svc.Check(ctx, "a@x.com", code))
}

func TestCheckConsumesCode(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Issue(ctx, "a@x.com"))
	code := f.ledger.codes["a@x.com"]

	require.NoError(t, f.svc.Check(ctx, "a@x.com", code))
	// Single use: the same code is rejected the second time.
	assert.ErrorIs(t, f.svc.Check(ctx, "a@x.com", code), ErrNotFound)
}

func TestCheckWithoutIssuedCode(t *testing.T) {
	f := newVerificationFixture(t)
	assert.ErrorIs(t, f.svc.Check(context.Background(), "a@x.com", "123456"), ErrNotFound)
}

func TestCheckNormalizesEmail(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Issue(ctx, "A@X.com"))
	code := f.ledger.codes["a@x.com"]
	assert.NoError(t, f.svc.Check(ctx, "a@x.com", code))
}
