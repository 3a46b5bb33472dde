package payment

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"a2g/internal/entitlement"
	"a2g/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("gateway-shared-secret")

type fakeLedger struct {
	mu         sync.Mutex
	users      Entitlements
	records    []model.Payment
	verified   map[string]*model.Payment
	failWrite  error
	failCommit error
}

func newFakeLedger(users Entitlements) *fakeLedger {
	return &fakeLedger{users: users, verified: map[string]*model.Payment{}}
}

func (l *fakeLedger) RecordFailed(_ context.Context, p *model.Payment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWrite != nil {
		return l.failWrite
	}
	l.records = append(l.records, *p)
	return nil
}

func (l *fakeLedger) Settle(ctx context.Context, p *model.Payment, apply func(context.Context, Entitlements) error) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWrite != nil {
		return false, l.failWrite
	}
	key := p.OrderID + "|" + p.PaymentID
	if l.verified[key] != nil {
		return false, nil
	}
	if err := apply(ctx, l.users); err != nil {
		return false, err
	}
	if l.failCommit != nil {
		return false, l.failCommit
	}
	p.ID = fmt.Sprintf("pay-%d", len(l.records)+1)
	p.CreatedAt = fixedNow()
	stored := *p
	l.verified[key] = &stored
	l.records = append(l.records, stored)
	return true, nil
}

func (l *fakeLedger) GetVerified(_ context.Context, orderID, paymentID string) (*model.Payment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p := l.verified[orderID+"|"+paymentID]; p != nil {
		stored := *p
		return &stored, nil
	}
	return nil, nil
}

type fakeUsers struct {
	mu         sync.Mutex
	users      map[string]*model.User
	proWrites  int
	grantError error
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*model.User{}}
	for _, u := range users {
		f.users[u.UserID] = u
	}
	return f
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeUsers) SetProPlan(_ context.Context, id string, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.grantError != nil {
		return f.grantError
	}
	u := f.users[id]
	u.Plan = model.PlanPro
	u.PremiumUntil = &until
	f.proWrites++
	return nil
}

func (f *fakeUsers) AddGrantedItem(_ context.Context, id, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.grantError != nil {
		return f.grantError
	}
	u := f.users[id]
	if !slices.Contains(u.GrantedItemIDs, itemID) {
		u.GrantedItemIDs = append(u.GrantedItemIDs, itemID)
	}
	return nil
}

func strPtr(s string) *string { return &s }

func signedCallback(orderID, paymentID, userID, plan string, contentID *string) Callback {
	return Callback{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: Sign(testSecret, orderID, paymentID),
		UserID:    userID,
		Plan:      plan,
		Amount:    4900,
		ContentID: contentID,
	}
}

func fixedNow() time.Time { return time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC) }

func newTestVerifier(l Ledger, u Entitlements, policy RenewalPolicy) *Verifier {
	return NewVerifier(l, u, Options{Secret: testSecret, Policy: policy, ProMonths: 1, Now: fixedNow}, zerolog.Nop())
}

func newVerifierFor(policy RenewalPolicy, users ...*model.User) *Verifier {
	fu := newFakeUsers(users...)
	return newTestVerifier(newFakeLedger(fu), fu, policy)
}

func TestSignKnownVector(t *testing.T) {
	// echo -n "order_1|pay_1" | openssl dgst -sha256 -hmac "gateway-shared-secret"
	sig := Sign(testSecret, "order_1", "pay_1")
	assert.Equal(t, "ed5976042969347f3a6cd60e155c86cf290160be7f513949f49e82885d2b11b3", sig)
	assert.Equal(t, sig, Sign(testSecret, "order_1", "pay_1"))
}

func TestSignChangesOnSingleCharacterEdit(t *testing.T) {
	base := Sign(testSecret, "order_ABC123", "pay_XYZ789")
	mutate := func(s string, i int) string {
		b := []byte(s)
		b[i]++
		return string(b)
	}
	for i := range len("order_ABC123") {
		assert.NotEqual(t, base, Sign(testSecret, mutate("order_ABC123", i), "pay_XYZ789"), "order id edit at %d", i)
	}
	for i := range len("pay_XYZ789") {
		assert.NotEqual(t, base, Sign(testSecret, "order_ABC123", mutate("pay_XYZ789", i)), "payment id edit at %d", i)
	}
	// the separator keeps boundary shifts from colliding
	assert.NotEqual(t, Sign(testSecret, "ab", "c"), Sign(testSecret, "a", "bc"))
}

func TestValidSignature(t *testing.T) {
	sig := Sign(testSecret, "o", "p")
	assert.True(t, ValidSignature(testSecret, "o", "p", sig))
	assert.False(t, ValidSignature(testSecret, "o", "p", sig[:63]))
	assert.False(t, ValidSignature([]byte("other"), "o", "p", sig))
	assert.False(t, ValidSignature(testSecret, "o", "p", ""))
}

func TestParsePlan(t *testing.T) {
	g, err := ParsePlan("pro", nil)
	require.NoError(t, err)
	assert.Equal(t, GrantPro, g.Kind)

	g, err = ParsePlan("single_note", strPtr("note42"))
	require.NoError(t, err)
	assert.Equal(t, PlanGrant{Kind: GrantSingleItem, ContentType: model.ItemKindNote, ContentID: "note42"}, g)

	g, err = ParsePlan("single_test", strPtr("test7"))
	require.NoError(t, err)
	assert.Equal(t, model.ItemKindTest, g.ContentType)

	for _, bad := range []struct {
		plan    string
		content *string
	}{
		{"gold", nil},
		{"single_note", nil},
		{"single_note", strPtr("  ")},
		{"single_video", strPtr("v1")},
		{"", nil},
	} {
		_, err := ParsePlan(bad.plan, bad.content)
		assert.ErrorIs(t, err, ErrInvalidPayload, "plan %q", bad.plan)
	}
}

func TestVerifyRejectsMissingFields(t *testing.T) {
	users := newFakeUsers()
	ledger := newFakeLedger(users)
	v := newTestVerifier(ledger, users, RenewReset)

	cb := signedCallback("order_1", "pay_1", "user-1", "pro", nil)
	for name, mutate := range map[string]func(*Callback){
		"order":     func(c *Callback) { c.OrderID = "" },
		"payment":   func(c *Callback) { c.PaymentID = "" },
		"signature": func(c *Callback) { c.Signature = "" },
		"user":      func(c *Callback) { c.UserID = "" },
	} {
		t.Run(name, func(t *testing.T) {
			bad := cb
			mutate(&bad)
			_, err := v.Verify(context.Background(), bad)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
	assert.Empty(t, ledger.records, "validation errors must not write records")
}

func TestVerifySignatureMismatchRecordsFailure(t *testing.T) {
	user := &model.User{UserID: "user-1"}
	users := newFakeUsers(user)
	ledger := newFakeLedger(users)
	v := newTestVerifier(ledger, users, RenewReset)

	cb := signedCallback("order_1", "pay_1", "user-1", "pro", nil)
	cb.Signature = Sign([]byte("wrong"), "order_1", "pay_1")

	out, err := v.Verify(context.Background(), cb)
	require.ErrorIs(t, err, ErrSignatureMismatch)
	assert.Nil(t, out)
	require.Len(t, ledger.records, 1)
	assert.Equal(t, model.PaymentStatusFailed, ledger.records[0].Status)
	assert.Nil(t, user.PremiumUntil)
	assert.Equal(t, model.Plan(""), user.Plan)
}

func TestVerifyProResetsExpiry(t *testing.T) {
	later := fixedNow().AddDate(0, 6, 0)
	user := &model.User{UserID: "user-1", Plan: model.PlanPro, PremiumUntil: &later}
	v := newVerifierFor(RenewReset, user)

	out, err := v.Verify(context.Background(), signedCallback("order_1", "pay_1", "user-1", "pro", nil))
	require.NoError(t, err)
	want := fixedNow().AddDate(0, 1, 0)
	require.NotNil(t, out.PremiumUntil)
	assert.True(t, want.Equal(*out.PremiumUntil))
	assert.True(t, want.Equal(*user.PremiumUntil))
	assert.Equal(t, model.PlanPro, user.Plan)
}

func TestVerifyProExtendPolicy(t *testing.T) {
	later := fixedNow().AddDate(0, 2, 0)
	user := &model.User{UserID: "user-1", Plan: model.PlanPro, PremiumUntil: &later}
	v := newVerifierFor(RenewExtend, user)

	out, err := v.Verify(context.Background(), signedCallback("order_1", "pay_1", "user-1", "pro", nil))
	require.NoError(t, err)
	assert.True(t, later.AddDate(0, 1, 0).Equal(*out.PremiumUntil))

	expired := fixedNow().Add(-time.Hour)
	other := &model.User{UserID: "user-2", PremiumUntil: &expired}
	v = newVerifierFor(RenewExtend, other)
	out, err = v.Verify(context.Background(), signedCallback("order_2", "pay_2", "user-2", "pro", nil))
	require.NoError(t, err)
	assert.True(t, fixedNow().AddDate(0, 1, 0).Equal(*out.PremiumUntil))
}

func TestVerifySingleItemScenario(t *testing.T) {
	user := &model.User{UserID: "user-1"}
	v := newVerifierFor(RenewReset, user)
	note42 := &model.Item{ID: "note42", IsPremium: true}
	note43 := &model.Item{ID: "note43", IsPremium: true}

	assert.False(t, entitlement.HasAccess(user, note42, fixedNow()))

	out, err := v.Verify(context.Background(), signedCallback("order_1", "pay_1", "user-1", "single_note", strPtr("note42")))
	require.NoError(t, err)
	assert.Equal(t, GrantSingleItem, out.Grant.Kind)
	assert.Nil(t, out.PremiumUntil)

	assert.Equal(t, []string{"note42"}, user.GrantedItemIDs)
	assert.True(t, entitlement.HasAccess(user, note42, fixedNow()))
	assert.False(t, entitlement.HasAccess(user, note43, fixedNow()))
}

func TestVerifyDuplicateDoesNotRegrant(t *testing.T) {
	users := newFakeUsers(&model.User{UserID: "user-1"})
	ledger := newFakeLedger(users)
	v := newTestVerifier(ledger, users, RenewExtend)
	cb := signedCallback("order_1", "pay_1", "user-1", "pro", nil)

	var wg sync.WaitGroup
	outs := make([]*Outcome, 8)
	for i := range outs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := v.Verify(context.Background(), cb)
			assert.NoError(t, err)
			outs[i] = out
		}(i)
	}
	wg.Wait()

	duplicates := 0
	for _, o := range outs {
		if o.Duplicate {
			duplicates++
		}
	}
	assert.Equal(t, len(outs)-1, duplicates)
	assert.Equal(t, 1, users.proWrites)
	require.Len(t, ledger.records, 1)
	for _, o := range outs {
		assert.Equal(t, ledger.records[0].ID, o.Payment.ID, "duplicates report the stored record")
		require.NotNil(t, o.PremiumUntil)
		assert.True(t, fixedNow().AddDate(0, 1, 0).Equal(*o.PremiumUntil))
	}
}

func TestVerifyAuditFailureIsReportedSeparately(t *testing.T) {
	user := &model.User{UserID: "user-1"}
	users := newFakeUsers(user)
	ledger := newFakeLedger(users)
	ledger.failWrite = errors.New("db down")
	v := newTestVerifier(ledger, users, RenewReset)

	out, err := v.Verify(context.Background(), signedCallback("order_1", "pay_1", "user-1", "single_test", strPtr("t1")))
	require.NoError(t, err)
	assert.EqualError(t, out.AuditErr, "db down")
	assert.Equal(t, []string{"t1"}, user.GrantedItemIDs)
}

func TestVerifyCommitFailureStillGrants(t *testing.T) {
	user := &model.User{UserID: "user-1"}
	users := newFakeUsers(user)
	ledger := newFakeLedger(users)
	ledger.failCommit = errors.New("connection reset")
	v := newTestVerifier(ledger, users, RenewReset)

	out, err := v.Verify(context.Background(), signedCallback("order_1", "pay_1", "user-1", "pro", nil))
	require.NoError(t, err)
	assert.EqualError(t, out.AuditErr, "connection reset")
	assert.False(t, out.Duplicate)
	assert.Equal(t, model.PlanPro, user.Plan)
	assert.Empty(t, ledger.records)
}

func TestVerifyGrantFailureRollsBackRecord(t *testing.T) {
	user := &model.User{UserID: "user-1"}
	users := newFakeUsers(user)
	users.grantError = errors.New("write conflict")
	ledger := newFakeLedger(users)
	v := newTestVerifier(ledger, users, RenewReset)
	cb := signedCallback("order_1", "pay_1", "user-1", "single_note", strPtr("note42"))

	_, err := v.Verify(context.Background(), cb)
	require.ErrorIs(t, err, ErrGrantFailed)
	assert.Empty(t, ledger.records, "no verified record survives a failed grant")
	assert.Empty(t, user.GrantedItemIDs)

	users.grantError = nil
	out, err := v.Verify(context.Background(), cb)
	require.NoError(t, err)
	assert.False(t, out.Duplicate)
	assert.Equal(t, []string{"note42"}, user.GrantedItemIDs)
	require.Len(t, ledger.records, 1)
	assert.Equal(t, model.PaymentStatusVerified, ledger.records[0].Status)

	again, err := v.Verify(context.Background(), cb)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Equal(t, out.Payment.ID, again.Payment.ID)
	assert.Equal(t, []string{"note42"}, user.GrantedItemIDs)
}

func TestVerifyProGrantFailureThenRetry(t *testing.T) {
	user := &model.User{UserID: "user-1"}
	users := newFakeUsers(user)
	users.grantError = errors.New("db down")
	v := newTestVerifier(newFakeLedger(users), users, RenewExtend)
	cb := signedCallback("order_1", "pay_1", "user-1", "pro", nil)

	_, err := v.Verify(context.Background(), cb)
	require.ErrorIs(t, err, ErrGrantFailed)
	assert.Nil(t, user.PremiumUntil)

	users.grantError = nil
	out, err := v.Verify(context.Background(), cb)
	require.NoError(t, err)
	assert.False(t, out.Duplicate)
	require.NotNil(t, user.PremiumUntil)
	assert.True(t, fixedNow().AddDate(0, 1, 0).Equal(*user.PremiumUntil))
	assert.Equal(t, 1, users.proWrites)
}
