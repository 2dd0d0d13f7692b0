package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrolink/agrolink_api/internal/lock"
	"github.com/agrolink/agrolink_api/internal/models"
	"github.com/agrolink/agrolink_api/internal/otp"
	"github.com/agrolink/agrolink_api/internal/sms"
	"github.com/agrolink/agrolink_api/internal/utils"
)

const phone = "+251911223344"

type harness struct {
	svc       *RegistrationService
	users     *memUsers
	attempts  *memAttempts
	products  *memProducts
	messenger *fakeMessenger
	events    *fakeEvents
	queue     *fakeQueue
	clock     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		users:     newMemUsers(),
		attempts:  &memAttempts{},
		products:  newMemProducts(),
		messenger: &fakeMessenger{},
		events:    &fakeEvents{},
		queue:     &fakeQueue{},
		clock:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	limiter := NewRateLimiter(h.attempts, Limit{Max: 3, Window: 24 * time.Hour}, Limit{Max: 2, Window: 24 * time.Hour}, nil)
	limiter.now = func() time.Time { return h.clock }
	issuer := &otp.Issuer{Length: 6, TTL: 5 * time.Minute, Cost: bcrypt.MinCost}
	ingest := NewProductIngestion(h.products, h.events, h.queue, nil)

	h.svc = NewRegistrationService(h.users, limiter, issuer, h.messenger, ingest, h.events,
		lock.NewKeyedMutex(), sms.NewClassifier(sms.DefaultTrigger, sms.DefaultOTPLength), nil)
	h.svc.now = func() time.Time { return h.clock }
	return h
}

func (h *harness) send(t *testing.T, text string) *Outcome {
	t.Helper()
	out, err := h.svc.Handle(context.Background(), InboundMessage{Sender: phone, Text: text})
	require.NoError(t, err)
	return out
}

var codePattern = regexp.MustCompile(`\d{6}`)

func (h *harness) lastCode(t *testing.T) string {
	t.Helper()
	code := codePattern.FindString(h.messenger.last())
	require.NotEmpty(t, code, "no code in %q", h.messenger.last())
	return code
}

func (h *harness) register(t *testing.T) {
	t.Helper()
	h.send(t, "ሀ")
	h.send(t, "Abebe Kebede, 1000123456")
	out := h.send(t, h.lastCode(t))
	require.Equal(t, MsgRegistrationCompleted, out.Message)
}

func TestHandle_ScenarioA_FullRegistration(t *testing.T) {
	h := newHarness(t)

	out := h.send(t, "ሀ")
	assert.Equal(t, MsgUserAdded, out.Message)
	assert.NotEmpty(t, out.UserID)
	assert.Equal(t, models.UserStatusNameAccountPending, h.users.get(phone).Status)
	assert.Equal(t, sms.MsgWelcome, h.messenger.last())
	assert.True(t, out.NoticeSent)

	out = h.send(t, "Abebe Kebede, 1000123456")
	assert.Equal(t, MsgOTPSent, out.Message)
	u := h.users.get(phone)
	assert.Equal(t, models.UserStatusOTPPending, u.Status)
	require.NotNil(t, u.Name)
	assert.Equal(t, "Abebe Kebede", *u.Name)
	assert.Equal(t, "1000123456", *u.AccountNumber)
	require.NotNil(t, u.OTPHash)
	code := h.lastCode(t)
	assert.NotEqual(t, code, *u.OTPHash)

	out = h.send(t, code)
	assert.Equal(t, MsgRegistrationCompleted, out.Message)
	u = h.users.get(phone)
	assert.Equal(t, models.UserStatusRegistered, u.Status)
	assert.Nil(t, u.OTPHash)
	assert.Nil(t, u.OTPExpiresAt)
	assert.Equal(t, []string{u.ID}, h.events.registered)
}

func TestHandle_ScenarioB_WrongOTPThenResend(t *testing.T) {
	h := newHarness(t)
	h.send(t, "ሀ")
	h.send(t, "Abebe, 1000")
	code := h.lastCode(t)

	wrong := "000000"
	if code == wrong {
		wrong = "999999"
	}
	out := h.send(t, wrong)
	assert.Equal(t, MsgInvalidOTP, out.Message)
	assert.Contains(t, h.messenger.last(), "ሀ")
	u := h.users.get(phone)
	assert.Equal(t, models.UserStatusOTPPending, u.Status)
	assert.Nil(t, u.OTPHash, "code is cleared after a failed attempt")

	// the first code is now spent
	out = h.send(t, code)
	assert.Equal(t, MsgInvalidOTP, out.Message)

	h.clock = h.clock.Add(2 * time.Minute)
	out = h.send(t, "ሀ")
	assert.Equal(t, MsgOTPResent, out.Message)
	u = h.users.get(phone)
	require.NotNil(t, u.LastRegistrationAttempt)
	assert.True(t, u.LastRegistrationAttempt.Equal(h.clock), "resend stamps the attempt time")
	out = h.send(t, h.lastCode(t))
	assert.Equal(t, MsgRegistrationCompleted, out.Message)
}

func TestHandle_OTPExpiry(t *testing.T) {
	h := newHarness(t)
	h.send(t, "ሀ")
	h.send(t, "Abebe, 1000")
	code := h.lastCode(t)

	h.clock = h.clock.Add(5 * time.Minute)
	out := h.send(t, code)
	assert.Equal(t, MsgInvalidOTP, out.Message)
	assert.Equal(t, models.UserStatusOTPPending, h.users.get(phone).Status)
}

func TestHandle_OTPSingleUse(t *testing.T) {
	h := newHarness(t)
	h.register(t)

	// a six digit message after registration is a product attempt, not an OTP
	out := h.send(t, "123456")
	assert.Equal(t, MsgProductNotUnderstood, out.Message)
	assert.Equal(t, models.UserStatusRegistered, h.users.get(phone).Status)
}

func TestHandle_OTPResendLimit(t *testing.T) {
	h := newHarness(t)
	h.send(t, "ሀ")
	h.send(t, "Abebe, 1000")

	assert.Equal(t, MsgOTPResent, h.send(t, "ሀ").Message)
	assert.Equal(t, MsgOTPResent, h.send(t, "ሀ").Message)
	assert.Equal(t, MsgOTPResendLimited, h.send(t, "ሀ").Message)

	h.clock = h.clock.Add(25 * time.Hour)
	assert.Equal(t, MsgOTPResent, h.send(t, "ሀ").Message)
}

func TestHandle_ScenarioC_Products(t *testing.T) {
	h := newHarness(t)
	h.register(t)

	out := h.send(t, "ምርት: ጤፍ, ብዛት: ፭0ኪ.ግ, ዋጋ: 4500ብር")
	assert.Equal(t, MsgProductAdded, out.Message)
	require.NotNil(t, out.Product)
	assert.Equal(t, "ጤፍ", out.Product.Name)
	assert.Equal(t, "Teff", out.Product.EnglishName)
	assert.Equal(t, 50, out.Product.Quantity)
	assert.Equal(t, 4500.0, out.Product.Price)
	assert.Equal(t, h.users.get(phone).ID, out.Product.UserID)
	assert.Equal(t, []string{out.Product.ID}, h.queue.ids)
	assert.Equal(t, []string{out.Product.ID}, h.events.products)
	assert.Contains(t, h.messenger.last(), "ጤፍ")

	out = h.send(t, "I have some teff")
	assert.Equal(t, MsgProductNotUnderstood, out.Message)
	assert.Equal(t, sms.MsgProductNotUnderstood, h.messenger.last())

	before := len(h.queue.ids)
	out = h.send(t, "ምርት: ጤፍ, ብዛት: 3000000000ኪ.ግ, ዋጋ: 10ብር")
	assert.Equal(t, MsgProductNotUnderstood, out.Message)
	assert.Nil(t, out.Product)
	assert.Equal(t, sms.MsgProductNotUnderstood, h.messenger.last())
	out = h.send(t, "ምርት: ጤፍ, ብዛት: 10ኪ.ግ, ዋጋ: 99999999999999ብር")
	assert.Equal(t, MsgProductNotUnderstood, out.Message)
	assert.Len(t, h.queue.ids, before)
	assert.Equal(t, models.UserStatusRegistered, h.users.get(phone).Status)

	out = h.send(t, "ሀ")
	assert.Equal(t, MsgAlreadyRegistered, out.Message)
}

func TestHandle_ScenarioD_ConcurrentNameAccount(t *testing.T) {
	h := newHarness(t)
	h.send(t, "ሀ")
	before := len(h.messenger.messages())

	var wg sync.WaitGroup
	results := make([]string, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := h.svc.Handle(context.Background(), InboundMessage{Sender: phone, Text: "Abebe, 1000"})
			if assert.NoError(t, err) {
				results[i] = out.Message
			}
		}(i)
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{MsgOTPSent, MsgNoAction}, results)
	assert.Len(t, h.messenger.messages(), before+1, "exactly one code is sent")
}

func TestHandle_NameAccountErrors(t *testing.T) {
	h := newHarness(t)
	h.send(t, "ሀ")

	assert.Equal(t, MsgRegistrationPending, h.send(t, "ሀ").Message)
	assert.Equal(t, MsgInvalidNameAccount, h.send(t, "just my name").Message)
	assert.Equal(t, models.UserStatusNameAccountPending, h.users.get(phone).Status)
}

func TestHandle_RegistrationLimit(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		_, err := h.attempts.Record(context.Background(), phone, models.AttemptRegistration, h.clock.Add(-time.Hour))
		require.NoError(t, err)
	}

	out := h.send(t, "ሀ")
	assert.Equal(t, MsgRegistrationLimited, out.Message)
	assert.Empty(t, out.UserID)
	_, err := h.users.GetByPhone(context.Background(), phone)
	assert.Error(t, err, "no user is created")
	assert.Contains(t, h.messenger.last(), "24")
	assert.Equal(t, 3, h.attempts.len(), "denied trigger is not counted")
}

func TestHandle_UnrecognizedFromNew(t *testing.T) {
	h := newHarness(t)
	out := h.send(t, "hello")
	assert.Equal(t, MsgNoAction, out.Message)
	assert.Empty(t, h.messenger.messages())
	assert.Equal(t, sms.IntentUnrecognized, out.Intent)
}

func TestHandle_NoticeFailureDoesNotFail(t *testing.T) {
	h := newHarness(t)
	h.messenger.fail = true

	out := h.send(t, "ሀ")
	assert.Equal(t, MsgUserAdded, out.Message)
	assert.False(t, out.NoticeSent)
	assert.Equal(t, models.UserStatusNameAccountPending, h.users.get(phone).Status)
}

func TestHandle_MissingSender(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Handle(context.Background(), InboundMessage{Sender: "  ", Text: "ሀ"})
	assert.ErrorIs(t, err, utils.ErrInvalidPayload)
}

func TestAdvance_Monotonic(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	u := h.users.get(phone)

	for _, back := range []models.UserStatus{models.UserStatusNew, models.UserStatusNameAccountPending, models.UserStatusOTPPending} {
		err := h.svc.advance(context.Background(), &u, back)
		assert.ErrorIs(t, err, utils.ErrInvalidTransition)
		assert.Equal(t, models.UserStatusRegistered, u.Status)
	}

	fresh := &models.User{Phone: "+1", Status: models.UserStatusNew}
	assert.ErrorIs(t, h.svc.advance(context.Background(), fresh, models.UserStatusOTPPending), utils.ErrInvalidTransition)
}

func TestHandle_ConflictSurfacesAsError(t *testing.T) {
	h := newHarness(t)
	h.send(t, "ሀ")

	// simulate a writer that bypassed the lock
	u := h.users.get(phone)
	require.NoError(t, h.users.Update(context.Background(), &u))

	stale := &conflictingUsers{memUsers: h.users, staleVersion: u.Version - 1}
	h.svc.users = stale
	_, err := h.svc.Handle(context.Background(), InboundMessage{Sender: phone, Text: "Abebe, 1000"})
	assert.Error(t, err)
}

// conflictingUsers returns users with an outdated version.
type conflictingUsers struct {
	*memUsers
	staleVersion int
}

func (c *conflictingUsers) GetByPhone(ctx context.Context, p string) (*models.User, error) {
	u, err := c.memUsers.GetByPhone(ctx, p)
	if err != nil {
		return nil, err
	}
	u.Version = c.staleVersion
	return u, nil
}
