package push

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siscert/api/internal/util"
)

type memStore struct {
	mu   sync.Mutex
	subs []Subscription
}

func (m *memStore) Upsert(_ context.Context, sub Subscription) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.subs {
		if s.UsuarioID == sub.UsuarioID && s.Endpoint == sub.Endpoint {
			sub.ID = s.ID
			m.subs[i] = sub
			return &sub, nil
		}
	}
	sub.ID = uuid.New()
	m.subs = append(m.subs, sub)
	return &sub, nil
}

func (m *memStore) ListByUser(_ context.Context, userID int64) ([]Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Subscription
	for _, s := range m.subs {
		if s.UsuarioID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) DeleteByUserAndEndpoint(_ context.Context, userID int64, endpoint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.subs {
		if s.UsuarioID == userID && s.Endpoint == endpoint {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeSender struct {
	mu      sync.Mutex
	results map[string]error
	sent    []string
}

func (f *fakeSender) Send(_ context.Context, sub Subscription, _ Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sub.Endpoint)
	return f.results[sub.Endpoint]
}

var configured = VAPIDConfig{PublicKey: "BPub", PrivateKey: "priv"}

func subscribeIn(endpoint string) SubscribeInput {
	var in SubscribeInput
	in.Endpoint = endpoint
	in.Keys.P256dh = "p256"
	in.Keys.Auth = "auth"
	return in
}

func TestSendToUserPrunesGoneSubscription(t *testing.T) {
	store := &memStore{}
	sender := &fakeSender{results: map[string]error{
		"https://push.example/s1": &DeliveryError{StatusCode: 410},
	}}
	svc := NewService(store, sender, configured, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, 7, subscribeIn("https://push.example/s1"))
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, 7, subscribeIn("https://push.example/s2"))
	require.NoError(t, err)

	res, err := svc.SendToUser(ctx, 7, Payload{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, SendResult{Sent: 1, Failed: 1, Pruned: 1}, res)

	left, err := store.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "https://push.example/s2", left[0].Endpoint)
	assert.ElementsMatch(t, []string{"https://push.example/s1", "https://push.example/s2"}, sender.sent)
}

func TestSendToUserKeepsSubscriptionOnOtherErrors(t *testing.T) {
	store := &memStore{}
	sender := &fakeSender{results: map[string]error{
		"https://push.example/a": &DeliveryError{StatusCode: 500},
		"https://push.example/b": errors.New("timeout"),
	}}
	svc := NewService(store, sender, configured, zerolog.Nop())
	ctx := context.Background()

	_, _ = svc.Subscribe(ctx, 1, subscribeIn("https://push.example/a"))
	_, _ = svc.Subscribe(ctx, 1, subscribeIn("https://push.example/b"))

	res, err := svc.SendToUser(ctx, 1, Payload{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, SendResult{Failed: 2}, res)

	left, _ := store.ListByUser(ctx, 1)
	assert.Len(t, left, 2)
}

func TestServiceNotConfigured(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(&memStore{}, sender, VAPIDConfig{}, zerolog.Nop())

	_, err := svc.VAPIDPublicKey()
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = svc.SendToUser(context.Background(), 1, Payload{Title: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, sender.sent)
}

func TestSubscribeUpsertsAndValidates(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, &fakeSender{}, configured, zerolog.Nop())
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, 3, subscribeIn("https://push.example/x"))
	require.NoError(t, err)
	in := subscribeIn("https://push.example/x")
	in.Keys.Auth = "novo"
	second, err := svc.Subscribe(ctx, 3, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.subs, 1)
	assert.Equal(t, "novo", store.subs[0].Auth)

	_, err = svc.Subscribe(ctx, 3, subscribeIn("não é url"))
	verr, ok := util.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "endpoint", verr.Campo)

	deleted, err := svc.Unsubscribe(ctx, 3, "https://push.example/x")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = svc.Unsubscribe(ctx, 3, "https://push.example/x")
	require.NoError(t, err)
	assert.False(t, deleted)
}
