package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func browserSubscription(t *testing.T, endpoint string) Subscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)

	return Subscription{
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(secret),
	}
}

func testVAPID(t *testing.T) VAPIDConfig {
	t.Helper()
	priv, pub, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	return VAPIDConfig{PublicKey: pub, PrivateKey: priv, Subscriber: "mailto:ops@siscert.local"}
}

func TestWebPushSenderMapsGone(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "86400", r.Header.Get("TTL"))
		assert.Contains(t, r.Header.Get("Authorization"), "vapid")
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	sender := NewWebPushSender(testVAPID(t), srv.Client())
	err := sender.Send(context.Background(), browserSubscription(t, srv.URL+"/push/abc"), Payload{Title: "t"})

	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusGone, derr.StatusCode)
	assert.True(t, IsGone(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestWebPushSenderAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewWebPushSender(testVAPID(t), srv.Client())
	err := sender.Send(context.Background(), browserSubscription(t, srv.URL), Payload{Title: "t"})
	assert.NoError(t, err)
}

func TestWebPushSenderNotConfigured(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	sender := NewWebPushSender(VAPIDConfig{}, srv.Client())
	err := sender.Send(context.Background(), browserSubscription(t, srv.URL), Payload{Title: "t"})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Zero(t, hits.Load())
}

func TestDeliveryErrorGone(t *testing.T) {
	assert.True(t, (&DeliveryError{StatusCode: 404}).Gone())
	assert.True(t, (&DeliveryError{StatusCode: 410}).Gone())
	assert.False(t, (&DeliveryError{StatusCode: 429}).Gone())
	assert.False(t, (&DeliveryError{StatusCode: 500}).Gone())
}
