package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.Event
	err    error
	panic  bool
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Publish(_ context.Context, e models.Event) error {
	if s.panic {
		panic("sink exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Name)
	}
	return out
}

func TestMultiEmitterFansOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{err: errors.New("broker down")}
	m := NewMultiEmitter(a, nil, b)

	m.Emit(context.Background(), models.EventNewTask, map[string]string{"_id": "t1"})
	m.Wait()

	assert.Equal(t, []string{models.EventNewTask}, a.names())
	assert.Equal(t, []string{models.EventNewTask}, b.names())
}

func TestMultiEmitterSurvivesPanickingSink(t *testing.T) {
	good := &recordingSink{}
	m := NewMultiEmitter(&recordingSink{panic: true}, good)

	assert.NotPanics(t, func() {
		m.Emit(context.Background(), models.EventDeleteTask, "t1")
		m.Wait()
	})
	assert.Equal(t, []string{models.EventDeleteTask}, good.names())
}

func TestMultiEmitterIgnoresCancelledCaller(t *testing.T) {
	sink := &recordingSink{}
	m := NewMultiEmitter(sink)

	ctx, cancel := context.WithCancel(context.Background())
	m.Emit(ctx, models.EventUpdateTask, "t1")
	cancel()
	m.Wait()
	assert.Len(t, sink.names(), 1)
}

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, models.Event{Name: models.EventNewAppointment, Payload: map[string]string{"id": "HD-R-001-02/2025-0001"}}))

	select {
	case msg := <-messages:
		assert.Equal(t, models.EventNewAppointment, EventName(msg))
		var decoded models.Event
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, models.EventNewAppointment, decoded.Name)
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestDedupeMessagesKeepsLastCopyInFirstSeenOrder(t *testing.T) {
	in := []json.RawMessage{
		json.RawMessage(`{"id":"a","body":"one"}`),
		json.RawMessage(`{"id":"b","body":"two"}`),
		json.RawMessage(`{"id":"a","body":"one-edited"}`),
	}
	out := dedupeMessages(in)
	require.Len(t, out, 2)
	assert.JSONEq(t, `{"id":"a","body":"one-edited"}`, string(out[0]))
	assert.JSONEq(t, `{"id":"b","body":"two"}`, string(out[1]))
}

func TestWappiReadsAreRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token", r.Header.Get("Authorization"))
		assert.Equal(t, "profile", r.URL.Query().Get("profile_id"))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"messages":[{"id":"m1"},{"id":"m1"},{"id":"m2"}]}`))
	}))
	defer srv.Close()

	c := NewWappiClient(WappiConfig{BaseURL: srv.URL, Token: "token", ProfileID: "profile", MaxRetries: 2})
	msgs, err := c.Messages(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWappiSendsAreNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail":"upstream"}`))
	}))
	defer srv.Close()

	c := NewWappiClient(WappiConfig{BaseURL: srv.URL, Token: "token", ProfileID: "profile", MaxRetries: 3})
	_, err := c.Send(context.Background(), models.WhatsAppMessage{To: "79990000000", Message: "hello"})

	var gw *GatewayError
	require.True(t, errors.As(err, &gw))
	assert.Equal(t, http.StatusBadGateway, gw.Status)
	assert.JSONEq(t, `{"detail":"upstream"}`, string(gw.Body))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWappiSendDocumentRoutesByType(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"status":"done"}`))
	}))
	defer srv.Close()

	c := NewWappiClient(WappiConfig{BaseURL: srv.URL, Token: "token", ProfileID: "profile"})
	_, err := c.SendDocument(context.Background(), models.WhatsAppDocument{
		To: "79990000000@c.us", FileName: "scan.png", FileData: "aGk=", FileType: "image",
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/sync/message/img/send", gotPath)
	assert.Equal(t, "79990000000", gotBody["recipient"])
	assert.Equal(t, "aGk=", gotBody["b64_file"])

	_, err = c.SendDocument(context.Background(), models.WhatsAppDocument{To: "1", FileType: "audio"})
	assert.Equal(t, http.StatusBadRequest, utils.StatusFor(err))
}

func TestWappiMediaWithoutLinkIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"done"}`))
	}))
	defer srv.Close()

	c := NewWappiClient(WappiConfig{BaseURL: srv.URL, Token: "token"})
	_, err := c.Media(context.Background(), "msg-1")
	assert.True(t, utils.IsNotFound(err))
}

func TestNewWappiClientRequiresToken(t *testing.T) {
	assert.Nil(t, NewWappiClient(WappiConfig{BaseURL: "https://wappi.pro"}))
}

func TestBuildMessageHeaders(t *testing.T) {
	raw := string(buildMessage("clinic@example.com", models.Mail{
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "Invoice HD-INV-001-02/2025-0001",
		Body:    "<p>Pay here</p>",
		HTML:    true,
	}))
	assert.Contains(t, raw, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n\r\n<p>Pay here</p>")
	assert.True(t, strings.HasPrefix(raw, "From: clinic@example.com\r\n"))
}

func TestSMTPMailerRejectsEmptyRecipients(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: 1})
	err := m.Send(context.Background(), models.Mail{Subject: "x", Body: "y"})
	assert.Equal(t, http.StatusBadRequest, utils.StatusFor(err))
	assert.Nil(t, NewSMTPMailer(SMTPConfig{}))
}
