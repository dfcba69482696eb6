package mailer

import (
	"context"
	"errors"
	"testing"

	mail "github.com/go-mail/mail/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDialer struct {
	sent []*mail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestMailer_Send(t *testing.T) {
	d := &fakeDialer{}
	m := NewWithDialer(d, "Subsidie <noreply@mistersubsidie.nl>")

	err := m.Send(context.Background(), Message{
		To:      []string{"info@acme.nl"},
		Subject: "Aanvraag ontvangen",
		Text:    "Bedankt",
		HTML:    "<p>Bedankt</p>",
	})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"info@acme.nl"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Aanvraag ontvangen"}, d.sent[0].GetHeader("Subject"))
	assert.Equal(t, []string{"Subsidie <noreply@mistersubsidie.nl>"}, d.sent[0].GetHeader("From"))
}

func TestMailer_SendErrors(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}
	m := NewWithDialer(d, "noreply@mistersubsidie.nl")

	err := m.Send(context.Background(), Message{To: []string{"a@b.nl"}})
	assert.ErrorContains(t, err, "connection refused")

	assert.NoError(t, m.Send(context.Background(), Message{}), "no recipients is a no-op")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: []string{"a@b.nl"}}), context.Canceled)
}

func TestNew_RequiresHostAndFrom(t *testing.T) {
	_, err := New(Config{Host: "smtp.example.nl"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	m, err := New(Config{Host: "smtp.example.nl", From: "x@example.nl", UseTLS: true})
	require.NoError(t, err)
	assert.NotNil(t, m)
}
