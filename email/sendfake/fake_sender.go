package fakesender

import (
	"sync"

	"github.com/storytail/storytail-server/email"
)

var _ email.Sender = (*FakeSender)(nil)

// SentMail records one outbound message.
type SentMail struct {
	To   string
	Name string
	Link string
	Kind string // "verification" or "reset"
}

// FakeSender records messages instead of sending them.
type FakeSender struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error // returned from every send when set
}

func NewFakeSender() *FakeSender {
	return &FakeSender{}
}

func (s *FakeSender) SendVerificationEmail(to, name, link string) error {
	return s.record(SentMail{To: to, Name: name, Link: link, Kind: "verification"})
}

func (s *FakeSender) SendPasswordResetEmail(to, name, link string) error {
	return s.record(SentMail{To: to, Name: name, Link: link, Kind: "reset"})
}

func (s *FakeSender) record(mail SentMail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Sent = append(s.Sent, mail)
	return nil
}

// Last returns the most recent message, or nil when none were sent.
func (s *FakeSender) Last() *SentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Sent) == 0 {
		return nil
	}
	mail := s.Sent[len(s.Sent)-1]
	return &mail
}
