package messaging

import (
	"context"

	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/user"
)

// MessageView is a message with sender and receiver expanded.
type MessageView struct {
	*model.Message
	Sender   *user.Contact `json:"senderId"`
	Receiver *user.Contact `json:"receiverId"`
}

func populate(ctx context.Context, contacts *user.Contacts, m *model.Message) (*MessageView, error) {
	sender, err := contacts.Get(ctx, m.SenderID)
	if err != nil {
		return nil, err
	}
	receiver, err := contacts.Get(ctx, m.ReceiverID)
	if err != nil {
		return nil, err
	}
	return &MessageView{Message: m, Sender: sender, Receiver: receiver}, nil
}

// Populate expands the parties of msgs, looking each user up once.
func (s *Service) Populate(ctx context.Context, msgs ...*model.Message) ([]*MessageView, error) {
	contacts := user.NewContacts(s.store)
	out := make([]*MessageView, 0, len(msgs))
	for _, m := range msgs {
		v, err := populate(ctx, contacts, m)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
