package notify

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

type copyText struct {
	title string
	body  string
	// args names the data keys substituted into body, in order.
	args []string
}

var english = map[string]copyText{
	FriendsInvite: {
		title: "Friendship request",
		body:  "%[1]s has requested to add you as a friend.",
		args:  []string{"from_username"},
	},
	FriendsInviteSent: {
		title: "Friendship requested",
		body:  "You have invited %[1]s to add you as a friend.",
		args:  []string{"to_username"},
	},
	FriendsAccept: {
		title: "Invitation accepted",
		body:  "%[1]s has accepted your friendship request.",
		args:  []string{"to_username"},
	},
	FriendsAcceptSent: {
		title: "Friend added",
		body:  "You accepted the friendship request from %[1]s.",
		args:  []string{"from_username"},
	},
	FriendsOtherConnect: {
		title: "New connection",
		body:  "%[1]s and %[2]s are now friends.",
		args:  []string{"from_username", "to_username"},
	},
	JoinAccept: {
		title: "Invitation to join accepted",
		body:  "%[1]s accepted your invitation to join and is now your friend.",
		args:  []string{"to_username"},
	},
}

var portuguese = map[string]copyText{
	FriendsInvite:       {title: "Pedido de amizade", body: "%[1]s quer adicionar você como amigo."},
	FriendsInviteSent:   {title: "Pedido enviado", body: "Você convidou %[1]s para ser seu amigo."},
	FriendsAccept:       {title: "Convite aceito", body: "%[1]s aceitou seu pedido de amizade."},
	FriendsAcceptSent:   {title: "Amigo adicionado", body: "Você aceitou o pedido de amizade de %[1]s."},
	FriendsOtherConnect: {title: "Nova conexão", body: "%[1]s e %[2]s agora são amigos."},
	JoinAccept:          {title: "Convite aceito", body: "%[1]s aceitou seu convite e agora é seu amigo."},
}

const (
	genericTitle = "Notification"
	genericBody  = "You have a new notification."
)

var locales = map[language.Tag]map[string]copyText{
	language.English:             english,
	language.BrazilianPortuguese: portuguese,
}

var noticeCatalog = mustCatalog(buildCatalog(locales))

func buildCatalog(byTag map[language.Tag]map[string]copyText) (catalog.Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, texts := range byTag {
		for noticeType, c := range texts {
			if err := b.SetString(tag, noticeType+".title", c.title); err != nil {
				return nil, fmt.Errorf("%s %s title: %w", tag, noticeType, err)
			}
			if err := b.SetString(tag, noticeType+".body", c.body); err != nil {
				return nil, fmt.Errorf("%s %s body: %w", tag, noticeType, err)
			}
		}
	}
	return b, nil
}

func mustCatalog(c catalog.Catalog, err error) catalog.Catalog {
	if err != nil {
		panic(err)
	}
	return c
}

// Renderer turns a notice type plus its data into display copy.
type Renderer struct {
	printer *message.Printer
}

func NewRenderer(tag language.Tag) *Renderer {
	return &Renderer{printer: message.NewPrinter(tag, message.Catalog(noticeCatalog))}
}

// Render returns the title and body for noticeType. Unknown types get
// generic copy.
func (r *Renderer) Render(noticeType string, data map[string]string) (title, body string) {
	c, ok := english[noticeType]
	if !ok {
		return genericTitle, genericBody
	}
	args := make([]any, len(c.args))
	for i, key := range c.args {
		v := data[key]
		if v == "" {
			v = "someone"
		}
		args[i] = v
	}
	return r.printer.Sprintf(noticeType + ".title"), r.printer.Sprintf(noticeType+".body", args...)
}
