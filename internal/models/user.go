package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ChatLink is a user's pointer to a chat shared with one partner.
type ChatLink struct {
	ChatID      string `json:"chat_id"`
	PartnerID   string `json:"partner_id"`
	PartnerName string `json:"partner_name"`
	IsUser1     bool   `json:"is_user1"`
}

// TradeRequest is a pending request stored on the receiving user. Trade
// fields are a snapshot taken when the request was submitted.
type TradeRequest struct {
	ID          string          `json:"id"`
	TradeID     string          `json:"trade_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Address     string          `json:"address"`
	UserID      string          `json:"user_id"`
	Username    string          `json:"username"`
	CreatedAt   time.Time       `json:"created_at"`
}

// User is an account document. It embeds the user's chat links, the trade
// requests addressed to them and the trade ids they have requested.
type User struct {
	ID               string         `json:"id"`
	Username         string         `json:"username"`
	PhoneNumber      string         `json:"phone_number"`
	Password         string         `json:"password,omitempty"`
	Chats            []ChatLink     `json:"chats"`
	Requests         []TradeRequest `json:"requests"`
	TradeRequestSent []string       `json:"trade_request_sent"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (u *User) GetID() string   { return u.ID }
func (u *User) SetID(id string) { u.ID = id }

// Public returns a copy safe to send to clients.
func (u *User) Public() *User {
	cp := *u
	cp.Password = ""
	return &cp
}

// HasSentRequest reports whether the user already requested tradeID.
func (u *User) HasSentRequest(tradeID string) bool {
	return slices.Contains(u.TradeRequestSent, tradeID)
}

// FindRequest returns the first pending request for tradeID.
func (u *User) FindRequest(tradeID string) (*TradeRequest, bool) {
	for i := range u.Requests {
		if u.Requests[i].TradeID == tradeID {
			return &u.Requests[i], true
		}
	}
	return nil, false
}

// RemoveRequests drops every pending request for tradeID and reports whether any existed.
func (u *User) RemoveRequests(tradeID string) bool {
	before := len(u.Requests)
	u.Requests = slices.DeleteFunc(u.Requests, func(r TradeRequest) bool {
		return r.TradeID == tradeID
	})
	return len(u.Requests) != before
}

// ChatWith returns the user's link to a chat with partnerID, if any.
func (u *User) ChatWith(partnerID string) (*ChatLink, bool) {
	for i := range u.Chats {
		if u.Chats[i].PartnerID == partnerID {
			return &u.Chats[i], true
		}
	}
	return nil, false
}

// HasChat reports whether a link to chatID is present.
func (u *User) HasChat(chatID string) bool {
	return slices.ContainsFunc(u.Chats, func(l ChatLink) bool { return l.ChatID == chatID })
}

// PhoneIndex reserves a phone number for one user.
type PhoneIndex struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

func (p *PhoneIndex) GetID() string   { return p.ID }
func (p *PhoneIndex) SetID(id string) { p.ID = id }
