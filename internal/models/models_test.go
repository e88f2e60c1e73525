package models

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTradeSide(t *testing.T) {
	tests := []struct {
		in      string
		want    TradeSide
		wantErr bool
	}{
		{"bid", SideBid, false},
		{"bids", SideBid, false},
		{"ask", SideAsk, false},
		{"asks", SideAsk, false},
		{"BID", "", true},
		{"", "", true},
		{"offer", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTradeSide(tt.in)
			if tt.wantErr {
				assert.Equal(t, CodeValidation, ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProductBookAndFindTrade(t *testing.T) {
	p := &Product{ID: "p1"}

	bids, err := p.Book(SideBid)
	require.NoError(t, err)
	*bids = append(*bids, Trade{ID: "b1", Price: decimal.NewFromInt(10)})

	asks, err := p.Book(SideAsk)
	require.NoError(t, err)
	*asks = append(*asks, Trade{ID: "a1"})

	require.Len(t, p.Bids, 1)
	require.Len(t, p.Asks, 1)

	tr, ok := p.FindTrade("a1")
	require.True(t, ok)
	assert.Equal(t, "a1", tr.ID)

	_, ok = p.FindTrade("missing")
	assert.False(t, ok)

	_, err = p.Book("both")
	assert.Equal(t, CodeValidation, ErrorCode(err))
}

func TestTradePatchApply(t *testing.T) {
	tr := Trade{Price: decimal.NewFromInt(5), Quantity: 1, Address: "old"}
	qty := 4
	TradePatch{Quantity: &qty}.Apply(&tr)

	assert.True(t, tr.Price.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 4, tr.Quantity)
	assert.Equal(t, "old", tr.Address)
}

func TestUserRequestHelpers(t *testing.T) {
	u := &User{
		Password: "hash",
		Requests: []TradeRequest{
			{TradeID: "t1", UserID: "a"},
			{TradeID: "t2", UserID: "b"},
			{TradeID: "t1", UserID: "c"},
		},
		TradeRequestSent: []string{"t9"},
		Chats:            []ChatLink{{ChatID: "c1", PartnerID: "p"}},
	}

	req, ok := u.FindRequest("t1")
	require.True(t, ok)
	assert.Equal(t, "a", req.UserID)

	assert.True(t, u.RemoveRequests("t1"))
	assert.Len(t, u.Requests, 1)
	assert.False(t, u.RemoveRequests("t1"))

	assert.True(t, u.HasSentRequest("t9"))
	assert.False(t, u.HasSentRequest("t1"))

	link, ok := u.ChatWith("p")
	require.True(t, ok)
	assert.Equal(t, "c1", link.ChatID)
	assert.True(t, u.HasChat("c1"))
	assert.False(t, u.HasChat("c2"))

	assert.Empty(t, u.Public().Password)
	assert.Equal(t, "hash", u.Password)
}

func TestChatCounterpart(t *testing.T) {
	c := &Chat{User1: Participant{ID: "u1", Username: "one"}, User2: Participant{ID: "u2", Username: "two"}}

	other, isUser1, ok := c.Counterpart("u1")
	assert.True(t, ok)
	assert.True(t, isUser1)
	assert.Equal(t, "u2", other.ID)

	other, isUser1, ok = c.Counterpart("u2")
	assert.True(t, ok)
	assert.False(t, isUser1)
	assert.Equal(t, "one", other.Username)

	_, _, ok = c.Counterpart("u3")
	assert.False(t, ok)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewNotFoundError("x"), fiber.StatusNotFound},
		{NewUnauthorizedError("x"), fiber.StatusForbidden},
		{NewConflictError("x"), fiber.StatusConflict},
		{NewInvalidStateError("x"), fiber.StatusUnprocessableEntity},
		{NewValidationError("x"), fiber.StatusBadRequest},
		{NewUpstreamError("x", errors.New("down")), fiber.StatusBadGateway},
		{NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{errors.New("plain"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestRespondWithErrorHidesCause(t *testing.T) {
	app := fiber.New()
	app.Get("/app", func(c *fiber.Ctx) error {
		err := NewUpstreamError("Document store unavailable", errors.New("dial tcp 10.0.0.1: refused"))
		return RespondWithError(c, StatusFor(err), err)
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, errors.New("secret detail"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/app", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	var got ErrorResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, ErrorResponse{Error: "Document store unavailable", Code: CodeUpstream}, got)

	resp, err = app.Test(httptest.NewRequest("GET", "/plain", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "secret detail")
	assert.Contains(t, string(body), CodeInternal)
}
