package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spotme/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLoginStarted MsgKind = iota
	MsgCodeReceived
	MsgExchangeDone
	MsgRecommendationsFetched
)

type loginStarted struct {
	url string
	err error
}

type codeReceived struct {
	code string
	err  error
}

type recommendationsFetched struct {
	result *models.RecommendationResult
	err    error
}

// loginStartedMsg is the constructor for [MsgLoginStarted]
func loginStartedMsg(url string, err error) Msg {
	return Msg{kind: MsgLoginStarted, data: loginStarted{url, err}}
}

// codeReceivedMsg is the constructor for [MsgCodeReceived]
func codeReceivedMsg(code string, err error) Msg {
	return Msg{kind: MsgCodeReceived, data: codeReceived{code, err}}
}

// exchangeDoneMsg is the constructor for [MsgExchangeDone]
func exchangeDoneMsg(err error) Msg {
	return Msg{kind: MsgExchangeDone, data: err}
}

// recommendationsFetchedMsg is the constructor for [MsgRecommendationsFetched]
func recommendationsFetchedMsg(result *models.RecommendationResult, err error) Msg {
	return Msg{kind: MsgRecommendationsFetched, data: recommendationsFetched{result, err}}
}

// Kind reports the message type.
func (m Msg) Kind() MsgKind { return m.kind }
