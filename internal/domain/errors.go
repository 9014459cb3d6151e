package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNoExchanges      = errors.New("no exchanges connected")
	ErrLiveNotConfirmed = errors.New("live execution blocked: require execute-signals and live-confirm gates")
	ErrOMSNotConfigured = errors.New("oms client not configured")
	ErrWSDisconnect     = errors.New("websocket disconnected")
)
