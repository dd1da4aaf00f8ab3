// Package auth carries the wallet identity of a request and the ownership gate
// every mutation passes through.
package auth

import (
	"strings"

	"github.com/neutralface-io/nfai-web/pkg/logger"
	"github.com/neutralface-io/nfai-web/pkg/utils"
)

const (
	MsgConnectWallet = "Please connect your wallet"
	MsgNotOwner      = "Only the owner can modify this resource"
)

type Options struct {
	Logger *logger.Logger
}

// Authorize fails closed: no wallet is 401, a wallet other than owner is 403.
func Authorize(wallet, owner string) error {
	if strings.TrimSpace(wallet) == "" {
		return utils.NewError(utils.ErrUnauthorized.Code, MsgConnectWallet)
	}
	if owner == "" || wallet != owner {
		return utils.NewError(utils.ErrForbidden.Code, MsgNotOwner)
	}
	return nil
}

// RequireConnected reports 401 when no wallet is connected.
func RequireConnected(wallet string) error {
	if strings.TrimSpace(wallet) == "" {
		return utils.NewError(utils.ErrUnauthorized.Code, MsgConnectWallet)
	}
	return nil
}

// CanEdit tells presentation code whether to offer edit controls.
func CanEdit(wallet, owner string) bool {
	return Authorize(wallet, owner) == nil
}
