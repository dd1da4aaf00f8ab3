package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/neutralface-io/nfai-web/pkg/logger"
	"github.com/neutralface-io/nfai-web/pkg/utils"
)

// WalletHeader carries the caller's base58 wallet address.
const WalletHeader = "X-Wallet-Address"

const walletLocal = "wallet"

// Identify attaches the wallet from WalletHeader to the request when present.
// A malformed address is rejected; a missing one leaves the request anonymous.
func Identify(opt Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wallet := strings.TrimSpace(c.Get(WalletHeader))
		if wallet == "" {
			return c.Next()
		}

		if !utils.IsWalletAddress(wallet) {
			if opt.Logger != nil {
				opt.Logger.Warn(c.UserContext()).WithFields("wallet", wallet).Logs("Rejected malformed wallet address")
			}
			return utils.SendError(c, utils.NewError(utils.ErrUnauthorized.Code, "Invalid wallet address"))
		}

		c.Locals(walletLocal, wallet)
		c.SetUserContext(logger.WithWallet(c.UserContext(), wallet))
		return c.Next()
	}
}

// RequireWallet rejects anonymous requests.
func RequireWallet(opt Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Wallet(c) == "" {
			if opt.Logger != nil {
				opt.Logger.Debug(c.UserContext()).WithFields("path", c.Path()).Logs("Wallet required")
			}
			return utils.SendError(c, utils.NewError(utils.ErrUnauthorized.Code, MsgConnectWallet))
		}
		return c.Next()
	}
}

// Wallet returns the identified wallet, or "" for anonymous requests.
func Wallet(c *fiber.Ctx) string {
	wallet, _ := c.Locals(walletLocal).(string)
	return wallet
}
