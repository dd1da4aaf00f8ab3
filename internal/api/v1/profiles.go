package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/neutralface-io/nfai-web/internal/auth"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/neutralface-io/nfai-web/pkg/utils"
)

// GetProfile returns the full profile to its owner and the public fields to
// everyone else.
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	wallet := c.Params("wallet")
	p, err := h.Gateway.GetProfile(c.UserContext(), wallet)
	if err != nil {
		return utils.SendError(c, err)
	}
	if caller := auth.Wallet(c); caller == "" || caller != wallet {
		return utils.Success(c).WithData(p.Public()).Send()
	}
	return utils.Success(c).WithData(p).Send()
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var in models.ProfileInput
	if err := h.parseBody(c, &in); err != nil {
		return utils.SendError(c, err)
	}
	p, err := h.Gateway.UpdateProfile(c.UserContext(), auth.Wallet(c), in)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithMessage("Profile updated").WithData(p).Send()
}
