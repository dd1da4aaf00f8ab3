package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/neutralface-io/nfai-web/internal/auth"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/neutralface-io/nfai-web/pkg/utils"
)

func (h *Handler) ListCollections(c *fiber.Ctx) error {
	list, err := h.Gateway.ListCollections(c.UserContext(), auth.Wallet(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithData(list).Send()
}

func (h *Handler) GetCollection(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	col, err := h.Gateway.GetCollection(c.UserContext(), auth.Wallet(c), id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithData(col).Send()
}

func (h *Handler) CreateCollection(c *fiber.Ctx) error {
	var in models.CollectionInput
	if err := h.parseBody(c, &in); err != nil {
		return utils.SendError(c, err)
	}
	col, err := h.Gateway.CreateCollection(c.UserContext(), auth.Wallet(c), in)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithStatus(fiber.StatusCreated).WithMessage("Collection created").WithData(col).Send()
}

func (h *Handler) UpdateCollection(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	var p models.CollectionPatch
	if err := h.parseBody(c, &p); err != nil {
		return utils.SendError(c, err)
	}
	col, err := h.Gateway.UpdateCollection(c.UserContext(), auth.Wallet(c), id, p)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithMessage("Collection updated").WithData(col).Send()
}

func (h *Handler) DeleteCollection(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	if err := h.Gateway.DeleteCollection(c.UserContext(), auth.Wallet(c), id); err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithMessage("Collection deleted").Send()
}

func (h *Handler) AddToCollection(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	datasetID, err := paramID(c, "datasetID")
	if err != nil {
		return utils.SendError(c, err)
	}
	if err := h.Gateway.AddToCollection(c.UserContext(), auth.Wallet(c), id, datasetID); err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithMessage("Dataset added to collection").Send()
}

func (h *Handler) RemoveFromCollection(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	datasetID, err := paramID(c, "datasetID")
	if err != nil {
		return utils.SendError(c, err)
	}
	if err := h.Gateway.RemoveFromCollection(c.UserContext(), auth.Wallet(c), id, datasetID); err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithMessage("Dataset removed from collection").Send()
}

// ShareCollection handles POST /collections/:id/share with {"wallet_address": "..."}.
func (h *Handler) ShareCollection(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	var in models.ShareInput
	if err := h.parseBody(c, &in); err != nil {
		return utils.SendError(c, err)
	}
	col, err := h.Gateway.ShareCollection(c.UserContext(), auth.Wallet(c), id, in)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithMessage("Collection shared").WithData(col).Send()
}
