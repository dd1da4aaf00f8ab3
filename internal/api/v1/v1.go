package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/neutralface-io/nfai-web/internal/auth"
	"github.com/neutralface-io/nfai-web/internal/gateway"
	"github.com/neutralface-io/nfai-web/pkg/logger"
	"github.com/neutralface-io/nfai-web/pkg/utils"
)

// Handler serves the marketplace API on top of a Gateway.
type Handler struct {
	Gateway *gateway.Gateway
	Logger  *logger.Logger
}

func New(g *gateway.Gateway, log *logger.Logger) *Handler {
	return &Handler{Gateway: g, Logger: log}
}

// Register mounts every route on r. Mutations need a connected wallet.
func (h *Handler) Register(r fiber.Router) {
	wallet := auth.RequireWallet(auth.Options{Logger: h.Logger})

	datasets := r.Group("/datasets")
	datasets.Get("/", h.ListDatasets)
	datasets.Get("/search", h.SearchDatasets)
	datasets.Get("/:id", h.GetDataset)
	datasets.Post("/", wallet, h.CreateDataset)
	datasets.Patch("/:id", wallet, h.UpdateDataset)
	datasets.Put("/:id/topics", wallet, h.UpdateTopics)
	datasets.Delete("/:id", wallet, h.DeleteDataset)
	datasets.Post("/:id/file", wallet, h.UploadDatasetFile)
	datasets.Post("/:id/like", wallet, h.ToggleLike)

	r.Get("/likes", wallet, h.LikedSet)
	r.Get("/topics", h.ListTopics)

	r.Get("/profiles/:wallet", h.GetProfile)
	r.Put("/profile", wallet, h.UpdateProfile)

	collections := r.Group("/collections")
	collections.Get("/", h.ListCollections)
	collections.Get("/:id", h.GetCollection)
	collections.Post("/", wallet, h.CreateCollection)
	collections.Patch("/:id", wallet, h.UpdateCollection)
	collections.Delete("/:id", wallet, h.DeleteCollection)
	collections.Post("/:id/datasets/:datasetID", wallet, h.AddToCollection)
	collections.Delete("/:id/datasets/:datasetID", wallet, h.RemoveFromCollection)
	collections.Post("/:id/share", wallet, h.ShareCollection)
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, utils.NewError(utils.ErrBadRequest.Code, "Invalid id", c.Params(name))
	}
	return id, nil
}

// parseBody decodes the JSON body into out, rejecting unknown fields.
func (h *Handler) parseBody(c *fiber.Ctx, out interface{}) error {
	if err := utils.StrictBodyParser(c, out); err != nil {
		h.Logger.Warn(c.UserContext()).WithFields("error", err).Logs("Failed to parse request body")
		return utils.NewError(utils.ErrBadRequest.Code, "Invalid request format", err.Error())
	}
	return nil
}
